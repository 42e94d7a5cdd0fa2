// Package keylock provides in-process mutual exclusion keyed by string.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	// sem holds one token while the key is locked
	sem  chan struct{}
	refs int
}

// KeyLock hands out one exclusive lock per key. Entries are created on first
// use and dropped once no goroutine holds or waits for them.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

func (k *KeyLock) acquireEntry(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *KeyLock) releaseEntry(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Lock blocks until key is acquired or ctx is done.
func (k *KeyLock) Lock(ctx context.Context, key string) error {
	e := k.acquireEntry(key)
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.releaseEntry(key, e)
		return ctx.Err()
	}
}

// Unlock releases key. Unlocking a key that is not held panics.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	k.mu.Unlock()
	if !ok {
		panic("keylock: unlock of unlocked key " + key)
	}

	select {
	case <-e.sem:
	default:
		panic("keylock: unlock of unlocked key " + key)
	}
	k.releaseEntry(key, e)
}

// LockAll acquires keys in the given order. On failure every key already
// taken is released. The returned function releases all keys in reverse
// order.
func (k *KeyLock) LockAll(ctx context.Context, keys ...string) (func(), error) {
	taken := make([]string, 0, len(keys))
	unlock := func() {
		for i := len(taken) - 1; i >= 0; i-- {
			k.Unlock(taken[i])
		}
	}

	for _, key := range keys {
		if err := k.Lock(ctx, key); err != nil {
			unlock()
			return nil, err
		}
		taken = append(taken, key)
	}

	return unlock, nil
}
