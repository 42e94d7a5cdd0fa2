package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock(t *testing.T) {
	t.Run("serializes same key", func(t *testing.T) {
		k := New()
		ctx := t.Context()

		var (
			wg      sync.WaitGroup
			counter int
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, k.Lock(ctx, "loan:1"))
				defer k.Unlock("loan:1")
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
		assert.Empty(t, k.locks)
	})
	t.Run("different keys do not block", func(t *testing.T) {
		k := New()
		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()

		require.NoError(t, k.Lock(ctx, "loan:1"))
		require.NoError(t, k.Lock(ctx, "loan:2"))
		k.Unlock("loan:1")
		k.Unlock("loan:2")
	})
	t.Run("context cancelled while waiting", func(t *testing.T) {
		k := New()
		require.NoError(t, k.Lock(t.Context(), "protocol"))

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		err := k.Lock(ctx, "protocol")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		k.Unlock("protocol")
		assert.Empty(t, k.locks)
	})
	t.Run("lock all releases on failure", func(t *testing.T) {
		k := New()
		require.NoError(t, k.Lock(t.Context(), "protocol"))

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		_, err := k.LockAll(ctx, "loan:1", "borrower:a", "protocol")
		require.Error(t, err)

		// loan and borrower keys were released
		unlock, err := k.LockAll(t.Context(), "loan:1", "borrower:a")
		require.NoError(t, err)
		unlock()
		k.Unlock("protocol")
		assert.Empty(t, k.locks)
	})
	t.Run("unlock of unlocked key panics", func(t *testing.T) {
		k := New()
		assert.Panics(t, func() { k.Unlock("nothing") })
	})
}
