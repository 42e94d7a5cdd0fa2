// Package dbtest provides an in-memory db.DbInterface for unit tests.
package dbtest

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/internal/utils"
)

type state struct {
	protocol  *model.ProtocolConfigDocument
	borrowers map[string]model.BorrowerDocument
	loans     map[uint64]model.LoanDocument
	accounts  map[string]model.TokenAccountDocument
	events    map[string]model.LoanEventDocument
}

func (s *state) clone() *state {
	c := &state{
		borrowers: maps.Clone(s.borrowers),
		loans:     maps.Clone(s.loans),
		accounts:  maps.Clone(s.accounts),
		events:    maps.Clone(s.events),
	}
	if s.protocol != nil {
		p := *s.protocol
		c.protocol = &p
	}
	return c
}

// MemoryDB keeps every collection in maps. Transactions are serialized and
// roll back by restoring a snapshot.
type MemoryDB struct {
	txMu sync.Mutex
	mu   sync.Mutex
	s    *state

	failures map[string]error
}

var _ db.DbInterface = (*MemoryDB)(nil)

func New() *MemoryDB {
	return &MemoryDB{
		s: &state{
			borrowers: make(map[string]model.BorrowerDocument),
			loans:     make(map[uint64]model.LoanDocument),
			accounts:  make(map[string]model.TokenAccountDocument),
			events:    make(map[string]model.LoanEventDocument),
		},
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of method return err. A nil err clears it.
func (m *MemoryDB) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// injected returns the failure registered for the calling method. m.mu must
// be held.
func (m *MemoryDB) injected() error {
	method := utils.GetFunctionName(1)
	if idx := strings.LastIndex(method, "."); idx >= 0 {
		method = method[idx+1:]
	}
	return m.failures[method]
}

func (m *MemoryDB) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryDB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.s.clone()
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.s = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryDB) GetProtocolConfig(ctx context.Context) (*model.ProtocolConfigDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}

	if m.s.protocol == nil {
		return nil, &db.NotFoundError{Key: model.ProtocolConfigID, Message: "protocol config not found"}
	}
	doc := *m.s.protocol
	return &doc, nil
}

func (m *MemoryDB) SaveProtocolConfig(ctx context.Context, doc *model.ProtocolConfigDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	if m.s.protocol != nil {
		return &db.DuplicateKeyError{Key: model.ProtocolConfigID, Message: "protocol config already exists"}
	}
	stored := *doc
	m.s.protocol = &stored
	return nil
}

func (m *MemoryDB) UpdateProtocolConfig(ctx context.Context, doc *model.ProtocolConfigDocument, expectedVersion uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	if m.s.protocol == nil || m.s.protocol.Version != expectedVersion {
		return &db.ConcurrentUpdateError{Key: model.ProtocolConfigID, Message: "protocol config not found or modified concurrently"}
	}
	stored := *doc
	m.s.protocol = &stored
	return nil
}

func (m *MemoryDB) GetBorrower(ctx context.Context, owner string) (*model.BorrowerDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}

	doc, ok := m.s.borrowers[owner]
	if !ok {
		return nil, &db.NotFoundError{Key: owner, Message: "borrower profile not found"}
	}
	return &doc, nil
}

func (m *MemoryDB) SaveNewBorrower(ctx context.Context, doc *model.BorrowerDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	if _, ok := m.s.borrowers[doc.Owner]; ok {
		return &db.DuplicateKeyError{Key: doc.Owner, Message: "borrower profile already exists"}
	}
	m.s.borrowers[doc.Owner] = *doc
	return nil
}

func (m *MemoryDB) UpdateBorrower(ctx context.Context, doc *model.BorrowerDocument, expectedVersion uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	stored, ok := m.s.borrowers[doc.Owner]
	if !ok || stored.Version != expectedVersion {
		return &db.ConcurrentUpdateError{Key: doc.Owner, Message: "borrower profile not found or modified concurrently"}
	}
	m.s.borrowers[doc.Owner] = *doc
	return nil
}

func (m *MemoryDB) GetLoan(ctx context.Context, loanID uint64) (*model.LoanDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}

	doc, ok := m.s.loans[loanID]
	if !ok {
		return nil, &db.NotFoundError{Key: strconv.FormatUint(loanID, 10), Message: "loan not found"}
	}
	return &doc, nil
}

func (m *MemoryDB) GetLoansByBorrower(ctx context.Context, borrower string) ([]*model.LoanDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}

	var loans []*model.LoanDocument
	for _, id := range slices.Sorted(maps.Keys(m.s.loans)) {
		doc := m.s.loans[id]
		if doc.Borrower == borrower {
			loans = append(loans, &doc)
		}
	}
	return loans, nil
}

func (m *MemoryDB) SaveNewLoan(ctx context.Context, doc *model.LoanDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	if _, ok := m.s.loans[doc.LoanID]; ok {
		return &db.DuplicateKeyError{Key: strconv.FormatUint(doc.LoanID, 10), Message: "loan already exists"}
	}
	m.s.loans[doc.LoanID] = *doc
	return nil
}

func (m *MemoryDB) UpdateLoan(
	ctx context.Context, doc *model.LoanDocument, expectedVersion uint64, qualifiedStatuses []types.LoanStatus,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	stored, ok := m.s.loans[doc.LoanID]
	if !ok || stored.Version != expectedVersion || !utils.Contains(qualifiedStatuses, stored.Status) {
		return &db.ConcurrentUpdateError{
			Key:     strconv.FormatUint(doc.LoanID, 10),
			Message: "loan not found, modified concurrently or not in a qualified status",
		}
	}
	m.s.loans[doc.LoanID] = *doc
	return nil
}

func (m *MemoryDB) GetTokenAccount(ctx context.Context, owner string) (*model.TokenAccountDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}

	doc, ok := m.s.accounts[owner]
	if !ok {
		return nil, &db.NotFoundError{Key: owner, Message: "token account not found"}
	}
	return &doc, nil
}

func (m *MemoryDB) CreditTokenAccount(ctx context.Context, owner string, amount uint64, delegate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	account := m.s.accounts[owner]
	account.Owner = owner
	if amount > math.MaxInt64 || account.Balance > math.MaxInt64-amount {
		return fmt.Errorf("credit amount %d exceeds storable balance", amount)
	}
	account.Balance += amount
	if delegate != "" {
		account.Delegate = delegate
	}
	m.s.accounts[owner] = account
	return nil
}

func (m *MemoryDB) TransferTokens(ctx context.Context, from, to, authority string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	source, ok := m.s.accounts[from]
	if !ok {
		return &db.NotFoundError{Key: from, Message: "token account not found"}
	}
	if !source.CanBeMovedBy(authority) {
		return &db.UnauthorizedTransferError{Key: from, Message: authority + " is not allowed to move funds of " + from}
	}
	if source.Balance < amount {
		return &db.InsufficientFundsError{Key: from, Message: fmt.Sprintf("token account %s cannot cover %d", from, amount)}
	}
	source.Balance -= amount
	m.s.accounts[from] = source

	dest := m.s.accounts[to]
	dest.Owner = to
	dest.Balance += amount
	m.s.accounts[to] = dest
	return nil
}

func (m *MemoryDB) SaveLoanEvents(ctx context.Context, docs []*model.LoanEventDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	for _, doc := range docs {
		if _, ok := m.s.events[doc.ID]; ok {
			return &db.DuplicateKeyError{Key: doc.ID, Message: "loan event already exists"}
		}
	}
	for _, doc := range docs {
		m.s.events[doc.ID] = *doc
	}
	return nil
}

func (m *MemoryDB) sortedEvents(filter func(model.LoanEventDocument) bool) []*model.LoanEventDocument {
	var events []*model.LoanEventDocument
	for _, doc := range m.s.events {
		if filter(doc) {
			events = append(events, &doc)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.LoanID != b.LoanID {
			return a.LoanID < b.LoanID
		}
		if a.LoanVersion != b.LoanVersion {
			return a.LoanVersion < b.LoanVersion
		}
		return a.Sequence < b.Sequence
	})
	return events
}

func (m *MemoryDB) GetLoanEvents(ctx context.Context, loanID *uint64) ([]*model.LoanEventDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}

	return m.sortedEvents(func(doc model.LoanEventDocument) bool {
		return loanID == nil || doc.LoanID == *loanID
	}), nil
}

func (m *MemoryDB) GetUnpublishedLoanEvents(ctx context.Context, limit int64) ([]*model.LoanEventDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return nil, err
	}

	events := m.sortedEvents(func(doc model.LoanEventDocument) bool { return !doc.Published })
	if limit > 0 && int64(len(events)) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *MemoryDB) MarkLoanEventsPublished(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(); err != nil {
		return err
	}

	for _, id := range ids {
		if doc, ok := m.s.events[id]; ok {
			doc.Published = true
			m.s.events[id] = doc
		}
	}
	return nil
}
