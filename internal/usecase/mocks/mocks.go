package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/usecase"
)

// MockChequeRepository is a mock implementation of ChequeRepository.
type MockChequeRepository struct {
	mu      sync.RWMutex
	cheques map[string]*domain.Cheque

	AdmitFunc         func(ctx context.Context, tx usecase.Transaction, cheque *domain.Cheque) (usecase.AdmitResult, *domain.Cheque, error)
	GetByIDFunc       func(ctx context.Context, id string) (*domain.Cheque, error)
	GetByKeyFunc      func(ctx context.Context, key domain.NaturalKey) (*domain.Cheque, error)
	ListClaimableFunc func(ctx context.Context, now time.Time, limit int) ([]*domain.Cheque, error)
	ListInFlightFunc  func(ctx context.Context, updatedBefore time.Time, limit int) ([]*domain.Cheque, error)
	SetAttemptFunc    func(ctx context.Context, tx usecase.Transaction, id, attemptID string, attemptCount int, nextAttemptAt *time.Time) error
	FlagReviewFunc    func(ctx context.Context, tx usecase.Transaction, id, reason string, at time.Time) error
}

func NewMockChequeRepository() *MockChequeRepository {
	return &MockChequeRepository{
		cheques: make(map[string]*domain.Cheque),
	}
}

// Put seeds a cheque for tests that bypass Admit.
func (m *MockChequeRepository) Put(cheque *domain.Cheque) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cheques[cheque.ID] = cheque
}

func (m *MockChequeRepository) Admit(ctx context.Context, tx usecase.Transaction, cheque *domain.Cheque) (usecase.AdmitResult, *domain.Cheque, error) {
	if m.AdmitFunc != nil {
		return m.AdmitFunc(ctx, tx, cheque)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cheques {
		if existing.Key() == cheque.Key() {
			if existing.PayloadHash == cheque.PayloadHash {
				return usecase.AdmitDuplicateIgnored, existing, nil
			}
			return usecase.AdmitConflictingPayload, existing, nil
		}
	}
	m.cheques[cheque.ID] = cheque
	return usecase.AdmitAccepted, cheque, nil
}

func (m *MockChequeRepository) GetByID(ctx context.Context, id string) (*domain.Cheque, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cheques[id]; ok {
		return c, nil
	}
	return nil, domain.ErrChequeNotFound
}

func (m *MockChequeRepository) GetByKey(ctx context.Context, key domain.NaturalKey) (*domain.Cheque, error) {
	if m.GetByKeyFunc != nil {
		return m.GetByKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.cheques {
		if c.Key() == key {
			return c, nil
		}
	}
	return nil, domain.ErrChequeNotFound
}

func (m *MockChequeRepository) ListClaimable(ctx context.Context, now time.Time, limit int) ([]*domain.Cheque, error) {
	if m.ListClaimableFunc != nil {
		return m.ListClaimableFunc(ctx, now, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*domain.Cheque
	for _, c := range m.cheques {
		if c.CurrentState != domain.StatePendingSettlement {
			continue
		}
		if c.NextAttemptAt != nil && c.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, c)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (m *MockChequeRepository) ListInFlight(ctx context.Context, updatedBefore time.Time, limit int) ([]*domain.Cheque, error) {
	if m.ListInFlightFunc != nil {
		return m.ListInFlightFunc(ctx, updatedBefore, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stale []*domain.Cheque
	for _, c := range m.cheques {
		if c.CurrentState == domain.StateSettling && !c.NeedsReview && c.UpdatedAt.Before(updatedBefore) {
			stale = append(stale, c)
			if len(stale) == limit {
				break
			}
		}
	}
	return stale, nil
}

func (m *MockChequeRepository) SetAttempt(ctx context.Context, tx usecase.Transaction, id, attemptID string, attemptCount int, nextAttemptAt *time.Time) error {
	if m.SetAttemptFunc != nil {
		return m.SetAttemptFunc(ctx, tx, id, attemptID, attemptCount, nextAttemptAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cheques[id]; ok {
		c.AttemptID = attemptID
		c.AttemptCount = attemptCount
		c.NextAttemptAt = nextAttemptAt
	}
	return nil
}

func (m *MockChequeRepository) FlagReview(ctx context.Context, tx usecase.Transaction, id, reason string, at time.Time) error {
	if m.FlagReviewFunc != nil {
		return m.FlagReviewFunc(ctx, tx, id, reason, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cheques[id]; ok {
		c.NeedsReview = true
		c.ReviewReason = reason
	}
	return nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository. The
// default Append enforces the compare-and-set against the last appended
// record, mirroring the real store, and mutates the cheque map it shares
// with the cheque repository when one is attached.
type MockLedgerRepository struct {
	mu      sync.Mutex
	records map[string][]*domain.ClearingRecord
	cheques *MockChequeRepository

	AppendFunc        func(ctx context.Context, tx usecase.Transaction, rec *domain.ClearingRecord) error
	ListByChequeFunc  func(ctx context.Context, chequeID string) ([]*domain.ClearingRecord, error)
	PayerDayTotalFunc func(ctx context.Context, payerAccount string, day time.Time, excludeChequeID string) (int64, error)
}

func NewMockLedgerRepository(cheques *MockChequeRepository) *MockLedgerRepository {
	return &MockLedgerRepository{
		records: make(map[string][]*domain.ClearingRecord),
		cheques: cheques,
	}
}

func (m *MockLedgerRepository) Append(ctx context.Context, tx usecase.Transaction, rec *domain.ClearingRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.records[rec.ChequeID]
	if len(history) > 0 {
		last := history[len(history)-1]
		if last.ToState != rec.FromState {
			return domain.ErrStateConflict
		}
	} else if rec.FromState != "" {
		return domain.ErrStateConflict
	}

	rec.Sequence = int64(len(history) + 1)
	m.records[rec.ChequeID] = append(history, rec)

	if m.cheques != nil {
		m.cheques.mu.Lock()
		if c, ok := m.cheques.cheques[rec.ChequeID]; ok {
			c.CurrentState = rec.ToState
			c.Version = rec.Sequence
		}
		m.cheques.mu.Unlock()
	}
	return nil
}

func (m *MockLedgerRepository) ListByCheque(ctx context.Context, chequeID string) ([]*domain.ClearingRecord, error) {
	if m.ListByChequeFunc != nil {
		return m.ListByChequeFunc(ctx, chequeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ClearingRecord(nil), m.records[chequeID]...), nil
}

func (m *MockLedgerRepository) PayerDayTotal(ctx context.Context, payerAccount string, day time.Time, excludeChequeID string) (int64, error) {
	if m.PayerDayTotalFunc != nil {
		return m.PayerDayTotalFunc(ctx, payerAccount, day, excludeChequeID)
	}
	return 0, nil
}

// MockAttemptRepository is a mock implementation of AttemptRepository.
type MockAttemptRepository struct {
	mu       sync.Mutex
	attempts []*domain.SettlementAttempt

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, attempt *domain.SettlementAttempt) error
	UpdateOutcomeFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.AttemptStatus, gatewayRef, reasonCode string, latency time.Duration) error
	ListByChequeFunc  func(ctx context.Context, chequeID string) ([]*domain.SettlementAttempt, error)
}

func NewMockAttemptRepository() *MockAttemptRepository {
	return &MockAttemptRepository{}
}

func (m *MockAttemptRepository) Create(ctx context.Context, tx usecase.Transaction, attempt *domain.SettlementAttempt) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, attempt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt)
	return nil
}

func (m *MockAttemptRepository) UpdateOutcome(ctx context.Context, tx usecase.Transaction, id string, status domain.AttemptStatus, gatewayRef, reasonCode string, latency time.Duration) error {
	if m.UpdateOutcomeFunc != nil {
		return m.UpdateOutcomeFunc(ctx, tx, id, status, gatewayRef, reasonCode, latency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.ID == id {
			a.Status = status
			a.GatewayRef = gatewayRef
			a.ReasonCode = reasonCode
			a.Latency = latency
		}
	}
	return nil
}

func (m *MockAttemptRepository) ListByCheque(ctx context.Context, chequeID string) ([]*domain.SettlementAttempt, error) {
	if m.ListByChequeFunc != nil {
		return m.ListByChequeFunc(ctx, chequeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SettlementAttempt
	for _, a := range m.attempts {
		if a.ChequeID == chequeID {
			out = append(out, a)
		}
	}
	return out, nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc               func(ctx context.Context, account *domain.Account) error
	GetByIDFunc              func(ctx context.Context, id string) (*domain.Account, error)
	GetByNumberFunc          func(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByNumberForUpdateFunc func(ctx context.Context, tx usecase.Transaction, accountNumber string) (*domain.Account, error)
	UpdateBalanceFunc        func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	ListFunc                 func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.AccountNumber == account.AccountNumber {
			return domain.ErrDuplicateAccount
		}
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, accountNumber)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.AccountNumber == accountNumber {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByNumberForUpdate(ctx context.Context, tx usecase.Transaction, accountNumber string) (*domain.Account, error) {
	if m.GetByNumberForUpdateFunc != nil {
		return m.GetByNumberForUpdateFunc(ctx, tx, accountNumber)
	}
	return m.GetByNumber(ctx, accountNumber)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		out = append(out, acc)
	}
	return out, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc  func(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregateFunc func(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	if m.GetByAggregateFunc != nil {
		return m.GetByAggregateFunc(ctx, aggregateType, aggregateID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return nil
}

// Events returns all stored events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MockLeaseStore is an in-memory mock of LeaseStore. Leases never expire on
// their own; tests release them explicitly.
type MockLeaseStore struct {
	mu     sync.Mutex
	owners map[string]string

	AcquireFunc func(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	RenewFunc   func(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, key, owner string) error
}

func NewMockLeaseStore() *MockLeaseStore {
	return &MockLeaseStore{owners: make(map[string]string)}
}

func (m *MockLeaseStore) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, owner, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if holder, held := m.owners[key]; held && holder != owner {
		return false, nil
	}
	m.owners[key] = owner
	return true, nil
}

func (m *MockLeaseStore) Renew(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if m.RenewFunc != nil {
		return m.RenewFunc(ctx, key, owner, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[key] == owner, nil
}

func (m *MockLeaseStore) Release(ctx context.Context, key, owner string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key, owner)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners[key] == owner {
		delete(m.owners, key)
	}
	return nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	counter atomic.Int64

	GenerateFunc func() string
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return fmt.Sprintf("id-%d", m.counter.Add(1))
}

// MockRetrier runs the operation once without retrying.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}
