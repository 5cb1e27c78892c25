package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/chequer/internal/domain"
)

// AdmitResult is the idempotency guard's verdict on a submission.
type AdmitResult int

const (
	AdmitAccepted AdmitResult = iota
	AdmitDuplicateIgnored
	AdmitConflictingPayload
)

// ChequeRepository defines data access for cheque instruments.
type ChequeRepository interface {
	// Admit atomically reserves the natural key. It returns AdmitAccepted and
	// persists the cheque when the key is free, AdmitDuplicateIgnored with
	// the existing cheque when the key exists with an identical payload hash,
	// and AdmitConflictingPayload with the existing cheque when the hashes
	// differ.
	Admit(ctx context.Context, tx Transaction, cheque *domain.Cheque) (AdmitResult, *domain.Cheque, error)
	GetByID(ctx context.Context, id string) (*domain.Cheque, error)
	GetByKey(ctx context.Context, key domain.NaturalKey) (*domain.Cheque, error)
	// ListClaimable returns cheques in PendingSettlement whose next attempt
	// is due, oldest first.
	ListClaimable(ctx context.Context, now time.Time, limit int) ([]*domain.Cheque, error)
	// ListInFlight returns cheques whose latest record is Settling and whose
	// last update is older than staleAfter. These are recovery candidates.
	// Cheques already flagged for manual review are excluded: they stay in
	// Settling until an operator resolves them and must not be re-escalated
	// by every sweep.
	ListInFlight(ctx context.Context, updatedBefore time.Time, limit int) ([]*domain.Cheque, error)
	SetAttempt(ctx context.Context, tx Transaction, id, attemptID string, attemptCount int, nextAttemptAt *time.Time) error
	FlagReview(ctx context.Context, tx Transaction, id, reason string, at time.Time) error
}

// LedgerRepository is the append-only store of clearing records. Append is
// the only write; history is immutable once committed.
type LedgerRepository interface {
	// Append writes one transition record. The cheque's cached current state
	// must still equal rec.FromState (compare-and-set); otherwise
	// domain.ErrStateConflict is returned and nothing is written.
	Append(ctx context.Context, tx Transaction, rec *domain.ClearingRecord) error
	ListByCheque(ctx context.Context, chequeID string) ([]*domain.ClearingRecord, error)
	// PayerDayTotal sums the minor-unit amounts of the payer's non-rejected
	// cheques submitted on the given day, excluding excludeChequeID.
	PayerDayTotal(ctx context.Context, payerAccount string, day time.Time, excludeChequeID string) (int64, error)
}

// AttemptRepository defines data access for settlement attempts.
type AttemptRepository interface {
	Create(ctx context.Context, tx Transaction, attempt *domain.SettlementAttempt) error
	UpdateOutcome(ctx context.Context, tx Transaction, id string, status domain.AttemptStatus, gatewayRef, reasonCode string, latency time.Duration) error
	ListByCheque(ctx context.Context, chequeID string) ([]*domain.SettlementAttempt, error)
}

// AccountRepository defines data access for the account registry.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx Transaction, accountNumber string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// SettlementGateway abstracts the external clearing network. Implementations
// classify every response: transport failures and 5xx become Retryable,
// business rejections become Rejected. The attempt id doubles as the
// network-side idempotency key and must be reused across retries.
type SettlementGateway interface {
	Submit(ctx context.Context, cheque *domain.Cheque, attemptID string) (domain.GatewayResult, error)
	// Reconcile queries the true outcome of a previous attempt. It must be
	// idempotent and must never trigger a new submission.
	Reconcile(ctx context.Context, attemptID string) (domain.GatewayResult, error)
}

// LeaseStore grants time-bounded exclusive claims on cheques so exactly one
// worker drives a given settlement. Leases expire on their own; no lock is
// held across the gateway call.
type LeaseStore interface {
	// Acquire claims the key for owner until ttl elapses. Returns false when
	// another owner holds a live lease.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Renew(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// IdempotencyStore handles transport-level idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Retrier retries an operation on transient database failures such as
// deadlocks and serialization conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
