package usecase

import (
	"context"
	"time"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/metrics"
)

// SubmissionUseCase drives a cheque from submission through validation:
// idempotency admission, the Submitted and Validating appends, and the
// validation verdict (Rejected or PendingSettlement).
type SubmissionUseCase struct {
	txManager   TransactionManager
	chequeRepo  ChequeRepository
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	policy      ClearingPolicy
	metrics     *metrics.Metrics
}

// NewSubmissionUseCase creates a new SubmissionUseCase.
func NewSubmissionUseCase(
	txManager TransactionManager,
	chequeRepo ChequeRepository,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	policy ClearingPolicy,
	metrics *metrics.Metrics,
) *SubmissionUseCase {
	return &SubmissionUseCase{
		txManager:   txManager,
		chequeRepo:  chequeRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		policy:      policy,
		metrics:     metrics,
	}
}

// SubmitChequeInput represents a cheque submission.
type SubmitChequeInput struct {
	RoutingCode   string
	AccountNumber string
	SerialNumber  string
	PayerAccount  string
	PayeeAccount  string
	AmountMinor   int64
	IssueDate     time.Time
}

// SubmitResult is the outcome of a submission.
type SubmitResult struct {
	Cheque *domain.Cheque
	// Duplicate is true when an identical submission already existed and the
	// existing cheque was returned instead of creating a second instrument.
	Duplicate bool
}

// SubmitCheque admits, creates and validates a cheque. On return the cheque
// is in Rejected or PendingSettlement (or is the pre-existing instrument for
// an exact duplicate). A same-key submission with a differing payload returns
// domain.ErrConflictingPayload and leaves the existing cheque untouched.
func (uc *SubmissionUseCase) SubmitCheque(ctx context.Context, input SubmitChequeInput) (*SubmitResult, error) {
	if uc.retrier == nil {
		return uc.submitOnce(ctx, input)
	}

	var result *SubmitResult
	err := uc.retrier.Retry(ctx, func() error {
		res, err := uc.submitOnce(ctx, input)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// submitOnce runs one full submission transaction. It is safe to re-run after
// a serialization failure: the aborted attempt leaves nothing behind and the
// admission guard absorbs the re-insert.
func (uc *SubmissionUseCase) submitOnce(ctx context.Context, input SubmitChequeInput) (*SubmitResult, error) {
	now := time.Now().UTC()

	cheque := &domain.Cheque{
		ID:            uc.idGen.Generate(),
		RoutingCode:   input.RoutingCode,
		AccountNumber: input.AccountNumber,
		SerialNumber:  input.SerialNumber,
		PayerAccount:  input.PayerAccount,
		PayeeAccount:  input.PayeeAccount,
		AmountMinor:   input.AmountMinor,
		IssueDate:     input.IssueDate.UTC(),
		PayloadHash:   domain.ComputePayloadHash(input.PayerAccount, input.PayeeAccount, input.AmountMinor, input.IssueDate),
		CurrentState:  domain.StateSubmitted,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	verdict, existing, err := uc.chequeRepo.Admit(txCtx, tx, cheque)
	if err != nil {
		return nil, err
	}

	switch verdict {
	case AdmitDuplicateIgnored:
		if uc.metrics != nil {
			uc.metrics.SubmissionsDuplicate.Inc()
		}
		return &SubmitResult{Cheque: existing, Duplicate: true}, nil
	case AdmitConflictingPayload:
		if uc.metrics != nil {
			uc.metrics.SubmissionsConflict.Inc()
		}
		return nil, domain.ErrConflictingPayload
	}

	// Admission reserved the key and persisted the cheque in Submitted; the
	// first ledger record makes that durable history.
	if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
		ChequeID: cheque.ID,
		ToState:  domain.StateSubmitted,
		Actor:    domain.ActorSystem,
	}); err != nil {
		return nil, err
	}

	if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
		ChequeID:  cheque.ID,
		FromState: domain.StateSubmitted,
		ToState:   domain.StateValidating,
		Actor:     domain.ActorSystem,
	}); err != nil {
		return nil, err
	}

	result, err := uc.runValidation(txCtx, cheque, now)
	if err != nil {
		return nil, err
	}

	if result.OK() {
		err = uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
			ChequeID:  cheque.ID,
			FromState: domain.StateValidating,
			ToState:   domain.StatePendingSettlement,
			Actor:     domain.ActorSystem,
		})
	} else {
		err = uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
			ChequeID:   cheque.ID,
			FromState:  domain.StateValidating,
			ToState:    domain.StateRejected,
			Actor:      domain.ActorSystem,
			ReasonCode: domain.ReasonValidationFailed,
			Violations: result.Codes(),
		})
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SubmissionsTotal.Inc()
		if !result.OK() {
			for _, code := range result.Codes() {
				uc.metrics.SubmissionsRejected.WithLabelValues(code).Inc()
			}
		}
	}

	return &SubmitResult{Cheque: cheque}, nil
}

// runValidation gathers ledger-derived history and runs the pure validation
// engine against it.
func (uc *SubmissionUseCase) runValidation(ctx context.Context, cheque *domain.Cheque, now time.Time) (domain.ValidationResult, error) {
	dayTotal, err := uc.ledgerRepo.PayerDayTotal(ctx, cheque.PayerAccount, now, cheque.ID)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	hist := domain.History{PayerDayTotalMinor: dayTotal}

	// Out-of-band duplicate safety net beyond the admission guard: a prior
	// terminal instrument with the same key but a different payload.
	if prior, err := uc.chequeRepo.GetByKey(ctx, cheque.Key()); err == nil {
		if prior.ID != cheque.ID && prior.CurrentState.IsTerminal() && prior.PayloadHash != cheque.PayloadHash {
			hist.TerminalDuplicate = true
		}
	} else if err != domain.ErrChequeNotFound {
		return domain.ValidationResult{}, err
	}

	result := domain.ValidateCheque(cheque, now, hist, uc.policy.Limits)

	// Registry check: the payer must be a known account.
	if result.OK() && uc.accountRepo != nil {
		if _, err := uc.accountRepo.GetByNumber(ctx, cheque.PayerAccount); err == domain.ErrAccountNotFound {
			result.Violations = append(result.Violations, domain.ViolationInvalidPayerAccount)
		} else if err != nil {
			return domain.ValidationResult{}, err
		}
	}

	return result, nil
}

// CancelCheque rejects a cheque on operator request. Allowed only while the
// cheque is in Submitted or Validating; once settlement has begun the cheque
// can only reach Settled or SettlementFailed.
func (uc *SubmissionUseCase) CancelCheque(ctx context.Context, chequeID string) (*domain.Cheque, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	cheque, err := uc.chequeRepo.GetByID(txCtx, chequeID)
	if err != nil {
		return nil, err
	}

	if cheque.CurrentState != domain.StateSubmitted && cheque.CurrentState != domain.StateValidating {
		return nil, domain.ErrCancellationNotAllowed
	}

	if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
		ChequeID:   cheque.ID,
		FromState:  cheque.CurrentState,
		ToState:    domain.StateRejected,
		Actor:      domain.ActorOperator,
		ReasonCode: domain.ReasonOperatorCancelled,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return cheque, nil
}

// appendTransition writes one ledger record plus its outbox event and updates
// the in-memory cheque projection. The repository enforces the
// compare-and-set against the cached current state.
func (uc *SubmissionUseCase) appendTransition(ctx context.Context, tx Transaction, cheque *domain.Cheque, rec *domain.ClearingRecord) error {
	return appendTransition(ctx, tx, uc.ledgerRepo, uc.outboxRepo, uc.idGen, cheque, rec)
}

// appendTransition is shared by every usecase that commits a transition:
// one atomic ledger append paired with one outbox event, and the cheque's
// projection advanced to match.
func appendTransition(
	ctx context.Context,
	tx Transaction,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cheque *domain.Cheque,
	rec *domain.ClearingRecord,
) error {
	if rec.FromState != "" && !domain.CanTransition(rec.FromState, rec.ToState) {
		return domain.ErrInvalidTransition
	}

	rec.ID = idGen.Generate()
	rec.CreatedAt = time.Now().UTC()

	if err := ledgerRepo.Append(ctx, tx, rec); err != nil {
		return err
	}

	cheque.CurrentState = rec.ToState
	cheque.Version = rec.Sequence

	event := &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   cheque.ID,
		AggregateType: domain.AggregateTypeCheque,
		EventType:     domain.EventTypeStateChanged,
		Payload:       domain.NewStateChangedPayload(rec),
		CreatedAt:     rec.CreatedAt,
		Published:     false,
	}

	return outboxRepo.Create(ctx, tx, event)
}
