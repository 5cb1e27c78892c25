package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/metrics"
)

// SettlementUseCase drives cheques through the Settling phase: claiming a
// lease, recording the Settling transition before the gateway call, and
// committing the classified outcome. It also owns crash recovery via the
// gateway's reconcile operation.
type SettlementUseCase struct {
	txManager   TransactionManager
	chequeRepo  ChequeRepository
	ledgerRepo  LedgerRepository
	attemptRepo AttemptRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	gateway     SettlementGateway
	leases      LeaseStore
	idGen       IDGenerator
	policy      ClearingPolicy
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	chequeRepo ChequeRepository,
	ledgerRepo LedgerRepository,
	attemptRepo AttemptRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	gateway SettlementGateway,
	leases LeaseStore,
	idGen IDGenerator,
	policy ClearingPolicy,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *SettlementUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	return &SettlementUseCase{
		txManager:   txManager,
		chequeRepo:  chequeRepo,
		ledgerRepo:  ledgerRepo,
		attemptRepo: attemptRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		gateway:     gateway,
		leases:      leases,
		idGen:       idGen,
		policy:      policy,
		logger:      logger,
		metrics:     metrics,
	}
}

// SettleDue claims and settles up to limit due cheques. Returns the number
// of cheques processed. Lease contention and per-cheque failures are logged
// and skipped, never fatal for the batch.
func (uc *SettlementUseCase) SettleDue(ctx context.Context, limit int) (int, error) {
	due, err := uc.chequeRepo.ListClaimable(ctx, time.Now().UTC(), limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, cheque := range due {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		if err := uc.SettleCheque(ctx, cheque.ID); err != nil {
			if err == domain.ErrLeaseNotAcquired || err == domain.ErrNotClaimable {
				continue
			}
			uc.logger.Error("settlement failed",
				slog.String("cheque_id", cheque.ID),
				slog.String("error", err.Error()))
			continue
		}
		processed++
	}

	return processed, nil
}

// SettleCheque drives a single PendingSettlement cheque through one gateway
// attempt. The Settling transition is committed before the call so a crash
// mid-call is detectable as in-flight; the lease, not a database lock, is
// what excludes other workers for the duration of the call.
func (uc *SettlementUseCase) SettleCheque(ctx context.Context, chequeID string) error {
	ok, err := uc.leases.Acquire(ctx, chequeID, uc.policy.WorkerID, uc.policy.LeaseTTL)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrLeaseNotAcquired
	}
	defer func() { _ = uc.leases.Release(ctx, chequeID, uc.policy.WorkerID) }()

	cheque, err := uc.chequeRepo.GetByID(ctx, chequeID)
	if err != nil {
		return err
	}

	if cheque.CurrentState != domain.StatePendingSettlement {
		return domain.ErrNotClaimable
	}

	mustReconcile, err := uc.previousAttemptAmbiguous(ctx, cheque)
	if err != nil {
		return err
	}

	attempt, err := uc.beginAttempt(ctx, cheque)
	if err != nil {
		return err
	}

	// The gateway calls run under the lease only; no database transaction or
	// lock is open across them.
	if mustReconcile {
		// The previous attempt may have reached the network without a
		// definitive answer. Ask what became of it before submitting again;
		// only a confirmed absence clears the way for a resubmission.
		callCtx, cancel := context.WithTimeout(ctx, uc.policy.GatewayTimeout)
		started := time.Now()
		result, err := uc.gateway.Reconcile(callCtx, cheque.AttemptID)
		cancel()

		latency := time.Since(started)
		if uc.metrics != nil {
			uc.metrics.GatewayDuration.WithLabelValues("reconcile").Observe(latency.Seconds())
		}
		if err != nil {
			result = domain.GatewayResult{Status: domain.OutcomeUnknown, Detail: err.Error()}
		}

		switch result.Status {
		case domain.OutcomeConfirmed, domain.OutcomeRejected:
			return uc.commitOutcome(ctx, cheque, attempt, result, latency)
		}
		// Unknown: the network has no trace of the attempt, resubmitting the
		// same attempt id is safe.
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.policy.GatewayTimeout)
	started := time.Now()
	result, err := uc.gateway.Submit(callCtx, cheque, cheque.AttemptID)
	cancel()

	latency := time.Since(started)
	if uc.metrics != nil {
		uc.metrics.GatewayDuration.WithLabelValues("submit").Observe(latency.Seconds())
	}
	if err != nil {
		// An adapter-level error leaves the submission in doubt just like a
		// transport failure inside the gateway.
		uc.logger.Warn("gateway submit error, treating as ambiguous retryable",
			slog.String("cheque_id", cheque.ID),
			slog.String("error", err.Error()))
		result = domain.GatewayResult{Status: domain.OutcomeRetryable, Detail: err.Error(), Ambiguous: true}
	}

	return uc.commitOutcome(ctx, cheque, attempt, result, latency)
}

// previousAttemptAmbiguous reports whether the cheque's last recorded attempt
// ended without a definitive gateway answer. An in-flight row counts too: it
// belongs to a worker that died mid-call and was re-queued by recovery.
func (uc *SettlementUseCase) previousAttemptAmbiguous(ctx context.Context, cheque *domain.Cheque) (bool, error) {
	if cheque.AttemptID == "" {
		return false, nil
	}

	attempts, err := uc.attemptRepo.ListByCheque(ctx, cheque.ID)
	if err != nil {
		return false, err
	}
	if len(attempts) == 0 {
		return false, nil
	}

	last := attempts[len(attempts)-1].Status
	return last == domain.AttemptStatusAmbiguous || last == domain.AttemptStatusInFlight, nil
}

// beginAttempt commits the PendingSettlement -> Settling transition together
// with the attempt record. The attempt id is minted once per settlement cycle
// and reused on every retry so the clearing network can deduplicate.
func (uc *SettlementUseCase) beginAttempt(ctx context.Context, cheque *domain.Cheque) (*domain.SettlementAttempt, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if cheque.AttemptID == "" {
		cheque.AttemptID = uc.idGen.Generate()
	}
	cheque.AttemptCount++

	if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
		ChequeID:  cheque.ID,
		FromState: domain.StatePendingSettlement,
		ToState:   domain.StateSettling,
		Actor:     domain.ActorSystem,
	}); err != nil {
		return nil, err
	}

	if err := uc.chequeRepo.SetAttempt(txCtx, tx, cheque.ID, cheque.AttemptID, cheque.AttemptCount, nil); err != nil {
		return nil, err
	}

	attempt := &domain.SettlementAttempt{
		ID:          uc.idGen.Generate(),
		ChequeID:    cheque.ID,
		AttemptID:   cheque.AttemptID,
		Number:      cheque.AttemptCount,
		PayloadHash: cheque.PayloadHash,
		Status:      domain.AttemptStatusInFlight,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.attemptRepo.Create(txCtx, tx, attempt); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementAttempts.Inc()
	}

	return attempt, nil
}

// commitOutcome records the attempt result and appends the matching
// transition out of Settling.
func (uc *SettlementUseCase) commitOutcome(ctx context.Context, cheque *domain.Cheque, attempt *domain.SettlementAttempt, result domain.GatewayResult, latency time.Duration) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	switch result.Status {
	case domain.OutcomeConfirmed:
		if err := uc.attemptRepo.UpdateOutcome(txCtx, tx, attempt.ID, domain.AttemptStatusConfirmed, result.Reference, "", latency); err != nil {
			return err
		}

		if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
			ChequeID:   cheque.ID,
			FromState:  domain.StateSettling,
			ToState:    domain.StateSettled,
			Actor:      domain.ActorSystem,
			GatewayRef: result.Reference,
		}); err != nil {
			return err
		}

		if err := uc.debitPayer(txCtx, tx, cheque); err != nil {
			return err
		}

	case domain.OutcomeRejected:
		if err := uc.attemptRepo.UpdateOutcome(txCtx, tx, attempt.ID, domain.AttemptStatusRejected, "", result.ReasonCode, latency); err != nil {
			return err
		}

		if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
			ChequeID:   cheque.ID,
			FromState:  domain.StateSettling,
			ToState:    domain.StateSettlementFailed,
			Actor:      domain.ActorSystem,
			ReasonCode: domain.ReasonGatewayRejected,
			Violations: []string{result.ReasonCode},
		}); err != nil {
			return err
		}

	default: // retryable or unknown
		status := domain.AttemptStatusRetryable
		if result.Ambiguous {
			status = domain.AttemptStatusAmbiguous
		}
		if err := uc.attemptRepo.UpdateOutcome(txCtx, tx, attempt.ID, status, "", result.ReasonCode, latency); err != nil {
			return err
		}

		if cheque.AttemptCount >= uc.policy.RetryBound {
			if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
				ChequeID:   cheque.ID,
				FromState:  domain.StateSettling,
				ToState:    domain.StateSettlementFailed,
				Actor:      domain.ActorSystem,
				ReasonCode: domain.ReasonRetryExhausted,
			}); err != nil {
				return err
			}
		} else {
			if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
				ChequeID:   cheque.ID,
				FromState:  domain.StateSettling,
				ToState:    domain.StatePendingSettlement,
				Actor:      domain.ActorSystem,
				ReasonCode: domain.ReasonRetryScheduled,
			}); err != nil {
				return err
			}

			next := time.Now().UTC().Add(uc.policy.BackoffDelay(cheque.AttemptCount))
			if err := uc.chequeRepo.SetAttempt(txCtx, tx, cheque.ID, cheque.AttemptID, cheque.AttemptCount, &next); err != nil {
				return err
			}

			if uc.metrics != nil {
				uc.metrics.SettlementRetries.Inc()
			}
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.Settlements.WithLabelValues(string(cheque.CurrentState)).Inc()
	}

	return nil
}

// debitPayer applies the settled amount against the payer's registry account.
/// A missing registry entry is tolerated: the ledger, not the registry, is
// authoritative for cheque state. An uncovered debit cannot refuse a
// settlement the network has already confirmed, so the balance goes negative
// and the cheque is flagged for operator follow-up instead.
func (uc *SettlementUseCase) debitPayer(ctx context.Context, tx Transaction, cheque *domain.Cheque) error {
	if uc.accountRepo == nil {
		return nil
	}

	account, err := uc.accountRepo.GetByNumberForUpdate(ctx, tx, cheque.PayerAccount)
	if err == domain.ErrAccountNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	amount := domain.MinorToDecimal(cheque.AmountMinor)
	if err := account.ValidateDebit(amount); err != nil {
		if err := uc.chequeRepo.FlagReview(ctx, tx, cheque.ID, "payer account overdrawn on settlement", time.Now().UTC()); err != nil {
			return err
		}
		uc.logger.Warn("payer account overdrawn on settlement",
			slog.String("cheque_id", cheque.ID),
			slog.String("payer_account", cheque.PayerAccount))
	}

	return uc.accountRepo.UpdateBalance(ctx, tx, account.ID, account.ApplyDebit(amount), time.Now().UTC())
}

// RecoverInFlight reconciles cheques whose latest record is Settling but
// whose worker has gone away (lease expired, no outcome committed). The
// gateway is queried with the original attempt id; the cheque is never
// resubmitted from here.
func (uc *SettlementUseCase) RecoverInFlight(ctx context.Context, limit int) (int, error) {
	staleBefore := time.Now().UTC().Add(-uc.policy.LeaseTTL)

	inFlight, err := uc.chequeRepo.ListInFlight(ctx, staleBefore, limit)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, cheque := range inFlight {
		if ctx.Err() != nil {
			return recovered, ctx.Err()
		}

		if err := uc.ReconcileCheque(ctx, cheque.ID); err != nil {
			if err == domain.ErrLeaseNotAcquired {
				continue
			}
			if err == domain.ErrRecoveryInconsistency {
				// resolved into an explicit flag, not a failure
				recovered++
				continue
			}
			uc.logger.Error("recovery failed",
				slog.String("cheque_id", cheque.ID),
				slog.String("error", err.Error()))
			continue
		}
		recovered++
	}

	return recovered, nil
}

// ReconcileCheque resolves a single in-flight cheque through the gateway's
// idempotent reconcile operation.
func (uc *SettlementUseCase) ReconcileCheque(ctx context.Context, chequeID string) error {
	ok, err := uc.leases.Acquire(ctx, chequeID, uc.policy.WorkerID, uc.policy.LeaseTTL)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrLeaseNotAcquired
	}
	defer func() { _ = uc.leases.Release(ctx, chequeID, uc.policy.WorkerID) }()

	cheque, err := uc.chequeRepo.GetByID(ctx, chequeID)
	if err != nil {
		return err
	}

	if cheque.CurrentState != domain.StateSettling {
		return domain.ErrNotClaimable
	}
	if cheque.AttemptID == "" {
		return fmt.Errorf("cheque %s is settling without an attempt id: %w", cheque.ID, domain.ErrRecoveryInconsistency)
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.policy.GatewayTimeout)
	started := time.Now()
	result, err := uc.gateway.Reconcile(callCtx, cheque.AttemptID)
	cancel()

	latency := time.Since(started)
	if uc.metrics != nil {
		uc.metrics.GatewayDuration.WithLabelValues("reconcile").Observe(latency.Seconds())
		uc.metrics.Reconciles.WithLabelValues(string(result.Status)).Inc()
	}
	if err != nil {
		result = domain.GatewayResult{Status: domain.OutcomeUnknown, Detail: err.Error()}
	}

	switch result.Status {
	case domain.OutcomeConfirmed, domain.OutcomeRejected:
		attempt := &domain.SettlementAttempt{ID: uc.idGen.Generate(), ChequeID: cheque.ID}
		return uc.commitReconciled(ctx, cheque, attempt, result, latency)

	default:
		// The network has no trace of the attempt. Re-queue for a fresh
		// submission unless the retry budget is spent, in which case the
		// cheque is flagged for manual review rather than silently dropped.
		if cheque.AttemptCount >= uc.policy.RetryBound {
			return uc.flagInconsistent(ctx, cheque, result)
		}
		return uc.requeueAfterReconcile(ctx, cheque)
	}
}

// commitReconciled appends the terminal transition learned from reconcile.
// The original attempt row may have been lost with the crashed worker, so a
// fresh audit row records the reconciled outcome.
func (uc *SettlementUseCase) commitReconciled(ctx context.Context, cheque *domain.Cheque, attempt *domain.SettlementAttempt, result domain.GatewayResult, latency time.Duration) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	status := domain.AttemptStatusConfirmed
	toState := domain.StateSettled
	reason := domain.ReasonReconciled
	if result.Status == domain.OutcomeRejected {
		status = domain.AttemptStatusRejected
		toState = domain.StateSettlementFailed
		reason = domain.ReasonGatewayRejected
	}

	attempt.AttemptID = cheque.AttemptID
	attempt.Number = cheque.AttemptCount
	attempt.PayloadHash = cheque.PayloadHash
	attempt.Status = status
	attempt.GatewayRef = result.Reference
	attempt.ReasonCode = result.ReasonCode
	attempt.Latency = latency
	attempt.CreatedAt = time.Now().UTC()

	if err := uc.attemptRepo.Create(txCtx, tx, attempt); err != nil {
		return err
	}

	if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
		ChequeID:   cheque.ID,
		FromState:  domain.StateSettling,
		ToState:    toState,
		Actor:      domain.ActorSystem,
		ReasonCode: reason,
		GatewayRef: result.Reference,
	}); err != nil {
		return err
	}

	if toState == domain.StateSettled {
		if err := uc.debitPayer(txCtx, tx, cheque); err != nil {
			return err
		}
	}

	return tx.Commit(txCtx)
}

func (uc *SettlementUseCase) requeueAfterReconcile(ctx context.Context, cheque *domain.Cheque) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.appendTransition(txCtx, tx, cheque, &domain.ClearingRecord{
		ChequeID:   cheque.ID,
		FromState:  domain.StateSettling,
		ToState:    domain.StatePendingSettlement,
		Actor:      domain.ActorSystem,
		ReasonCode: domain.ReasonRetryScheduled,
	}); err != nil {
		return err
	}

	next := time.Now().UTC().Add(uc.policy.BackoffDelay(cheque.AttemptCount))
	if err := uc.chequeRepo.SetAttempt(txCtx, tx, cheque.ID, cheque.AttemptID, cheque.AttemptCount, &next); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// flagInconsistent marks a cheque whose gateway outcome cannot be determined
// after the retry budget. The cheque stays in Settling but the flag removes
// it from the recovery scan; the single escalation event is for operator
// action, not for the worker to chew on again.
func (uc *SettlementUseCase) flagInconsistent(ctx context.Context, cheque *domain.Cheque, result domain.GatewayResult) error {
	if cheque.NeedsReview {
		// Already escalated; a second event would only duplicate the page.
		return domain.ErrRecoveryInconsistency
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	reason := "gateway outcome unknown after retry bound"
	if result.Detail != "" {
		reason = result.Detail
	}

	if err := uc.chequeRepo.FlagReview(txCtx, tx, cheque.ID, reason, now); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   cheque.ID,
		AggregateType: domain.AggregateTypeCheque,
		EventType:     domain.EventTypeRecoveryInconsistency,
		Payload: map[string]any{
			"cheque_id":  cheque.ID,
			"attempt_id": cheque.AttemptID,
			"reason":     reason,
			"at":         now.Format(time.RFC3339Nano),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	uc.logger.Error("cheque flagged for manual review",
		slog.String("cheque_id", cheque.ID),
		slog.String("attempt_id", cheque.AttemptID),
		slog.String("reason", reason))

	return domain.ErrRecoveryInconsistency
}

func (uc *SettlementUseCase) appendTransition(ctx context.Context, tx Transaction, cheque *domain.Cheque, rec *domain.ClearingRecord) error {
	return appendTransition(ctx, tx, uc.ledgerRepo, uc.outboxRepo, uc.idGen, cheque, rec)
}
