package usecase

import (
	"context"
	"time"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/metrics"
)

// ReversalUseCase handles the bounded post-settlement reversal window.
type ReversalUseCase struct {
	txManager   TransactionManager
	chequeRepo  ChequeRepository
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	policy      ClearingPolicy
	metrics     *metrics.Metrics
}

// NewReversalUseCase creates a new ReversalUseCase.
func NewReversalUseCase(
	txManager TransactionManager,
	chequeRepo ChequeRepository,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	policy ClearingPolicy,
	metrics *metrics.Metrics,
) *ReversalUseCase {
	return &ReversalUseCase{
		txManager:   txManager,
		chequeRepo:  chequeRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		policy:      policy,
		metrics:     metrics,
	}
}

// ReverseCheque appends a Reversed record to a settled cheque. History is
// never rewritten: the Settled record stays, the reversal is one more append.
// Allowed only within the configured window after settlement.
func (uc *ReversalUseCase) ReverseCheque(ctx context.Context, chequeID string) (*domain.Cheque, error) {
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

	if cheque.CurrentState != domain.StateSettled {
		return nil, domain.ErrNotSettled
	}

	settledAt, err := uc.settledAt(txCtx, chequeID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if uc.policy.ReversalWindow > 0 && now.After(settledAt.Add(uc.policy.ReversalWindow)) {
		return nil, domain.ErrReversalWindowClosed
	}

	if err := appendTransition(txCtx, tx, uc.ledgerRepo, uc.outboxRepo, uc.idGen, cheque, &domain.ClearingRecord{
		ChequeID:   cheque.ID,
		FromState:  domain.StateSettled,
		ToState:    domain.StateReversed,
		Actor:      domain.ActorOperator,
		ReasonCode: domain.ReasonReversed,
	}); err != nil {
		return nil, err
	}

	if err := uc.creditPayer(txCtx, tx, cheque); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Reversals.Inc()
	}

	return cheque, nil
}

// settledAt finds the timestamp of the Settled append from the history.
func (uc *ReversalUseCase) settledAt(ctx context.Context, chequeID string) (time.Time, error) {
	records, err := uc.ledgerRepo.ListByCheque(ctx, chequeID)
	if err != nil {
		return time.Time{}, err
	}

	for i := len(records) - 1; i >= 0; i-- {
		if records[i].ToState == domain.StateSettled {
			return records[i].CreatedAt, nil
		}
	}

	return time.Time{}, domain.ErrNotSettled
}

// creditPayer returns the settled amount to the payer's registry account.
func (uc *ReversalUseCase) creditPayer(ctx context.Context, tx Transaction, cheque *domain.Cheque) error {
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

	newBalance := account.ApplyCredit(domain.MinorToDecimal(cheque.AmountMinor))

	return uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, time.Now().UTC())
}
