package usecase

import (
	"context"

	"github.com/iho/chequer/internal/domain"
)

// StatusUseCase serves read-side queries: current state, history, attempt
// trail and committed events. All reads reflect the latest committed ledger
// state.
type StatusUseCase struct {
	chequeRepo  ChequeRepository
	ledgerRepo  LedgerRepository
	attemptRepo AttemptRepository
	outboxRepo  OutboxRepository
}

// NewStatusUseCase creates a new StatusUseCase.
func NewStatusUseCase(
	chequeRepo ChequeRepository,
	ledgerRepo LedgerRepository,
	attemptRepo AttemptRepository,
	outboxRepo OutboxRepository,
) *StatusUseCase {
	return &StatusUseCase{
		chequeRepo:  chequeRepo,
		ledgerRepo:  ledgerRepo,
		attemptRepo: attemptRepo,
		outboxRepo:  outboxRepo,
	}
}

// ChequeStatus is the status view of a cheque.
type ChequeStatus struct {
	Cheque  *domain.Cheque
	State   domain.State
	History []*domain.ClearingRecord
}

// GetStatus returns a cheque with its full clearing history. The reported
// state is the fold over the history, never the cached column alone.
func (uc *StatusUseCase) GetStatus(ctx context.Context, chequeID string) (*ChequeStatus, error) {
	cheque, err := uc.chequeRepo.GetByID(ctx, chequeID)
	if err != nil {
		return nil, err
	}

	history, err := uc.ledgerRepo.ListByCheque(ctx, chequeID)
	if err != nil {
		return nil, err
	}

	return &ChequeStatus{
		Cheque:  cheque,
		State:   domain.ProjectState(history),
		History: history,
	}, nil
}

// GetByKey resolves a cheque by its natural key.
func (uc *StatusUseCase) GetByKey(ctx context.Context, key domain.NaturalKey) (*domain.Cheque, error) {
	return uc.chequeRepo.GetByKey(ctx, key)
}

// ListAttempts returns the settlement attempt trail for a cheque.
func (uc *StatusUseCase) ListAttempts(ctx context.Context, chequeID string) ([]*domain.SettlementAttempt, error) {
	if _, err := uc.chequeRepo.GetByID(ctx, chequeID); err != nil {
		return nil, err
	}
	return uc.attemptRepo.ListByCheque(ctx, chequeID)
}

// ListEventsInput represents input for listing committed events.
type ListEventsInput struct {
	ChequeID string
	Limit    int
	Offset   int
}

// ListEvents returns the committed status-change events for a cheque.
func (uc *StatusUseCase) ListEvents(ctx context.Context, input ListEventsInput) ([]*domain.OutboxEvent, error) {
	if input.Limit <= 0 {
		input.Limit = 50
	}
	if input.Limit > 500 {
		input.Limit = 500
	}

	return uc.outboxRepo.GetByAggregate(ctx, domain.AggregateTypeCheque, input.ChequeID, input.Limit, input.Offset)
}
