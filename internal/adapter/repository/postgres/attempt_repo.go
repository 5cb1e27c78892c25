package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/postgres/generated"
	"github.com/iho/chequer/internal/usecase"
)

// AttemptRepository implements usecase.AttemptRepository.
type AttemptRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create records a settlement attempt within a transaction.
func (r *AttemptRepository) Create(ctx context.Context, tx usecase.Transaction, attempt *domain.SettlementAttempt) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.CreateSettlementAttempt(ctx, generated.CreateSettlementAttemptParams{
		ID:          attempt.ID,
		ChequeID:    attempt.ChequeID,
		AttemptID:   attempt.AttemptID,
		Number:      int32(attempt.Number),
		PayloadHash: attempt.PayloadHash,
		Status:      string(attempt.Status),
		GatewayRef:  attempt.GatewayRef,
		ReasonCode:  attempt.ReasonCode,
		LatencyMs:   attempt.Latency.Milliseconds(),
		CreatedAt:   timeToPgTimestamptz(attempt.CreatedAt),
	})

	return err
}

// UpdateOutcome records the gateway's verdict on an attempt.
func (r *AttemptRepository) UpdateOutcome(ctx context.Context, tx usecase.Transaction, id string, status domain.AttemptStatus, gatewayRef, reasonCode string, latency time.Duration) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return queries.UpdateAttemptOutcome(ctx, generated.UpdateAttemptOutcomeParams{
		ID:         id,
		Status:     string(status),
		GatewayRef: gatewayRef,
		ReasonCode: reasonCode,
		LatencyMs:  latency.Milliseconds(),
	})
}

// ListByCheque returns the attempt trail for a cheque, oldest first.
func (r *AttemptRepository) ListByCheque(ctx context.Context, chequeID string) ([]*domain.SettlementAttempt, error) {
	rows, err := r.queries.GetAttemptsByCheque(ctx, chequeID)
	if err != nil {
		return nil, err
	}

	attempts := make([]*domain.SettlementAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, rowToAttempt(row))
	}

	return attempts, nil
}

func rowToAttempt(row generated.SettlementAttempt) *domain.SettlementAttempt {
	return &domain.SettlementAttempt{
		ID:          row.ID,
		ChequeID:    row.ChequeID,
		AttemptID:   row.AttemptID,
		Number:      int(row.Number),
		PayloadHash: row.PayloadHash,
		Status:      domain.AttemptStatus(row.Status),
		GatewayRef:  row.GatewayRef,
		ReasonCode:  row.ReasonCode,
		Latency:     time.Duration(row.LatencyMs) * time.Millisecond,
		CreatedAt:   row.CreatedAt.Time,
	}
}
