package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/postgres/generated"
	"github.com/iho/chequer/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// LedgerRepository implements usecase.LedgerRepository on the append-only
// clearing_records table. Records are never updated or deleted.
type LedgerRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Append writes one clearing record and advances the cheque's cached state.
// The cheque-side UPDATE is conditional on the cached state still matching
// rec.FromState; a miss means another writer got there first and the append
// fails with domain.ErrStateConflict. The unique (cheque_id, sequence)
// constraint is the second line of defence.
func (r *LedgerRepository) Append(ctx context.Context, tx usecase.Transaction, rec *domain.ClearingRecord) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	var sequence int64

	if rec.FromState == "" {
		// First record: the cheque row was inserted in this transaction at
		// version 1, so there is nothing to compare against yet.
		sequence = 1
	} else {
		version, err := queries.UpdateChequeState(ctx, generated.UpdateChequeStateParams{
			ID:             rec.ChequeID,
			CurrentState:   string(rec.ToState),
			UpdatedAt:      timeToPgTimestamptz(rec.CreatedAt),
			CurrentState_2: string(rec.FromState),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrStateConflict
			}

			return err
		}
		sequence = version
	}

	violations := rec.Violations
	if violations == nil {
		violations = []string{}
	}

	_, err := queries.CreateClearingRecord(ctx, generated.CreateClearingRecordParams{
		ID:         rec.ID,
		ChequeID:   rec.ChequeID,
		Sequence:   sequence,
		FromState:  string(rec.FromState),
		ToState:    string(rec.ToState),
		Actor:      rec.Actor,
		ReasonCode: rec.ReasonCode,
		Violations: violations,
		GatewayRef: rec.GatewayRef,
		CreatedAt:  timeToPgTimestamptz(rec.CreatedAt),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrStateConflict
		}

		return err
	}

	rec.Sequence = sequence

	return nil
}

// ListByCheque returns the full record history in sequence order.
func (r *LedgerRepository) ListByCheque(ctx context.Context, chequeID string) ([]*domain.ClearingRecord, error) {
	rows, err := r.queries.GetRecordsByCheque(ctx, chequeID)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.ClearingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToClearingRecord(row))
	}

	return records, nil
}

// PayerDayTotal sums the payer's non-rejected submissions for the calendar
// day containing the given instant, UTC.
func (r *LedgerRepository) PayerDayTotal(ctx context.Context, payerAccount string, day time.Time, excludeChequeID string) (int64, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	return r.queries.GetPayerDayTotal(ctx, generated.GetPayerDayTotalParams{
		PayerAccount: payerAccount,
		CreatedAt:    timeToPgTimestamptz(dayStart),
		CreatedAt_2:  timeToPgTimestamptz(dayEnd),
		ID:           excludeChequeID,
	})
}

func rowToClearingRecord(row generated.ClearingRecord) *domain.ClearingRecord {
	return &domain.ClearingRecord{
		ID:         row.ID,
		ChequeID:   row.ChequeID,
		Sequence:   row.Sequence,
		FromState:  domain.State(row.FromState),
		ToState:    domain.State(row.ToState),
		Actor:      row.Actor,
		ReasonCode: row.ReasonCode,
		Violations: row.Violations,
		GatewayRef: row.GatewayRef,
		CreatedAt:  row.CreatedAt.Time,
	}
}
