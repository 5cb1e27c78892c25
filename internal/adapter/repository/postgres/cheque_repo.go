package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/postgres/generated"
	"github.com/iho/chequer/internal/usecase"
)

// ChequeRepository implements usecase.ChequeRepository.
type ChequeRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewChequeRepository creates a new ChequeRepository.
func NewChequeRepository(pool *pgxpool.Pool) *ChequeRepository {
	return &ChequeRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Admit reserves the cheque's natural key. The insert carries
// ON CONFLICT DO NOTHING on the key's unique constraint, so exactly one of
// two racing submissions wins; the loser reads the winner's row and compares
// payload hashes.
func (r *ChequeRepository) Admit(ctx context.Context, tx usecase.Transaction, cheque *domain.Cheque) (usecase.AdmitResult, *domain.Cheque, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.InsertCheque(ctx, generated.InsertChequeParams{
		ID:            cheque.ID,
		RoutingCode:   cheque.RoutingCode,
		AccountNumber: cheque.AccountNumber,
		SerialNumber:  cheque.SerialNumber,
		PayerAccount:  cheque.PayerAccount,
		PayeeAccount:  cheque.PayeeAccount,
		AmountMinor:   cheque.AmountMinor,
		IssueDate:     timeToPgDate(cheque.IssueDate),
		PayloadHash:   cheque.PayloadHash,
		CurrentState:  string(cheque.CurrentState),
		Version:       cheque.Version,
		AttemptID:     cheque.AttemptID,
		AttemptCount:  int32(cheque.AttemptCount),
		NeedsReview:   cheque.NeedsReview,
		ReviewReason:  cheque.ReviewReason,
		CreatedAt:     timeToPgTimestamptz(cheque.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(cheque.UpdatedAt),
	})
	if err == nil {
		return usecase.AdmitAccepted, cheque, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, err
	}

	// The key is already reserved. The read goes through the pool rather than
	// the transaction so it sees the committed winner even when the conflict
	// came from a concurrent uncommitted insert aborting this transaction's
	// snapshot.
	existing, err := r.GetByKey(ctx, cheque.Key())
	if err != nil {
		return 0, nil, err
	}

	if existing.PayloadHash == cheque.PayloadHash {
		return usecase.AdmitDuplicateIgnored, existing, nil
	}

	return usecase.AdmitConflictingPayload, existing, nil
}

// GetByID retrieves a cheque by ID.
func (r *ChequeRepository) GetByID(ctx context.Context, id string) (*domain.Cheque, error) {
	row, err := r.queries.GetChequeByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChequeNotFound
		}

		return nil, err
	}

	return rowToCheque(row), nil
}

// GetByKey retrieves a cheque by its natural key.
func (r *ChequeRepository) GetByKey(ctx context.Context, key domain.NaturalKey) (*domain.Cheque, error) {
	row, err := r.queries.GetChequeByKey(ctx, generated.GetChequeByKeyParams{
		RoutingCode:   key.RoutingCode,
		AccountNumber: key.AccountNumber,
		SerialNumber:  key.SerialNumber,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChequeNotFound
		}

		return nil, err
	}

	return rowToCheque(row), nil
}

// ListClaimable returns pending cheques whose next attempt is due.
func (r *ChequeRepository) ListClaimable(ctx context.Context, now time.Time, limit int) ([]*domain.Cheque, error) {
	rows, err := r.queries.ListClaimableCheques(ctx, generated.ListClaimableChequesParams{
		NextAttemptAt: timeToPgTimestamptz(now),
		Limit:         int32(limit),
	})
	if err != nil {
		return nil, err
	}

	cheques := make([]*domain.Cheque, 0, len(rows))
	for _, row := range rows {
		cheques = append(cheques, rowToCheque(row))
	}

	return cheques, nil
}

// ListInFlight returns cheques stuck in Settling since before updatedBefore.
func (r *ChequeRepository) ListInFlight(ctx context.Context, updatedBefore time.Time, limit int) ([]*domain.Cheque, error) {
	rows, err := r.queries.ListInFlightCheques(ctx, generated.ListInFlightChequesParams{
		UpdatedAt: timeToPgTimestamptz(updatedBefore),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	cheques := make([]*domain.Cheque, 0, len(rows))
	for _, row := range rows {
		cheques = append(cheques, rowToCheque(row))
	}

	return cheques, nil
}

// SetAttempt persists the settlement attempt bookkeeping on the cheque row.
func (r *ChequeRepository) SetAttempt(ctx context.Context, tx usecase.Transaction, id, attemptID string, attemptCount int, nextAttemptAt *time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	var next pgtype.Timestamptz
	if nextAttemptAt != nil {
		next = timeToPgTimestamptz(*nextAttemptAt)
	}

	return queries.SetChequeAttempt(ctx, generated.SetChequeAttemptParams{
		ID:            id,
		AttemptID:     attemptID,
		AttemptCount:  int32(attemptCount),
		NextAttemptAt: next,
		UpdatedAt:     timeToPgTimestamptz(time.Now().UTC()),
	})
}

// FlagReview marks a cheque for manual review.
func (r *ChequeRepository) FlagReview(ctx context.Context, tx usecase.Transaction, id, reason string, at time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	return queries.FlagChequeReview(ctx, generated.FlagChequeReviewParams{
		ID:           id,
		ReviewReason: reason,
		UpdatedAt:    timeToPgTimestamptz(at),
	})
}

func rowToCheque(row generated.Cheque) *domain.Cheque {
	var nextAttemptAt *time.Time
	if row.NextAttemptAt.Valid {
		t := row.NextAttemptAt.Time
		nextAttemptAt = &t
	}

	return &domain.Cheque{
		ID:            row.ID,
		RoutingCode:   row.RoutingCode,
		AccountNumber: row.AccountNumber,
		SerialNumber:  row.SerialNumber,
		PayerAccount:  row.PayerAccount,
		PayeeAccount:  row.PayeeAccount,
		AmountMinor:   row.AmountMinor,
		IssueDate:     row.IssueDate.Time,
		PayloadHash:   row.PayloadHash,
		CurrentState:  domain.State(row.CurrentState),
		Version:       row.Version,
		AttemptID:     row.AttemptID,
		AttemptCount:  int(row.AttemptCount),
		NextAttemptAt: nextAttemptAt,
		NeedsReview:   row.NeedsReview,
		ReviewReason:  row.ReviewReason,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}
