package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const flagChequeReview = `-- name: FlagChequeReview :exec
UPDATE cheques
SET needs_review = TRUE, review_reason = $2, updated_at = $3
WHERE id = $1
`

type FlagChequeReviewParams struct {
	ID           string             `json:"id"`
	ReviewReason string             `json:"review_reason"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) FlagChequeReview(ctx context.Context, arg FlagChequeReviewParams) error {
	_, err := q.db.Exec(ctx, flagChequeReview, arg.ID, arg.ReviewReason, arg.UpdatedAt)
	return err
}

const getChequeByID = `-- name: GetChequeByID :one
SELECT id, routing_code, account_number, serial_number, payer_account, payee_account, amount_minor, issue_date, payload_hash, current_state, version, attempt_id, attempt_count, next_attempt_at, needs_review, review_reason, created_at, updated_at FROM cheques WHERE id = $1
`

func (q *Queries) GetChequeByID(ctx context.Context, id string) (Cheque, error) {
	row := q.db.QueryRow(ctx, getChequeByID, id)
	var i Cheque
	err := row.Scan(
		&i.ID,
		&i.RoutingCode,
		&i.AccountNumber,
		&i.SerialNumber,
		&i.PayerAccount,
		&i.PayeeAccount,
		&i.AmountMinor,
		&i.IssueDate,
		&i.PayloadHash,
		&i.CurrentState,
		&i.Version,
		&i.AttemptID,
		&i.AttemptCount,
		&i.NextAttemptAt,
		&i.NeedsReview,
		&i.ReviewReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getChequeByKey = `-- name: GetChequeByKey :one
SELECT id, routing_code, account_number, serial_number, payer_account, payee_account, amount_minor, issue_date, payload_hash, current_state, version, attempt_id, attempt_count, next_attempt_at, needs_review, review_reason, created_at, updated_at FROM cheques
WHERE routing_code = $1 AND account_number = $2 AND serial_number = $3
`

type GetChequeByKeyParams struct {
	RoutingCode   string `json:"routing_code"`
	AccountNumber string `json:"account_number"`
	SerialNumber  string `json:"serial_number"`
}

func (q *Queries) GetChequeByKey(ctx context.Context, arg GetChequeByKeyParams) (Cheque, error) {
	row := q.db.QueryRow(ctx, getChequeByKey, arg.RoutingCode, arg.AccountNumber, arg.SerialNumber)
	var i Cheque
	err := row.Scan(
		&i.ID,
		&i.RoutingCode,
		&i.AccountNumber,
		&i.SerialNumber,
		&i.PayerAccount,
		&i.PayeeAccount,
		&i.AmountMinor,
		&i.IssueDate,
		&i.PayloadHash,
		&i.CurrentState,
		&i.Version,
		&i.AttemptID,
		&i.AttemptCount,
		&i.NextAttemptAt,
		&i.NeedsReview,
		&i.ReviewReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPayerDayTotal = `-- name: GetPayerDayTotal :one
SELECT COALESCE(SUM(amount_minor), 0)::BIGINT AS total FROM cheques
WHERE payer_account = $1
  AND created_at >= $2 AND created_at < $3
  AND current_state <> 'rejected'
  AND id <> $4
`

type GetPayerDayTotalParams struct {
	PayerAccount string             `json:"payer_account"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	CreatedAt_2  pgtype.Timestamptz `json:"created_at_2"`
	ID           string             `json:"id"`
}

func (q *Queries) GetPayerDayTotal(ctx context.Context, arg GetPayerDayTotalParams) (int64, error) {
	row := q.db.QueryRow(ctx, getPayerDayTotal,
		arg.PayerAccount,
		arg.CreatedAt,
		arg.CreatedAt_2,
		arg.ID,
	)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const insertCheque = `-- name: InsertCheque :one
INSERT INTO cheques (id, routing_code, account_number, serial_number, payer_account, payee_account, amount_minor, issue_date, payload_hash, current_state, version, attempt_id, attempt_count, needs_review, review_reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (routing_code, account_number, serial_number) DO NOTHING
RETURNING id, routing_code, account_number, serial_number, payer_account, payee_account, amount_minor, issue_date, payload_hash, current_state, version, attempt_id, attempt_count, next_attempt_at, needs_review, review_reason, created_at, updated_at
`

type InsertChequeParams struct {
	ID            string             `json:"id"`
	RoutingCode   string             `json:"routing_code"`
	AccountNumber string             `json:"account_number"`
	SerialNumber  string             `json:"serial_number"`
	PayerAccount  string             `json:"payer_account"`
	PayeeAccount  string             `json:"payee_account"`
	AmountMinor   int64              `json:"amount_minor"`
	IssueDate     pgtype.Date        `json:"issue_date"`
	PayloadHash   string             `json:"payload_hash"`
	CurrentState  string             `json:"current_state"`
	Version       int64              `json:"version"`
	AttemptID     string             `json:"attempt_id"`
	AttemptCount  int32              `json:"attempt_count"`
	NeedsReview   bool               `json:"needs_review"`
	ReviewReason  string             `json:"review_reason"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) InsertCheque(ctx context.Context, arg InsertChequeParams) (Cheque, error) {
	row := q.db.QueryRow(ctx, insertCheque,
		arg.ID,
		arg.RoutingCode,
		arg.AccountNumber,
		arg.SerialNumber,
		arg.PayerAccount,
		arg.PayeeAccount,
		arg.AmountMinor,
		arg.IssueDate,
		arg.PayloadHash,
		arg.CurrentState,
		arg.Version,
		arg.AttemptID,
		arg.AttemptCount,
		arg.NeedsReview,
		arg.ReviewReason,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Cheque
	err := row.Scan(
		&i.ID,
		&i.RoutingCode,
		&i.AccountNumber,
		&i.SerialNumber,
		&i.PayerAccount,
		&i.PayeeAccount,
		&i.AmountMinor,
		&i.IssueDate,
		&i.PayloadHash,
		&i.CurrentState,
		&i.Version,
		&i.AttemptID,
		&i.AttemptCount,
		&i.NextAttemptAt,
		&i.NeedsReview,
		&i.ReviewReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listClaimableCheques = `-- name: ListClaimableCheques :many
SELECT id, routing_code, account_number, serial_number, payer_account, payee_account, amount_minor, issue_date, payload_hash, current_state, version, attempt_id, attempt_count, next_attempt_at, needs_review, review_reason, created_at, updated_at FROM cheques
WHERE current_state = 'pending_settlement'
  AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
ORDER BY updated_at ASC
LIMIT $2
`

type ListClaimableChequesParams struct {
	NextAttemptAt pgtype.Timestamptz `json:"next_attempt_at"`
	Limit         int32              `json:"limit"`
}

func (q *Queries) ListClaimableCheques(ctx context.Context, arg ListClaimableChequesParams) ([]Cheque, error) {
	rows, err := q.db.Query(ctx, listClaimableCheques, arg.NextAttemptAt, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Cheque{}
	for rows.Next() {
		var i Cheque
		if err := rows.Scan(
			&i.ID,
			&i.RoutingCode,
			&i.AccountNumber,
			&i.SerialNumber,
			&i.PayerAccount,
			&i.PayeeAccount,
			&i.AmountMinor,
			&i.IssueDate,
			&i.PayloadHash,
			&i.CurrentState,
			&i.Version,
			&i.AttemptID,
			&i.AttemptCount,
			&i.NextAttemptAt,
			&i.NeedsReview,
			&i.ReviewReason,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listInFlightCheques = `-- name: ListInFlightCheques :many
SELECT id, routing_code, account_number, serial_number, payer_account, payee_account, amount_minor, issue_date, payload_hash, current_state, version, attempt_id, attempt_count, next_attempt_at, needs_review, review_reason, created_at, updated_at FROM cheques
WHERE current_state = 'settling'
  AND needs_review = FALSE
  AND updated_at < $1
ORDER BY updated_at ASC
LIMIT $2
`

type ListInFlightChequesParams struct {
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
	Limit     int32              `json:"limit"`
}

func (q *Queries) ListInFlightCheques(ctx context.Context, arg ListInFlightChequesParams) ([]Cheque, error) {
	rows, err := q.db.Query(ctx, listInFlightCheques, arg.UpdatedAt, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Cheque{}
	for rows.Next() {
		var i Cheque
		if err := rows.Scan(
			&i.ID,
			&i.RoutingCode,
			&i.AccountNumber,
			&i.SerialNumber,
			&i.PayerAccount,
			&i.PayeeAccount,
			&i.AmountMinor,
			&i.IssueDate,
			&i.PayloadHash,
			&i.CurrentState,
			&i.Version,
			&i.AttemptID,
			&i.AttemptCount,
			&i.NextAttemptAt,
			&i.NeedsReview,
			&i.ReviewReason,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setChequeAttempt = `-- name: SetChequeAttempt :exec
UPDATE cheques
SET attempt_id = $2, attempt_count = $3, next_attempt_at = $4, updated_at = $5
WHERE id = $1
`

type SetChequeAttemptParams struct {
	ID            string             `json:"id"`
	AttemptID     string             `json:"attempt_id"`
	AttemptCount  int32              `json:"attempt_count"`
	NextAttemptAt pgtype.Timestamptz `json:"next_attempt_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) SetChequeAttempt(ctx context.Context, arg SetChequeAttemptParams) error {
	_, err := q.db.Exec(ctx, setChequeAttempt,
		arg.ID,
		arg.AttemptID,
		arg.AttemptCount,
		arg.NextAttemptAt,
		arg.UpdatedAt,
	)
	return err
}

const updateChequeState = `-- name: UpdateChequeState :one
UPDATE cheques
SET current_state = $2, version = version + 1, updated_at = $3
WHERE id = $1 AND current_state = $4
RETURNING version
`

type UpdateChequeStateParams struct {
	ID             string             `json:"id"`
	CurrentState   string             `json:"current_state"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
	CurrentState_2 string             `json:"current_state_2"`
}

func (q *Queries) UpdateChequeState(ctx context.Context, arg UpdateChequeStateParams) (int64, error) {
	row := q.db.QueryRow(ctx, updateChequeState,
		arg.ID,
		arg.CurrentState,
		arg.UpdatedAt,
		arg.CurrentState_2,
	)
	var version int64
	err := row.Scan(&version)
	return version, err
}
