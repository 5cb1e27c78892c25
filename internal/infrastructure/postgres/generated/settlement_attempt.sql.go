package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createSettlementAttempt = `-- name: CreateSettlementAttempt :one
INSERT INTO settlement_attempts (id, cheque_id, attempt_id, number, payload_hash, status, gateway_ref, reason_code, latency_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, cheque_id, attempt_id, number, payload_hash, status, gateway_ref, reason_code, latency_ms, created_at
`

type CreateSettlementAttemptParams struct {
	ID          string             `json:"id"`
	ChequeID    string             `json:"cheque_id"`
	AttemptID   string             `json:"attempt_id"`
	Number      int32              `json:"number"`
	PayloadHash string             `json:"payload_hash"`
	Status      string             `json:"status"`
	GatewayRef  string             `json:"gateway_ref"`
	ReasonCode  string             `json:"reason_code"`
	LatencyMs   int64              `json:"latency_ms"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateSettlementAttempt(ctx context.Context, arg CreateSettlementAttemptParams) (SettlementAttempt, error) {
	row := q.db.QueryRow(ctx, createSettlementAttempt,
		arg.ID,
		arg.ChequeID,
		arg.AttemptID,
		arg.Number,
		arg.PayloadHash,
		arg.Status,
		arg.GatewayRef,
		arg.ReasonCode,
		arg.LatencyMs,
		arg.CreatedAt,
	)
	var i SettlementAttempt
	err := row.Scan(
		&i.ID,
		&i.ChequeID,
		&i.AttemptID,
		&i.Number,
		&i.PayloadHash,
		&i.Status,
		&i.GatewayRef,
		&i.ReasonCode,
		&i.LatencyMs,
		&i.CreatedAt,
	)
	return i, err
}

const getAttemptsByCheque = `-- name: GetAttemptsByCheque :many
SELECT id, cheque_id, attempt_id, number, payload_hash, status, gateway_ref, reason_code, latency_ms, created_at FROM settlement_attempts
WHERE cheque_id = $1
ORDER BY created_at ASC, number ASC
`

func (q *Queries) GetAttemptsByCheque(ctx context.Context, chequeID string) ([]SettlementAttempt, error) {
	rows, err := q.db.Query(ctx, getAttemptsByCheque, chequeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SettlementAttempt{}
	for rows.Next() {
		var i SettlementAttempt
		if err := rows.Scan(
			&i.ID,
			&i.ChequeID,
			&i.AttemptID,
			&i.Number,
			&i.PayloadHash,
			&i.Status,
			&i.GatewayRef,
			&i.ReasonCode,
			&i.LatencyMs,
			&i.CreatedAt,
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

const updateAttemptOutcome = `-- name: UpdateAttemptOutcome :exec
UPDATE settlement_attempts
SET status = $2, gateway_ref = $3, reason_code = $4, latency_ms = $5
WHERE id = $1
`

type UpdateAttemptOutcomeParams struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	GatewayRef string `json:"gateway_ref"`
	ReasonCode string `json:"reason_code"`
	LatencyMs  int64  `json:"latency_ms"`
}

func (q *Queries) UpdateAttemptOutcome(ctx context.Context, arg UpdateAttemptOutcomeParams) error {
	_, err := q.db.Exec(ctx, updateAttemptOutcome,
		arg.ID,
		arg.Status,
		arg.GatewayRef,
		arg.ReasonCode,
		arg.LatencyMs,
	)
	return err
}
