package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createClearingRecord = `-- name: CreateClearingRecord :one
INSERT INTO clearing_records (id, cheque_id, sequence, from_state, to_state, actor, reason_code, violations, gateway_ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, cheque_id, sequence, from_state, to_state, actor, reason_code, violations, gateway_ref, created_at
`

type CreateClearingRecordParams struct {
	ID         string             `json:"id"`
	ChequeID   string             `json:"cheque_id"`
	Sequence   int64              `json:"sequence"`
	FromState  string             `json:"from_state"`
	ToState    string             `json:"to_state"`
	Actor      string             `json:"actor"`
	ReasonCode string             `json:"reason_code"`
	Violations []string           `json:"violations"`
	GatewayRef string             `json:"gateway_ref"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateClearingRecord(ctx context.Context, arg CreateClearingRecordParams) (ClearingRecord, error) {
	row := q.db.QueryRow(ctx, createClearingRecord,
		arg.ID,
		arg.ChequeID,
		arg.Sequence,
		arg.FromState,
		arg.ToState,
		arg.Actor,
		arg.ReasonCode,
		arg.Violations,
		arg.GatewayRef,
		arg.CreatedAt,
	)
	var i ClearingRecord
	err := row.Scan(
		&i.ID,
		&i.ChequeID,
		&i.Sequence,
		&i.FromState,
		&i.ToState,
		&i.Actor,
		&i.ReasonCode,
		&i.Violations,
		&i.GatewayRef,
		&i.CreatedAt,
	)
	return i, err
}

const getMaxSequence = `-- name: GetMaxSequence :one
SELECT COALESCE(MAX(sequence), 0)::BIGINT AS max_sequence FROM clearing_records WHERE cheque_id = $1
`

func (q *Queries) GetMaxSequence(ctx context.Context, chequeID string) (int64, error) {
	row := q.db.QueryRow(ctx, getMaxSequence, chequeID)
	var max_sequence int64
	err := row.Scan(&max_sequence)
	return max_sequence, err
}

const getRecordsByCheque = `-- name: GetRecordsByCheque :many
SELECT id, cheque_id, sequence, from_state, to_state, actor, reason_code, violations, gateway_ref, created_at FROM clearing_records
WHERE cheque_id = $1
ORDER BY sequence ASC
`

func (q *Queries) GetRecordsByCheque(ctx context.Context, chequeID string) ([]ClearingRecord, error) {
	rows, err := q.db.Query(ctx, getRecordsByCheque, chequeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ClearingRecord{}
	for rows.Next() {
		var i ClearingRecord
		if err := rows.Scan(
			&i.ID,
			&i.ChequeID,
			&i.Sequence,
			&i.FromState,
			&i.ToState,
			&i.Actor,
			&i.ReasonCode,
			&i.Violations,
			&i.GatewayRef,
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
