package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID            string             `json:"id"`
	AccountNumber string             `json:"account_number"`
	RoutingCode   string             `json:"routing_code"`
	HolderName    string             `json:"holder_name"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone"`
	Balance       pgtype.Numeric     `json:"balance"`
	Version       int64              `json:"version"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type Cheque struct {
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
	NextAttemptAt pgtype.Timestamptz `json:"next_attempt_at"`
	NeedsReview   bool               `json:"needs_review"`
	ReviewReason  string             `json:"review_reason"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type ClearingRecord struct {
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

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	Published     bool               `json:"published"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}

type SettlementAttempt struct {
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
