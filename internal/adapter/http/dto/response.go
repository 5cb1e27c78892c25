package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/chequer/internal/domain"
)

// ChequeResponse represents a cheque in API responses.
type ChequeResponse struct {
	ID            string     `json:"id"`
	RoutingCode   string     `json:"routing_code"`
	AccountNumber string     `json:"account_number"`
	SerialNumber  string     `json:"serial_number"`
	PayerAccount  string     `json:"payer_account"`
	PayeeAccount  string     `json:"payee_account"`
	AmountMinor   int64      `json:"amount_minor"`
	IssueDate     string     `json:"issue_date"`
	State         string     `json:"state"`
	AttemptCount  int        `json:"attempt_count"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	NeedsReview   bool       `json:"needs_review,omitempty"`
	ReviewReason  string     `json:"review_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ChequeFromDomain converts a domain cheque to a response.
func ChequeFromDomain(c *domain.Cheque) *ChequeResponse {
	return &ChequeResponse{
		ID:            c.ID,
		RoutingCode:   c.RoutingCode,
		AccountNumber: c.AccountNumber,
		SerialNumber:  c.SerialNumber,
		PayerAccount:  c.PayerAccount,
		PayeeAccount:  c.PayeeAccount,
		AmountMinor:   c.AmountMinor,
		IssueDate:     c.IssueDate.UTC().Format("2006-01-02"),
		State:         string(c.CurrentState),
		AttemptCount:  c.AttemptCount,
		NextAttemptAt: c.NextAttemptAt,
		NeedsReview:   c.NeedsReview,
		ReviewReason:  c.ReviewReason,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ClearingRecordResponse represents one ledger record in API responses.
type ClearingRecordResponse struct {
	Sequence   int64     `json:"sequence"`
	FromState  string    `json:"from_state,omitempty"`
	ToState    string    `json:"to_state"`
	Actor      string    `json:"actor"`
	ReasonCode string    `json:"reason_code,omitempty"`
	Violations []string  `json:"violations,omitempty"`
	GatewayRef string    `json:"gateway_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordsFromDomain converts a record history to responses.
func RecordsFromDomain(records []*domain.ClearingRecord) []*ClearingRecordResponse {
	result := make([]*ClearingRecordResponse, len(records))
	for i, rec := range records {
		result[i] = &ClearingRecordResponse{
			Sequence:   rec.Sequence,
			FromState:  string(rec.FromState),
			ToState:    string(rec.ToState),
			Actor:      rec.Actor,
			ReasonCode: rec.ReasonCode,
			Violations: rec.Violations,
			GatewayRef: rec.GatewayRef,
			CreatedAt:  rec.CreatedAt,
		}
	}
	return result
}

// ChequeStatusResponse is a cheque with its full clearing history.
type ChequeStatusResponse struct {
	Cheque  *ChequeResponse           `json:"cheque"`
	State   string                    `json:"state"`
	History []*ClearingRecordResponse `json:"history"`
}

// SettlementAttemptResponse represents one gateway attempt in API responses.
type SettlementAttemptResponse struct {
	AttemptID  string    `json:"attempt_id"`
	Number     int       `json:"number"`
	Status     string    `json:"status"`
	GatewayRef string    `json:"gateway_ref,omitempty"`
	ReasonCode string    `json:"reason_code,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttemptsFromDomain converts an attempt trail to responses.
func AttemptsFromDomain(attempts []*domain.SettlementAttempt) []*SettlementAttemptResponse {
	result := make([]*SettlementAttemptResponse, len(attempts))
	for i, a := range attempts {
		result[i] = &SettlementAttemptResponse{
			AttemptID:  a.AttemptID,
			Number:     a.Number,
			Status:     string(a.Status),
			GatewayRef: a.GatewayRef,
			ReasonCode: a.ReasonCode,
			LatencyMs:  a.Latency.Milliseconds(),
			CreatedAt:  a.CreatedAt,
		}
	}
	return result
}

// EventResponse represents a committed outbox event in API responses.
type EventResponse struct {
	ID          string         `json:"id"`
	EventType   string         `json:"event_type"`
	Payload     map[string]any `json:"payload"`
	Published   bool           `json:"published"`
	CreatedAt   time.Time      `json:"created_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

// EventsFromDomain converts outbox events to responses.
func EventsFromDomain(events []*domain.OutboxEvent) []*EventResponse {
	result := make([]*EventResponse, len(events))
	for i, e := range events {
		result[i] = &EventResponse{
			ID:          e.ID,
			EventType:   e.EventType,
			Payload:     e.Payload,
			Published:   e.Published,
			CreatedAt:   e.CreatedAt,
			PublishedAt: e.PublishedAt,
		}
	}
	return result
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	RoutingCode   string          `json:"routing_code"`
	HolderName    string          `json:"holder_name"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		RoutingCode:   a.RoutingCode,
		HolderName:    a.HolderName,
		Email:         a.Email,
		Phone:         a.Phone,
		Balance:       a.Balance,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
