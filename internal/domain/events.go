package domain

import "time"

// Event types
const (
	EventTypeChequeSubmitted       = "cheque.submitted"
	EventTypeStateChanged          = "cheque.state_changed"
	EventTypeRecoveryInconsistency = "cheque.recovery_inconsistent"
	EventTypeAccountCreated        = "account.created"
)

// Aggregate types
const (
	AggregateTypeCheque  = "cheque"
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// StateChangedEvent payload. Delivery is at-least-once; subscribers order by
// sequence, never by arrival.
type StateChangedEvent struct {
	ChequeID   string `json:"cheque_id"`
	FromState  string `json:"from_state"`
	ToState    string `json:"to_state"`
	Sequence   int64  `json:"sequence"`
	ReasonCode string `json:"reason_code,omitempty"`
	GatewayRef string `json:"gateway_ref,omitempty"`
	At         string `json:"at"`
}

// NewStateChangedPayload builds the outbox payload for a committed transition.
func NewStateChangedPayload(rec *ClearingRecord) map[string]any {
	payload := map[string]any{
		"cheque_id":  rec.ChequeID,
		"from_state": string(rec.FromState),
		"to_state":   string(rec.ToState),
		"sequence":   rec.Sequence,
		"at":         rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if rec.ReasonCode != "" {
		payload["reason_code"] = rec.ReasonCode
	}
	if rec.GatewayRef != "" {
		payload["gateway_ref"] = rec.GatewayRef
	}
	return payload
}
