package domain

import "time"

// Actor identifies who drove a transition.
const (
	ActorSystem   = "system"
	ActorOperator = "operator"
)

// Reason codes attached to transitions.
const (
	ReasonValidationFailed  = "validation_failed"
	ReasonOperatorCancelled = "operator_cancelled"
	ReasonGatewayRejected   = "gateway_rejected"
	ReasonRetryExhausted    = "retry_exhausted"
	ReasonRetryScheduled    = "retry_scheduled"
	ReasonReversed          = "operator_reversal"
	ReasonReconciled        = "reconciled"
)

// ClearingRecord is one append-only row of the ledger: a single state
// transition of a single cheque. Records are never mutated after append.
type ClearingRecord struct {
	ID         string
	ChequeID   string
	Sequence   int64
	FromState  State
	ToState    State
	Actor      string
	ReasonCode string
	Violations []string
	GatewayRef string
	CreatedAt  time.Time
}
