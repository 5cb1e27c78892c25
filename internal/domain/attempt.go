package domain

import "time"

// AttemptStatus is the recorded outcome of a single gateway call.
type AttemptStatus string

const (
	AttemptStatusInFlight  AttemptStatus = "in_flight"
	AttemptStatusConfirmed AttemptStatus = "confirmed"
	AttemptStatusRejected  AttemptStatus = "rejected"
	AttemptStatusRetryable AttemptStatus = "retryable"
	// AttemptStatusAmbiguous marks an attempt whose submission may have
	// reached the network even though no definitive answer came back. The
	// next settlement cycle must reconcile this attempt id before submitting
	// again.
	AttemptStatusAmbiguous AttemptStatus = "ambiguous"
)

// SettlementAttempt is the audit record of one call to the settlement
// gateway. It is evidence, not authority: cheque state only changes when the
// clearing record for the outcome is appended.
type SettlementAttempt struct {
	ID          string
	ChequeID    string
	AttemptID   string
	Number      int
	PayloadHash string
	Status      AttemptStatus
	GatewayRef  string
	ReasonCode  string
	Latency     time.Duration
	CreatedAt   time.Time
}

// OutcomeStatus classifies a gateway response.
type OutcomeStatus string

const (
	OutcomeConfirmed OutcomeStatus = "confirmed"
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeRetryable OutcomeStatus = "retryable"
	OutcomeUnknown   OutcomeStatus = "unknown"
)

// GatewayResult is the classified outcome of a gateway submit or reconcile.
// Network errors and ambiguous timeouts surface as Retryable (submit) or
// Unknown (reconcile), never as a Go error.
type GatewayResult struct {
	Status     OutcomeStatus
	Reference  string
	ReasonCode string
	Detail     string
	// Ambiguous is true when the network may have recorded the attempt
	// despite the non-definitive answer: transport errors, timeouts, 5xx
	// responses and "pending" envelopes. A retry of an ambiguous attempt
	// must go through reconcile, not a blind resubmission, because the
	// network's idempotency-key support cannot be assumed.
	Ambiguous bool
}
