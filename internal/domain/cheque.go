package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// State is a cheque lifecycle state.
type State string

const (
	StateSubmitted         State = "submitted"
	StateValidating        State = "validating"
	StateRejected          State = "rejected"
	StatePendingSettlement State = "pending_settlement"
	StateSettling          State = "settling"
	StateSettled           State = "settled"
	StateSettlementFailed  State = "settlement_failed"
	StateReversed          State = "reversed"
)

// transitions is the set of legal state transitions.
var transitions = map[State][]State{
	StateSubmitted:         {StateValidating, StateRejected},
	StateValidating:        {StateRejected, StatePendingSettlement},
	StatePendingSettlement: {StateSettling},
	StateSettling:          {StateSettled, StateSettlementFailed, StatePendingSettlement},
	StateSettled:           {StateReversed},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no automatic transition leaves the state.
// Settled still allows an operator-driven reversal.
func (s State) IsTerminal() bool {
	switch s {
	case StateRejected, StateSettled, StateSettlementFailed, StateReversed:
		return true
	}
	return false
}

// NaturalKey is the real-world identity of a cheque instrument:
// issuing-bank routing code, drawer account number and cheque serial number.
type NaturalKey struct {
	RoutingCode   string
	AccountNumber string
	SerialNumber  string
}

// String renders the key in routing/account/serial form.
func (k NaturalKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.RoutingCode, k.AccountNumber, k.SerialNumber)
}

// Cheque represents a cheque instrument. Everything except CurrentState and
// Version is immutable after creation; CurrentState is a cached projection of
// the clearing record history.
type Cheque struct {
	ID            string
	RoutingCode   string
	AccountNumber string
	SerialNumber  string
	PayerAccount  string
	PayeeAccount  string
	AmountMinor   int64
	IssueDate     time.Time
	PayloadHash   string
	CurrentState  State
	Version       int64
	AttemptID     string
	AttemptCount  int
	NextAttemptAt *time.Time
	NeedsReview   bool
	ReviewReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key returns the cheque's natural key.
func (c *Cheque) Key() NaturalKey {
	return NaturalKey{
		RoutingCode:   c.RoutingCode,
		AccountNumber: c.AccountNumber,
		SerialNumber:  c.SerialNumber,
	}
}

// ComputePayloadHash hashes the immutable submission payload. Two submissions
// of the same natural key with different hashes are conflicting instruments.
func ComputePayloadHash(payer, payee string, amountMinor int64, issueDate time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s",
		payer, payee, amountMinor, issueDate.UTC().Format("2006-01-02"))))
	return hex.EncodeToString(sum[:])
}

// ProjectState folds a clearing record history into the current state.
// Records must be in ascending sequence order; an empty history projects to
// Submitted since the first record is only appended together with the cheque.
func ProjectState(records []*ClearingRecord) State {
	if len(records) == 0 {
		return StateSubmitted
	}
	return records[len(records)-1].ToState
}

// ValidPath reports whether a record history is a legal walk through the
// state machine with contiguous sequence numbers.
func ValidPath(records []*ClearingRecord) bool {
	for i, rec := range records {
		if rec.Sequence != int64(i+1) {
			return false
		}
		if i == 0 {
			if rec.ToState != StateSubmitted {
				return false
			}
			continue
		}
		if rec.FromState != records[i-1].ToState {
			return false
		}
		if !CanTransition(rec.FromState, rec.ToState) {
			return false
		}
	}
	return true
}
