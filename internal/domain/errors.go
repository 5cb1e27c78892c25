package domain

import "errors"

var (
	// Cheque errors
	ErrChequeNotFound     = errors.New("cheque not found")
	ErrConflictingPayload = errors.New("natural key already submitted with a different payload")
	ErrInvalidTransition  = errors.New("illegal state transition")
	ErrStateConflict      = errors.New("cheque state changed concurrently")

	// Operator action errors
	ErrCancellationNotAllowed = errors.New("cancellation is only allowed before settlement begins")
	ErrReversalWindowClosed   = errors.New("reversal window has closed")
	ErrNotSettled             = errors.New("cheque is not settled")

	// Settlement errors
	ErrNotClaimable          = errors.New("cheque is not pending settlement")
	ErrLeaseNotAcquired      = errors.New("settlement lease held by another worker")
	ErrRecoveryInconsistency = errors.New("gateway outcome unresolvable, flagged for manual review")

	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrDuplicateAccount    = errors.New("account number already registered")
	ErrInsufficientBalance = errors.New("insufficient account balance")
)
