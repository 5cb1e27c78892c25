package usecase

import (
	"time"

	"github.com/iho/chequer/internal/domain"
)

// ClearingPolicy is the configured behaviour of the clearing core.
type ClearingPolicy struct {
	Limits         domain.Limits
	RetryBound     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	ReversalWindow time.Duration
	LeaseTTL       time.Duration
	GatewayTimeout time.Duration
	WorkerID       string
}

// BackoffDelay returns the delay before retry attempt n (1-based), doubling
// from BackoffInitial and capped at BackoffMax. The schedule is derived from
// the durable attempt count, not in-memory loop state, so it survives
// restarts.
func (p ClearingPolicy) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.BackoffInitial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.BackoffMax {
			return p.BackoffMax
		}
	}

	if delay > p.BackoffMax {
		return p.BackoffMax
	}

	return delay
}

// DefaultClearingPolicy returns conservative defaults; production values come
// from configuration.
func DefaultClearingPolicy() ClearingPolicy {
	return ClearingPolicy{
		Limits: domain.Limits{
			MaxAmountMinor:     1000000,
			PayerDailyCapMinor: 5000000,
			IssueDateMaxAge:    90 * 24 * time.Hour,
			IssueDateMaxFuture: 24 * time.Hour,
		},
		RetryBound:     5,
		BackoffInitial: 30 * time.Second,
		BackoffMax:     10 * time.Minute,
		ReversalWindow: 72 * time.Hour,
		LeaseTTL:       60 * time.Second,
		GatewayTimeout: DefaultGatewayTimeout,
		WorkerID:       "worker-1",
	}
}
