package translate

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy controls the backoff schedule for transient and
// rate-limited request failures.
//
// MaxAttempts: Number of retries after the initial request
// BaseDelay: Delay before the first retry, doubled on each subsequent one
// MaxDelay: Upper bound on any single delay
// Jitter: Fraction of the delay randomized in both directions
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

// DefaultRetryPolicy returns the policy used against the public
// translation backends.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Jitter:      0.1,
	}
}

// Backoff returns the delay to sleep before retry number attempt,
// counted from 1. The schedule is exponential with a cap and random
// jitter so parallel clients do not retry in lockstep.
func (p RetryPolicy) Backoff(attempt int, rng *rand.Rand) time.Duration {
	backoff := p.BaseDelay
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= p.MaxDelay {
			backoff = p.MaxDelay
			break
		}
	}

	if p.Jitter > 0 && rng != nil {
		amount := float64(backoff) * p.Jitter
		backoff += time.Duration((rng.Float64()*2 - 1) * amount)
	}

	const floor = 100 * time.Millisecond
	if backoff < floor {
		backoff = floor
	}
	return backoff
}

// sleepFunc waits for the given duration unless the context is
// cancelled first. Injectable so tests do not wait in real time.
type sleepFunc func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
