package retry

import (
	"context"
	"time"
)

// Backoff computes the delay before the next reconnect or retry attempt.
type Backoff interface {
	Next(attempt int) time.Duration
}

// ExponentialBackoff grows delays by powers of two, capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// Next returns the delay for the given attempt (1-based).
func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base << (attempt - 1)
	if b.Max > 0 && delay > b.Max {
		return b.Max
	}
	return delay
}

// DefaultBackoff returns the policy used by the relay reconnect loop.
func DefaultBackoff() Backoff {
	return ExponentialBackoff{
		Base: 100 * time.Millisecond,
		Max:  5 * time.Second,
	}
}

// Wait sleeps for the attempt's delay or until the context is canceled,
// returning the context error in the latter case.
func Wait(ctx context.Context, b Backoff, attempt int) error {
	timer := time.NewTimer(b.Next(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
