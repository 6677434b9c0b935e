package scheduler

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded retry loop with optional backoff.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first.
	MaxAttempts int

	// Delay is the wait after the first failed attempt.
	Delay time.Duration

	// Backoff multiplies the delay after each failure. 1.0 keeps the
	// delay fixed.
	Backoff float64
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled.
//
// Parameters:
//   - ctx: Context; cancellation aborts between attempts
//   - fn: Operation to attempt
//   - onAttempt: Called after every failed attempt with the attempt
//     number (1-based) and the error; may be nil
//
// Returns:
//   - error: nil on success, ctx.Err() on cancellation, or the last
//     attempt's error wrapped with the attempt count
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, onAttempt func(attempt int, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.Delay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if onAttempt != nil {
			onAttempt(attempt, lastErr)
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if p.Backoff > 1 {
			delay = time.Duration(float64(delay) * p.Backoff)
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
