// Package retry provides bounded retry with exponential backoff for
// operations that fail transiently, such as dialing Postgres or Redis
// before they have finished starting.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retry loop. The backoff doubles after every failed
// attempt.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// OnRetry is invoked after each failed attempt that will be retried,
	// before the backoff sleep.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// Operation produces a value or a transient error.
type Operation[T any] func() (T, error)

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
// The last error is wrapped into the returned one.
func Do[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	var zero T

	backoff := p.InitialBackoff
	for attempt := 1; ; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}

		if attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		if err := sleep(ctx, backoff); err != nil {
			return zero, err
		}
		backoff *= 2
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
	}
}
