package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// The management client wraps transient failures (connection errors, 5xx
// responses, 429 throttling) with this type so that [Retry] knows to
// attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is a convenience wrapper around [Retry] with the
// defaults used by the management client: 5 attempts with 1 second initial
// delay (doubling each retry). ARM throttles aggressively under the
// unbounded parallelism of the traversals, so the ceiling is generous.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 5, time.Second, fn)
}

// IsRetryable reports whether err is wrapped in a [RetryableError]
// anywhere along its chain.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
