package retry

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Fixed runs op up to attempts times with a constant delay between attempts.
// The delay is deliberately not exponential: callers live inside a single
// webhook request, so there is no budget for long waits and no queue to
// offload retries to. Returns the last error once attempts are exhausted,
// or the context error if ctx is cancelled first.
func Fixed(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(op, bo)
}

// Permanent marks err so Fixed stops retrying immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
