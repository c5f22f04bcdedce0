package payment

import (
	"context"
	"time"
)

// WithRetry runs fn up to attempts times with exponential backoff. Money is
// at stake on capture/release, so callers retry a bounded number of times and
// escalate after that instead of retrying forever.
func WithRetry(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(base << uint(i)):
		}
	}
	return err
}
