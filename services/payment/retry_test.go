package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 5, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryBoundedAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("down")
	err := WithRetry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, 10, time.Minute, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "cancelled context stops the backoff loop")
}
