package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	}, 3, time.Millisecond, slog.Default())

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_SucceedsAfterFailure(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 3, time.Millisecond, slog.Default())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("permanent")
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		return boom
	}, 2, time.Millisecond, slog.Default())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryWithBackoff(ctx, func() error {
		calls++
		return nil
	}, 3, time.Millisecond, slog.Default())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls, "cancelled context prevents any attempt")
}

func TestRetryWithBackoff_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- retryWithBackoff(ctx, func() error {
			calls++
			return errors.New("transient")
		}, 3, time.Minute, slog.Default())
	}()

	// Let the first attempt fail, then cancel during the long backoff
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not return after cancellation")
	}
}
