package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0

	val, err := Retry(context.Background(), fastPolicy(), "test", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, eris.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0

	_, err := Retry(context.Background(), fastPolicy(), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, eris.New("still broken")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	p := fastPolicy()
	p.Retryable = func(err error) bool { return false }
	calls := 0

	_, err := Retry(context.Background(), p, "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, eris.New("permanent")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Retry(ctx, fastPolicy(), "test", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, eris.New("transient")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
