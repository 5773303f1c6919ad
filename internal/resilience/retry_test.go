package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoValSucceedsAfterTransient(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("http 503"), CauseServer, 503)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoValStopsOnPermanent(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "", &AuthError{Kind: AuthForbidden}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var ae *AuthError
	assert.True(t, errors.As(err, &ae))
}

func TestDoValExhaustsBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("http 500"), CauseServer, 500)
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDoValHonorsRetryAfter(t *testing.T) {
	t.Parallel()

	const retryAfter = 40 * time.Millisecond
	calls := 0
	start := time.Now()
	got, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &RateLimitedError{RetryAfter: retryAfter}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), retryAfter)
}

func TestDoValContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", NewTransientError(errors.New("http 502"), CauseServer, 502)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestComputeBackoffGrowth(t *testing.T) {
	t.Parallel()

	cfg := applyDefaults(RetryConfig{JitterFraction: 0})
	assert.Equal(t, 250*time.Millisecond, computeBackoff(0, cfg))
	assert.Equal(t, 500*time.Millisecond, computeBackoff(1, cfg))
	assert.Equal(t, time.Second, computeBackoff(2, cfg))
}
