package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("schema mismatch")))
	assert.True(t, IsTransient(NewTransientError(errors.New("http 503"), CauseServer, 503)))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")))

	// Wrapped transient errors stay transient.
	wrapped := eris.Wrap(NewTransientError(errors.New("http 502"), CauseServer, 502), "adapter: fetch")
	assert.True(t, IsTransient(wrapped))
}

func TestRetryAfterOf(t *testing.T) {
	t.Parallel()

	_, ok := RetryAfterOf(errors.New("plain"))
	assert.False(t, ok)

	_, ok = RetryAfterOf(&RateLimitedError{})
	assert.False(t, ok)

	after, ok := RetryAfterOf(eris.Wrap(&RateLimitedError{RetryAfter: 2 * time.Second}, "adapter: fetch"))
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, after)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRetryable(&RateLimitedError{}))
	assert.True(t, IsRetryable(NewTransientError(errors.New("http 500"), CauseServer, 500)))
	assert.False(t, IsRetryable(&AuthError{Kind: AuthInvalidKey}))
	assert.False(t, IsRetryable(&ParseError{Err: errors.New("unexpected token"), Snippet: "<html>"}))
	assert.False(t, IsRetryable(&InvalidQueryError{Field: "size", Reason: "out of range"}))
	assert.False(t, IsRetryable(ErrNotFound))
}
