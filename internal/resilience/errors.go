// Package resilience defines the error taxonomy shared by adapters and the
// cached client, plus the retry policy applied between them.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

// TransientCause narrows what made a transient error transient.
type TransientCause string

const (
	CauseNetwork TransientCause = "network"
	CauseTimeout TransientCause = "timeout"
	CauseServer  TransientCause = "5xx"
)

// TransientError wraps an error that is safe to retry (network failure,
// timeout, HTTP 5xx).
type TransientError struct {
	Err        error
	Cause      TransientCause
	StatusCode int
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient (%s): %v", e.Cause, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP
// status code.
func NewTransientError(err error, cause TransientCause, statusCode int) *TransientError {
	return &TransientError{Err: err, Cause: cause, StatusCode: statusCode}
}

// RateLimitedError signals HTTP 429. RetryAfter is zero when the upstream
// did not send a Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// AuthKind distinguishes a bad credential from a valid one lacking access.
type AuthKind string

const (
	AuthInvalidKey AuthKind = "invalid_key"
	AuthForbidden  AuthKind = "forbidden"
)

// AuthError signals HTTP 401 (invalid key) or 403 (forbidden). Never
// retried; the caller must fix credentials.
type AuthError struct {
	Kind AuthKind
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth error: %s", e.Kind) }

// ErrNotFound signals HTTP 404 on a single-resource fetch. List fetches
// translate 404 into an empty page instead.
var ErrNotFound = errors.New("not found")

// InvalidQueryError marks a caller bug in query construction. Never
// retried.
type InvalidQueryError struct {
	Field  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Reason)
}

// ParseError signals an upstream response that did not match the expected
// schema. Snippet holds the first bytes of the offending body.
type ParseError struct {
	Err     error
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed: %v (body: %.120s)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnresolvableTickerError is raised by the client when neither price
// vendor can resolve a ticker. The failure is negatively cached.
type UnresolvableTickerError struct {
	Ticker string
}

func (e *UnresolvableTickerError) Error() string {
	return fmt.Sprintf("unresolvable ticker %s", e.Ticker)
}

// CacheCorruptError records a disk cache entry that failed to read back.
// Healed by eviction; surfaced only in diagnostics.
type CacheCorruptError struct {
	Key string
}

func (e *CacheCorruptError) Error() string { return fmt.Sprintf("cache corrupt: %s", e.Key) }

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient network patterns
// (timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsRateLimited reports whether the error chain contains a 429.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// RetryAfterOf extracts the upstream Retry-After hint, if any.
func RetryAfterOf(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return 0, false
}

// IsRetryable reports whether the client retry wrapper should attempt the
// call again: transient failures and rate limits, nothing else.
func IsRetryable(err error) bool {
	return IsTransient(err) || IsRateLimited(err)
}
