// Package adapter holds the thin per-upstream HTTP clients. Each adapter
// translates a canonical query into one idempotent GET, maps HTTP status
// codes onto the shared error taxonomy, and decodes the response. Retry
// policy lives in the cached client, never here.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/captrades/internal/resilience"
)

// Config is the common per-upstream configuration.
type Config struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration // default 30s
	// RPS caps outbound request rate toward this host. Zero means 10/s.
	RPS float64
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) limiter() *rate.Limiter {
	rps := c.RPS
	if rps <= 0 {
		rps = 10
	}
	return rate.NewLimiter(rate.Limit(rps), int(rps))
}

// transport is the request plumbing shared by all adapters.
type transport struct {
	http      *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

func newTransport(cfg Config) *transport {
	return &transport{
		http: &http.Client{
			Timeout: cfg.timeout(),
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		limiter:   cfg.limiter(),
	}
}

// get performs one rate-limited GET and returns the body on 200. Every
// other outcome maps onto the taxonomy; no retries happen here.
func (t *transport) get(ctx context.Context, path string, params url.Values, header http.Header) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "adapter: rate limiter wait")
	}

	reqURL := t.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "adapter: build request")
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := t.http.Do(req)
	if err != nil {
		cause := resilience.CauseNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			cause = resilience.CauseTimeout
		}
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			cause = resilience.CauseTimeout
		}
		return nil, resilience.NewTransientError(err, cause, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, resilience.NewTransientError(readErr, resilience.CauseNetwork, resp.StatusCode)
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &resilience.RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &resilience.AuthError{Kind: resilience.AuthInvalidKey}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &resilience.AuthError{Kind: resilience.AuthForbidden}
	case resp.StatusCode == http.StatusNotFound:
		return nil, resilience.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, resilience.NewTransientError(
			eris.Errorf("http %d from %s", resp.StatusCode, reqURL),
			resilience.CauseServer, resp.StatusCode,
		)
	default:
		return nil, eris.Errorf("adapter: unexpected status %d from %s", resp.StatusCode, reqURL)
	}
}

// parseRetryAfter reads the delay-seconds form; the HTTP-date form is
// rare enough on these upstreams to ignore.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// decode unmarshals a response body, converting schema mismatches into
// ParseError with a snippet of the offending payload.
func decode[T any](body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &resilience.ParseError{Err: err, Snippet: snippet(body)}
	}
	return out, nil
}

func snippet(body []byte) string {
	const max = 120
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
