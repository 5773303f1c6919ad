// Package client is the user-visible facade. It routes typed queries to
// the right adapter through the cache, retries transient failures, walks
// pagination, and resolves price lookups across two vendors.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/captrades/internal/adapter"
	"github.com/sells-group/captrades/internal/cache"
	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

// disclosureAPI is the slice of the disclosure adapter the client uses.
// Narrowed to an interface so tests can substitute call-counting fakes.
type disclosureAPI interface {
	Politicians(ctx context.Context, q query.Politicians) (model.Page[model.Politician], error)
	Politician(ctx context.Context, id model.PoliticianID) (model.Politician, error)
	Issuers(ctx context.Context, q query.Issuers) (model.Page[model.Issuer], error)
	Issuer(ctx context.Context, id model.IssuerID) (model.Issuer, error)
	Trades(ctx context.Context, q query.Trades) (model.Page[model.Trade], error)
}

type fecAPI interface {
	Candidates(ctx context.Context, q query.Candidates) (model.Page[model.Candidate], error)
	Committees(ctx context.Context, q query.Committees) (model.Page[model.Committee], error)
	Contributions(ctx context.Context, q query.Contributions) (model.Page[model.Contribution], error)
}

// Options configures a Client. Zero-value retry and clock fields pick up
// the defaults.
type Options struct {
	Disclosure     adapter.Config
	PrimaryPrices  adapter.Config
	FallbackPrices adapter.Config
	FEC            adapter.Config
	Cache          cache.Config

	Retry resilience.RetryConfig
	Now   func() time.Time
}

// Client is the cached, rate-aware entry point for all three upstreams.
type Client struct {
	disclosure disclosureAPI
	primary    adapter.PriceVendor
	fallback   adapter.PriceVendor
	fec        fecAPI

	cache *cache.Cache
	retry resilience.RetryConfig
	now   func() time.Time
}

// New builds a Client from adapter configs, opening the cache at
// Cache.Root. Callers own Close.
func New(opts Options) (*Client, error) {
	c, err := cache.New(opts.Cache)
	if err != nil {
		return nil, eris.Wrap(err, "client: open cache")
	}
	return newClient(
		adapter.NewDisclosure(opts.Disclosure),
		adapter.NewPrimaryPrices(opts.PrimaryPrices),
		adapter.NewFallbackPrices(opts.FallbackPrices),
		adapter.NewFEC(opts.FEC),
		c, opts.Retry, opts.Now,
	), nil
}

func newClient(d disclosureAPI, primary, fallback adapter.PriceVendor, fec fecAPI, c *cache.Cache, retry resilience.RetryConfig, now func() time.Time) *Client {
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultRetryConfig()
	}
	if now == nil {
		now = time.Now
	}
	return &Client{
		disclosure: d,
		primary:    primary,
		fallback:   fallback,
		fec:        fec,
		cache:      c,
		retry:      retry,
		now:        now,
	}
}

// Close releases the cache's disk index.
func (c *Client) Close() error { return c.cache.Close() }

// Invalidate drops a single cached query result.
func (c *Client) Invalidate(q query.Query) error {
	return c.cache.Invalidate(cache.NewKey(q.Tag(), q.Canonical()))
}

// InvalidatePrefix drops every cached entry under a tag whose canonical
// form contains partial. An empty partial clears the whole tag.
func (c *Client) InvalidatePrefix(tag, partial string) error {
	return c.cache.InvalidatePrefix(tag, partial)
}

func (c *Client) today() model.Date { return model.DateOf(c.now()) }

// parseFailureKey derives the negative-marker key for a query whose
// upstream response failed to parse.
func parseFailureKey(key cache.Key) cache.Key {
	return cache.NewKey(key.Tag, key.Canonical+"#parse_failed")
}

// cachedVal fetches one value through the cache. The loader runs under
// single-flight and wraps the adapter call in the retry policy; results
// are stored as JSON payloads keyed by the query's canonical form. A
// response that fails to parse is remembered negatively for a minute so
// a broken upstream does not get hammered in a hot loop.
func cachedVal[T any](ctx context.Context, c *Client, key cache.Key, f cache.Freshness, source string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if marker, ok := c.cache.Get(parseFailureKey(key), cache.FreshParseFailure); ok && marker.Meta.Negative {
		return zero, &resilience.ParseError{
			Err:     errors.New("recent response failed to parse"),
			Snippet: string(marker.Payload),
		}
	}
	entry, err := c.cache.GetOrFetch(ctx, key, f, func(loadCtx context.Context) (cache.Entry, error) {
		v, err := resilience.DoVal(loadCtx, c.retry, fetch)
		if err != nil {
			return cache.Entry{}, err
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return cache.Entry{}, eris.Wrap(err, "client: encode payload")
		}
		return cache.Entry{Payload: payload, Meta: cache.Meta{Source: source}}, nil
	})
	if err != nil {
		var pe *resilience.ParseError
		if errors.As(err, &pe) {
			putErr := c.cache.Put(parseFailureKey(key), cache.Entry{
				Payload: []byte(pe.Snippet),
				Meta:    cache.Meta{Negative: true},
			})
			if putErr != nil {
				zap.L().Warn("client: store parse-failure marker", zap.String("key", key.String()), zap.Error(putErr))
			}
		}
		return zero, err
	}
	var v T
	if err := json.Unmarshal(entry.Payload, &v); err != nil {
		// Entry came from our own encoder, so this means disk rot.
		_ = c.cache.Invalidate(key)
		return zero, &resilience.CacheCorruptError{Key: key.String()}
	}
	return v, nil
}

// cachedPage is cachedVal specialized to page envelopes, validating the
// query first so malformed filters never reach the network or the cache.
func cachedPage[Q query.Query, T any](ctx context.Context, c *Client, q Q, f cache.Freshness, fetch func(context.Context, Q) (model.Page[T], error)) (model.Page[T], error) {
	if err := q.Validate(); err != nil {
		return model.Page[T]{}, err
	}
	key := cache.NewKey(q.Tag(), q.Canonical())
	return cachedVal(ctx, c, key, f, "", func(ctx context.Context) (model.Page[T], error) {
		return fetch(ctx, q)
	})
}

// Politicians fetches one page of politicians.
func (c *Client) Politicians(ctx context.Context, q query.Politicians) (model.Page[model.Politician], error) {
	return cachedPage(ctx, c, q, cache.FreshPoliticians, c.disclosure.Politicians)
}

// Politician fetches a single politician record by ID.
func (c *Client) Politician(ctx context.Context, id model.PoliticianID) (model.Politician, error) {
	key := cache.NewKey(query.TagPoliticians, fmt.Sprintf("%s/%s", query.TagPoliticians, id))
	return cachedVal(ctx, c, key, cache.FreshPoliticians, "", func(ctx context.Context) (model.Politician, error) {
		return c.disclosure.Politician(ctx, id)
	})
}

// Issuers fetches one page of issuers.
func (c *Client) Issuers(ctx context.Context, q query.Issuers) (model.Page[model.Issuer], error) {
	return cachedPage(ctx, c, q, cache.FreshIssuers, c.disclosure.Issuers)
}

// Issuer fetches a single issuer record by ID.
func (c *Client) Issuer(ctx context.Context, id model.IssuerID) (model.Issuer, error) {
	key := cache.NewKey(query.TagIssuers, fmt.Sprintf("%s/%s", query.TagIssuers, id))
	return cachedVal(ctx, c, key, cache.FreshIssuers, "", func(ctx context.Context) (model.Issuer, error) {
		return c.disclosure.Issuer(ctx, id)
	})
}

// Trades fetches one page of trades. Freshness depends on whether the
// query's publication window is still open.
func (c *Client) Trades(ctx context.Context, q query.Trades) (model.Page[model.Trade], error) {
	return cachedPage(ctx, c, q, cache.TradesFreshness(q.PubTo(), c.today()), c.disclosure.Trades)
}

// Candidates fetches one page of campaign-finance candidates.
func (c *Client) Candidates(ctx context.Context, q query.Candidates) (model.Page[model.Candidate], error) {
	return cachedPage(ctx, c, q, cache.FreshCandidates, c.fec.Candidates)
}

// Committees fetches one page of committees.
func (c *Client) Committees(ctx context.Context, q query.Committees) (model.Page[model.Committee], error) {
	return cachedPage(ctx, c, q, cache.FreshCommittees, c.fec.Committees)
}

// Contributions fetches one page of itemized receipts for a committee.
func (c *Client) Contributions(ctx context.Context, q query.Contributions) (model.Page[model.Contribution], error) {
	return cachedPage(ctx, c, q, cache.ContributionsFreshness(q.Cycle(), c.today()), c.fec.Contributions)
}
