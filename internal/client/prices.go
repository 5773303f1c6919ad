package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/captrades/internal/adapter"
	"github.com/sells-group/captrades/internal/cache"
	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

// tagUnresolvable holds negative markers for tickers neither price
// vendor could resolve.
const tagUnresolvable = "prices/unresolvable"

// tickerAliases maps disclosure-feed ticker forms to the primary
// vendor's symbol convention. Explicit table, not a heuristic: class
// shares in the feed appear with slash or dot separators while the
// vendor wants a hyphen.
var tickerAliases = map[string]string{
	"BRK/A": "BRK-A",
	"BRK.A": "BRK-A",
	"BRK/B": "BRK-B",
	"BRK.B": "BRK-B",
	"BF/A":  "BF-A",
	"BF.A":  "BF-A",
	"BF/B":  "BF-B",
	"BF.B":  "BF-B",
	"LGF/A": "LGF-A",
	"LGF.A": "LGF-A",
	"LGF/B": "LGF-B",
	"LGF.B": "LGF-B",
	"HEI/A": "HEI-A",
	"HEI.A": "HEI-A",
}

// CanonicalTicker resolves a disclosure-feed ticker to the vendor
// symbol. Unmapped tickers pass through unchanged.
func CanonicalTicker(ticker string) string {
	if mapped, ok := tickerAliases[ticker]; ok {
		return mapped
	}
	return ticker
}

// Prices fetches a daily price series, trying the primary vendor first
// and falling back to the secondary when the primary cannot resolve the
// ticker. A ticker neither vendor knows is remembered for a day so hot
// paths do not re-query it.
func (c *Client) Prices(ctx context.Context, q query.Prices) (model.PriceSeries, error) {
	if err := q.Validate(); err != nil {
		return model.PriceSeries{}, err
	}
	q = q.WithTicker(CanonicalTicker(q.Ticker()))

	if c.tickerUnresolvable(q.Ticker()) {
		return model.PriceSeries{}, &resilience.UnresolvableTickerError{Ticker: q.Ticker()}
	}

	fresh := cache.PricesFreshness(q.End(), c.today())

	// A previous call may have landed on the fallback vendor. Its cached
	// series must satisfy repeat calls without re-probing the primary,
	// whose miss is not cached.
	if fb, ok := c.seriesFromCache(q.ForFallback(), fresh); ok {
		return fb, nil
	}

	series, err := c.fetchSeries(ctx, q, fresh, c.primary)
	if err == nil && len(series.Bars) > 0 {
		return series, nil
	}
	if err != nil && !errors.Is(err, resilience.ErrNotFound) {
		return model.PriceSeries{}, err
	}

	// Primary came back empty or 404. The fallback vendor covers a
	// different symbol universe, so it gets its own attempt and its own
	// cache entries.
	fb, fbErr := c.fetchSeries(ctx, q.ForFallback(), fresh, c.fallback)
	if fbErr == nil {
		return fb, nil
	}
	if errors.Is(fbErr, resilience.ErrNotFound) {
		c.markUnresolvable(q.Ticker())
		return model.PriceSeries{}, &resilience.UnresolvableTickerError{Ticker: q.Ticker()}
	}
	// Mixed failure: the fallback's transient or rate-limit error
	// surfaces as-is and nothing is cached, so a later call retries.
	return model.PriceSeries{}, fbErr
}

// RefreshPrices drops any cached series for the query, fetches both
// vendors, and merges them with the primary winning per date and the
// fallback filling gaps. Used by admin refresh, not the hot path.
func (c *Client) RefreshPrices(ctx context.Context, q query.Prices) (model.PriceSeries, error) {
	if err := q.Validate(); err != nil {
		return model.PriceSeries{}, err
	}
	q = q.WithTicker(CanonicalTicker(q.Ticker()))
	fbq := q.ForFallback()

	if err := c.Invalidate(q); err != nil {
		return model.PriceSeries{}, err
	}
	if err := c.Invalidate(fbq); err != nil {
		return model.PriceSeries{}, err
	}

	fresh := cache.PricesFreshness(q.End(), c.today())

	primary, err := c.fetchSeries(ctx, q, fresh, c.primary)
	if err != nil && !errors.Is(err, resilience.ErrNotFound) {
		return model.PriceSeries{}, err
	}
	fb, fbErr := c.fetchSeries(ctx, fbq, fresh, c.fallback)
	if fbErr != nil && !errors.Is(fbErr, resilience.ErrNotFound) {
		return model.PriceSeries{}, fbErr
	}
	if err != nil && fbErr != nil {
		c.markUnresolvable(q.Ticker())
		return model.PriceSeries{}, &resilience.UnresolvableTickerError{Ticker: q.Ticker()}
	}
	// At least one vendor resolved the ticker now, so any stale negative
	// marker must not block it for the rest of its day.
	if err := c.cache.Invalidate(unresolvableKey(q.Ticker())); err != nil {
		zap.L().Warn("client: drop negative marker", zap.String("ticker", q.Ticker()), zap.Error(err))
	}
	return mergeSeries(primary, fb), nil
}

func (c *Client) fetchSeries(ctx context.Context, q query.Prices, f cache.Freshness, vendor adapter.PriceVendor) (model.PriceSeries, error) {
	key := cache.NewKey(q.Tag(), q.Canonical())
	return cachedVal(ctx, c, key, f, vendor.Name(), func(ctx context.Context) (model.PriceSeries, error) {
		return vendor.Series(ctx, q)
	})
}

// seriesFromCache reads a cached series without touching the network.
func (c *Client) seriesFromCache(q query.Prices, f cache.Freshness) (model.PriceSeries, bool) {
	entry, ok := c.cache.Get(cache.NewKey(q.Tag(), q.Canonical()), f)
	if !ok || entry.Meta.Negative {
		return model.PriceSeries{}, false
	}
	var series model.PriceSeries
	if err := json.Unmarshal(entry.Payload, &series); err != nil {
		return model.PriceSeries{}, false
	}
	return series, true
}

func unresolvableKey(ticker string) cache.Key {
	return cache.NewKey(tagUnresolvable, fmt.Sprintf("%s?ticker=%s", tagUnresolvable, ticker))
}

func (c *Client) tickerUnresolvable(ticker string) bool {
	entry, ok := c.cache.Get(unresolvableKey(ticker), cache.FreshNegativeTicker)
	return ok && entry.Meta.Negative
}

func (c *Client) markUnresolvable(ticker string) {
	err := c.cache.Put(unresolvableKey(ticker), cache.Entry{
		Payload: []byte(`{}`),
		Meta:    cache.Meta{Negative: true},
	})
	if err != nil {
		zap.L().Warn("client: store negative marker", zap.String("ticker", ticker), zap.Error(err))
	}
}

// mergeSeries combines two series over the same range. Rows from a win
// per date; rows from b fill the dates a lacks. Volumes are never
// recomputed across sources; whole rows move or they don't.
func mergeSeries(a, b model.PriceSeries) model.PriceSeries {
	if len(b.Bars) == 0 {
		return a
	}
	if len(a.Bars) == 0 {
		return b
	}

	have := make(map[string]struct{}, len(a.Bars))
	for _, bar := range a.Bars {
		have[bar.Date.String()] = struct{}{}
	}

	out := model.PriceSeries{Ticker: a.Ticker, Source: a.Source}
	out.Bars = append(out.Bars, a.Bars...)
	for _, bar := range b.Bars {
		if _, ok := have[bar.Date.String()]; ok {
			continue
		}
		bar.Ticker = a.Ticker
		out.Bars = append(out.Bars, bar)
	}
	sort.Slice(out.Bars, func(i, j int) bool {
		return out.Bars[i].Date.Before(out.Bars[j].Date)
	})
	return out
}
