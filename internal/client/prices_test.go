package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

// fakeVendor implements adapter.PriceVendor with call counting.
type fakeVendor struct {
	mu   sync.Mutex
	name string
	n    int
	fn   func(q query.Prices) (model.PriceSeries, error)
	seen []string
}

func (v *fakeVendor) Name() string { return v.name }

func (v *fakeVendor) Series(_ context.Context, q query.Prices) (model.PriceSeries, error) {
	v.mu.Lock()
	v.n++
	v.seen = append(v.seen, q.Ticker())
	v.mu.Unlock()
	return v.fn(q)
}

func (v *fakeVendor) calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.n
}

func barsFor(ticker string, source model.PriceSource, n int) model.PriceSeries {
	s := model.PriceSeries{Ticker: ticker, Source: source}
	for i := range n {
		s.Bars = append(s.Bars, model.DailyPrice{
			Ticker:   ticker,
			Date:     model.NewDate(2015, 1, 2).AddDays(i),
			Close:    100 + float64(i),
			AdjClose: 100 + float64(i),
		})
	}
	return s
}

func notFoundVendor(name string) *fakeVendor {
	return &fakeVendor{name: name, fn: func(q query.Prices) (model.PriceSeries, error) {
		return model.PriceSeries{}, resilience.ErrNotFound
	}}
}

func TestPricesPrimaryServes(t *testing.T) {
	t.Parallel()

	primary := &fakeVendor{name: "primary", fn: func(q query.Prices) (model.PriceSeries, error) {
		return barsFor(q.Ticker(), model.SourcePrimary, 3), nil
	}}
	fallback := notFoundVendor("fallback")
	c := newTestClient(t, nil, primary, fallback)

	q := query.NewPrices("AAPL", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	series, err := c.Prices(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, model.SourcePrimary, series.Source)
	assert.Len(t, series.Bars, 3)
	assert.Equal(t, 0, fallback.calls(), "fallback untouched when primary resolves")
}

func TestPricesFallbackOnPrimaryNotFound(t *testing.T) {
	t.Parallel()

	primary := notFoundVendor("primary")
	fallback := &fakeVendor{name: "fallback", fn: func(q query.Prices) (model.PriceSeries, error) {
		return barsFor(q.Ticker(), model.SourceFallback, 252), nil
	}}
	c := newTestClient(t, nil, primary, fallback)

	q := query.NewPrices("BRK/A", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	series, err := c.Prices(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, model.SourceFallback, series.Source)
	assert.Len(t, series.Bars, 252)
	assert.Equal(t, []string{"BRK-A"}, fallback.seen, "class shares map through the alias table")

	// Repeat serves from cache with zero vendor traffic: the cached
	// fallback series answers before the primary is probed again.
	primaryBefore, fallbackBefore := primary.calls(), fallback.calls()
	again, err := c.Prices(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, series.Ticker, again.Ticker)
	assert.Len(t, again.Bars, 252)
	assert.Equal(t, fallbackBefore, fallback.calls())
	assert.Equal(t, primaryBefore, primary.calls(), "repeat call makes no network calls at all")
}

func TestPricesFallbackOnEmptyPrimarySeries(t *testing.T) {
	t.Parallel()

	primary := &fakeVendor{name: "primary", fn: func(q query.Prices) (model.PriceSeries, error) {
		return model.PriceSeries{Ticker: q.Ticker(), Source: model.SourcePrimary}, nil
	}}
	fallback := &fakeVendor{name: "fallback", fn: func(q query.Prices) (model.PriceSeries, error) {
		return barsFor(q.Ticker(), model.SourceFallback, 5), nil
	}}
	c := newTestClient(t, nil, primary, fallback)

	q := query.NewPrices("XYZ", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	series, err := c.Prices(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, model.SourceFallback, series.Source)
	assert.Len(t, series.Bars, 5)
}

func TestPricesUnresolvableTickerMarked(t *testing.T) {
	t.Parallel()

	primary := notFoundVendor("primary")
	fallback := notFoundVendor("fallback")
	c := newTestClient(t, nil, primary, fallback)

	q := query.NewPrices("ZZZZ", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	_, err := c.Prices(context.Background(), q)

	var ut *resilience.UnresolvableTickerError
	require.True(t, errors.As(err, &ut))
	assert.Equal(t, "ZZZZ", ut.Ticker)

	// The negative marker suppresses re-queries entirely.
	primaryBefore, fallbackBefore := primary.calls(), fallback.calls()
	_, err = c.Prices(context.Background(), q)
	require.True(t, errors.As(err, &ut))
	assert.Equal(t, primaryBefore, primary.calls())
	assert.Equal(t, fallbackBefore, fallback.calls())
}

func TestRefreshPricesClearsNegativeMarker(t *testing.T) {
	t.Parallel()

	primary := notFoundVendor("primary")
	fallback := notFoundVendor("fallback")
	c := newTestClient(t, nil, primary, fallback)

	q := query.NewPrices("NEWCO", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	_, err := c.Prices(context.Background(), q)
	var ut *resilience.UnresolvableTickerError
	require.True(t, errors.As(err, &ut))

	// The ticker starts trading and the primary picks it up.
	primary.fn = func(q query.Prices) (model.PriceSeries, error) {
		return barsFor(q.Ticker(), model.SourcePrimary, 4), nil
	}

	refreshed, err := c.RefreshPrices(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, refreshed.Bars, 4)

	// The refresh dropped the negative marker, so regular lookups see
	// the ticker again instead of the day-long block.
	series, err := c.Prices(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, model.SourcePrimary, series.Source)
	assert.Len(t, series.Bars, 4)
}

func TestPricesMixedFailureNotCached(t *testing.T) {
	t.Parallel()

	primary := notFoundVendor("primary")
	fallback := &fakeVendor{name: "fallback", fn: func(q query.Prices) (model.PriceSeries, error) {
		return model.PriceSeries{}, resilience.NewTransientError(errors.New("gateway"), resilience.CauseServer, 502)
	}}
	c := newTestClient(t, nil, primary, fallback)

	q := query.NewPrices("AAPL", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	_, err := c.Prices(context.Background(), q)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))

	// No negative marker, no cached failure: the next call probes again.
	primaryBefore := primary.calls()
	_, err = c.Prices(context.Background(), q)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, primaryBefore+1, primary.calls())
}

func TestMergeSeriesPrimaryWins(t *testing.T) {
	t.Parallel()

	primary := barsFor("AAPL", model.SourcePrimary, 3) // Jan 2, 3, 4
	fb := model.PriceSeries{Ticker: "AAPL", Source: model.SourceFallback, Bars: []model.DailyPrice{
		{Ticker: "AAPL", Date: model.NewDate(2015, 1, 1), Close: 1, AdjClose: 1},
		{Ticker: "AAPL", Date: model.NewDate(2015, 1, 3), Close: 999, AdjClose: 999},
		{Ticker: "AAPL", Date: model.NewDate(2015, 1, 5), Close: 5, AdjClose: 5},
	}}

	merged := mergeSeries(primary, fb)

	require.Len(t, merged.Bars, 5)
	assert.Equal(t, model.SourcePrimary, merged.Source)
	got, ok := merged.At(model.NewDate(2015, 1, 3))
	require.True(t, ok)
	assert.Equal(t, 101.0, got.AdjClose, "overlapping date keeps the primary row")
	require.NoError(t, merged.Validate())
}
