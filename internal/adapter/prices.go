package adapter

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

// PriceVendor is the shared shape of both end-of-day price adapters. The
// cached client drives fallback across two instances of this interface.
type PriceVendor interface {
	Name() string
	Series(ctx context.Context, q query.Prices) (model.PriceSeries, error)
}

// PrimaryPrices fronts the primary EOD vendor. Its convention is a
// `token` query parameter and a per-ticker path; an unknown ticker is a
// 404, which surfaces as NotFound.
type PrimaryPrices struct {
	t      *transport
	apiKey string
}

// NewPrimaryPrices creates the primary price adapter.
func NewPrimaryPrices(cfg Config) *PrimaryPrices {
	return &PrimaryPrices{t: newTransport(cfg), apiKey: cfg.APIKey}
}

// Name implements PriceVendor.
func (p *PrimaryPrices) Name() string { return "primary" }

// Series implements PriceVendor.
func (p *PrimaryPrices) Series(ctx context.Context, q query.Prices) (model.PriceSeries, error) {
	params := q.Params()
	params.Del("ticker") // ticker rides in the path for this vendor
	params.Set("token", p.apiKey)

	body, err := p.t.get(ctx, "/daily/"+url.PathEscape(q.Ticker())+"/prices", params, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	bars, err := decode[[]model.DailyPrice](body)
	if err != nil {
		return model.PriceSeries{}, eris.Wrap(err, "adapter: decode primary prices")
	}
	return newSeries(q.Ticker(), model.SourcePrimary, bars)
}

// FallbackPrices fronts the secondary EOD vendor, used when the primary
// cannot resolve a ticker. Its convention is an X-API-Key header and the
// ticker as a query parameter.
type FallbackPrices struct {
	t      *transport
	apiKey string
}

// NewFallbackPrices creates the fallback price adapter.
func NewFallbackPrices(cfg Config) *FallbackPrices {
	return &FallbackPrices{t: newTransport(cfg), apiKey: cfg.APIKey}
}

// Name implements PriceVendor.
func (f *FallbackPrices) Name() string { return "fallback" }

// Series implements PriceVendor.
func (f *FallbackPrices) Series(ctx context.Context, q query.Prices) (model.PriceSeries, error) {
	h := http.Header{}
	h.Set("X-API-Key", f.apiKey)

	body, err := f.t.get(ctx, "/v1/eod", q.Params(), h)
	if err != nil {
		return model.PriceSeries{}, err
	}
	bars, err := decode[[]model.DailyPrice](body)
	if err != nil {
		return model.PriceSeries{}, eris.Wrap(err, "adapter: decode fallback prices")
	}
	return newSeries(q.Ticker(), model.SourceFallback, bars)
}

// newSeries stamps the ticker onto bars that omit it and enforces the
// strictly-increasing date invariant. A violating response is a schema
// problem, so it surfaces as ParseFailed.
func newSeries(ticker string, source model.PriceSource, bars []model.DailyPrice) (model.PriceSeries, error) {
	for i := range bars {
		if bars[i].Ticker == "" {
			bars[i].Ticker = ticker
		}
	}
	series := model.PriceSeries{Ticker: ticker, Source: source, Bars: bars}
	if err := series.Validate(); err != nil {
		return model.PriceSeries{}, &resilience.ParseError{Err: err}
	}
	return series, nil
}
