package query

import (
	"net/url"
	"strings"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/resilience"
)

// Adapter tags for the two end-of-day price vendors.
const (
	TagPricesPrimary  = "prices/primary"
	TagPricesFallback = "prices/fallback"
)

// Resample is the bar interval for a price request.
type Resample string

const (
	ResampleDaily   Resample = "daily"
	ResampleWeekly  Resample = "weekly"
	ResampleMonthly Resample = "monthly"
)

// Prices describes one request for an end-of-day price series. The same
// builder serves both vendors; the tag selects which.
type Prices struct {
	tag      string
	ticker   string
	start    model.Date
	end      model.Date
	resample Resample
}

// NewPrices returns a primary-vendor price query for the ticker over the
// inclusive date range.
func NewPrices(ticker string, start, end model.Date) Prices {
	return Prices{
		tag:      TagPricesPrimary,
		ticker:   strings.ToUpper(strings.TrimSpace(ticker)),
		start:    start,
		end:      end,
		resample: ResampleDaily,
	}
}

// ForFallback retargets the query at the fallback vendor. Cache entries
// for the two vendors never collide.
func (q Prices) ForFallback() Prices { q.tag = TagPricesFallback; return q }

// WithResample selects the bar interval.
func (q Prices) WithResample(r Resample) Prices { q.resample = r; return q }

// WithTicker substitutes the requested ticker, preserving range and
// interval. Used by the vendor symbol mapping table.
func (q Prices) WithTicker(ticker string) Prices {
	q.ticker = strings.ToUpper(strings.TrimSpace(ticker))
	return q
}

// Ticker returns the normalized ticker.
func (q Prices) Ticker() string { return q.ticker }

// Start returns the range start.
func (q Prices) Start() model.Date { return q.start }

// End returns the range end.
func (q Prices) End() model.Date { return q.end }

// Tag implements Query.
func (q Prices) Tag() string { return q.tag }

// Params implements Query.
func (q Prices) Params() url.Values {
	v := url.Values{}
	v.Set("ticker", q.ticker)
	setDate(v, "start_date", q.start)
	setDate(v, "end_date", q.end)
	if q.resample != "" && q.resample != ResampleDaily {
		v.Set("resample", string(q.resample))
	}
	return v
}

// Canonical implements Query.
func (q Prices) Canonical() string { return canonical(q.Tag(), q.Params()) }

// Validate implements Query.
func (q Prices) Validate() error {
	if q.ticker == "" {
		return &resilience.InvalidQueryError{Field: "ticker", Reason: "required"}
	}
	if err := validateRange("date", q.start, q.end); err != nil {
		return err
	}
	switch q.resample {
	case "", ResampleDaily, ResampleWeekly, ResampleMonthly:
		return nil
	default:
		return &resilience.InvalidQueryError{Field: "resample", Reason: "unknown interval " + string(q.resample)}
	}
}
