package model

import "github.com/rotisserie/eris"

// PriceSource tags which vendor produced a price series.
type PriceSource string

const (
	SourcePrimary  PriceSource = "primary"
	SourceFallback PriceSource = "fallback"
)

// DailyPrice is one end-of-day bar for a ticker. AdjClose is split- and
// dividend-adjusted and is the basis for all return computations.
type DailyPrice struct {
	Ticker      string  `json:"ticker"`
	Date        Date    `json:"date"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	AdjClose    float64 `json:"adj_close"`
	Volume      int64   `json:"volume"`
	SplitFactor float64 `json:"split_factor"`
	DivCash     float64 `json:"div_cash"`
}

// PriceSeries is a date-ordered run of daily bars for one ticker.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Source PriceSource  `json:"source"`
	Bars   []DailyPrice `json:"bars"`
}

// Validate checks that dates are strictly increasing with no duplicates
// and that every bar carries the series ticker.
func (s PriceSeries) Validate() error {
	for i, bar := range s.Bars {
		if bar.Ticker != s.Ticker {
			return eris.Errorf("model: series %s has bar for %s at index %d", s.Ticker, bar.Ticker, i)
		}
		if i > 0 && !s.Bars[i-1].Date.Before(bar.Date) {
			return eris.Errorf("model: series %s not strictly increasing at index %d (%s then %s)",
				s.Ticker, i, s.Bars[i-1].Date, bar.Date)
		}
	}
	return nil
}

// At returns the bar for an exact date, if present.
func (s PriceSeries) At(d Date) (DailyPrice, bool) {
	for _, bar := range s.Bars {
		if bar.Date.Equal(d) {
			return bar, true
		}
	}
	return DailyPrice{}, false
}

// AtOrBefore returns the last bar dated on or before d. This is the
// lookup used for trade entry prices, where the transaction date may fall
// on a weekend or holiday.
func (s PriceSeries) AtOrBefore(d Date) (DailyPrice, bool) {
	for i := len(s.Bars) - 1; i >= 0; i-- {
		if !s.Bars[i].Date.After(d) {
			return s.Bars[i], true
		}
	}
	return DailyPrice{}, false
}
