// Package analysis derives performance metrics from already-fetched
// trades and price series. Everything here is pure: no I/O, no cache,
// no clock other than the caller's reference date.
package analysis

import (
	"sort"

	"github.com/sells-group/captrades/internal/model"
)

// SkipReason explains why a trade was excluded from price-based metrics.
// Excluded trades stay in the result set so callers can account for them.
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipNoPriceAtEntry    SkipReason = "no_price_at_entry"
	SkipZeroEntryPrice    SkipReason = "zero_entry_price"
	SkipExcludedDirection SkipReason = "excluded_direction"
)

// TradeReturn is one trade joined to its price series. ReturnPct is a
// fraction (0.12 = 12%), not a percentage.
type TradeReturn struct {
	Trade       model.Trade
	EntryPrice  float64
	ExitPrice   float64
	ReturnPct   float64
	HoldingDays int
	Skip        SkipReason
}

// Included reports whether the trade participates in return metrics.
func (r TradeReturn) Included() bool { return r.Skip == SkipNone }

// Returns joins each trade to the price series for its ticker and
// computes per-trade performance as of the reference date. A zero
// reference date means today. Trades that cannot be priced come back
// with a skip reason instead of an error.
func Returns(trades []model.Trade, series map[string]model.PriceSeries, ref model.Date) []TradeReturn {
	if ref.IsZero() {
		ref = model.Today()
	}

	out := make([]TradeReturn, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeReturn(t, series, ref))
	}
	return out
}

func tradeReturn(t model.Trade, series map[string]model.PriceSeries, ref model.Date) TradeReturn {
	r := TradeReturn{Trade: t, HoldingDays: t.TxDate.DaysUntil(ref)}

	if t.Direction == model.DirectionExchange {
		r.Skip = SkipExcludedDirection
		return r
	}

	s, ok := series[t.Ticker]
	if !ok {
		r.Skip = SkipNoPriceAtEntry
		return r
	}
	entry, ok := s.AtOrBefore(t.TxDate)
	if !ok {
		r.Skip = SkipNoPriceAtEntry
		return r
	}
	if entry.AdjClose == 0 {
		r.Skip = SkipZeroEntryPrice
		return r
	}
	exit, ok := s.AtOrBefore(ref)
	if !ok {
		r.Skip = SkipNoPriceAtEntry
		return r
	}

	r.EntryPrice = entry.AdjClose
	r.ExitPrice = exit.AdjClose
	r.ReturnPct = exit.AdjClose/entry.AdjClose - 1
	if t.Direction == model.DirectionSell {
		r.ReturnPct = -r.ReturnPct
	}
	return r
}

// Sort orders returns by descending ReturnPct, then ascending txDate,
// then trade ID. The sort is stable, so equal keys keep input order.
func Sort(rs []TradeReturn) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.ReturnPct != b.ReturnPct {
			return a.ReturnPct > b.ReturnPct
		}
		if !a.Trade.TxDate.Equal(b.Trade.TxDate) {
			return a.Trade.TxDate.Before(b.Trade.TxDate)
		}
		return a.Trade.ID().String() < b.Trade.ID().String()
	})
}
