package analysis

import (
	"sort"

	"github.com/sells-group/captrades/internal/model"
)

// Aggregate summarizes a group of trades. Count and the total notional
// bounds cover every trade in the group; the return metrics and the
// priced notional bounds cover only trades that could be priced.
// Notional is always the sum of size-bucket endpoints, never a point
// estimate; buckets keep their endpoints, they are never collapsed.
type Aggregate struct {
	Count              int     `json:"count"`
	Priced             int     `json:"priced"`
	PricedNotionalLow  float64 `json:"priced_notional_low"`
	PricedNotionalHigh float64 `json:"priced_notional_high"`
	MeanReturnPct      float64 `json:"mean_return_pct"`
	MedianReturnPct    float64 `json:"median_return_pct"`
	WinRate            float64 `json:"win_rate"`
	TotalNotionalLow   float64 `json:"total_notional_low"`
	TotalNotionalHigh  float64 `json:"total_notional_high"`
}

// ByPolitician groups returns by the trading politician.
func ByPolitician(rs []TradeReturn) map[model.PoliticianID]Aggregate {
	return groupBy(rs, func(r TradeReturn) (model.PoliticianID, bool) {
		return r.Trade.Politician, r.Trade.Politician != ""
	})
}

// ByIssuer groups returns by the traded issuer.
func ByIssuer(rs []TradeReturn) map[model.IssuerID]Aggregate {
	return groupBy(rs, func(r TradeReturn) (model.IssuerID, bool) {
		return r.Trade.Issuer, r.Trade.Issuer != ""
	})
}

// BySector groups returns by issuer sector, resolved through the side
// table. Trades whose issuer is missing from the table are skipped.
func BySector(rs []TradeReturn, issuers map[model.IssuerID]model.Issuer) map[string]Aggregate {
	return groupBy(rs, func(r TradeReturn) (string, bool) {
		iss, ok := issuers[r.Trade.Issuer]
		return iss.Sector, ok && iss.Sector != ""
	})
}

// ByParty groups returns by the politician's party.
func ByParty(rs []TradeReturn, politicians map[model.PoliticianID]model.Politician) map[model.Party]Aggregate {
	return groupBy(rs, func(r TradeReturn) (model.Party, bool) {
		p, ok := politicians[r.Trade.Politician]
		return p.Party, ok
	})
}

// ByChamber groups returns by the politician's chamber.
func ByChamber(rs []TradeReturn, politicians map[model.PoliticianID]model.Politician) map[model.Chamber]Aggregate {
	return groupBy(rs, func(r TradeReturn) (model.Chamber, bool) {
		p, ok := politicians[r.Trade.Politician]
		return p.Chamber, ok
	})
}

func groupBy[K comparable](rs []TradeReturn, key func(TradeReturn) (K, bool)) map[K]Aggregate {
	groups := make(map[K][]TradeReturn)
	for _, r := range rs {
		k, ok := key(r)
		if !ok {
			continue
		}
		groups[k] = append(groups[k], r)
	}

	out := make(map[K]Aggregate, len(groups))
	for k, members := range groups {
		out[k] = aggregate(members)
	}
	return out
}

func aggregate(rs []TradeReturn) Aggregate {
	agg := Aggregate{Count: len(rs)}

	var returns []float64
	var wins int
	for _, r := range rs {
		agg.TotalNotionalLow += r.Trade.Size.Low
		agg.TotalNotionalHigh += r.Trade.Size.High
		if !r.Included() {
			continue
		}
		agg.PricedNotionalLow += r.Trade.Size.Low
		agg.PricedNotionalHigh += r.Trade.Size.High
		returns = append(returns, r.ReturnPct)
		if r.ReturnPct > 0 {
			wins++
		}
	}

	agg.Priced = len(returns)
	if len(returns) == 0 {
		return agg
	}

	var sum float64
	for _, v := range returns {
		sum += v
	}
	agg.MeanReturnPct = sum / float64(len(returns))
	agg.MedianReturnPct = median(returns)
	agg.WinRate = float64(wins) / float64(len(returns))
	return agg
}

// median mutates its argument's order.
func median(vs []float64) float64 {
	sort.Float64s(vs)
	n := len(vs)
	if n%2 == 1 {
		return vs[n/2]
	}
	return (vs[n/2-1] + vs[n/2]) / 2
}
