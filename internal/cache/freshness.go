package cache

import (
	"time"

	"github.com/sells-group/captrades/internal/model"
)

// Infinite marks a resource class whose entries never go stale.
const Infinite = time.Duration(-1)

// Freshness is the TTL applied when reading a cache entry. The policy is
// chosen by the caller per resource class, not baked into the entry.
type Freshness struct {
	TTL time.Duration
}

// Fresh reports whether an entry fetched at fetchedAt is still usable
// at now under this policy.
func (f Freshness) Fresh(fetchedAt, now time.Time) bool {
	if f.TTL == Infinite {
		return true
	}
	return now.Sub(fetchedAt) < f.TTL
}

// The freshness policy table. Resource classes map to TTLs here and
// nowhere else.
var (
	// Politician and issuer listings change on the disclosure feed's
	// daily refresh.
	FreshPoliticians = Freshness{TTL: 24 * time.Hour}
	FreshIssuers     = Freshness{TTL: 24 * time.Hour}

	// Trade listings touching the recent filing window churn as reports
	// arrive; fully closed historical windows barely move.
	FreshTradesRecent     = Freshness{TTL: 15 * time.Minute}
	FreshTradesHistorical = Freshness{TTL: 7 * 24 * time.Hour}

	// Completed trading days never change; a series including today does.
	FreshPricesImmutable = Freshness{TTL: Infinite}
	FreshPricesCurrent   = Freshness{TTL: time.Hour}

	// Campaign-finance reference data.
	FreshCandidates = Freshness{TTL: 24 * time.Hour}
	FreshCommittees = Freshness{TTL: 24 * time.Hour}

	// Itemized receipts are append-only within an open cycle and frozen
	// once the cycle closes.
	FreshContributionsClosed = Freshness{TTL: Infinite}
	FreshContributionsOpen   = Freshness{TTL: 6 * time.Hour}

	// Negative markers: unresolvable tickers are suppressed for a day,
	// schema mismatches briefly to avoid hot retry loops.
	FreshNegativeTicker = Freshness{TTL: 24 * time.Hour}
	FreshParseFailure   = Freshness{TTL: time.Minute}
)

// TradesFreshness picks the trade-list policy: a query whose publication
// window is closed more than a week before today is historical.
func TradesFreshness(pubTo, today model.Date) Freshness {
	if !pubTo.IsZero() && pubTo.Before(today.AddDays(-7)) {
		return FreshTradesHistorical
	}
	return FreshTradesRecent
}

// PricesFreshness picks the price-series policy: series ending before
// today are immutable.
func PricesFreshness(end, today model.Date) Freshness {
	if !end.IsZero() && end.Before(today) {
		return FreshPricesImmutable
	}
	return FreshPricesCurrent
}

// ContributionsFreshness picks the receipts policy by election cycle.
// A cycle is open through the end of its even year.
func ContributionsFreshness(cycle int, today model.Date) Freshness {
	if cycle < today.Time().Year() {
		return FreshContributionsClosed
	}
	return FreshContributionsOpen
}
