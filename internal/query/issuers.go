package query

import (
	"net/url"

	"github.com/sells-group/captrades/internal/model"
)

// TagIssuers is the adapter tag for issuer listings.
const TagIssuers = "disclosure/issuers"

var issuerSortFields = []string{"name", "volume", "trades"}

// Issuers describes one request against the issuer listing.
type Issuers struct {
	sector       string
	country      string
	marketCap    model.MarketCapClass
	tickerPrefix string
	sort         Sort
	paging       Paging
}

// NewIssuers returns an issuer query with default paging and sort
// (name ascending).
func NewIssuers() Issuers {
	return Issuers{paging: defaultPaging()}
}

func (q Issuers) WithSector(sector string) Issuers                 { q.sector = sector; return q }
func (q Issuers) WithCountry(country string) Issuers               { q.country = country; return q }
func (q Issuers) WithMarketCap(class model.MarketCapClass) Issuers { q.marketCap = class; return q }
func (q Issuers) WithTickerPrefix(prefix string) Issuers           { q.tickerPrefix = prefix; return q }

func (q Issuers) WithSort(field string, dir SortDir) Issuers {
	q.sort = Sort{Field: field, Dir: dir}
	return q
}

func (q Issuers) WithPage(page int) Issuers { q.paging.Page = page; return q }
func (q Issuers) WithSize(size int) Issuers { q.paging.Size = size; return q }

// Page returns the selected page number.
func (q Issuers) Page() int { return q.paging.Page }

// Size returns the selected page size.
func (q Issuers) Size() int { return q.paging.Size }

// Tag implements Query.
func (q Issuers) Tag() string { return TagIssuers }

// Params implements Query.
func (q Issuers) Params() url.Values {
	v := url.Values{}
	if q.sector != "" {
		v.Set("sector", q.sector)
	}
	if q.country != "" {
		v.Set("country", q.country)
	}
	if q.marketCap != "" {
		v.Set("market_cap_class", string(q.marketCap))
	}
	if q.tickerPrefix != "" {
		v.Set("ticker_prefix", q.tickerPrefix)
	}
	setSort(v, q.sort, Sort{Field: "name", Dir: Asc})
	setPaging(v, q.paging)
	return v
}

// Canonical implements Query.
func (q Issuers) Canonical() string { return canonical(q.Tag(), q.Params()) }

// Validate implements Query.
func (q Issuers) Validate() error {
	if err := validatePaging(q.paging); err != nil {
		return err
	}
	return validateSort(q.sort, issuerSortFields)
}
