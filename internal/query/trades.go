package query

import (
	"net/url"

	"github.com/sells-group/captrades/internal/model"
)

// TagTrades is the adapter tag for disclosure trade listings.
const TagTrades = "disclosure/trades"

var tradeSortFields = []string{"pub_date", "tx_date", "value"}

// Trades describes one request against the disclosure trade listing.
// The zero value is not usable; start from NewTrades. All With* methods
// return a modified copy.
type Trades struct {
	politicianID model.PoliticianID
	issuerID     model.IssuerID
	ticker       string
	assetType    model.AssetType
	txFrom       model.Date
	txTo         model.Date
	pubFrom      model.Date
	pubTo        model.Date
	chamber      model.Chamber
	party        model.Party
	sort         Sort
	paging       Paging
}

// NewTrades returns a trade query with default paging and sort
// (pub_date descending).
func NewTrades() Trades {
	return Trades{paging: defaultPaging()}
}

func (q Trades) WithPolitician(id model.PoliticianID) Trades { q.politicianID = id; return q }
func (q Trades) WithIssuer(id model.IssuerID) Trades         { q.issuerID = id; return q }
func (q Trades) WithTicker(ticker string) Trades             { q.ticker = ticker; return q }
func (q Trades) WithAssetType(at model.AssetType) Trades     { q.assetType = at; return q }
func (q Trades) WithChamber(c model.Chamber) Trades          { q.chamber = c; return q }
func (q Trades) WithParty(p model.Party) Trades              { q.party = p; return q }

// WithTxDates bounds the transaction date, inclusive on both ends. A zero
// date leaves that end open.
func (q Trades) WithTxDates(from, to model.Date) Trades {
	q.txFrom, q.txTo = from, to
	return q
}

// WithPubDates bounds the publication date, inclusive on both ends.
func (q Trades) WithPubDates(from, to model.Date) Trades {
	q.pubFrom, q.pubTo = from, to
	return q
}

func (q Trades) WithSort(field string, dir SortDir) Trades {
	q.sort = Sort{Field: field, Dir: dir}
	return q
}

func (q Trades) WithPage(page int) Trades { q.paging.Page = page; return q }
func (q Trades) WithSize(size int) Trades { q.paging.Size = size; return q }

// PubTo returns the upper publication-date bound, zero when unbounded.
func (q Trades) PubTo() model.Date { return q.pubTo }

// Page returns the selected page number.
func (q Trades) Page() int { return q.paging.Page }

// Size returns the selected page size.
func (q Trades) Size() int { return q.paging.Size }

// Tag implements Query.
func (q Trades) Tag() string { return TagTrades }

// Params implements Query.
func (q Trades) Params() url.Values {
	v := url.Values{}
	if q.politicianID != "" {
		v.Set("politician_id", string(q.politicianID))
	}
	if q.issuerID != "" {
		v.Set("issuer_id", string(q.issuerID))
	}
	if q.ticker != "" {
		v.Set("ticker", q.ticker)
	}
	if q.assetType != "" {
		v.Set("asset_type", string(q.assetType))
	}
	setDate(v, "tx_date_from", q.txFrom)
	setDate(v, "tx_date_to", q.txTo)
	setDate(v, "pub_date_from", q.pubFrom)
	setDate(v, "pub_date_to", q.pubTo)
	if q.chamber != "" {
		v.Set("chamber", string(q.chamber))
	}
	if q.party != "" {
		v.Set("party", string(q.party))
	}
	setSort(v, q.sort, Sort{Field: "pub_date", Dir: Desc})
	setPaging(v, q.paging)
	return v
}

// Canonical implements Query.
func (q Trades) Canonical() string { return canonical(q.Tag(), q.Params()) }

// Validate implements Query.
func (q Trades) Validate() error {
	if err := validatePaging(q.paging); err != nil {
		return err
	}
	if err := validateRange("tx_date", q.txFrom, q.txTo); err != nil {
		return err
	}
	if err := validateRange("pub_date", q.pubFrom, q.pubTo); err != nil {
		return err
	}
	return validateSort(q.sort, tradeSortFields)
}
