package query

import (
	"net/url"
	"strconv"

	"github.com/sells-group/captrades/internal/model"
)

// TagPoliticians is the adapter tag for politician listings.
const TagPoliticians = "disclosure/politicians"

var politicianSortFields = []string{"last_name", "trades", "volume"}

// Politicians describes one request against the politician listing.
type Politicians struct {
	chamber model.Chamber
	party   model.Party
	state   string
	active  *bool
	sort    Sort
	paging  Paging
}

// NewPoliticians returns a politician query with default paging and sort
// (last_name ascending).
func NewPoliticians() Politicians {
	return Politicians{paging: defaultPaging()}
}

func (q Politicians) WithChamber(c model.Chamber) Politicians { q.chamber = c; return q }
func (q Politicians) WithParty(p model.Party) Politicians     { q.party = p; return q }
func (q Politicians) WithState(state string) Politicians      { q.state = state; return q }

func (q Politicians) WithActive(active bool) Politicians {
	q.active = &active
	return q
}

func (q Politicians) WithSort(field string, dir SortDir) Politicians {
	q.sort = Sort{Field: field, Dir: dir}
	return q
}

func (q Politicians) WithPage(page int) Politicians { q.paging.Page = page; return q }
func (q Politicians) WithSize(size int) Politicians { q.paging.Size = size; return q }

// Page returns the selected page number.
func (q Politicians) Page() int { return q.paging.Page }

// Size returns the selected page size.
func (q Politicians) Size() int { return q.paging.Size }

// Tag implements Query.
func (q Politicians) Tag() string { return TagPoliticians }

// Params implements Query.
func (q Politicians) Params() url.Values {
	v := url.Values{}
	if q.chamber != "" {
		v.Set("chamber", string(q.chamber))
	}
	if q.party != "" {
		v.Set("party", string(q.party))
	}
	if q.state != "" {
		v.Set("state", q.state)
	}
	if q.active != nil {
		v.Set("active", strconv.FormatBool(*q.active))
	}
	setSort(v, q.sort, Sort{Field: "last_name", Dir: Asc})
	setPaging(v, q.paging)
	return v
}

// Canonical implements Query.
func (q Politicians) Canonical() string { return canonical(q.Tag(), q.Params()) }

// Validate implements Query.
func (q Politicians) Validate() error {
	if err := validatePaging(q.paging); err != nil {
		return err
	}
	return validateSort(q.sort, politicianSortFields)
}
