package query

import (
	"net/url"
	"strconv"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/resilience"
)

// Adapter tags for the campaign-finance API families.
const (
	TagCandidates    = "fec/candidates"
	TagCommittees    = "fec/committees"
	TagContributions = "fec/contributions"
)

// Candidates describes one request against the candidate listing.
type Candidates struct {
	office string
	party  model.Party
	cycle  int
	name   string
	paging Paging
}

// NewCandidates returns a candidate query with default paging.
func NewCandidates() Candidates {
	return Candidates{paging: defaultPaging()}
}

func (q Candidates) WithOffice(office string) Candidates  { q.office = office; return q }
func (q Candidates) WithParty(p model.Party) Candidates   { q.party = p; return q }
func (q Candidates) WithCycle(cycle int) Candidates       { q.cycle = cycle; return q }
func (q Candidates) WithName(name string) Candidates      { q.name = name; return q }
func (q Candidates) WithPage(page int) Candidates         { q.paging.Page = page; return q }
func (q Candidates) WithSize(size int) Candidates         { q.paging.Size = size; return q }

// Page returns the selected page number.
func (q Candidates) Page() int { return q.paging.Page }

// Size returns the selected page size.
func (q Candidates) Size() int { return q.paging.Size }

// Tag implements Query.
func (q Candidates) Tag() string { return TagCandidates }

// Params implements Query.
func (q Candidates) Params() url.Values {
	v := url.Values{}
	if q.office != "" {
		v.Set("office", q.office)
	}
	if q.party != "" {
		v.Set("party", string(q.party))
	}
	if q.cycle != 0 {
		v.Set("cycle", strconv.Itoa(q.cycle))
	}
	if q.name != "" {
		v.Set("name", q.name)
	}
	setPaging(v, q.paging)
	return v
}

// Canonical implements Query.
func (q Candidates) Canonical() string { return canonical(q.Tag(), q.Params()) }

// Validate implements Query.
func (q Candidates) Validate() error { return validatePaging(q.paging) }

// Committees describes one request against the committee listing.
type Committees struct {
	candidateID string
	typ         string
	paging      Paging
}

// NewCommittees returns a committee query with default paging.
func NewCommittees() Committees {
	return Committees{paging: defaultPaging()}
}

func (q Committees) WithCandidate(id string) Committees { q.candidateID = id; return q }
func (q Committees) WithType(typ string) Committees     { q.typ = typ; return q }
func (q Committees) WithPage(page int) Committees       { q.paging.Page = page; return q }
func (q Committees) WithSize(size int) Committees       { q.paging.Size = size; return q }

// Page returns the selected page number.
func (q Committees) Page() int { return q.paging.Page }

// Size returns the selected page size.
func (q Committees) Size() int { return q.paging.Size }

// Tag implements Query.
func (q Committees) Tag() string { return TagCommittees }

// Params implements Query.
func (q Committees) Params() url.Values {
	v := url.Values{}
	if q.candidateID != "" {
		v.Set("candidate_id", q.candidateID)
	}
	if q.typ != "" {
		v.Set("type", q.typ)
	}
	setPaging(v, q.paging)
	return v
}

// Canonical implements Query.
func (q Committees) Canonical() string { return canonical(q.Tag(), q.Params()) }

// Validate implements Query.
func (q Committees) Validate() error { return validatePaging(q.paging) }

// Contributions describes one request against itemized receipts for a
// committee and cycle.
type Contributions struct {
	committeeID string
	cycle       int
	minAmount   float64
	from        model.Date
	to          model.Date
	sort        Sort
	paging      Paging
}

var contributionSortFields = []string{"date", "amount"}

// NewContributions returns a contribution query for the committee and
// cycle with default paging and sort (date descending).
func NewContributions(committeeID string, cycle int) Contributions {
	return Contributions{committeeID: committeeID, cycle: cycle, paging: defaultPaging()}
}

func (q Contributions) WithMinAmount(min float64) Contributions { q.minAmount = min; return q }

// WithDates bounds the receipt date, inclusive on both ends.
func (q Contributions) WithDates(from, to model.Date) Contributions {
	q.from, q.to = from, to
	return q
}

func (q Contributions) WithSort(field string, dir SortDir) Contributions {
	q.sort = Sort{Field: field, Dir: dir}
	return q
}

func (q Contributions) WithPage(page int) Contributions { q.paging.Page = page; return q }
func (q Contributions) WithSize(size int) Contributions { q.paging.Size = size; return q }

// Page returns the selected page number.
func (q Contributions) Page() int { return q.paging.Page }

// Size returns the selected page size.
func (q Contributions) Size() int { return q.paging.Size }

// Cycle returns the election cycle. Used by the freshness policy to
// distinguish closed cycles from the open one.
func (q Contributions) Cycle() int { return q.cycle }

// Tag implements Query.
func (q Contributions) Tag() string { return TagContributions }

// Params implements Query.
func (q Contributions) Params() url.Values {
	v := url.Values{}
	v.Set("committee_id", q.committeeID)
	v.Set("cycle", strconv.Itoa(q.cycle))
	if q.minAmount > 0 {
		v.Set("min_amount", strconv.FormatFloat(q.minAmount, 'f', -1, 64))
	}
	setDate(v, "date_from", q.from)
	setDate(v, "date_to", q.to)
	setSort(v, q.sort, Sort{Field: "date", Dir: Desc})
	setPaging(v, q.paging)
	return v
}

// Canonical implements Query.
func (q Contributions) Canonical() string { return canonical(q.Tag(), q.Params()) }

// Validate implements Query.
func (q Contributions) Validate() error {
	if q.committeeID == "" {
		return &resilience.InvalidQueryError{Field: "committee_id", Reason: "required"}
	}
	if q.cycle < 1976 || q.cycle%2 != 0 {
		return &resilience.InvalidQueryError{Field: "cycle", Reason: "must be an even year >= 1976"}
	}
	if err := validatePaging(q.paging); err != nil {
		return err
	}
	if err := validateRange("date", q.from, q.to); err != nil {
		return err
	}
	return validateSort(q.sort, contributionSortFields)
}
