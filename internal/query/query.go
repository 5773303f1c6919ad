// Package query provides typed, immutable builders describing one request
// against one upstream. Every builder canonicalizes to a byte-stable
// string that doubles as its cache key.
package query

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/resilience"
)

// Paging defaults shared by all list families.
const (
	DefaultPage = 1
	DefaultSize = 25
	MaxSize     = 100
)

// Query is the contract every builder satisfies. Canonical forms are
// byte-stable: sorted parameter keys, YYYY-MM-DD dates, lowercased enum
// values, defaults omitted. Equal canonical forms mean equal cache keys.
type Query interface {
	// Tag names the adapter family, e.g. "disclosure/trades".
	Tag() string
	// Params returns the canonical URL parameters.
	Params() url.Values
	// Canonical returns Tag() + "?" + encoded Params().
	Canonical() string
	// Validate reports the first violated builder contract.
	Validate() error
}

// SortDir is a sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Sort pairs a family-specific field with a direction.
type Sort struct {
	Field string
	Dir   SortDir
}

// Paging holds 1-based page selection.
type Paging struct {
	Page int
	Size int
}

func defaultPaging() Paging {
	return Paging{Page: DefaultPage, Size: DefaultSize}
}

// canonical implements the shared Canonical() behavior.
func canonical(tag string, params url.Values) string {
	if len(params) == 0 {
		return tag
	}
	return tag + "?" + params.Encode() // Encode sorts keys
}

// setPaging adds non-default paging parameters.
func setPaging(v url.Values, p Paging) {
	if p.Page != DefaultPage {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size != DefaultSize {
		v.Set("size", strconv.Itoa(p.Size))
	}
}

// setSort adds a non-default sort parameter as "field.dir".
func setSort(v url.Values, s, def Sort) {
	if s == def || s.Field == "" {
		return
	}
	dir := s.Dir
	if dir == "" {
		dir = Asc
	}
	v.Set("sort", s.Field+"."+string(dir))
}

// setDate adds a date parameter when set.
func setDate(v url.Values, key string, d model.Date) {
	if !d.IsZero() {
		v.Set(key, d.String())
	}
}

func validatePaging(p Paging) error {
	if p.Page < 1 {
		return &resilience.InvalidQueryError{Field: "page", Reason: "must be >= 1"}
	}
	if p.Size < 1 || p.Size > MaxSize {
		return &resilience.InvalidQueryError{Field: "size", Reason: "must be in [1, 100]"}
	}
	return nil
}

func validateRange(field string, from, to model.Date) error {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return &resilience.InvalidQueryError{Field: field, Reason: "from is after to"}
	}
	return nil
}

func validateSort(s Sort, allowed []string) error {
	if s.Field == "" {
		return nil
	}
	if !slices.Contains(allowed, s.Field) {
		return &resilience.InvalidQueryError{Field: "sort", Reason: "unknown sort field " + s.Field}
	}
	if s.Dir != "" && s.Dir != Asc && s.Dir != Desc {
		return &resilience.InvalidQueryError{Field: "sort", Reason: "direction must be asc or desc"}
	}
	return nil
}
