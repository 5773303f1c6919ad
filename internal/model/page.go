package model

import "github.com/rotisserie/eris"

// PageMeta is the paging envelope every list upstream returns. Adapters
// pass it through unchanged.
type PageMeta struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// TotalPagesFor computes ceil(totalItems/size).
func TotalPagesFor(totalItems, size int) int {
	if size <= 0 {
		return 0
	}
	return (totalItems + size - 1) / size
}

// Validate checks the paging invariants: page*size cannot overshoot the
// item count by more than one page, and totalPages must equal
// ceil(totalItems/size).
func (m PageMeta) Validate() error {
	if m.Page < 1 {
		return eris.Errorf("model: page %d < 1", m.Page)
	}
	if m.Size < 1 {
		return eris.Errorf("model: page size %d < 1", m.Size)
	}
	if m.Page*m.Size > m.TotalItems+m.Size {
		return eris.Errorf("model: page %d size %d overshoots %d items", m.Page, m.Size, m.TotalItems)
	}
	if want := TotalPagesFor(m.TotalItems, m.Size); m.TotalPages != want {
		return eris.Errorf("model: total_pages %d, want %d for %d items of %d", m.TotalPages, want, m.TotalItems, m.Size)
	}
	return nil
}

// Last reports whether this is the final page of the result set.
func (m PageMeta) Last() bool { return m.Page >= m.TotalPages }

// Page is one page of decoded records plus its envelope.
type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}
