package domain

import "math"

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Page selects a window of a listing. Page numbers start at 1.
type Page struct {
	Page    int
	PerPage int
}

// NewPage clamps page and perPage to sane values.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	// Offset and the end of the window must fit in an int.
	if limit := math.MaxInt/perPage - 1; page > limit {
		page = limit
	}
	return Page{Page: page, PerPage: perPage}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Paginated is the listing shape shared by every datatable endpoint.
type Paginated[T any] struct {
	Data    []T   `json:"data"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// Paginate builds a Paginated result, never emitting a null data array.
func Paginate[T any](items []T, total int64, p Page) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{Data: items, Total: total, Page: p.Page, PerPage: p.PerPage}
}
