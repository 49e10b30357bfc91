// Package pagination computes page metadata and slices for list endpoints.
//
// Pages are 1-indexed. A page past the end yields an empty slice rather than an
// error, and the metadata still reports the requested page and size.
package pagination

import "math"

const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 500
)

// Info is the pagination envelope returned with every list response.
type Info struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// Page pairs a slice of items with its pagination metadata.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Pagination Info `json:"pagination"`
}

// New derives metadata for totalItems split into pages of pageSize.
func New(page, pageSize, totalItems int) Info {
	return Info{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(totalItems, pageSize),
		TotalItems: totalItems,
	}
}

// TotalPages returns ceil(totalItems/pageSize), or 0 for a non-positive size.
func TotalPages(totalItems, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Bounds returns the half-open [start, end) range of page within n items.
// ok is false when the page falls outside the item range or the inputs are
// not positive.
func Bounds(n, page, pageSize int) (start, end int, ok bool) {
	if page <= 0 || pageSize <= 0 {
		return 0, 0, false
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, 0, false
	}
	start = (page - 1) * pageSize
	if start >= n {
		return 0, 0, false
	}
	end = start + min(pageSize, n-start)
	return start, end, true
}

// Slice returns the items on the requested page. It never returns nil.
func Slice[T any](items []T, page, pageSize int) []T {
	start, end, ok := Bounds(len(items), page, pageSize)
	if !ok {
		return []T{}
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Paginate slices items and attaches metadata. Non-positive page or pageSize
// produce an empty page with zero total pages.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if page <= 0 || pageSize <= 0 {
		return Page[T]{Data: []T{}, Pagination: Info{Page: page, PageSize: pageSize, TotalItems: len(items)}}
	}
	return Page[T]{
		Data:       Slice(items, page, pageSize),
		Pagination: New(page, pageSize, len(items)),
	}
}

// Map converts the items of a page while keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Data))
	for i, item := range p.Data {
		out[i] = fn(item)
	}
	return Page[U]{Data: out, Pagination: p.Pagination}
}
