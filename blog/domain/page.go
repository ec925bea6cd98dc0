package domain

import "math"

// DefaultPageSize is the number of posts listed per index page.
const DefaultPageSize = 20

// PageRequest selects a 1-based page of a listing.
type PageRequest struct {
	Page    int
	PerPage int
}

func (p PageRequest) Limit() int {
	if p.PerPage < 1 {
		return DefaultPageSize
	}
	return p.PerPage
}

func (p PageRequest) Number() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// Offset saturates at math.MaxInt for page numbers too large to address.
func (p PageRequest) Offset() int {
	return offset(p.Number(), p.Limit())
}

func offset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// Page is one slice of a listing together with the metadata needed to walk it.
type Page[T any] struct {
	Items       []T
	TotalItems  int
	CurrentPage int
	PerPage     int
}

func (p Page[T]) LastPage() int {
	if p.PerPage == 0 || p.TotalItems == 0 {
		return 1
	}
	return (p.TotalItems + p.PerPage - 1) / p.PerPage
}

// From returns the 1-based position of the first item on the page, or 0 when empty.
func (p Page[T]) From() int {
	if len(p.Items) == 0 {
		return 0
	}
	start := offset(p.CurrentPage, p.PerPage)
	if start > math.MaxInt-len(p.Items) {
		return 0
	}
	return start + 1
}

// To returns the 1-based position of the last item on the page, or 0 when empty.
func (p Page[T]) To() int {
	from := p.From()
	if from == 0 {
		return 0
	}
	return from + len(p.Items) - 1
}
