package domain

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPageNumber keeps Offset from overflowing at the largest limit.
	MaxPageNumber = math.MaxInt / MaxPageLimit
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

type ListMetadata struct {
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	Limit       int  `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// ListResponse is the envelope returned by every paginated endpoint.
type ListResponse[T any] struct {
	Data     []T          `json:"data"`
	Metadata ListMetadata `json:"metadata"`
}

func NewListResponse[T any](data []T, total int, page Page) ListResponse[T] {
	page = page.Normalize()
	if data == nil {
		data = []T{}
	}
	totalPages := (total + page.Limit - 1) / page.Limit
	return ListResponse[T]{
		Data: data,
		Metadata: ListMetadata{
			TotalCount:  total,
			TotalPages:  totalPages,
			CurrentPage: page.Number,
			Limit:       page.Limit,
			HasNextPage: page.Number < totalPages,
			HasPrevPage: page.Number > 1,
		},
	}
}
