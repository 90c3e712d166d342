package entity

// Intent listings are paged newest first.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is a page request for an account's payment intents.
type PaginationParams struct {
	Page  int `json:"page" query:"page"`
	Limit int `json:"limit" query:"limit"`
}

// Normalized returns p with a page of at least 1 and a limit in
// [1, MaxPageSize]. A missing limit becomes DefaultPageSize.
func (p PaginationParams) Normalized() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	return p
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// PaginatedIntentsResponse is the body of GET /api/v1/intents.
type PaginatedIntentsResponse struct {
	Data       []*PaymentIntent `json:"data"`
	Pagination PaginationMeta   `json:"pagination"`
}

func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	meta := PaginationMeta{CurrentPage: page, PerPage: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return meta
}
