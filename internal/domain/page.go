package domain

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// Page is one page of a list response.
type Page[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageMeta `json:"pagination"`
}
