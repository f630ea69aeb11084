package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/ignite/voucher-console/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// pageRequest is the 1-based page and size asked for by a list request.
type pageRequest struct {
	Page  int
	Limit int
}

func (p pageRequest) Offset() int { return (p.Page - 1) * p.Limit }

// parsePage reads ?page= and ?limit= (or ?per_page=). Missing or invalid
// values fall back to the first page of defaultPageSize. Limits above
// maxPageSize are clamped, and so are pages whose end would pass
// math.MaxInt32 rows.
func parsePage(r *http.Request) pageRequest {
	q := r.URL.Query()
	p := pageRequest{Page: atoiOr(q.Get("page"), 1), Limit: atoiOr(q.Get("limit"), 0)}
	if p.Limit == 0 {
		p.Limit = atoiOr(q.Get("per_page"), defaultPageSize)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit < 1:
		p.Limit = defaultPageSize
	case p.Limit > maxPageSize:
		p.Limit = maxPageSize
	}
	if last := math.MaxInt32 / p.Limit; p.Page > last {
		p.Page = last
	}
	return p
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// newPage wraps one page of rows in the list envelope.
func newPage[T any](rows []T, p pageRequest, total int) domain.Page[T] {
	if rows == nil {
		rows = []T{}
	}
	pages := (total + p.Limit - 1) / p.Limit
	if pages < 1 {
		pages = 1
	}
	return domain.Page[T]{
		Data: rows,
		Pagination: domain.PageMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      int64(total),
			TotalPages: pages,
			HasMore:    p.Page < pages,
		},
	}
}
