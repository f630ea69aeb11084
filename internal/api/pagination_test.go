package api

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  pageRequest
	}{
		{"", pageRequest{1, defaultPageSize}},
		{"?page=3&limit=50", pageRequest{3, 50}},
		{"?page=-1&limit=x", pageRequest{1, defaultPageSize}},
		{"?limit=5000", pageRequest{1, maxPageSize}},
		{"?per_page=7&page=2", pageRequest{2, 7}},
	}
	for _, tt := range tests {
		got := parsePage(httptest.NewRequest("GET", "/api/vouchers"+tt.query, nil))
		assert.Equal(t, tt.want, got, tt.query)
	}
	assert.Equal(t, 100, pageRequest{3, 50}.Offset())
}

func TestParsePage_ClampsHugePage(t *testing.T) {
	for _, q := range []string{"?page=9223372036854775807&limit=200", "?page=2147483647", "?page=99999999999999999999"} {
		p := parsePage(httptest.NewRequest("GET", "/api/vouchers"+q, nil))
		assert.GreaterOrEqual(t, p.Offset(), 0, q)
		assert.LessOrEqual(t, p.Page*p.Limit, math.MaxInt32, q)
	}
	p := parsePage(httptest.NewRequest("GET", "/api/vouchers?page=9223372036854775807&limit=200", nil))
	assert.Equal(t, math.MaxInt32/200, p.Page)
}

func TestNewPage(t *testing.T) {
	p := newPage([]int{1, 2}, pageRequest{Page: 1, Limit: 2}, 5)
	assert.Equal(t, 3, p.Pagination.TotalPages)
	assert.True(t, p.Pagination.HasMore)

	empty := newPage[int](nil, pageRequest{Page: 1, Limit: 20}, 0)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 1, empty.Pagination.TotalPages)
	assert.False(t, empty.Pagination.HasMore)
}
