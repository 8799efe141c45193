package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	q := ListQuery{}
	require.NoError(t, q.Normalize("createdAt", "name"))

	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, OrderDesc, q.Order)
	assert.Equal(t, "createdAt", q.Sort)
	assert.True(t, q.Paginated())
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		q    ListQuery
	}{
		{"negative page", ListQuery{Page: -1}},
		{"limit too large", ListQuery{Limit: MaxLimit + 1}},
		{"bad order", ListQuery{Order: "sideways"}},
		{"unknown sort", ListQuery{Sort: "secretKey"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Normalize("createdAt", "name")
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestNormalizeLowercaseOrder(t *testing.T) {
	q := ListQuery{Order: "asc", Search: "  acme "}
	require.NoError(t, q.Normalize())
	assert.Equal(t, OrderAsc, q.Order)
	assert.Equal(t, "acme", q.Search)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := Paginate(items, ListQuery{Page: 2, Limit: 2})
	assert.Equal(t, []int{3, 4}, page.Data)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	page = Paginate(items, ListQuery{Page: 9, Limit: 2})
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)

	off := false
	page = Paginate(items, ListQuery{Page: 3, Limit: 2, Paginate: &off})
	assert.Equal(t, items, page.Data)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate[string](nil, ListQuery{Page: 1, Limit: 20})
	assert.NotNil(t, page.Data)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.TotalPages)
}
