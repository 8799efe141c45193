package types

import (
	"errors"
	"fmt"
	"strings"
)

// Order is a sort direction
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 500
)

// ErrInvalidQuery marks a malformed list query
var ErrInvalidQuery = errors.New("invalid list query")

// ListQuery holds the common listing parameters
type ListQuery struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Sort     string `form:"sort"`
	Order    Order  `form:"order"`
	Search   string `form:"search"`
	Paginate *bool  `form:"isPagination"`
}

// Normalize fills defaults and validates the query. sortable lists the
// accepted sort keys; the first one is the default.
func (q *ListQuery) Normalize(sortable ...string) error {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidQuery)
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, MaxLimit)
	}

	switch Order(strings.ToUpper(string(q.Order))) {
	case "", OrderDesc:
		q.Order = OrderDesc
	case OrderAsc:
		q.Order = OrderAsc
	default:
		return fmt.Errorf("%w: order must be ASC or DESC", ErrInvalidQuery)
	}

	q.Search = strings.TrimSpace(q.Search)
	q.Sort = strings.TrimSpace(q.Sort)
	if len(sortable) == 0 {
		return nil
	}
	if q.Sort == "" {
		q.Sort = sortable[0]
		return nil
	}
	for _, s := range sortable {
		if q.Sort == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, q.Sort)
}

// Paginated reports whether the query asks for a single page
func (q ListQuery) Paginated() bool {
	return q.Paginate == nil || *q.Paginate
}

// Page is one page of a listing
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices already filtered and sorted items according to q
func Paginate[T any](items []T, q ListQuery) Page[T] {
	total := len(items)
	if !q.Paginated() {
		if items == nil {
			items = []T{}
		}
		return Page[T]{Data: items, Total: total, Page: 1, Limit: total, TotalPages: 1}
	}

	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	data := make([]T, end-start)
	copy(data, items[start:end])
	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
}
