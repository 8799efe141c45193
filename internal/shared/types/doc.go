// Package types provides list query and pagination types shared by the
// website and lead managers.
//
// Listing endpoints accept page, limit, sort, order, search and
// isPagination query parameters and answer with a Page:
//
//	{"data": [...], "total": 42, "page": 2, "limit": 20, "totalPages": 3}
//
// With isPagination=false every matching row is returned on page 1.
package types
