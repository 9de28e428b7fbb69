package db

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"resource-system/pkg/types"
)

// ApplyFilters adds WHERE clauses for whitelisted filter[...] keys.
// Comma-separated values become IN lists.
func ApplyFilters(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string) sq.SelectBuilder {
	for field, val := range filter.Filter {
		dbCol, ok := allowedMap[field]
		if !ok || val == "" {
			continue
		}
		if strings.Contains(val, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(val, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}
	return builder
}

// ApplySearch matches the search term against the given columns with ILIKE.
func ApplySearch(builder sq.SelectBuilder, search string, columns ...string) sq.SelectBuilder {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return builder
	}
	pattern := "%" + search + "%"
	or := sq.Or{}
	for _, col := range columns {
		or = append(or, sq.ILike{col: pattern})
	}
	return builder.Where(or)
}

// ApplyListParams applies sorting and pagination. Filters are applied separately
// so the same conditions can feed the count query.
func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string, defaultOrder string) sq.SelectBuilder {
	sorted := false
	for field, dir := range filter.Sort {
		dbCol, ok := allowedMap[field]
		if !ok {
			continue
		}
		sqlDir := "ASC"
		if strings.ToLower(dir) == "desc" {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
		sorted = true
	}
	if !sorted && defaultOrder != "" {
		builder = builder.OrderBy(defaultOrder)
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}
	return builder
}
