package utils

import (
	"net/url"
	"strconv"
	"strings"

	"resource-system/pkg/types"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ParseFilterFromQuery reads search, sort[field], filter[field], limit, page,
// offset and withPagination. Repeated filter keys are joined with commas.
func ParseFilterFromQuery(values url.Values) types.Filter {
	f := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]string),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if l, err := strconv.Atoi(values.Get("limit")); err == nil && l > 0 {
		if l > MaxLimit {
			l = MaxLimit
		}
		f.Limit = l
	}
	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		f.Page = p
	}
	if o, err := strconv.Atoi(values.Get("offset")); err == nil && o >= 0 {
		f.Offset = o
	} else {
		f.Offset = (f.Page - 1) * f.Limit
	}
	f.WithPagination, _ = strconv.ParseBool(values.Get("withPagination"))

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		switch {
		case key == "search":
			f.Search = vals[0]
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			dir := strings.ToLower(vals[0])
			if dir == "asc" || dir == "desc" {
				f.Sort[key[5:len(key)-1]] = dir
			}
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			f.Filter[key[7:len(key)-1]] = strings.Join(vals, ",")
		}
	}
	return f
}

// ApplyPlainFilters copies plain ?key=value params for the given keys into
// f.Filter. An explicit filter[key] keeps precedence.
func ApplyPlainFilters(values url.Values, f *types.Filter, keys ...string) {
	if f.Filter == nil {
		f.Filter = make(map[string]string)
	}
	for _, key := range keys {
		if _, ok := f.Filter[key]; ok {
			continue
		}
		if vals := values[key]; len(vals) > 0 && vals[0] != "" {
			f.Filter[key] = strings.Join(vals, ",")
		}
	}
}
