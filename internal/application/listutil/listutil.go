package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Paging limits for list endpoints.
const (
	DefaultPerPage = 25
	MaxPerPage     = 200
)

// PageParams is the requested page of a list endpoint.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// SortParams names the sort column and direction.
type SortParams struct {
	Sort string // one of the endpoint's sort columns, or "" for its default order
	Dir  string // "asc" or "desc"
}

// FilterParams carries the free-text search and exact-match filters.
type FilterParams struct {
	Search  string
	Filters map[string]string
}

// ListParams combines paging, sorting and filtering of one list request.
type ListParams struct {
	PageParams
	SortParams
	FilterParams
}

// PageInfo is the paging block returned with every list response.
// NextPage is 0 on the last page.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	NextPage   int
}

// ParsePageParams reads page and per_page.
// POST: Page >= 1; 1 <= PerPage <= MaxPerPage, DefaultPerPage when absent or invalid
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	switch {
	case err != nil || perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams reads sort, where a leading "-" selects descending order
// (sort=-joined). An explicit dir=asc|desc wins over the prefix.
// POST: Sort is in allowed or ""; Dir is "asc" or "desc"
func ParseSortParams(q url.Values, allowed []string) SortParams {
	col, dir := q.Get("sort"), "asc"
	if rest, ok := strings.CutPrefix(col, "-"); ok {
		col, dir = rest, "desc"
	}
	if d := q.Get("dir"); d == "asc" || d == "desc" {
		dir = d
	}
	if !slices.Contains(allowed, col) {
		col = ""
	}
	return SortParams{Sort: col, Dir: dir}
}

// ParseFilterParams reads q and the named filters. Unknown keys are ignored.
func ParseFilterParams(q url.Values, filterKeys []string) FilterParams {
	fp := FilterParams{
		Search:  strings.TrimSpace(q.Get("q")),
		Filters: make(map[string]string),
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			fp.Filters[key] = v
		}
	}
	return fp
}

// ParseListParams parses paging, sorting and filters in one go.
func ParseListParams(q url.Values, sortColumns, filterKeys []string) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		SortParams:   ParseSortParams(q, sortColumns),
		FilterParams: ParseFilterParams(q, filterKeys),
	}
}

// SplitValues reads a comma-separated filter (status=pending,approved),
// trimming entries and dropping blanks. Repeated keys are merged.
func SplitValues(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// NewPageInfo computes the paging block for total matching rows.
// POST: 1 <= Page <= TotalPages; TotalPages >= 1
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	info := PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
	if page < totalPages {
		info.NextPage = page + 1
	}
	return info
}

// Offset returns the SQL OFFSET of the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}
