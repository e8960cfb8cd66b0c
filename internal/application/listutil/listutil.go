package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page     int // 1-indexed page number
	PageSize int // rows per page
}

// FilterParams carries the directory search text and status filter.
type FilterParams struct {
	Search string // free-text match against name or phone
	Status string // raw status value; callers normalise it
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PageSize   int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PageSize), at least 1
}

// DefaultPageSize is the number of members per page when the request does not say.
const DefaultPageSize = 8

// MaxPageSize bounds page_size so one request cannot pull the whole table.
const MaxPageSize = 100

// ParsePageParams extracts page and page_size from URL query values.
// PRE: none
// POST: Page >= 1; PageSize in [1, MaxPageSize], DefaultPageSize when missing or out of range
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(strings.TrimSpace(q.Get("page_size")))
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return PageParams{Page: page, PageSize: size}
}

// ParseFilterParams extracts q and status from URL query values.
func ParseFilterParams(q url.Values) FilterParams {
	return FilterParams{
		Search: strings.TrimSpace(q.Get("q")),
		Status: strings.TrimSpace(q.Get("status")),
	}
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, pageSize, total int) PageInfo {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// StartRow returns the 1-indexed first row number on the current page.
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// POST: Returns min(Offset+PageSize, Total)
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PageSize
	if end > p.Total {
		end = p.Total
	}
	return end
}

// PageNumbers returns at most 5 page numbers centred on the current page.
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := p.Page - maxButtons/2
	if start < 1 {
		start = 1
	}
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = end - maxButtons + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether there is more than one page.
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}
