package model

// Page selects a window of a list.
type Page struct {
	Page  int
	Limit int
}

// MaxPageLimit caps the page size accepted from clients.
const MaxPageLimit = 100

// NewPage clamps page and limit, falling back to defaultLimit.
func NewPage(page, limit, defaultLimit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageInfo describes a page of results.
type PageInfo struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Info builds the pagination block for total matching rows.
func (p Page) Info(total int) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}
