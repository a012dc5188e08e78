package client

import (
	"fmt"
	"strings"
)

// ListQuery is the full parameter set for a paginated list fetch. It is a
// value: any change produces a new instance, and equality of Key decides
// whether a new fetch is required.
type ListQuery struct {
	Page     int
	PerPage  int
	Search   string
	Category *string
	Approved *bool
}

// Normalize clamps page and page size to their minimums and trims search
// whitespace, so the normalized value and its Key agree exactly.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Key renders the canonical cache key for this query value. Two queries that
// compare equal by value always yield the same key.
func (q ListQuery) Key() string {
	category := "-"
	if q.Category != nil {
		category = *q.Category
	}
	approved := "-"
	if q.Approved != nil {
		approved = fmt.Sprintf("%t", *q.Approved)
	}
	return fmt.Sprintf("p%d:s%d:q%s:c%s:a%s",
		q.Page, q.PerPage, q.Search, category, approved)
}

// WithPage returns a copy pointing at another page.
func (q ListQuery) WithPage(page int) ListQuery {
	q.Page = page
	return q
}

// WithSearch returns a copy with committed search text. Committing a search
// always returns to the first page.
func (q ListQuery) WithSearch(text string) ListQuery {
	q.Search = text
	q.Page = 1
	return q
}
