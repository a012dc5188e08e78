package pagination

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalCount int    `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	Links      []Link `json:"links,omitempty"`
}

// Link is a single entry in a windowed page-link strip. Ellipsis entries have
// no page number.
type Link struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// windowRadius is the number of pages shown on each side of the current page
// when the strip is truncated.
const windowRadius = 2

// maxPlainPages is the largest page count rendered without truncation.
const maxPlainPages = 5

// New computes pagination metadata for a 1-based page over total items. The
// page value is reported as given; clamping is the data source's concern.
func New(page, pageSize, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
		HasPrev:    page > 1 && totalPages > 0,
		HasNext:    totalPages > 0 && page < totalPages,
		Links:      Links(page, totalPages),
	}
}

// Links returns the windowed page-link strip for a current/last page pair.
//
// With last <= 5 every page is listed. Otherwise a window of current±2 is
// clamped to [1,last]; page 1 is prepended (with an ellipsis when the window
// starts past 2) and the last page appended (with an ellipsis when the window
// ends before last-1). An empty result set yields no links at all.
func Links(current, last int) []Link {
	if last <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > last {
		current = last
	}

	if last <= maxPlainPages {
		links := make([]Link, 0, last)
		for p := 1; p <= last; p++ {
			links = append(links, Link{Page: p, Current: p == current})
		}
		return links
	}

	start := current - windowRadius
	if start < 1 {
		start = 1
	}
	end := current + windowRadius
	if end > last {
		end = last
	}

	links := make([]Link, 0, end-start+5)
	if start > 1 {
		links = append(links, Link{Page: 1, Current: current == 1})
		if start > 2 {
			links = append(links, Link{Ellipsis: true})
		}
	}
	for p := start; p <= end; p++ {
		links = append(links, Link{Page: p, Current: p == current})
	}
	if end < last {
		if end < last-1 {
			links = append(links, Link{Ellipsis: true})
		}
		links = append(links, Link{Page: last, Current: current == last})
	}
	return links
}
