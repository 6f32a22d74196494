package crud

import (
	"net/url"
	"strconv"
)

var (
	defaultLimit = 20
	maxLimit     = 200
)

// SetLimits configures the pagination bounds used by ParsePage
func SetLimits(def, max int) {
	if def > 0 {
		defaultLimit = def
	}
	if max >= defaultLimit {
		maxLimit = max
	}
}

// Page is a limit/offset window
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit, offset and the 1-based page alternative.
// Out-of-range values are clamped rather than rejected.
func ParsePage(q url.Values) Page {
	limit := defaultLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	} else if q.Get("offset") == "" {
		if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 1 {
			offset = (p - 1) * limit
		}
	}

	return Page{Limit: limit, Offset: offset}
}

// ListResult is the envelope of paginated list endpoints
type ListResult struct {
	Data   interface{} `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
