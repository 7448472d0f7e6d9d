package shared

import (
	"net/http"
	"strconv"

	"staff/internal/domain/staff"
)

const MaxLimit = 500

// ParsePagination reads limit/offset query parameters. Invalid values fall
// back to the defaults; a zero defaultLimit means everything.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) staff.Page {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return staff.Page{Limit: limit, Offset: offset}
}
