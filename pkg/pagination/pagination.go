package pagination

import "math"

// Offset returns the zero-based row offset for page at the given page size.
// Invalid inputs resolve to the first row. Offsets past math.MaxInt saturate.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// LastPage returns how many pages total rows span at perPage rows each.
// An empty or unsized result still has one page.
func LastPage(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// Window returns the half-open row range [start, end) the page covers within
// a result of total rows. start == end when the page lies past the end.
func Window(page, limit, total int) (start, end int) {
	start = min(Offset(page, limit), max(total, 0))
	end = min(start+max(limit, 0), max(total, 0))
	return start, end
}
