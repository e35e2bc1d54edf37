package audit

const (
	// MaxPageSize is the largest page a request may ask for.
	MaxPageSize = 50
	// DefaultPageSize is used by clients that don't choose one.
	DefaultPageSize = 10
)

// ClampPageSize clamps size to [1, MaxPageSize].
func ClampPageSize(size int) int {
	return max(1, min(size, MaxPageSize))
}

// Bounds returns the half-open index range [start, end) of all that page
// covers once reversed, for a log of total entries. page is clamped to >= 0
// and size to [1, MaxPageSize].
func Bounds(total, page, size int) (start, end int) {
	page = max(page, 0)
	size = ClampPageSize(size)
	end = max(0, total-page*size)
	start = max(0, total-(page+1)*size)
	return start, end
}

// Paginate returns one page of all, newest first. all is in append order, so
// page 0 starts with the last element. Total is always len(all).
func Paginate(all []Record, page, size int) PageResponse {
	page = max(page, 0)
	size = ClampPageSize(size)
	start, end := Bounds(len(all), page, size)

	records := make([]Record, 0, end-start)
	for i := end - 1; i >= start; i-- {
		records = append(records, all[i])
	}
	return PageResponse{
		Page:     page,
		PageSize: size,
		Total:    len(all),
		Records:  records,
	}
}
