package search

// Paginate slices items into a zero-based page. totalPages is at least 1 even
// for empty input so a "page 1 of 1, no results" state is representable.
// A pageIndex past the last page yields an empty page, never an error.
func Paginate[T any](items []T, pageSize, pageIndex int) (pageItems []T, totalPages int) {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages = (len(items) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	// Bounds-check the index itself; multiplying first can overflow for
	// absurd page numbers and wrap into the valid range.
	if pageIndex < 0 || pageIndex >= totalPages {
		return []T{}, totalPages
	}
	start := pageIndex * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
