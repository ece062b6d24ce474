// Package paging holds the offset/limit window of a list and a generic
// fetcher that keeps the window, the loaded items and the search filter
// consistent across refreshes.
package paging

// Window is the slice of a list currently displayed.
type Window struct {
	Offset     int
	Limit      int
	TotalCount int
}

// TotalPages is ceil(TotalCount/Limit), and 1 for an empty list or a
// zero limit so the pager never shows zero pages.
func (w Window) TotalPages() int {
	if w.TotalCount <= 0 || w.Limit <= 0 {
		return 1
	}
	return (w.TotalCount + w.Limit - 1) / w.Limit
}

// Page returns the 1-based page the window points at.
func (w Window) Page() int {
	if w.Limit <= 0 {
		return 1
	}
	return w.Offset/w.Limit + 1
}

// Contains reports whether page is a valid 1-based page number.
func (w Window) Contains(page int) bool {
	return page >= 1 && page <= w.TotalPages()
}

// OffsetOf returns the offset of a 1-based page.
func (w Window) OffsetOf(page int) int {
	if w.Limit <= 0 || page <= 1 {
		return 0
	}
	return (page - 1) * w.Limit
}

// Clamp pulls Offset back onto the last page when TotalCount has shrunk
// below it, and onto a page boundary.
func (w Window) Clamp() Window {
	if w.Offset < 0 || w.Limit <= 0 {
		w.Offset = 0
		return w
	}
	w.Offset -= w.Offset % w.Limit
	if w.TotalCount > 0 && w.Offset >= w.TotalCount {
		w.Offset = w.OffsetOf(w.TotalPages())
	}
	if w.TotalCount <= 0 {
		w.Offset = 0
	}
	return w
}
