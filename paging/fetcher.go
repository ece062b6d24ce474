package paging

import (
	"context"
	"sync"

	"github.com/deevus/ragdeck-tui/refresh"
)

// Result is one page returned by a LoadFunc.
type Result[T any] struct {
	Items      []T
	TotalCount int
}

// LoadFunc fetches limit items starting at offset, filtered by search.
type LoadFunc[T any] func(ctx context.Context, offset, limit int, search string) (Result[T], error)

// Requester is the part of the refresh coordinator a Fetcher needs.
type Requester interface {
	Request(name string, mode refresh.Mode) bool
}

// Params configures a Fetcher.
type Params[T any] struct {
	// Target is the coordinator target the Fetcher's Fetch is registered
	// under.
	Target    string
	Limit     int
	Load      LoadFunc[T]
	Requester Requester
}

// Fetcher owns one paginated list.
type Fetcher[T any] struct {
	target string
	load   LoadFunc[T]
	req    Requester

	mu      sync.Mutex
	window  Window
	search  string
	items   []T
	loaded  bool
	loading bool
}

// New returns a Fetcher at the first page.
func New[T any](p Params[T]) *Fetcher[T] {
	return &Fetcher[T]{
		target: p.Target,
		load:   p.Load,
		req:    p.Requester,
		window: Window{Limit: p.Limit},
	}
}

// Target returns the coordinator target name.
func (f *Fetcher[T]) Target() string {
	return f.target
}

// Window returns the current window.
func (f *Fetcher[T]) Window() Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.window
}

// TotalPages returns the page count of the current window.
func (f *Fetcher[T]) TotalPages() int {
	return f.Window().TotalPages()
}

// Items returns a copy of the loaded page.
func (f *Fetcher[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// Item returns the i-th item of the loaded page.
func (f *Fetcher[T]) Item(i int) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	if i < 0 || i >= len(f.items) {
		return zero, false
	}
	return f.items[i], true
}

// Search returns the active search filter.
func (f *Fetcher[T]) Search() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.search
}

// Loaded reports whether a page has been committed.
func (f *Fetcher[T]) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Loading reports whether a foreground fetch is outstanding.
func (f *Fetcher[T]) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// GoTo moves to a 1-based page and requests a fetch. Pages outside
// [1, TotalPages] are rejected without touching the window.
func (f *Fetcher[T]) GoTo(page int) bool {
	f.mu.Lock()
	if !f.window.Contains(page) {
		f.mu.Unlock()
		return false
	}
	f.window.Offset = f.window.OffsetOf(page)
	f.mu.Unlock()

	f.request(refresh.Foreground)
	return true
}

// Next moves one page forward.
func (f *Fetcher[T]) Next() bool {
	return f.GoTo(f.Window().Page() + 1)
}

// Prev moves one page back.
func (f *Fetcher[T]) Prev() bool {
	return f.GoTo(f.Window().Page() - 1)
}

// SetSearch changes the filter, resets to the first page and requests a
// fetch. It reports false if the filter did not change.
func (f *Fetcher[T]) SetSearch(q string) bool {
	f.mu.Lock()
	if q == f.search {
		f.mu.Unlock()
		return false
	}
	f.search = q
	f.window.Offset = 0
	f.mu.Unlock()

	f.request(refresh.Foreground)
	return true
}

// Removed records that n items were deleted server-side: the total
// shrinks, the window is re-clamped so it never points past the end, and
// the page is re-fetched.
func (f *Fetcher[T]) Removed(n int) {
	f.mu.Lock()
	f.window.TotalCount = max(f.window.TotalCount-n, 0)
	f.window = f.window.Clamp()
	f.mu.Unlock()

	f.request(refresh.Foreground)
}

// Fetch loads the current window. It is the refresh.FetchFunc for the
// Fetcher's target. Results for a window or filter that changed while
// the request was out are dropped; the change has its own follow-up.
func (f *Fetcher[T]) Fetch(ctx context.Context, mode refresh.Mode) (refresh.Commit, error) {
	f.mu.Lock()
	w := f.window
	search := f.search
	if mode == refresh.Foreground {
		f.loading = true
	}
	f.mu.Unlock()

	res, err := f.load(ctx, w.Offset, w.Limit, search)
	if err != nil {
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
		return nil, err
	}

	return func() {
		f.mu.Lock()
		if f.window.Offset != w.Offset || f.search != search {
			f.mu.Unlock()
			return
		}
		f.loading = false
		f.loaded = true
		f.items = res.Items
		f.window.TotalCount = res.TotalCount
		clamped := f.window.Clamp()
		moved := clamped.Offset != f.window.Offset
		f.window = clamped
		f.mu.Unlock()

		if moved {
			f.request(mode)
		}
	}, nil
}

func (f *Fetcher[T]) request(mode refresh.Mode) {
	if f.req != nil {
		f.req.Request(f.target, mode)
	}
}
