package views

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/list"
	"github.com/charmbracelet/log"
	"github.com/deevus/ragdeck-tui/internal/clock"
	"github.com/deevus/ragdeck-tui/page"
	"github.com/deevus/ragdeck-tui/paging"
	"github.com/deevus/ragdeck-tui/realtime"
	"github.com/deevus/ragdeck-tui/refresh"
	"github.com/deevus/ragdeck-tui/widgets"
	"github.com/dustin/go-humanize"
)

const (
	defaultPageSize = 10
	listTarget      = "list"
	colGap          = 2
)

// Options carries the settings every page shares.
type Options struct {
	StaleTTL         time.Duration
	PageSize         int
	PollInterval     time.Duration
	SearchDebounce   time.Duration
	HeartbeatTimeout time.Duration

	// Owner and Events open a push channel for pages that follow status
	// events. Either left empty keeps the page on polling.
	Owner  string
	Events realtime.Transport

	Clock     clock.Clock
	Logger    *log.Logger
	PostEvent func(vaxis.Event)
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

func (o Options) post(ev vaxis.Event) {
	if o.PostEvent != nil {
		o.PostEvent(ev)
	}
}

// Column is one column of a list view.
type Column[T any] struct {
	Title string
	widgets.TableColumn
	Value func(T) string
}

type listConfig[T any] struct {
	tab     int
	noun    string
	columns []Column[T]
	load    paging.LoadFunc[T]
	// id identifies items for status matching. Nil disables the push
	// channel for the page.
	id func(T) string
	// open builds the event posted on Enter. Nil disables it.
	open func(T) vaxis.Event
	// poll re-fetches the page every PollInterval.
	poll bool
}

// ListView is a paginated, searchable table of T backed by a
// paging.Fetcher and driven by a page.Controller.
type ListView[T any] struct {
	opts    Options
	tab     int
	noun    string
	columns []Column[T]
	id      func(T) string
	open    func(T) vaxis.Event

	ctl     *page.Controller
	fetcher *paging.Fetcher[T]

	mu       sync.Mutex
	loadedAt time.Time
	err      error

	list   list.Dynamic
	search searchBox
}

func newListView[T any](cfg listConfig[T], opts Options) *ListView[T] {
	opts = opts.withDefaults()
	lv := &ListView[T]{
		opts:    opts,
		tab:     cfg.tab,
		noun:    cfg.noun,
		columns: cfg.columns,
		id:      cfg.id,
		open:    cfg.open,
	}

	pp := page.Params{
		Match:            lv.visible,
		Clock:            opts.Clock,
		Logger:           opts.Logger.With("page", cfg.noun),
		PollInterval:     opts.PollInterval,
		SearchDebounce:   opts.SearchDebounce,
		HeartbeatTimeout: opts.HeartbeatTimeout,
		StatusTargets:    []string{listTarget},
		OnState: func(st realtime.State) {
			opts.post(ChannelChanged{State: st})
		},
	}
	if cfg.id != nil {
		pp.OwnerID = opts.Owner
		pp.Transport = opts.Events
	}
	if cfg.poll {
		pp.PollTargets = []string{listTarget}
	}
	lv.ctl = page.New(pp)
	lv.fetcher = paging.New(paging.Params[T]{
		Target:    listTarget,
		Limit:     opts.PageSize,
		Load:      cfg.load,
		Requester: lv.ctl.Coordinator(),
	})
	lv.ctl.Register(listTarget, lv.tracked)

	lv.list.Builder = lv.buildItem
	return lv
}

// fetch loads the current page. The returned commit applies it and
// stamps the load time.
func (lv *ListView[T]) fetch(ctx context.Context, mode refresh.Mode) (refresh.Commit, error) {
	commit, err := lv.fetcher.Fetch(ctx, mode)
	if err != nil {
		lv.mu.Lock()
		lv.err = err
		lv.mu.Unlock()
		return nil, err
	}
	return func() {
		commit()
		lv.mu.Lock()
		lv.loadedAt = lv.opts.Clock.Now()
		lv.err = nil
		lv.mu.Unlock()
	}, nil
}

// tracked is fetch as registered with the coordinator: completions are
// announced to the UI loop.
func (lv *ListView[T]) tracked(ctx context.Context, mode refresh.Mode) (refresh.Commit, error) {
	commit, err := lv.fetch(ctx, mode)
	if err != nil {
		lv.opts.post(ViewLoaded{Tab: lv.tab, Err: err})
		return nil, err
	}
	return func() {
		commit()
		lv.opts.post(ViewLoaded{Tab: lv.tab})
	}, nil
}

// visible matches status events against the rows on screen.
func (lv *ListView[T]) visible(subjectID string) bool {
	if lv.id == nil {
		return false
	}
	for _, item := range lv.fetcher.Items() {
		if lv.id(item) == subjectID {
			return true
		}
	}
	return false
}

// Load fetches the current page through the coordinator and waits for
// it. If a fetch is already in flight, Load leaves it to finish and
// returns nil.
func (lv *ListView[T]) Load(ctx context.Context) error {
	return lv.ctl.Refresh(ctx)
}

// Mount starts the page: first fetch, push channel and polling.
func (lv *ListView[T]) Mount() {
	lv.ctl.Mount()
}

// Unmount stops the page for good.
func (lv *ListView[T]) Unmount() {
	lv.ctl.Unmount()
}

// Refresh re-fetches the current page in the background of the UI loop;
// a ViewLoaded is posted when it lands.
func (lv *ListView[T]) Refresh() bool {
	return lv.ctl.Trigger(listTarget, refresh.Foreground)
}

// Reopen re-opens the push channel after it gave up.
func (lv *ListView[T]) Reopen() {
	lv.ctl.Reopen()
}

// ChannelState returns the push channel state.
func (lv *ListView[T]) ChannelState() realtime.State {
	return lv.ctl.ChannelState()
}

// Wait blocks until outstanding fetches have returned.
func (lv *ListView[T]) Wait() {
	lv.ctl.Wait()
}

// Loaded reports whether a page has been fetched.
func (lv *ListView[T]) Loaded() bool {
	return lv.fetcher.Loaded()
}

// Stale reports whether the data is missing or older than StaleTTL.
func (lv *ListView[T]) Stale() bool {
	if !lv.Loaded() {
		return true
	}
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.opts.Clock.Now().Sub(lv.loadedAt) > lv.opts.StaleTTL
}

// Err returns the last fetch error, cleared by the next success.
func (lv *ListView[T]) Err() error {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.err
}

// Items returns the loaded page.
func (lv *ListView[T]) Items() []T {
	return lv.fetcher.Items()
}

// ItemCount returns the number of rows on the loaded page.
func (lv *ListView[T]) ItemCount() int {
	return len(lv.fetcher.Items())
}

// Window returns the paging window.
func (lv *ListView[T]) Window() paging.Window {
	return lv.fetcher.Window()
}

// Query returns the search text being edited or applied.
func (lv *ListView[T]) Query() string {
	return lv.search.query
}

// Capturing reports whether the view is taking raw text input, so
// global key bindings must stand aside.
func (lv *ListView[T]) Capturing() bool {
	return lv.search.editing
}

// Selected returns the item under the cursor.
func (lv *ListView[T]) Selected() (T, bool) {
	return lv.fetcher.Item(int(lv.list.Cursor()))
}

// NextPage and PrevPage move the window; a fetch follows.
func (lv *ListView[T]) NextPage() bool {
	if !lv.fetcher.Next() {
		return false
	}
	lv.resetCursor()
	return true
}

func (lv *ListView[T]) PrevPage() bool {
	if !lv.fetcher.Prev() {
		return false
	}
	lv.resetCursor()
	return true
}

func (lv *ListView[T]) resetCursor() {
	lv.list = list.Dynamic{Builder: lv.buildItem}
}

func (lv *ListView[T]) tableColumns() []widgets.TableColumn {
	cols := make([]widgets.TableColumn, len(lv.columns))
	for i, c := range lv.columns {
		cols[i] = c.TableColumn
	}
	return cols
}

func (lv *ListView[T]) buildItem(i uint, cursor uint) vxfw.Widget {
	item, ok := lv.fetcher.Item(int(i))
	if !ok {
		return nil
	}
	cells := make([]string, len(lv.columns))
	for c, col := range lv.columns {
		cells[c] = col.Value(item)
	}
	return &widgets.Row{
		Columns:  lv.tableColumns(),
		Cells:    cells,
		Gap:      colGap,
		Selected: i == cursor,
	}
}

func (lv *ListView[T]) statusLine() *widgets.StatusLine {
	w := lv.fetcher.Window()
	sl := &widgets.StatusLine{
		Right: fmt.Sprintf("page %d/%d  %s %s", w.Page(), w.TotalPages(), humanize.Comma(int64(w.TotalCount)), lv.noun),
	}
	sl.Segments = append(sl.Segments, widgets.Segment{Text: lv.search.label(), Style: vaxis.Style{Foreground: vaxis.IndexColor(6)}})
	if lv.fetcher.Loading() {
		sl.Segments = append(sl.Segments, widgets.Segment{Text: "loading…", Style: vaxis.Style{Attribute: vaxis.AttrDim}})
	}
	if err := lv.Err(); err != nil {
		sl.Segments = append(sl.Segments, widgets.Segment{Text: err.Error(), Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}})
	}
	return sl
}

// Draw renders the column header, the page of rows and a status line.
func (lv *ListView[T]) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	if !lv.Loaded() {
		if err := lv.Err(); err != nil {
			return drawErrorState(ctx, lv, err)
		}
		return drawLoadingState(ctx, lv)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, lv)
	if ctx.Max.Height < 3 {
		return s, nil
	}

	titles := make([]string, len(lv.columns))
	for i, c := range lv.columns {
		titles[i] = c.Title
	}
	header := &widgets.Table{Columns: lv.tableColumns(), Header: titles, Gap: colGap}
	headerSurf, err := header.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, headerSurf)

	listCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 2})
	listSurf, err := lv.list.Draw(listCtx)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 1, listSurf)

	statusSurf, err := lv.statusLine().Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, int(ctx.Max.Height)-1, statusSurf)

	return s, nil
}

// HandleEvent handles search editing, paging and Enter, and delegates
// cursor movement to the list widget.
func (lv *ListView[T]) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return lv.list.HandleEvent(ev, phase)
	}

	if changed, consumed := lv.search.handle(key); consumed {
		if changed {
			lv.resetCursor()
			lv.ctl.Search(lv.search.query, func(q string) { lv.fetcher.SetSearch(q) })
		}
		return vxfw.ConsumeAndRedraw(), nil
	}

	switch {
	case key.Matches('n'), key.Matches(vaxis.KeyRight):
		lv.NextPage()
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('p'), key.Matches(vaxis.KeyLeft):
		lv.PrevPage()
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches(vaxis.KeyEnter):
		if lv.open == nil {
			return nil, nil
		}
		if item, ok := lv.Selected(); ok {
			lv.opts.post(lv.open(item))
			return vxfw.ConsumeAndRedraw(), nil
		}
		return nil, nil
	}
	return lv.list.HandleEvent(ev, phase)
}
