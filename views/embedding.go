package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/list"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/lazycache"
	"github.com/deevus/ragdeck-tui/page"
	"github.com/deevus/ragdeck-tui/paging"
	"github.com/deevus/ragdeck-tui/realtime"
	"github.com/deevus/ragdeck-tui/refresh"
	"github.com/deevus/ragdeck-tui/widgets"
)

// Coordinator targets of the detail page.
const (
	TargetDetail  = "detail"
	TargetStats   = "stats"
	TargetRecords = "records"
)

const (
	sparkCapacity  = 120
	vectorPreview  = 8
	detailBarWidth = 24
)

// EmbeddingViewParams holds configuration for creating an EmbeddingView.
type EmbeddingViewParams struct {
	Service api.EmbeddingServiceAPI
	ID      string
	// Name is shown until the first fetch returns.
	Name            string
	VectorCacheSize int
	Options
}

// EmbeddingView is the detail page of one embedded dataset: job progress,
// throughput history and the paginated records, each refreshed when the
// push channel reports a change for this dataset.
type EmbeddingView struct {
	svc  api.EmbeddingServiceAPI
	id   string
	name string
	opts Options

	ctl     *page.Controller
	records *paging.Fetcher[api.Record]
	vectors *lazycache.Cache[string, *api.Vector]

	// ctx bounds vector fetches and deletes to the page's lifetime.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	detail     *api.EmbeddedDataset
	stats      *api.EmbeddingStats
	spark      *widgets.Sparkline
	lastStatus time.Time
	notice     Notice

	list          list.Dynamic
	search        searchBox
	pendingDelete string
}

// NewEmbeddingView creates the detail page for p.ID. Call Mount to start
// it and Unmount when leaving.
func NewEmbeddingView(p EmbeddingViewParams) *EmbeddingView {
	opts := p.Options.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	dv := &EmbeddingView{
		svc:    p.Service,
		id:     p.ID,
		name:   p.Name,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		spark:  widgets.NewSparkline(sparkCapacity),
	}

	dv.ctl = page.New(page.Params{
		OwnerID:          opts.Owner,
		Transport:        opts.Events,
		EntityID:         p.ID,
		Clock:            opts.Clock,
		Logger:           opts.Logger.With("page", "embedding", "id", p.ID),
		PollInterval:     opts.PollInterval,
		SearchDebounce:   opts.SearchDebounce,
		HeartbeatTimeout: opts.HeartbeatTimeout,
		StatusTargets:    []string{TargetDetail, TargetStats, TargetRecords},
		PollTargets:      []string{TargetStats},
		OnStatus: func(realtime.Event) {
			dv.mu.Lock()
			dv.lastStatus = opts.Clock.Now()
			dv.mu.Unlock()
		},
		OnState: func(st realtime.State) {
			opts.post(ChannelChanged{State: st})
		},
		OnError: func(target string, err error) {
			dv.setNotice(Notice{Text: fmt.Sprintf("%s: %v", target, err), Err: true})
		},
	})

	dv.records = paging.New(paging.Params[api.Record]{
		Target: TargetRecords,
		Limit:  opts.PageSize,
		Load: func(ctx context.Context, offset, limit int, search string) (paging.Result[api.Record], error) {
			resp, err := dv.svc.ListRecords(ctx, dv.id, api.ListParams{Offset: offset, Limit: limit, Search: search})
			if err != nil {
				return paging.Result[api.Record]{}, err
			}
			return paging.Result[api.Record]{Items: resp.Items, TotalCount: resp.TotalCount}, nil
		},
		Requester: dv.ctl.Coordinator(),
	})
	dv.vectors = lazycache.New(p.VectorCacheSize, func(ctx context.Context, recordID string) (*api.Vector, error) {
		return dv.svc.GetVector(ctx, dv.id, recordID)
	})

	dv.ctl.Register(TargetDetail, dv.fetchDetail)
	dv.ctl.Register(TargetStats, dv.fetchStats)
	dv.ctl.Register(TargetRecords, dv.notify(dv.records.Fetch))

	dv.list.Builder = dv.buildRecord
	return dv
}

// notify wraps a fetch so a committed result asks the UI to redraw.
func (dv *EmbeddingView) notify(fetch refresh.FetchFunc) refresh.FetchFunc {
	return func(ctx context.Context, mode refresh.Mode) (refresh.Commit, error) {
		commit, err := fetch(ctx, mode)
		if err != nil {
			return nil, err
		}
		return func() {
			commit()
			dv.opts.post(ViewUpdated{})
		}, nil
	}
}

func (dv *EmbeddingView) fetchDetail(ctx context.Context, mode refresh.Mode) (refresh.Commit, error) {
	d, err := dv.svc.GetEmbeddedDataset(ctx, dv.id)
	if err != nil {
		return nil, fmt.Errorf("embedded-datasets.get: %w", err)
	}
	return func() {
		dv.mu.Lock()
		dv.detail = d
		dv.mu.Unlock()
		dv.opts.post(ViewUpdated{})
	}, nil
}

func (dv *EmbeddingView) fetchStats(ctx context.Context, mode refresh.Mode) (refresh.Commit, error) {
	st, err := dv.svc.GetEmbeddingStats(ctx, dv.id)
	if err != nil {
		return nil, fmt.Errorf("embedded-datasets.stats: %w", err)
	}
	return func() {
		dv.mu.Lock()
		dv.stats = st
		if st != nil {
			dv.spark.Push(st.RecordsPerSecond)
		}
		dv.mu.Unlock()
		dv.opts.post(ViewUpdated{})
	}, nil
}

// ID returns the embedded dataset id.
func (dv *EmbeddingView) ID() string {
	return dv.id
}

// Name returns the dataset name, or the name it was opened with until
// the first fetch lands.
func (dv *EmbeddingView) Name() string {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	if dv.detail != nil {
		return dv.detail.Name
	}
	return dv.name
}

// Load fetches detail, stats and the first page of records, and waits.
func (dv *EmbeddingView) Load(ctx context.Context) error {
	return dv.ctl.Refresh(ctx)
}

// Mount starts the page: first fetch of every target, push channel and
// stats polling.
func (dv *EmbeddingView) Mount() {
	dv.ctl.Mount()
}

// Unmount closes the push channel, stops timers, discards in-flight
// results and drops cached vectors.
func (dv *EmbeddingView) Unmount() {
	dv.cancel()
	dv.ctl.Unmount()
	dv.vectors.Purge()
}

// Wait blocks until outstanding fetches have returned.
func (dv *EmbeddingView) Wait() {
	dv.ctl.Wait()
}

// Refresh re-fetches every target without waiting.
func (dv *EmbeddingView) Refresh() {
	for _, name := range []string{TargetDetail, TargetStats, TargetRecords} {
		dv.ctl.Trigger(name, refresh.Foreground)
	}
}

// Reopen re-opens the push channel after it gave up.
func (dv *EmbeddingView) Reopen() {
	dv.ctl.Reopen()
}

// ChannelState returns the push channel state.
func (dv *EmbeddingView) ChannelState() realtime.State {
	return dv.ctl.ChannelState()
}

// Loaded reports whether the dataset itself has been fetched.
func (dv *EmbeddingView) Loaded() bool {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	return dv.detail != nil
}

// Detail returns the last fetched dataset.
func (dv *EmbeddingView) Detail() *api.EmbeddedDataset {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	return dv.detail
}

// Stats returns the last fetched job stats.
func (dv *EmbeddingView) Stats() *api.EmbeddingStats {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	return dv.stats
}

// Records returns the loaded page of records.
func (dv *EmbeddingView) Records() []api.Record {
	return dv.records.Items()
}

// RecordWindow returns the paging window of the records table.
func (dv *EmbeddingView) RecordWindow() paging.Window {
	return dv.records.Window()
}

// Notice returns the current status-line message.
func (dv *EmbeddingView) Notice() Notice {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	return dv.notice
}

// Capturing reports whether the search box is taking raw text input.
func (dv *EmbeddingView) Capturing() bool {
	return dv.search.editing
}

// VectorShown reports whether recordID's vector is expanded.
func (dv *EmbeddingView) VectorShown(recordID string) bool {
	return dv.vectors.Contains(recordID)
}

func (dv *EmbeddingView) setNotice(n Notice) {
	dv.mu.Lock()
	dv.notice = n
	dv.mu.Unlock()
	dv.opts.post(n)
}

func (dv *EmbeddingView) selected() (api.Record, bool) {
	return dv.records.Item(int(dv.list.Cursor()))
}

// ToggleVector shows or hides the vector of recordID, fetching it on
// first show. It runs in the background and reports through PostEvent.
func (dv *EmbeddingView) ToggleVector(recordID string) {
	go func() {
		_, _, err := dv.vectors.Toggle(dv.ctx, recordID)
		if dv.ctx.Err() != nil {
			return
		}
		if err != nil {
			dv.setNotice(Notice{Text: fmt.Sprintf("vector %s: %v", recordID, err), Err: true})
			return
		}
		dv.opts.post(ViewUpdated{})
	}()
}

// DeleteRecord deletes recordID in the background. On success the
// records page is re-clamped and re-fetched along with the job stats.
func (dv *EmbeddingView) DeleteRecord(recordID string) {
	go func() {
		err := dv.svc.DeleteRecord(dv.ctx, dv.id, recordID)
		if dv.ctx.Err() != nil {
			return
		}
		if err != nil {
			dv.setNotice(Notice{Text: fmt.Sprintf("delete %s: %v", recordID, err), Err: true})
			return
		}
		dv.vectors.Evict(recordID)
		dv.records.Removed(1)
		dv.ctl.Trigger(TargetDetail, refresh.Background)
		dv.ctl.Trigger(TargetStats, refresh.Background)
		dv.setNotice(Notice{Text: "deleted " + recordID})
	}()
}

func (dv *EmbeddingView) resetCursor() {
	dv.list = list.Dynamic{Builder: dv.buildRecord}
	dv.pendingDelete = ""
}

var recordCols = []widgets.TableColumn{
	{Width: 16},
	{Width: 10},
	{Width: 6, AlignRight: true},
	{Width: 1},
	{Width: 20, Flex: true},
}

func recordStatusColor(status string) vaxis.Color {
	switch status {
	case api.StatusCompleted:
		return vaxis.IndexColor(2)
	case api.StatusFailed:
		return vaxis.IndexColor(1)
	case api.StatusProcessing:
		return vaxis.IndexColor(3)
	default:
		return vaxis.IndexColor(8)
	}
}

func (dv *EmbeddingView) buildRecord(i uint, cursor uint) vxfw.Widget {
	r, ok := dv.records.Item(int(i))
	if !ok {
		return nil
	}
	marker := ""
	if dv.vectors.Contains(r.ID) {
		marker = "▾"
	}
	return &widgets.Row{
		Columns:  recordCols,
		Cells:    []string{r.ID, r.Status, strconv.Itoa(r.TokenCount), marker, strings.Join(strings.Fields(r.Text), " ")},
		Gap:      colGap,
		Selected: i == cursor,
	}
}

func formatVector(v *api.Vector) string {
	n := min(len(v.Values), vectorPreview)
	parts := make([]string, n)
	for i, x := range v.Values[:n] {
		parts[i] = strconv.FormatFloat(float64(x), 'f', 4, 32)
	}
	more := ""
	if len(v.Values) > n {
		more = ", …"
	}
	return fmt.Sprintf("[%s%s]", strings.Join(parts, ", "), more)
}

func statusStyle(status string) vaxis.Style {
	return vaxis.Style{Foreground: recordStatusColor(status)}
}

// Draw renders the header, progress gauge with throughput sparkline,
// records table, expanded vector and status line.
func (dv *EmbeddingView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	dv.mu.Lock()
	detail := dv.detail
	stats := dv.stats
	lastStatus := dv.lastStatus
	notice := dv.notice
	dv.mu.Unlock()

	if detail == nil {
		if notice.Err {
			return drawMessage(ctx, dv, notice.Text, vaxis.Style{Foreground: vaxis.IndexColor(1)})
		}
		return drawLoadingState(ctx, dv)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, dv)
	line := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1})
	row := 0

	// === Header ===
	header := richtext.New([]vaxis.Segment{
		{Text: " " + detail.Name + "  ", Style: vaxis.Style{Attribute: vaxis.AttrBold}},
		{Text: detail.Model + "  ", Style: vaxis.Style{Attribute: vaxis.AttrDim}},
		{Text: fmt.Sprintf("%d dims  ", detail.Dimensions)},
		{Text: detail.Status, Style: statusStyle(detail.Status)},
	})
	headerSurf, err := header.Draw(line)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, row, headerSurf)
	row++

	// === Progress gauge + throughput sparkline ===
	done, total, failed := detail.EmbeddedRecords, detail.TotalRecords, detail.FailedRecords
	progress := percent(done, total)
	if stats != nil {
		done, total, failed = stats.EmbeddedRecords, stats.TotalRecords, stats.FailedRecords
		progress = stats.Progress()
	}
	suffix := fmt.Sprintf("%s/%s", count(done), count(total))
	if failed > 0 {
		suffix += fmt.Sprintf(" (%s failed)", count(failed))
	}
	gauge := &widgets.BarGauge{
		Label:    "EMB",
		Value:    progress,
		Suffix:   suffix,
		BarWidth: detailBarWidth,
		Failed:   detail.Status == api.StatusFailed,
	}
	gaugeSurf, err := gauge.Draw(line)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, row, gaugeSurf)

	dv.mu.Lock()
	sparkCount := dv.spark.Count()
	dv.mu.Unlock()
	if sparkCount > 0 {
		gaugeWidth := 5 + 1 + detailBarWidth + 1 + 7 + 2 + len(suffix)
		if sparkWidth := int(ctx.Max.Width) - gaugeWidth - 2; sparkWidth > 0 {
			dv.mu.Lock()
			sparkSurf, sparkErr := dv.spark.Draw(ctx.WithMax(vxfw.Size{Width: uint16(sparkWidth), Height: 1}))
			dv.mu.Unlock()
			if sparkErr == nil {
				s.AddChild(gaugeWidth+2, row, sparkSurf)
			}
		}
	}
	row++

	// === Rate line ===
	var rate []vaxis.Segment
	if stats != nil {
		rate = append(rate, vaxis.Segment{Text: fmt.Sprintf("      %.1f rec/s", stats.RecordsPerSecond)})
		if !stats.UpdatedAt.IsZero() {
			rate = append(rate, vaxis.Segment{Text: "  updated " + ago(stats.UpdatedAt), Style: vaxis.Style{Attribute: vaxis.AttrDim}})
		}
	}
	if !lastStatus.IsZero() {
		rate = append(rate, vaxis.Segment{Text: "  last event " + lastStatus.Format(time.TimeOnly), Style: vaxis.Style{Attribute: vaxis.AttrDim}})
	}
	if len(rate) > 0 {
		rateSurf, err := richtext.New(rate).Draw(line)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, rateSurf)
	}
	row += 2

	// === Records ===
	w := dv.records.Window()
	recHeader := &widgets.Table{
		Columns: recordCols,
		Header:  []string{fmt.Sprintf("RECORDS (%s)", count(w.TotalCount)), "STATUS", "TOKENS", "", "TEXT"},
		Gap:     colGap,
	}
	recHeaderSurf, err := recHeader.Draw(line)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, row, recHeaderSurf)
	row++

	var vecLines []string
	if r, ok := dv.selected(); ok {
		if v, ok := dv.vectors.Peek(r.ID); ok && v != nil {
			vecLines = []string{
				fmt.Sprintf(" vector %s  %d dims", r.ID, v.Dimensions),
				" " + formatVector(v),
			}
		}
	}

	listHeight := int(ctx.Max.Height) - row - 1 - len(vecLines)
	if listHeight > 0 {
		listSurf, err := dv.list.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: uint16(listHeight)}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, listSurf)
		row += listHeight
	}

	for _, text := range vecLines {
		vecSurf, err := richtext.New([]vaxis.Segment{{Text: text, Style: vaxis.Style{Foreground: vaxis.IndexColor(6)}}}).Draw(line)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, vecSurf)
		row++
	}

	// === Status line ===
	sl := &widgets.StatusLine{
		Right: fmt.Sprintf("page %d/%d", w.Page(), w.TotalPages()),
		Segments: []widgets.Segment{
			{Text: dv.search.label(), Style: vaxis.Style{Foreground: vaxis.IndexColor(6)}},
		},
	}
	switch {
	case dv.pendingDelete != "":
		sl.Segments = append(sl.Segments, widgets.Segment{Text: "press d again to delete " + dv.pendingDelete, Style: vaxis.Style{Foreground: vaxis.IndexColor(3)}})
	case notice.Text != "":
		style := vaxis.Style{Attribute: vaxis.AttrDim}
		if notice.Err {
			style = vaxis.Style{Foreground: vaxis.IndexColor(1)}
		}
		sl.Segments = append(sl.Segments, widgets.Segment{Text: notice.Text, Style: style})
	}
	slSurf, err := sl.Draw(line)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, int(ctx.Max.Height)-1, slSurf)

	return s, nil
}

// HandleEvent handles search, paging, the vector toggle, delete and Esc,
// and delegates cursor movement to the records list.
func (dv *EmbeddingView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return dv.list.HandleEvent(ev, phase)
	}

	if changed, consumed := dv.search.handle(key); consumed {
		if changed {
			dv.resetCursor()
			dv.ctl.Search(dv.search.query, func(q string) { dv.records.SetSearch(q) })
		}
		return vxfw.ConsumeAndRedraw(), nil
	}

	armed := dv.pendingDelete
	dv.pendingDelete = ""

	switch {
	case key.Matches(vaxis.KeyEsc):
		dv.opts.post(CloseDetail{})
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('n'), key.Matches(vaxis.KeyRight):
		if dv.records.Next() {
			dv.resetCursor()
		}
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('p'), key.Matches(vaxis.KeyLeft):
		if dv.records.Prev() {
			dv.resetCursor()
		}
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('v'), key.Matches(vaxis.KeyEnter):
		if r, ok := dv.selected(); ok {
			dv.ToggleVector(r.ID)
		}
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('d'):
		r, ok := dv.selected()
		if !ok {
			return nil, nil
		}
		if armed == r.ID {
			dv.DeleteRecord(r.ID)
		} else {
			dv.pendingDelete = r.ID
		}
		return vxfw.ConsumeAndRedraw(), nil
	}
	return dv.list.HandleEvent(ev, phase)
}
