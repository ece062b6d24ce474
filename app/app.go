package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/charmbracelet/log"
	"github.com/deevus/ragdeck-tui/config"
	"github.com/deevus/ragdeck-tui/internal"
	"github.com/deevus/ragdeck-tui/internal/clock"
	"github.com/deevus/ragdeck-tui/realtime"
	"github.com/deevus/ragdeck-tui/views"
	"github.com/deevus/ragdeck-tui/widgets"
)

// Connected is posted when the Connect callback succeeds.
type Connected struct {
	Services *internal.Services
}

// ConnectFailed is posted when the Connect callback fails.
type ConnectFailed struct {
	Err error
}

// Params configures the root App widget.
type Params struct {
	// Services starts the app connected. Leave nil and set Connect to
	// connect in the background once the UI is up.
	Services   *internal.Services
	ServerName string
	StaleTTL   time.Duration
	Connect    func(ctx context.Context) (*internal.Services, error)
	Refresh    config.RefreshConfig
	Clock      clock.Clock
	Logger     *log.Logger
}

// page is what the app needs from every list tab.
type page interface {
	Draw(vxfw.DrawContext) (vxfw.Surface, error)
	HandleEvent(vaxis.Event, vxfw.EventPhase) (vxfw.Command, error)
	Load(ctx context.Context) error
	Mount()
	Unmount()
	Refresh() bool
	Reopen()
	ChannelState() realtime.State
	Stale() bool
	Capturing() bool
}

// App is the root vxfw widget for ragdeck-tui.
type App struct {
	services   *internal.Services
	serverName string
	connectFn  func(ctx context.Context) (*internal.Services, error)
	connectErr error
	staleTTL   time.Duration
	refresh    config.RefreshConfig
	clock      clock.Clock
	logger     *log.Logger
	tabBar     *widgets.TabBar
	pages      []page
	mounted    bool
	detail     *views.EmbeddingView
	postEvent  func(vaxis.Event)
}

var tabLabels = []string{"Collections", "Datasets", "Embeddings", "LLM Configs"}

// New creates the root App widget.
func New(p Params) *App {
	a := &App{
		serverName: p.ServerName,
		connectFn:  p.Connect,
		staleTTL:   p.StaleTTL,
		refresh:    p.Refresh,
		clock:      p.Clock,
		logger:     p.Logger,
		tabBar:     widgets.NewTabBar(tabLabels),
	}
	if a.clock == nil {
		a.clock = clock.Real()
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard)
	}
	if p.Services != nil {
		a.setServices(p.Services)
	}
	return a
}

func (a *App) post(ev vaxis.Event) {
	if a.postEvent != nil {
		a.postEvent(ev)
	}
}

func (a *App) options(svc *internal.Services) views.Options {
	return views.Options{
		StaleTTL:         a.staleTTL,
		PageSize:         a.refresh.PageSize,
		PollInterval:     a.refresh.PollInterval,
		SearchDebounce:   a.refresh.SearchDebounce,
		HeartbeatTimeout: a.refresh.HeartbeatTimeout,
		Owner:            svc.Owner,
		Events:           svc.Events,
		Clock:            a.clock,
		Logger:           a.logger,
		PostEvent:        a.post,
	}
}

func (a *App) setServices(svc *internal.Services) {
	a.services = svc
	a.connectErr = nil
	opts := a.options(svc)
	a.pages = []page{
		views.TabCollections: views.NewCollectionsView(views.CollectionsViewParams{Service: svc.Collections, Options: opts}),
		views.TabDatasets:    views.NewDatasetsView(views.DatasetsViewParams{Service: svc.Datasets, Options: opts}),
		views.TabEmbeddings:  views.NewEmbeddingsView(views.EmbeddingsViewParams{Service: svc.Embeddings, Options: opts}),
		views.TabLLMConfigs:  views.NewLLMConfigsView(views.LLMConfigsViewParams{Service: svc.LLMConfigs, Options: opts}),
	}
}

// SetPostEvent sets the function used to post events to the vaxis event loop.
// Must be called before LoadAll.
func (a *App) SetPostEvent(fn func(vaxis.Event)) {
	a.postEvent = fn
}

// IsConnected reports whether services are available.
func (a *App) IsConnected() bool {
	return a.services != nil
}

// ActiveTab returns the current tab index.
func (a *App) ActiveTab() int {
	return a.tabBar.Active()
}

// SetTab switches to the given tab index, leaving any open detail page.
func (a *App) SetTab(i int) {
	a.closeDetail()
	a.tabBar.SetActive(i)
}

// ServerName returns the connected server profile name.
func (a *App) ServerName() string {
	return a.serverName
}

// Detail returns the open detail page, if any.
func (a *App) Detail() *views.EmbeddingView {
	return a.detail
}

// LoadAll starts every tab. The first call mounts them, which fetches
// their first page; later calls re-fetch. Each tab posts a ViewLoaded
// when its fetch completes.
func (a *App) LoadAll() {
	if !a.IsConnected() {
		return
	}
	if !a.mounted {
		a.mounted = true
		for _, p := range a.pages {
			p.Mount()
		}
		return
	}
	for _, p := range a.pages {
		p.Refresh()
	}
}

// LoadActiveView fetches data for the active view and waits for it.
func (a *App) LoadActiveView(ctx context.Context) error {
	if !a.IsConnected() {
		return nil
	}
	if a.detail != nil {
		return a.detail.Load(ctx)
	}
	return a.activePage().Load(ctx)
}

// Close unmounts every page. Call it once the vaxis loop has returned.
func (a *App) Close() {
	a.closeDetail()
	for _, p := range a.pages {
		p.Unmount()
	}
}

func (a *App) activePage() page {
	return a.pages[a.tabBar.Active()]
}

// activeView is what is on screen below the tab bar.
func (a *App) activeView() interface {
	Draw(vxfw.DrawContext) (vxfw.Surface, error)
	HandleEvent(vaxis.Event, vxfw.EventPhase) (vxfw.Command, error)
	Capturing() bool
	Reopen()
	ChannelState() realtime.State
} {
	if a.detail != nil {
		return a.detail
	}
	return a.activePage()
}

func (a *App) openDetail(ev views.OpenEmbedding) {
	a.closeDetail()
	opts := a.options(a.services)
	a.detail = views.NewEmbeddingView(views.EmbeddingViewParams{
		Service:         a.services.Embeddings,
		ID:              ev.ID,
		Name:            ev.Name,
		VectorCacheSize: a.refresh.VectorCacheSize,
		Options:         opts,
	})
	a.detail.Mount()
}

func (a *App) closeDetail() {
	if a.detail == nil {
		return
	}
	a.detail.Unmount()
	a.detail = nil
}

// channelIndicator renders a push channel state for the tab bar.
func channelIndicator(st realtime.State) (string, vaxis.Style) {
	switch st.Phase {
	case realtime.PhaseConnecting:
		return "◌ connecting", vaxis.Style{Attribute: vaxis.AttrDim}
	case realtime.PhaseOpen:
		return "● live", vaxis.Style{Foreground: vaxis.IndexColor(2)}
	case realtime.PhaseReconnecting:
		return fmt.Sprintf("◌ retry %d in %s", st.Attempt+1, st.NextDelay.Round(time.Second)), vaxis.Style{Foreground: vaxis.IndexColor(3)}
	case realtime.PhaseClosed:
		if st.Reason == realtime.ReasonExplicit {
			return "", vaxis.Style{}
		}
		return "○ offline (R to retry)", vaxis.Style{Foreground: vaxis.IndexColor(1)}
	default:
		return "", vaxis.Style{}
	}
}

func (a *App) updateStatus() {
	if !a.IsConnected() {
		a.tabBar.SetStatus(a.serverName, vaxis.Style{Attribute: vaxis.AttrDim})
		return
	}
	text, style := channelIndicator(a.activeView().ChannelState())
	label := a.serverName
	if a.detail != nil {
		label += " › " + a.detail.Name()
	}
	if text != "" {
		label = text + "  " + label
	}
	a.tabBar.SetStatus(label, style)
}

// Draw renders the tab bar and active view.
func (a *App) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, a)

	a.updateStatus()
	tabCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1})
	tabSurf, err := a.tabBar.Draw(tabCtx)
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, tabSurf)

	viewCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 1})
	var viewSurf vxfw.Surface
	switch {
	case a.IsConnected():
		viewSurf, err = a.activeView().Draw(viewCtx)
	case a.connectErr != nil:
		viewSurf, err = a.drawLine(viewCtx, fmt.Sprintf("Connection to %s failed: %v", a.serverName, a.connectErr), vaxis.Style{Foreground: vaxis.IndexColor(1)})
	default:
		viewSurf, err = a.drawLine(viewCtx, fmt.Sprintf("Connecting to %s...", a.serverName), vaxis.Style{Attribute: vaxis.AttrDim})
	}
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 1, viewSurf)

	return s, nil
}

func (a *App) drawLine(ctx vxfw.DrawContext, text string, style vaxis.Style) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, a)
	label, err := richtext.New([]vaxis.Segment{{Text: text, Style: style}}).Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, label)
	return s, nil
}

// CaptureEvent handles global keybindings before views process them.
func (a *App) CaptureEvent(ev vaxis.Event) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	if a.IsConnected() && a.activeView().Capturing() {
		return nil, nil
	}
	if key.Matches('q') {
		return vxfw.QuitCmd{}, nil
	}
	if !a.IsConnected() {
		return nil, nil
	}

	prev := a.tabBar.Active()
	switch {
	case key.Matches('r'):
		if a.detail != nil {
			a.detail.Refresh()
		} else {
			a.activePage().Refresh()
		}
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('R'):
		a.activeView().Reopen()
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches('1'):
		a.SetTab(0)
	case key.Matches('2'):
		a.SetTab(1)
	case key.Matches('3'):
		a.SetTab(2)
	case key.Matches('4'):
		a.SetTab(3)
	case key.Matches(vaxis.KeyTab):
		a.closeDetail()
		a.tabBar.Next()
	case key.Matches(vaxis.KeyTab, vaxis.ModShift):
		a.closeDetail()
		a.tabBar.Prev()
	default:
		return nil, nil
	}
	if a.tabBar.Active() != prev {
		a.refetchIfStale()
	}
	return vxfw.ConsumeAndRedraw(), nil
}

// refetchIfStale re-fetches the active tab if its data has gone stale.
// The result arrives as a ViewLoaded event.
func (a *App) refetchIfStale() {
	if p := a.activePage(); p.Stale() {
		p.Refresh()
	}
}

func (a *App) connect() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	svc, err := a.connectFn(ctx)
	if err != nil {
		a.post(ConnectFailed{Err: err})
		return
	}
	a.post(Connected{Services: svc})
}

// HandleEvent handles lifecycle and page events and delegates the rest to
// the active view.
func (a *App) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	switch ev := ev.(type) {
	case vxfw.Init:
		if a.IsConnected() {
			a.LoadAll()
			return nil, nil
		}
		if a.connectFn != nil {
			go a.connect()
		}
		return nil, nil
	case Connected:
		a.setServices(ev.Services)
		a.mounted = false
		a.LoadAll()
		return vxfw.RedrawCmd{}, nil
	case ConnectFailed:
		a.logger.Error("connect failed", "server", a.serverName, "err", ev.Err)
		a.connectErr = ev.Err
		return vxfw.RedrawCmd{}, nil
	case views.ViewLoaded:
		if ev.Err != nil {
			a.logger.Warn("loading tab failed", "tab", tabLabels[ev.Tab], "err", ev.Err)
		}
		return vxfw.RedrawCmd{}, nil
	case views.ViewUpdated, views.ChannelChanged, views.Notice:
		return vxfw.RedrawCmd{}, nil
	case views.OpenEmbedding:
		if a.IsConnected() {
			a.openDetail(ev)
		}
		return vxfw.RedrawCmd{}, nil
	case views.CloseDetail:
		a.closeDetail()
		return vxfw.RedrawCmd{}, nil
	default:
		if !a.IsConnected() {
			return nil, nil
		}
		return a.activeView().HandleEvent(ev, phase)
	}
}
