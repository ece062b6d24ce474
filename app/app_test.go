package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/app"
	"github.com/deevus/ragdeck-tui/internal"
	"github.com/deevus/ragdeck-tui/views"
)

const (
	testStaleTTL = 30 * time.Second
	tabCount     = 4
)

func testDrawContext(w, h uint16) vxfw.DrawContext {
	return vxfw.DrawContext{
		Max: vxfw.Size{Width: w, Height: h},
		Min: vxfw.Size{},
		Characters: func(s string) []vaxis.Character {
			chars := make([]vaxis.Character, 0, len(s))
			for _, r := range s {
				chars = append(chars, vaxis.Character{Grapheme: string(r), Width: 1})
			}
			return chars
		},
	}
}

func newTestServices() *internal.Services {
	return internal.NewServices(
		&api.MockCollectionService{},
		&api.MockDatasetService{},
		&api.MockEmbeddingService{},
		&api.MockLLMConfigService{},
	)
}

func newTestServicesWithData() *internal.Services {
	return internal.NewServices(
		&api.MockCollectionService{
			ListCollectionsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.Collection], error) {
				return api.ListResponse[api.Collection]{
					Items:      []api.Collection{{ID: "c1", Name: "handbook", DatasetCount: 2}},
					TotalCount: 1,
				}, nil
			},
		},
		&api.MockDatasetService{
			ListDatasetsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.Dataset], error) {
				return api.ListResponse[api.Dataset]{
					Items:      []api.Dataset{{ID: "d1", Name: "handbook-pages", SourceType: "web", RecordCount: 640}},
					TotalCount: 1,
				}, nil
			},
		},
		&api.MockEmbeddingService{
			ListEmbeddedDatasetsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.EmbeddedDataset], error) {
				return api.ListResponse[api.EmbeddedDataset]{
					Items:      []api.EmbeddedDataset{{ID: "e1", Name: "handbook-minilm", Model: "all-MiniLM-L6-v2", Dimensions: 384}},
					TotalCount: 1,
				}, nil
			},
			GetEmbeddedDatasetFunc: func(ctx context.Context, id string) (*api.EmbeddedDataset, error) {
				return &api.EmbeddedDataset{ID: id, Name: "handbook-minilm", Dimensions: 384}, nil
			},
		},
		&api.MockLLMConfigService{
			ListLLMConfigsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.LLMConfig], error) {
				return api.ListResponse[api.LLMConfig]{
					Items:      []api.LLMConfig{{ID: "l1", Name: "default", Model: "gpt-4o-mini", IsDefault: true}},
					TotalCount: 1,
				}, nil
			},
		},
	)
}

func newApp(svc *internal.Services) *app.App {
	a := app.New(app.Params{Services: svc, ServerName: "test-server", StaleTTL: testStaleTTL})
	return a
}

// collectLoaded records ViewLoaded events posted by the app's pages.
func collectLoaded(a *app.App) (*sync.Mutex, *[]views.ViewLoaded, chan struct{}) {
	var mu sync.Mutex
	var events []views.ViewLoaded
	done := make(chan struct{}, 16)
	a.SetPostEvent(func(ev vaxis.Event) {
		if vl, ok := ev.(views.ViewLoaded); ok {
			mu.Lock()
			events = append(events, vl)
			mu.Unlock()
			done <- struct{}{}
		}
	})
	return &mu, &events, done
}

func waitLoaded(t *testing.T, done chan struct{}, n int) {
	t.Helper()
	for range n {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for LoadAll to complete")
		}
	}
}

func TestApp_New(t *testing.T) {
	a := newApp(newTestServices())
	if a == nil {
		t.Fatal("expected non-nil app")
	}
}

func TestApp_New_WithServices(t *testing.T) {
	a := newApp(newTestServicesWithData())
	if !a.IsConnected() {
		t.Error("expected connected when Services provided")
	}
}

func TestApp_New_WithoutServices(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})
	if a.IsConnected() {
		t.Error("expected not connected when no Services or Connect provided")
	}
}

func TestApp_ActiveTab(t *testing.T) {
	a := newApp(newTestServices())
	if a.ActiveTab() != 0 {
		t.Errorf("expected initial tab 0, got %d", a.ActiveTab())
	}
}

func TestApp_SetTab(t *testing.T) {
	a := newApp(newTestServices())
	for _, tab := range []int{1, 2, 3} {
		a.SetTab(tab)
		if a.ActiveTab() != tab {
			t.Errorf("expected tab %d, got %d", tab, a.ActiveTab())
		}
	}
}

func TestApp_ServerName(t *testing.T) {
	a := app.New(app.Params{Services: newTestServices(), ServerName: "home", StaleTTL: testStaleTTL})
	if a.ServerName() != "home" {
		t.Errorf("expected server name home, got %s", a.ServerName())
	}
}

func TestApp_LoadActiveView_AllTabs(t *testing.T) {
	a := newApp(newTestServicesWithData())
	for tab := range tabCount {
		a.SetTab(tab)
		if err := a.LoadActiveView(context.Background()); err != nil {
			t.Fatalf("unexpected error loading tab %d: %v", tab, err)
		}
	}
}

func TestApp_LoadActiveView_NotConnected(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})
	if err := a.LoadActiveView(context.Background()); err != nil {
		t.Fatalf("expected nil error when not connected, got %v", err)
	}
}

func TestApp_LoadActiveView_Error_Propagation(t *testing.T) {
	tests := []struct {
		tab int
		svc *internal.Services
	}{
		{views.TabCollections, internal.NewServices(
			&api.MockCollectionService{
				ListCollectionsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.Collection], error) {
					return api.ListResponse[api.Collection]{}, context.DeadlineExceeded
				},
			},
			&api.MockDatasetService{}, &api.MockEmbeddingService{}, &api.MockLLMConfigService{},
		)},
		{views.TabDatasets, internal.NewServices(
			&api.MockCollectionService{},
			&api.MockDatasetService{
				ListDatasetsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.Dataset], error) {
					return api.ListResponse[api.Dataset]{}, context.DeadlineExceeded
				},
			},
			&api.MockEmbeddingService{}, &api.MockLLMConfigService{},
		)},
		{views.TabEmbeddings, internal.NewServices(
			&api.MockCollectionService{}, &api.MockDatasetService{},
			&api.MockEmbeddingService{
				ListEmbeddedDatasetsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.EmbeddedDataset], error) {
					return api.ListResponse[api.EmbeddedDataset]{}, context.DeadlineExceeded
				},
			},
			&api.MockLLMConfigService{},
		)},
	}
	for _, tc := range tests {
		a := newApp(tc.svc)
		a.SetTab(tc.tab)
		if err := a.LoadActiveView(context.Background()); err == nil {
			t.Errorf("tab %d: expected error to propagate", tc.tab)
		}
	}
}

func TestApp_Draw(t *testing.T) {
	a := newApp(newTestServicesWithData())
	_ = a.LoadActiveView(context.Background())

	s, err := a.Draw(testDrawContext(80, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Size.Width != 80 {
		t.Errorf("expected surface width=80, got %d", s.Size.Width)
	}
	if s.Size.Height != 24 {
		t.Errorf("expected surface height=24, got %d", s.Size.Height)
	}
}

func TestApp_Draw_AllTabs(t *testing.T) {
	a := newApp(newTestServicesWithData())

	for tab := range tabCount {
		a.SetTab(tab)
		_ = a.LoadActiveView(context.Background())

		if _, err := a.Draw(testDrawContext(80, 24)); err != nil {
			t.Fatalf("unexpected error drawing tab %d: %v", tab, err)
		}
	}
}

func TestApp_Draw_BeforeLoad(t *testing.T) {
	a := newApp(newTestServices())

	if _, err := a.Draw(testDrawContext(80, 24)); err != nil {
		t.Fatalf("unexpected error drawing before load: %v", err)
	}
}

func TestApp_Draw_Connecting(t *testing.T) {
	a := app.New(app.Params{ServerName: "rag-1", StaleTTL: testStaleTTL})

	s, err := a.Draw(testDrawContext(80, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Size.Width != 80 {
		t.Errorf("expected surface width=80, got %d", s.Size.Width)
	}
}

func TestApp_Draw_ConnectFailed(t *testing.T) {
	a := app.New(app.Params{ServerName: "rag-1", StaleTTL: testStaleTTL})

	_, _ = a.HandleEvent(app.ConnectFailed{Err: fmt.Errorf("connection refused")}, vxfw.EventPhase(0))

	s, err := a.Draw(testDrawContext(80, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Size.Width != 80 {
		t.Errorf("expected surface width=80, got %d", s.Size.Width)
	}
}

func TestApp_CaptureEvent_Quit(t *testing.T) {
	a := newApp(newTestServices())

	cmd, err := a.CaptureEvent(vaxis.Key{Keycode: 'q'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cmd.(vxfw.QuitCmd); !ok {
		t.Errorf("expected QuitCmd, got %T", cmd)
	}
}

func TestApp_CaptureEvent_QuitWhenNotConnected(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})

	cmd, err := a.CaptureEvent(vaxis.Key{Keycode: 'q'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cmd.(vxfw.QuitCmd); !ok {
		t.Errorf("expected QuitCmd even when not connected, got %T", cmd)
	}
}

func TestApp_CaptureEvent_IgnoredWhenNotConnected(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})

	for _, key := range []rune{'r', 'R', '1', '2', '3', '4'} {
		cmd, err := a.CaptureEvent(vaxis.Key{Keycode: key})
		if err != nil {
			t.Fatalf("unexpected error for key '%c': %v", key, err)
		}
		if cmd != nil {
			t.Errorf("expected nil command for key '%c' when not connected, got %T", key, cmd)
		}
	}
}

func TestApp_CaptureEvent_NumberKeys(t *testing.T) {
	a := newApp(newTestServices())

	tests := []struct {
		key      rune
		expected int
	}{
		{'1', 0},
		{'2', 1},
		{'3', 2},
		{'4', 3},
	}

	for _, tc := range tests {
		cmd, err := a.CaptureEvent(vaxis.Key{Keycode: tc.key})
		if err != nil {
			t.Fatalf("unexpected error for key '%c': %v", tc.key, err)
		}
		if cmd == nil {
			t.Fatalf("expected non-nil command for key '%c'", tc.key)
		}
		if a.ActiveTab() != tc.expected {
			t.Errorf("key '%c': expected tab %d, got %d", tc.key, tc.expected, a.ActiveTab())
		}
	}
}

func TestApp_CaptureEvent_Tab(t *testing.T) {
	a := newApp(newTestServices())

	cmd, err := a.CaptureEvent(vaxis.Key{Keycode: vaxis.KeyTab})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd == nil {
		t.Fatal("expected non-nil command for Tab key")
	}
	if a.ActiveTab() != 1 {
		t.Errorf("expected tab 1 after Tab, got %d", a.ActiveTab())
	}
}

func TestApp_CaptureEvent_ShiftTab(t *testing.T) {
	a := newApp(newTestServices())

	cmd, err := a.CaptureEvent(vaxis.Key{Keycode: vaxis.KeyTab, Modifiers: vaxis.ModShift})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd == nil {
		t.Fatal("expected non-nil command for Shift+Tab")
	}
	if a.ActiveTab() != tabCount-1 {
		t.Errorf("expected tab %d after Shift+Tab, got %d", tabCount-1, a.ActiveTab())
	}
}

func TestApp_CaptureEvent_UnhandledKey(t *testing.T) {
	a := newApp(newTestServices())

	cmd, err := a.CaptureEvent(vaxis.Key{Keycode: 'x'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != nil {
		t.Errorf("expected nil command for unhandled key, got %T", cmd)
	}
}

func TestApp_CaptureEvent_NonKeyEvent(t *testing.T) {
	a := newApp(newTestServices())

	cmd, err := a.CaptureEvent(vaxis.Redraw{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != nil {
		t.Errorf("expected nil command for non-key event, got %T", cmd)
	}
}

func TestApp_CaptureEvent_Refresh(t *testing.T) {
	a := newApp(newTestServicesWithData())
	mu, events, done := collectLoaded(a)
	defer a.Close()

	cmd, err := a.CaptureEvent(vaxis.Key{Keycode: 'r'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd == nil {
		t.Fatal("expected non-nil command for 'r' key")
	}
	waitLoaded(t, done, 1)

	mu.Lock()
	defer mu.Unlock()
	if (*events)[0].Tab != views.TabCollections {
		t.Errorf("expected the active tab refreshed, got tab %d", (*events)[0].Tab)
	}
}

func TestApp_CaptureEvent_SearchCapturesKeys(t *testing.T) {
	a := newApp(newTestServicesWithData())
	_ = a.LoadActiveView(context.Background())

	if _, err := a.HandleEvent(vaxis.Key{Keycode: '/'}, vxfw.EventPhase(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []rune{'q', '2'} {
		cmd, err := a.CaptureEvent(vaxis.Key{Keycode: key, Text: string(key)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd != nil {
			t.Errorf("expected '%c' left to the search box, got %T", key, cmd)
		}
	}
	if a.ActiveTab() != 0 {
		t.Errorf("expected tab unchanged while searching, got %d", a.ActiveTab())
	}
}

func TestApp_HandleEvent(t *testing.T) {
	a := newApp(newTestServicesWithData())
	_ = a.LoadActiveView(context.Background())

	if _, err := a.HandleEvent(vaxis.Key{Keycode: 'j'}, vxfw.EventPhase(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApp_HandleEvent_AllTabs(t *testing.T) {
	a := newApp(newTestServicesWithData())

	for tab := range tabCount {
		a.SetTab(tab)
		_ = a.LoadActiveView(context.Background())

		if _, err := a.HandleEvent(vaxis.Key{Keycode: 'j'}, vxfw.EventPhase(0)); err != nil {
			t.Fatalf("unexpected error on tab %d: %v", tab, err)
		}
	}
}

func TestApp_HandleEvent_Init_WithConnectFn(t *testing.T) {
	svc := newTestServicesWithData()
	called := make(chan struct{}, 1)

	a := app.New(app.Params{
		ServerName: "test-server",
		StaleTTL:   testStaleTTL,
		Connect: func(ctx context.Context) (*internal.Services, error) {
			called <- struct{}{}
			return svc, nil
		},
	})

	done := make(chan struct{}, 1)
	a.SetPostEvent(func(ev vaxis.Event) {
		if _, ok := ev.(app.Connected); ok {
			done <- struct{}{}
		}
	})

	if _, err := a.HandleEvent(vxfw.Init{}, vxfw.EventPhase(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connect callback")
	}

	select {
	case <-called:
	default:
		t.Error("expected Connect callback to be called")
	}
}

func TestApp_HandleEvent_Init_WithConnectFn_Error(t *testing.T) {
	a := app.New(app.Params{
		ServerName: "test-server",
		StaleTTL:   testStaleTTL,
		Connect: func(ctx context.Context) (*internal.Services, error) {
			return nil, fmt.Errorf("connection refused")
		},
	})

	done := make(chan struct{}, 1)
	a.SetPostEvent(func(ev vaxis.Event) {
		if _, ok := ev.(app.ConnectFailed); ok {
			done <- struct{}{}
		}
	})

	_, _ = a.HandleEvent(vxfw.Init{}, vxfw.EventPhase(0))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ConnectFailed event")
	}
}

func TestApp_HandleEvent_Init_NoConnectFn(t *testing.T) {
	a := newApp(newTestServices())
	defer a.Close()

	cmd, err := a.HandleEvent(vxfw.Init{}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != nil {
		t.Errorf("expected nil command from Init without connectFn, got %T", cmd)
	}
}

func TestApp_HandleEvent_Connected(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})
	mu, events, done := collectLoaded(a)
	defer a.Close()

	cmd, err := a.HandleEvent(app.Connected{Services: newTestServicesWithData()}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cmd.(vxfw.RedrawCmd); !ok {
		t.Errorf("expected RedrawCmd, got %T", cmd)
	}
	if !a.IsConnected() {
		t.Error("expected connected after Connected event")
	}

	waitLoaded(t, done, tabCount)

	mu.Lock()
	defer mu.Unlock()
	if len(*events) != tabCount {
		t.Fatalf("expected %d ViewLoaded events, got %d", tabCount, len(*events))
	}
}

func TestApp_HandleEvent_ConnectFailed(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})

	cmd, err := a.HandleEvent(app.ConnectFailed{Err: fmt.Errorf("refused")}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cmd.(vxfw.RedrawCmd); !ok {
		t.Errorf("expected RedrawCmd, got %T", cmd)
	}
	if a.IsConnected() {
		t.Error("expected not connected after ConnectFailed")
	}
}

func TestApp_HandleEvent_ViewLoaded(t *testing.T) {
	a := newApp(newTestServices())

	cmd, err := a.HandleEvent(views.ViewLoaded{Tab: 0, Err: nil}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cmd.(vxfw.RedrawCmd); !ok {
		t.Errorf("expected RedrawCmd, got %T", cmd)
	}
}

func TestApp_HandleEvent_ViewLoaded_WithError(t *testing.T) {
	a := newApp(newTestServices())

	cmd, err := a.HandleEvent(views.ViewLoaded{Tab: 1, Err: context.DeadlineExceeded}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cmd.(vxfw.RedrawCmd); !ok {
		t.Errorf("expected RedrawCmd even on load error, got %T", cmd)
	}
}

func TestApp_HandleEvent_NotConnected(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})

	cmd, err := a.HandleEvent(vaxis.Key{Keycode: 'j'}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != nil {
		t.Errorf("expected nil command when not connected, got %T", cmd)
	}
}

func TestApp_OpenAndCloseDetail(t *testing.T) {
	a := newApp(newTestServicesWithData())
	a.SetPostEvent(func(vaxis.Event) {})
	defer a.Close()
	a.SetTab(views.TabEmbeddings)

	cmd, err := a.HandleEvent(views.OpenEmbedding{ID: "e1", Name: "handbook-minilm"}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cmd.(vxfw.RedrawCmd); !ok {
		t.Errorf("expected RedrawCmd, got %T", cmd)
	}
	detail := a.Detail()
	if detail == nil {
		t.Fatal("expected the detail page open")
	}
	if detail.ID() != "e1" {
		t.Errorf("expected detail for e1, got %s", detail.ID())
	}
	if _, err := a.Draw(testDrawContext(80, 24)); err != nil {
		t.Fatalf("unexpected draw error: %v", err)
	}

	if _, err := a.HandleEvent(views.CloseDetail{}, vxfw.EventPhase(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Detail() != nil {
		t.Error("expected the detail page closed")
	}
	if a.ActiveTab() != views.TabEmbeddings {
		t.Errorf("expected to return to the embeddings tab, got %d", a.ActiveTab())
	}
}

func TestApp_SwitchTab_ClosesDetail(t *testing.T) {
	a := newApp(newTestServicesWithData())
	a.SetPostEvent(func(vaxis.Event) {})
	defer a.Close()
	a.SetTab(views.TabEmbeddings)
	_, _ = a.HandleEvent(views.OpenEmbedding{ID: "e1"}, vxfw.EventPhase(0))

	if _, err := a.CaptureEvent(vaxis.Key{Keycode: '1'}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Detail() != nil {
		t.Error("expected switching tabs to close the detail page")
	}
	if a.ActiveTab() != 0 {
		t.Errorf("expected tab 0, got %d", a.ActiveTab())
	}
}

func TestApp_LoadAll(t *testing.T) {
	a := newApp(newTestServicesWithData())
	mu, events, done := collectLoaded(a)
	defer a.Close()

	a.LoadAll()
	waitLoaded(t, done, tabCount)

	mu.Lock()
	defer mu.Unlock()

	if len(*events) != tabCount {
		t.Fatalf("expected %d ViewLoaded events, got %d", tabCount, len(*events))
	}

	tabs := map[int]bool{}
	for _, ev := range *events {
		if ev.Err != nil {
			t.Errorf("tab %d had unexpected error: %v", ev.Tab, ev.Err)
		}
		tabs[ev.Tab] = true
	}
	for i := range tabCount {
		if !tabs[i] {
			t.Errorf("missing ViewLoaded event for tab %d", i)
		}
	}
}

func TestApp_LoadAll_WithErrors(t *testing.T) {
	svc := internal.NewServices(
		&api.MockCollectionService{
			ListCollectionsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.Collection], error) {
				return api.ListResponse[api.Collection]{}, context.DeadlineExceeded
			},
		},
		&api.MockDatasetService{},
		&api.MockEmbeddingService{},
		&api.MockLLMConfigService{
			ListLLMConfigsFunc: func(ctx context.Context, p api.ListParams) (api.ListResponse[api.LLMConfig], error) {
				return api.ListResponse[api.LLMConfig]{}, context.Canceled
			},
		},
	)
	a := newApp(svc)
	mu, events, done := collectLoaded(a)
	defer a.Close()

	a.LoadAll()
	waitLoaded(t, done, tabCount)

	mu.Lock()
	defer mu.Unlock()

	errs := map[int]bool{}
	for _, ev := range *events {
		if ev.Err != nil {
			errs[ev.Tab] = true
		}
	}
	if !errs[views.TabCollections] || !errs[views.TabLLMConfigs] {
		t.Errorf("expected errors for collections and configs, got %v", errs)
	}
	if errs[views.TabDatasets] || errs[views.TabEmbeddings] {
		t.Errorf("expected datasets and embeddings to load, got %v", errs)
	}
}

func TestApp_LoadAll_NotConnected(t *testing.T) {
	a := app.New(app.Params{ServerName: "test-server", StaleTTL: testStaleTTL})
	a.LoadAll()
}
