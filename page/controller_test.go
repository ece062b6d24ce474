package page_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deevus/ragdeck-tui/internal/clock"
	"github.com/deevus/ragdeck-tui/page"
	"github.com/deevus/ragdeck-tui/realtime"
	"github.com/deevus/ragdeck-tui/refresh"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// pipeTransport hands out one pipe per Connect.
type pipeTransport struct {
	mu      sync.Mutex
	writers []*io.PipeWriter
	ready   chan struct{}
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{ready: make(chan struct{}, 8)}
}

func (p *pipeTransport) Connect(ctx context.Context, ownerID string) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	p.mu.Lock()
	p.writers = append(p.writers, pw)
	p.mu.Unlock()
	go func() {
		<-ctx.Done()
		pw.CloseWithError(ctx.Err())
	}()
	p.ready <- struct{}{}
	return pr, nil
}

func (p *pipeTransport) send(t *testing.T, frame string) {
	t.Helper()
	p.mu.Lock()
	w := p.writers[len(p.writers)-1]
	p.mu.Unlock()
	go func() { _, _ = io.WriteString(w, frame) }()
}

type counter struct {
	calls atomic.Int32
	modes chan refresh.Mode
}

func newCounter() *counter {
	return &counter{modes: make(chan refresh.Mode, 32)}
}

func (c *counter) fetch(ctx context.Context, mode refresh.Mode) (refresh.Commit, error) {
	c.calls.Add(1)
	c.modes <- mode
	return nil, nil
}

func (c *counter) next(t *testing.T) refresh.Mode {
	t.Helper()
	select {
	case m := <-c.modes:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for fetch")
		return 0
	}
}

func TestController_MountFetchesEveryTarget(t *testing.T) {
	ctl := page.New(page.Params{Clock: clock.Fake(epoch)})
	defer ctl.Unmount()
	stats, history := newCounter(), newCounter()
	ctl.Register("stats", stats.fetch)
	ctl.Register("history", history.fetch)

	ctl.Mount()
	ctl.Wait()

	if stats.next(t) != refresh.Foreground || history.next(t) != refresh.Foreground {
		t.Error("expected initial fetches in the foreground")
	}
}

func TestController_NonMatchingStatusIgnored(t *testing.T) {
	var statuses atomic.Int32
	ctl := page.New(page.Params{
		Clock:         clock.Fake(epoch),
		EntityID:      "ed-1",
		StatusTargets: []string{"stats"},
		OnStatus:      func(realtime.Event) { statuses.Add(1) },
	})
	defer ctl.Unmount()
	stats := newCounter()
	ctl.Register("stats", stats.fetch)

	ctl.Dispatch(realtime.Event{Kind: realtime.KindStatus, SubjectID: "ed-2"})
	ctl.Dispatch(realtime.Event{Kind: realtime.KindHeartbeat})
	ctl.Wait()

	if n := stats.calls.Load(); n != 0 {
		t.Errorf("expected no fetch for another subject, got %d", n)
	}
	if statuses.Load() != 0 {
		t.Error("OnStatus must not see other subjects")
	}
}

func TestController_MatchingStatusRefetchesInBackground(t *testing.T) {
	var statuses atomic.Int32
	ctl := page.New(page.Params{
		Clock:         clock.Fake(epoch),
		EntityID:      "ed-1",
		StatusTargets: []string{"stats", "history"},
		OnStatus:      func(realtime.Event) { statuses.Add(1) },
	})
	defer ctl.Unmount()
	stats, history, vectors := newCounter(), newCounter(), newCounter()
	ctl.Register("stats", stats.fetch)
	ctl.Register("history", history.fetch)
	ctl.Register("vectors", vectors.fetch)

	ctl.Dispatch(realtime.Event{Kind: realtime.KindStatus, SubjectID: "ed-1"})
	ctl.Wait()

	if stats.next(t) != refresh.Background || history.next(t) != refresh.Background {
		t.Error("expected background re-fetches")
	}
	if vectors.calls.Load() != 0 {
		t.Error("targets outside the status list must not be fetched")
	}
	if statuses.Load() != 1 {
		t.Errorf("expected one OnStatus call, got %d", statuses.Load())
	}
}

func TestController_MatchOverride(t *testing.T) {
	visible := map[string]bool{"ed-1": true, "ed-2": true}
	ctl := page.New(page.Params{
		Clock:         clock.Fake(epoch),
		Match:         func(id string) bool { return visible[id] },
		StatusTargets: []string{"list"},
	})
	defer ctl.Unmount()
	list := newCounter()
	ctl.Register("list", list.fetch)

	ctl.Dispatch(realtime.Event{Kind: realtime.KindStatus, SubjectID: "ed-9"})
	ctl.Wait()
	if list.calls.Load() != 0 {
		t.Fatal("expected no fetch for an off-screen subject")
	}
	ctl.Dispatch(realtime.Event{Kind: realtime.KindStatus, SubjectID: "ed-2"})
	ctl.Wait()
	if list.calls.Load() != 1 {
		t.Errorf("expected one fetch for a visible subject, got %d", list.calls.Load())
	}
}

func TestController_StatusOverChannel(t *testing.T) {
	transport := newPipeTransport()
	events := make(chan realtime.Event, 4)
	ctl := page.New(page.Params{
		OwnerID:       "owner-1",
		Transport:     transport,
		Clock:         clock.Fake(epoch),
		EntityID:      "ed-1",
		StatusTargets: []string{"stats"},
		OnStatus:      func(ev realtime.Event) { events <- ev },
	})
	defer ctl.Unmount()
	stats := newCounter()
	ctl.Register("stats", stats.fetch)

	ctl.Mount()
	<-transport.ready
	stats.next(t)

	transport.send(t, "event: status\ndata: {\"subject_id\":\"ed-1\",\"status\":\"processing\"}\n\n")

	select {
	case ev := <-events:
		if ev.SubjectID != "ed-1" {
			t.Errorf("unexpected subject %q", ev.SubjectID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for status")
	}
	if m := stats.next(t); m != refresh.Background {
		t.Errorf("expected background refetch, got %s", m)
	}
}

func TestController_PollsInBackground(t *testing.T) {
	fc := clock.Fake(epoch)
	ctl := page.New(page.Params{
		Clock:        fc,
		PollInterval: 5 * time.Second,
		PollTargets:  []string{"stats"},
	})
	defer ctl.Unmount()
	stats := newCounter()
	ctl.Register("stats", stats.fetch)

	ctl.Mount()
	stats.next(t)
	ctl.Wait()

	fc.WaitForTimers(1)
	fc.Advance(5 * time.Second)
	if m := stats.next(t); m != refresh.Background {
		t.Errorf("expected background poll, got %s", m)
	}
}

func TestController_SearchIsDebounced(t *testing.T) {
	fc := clock.Fake(epoch)
	ctl := page.New(page.Params{Clock: fc, SearchDebounce: 300 * time.Millisecond})
	defer ctl.Unmount()

	var applied []string
	for _, q := range []string{"v", "ve", "vec"} {
		ctl.Search(q, func(s string) { applied = append(applied, s) })
		fc.Advance(100 * time.Millisecond)
	}
	fc.Advance(300 * time.Millisecond)

	if len(applied) != 1 || applied[0] != "vec" {
		t.Errorf("expected one settled search for vec, got %v", applied)
	}
}

func TestController_UnmountStopsEverything(t *testing.T) {
	fc := clock.Fake(epoch)
	transport := newPipeTransport()
	ctl := page.New(page.Params{
		OwnerID:        "owner-1",
		Transport:      transport,
		Clock:          fc,
		PollInterval:   5 * time.Second,
		PollTargets:    []string{"stats"},
		SearchDebounce: 300 * time.Millisecond,
	})
	stats := newCounter()
	ctl.Register("stats", stats.fetch)

	ctl.Mount()
	<-transport.ready
	stats.next(t)
	ctl.Search("q", func(string) { t.Error("search applied after unmount") })

	ctl.Unmount()
	ctl.Wait()

	if fc.PendingCount() != 0 {
		t.Errorf("expected no timers after unmount, %d pending", fc.PendingCount())
	}
	if st := ctl.ChannelState(); st.Phase != realtime.PhaseClosed {
		t.Errorf("expected closed channel, got %s", st)
	}

	before := stats.calls.Load()
	fc.Advance(time.Minute)
	ctl.Mount()
	ctl.Dispatch(realtime.Event{Kind: realtime.KindStatus, SubjectID: "ed-1"})
	ctl.Wait()
	if stats.calls.Load() != before {
		t.Error("nothing may fetch after unmount")
	}
}

func (p *pipeTransport) drop() {
	p.mu.Lock()
	w := p.writers[len(p.writers)-1]
	p.mu.Unlock()
	w.Close()
}

func waitPhase(t *testing.T, states <-chan realtime.State, want realtime.Phase) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case st := <-states:
			if st.Phase == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestController_ReconnectResyncsStatusTargets(t *testing.T) {
	fc := clock.Fake(epoch)
	transport := newPipeTransport()
	states := make(chan realtime.State, 16)
	ctl := page.New(page.Params{
		OwnerID:       "owner-1",
		Transport:     transport,
		Clock:         fc,
		EntityID:      "ed-1",
		StatusTargets: []string{"stats"},
		OnState:       func(st realtime.State) { states <- st },
	})
	defer ctl.Unmount()
	stats := newCounter()
	ctl.Register("stats", stats.fetch)

	ctl.Mount()
	<-transport.ready
	waitPhase(t, states, realtime.PhaseOpen)
	if m := stats.next(t); m != refresh.Foreground {
		t.Fatalf("expected initial foreground fetch, got %s", m)
	}
	ctl.Wait()
	if n := stats.calls.Load(); n != 1 {
		t.Fatalf("first open must not resync, got %d fetches", n)
	}

	transport.drop()
	waitPhase(t, states, realtime.PhaseReconnecting)
	fc.WaitForTimers(1)
	fc.Advance(realtime.Delay(0))
	<-transport.ready
	waitPhase(t, states, realtime.PhaseOpen)

	if m := stats.next(t); m != refresh.Background {
		t.Errorf("expected background resync after reconnect, got %s", m)
	}
	ctl.Wait()
	if n := stats.calls.Load(); n != 2 {
		t.Errorf("expected 2 fetches, got %d", n)
	}
}
