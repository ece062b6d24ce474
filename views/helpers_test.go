package views_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

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

// sink collects events posted by a view.
type sink struct {
	events chan vaxis.Event
}

func newSink() *sink {
	return &sink{events: make(chan vaxis.Event, 64)}
}

func (s *sink) post(ev vaxis.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// waitFor returns the first posted event for which match is true.
func waitFor[E any](t *testing.T, s *sink, match func(E) bool) E {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-s.events:
			if e, ok := ev.(E); ok && (match == nil || match(e)) {
				return e
			}
		case <-deadline:
			var zero E
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

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

func (p *pipeTransport) waitConnected(t *testing.T) {
	t.Helper()
	select {
	case <-p.ready:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the push channel to connect")
	}
}

func (p *pipeTransport) status(subjectID string) {
	p.mu.Lock()
	w := p.writers[len(p.writers)-1]
	p.mu.Unlock()
	go func() {
		_, _ = io.WriteString(w, "event: status\ndata: {\"subject_id\":\""+subjectID+"\"}\n\n")
	}()
}
