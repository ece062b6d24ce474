package mockserver

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// subscribe registers a buffered channel for owner's events.
func (s *Server) subscribe(owner string) chan Event {
	ch := make(chan Event, 32)
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subs[owner] == nil {
		s.subs[owner] = make(map[chan Event]struct{})
	}
	s.subs[owner][ch] = struct{}{}
	return ch
}

func (s *Server) unsubscribe(owner string, ch chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subs[owner], ch)
	if len(s.subs[owner]) == 0 {
		delete(s.subs, owner)
	}
}

// Subscribers returns the number of open streams for owner.
func (s *Server) Subscribers(owner string) int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs[owner])
}

// Publish sends ev to every open stream of owner. Slow subscribers drop
// events rather than block the publisher.
func (s *Server) Publish(owner string, ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs[owner] {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("dropping event for slow subscriber", "owner", owner, "event", ev.Name)
		}
	}
}

// PublishStatus announces that subjectID changed.
func (s *Server) PublishStatus(owner, subjectID, status string) {
	s.Publish(owner, Event{Name: "status", Data: map[string]any{
		"subject_id": subjectID,
		"status":     status,
		"at":         time.Now().UTC().Format(time.RFC3339),
	}})
}

// DisconnectAll ends every open stream, as a backend restart would.
func (s *Server) DisconnectAll() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for owner, set := range s.subs {
		for ch := range set {
			close(ch)
		}
		delete(s.subs, owner)
	}
}

func (s *Server) handleEvents(c *gin.Context) {
	owner := c.Param("owner")
	ch := s.subscribe(owner)
	defer s.unsubscribe(owner, ch)
	s.logger.Info("event stream opened", "owner", owner)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-s.ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", "ping")
			return true
		}
	})
	s.logger.Info("event stream closed", "owner", owner, "err", context.Cause(ctx))
}
