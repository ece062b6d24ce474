// Package page wires one screen's real-time plumbing together: the push
// channel for the signed-in owner, the refresh coordinator its events
// feed, periodic polling and debounced search. Everything is started by
// Mount and torn down by Unmount.
package page

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deevus/ragdeck-tui/internal/clock"
	"github.com/deevus/ragdeck-tui/realtime"
	"github.com/deevus/ragdeck-tui/refresh"
)

// Params configures a Controller.
type Params struct {
	// OwnerID scopes the push channel. Empty disables the channel.
	OwnerID   string
	Transport realtime.Transport
	// EntityID is the subject a detail page displays. Status events for
	// other subjects are ignored.
	EntityID string
	// Match overrides the EntityID comparison, for pages that show many
	// subjects at once.
	Match func(subjectID string) bool

	Clock  clock.Clock
	Logger *log.Logger

	PollInterval     time.Duration
	SearchDebounce   time.Duration
	HeartbeatTimeout time.Duration

	// StatusTargets are re-fetched in the background on a matching
	// status event.
	StatusTargets []string
	// PollTargets are re-fetched in the background every PollInterval.
	PollTargets []string

	// OnStatus is told about matching status events after their
	// re-fetches are triggered.
	OnStatus func(realtime.Event)
	OnState  func(realtime.State)
	OnError  func(target string, err error)
}

// Controller owns one Manager and one Coordinator for a page instance.
type Controller struct {
	ownerID       string
	entityID      string
	match         func(string) bool
	logger        *log.Logger
	pollInterval  time.Duration
	debounce      time.Duration
	statusTargets []string
	pollTargets   []string
	onStatus      func(realtime.Event)
	onState       func(realtime.State)

	coord   *refresh.Coordinator
	manager *realtime.Manager

	mu        sync.Mutex
	mounted   bool
	unmounted bool
	// dropped is set once the channel leaves Open or gives up, so the
	// next Open resyncs the status targets.
	dropped bool
}

// New builds a Controller. Register fetch targets before Mount.
func New(p Params) *Controller {
	if p.Clock == nil {
		p.Clock = clock.Real()
	}
	if p.Logger == nil {
		p.Logger = log.New(io.Discard)
	}
	c := &Controller{
		ownerID:       p.OwnerID,
		entityID:      p.EntityID,
		match:         p.Match,
		logger:        p.Logger,
		pollInterval:  p.PollInterval,
		debounce:      p.SearchDebounce,
		statusTargets: slices.Clone(p.StatusTargets),
		pollTargets:   slices.Clone(p.PollTargets),
		onStatus:      p.OnStatus,
		onState:       p.OnState,
	}
	c.coord = refresh.New(refresh.Params{
		Clock:   p.Clock,
		Logger:  p.Logger,
		OnError: p.OnError,
	})
	if p.Transport != nil && p.OwnerID != "" {
		c.manager = realtime.NewManager(realtime.ManagerParams{
			Transport:        p.Transport,
			Clock:            p.Clock,
			Logger:           p.Logger,
			OnEvent:          c.Dispatch,
			OnState:          c.channelState,
			HeartbeatTimeout: p.HeartbeatTimeout,
		})
	}
	return c
}

// Coordinator exposes the refresh coordinator, which paginated fetchers
// use as their Requester.
func (c *Controller) Coordinator() *refresh.Coordinator {
	return c.coord
}

// Register adds a fetch target.
func (c *Controller) Register(name string, fn refresh.FetchFunc) {
	c.coord.Register(name, fn)
}

// Mount opens the push channel, issues the initial foreground fetch of
// every target and starts polling. Mounting twice is a no-op.
func (c *Controller) Mount() {
	c.mu.Lock()
	if c.mounted || c.unmounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()

	if c.manager != nil {
		c.manager.Open(c.ownerID)
	}
	for _, name := range c.coord.Targets() {
		c.coord.Trigger(name, refresh.Foreground)
	}
	c.coord.StartPolling(c.pollInterval, c.pollTargets...)
}

// Refresh re-fetches every target in the foreground and waits for them.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.coord.RunAll(ctx, refresh.Foreground)
}

// Trigger forwards to the coordinator.
func (c *Controller) Trigger(name string, mode refresh.Mode) bool {
	return c.coord.Trigger(name, mode)
}

// Search debounces q and hands the settled value to apply, typically a
// paging.Fetcher's SetSearch.
func (c *Controller) Search(q string, apply func(string)) {
	c.coord.Debounce(c.debounce, func() { apply(q) })
}

// Reopen re-opens the push channel, for use after it gave up.
func (c *Controller) Reopen() {
	c.mu.Lock()
	ok := c.mounted && !c.unmounted
	c.mu.Unlock()
	if ok && c.manager != nil {
		c.manager.Open(c.ownerID)
	}
}

// ChannelState returns the push channel state. Pages without a channel
// report Idle.
func (c *Controller) ChannelState() realtime.State {
	if c.manager == nil {
		return realtime.State{Phase: realtime.PhaseIdle}
	}
	return c.manager.State()
}

// Dispatch routes one inbound event. Heartbeats are dropped; status
// events for this page's subject trigger the status targets.
func (c *Controller) Dispatch(ev realtime.Event) {
	if ev.Kind != realtime.KindStatus {
		return
	}
	if !c.matches(ev.SubjectID) {
		c.logger.Debug("ignoring status for other subject", "subject", ev.SubjectID)
		return
	}
	for _, name := range c.statusTargets {
		c.coord.Trigger(name, refresh.Background)
	}
	if c.onStatus != nil {
		c.onStatus(ev)
	}
}

// channelState re-fetches the status targets when the channel comes back
// after a drop, since status events sent during the gap are lost.
func (c *Controller) channelState(st realtime.State) {
	c.mu.Lock()
	resync := false
	switch st.Phase {
	case realtime.PhaseReconnecting, realtime.PhaseClosed:
		c.dropped = true
	case realtime.PhaseOpen:
		resync = c.dropped && !c.unmounted
		c.dropped = false
	}
	c.mu.Unlock()

	if resync {
		c.logger.Debug("channel reopened, resyncing", "targets", c.statusTargets)
		for _, name := range c.statusTargets {
			c.coord.Trigger(name, refresh.Background)
		}
	}
	if c.onState != nil {
		c.onState(st)
	}
}

func (c *Controller) matches(subjectID string) bool {
	if c.match != nil {
		return c.match(subjectID)
	}
	return c.entityID != "" && subjectID == c.entityID
}

// Unmount closes the channel, stops every timer and discards the
// results of fetches still in flight. The Controller cannot be mounted
// again.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	c.mu.Unlock()

	if c.manager != nil {
		c.manager.Close()
	}
	c.coord.Stop()
}

// Wait blocks until outstanding fetches have returned.
func (c *Controller) Wait() {
	c.coord.Wait()
}
