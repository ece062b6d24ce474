// Package realtime maintains the owner-scoped push channel: one streaming
// connection, decoded into heartbeat and status events, that reconnects
// with bounded exponential backoff when the transport fails.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deevus/ragdeck-tui/internal/clock"
)

// Transport opens the event stream for an owner. The returned body must
// unblock pending reads once ctx is cancelled or it is closed.
type Transport interface {
	Connect(ctx context.Context, ownerID string) (io.ReadCloser, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, ownerID string) (io.ReadCloser, error)

// Connect calls f.
func (f TransportFunc) Connect(ctx context.Context, ownerID string) (io.ReadCloser, error) {
	return f(ctx, ownerID)
}

var (
	// ErrStreamEnded is reported when the server closes the stream cleanly.
	ErrStreamEnded = errors.New("event stream ended")
	// ErrHeartbeatTimeout is reported when nothing arrives within the
	// configured heartbeat timeout.
	ErrHeartbeatTimeout = errors.New("no heartbeat within timeout")
)

// ManagerParams configures a Manager.
type ManagerParams struct {
	Transport Transport
	Clock     clock.Clock
	Logger    *log.Logger

	// OnEvent receives every decoded event, heartbeats included. It is
	// called from the stream's reader goroutine.
	OnEvent func(Event)
	// OnState receives every state transition.
	OnState func(State)

	// HeartbeatTimeout treats a silent stream as failed. Zero leaves
	// failure detection to the transport.
	HeartbeatTimeout time.Duration
}

// Manager owns at most one open stream and the reconnect state machine.
type Manager struct {
	transport        Transport
	clock            clock.Clock
	logger           *log.Logger
	onEvent          func(Event)
	onState          func(State)
	heartbeatTimeout time.Duration

	mu      sync.Mutex
	state   State
	attempt int
	owner   string
	// gen identifies the current Open cycle. Close and terminal failure
	// bump it so goroutines and timers from an older cycle become inert.
	gen    uint64
	retry  *clock.Timer
	cancel context.CancelFunc
}

// NewManager returns an idle Manager.
func NewManager(p ManagerParams) *Manager {
	m := &Manager{
		transport:        p.Transport,
		clock:            p.Clock,
		logger:           p.Logger,
		onEvent:          p.OnEvent,
		onState:          p.OnState,
		heartbeatTimeout: p.HeartbeatTimeout,
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempt returns the number of reconnect attempts scheduled since the
// channel was last open.
func (m *Manager) Attempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt
}

// Open starts connecting the stream for ownerID. It is a no-op while
// Connecting or Open. Called while Reconnecting it skips the remaining
// wait. The dial happens on a background goroutine.
func (m *Manager) Open(ownerID string) {
	m.mu.Lock()
	switch m.state.Phase {
	case PhaseConnecting, PhaseOpen:
		m.mu.Unlock()
		return
	case PhaseIdle, PhaseClosed:
		m.attempt = 0
		m.gen++
	}
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	m.owner = ownerID
	gen := m.gen
	st := m.setLocked(State{Phase: PhaseConnecting})
	m.mu.Unlock()

	m.notify(st)
	go m.connect(gen)
}

// Close tears the channel down: the pending retry is cancelled, the
// stream is closed and the attempt counter is reset.
func (m *Manager) Close() {
	m.mu.Lock()
	m.gen++
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.attempt = 0
	st := m.setLocked(State{Phase: PhaseClosed, Reason: ReasonExplicit})
	m.mu.Unlock()

	m.notify(st)
}

func (m *Manager) connect(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	owner := m.owner
	m.mu.Unlock()

	body, err := m.transport.Connect(ctx, owner)
	if err != nil {
		cancel()
		m.fail(gen, fmt.Errorf("connecting event stream: %w", err))
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		cancel()
		body.Close()
		return
	}
	m.attempt = 0
	st := m.setLocked(State{Phase: PhaseOpen})
	m.mu.Unlock()

	m.notify(st)
	m.logger.Info("event stream open", "owner", owner)
	go m.read(gen, body, cancel)
}

func (m *Manager) read(gen uint64, body io.ReadCloser, cancel context.CancelFunc) {
	defer body.Close()
	defer cancel()

	var (
		idleMu   sync.Mutex
		idle     *clock.Timer
		timedOut bool
	)
	arm := func() {
		if m.heartbeatTimeout <= 0 {
			return
		}
		idleMu.Lock()
		defer idleMu.Unlock()
		if idle != nil {
			idle.Stop()
		}
		idle = m.clock.AfterFunc(m.heartbeatTimeout, func() {
			idleMu.Lock()
			timedOut = true
			idleMu.Unlock()
			cancel()
			body.Close()
		})
	}
	disarm := func() {
		idleMu.Lock()
		defer idleMu.Unlock()
		if idle != nil {
			idle.Stop()
		}
	}

	arm()
	scanner := NewScanner(body)
	for scanner.Next() {
		arm()
		ev, err := Decode(scanner.Frame())
		if err != nil {
			m.logger.Warn("discarding malformed event", "err", err)
			continue
		}
		if !m.current(gen) {
			disarm()
			return
		}
		if m.onEvent != nil {
			m.onEvent(ev)
		}
	}
	disarm()

	err := scanner.Err()
	idleMu.Lock()
	if timedOut {
		err = ErrHeartbeatTimeout
	}
	idleMu.Unlock()
	if err == nil {
		err = ErrStreamEnded
	}
	m.fail(gen, err)
}

// fail moves the channel to Reconnecting, or to Closed once the attempt
// budget is spent.
func (m *Manager) fail(gen uint64, cause error) {
	m.mu.Lock()
	if gen != m.gen || m.state.Phase == PhaseClosed {
		m.mu.Unlock()
		return
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if m.attempt >= MaxAttempts {
		m.gen++
		st := m.setLocked(State{Phase: PhaseClosed, Reason: ReasonMaxAttempts})
		m.mu.Unlock()

		m.logger.Error("event stream gave up", "attempts", MaxAttempts, "err", cause)
		m.notify(st)
		return
	}

	delay := Delay(m.attempt)
	st := m.setLocked(State{Phase: PhaseReconnecting, Attempt: m.attempt, NextDelay: delay})
	m.attempt++
	m.retry = m.clock.AfterFunc(delay, func() { m.reconnect(gen) })
	m.mu.Unlock()

	m.logger.Warn("event stream failed", "err", cause, "retry_in", delay, "attempt", st.Attempt+1)
	m.notify(st)
}

func (m *Manager) reconnect(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state.Phase != PhaseReconnecting {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	st := m.setLocked(State{Phase: PhaseConnecting})
	m.mu.Unlock()

	m.notify(st)
	m.connect(gen)
}

func (m *Manager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen && m.state.Phase == PhaseOpen
}

func (m *Manager) setLocked(st State) State {
	m.state = st
	return st
}

func (m *Manager) notify(st State) {
	if m.onState != nil {
		m.onState(st)
	}
}
