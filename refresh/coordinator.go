// Package refresh turns "something changed" signals into re-fetches,
// keeping at most one request in flight per named target.
package refresh

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deevus/ragdeck-tui/internal/clock"
	"golang.org/x/sync/errgroup"
)

// Mode says whether a fetch was asked for by the user (Foreground, may
// show a loading state) or by a timer or push event (Background, must not
// disturb what is on screen).
type Mode int

const (
	Foreground Mode = iota
	Background
)

func (m Mode) String() string {
	if m == Background {
		return "background"
	}
	return "foreground"
}

// Commit applies a fetched result to page state.
type Commit func()

// FetchFunc performs one fetch. The returned Commit is run only if the
// coordinator has not been stopped in the meantime.
type FetchFunc func(ctx context.Context, mode Mode) (Commit, error)

// Params configures a Coordinator.
type Params struct {
	Clock  clock.Clock
	Logger *log.Logger
	// OnError is told about failed fetches. It must not block.
	OnError func(target string, err error)
}

type target struct {
	fetch    FetchFunc
	inFlight bool
	// pending records a Request that arrived mid-flight; it runs once
	// when the current fetch completes.
	pending     bool
	pendingMode Mode
}

// Coordinator serializes fetches per target.
type Coordinator struct {
	clock   clock.Clock
	logger  *log.Logger
	onError func(string, error)

	ctx     context.Context
	cancel  context.CancelFunc
	fetches sync.WaitGroup
	loops   sync.WaitGroup

	mu          sync.Mutex
	targets     map[string]*target
	stopped     bool
	debounce    *clock.Timer
	debounceGen uint64

	// commitMu lets Stop wait out a commit that already passed the
	// stopped check.
	commitMu sync.RWMutex
}

// New returns a Coordinator with no targets.
func New(p Params) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		clock:   p.Clock,
		logger:  p.Logger,
		onError: p.OnError,
		ctx:     ctx,
		cancel:  cancel,
		targets: make(map[string]*target),
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Register adds a named target. Registering a name twice replaces its
// fetch function.
func (c *Coordinator) Register(name string, fn FetchFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.targets[name]; ok {
		t.fetch = fn
		return
	}
	c.targets[name] = &target{fetch: fn}
}

// Targets returns the registered target names in sorted order.
func (c *Coordinator) Targets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.targets))
	for name := range c.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InFlight reports whether name has a fetch outstanding.
func (c *Coordinator) InFlight(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.targets[name]
	return ok && t.inFlight
}

// Trigger starts a fetch for name unless one is already in flight, in
// which case the trigger is dropped. It reports whether a fetch started.
func (c *Coordinator) Trigger(name string, mode Mode) bool {
	return c.start(name, mode, false)
}

// Request is Trigger for changes in fetch parameters (page, search
// text). If a fetch is in flight, one follow-up fetch is queued to run
// after it so the new parameters are not lost; repeated Requests collapse
// into that single follow-up. Only parameter changes may queue; event and
// timer triggers go through Trigger and always coalesce.
func (c *Coordinator) Request(name string, mode Mode) bool {
	return c.start(name, mode, true)
}

func (c *Coordinator) start(name string, mode Mode, queue bool) bool {
	t, ok := c.claim(name, mode, queue)
	if !ok {
		return false
	}
	go func() {
		defer c.fetches.Done()
		_ = c.execute(c.ctx, name, t, mode)
	}()
	return true
}

// RunAll fetches every registered target that is not already in flight
// and waits for them. It returns the first error.
func (c *Coordinator) RunAll(ctx context.Context, mode Mode) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range c.Targets() {
		t, ok := c.claim(name, mode, false)
		if !ok {
			continue
		}
		g.Go(func() error {
			defer c.fetches.Done()
			return c.execute(gctx, name, t, mode)
		})
	}
	return g.Wait()
}

// claim marks name in flight. With queue set, a claim on a busy target
// leaves a pending follow-up instead.
func (c *Coordinator) claim(name string, mode Mode, queue bool) (*target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.targets[name]
	if !ok || c.stopped {
		return nil, false
	}
	if t.inFlight {
		if queue {
			t.pending = true
			t.pendingMode = mode
		} else {
			c.logger.Debug("coalesced refresh", "target", name, "mode", mode)
		}
		return nil, false
	}
	t.inFlight = true
	c.fetches.Add(1)
	return t, true
}

func (c *Coordinator) execute(ctx context.Context, name string, t *target, mode Mode) error {
	var last error
	for {
		commit, err := t.fetch(ctx, mode)
		last = err
		switch {
		case err != nil:
			c.report(name, err)
		case commit != nil:
			c.apply(name, commit)
		}

		c.mu.Lock()
		if t.pending && !c.stopped {
			mode = t.pendingMode
			t.pending = false
			c.mu.Unlock()
			continue
		}
		t.inFlight = false
		t.pending = false
		c.mu.Unlock()
		if last != nil {
			return fmt.Errorf("%s: %w", name, last)
		}
		return nil
	}
}

func (c *Coordinator) report(name string, err error) {
	if c.isStopped() {
		return
	}
	c.logger.Warn("refresh failed", "target", name, "err", err)
	if c.onError != nil {
		c.onError(name, err)
	}
}

func (c *Coordinator) apply(name string, commit Commit) {
	c.commitMu.RLock()
	defer c.commitMu.RUnlock()
	if c.isStopped() {
		c.logger.Debug("discarding result after stop", "target", name)
		return
	}
	commit()
}

func (c *Coordinator) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// StartPolling triggers the named targets in Background mode every
// interval until Stop.
func (c *Coordinator) StartPolling(interval time.Duration, names ...string) {
	if interval <= 0 || len(names) == 0 {
		return
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	ticker := c.clock.NewTicker(interval)
	c.loops.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.loops.Done()
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				for _, name := range names {
					c.Trigger(name, Background)
				}
			}
		}
	}()
}

// Debounce (re)starts the settle timer. Only the last call within a
// settle period runs fire.
func (c *Coordinator) Debounce(settle time.Duration, fire func()) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	c.debounceGen++
	gen := c.debounceGen
	if settle <= 0 {
		c.mu.Unlock()
		fire()
		return
	}
	c.debounce = c.clock.AfterFunc(settle, func() {
		c.mu.Lock()
		if c.stopped || gen != c.debounceGen {
			c.mu.Unlock()
			return
		}
		c.debounce = nil
		c.mu.Unlock()
		fire()
	})
	c.mu.Unlock()
}

// Stop cancels the polling and debounce timers, cancels the context of
// outstanding fetches and guarantees no Commit runs after it returns.
// In-flight fetches are not waited for; use Wait for that.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	c.mu.Unlock()

	c.commitMu.Lock()
	c.commitMu.Unlock()

	c.cancel()
	c.loops.Wait()
}

// Wait blocks until every started fetch has returned.
func (c *Coordinator) Wait() {
	c.fetches.Wait()
}
