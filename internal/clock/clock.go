// Package clock abstracts timers so reconnect, polling and debounce
// behaviour can be driven deterministically in tests.
//
// Production code uses Real(). Tests use Fake() and call Advance to fire
// pending timers, with WaitForTimers to avoid racing a goroutine that has
// not registered its timer yet.
package clock

import "time"

// Clock is the subset of the time package used by ragdeck.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f after d elapses. The returned Timer cancels it.
	AfterFunc(d time.Duration, f func()) *Timer
	// NewTicker delivers ticks on C every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a cancellable one-shot callback.
type Timer struct {
	stop func() bool
}

// Stop prevents the timer from firing. It reports whether the call
// stopped a pending timer.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers periodic ticks on C. Ticks are dropped if the reader
// falls behind.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }
