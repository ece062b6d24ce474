package realtime

import "time"

const (
	// BaseDelay is the wait before the first reconnect attempt.
	BaseDelay = time.Second
	// MaxDelay caps the wait between reconnect attempts.
	MaxDelay = 60 * time.Second
	// MaxAttempts is the number of consecutive failed attempts after which
	// the manager gives up and closes.
	MaxAttempts = 10
)

// Delay returns the wait before reconnect attempt n (0-based):
// min(BaseDelay * 2^n, MaxDelay). Negative attempts are treated as 0.
func Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 2^6 seconds already exceeds the cap; stop shifting before overflow.
	if attempt >= 6 {
		return MaxDelay
	}
	return min(BaseDelay<<attempt, MaxDelay)
}
