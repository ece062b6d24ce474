package realtime

import (
	"fmt"
	"time"
)

// Phase is the coarse state of a push channel.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseOpen
	PhaseReconnecting
	PhaseClosed
)

// Reasons reported in a Closed state.
const (
	ReasonExplicit    = "explicit"
	ReasonMaxAttempts = "max attempts exceeded"
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseOpen:
		return "open"
	case PhaseReconnecting:
		return "reconnecting"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the channel state machine. Attempt and NextDelay
// are only meaningful while Reconnecting; Reason only once Closed.
type State struct {
	Phase     Phase
	Attempt   int
	NextDelay time.Duration
	Reason    string
}

func (s State) String() string {
	switch s.Phase {
	case PhaseReconnecting:
		return fmt.Sprintf("reconnecting (attempt %d, retry in %s)", s.Attempt+1, s.NextDelay)
	case PhaseClosed:
		return fmt.Sprintf("closed: %s", s.Reason)
	default:
		return s.Phase.String()
	}
}
