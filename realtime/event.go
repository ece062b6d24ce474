package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind tags an inbound Event.
type EventKind int

const (
	KindHeartbeat EventKind = iota
	KindStatus
)

// Event is a decoded push notification. A status event only says that
// something changed for SubjectID; Payload is informational and must not
// be applied as a patch.
type Event struct {
	Kind      EventKind
	SubjectID string
	Payload   json.RawMessage
}

// ErrNoSubject is returned for status events without a subject id.
var ErrNoSubject = errors.New("status event has no subject_id")

// Decode converts a wire frame into an Event. Unknown event names and
// malformed status bodies are errors; the caller discards the frame.
func Decode(f Frame) (Event, error) {
	switch f.Name {
	case "heartbeat":
		return Event{Kind: KindHeartbeat}, nil
	case "status":
		var body struct {
			SubjectID string `json:"subject_id"`
		}
		if err := json.Unmarshal([]byte(f.Data), &body); err != nil {
			return Event{}, fmt.Errorf("decoding status event: %w", err)
		}
		if body.SubjectID == "" {
			return Event{}, ErrNoSubject
		}
		return Event{
			Kind:      KindStatus,
			SubjectID: body.SubjectID,
			Payload:   json.RawMessage(f.Data),
		}, nil
	default:
		return Event{}, fmt.Errorf("unknown event %q", f.Name)
	}
}
