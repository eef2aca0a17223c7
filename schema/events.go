package schema

import "time"

// EventKind identifies a host-facing session event.
type EventKind string

const (
	// EventLoaded fires when the engine page finished loading.
	EventLoaded EventKind = "loaded"
	// EventLoadFailed fires once when the engine page failed to load.
	EventLoadFailed EventKind = "load-failed"
	// EventReady fires once when the engine signalled readiness.
	EventReady EventKind = "ready"
	// EventContentChanged fires when a slot changed inside the engine.
	EventContentChanged EventKind = "content-changed"
	// EventClosed fires when the session was torn down.
	EventClosed EventKind = "closed"
)

// Event is a typed notification emitted by a session.
type Event struct {
	Kind      EventKind `json:"kind"`
	Session   SessionID `json:"session"`
	Slot      Slot      `json:"slot,omitempty"`
	Value     string    `json:"value,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
