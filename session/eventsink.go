package session

import "pkt.systems/codebridge/schema"

// EventSink receives typed events from sessions.
type EventSink interface {
	OnSessionEvent(event schema.Event)
}

// Callbacks are optional host hooks. They run on the goroutine that
// delivered the triggering notification and must not block for long.
type Callbacks struct {
	OnLoadSuccess   func()
	OnLoadFail      func(err error)
	OnReady         func(s *Session)
	OnContentChange func(slot schema.Slot, value string)
}
