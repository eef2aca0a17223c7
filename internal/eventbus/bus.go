package eventbus

import (
	"context"
	"sync"

	"pkt.systems/codebridge/schema"
	"pkt.systems/pslog"
)

// All subscribes to events of every session.
const All schema.SessionID = "*"

// Bus fans session events out to subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.SessionID]map[chan schema.Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus. depth sets the per-subscriber buffer; values <= 0
// use the default.
func New(logger pslog.Logger, depth int) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if depth <= 0 {
		depth = 256
	}
	return &Bus{
		subs:  make(map[schema.SessionID]map[chan schema.Event]struct{}),
		log:   logger,
		depth: depth,
	}
}

// Subscribe registers a subscriber for the session (or All) and returns a
// channel + cancel.
func (b *Bus) Subscribe(sessionID schema.SessionID) (<-chan schema.Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.Event, b.depth)
	b.mu.Lock()
	sessionSubs := b.subs[sessionID]
	if sessionSubs == nil {
		sessionSubs = make(map[chan schema.Event]struct{})
		b.subs[sessionID] = sessionSubs
	}
	sessionSubs[ch] = struct{}{}
	count := len(sessionSubs)
	b.mu.Unlock()
	b.log.With("session", sessionID).Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[sessionID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, sessionID)
				}
			}
			b.mu.Unlock()
			close(ch)
			b.log.With("session", sessionID).Debug("eventbus unsubscribe")
		})
	}
}

// OnSessionEvent publishes an event without blocking; slow subscribers drop.
func (b *Bus) OnSessionEvent(event schema.Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]chan schema.Event, 0, len(b.subs[event.Session])+len(b.subs[All]))
	for sub := range b.subs[event.Session] {
		subs = append(subs, sub)
	}
	if event.Session != All {
		for sub := range b.subs[All] {
			subs = append(subs, sub)
		}
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 {
		b.log.With("session", event.Session).Trace("eventbus dropped", "count", dropped, "kind", event.Kind)
	}
}
