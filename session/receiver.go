package session

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"pkt.systems/codebridge/engine"
	"pkt.systems/codebridge/schema"
)

var _ engine.Listener = (*Session)(nil)

// Loaded is called by the transport when the engine page finished loading.
func (s *Session) Loaded() {
	s.mu.Lock()
	if s.closed || s.loaded {
		s.mu.Unlock()
		return
	}
	s.loaded = true
	s.mu.Unlock()
	s.log.Debug("engine page loaded")
	s.publish(schema.Event{Kind: schema.EventLoaded})
	if s.hooks.OnLoadSuccess != nil {
		s.hooks.OnLoadSuccess()
	}
}

// LoadFailed is called by the transport when the engine page could not be
// loaded. Only the first failure is reported.
func (s *Session) LoadFailed(err error) {
	if err == nil {
		err = schema.ErrLoadFailed
	}
	if !errors.Is(err, schema.ErrLoadFailed) {
		err = &schema.LoadError{Err: err}
	}
	s.mu.Lock()
	if s.closed || s.loadErr != nil {
		s.mu.Unlock()
		return
	}
	s.loadErr = err
	s.mu.Unlock()
	s.log.Warn("engine page failed to load", "err", err)
	s.publish(schema.Event{Kind: schema.EventLoadFailed, Error: err.Error()})
	if s.hooks.OnLoadFail != nil {
		s.hooks.OnLoadFail(err)
	}
}

// Receive handles a named notification posted by the engine. Unknown names
// are ignored.
func (s *Session) Receive(name string, body json.RawMessage) {
	switch engine.CanonicalEvent(name) {
	case engine.EventReady:
		s.markReady()
	case engine.EventContentChanged:
		s.contentChanged(body)
	default:
		s.log.Trace("engine event ignored", "event", name)
	}
}

func (s *Session) markReady() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.engine == nil {
		// Flushing now would resolve everything as unavailable.
		s.readyPending = true
		s.mu.Unlock()
		return
	}
	s.readyPending = false
	s.mu.Unlock()

	flushed, first := s.queue.MarkReady()
	if !first {
		s.log.Trace("duplicate engine ready ignored")
		return
	}
	close(s.readyC)
	s.log.Info("engine ready", "flushed", flushed)
	s.publish(schema.Event{Kind: schema.EventReady})
	if s.hooks.OnReady != nil {
		s.hooks.OnReady(s)
	}
}

func (s *Session) contentChanged(body json.RawMessage) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		s.log.Debug("content change without payload ignored")
		return
	}
	root := gjson.ParseBytes(body)
	for _, slot := range s.mode.Slots() {
		var value gjson.Result
		if s.mode == schema.ModeDocument && root.Type == gjson.String {
			value = root
		} else if root.IsObject() {
			value = root.Get(string(slot))
		}
		if value.Type != gjson.String {
			continue
		}
		s.applyChange(slot, value.Str)
	}
}

func (s *Session) applyChange(slot schema.Slot, value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if pending := s.echoes[slot]; len(pending) > 0 {
		for i, written := range pending {
			if written == value {
				// Echo of a host write; anything older was overtaken.
				s.echoes[slot] = pending[i+1:]
				s.known[slot] = value
				s.mu.Unlock()
				return
			}
		}
	}
	if prev, ok := s.known[slot]; ok && prev == value {
		s.mu.Unlock()
		return
	}
	// The engine moved past every outstanding host write.
	delete(s.echoes, slot)
	s.known[slot] = value
	s.mu.Unlock()

	s.log.Debug("engine content changed", "slot", slot, "bytes", len(value))
	s.publish(schema.Event{Kind: schema.EventContentChanged, Slot: slot, Value: value})
	if s.hooks.OnContentChange != nil {
		s.hooks.OnContentChange(slot, value)
	}
}
