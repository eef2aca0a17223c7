package session

import (
	"fmt"
	"sort"
	"sync"

	"pkt.systems/codebridge/schema"
)

// Registry tracks the live sessions of a host.
type Registry struct {
	mu       sync.RWMutex
	sessions map[schema.SessionID]*Session
	max      int
}

// NewRegistry returns an empty registry. max <= 0 means unlimited.
func NewRegistry(max int) *Registry {
	return &Registry{
		sessions: make(map[schema.SessionID]*Session),
		max:      max,
	}
}

// Add registers s.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		return fmt.Errorf("%w: %s", schema.ErrSessionExists, s.ID())
	}
	if r.max > 0 && len(r.sessions) >= r.max {
		return fmt.Errorf("%w: %d open", schema.ErrSessionLimit, len(r.sessions))
	}
	r.sessions[s.ID()] = s
	return nil
}

// Get returns the session with id.
func (r *Registry) Get(id schema.SessionID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove unregisters the session with id and returns it.
func (r *Registry) Remove(id schema.SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// List returns the registered sessions ordered by creation time.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].created.Equal(out[j].created) {
			return out[i].id < out[j].id
		}
		return out[i].created.Before(out[j].created)
	})
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes and unregisters every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[schema.SessionID]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		_ = s.Close()
	}
}
