// Package readiness buffers commands until the engine signals it is ready.
package readiness

import (
	"sync"

	"pkt.systems/codebridge/internal/channel"
	"pkt.systems/codebridge/schema"
)

// Sink accepts commands once the engine is ready. Submit must not block.
type Sink interface {
	Submit(script string, cb channel.Callback)
}

// Pending is a command issued before readiness.
type Pending struct {
	Script   string
	Callback channel.Callback
}

// Queue is a one-way NotReady -> Ready gate in front of a Sink.
type Queue struct {
	mu      sync.Mutex
	sink    Sink
	ready   bool
	closed  bool
	pending []Pending
}

// New returns a queue in the NotReady state.
func New(sink Sink) *Queue {
	return &Queue{sink: sink}
}

// Send forwards the command when ready and buffers it otherwise. The lock is
// held across the forward so a concurrent flush cannot be overtaken.
func (q *Queue) Send(script string, cb channel.Callback) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		if cb != nil {
			cb(channel.Result{Err: schema.ErrSessionClosed})
		}
		return
	}
	if !q.ready {
		q.pending = append(q.pending, Pending{Script: script, Callback: cb})
		q.mu.Unlock()
		return
	}
	q.sink.Submit(script, cb)
	q.mu.Unlock()
}

// MarkReady flips the queue to Ready and forwards every buffered command in
// insertion order. It returns the number flushed and false when the queue
// was already ready or closed.
func (q *Queue) MarkReady() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ready || q.closed {
		return 0, false
	}
	q.ready = true
	pending := q.pending
	q.pending = nil
	for _, p := range pending {
		q.sink.Submit(p.Script, p.Callback)
	}
	return len(pending), true
}

// Ready reports whether the ready signal was received.
func (q *Queue) Ready() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready
}

// Len returns the number of buffered commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close rejects further sends and returns the commands that never left the
// buffer, in insertion order.
func (q *Queue) Close() []Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	pending := q.pending
	q.pending = nil
	return pending
}
