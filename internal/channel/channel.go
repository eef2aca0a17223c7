// Package channel forwards encoded commands to an engine evaluator.
package channel

import (
	"context"
	"sync"
	"time"

	"pkt.systems/codebridge/engine"
	"pkt.systems/codebridge/schema"
	"pkt.systems/pslog"
)

// Options configures a Channel.
type Options struct {
	Logger pslog.Logger
	// Timeout bounds a single evaluation; zero means no bound.
	Timeout time.Duration
}

type request struct {
	script string
	cb     Callback
}

// Channel delivers scripts to the attached evaluator one at a time, in
// submission order. Submit never blocks; results arrive on the channel's
// dispatch goroutine.
type Channel struct {
	mu      sync.Mutex
	eval    engine.Evaluator
	pending []request
	closed  bool

	wake    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	log     pslog.Logger
	timeout time.Duration
}

// New starts a channel bound to ctx.
func New(ctx context.Context, opts Options) *Channel {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Channel{
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     logger,
		timeout: opts.Timeout,
	}
	go c.run()
	return c
}

// Attach binds the evaluator. It may only be called once.
func (c *Channel) Attach(eval engine.Evaluator) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return schema.ErrSessionClosed
	}
	if c.eval != nil {
		return schema.ErrAlreadyAttached
	}
	c.eval = eval
	return nil
}

// Attached reports whether an evaluator is bound.
func (c *Channel) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eval != nil
}

// Submit enqueues a script. After Close the callback, if any, is invoked
// immediately with schema.ErrSessionClosed.
func (c *Channel) Submit(script string, cb Callback) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if cb != nil {
			cb(Result{Err: schema.ErrSessionClosed})
		}
		return
	}
	c.pending = append(c.pending, request{script: script, cb: cb})
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Close stops the dispatcher and releases the evaluator. Commands still
// queued are resolved with schema.ErrSessionClosed; an in-flight evaluation
// is cancelled.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.eval = nil
	c.mu.Unlock()
	c.cancel()
}

// Done is closed once the dispatcher exited.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

func (c *Channel) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.drain()
			return
		case <-c.wake:
		}
		for c.ctx.Err() == nil {
			c.mu.Lock()
			if len(c.pending) == 0 {
				c.mu.Unlock()
				break
			}
			req := c.pending[0]
			c.pending[0] = request{}
			c.pending = c.pending[1:]
			eval := c.eval
			c.mu.Unlock()
			c.dispatch(eval, req)
		}
	}
}

func (c *Channel) dispatch(eval engine.Evaluator, req request) {
	if eval == nil {
		c.log.Debug("engine command dropped", "reason", "transport unavailable")
		if req.cb != nil {
			req.cb(Result{Err: schema.ErrTransportUnavailable})
		}
		return
	}
	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	value, err := eval.Evaluate(ctx, req.script)
	if err != nil {
		c.log.Warn("engine command failed", "err", err, "duration_ms", time.Since(start).Milliseconds())
	} else {
		c.log.Trace("engine command ok", "bytes", len(value), "duration_ms", time.Since(start).Milliseconds())
	}
	if req.cb != nil {
		req.cb(Result{Value: value, Err: err})
	}
}

func (c *Channel) drain() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.closed = true
	c.eval = nil
	c.mu.Unlock()
	if len(pending) > 0 {
		c.log.Debug("engine commands discarded", "count", len(pending))
	}
	for _, req := range pending {
		if req.cb != nil {
			req.cb(Result{Err: schema.ErrSessionClosed})
		}
	}
}
