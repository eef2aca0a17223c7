// Package wsbridge connects engine pages running in any browser to their
// sessions over a websocket.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/codebridge/engine"
	"pkt.systems/codebridge/schema"
	"pkt.systems/pslog"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// EvalError is a script failure reported by the page.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string {
	return "engine: " + e.Message
}

// Conn is the host end of one page connection. It implements engine.Engine.
type Conn struct {
	conn *websocket.Conn
	log  pslog.Logger
	pump *engine.Pump

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan Message
	closed  bool
	done    chan struct{}
}

var _ engine.Engine = (*Conn)(nil)

// NewConn wraps an upgraded connection. Nothing is read until Serve runs.
func NewConn(conn *websocket.Conn, listener engine.Listener, logger pslog.Logger) *Conn {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Conn{
		conn:    conn,
		log:     logger,
		pump:    engine.NewPump(listener),
		pending: make(map[uint64]chan Message),
		done:    make(chan struct{}),
	}
}

// Serve reads frames until the connection ends. The page counts as loaded
// once its socket is open.
func (c *Conn) Serve(ctx context.Context) error {
	defer c.shutdown()
	c.pump.Loaded()

	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.pingLoop(pingCtx)
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || c.isClosed() {
				return nil
			}
			return err
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			c.log.Debug("bridge frame ignored", "err", err)
			continue
		}
		switch msg.Type {
		case TypeResult:
			c.resolve(msg)
		case TypeEvent:
			c.pump.Receive(msg.Name, msg.Body)
		default:
			c.log.Debug("bridge frame ignored", "type", msg.Type)
		}
	}
}

// Evaluate sends script to the page and waits for its result.
func (c *Conn) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	reply := make(chan Message, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, schema.ErrTransportUnavailable
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = reply
	c.mu.Unlock()

	if err := c.write(Message{Type: TypeEval, ID: id, Script: script}); err != nil {
		c.forget(id)
		return nil, fmt.Errorf("%w: %v", schema.ErrTransportUnavailable, err)
	}
	select {
	case msg, ok := <-reply:
		if !ok {
			return nil, schema.ErrTransportUnavailable
		}
		if msg.Error != "" {
			return nil, &EvalError{Message: msg.Error}
		}
		return msg.Value, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

// Close ends the connection. Outstanding evaluations fail.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
	c.writeMu.Unlock()
	err := c.conn.Close()
	if errors.Is(err, websocket.ErrCloseSent) {
		err = nil
	}
	return err
}

// Done is closed when Serve returned.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) write(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *Conn) resolve(msg Message) {
	c.mu.Lock()
	reply, ok := c.pending[msg.ID]
	delete(c.pending, msg.ID)
	c.mu.Unlock()
	if !ok {
		c.log.Debug("bridge result without request", "id", msg.ID)
		return
	}
	reply <- msg
}

func (c *Conn) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) shutdown() {
	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]chan Message)
	c.mu.Unlock()
	for _, reply := range pending {
		close(reply)
	}
	_ = c.conn.Close()
	c.pump.Stop()
	close(c.done)
}

func (c *Conn) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
