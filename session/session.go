// Package session owns the host side of one embedded engine instance: it
// queues commands until the engine is ready, routes engine events to host
// callbacks, and reconciles desired display state with what was pushed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pkt.systems/codebridge/engine"
	"pkt.systems/codebridge/internal/channel"
	"pkt.systems/codebridge/internal/command"
	"pkt.systems/codebridge/internal/logx"
	"pkt.systems/codebridge/internal/readiness"
	"pkt.systems/codebridge/schema"
	"pkt.systems/pslog"
)

// Options configures a new session.
type Options struct {
	ID       schema.SessionID
	Mode     schema.Mode
	Config   schema.EditorConfig
	Contents schema.Contents

	Callbacks Callbacks
	Sink      EventSink
	// CommandTimeout bounds each engine evaluation; zero means no bound.
	CommandTimeout time.Duration
}

// Session is the host-side state of one engine instance.
type Session struct {
	id     schema.SessionID
	mode   schema.Mode
	log    pslog.Logger
	ch     *channel.Channel
	queue  *readiness.Queue
	sink   EventSink
	hooks  Callbacks
	readyC chan struct{}

	mu           sync.Mutex
	engine       engine.Engine
	initial      schema.EditorConfig
	contents     schema.Contents
	pushed       map[schema.Option]any
	known        schema.Contents
	echoes       map[schema.Slot][]string
	writing      map[schema.Slot]string
	readyPending bool
	loaded       bool
	loadErr      error
	closed       bool
	created      time.Time
}

// New creates a session in the NotReady state with no engine attached.
func New(ctx context.Context, opts Options) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	mode := opts.Mode
	if mode == "" {
		mode = schema.ModeDocument
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidMode, opts.Mode)
	}
	id := opts.ID
	if id == "" {
		id = schema.SessionID(uuid.NewString())
	}
	if err := schema.ValidateSessionID(id); err != nil {
		return nil, fmt.Errorf("session id %q: %w", id, err)
	}
	cfg, err := schema.NormalizeEditorConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	for slot := range opts.Contents {
		if !mode.HasSlot(slot) {
			return nil, fmt.Errorf("%w: %s has no %q buffer", schema.ErrInvalidSlot, mode, slot)
		}
	}
	log := logx.WithMode(logx.WithSession(ctx, id), mode)
	// The channel outlives the creating call; only Close ends it.
	ch := channel.New(logx.ContextWithSessionLogger(context.WithoutCancel(ctx), log, id), channel.Options{
		Logger:  log,
		Timeout: opts.CommandTimeout,
	})
	s := &Session{
		id:       id,
		mode:     mode,
		log:      log,
		ch:       ch,
		queue:    readiness.New(ch),
		sink:     opts.Sink,
		hooks:    opts.Callbacks,
		readyC:   make(chan struct{}),
		initial:  cfg,
		contents: opts.Contents.Clone(),
		pushed:   make(map[schema.Option]any),
		known:    make(schema.Contents),
		echoes:   make(map[schema.Slot][]string),
		writing:  make(map[schema.Slot]string),
		created:  time.Now(),
	}
	log.Debug("session created")
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() schema.SessionID { return s.id }

// Mode returns the session mode.
func (s *Session) Mode() schema.Mode { return s.mode }

// Ready reports whether the engine signalled readiness.
func (s *Session) Ready() bool { return s.queue.Ready() }

// WaitReady blocks until the engine is ready, the session closes, or ctx ends.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.readyC:
		return nil
	case <-s.ch.Done():
		return schema.ErrSessionClosed
	case <-ctx.Done():
		s.mu.Lock()
		loadErr := s.loadErr
		s.mu.Unlock()
		if loadErr != nil {
			return loadErr
		}
		return ctx.Err()
	}
}

// Attach binds the engine and queues the initial configuration and contents.
// It may only be called once.
func (s *Session) Attach(eng engine.Engine) error {
	if eng == nil {
		return schema.ErrTransportUnavailable
	}
	if err := s.ch.Attach(eng); err != nil {
		return err
	}
	s.mu.Lock()
	s.engine = eng
	cfg := s.initial
	contents := s.contents
	s.contents = nil
	readyPending := s.readyPending
	s.mu.Unlock()

	s.log.Debug("engine attached")
	// Defaults every engine page gets before the host configuration.
	if err := s.SetOption(schema.OptionMimeType, schema.AttachMimeType); err != nil {
		s.log.Warn("default mime type rejected", "err", err)
	}
	if err := s.SetOption(schema.OptionTabInsertSpaces, true); err != nil {
		s.log.Warn("default tab insert spaces rejected", "err", err)
	}
	if _, err := s.Reconcile(State{Config: &cfg}); err != nil {
		s.log.Warn("initial configuration rejected", "err", err)
	}
	for _, slot := range s.mode.Slots() {
		if err := s.SetContent(slot, contents[slot]); err != nil {
			s.log.Warn("initial content rejected", "slot", slot, "err", err)
		}
	}
	if readyPending {
		s.markReady()
	}
	return nil
}

// Attached reports whether an engine is bound.
func (s *Session) Attached() bool {
	return s.ch.Attached()
}

// Pushed returns the configuration last pushed to the engine. Options never
// pushed keep their zero value.
func (s *Session) Pushed() schema.EditorConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cfg schema.EditorConfig
	for opt, value := range s.pushed {
		_ = cfg.Set(opt, value)
	}
	return cfg
}

// Known returns the last value of slot reported by or pushed to the engine.
func (s *Session) Known(slot schema.Slot) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.known[slot]
	return value, ok
}

// Info summarizes the session for listings.
type Info struct {
	ID       schema.SessionID `json:"id"`
	Mode     schema.Mode      `json:"mode"`
	Attached bool             `json:"attached"`
	Loaded   bool             `json:"loaded"`
	Ready    bool             `json:"ready"`
	Pending  int              `json:"pending"`
	Created  time.Time        `json:"created"`
	LoadErr  string           `json:"load_error,omitempty"`
}

// Info returns a point-in-time summary.
func (s *Session) Info() Info {
	s.mu.Lock()
	info := Info{
		ID:      s.id,
		Mode:    s.mode,
		Loaded:  s.loaded,
		Created: s.created,
	}
	if s.loadErr != nil {
		info.LoadErr = s.loadErr.Error()
	}
	s.mu.Unlock()
	info.Attached = s.ch.Attached()
	info.Ready = s.queue.Ready()
	info.Pending = s.queue.Len()
	return info
}

// Close tears the session down. Queued queries resolve with their defaults;
// no further commands reach the engine.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	eng := s.engine
	s.engine = nil
	s.mu.Unlock()

	pending := s.queue.Close()
	for _, p := range pending {
		if p.Callback != nil {
			p.Callback(channel.Result{Err: schema.ErrSessionClosed})
		}
	}
	s.ch.Close()
	var err error
	if eng != nil {
		err = eng.Close()
	}
	s.log.Info("session closed", "discarded", len(pending))
	s.publish(schema.Event{Kind: schema.EventClosed})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Session) send(cmd command.Command, cb channel.Callback) {
	s.log.Trace("engine command queued", "op", cmd.Op, "ready", s.queue.Ready())
	s.queue.Send(cmd.Script(), cb)
}

func (s *Session) publish(event schema.Event) {
	if s.sink == nil {
		return
	}
	event.Session = s.id
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.sink.OnSessionEvent(event)
}
