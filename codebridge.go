// Package codebridge hosts embedded editor engines and keeps them in sync
// with host-side state.
package codebridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"pkt.systems/codebridge/httpapi"
	"pkt.systems/codebridge/internal/eventbus"
	"pkt.systems/codebridge/internal/logx"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
	"pkt.systems/pslog"
)

// Transport selects how engines are hosted.
type Transport string

const (
	// TransportChromedp launches one headless Chrome tab per session.
	TransportChromedp Transport = "chromedp"
	// TransportWebsocket waits for an external web view to load the session
	// page and connect back over the bridge endpoint.
	TransportWebsocket Transport = "websocket"
)

// ParseTransport validates a transport name. Empty selects chromedp.
func ParseTransport(value string) (Transport, error) {
	switch Transport(strings.ToLower(strings.TrimSpace(value))) {
	case "", TransportChromedp:
		return TransportChromedp, nil
	case TransportWebsocket:
		return TransportWebsocket, nil
	default:
		return "", fmt.Errorf("unknown engine transport %q", value)
	}
}

// Config configures a Host.
type Config struct {
	HTTP      httpapi.Config
	Transport Transport
	// Editor is applied to sessions opened without their own configuration.
	Editor         schema.EditorConfig
	MaxSessions    int
	EventBuffer    int
	CommandTimeout time.Duration
}

// Host owns the session registry, the event bus, the HTTP server, and the
// engines behind each session.
type Host struct {
	cfg      Config
	registry *session.Registry
	bus      *eventbus.Bus
	http     *httpapi.Server
	launcher Launcher

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	origin  string
	started bool
	logger  pslog.Logger
}

// Option customizes a Host.
type Option func(*Host)

// WithLauncher replaces the engine launcher. A nil launcher leaves
// sessions waiting for a bridge peer.
func WithLauncher(l Launcher) Option {
	return func(h *Host) { h.launcher = l }
}

// New constructs a Host. Chromedp hosts launch Chrome with chrome unless
// WithLauncher overrides it.
func New(cfg Config, chrome ChromeConfig, opts ...Option) (*Host, error) {
	if cfg.Transport == "" {
		cfg.Transport = TransportChromedp
	}
	if _, err := ParseTransport(string(cfg.Transport)); err != nil {
		return nil, err
	}
	editor, err := schema.NormalizeEditorConfig(cfg.Editor)
	if err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	cfg.Editor = editor
	h := &Host{
		cfg:      cfg,
		registry: session.NewRegistry(cfg.MaxSessions),
		bus:      eventbus.New(nil, cfg.EventBuffer),
	}
	if cfg.Transport == TransportChromedp {
		h.launcher = ChromeLauncher{Config: chrome}
	}
	for _, opt := range opts {
		opt(h)
	}
	h.http = httpapi.NewServer(cfg.HTTP, h, h.bus)
	return h, nil
}

// Events returns the host-facing event bus.
func (h *Host) Events() *eventbus.Bus {
	return h.bus
}

// Start listens on the configured address and serves until ctx ends or
// Stop is called.
func (h *Host) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		pslog.Ctx(ctx).Warn("host start rejected", "reason", "already started")
		return errors.New("host already started")
	}
	ln, err := net.Listen("tcp", h.cfg.HTTP.Addr)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.errCh = make(chan error, 1)
	h.started = true
	h.logger = pslog.Ctx(h.ctx)
	h.origin = strings.TrimSpace(h.cfg.HTTP.BaseURL)
	if h.origin == "" {
		h.origin = "http://" + ln.Addr().String()
	}
	runCtx := h.ctx
	h.mu.Unlock()

	h.logger.Info(
		"host start",
		"transport", h.cfg.Transport,
		"http_addr", ln.Addr().String(),
		"http_base_url", h.cfg.HTTP.BaseURL,
		"http_base_path", h.cfg.HTTP.BasePath,
		"max_sessions", h.cfg.MaxSessions,
	)
	go func() {
		if err := httpapi.Serve(runCtx, ln, h.http.Handler()); err != nil {
			h.logger.Error("http server failed", "err", err)
			h.errCh <- err
		}
	}()
	return nil
}

// Origin returns the scheme and host engine pages are loaded from. It is
// empty until Start.
func (h *Host) Origin() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.origin
}

// Wait blocks until the host stops.
func (h *Host) Wait() error {
	h.mu.Lock()
	ctx := h.ctx
	errCh := h.errCh
	started := h.started
	h.mu.Unlock()
	if !started {
		return errors.New("host not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("host stopped", "err", err)
			_ = h.Stop(context.Background())
			return err
		}
		return nil
	}
}

// Stop closes every session and shuts the HTTP server down.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	cancel := h.cancel
	started := h.started
	log := h.logger
	runCtx := h.ctx
	h.mu.Unlock()
	if !started {
		h.registry.CloseAll()
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("host stop requested", "sessions", h.registry.Len())
	h.registry.CloseAll()
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("host stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("host stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-runCtx.Done():
		log.Info("host stopped")
		return nil
	}
}

// PageURL returns the absolute URL of a session's engine page.
func (h *Host) PageURL(sess *session.Session) string {
	return httpapi.PageURL(h.Origin(), h.cfg.HTTP.BasePath, sess.Mode(), sess.ID())
}

// OpenSession creates and registers a session and, when a launcher is set,
// starts its engine. Without a launcher the session waits for a bridge
// peer to load PageURL.
func (h *Host) OpenSession(ctx context.Context, opts session.Options) (*session.Session, error) {
	if opts.Config == (schema.EditorConfig{}) {
		opts.Config = h.cfg.Editor
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = h.cfg.CommandTimeout
	}
	if opts.Sink != nil {
		opts.Sink = eventFanout{sinks: []session.EventSink{h.bus, opts.Sink}}
	} else {
		opts.Sink = h.bus
	}
	sess, err := session.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := h.registry.Add(sess); err != nil {
		_ = sess.Close()
		return nil, err
	}
	log := logx.WithSession(ctx, sess.ID())
	if h.launcher == nil {
		log.Info("session waiting for bridge", "mode", sess.Mode())
		return sess, nil
	}
	if h.Origin() == "" {
		_ = h.CloseSession(sess.ID())
		return nil, errors.New("host not started")
	}
	if err := h.launcher.Launch(ctx, sess, h.PageURL(sess)); err != nil {
		log.Warn("session engine launch failed", "err", err)
		_ = h.CloseSession(sess.ID())
		return nil, err
	}
	log.Info("session engine launched", "mode", sess.Mode())
	return sess, nil
}

// CloseSession closes and forgets a session.
func (h *Host) CloseSession(id schema.SessionID) error {
	sess, ok := h.registry.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	return sess.Close()
}

// Session looks up a live session.
func (h *Host) Session(id schema.SessionID) (*session.Session, error) {
	return h.registry.Get(id)
}

// Sessions lists live sessions, oldest first.
func (h *Host) Sessions() []*session.Session {
	return h.registry.List()
}

var _ httpapi.Host = (*Host)(nil)
