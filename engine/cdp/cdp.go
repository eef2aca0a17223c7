// Package cdp runs engine pages in a Chrome instance driven over the
// DevTools protocol.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/tidwall/gjson"

	"pkt.systems/codebridge/engine"
	"pkt.systems/codebridge/schema"
	"pkt.systems/pslog"
)

// BindingName is the page function engine pages call to post events.
const BindingName = "codebridgePost"

const defaultStartupTimeout = 30 * time.Second

// Config controls how Chrome is started.
type Config struct {
	// ChromePath overrides the browser executable.
	ChromePath string
	// Headless runs Chrome without a window.
	Headless bool
	// NoSandbox disables the Chrome sandbox, needed in most containers.
	NoSandbox bool
	// StartupTimeout bounds browser start; zero uses 30s.
	StartupTimeout time.Duration
	Logger         pslog.Logger
}

// Engine is one Chrome tab hosting an engine page.
type Engine struct {
	log      pslog.Logger
	pump     *engine.Pump
	tab      context.Context
	cancel   context.CancelFunc
	closeMu  sync.Mutex
	closed   bool
	navigate sync.Once
}

var _ engine.Engine = (*Engine)(nil)

// Launch starts Chrome, installs the event binding, and returns the engine
// without loading a page. Call Open once the engine is attached to its
// session so no early notification is lost.
func Launch(ctx context.Context, cfg Config, listener engine.Listener) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),
	)
	if strings.TrimSpace(cfg.ChromePath) != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chrome", "msg", fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Warn("chrome", "msg", fmt.Sprintf(format, args...))
		}),
	)
	e := &Engine{
		log:  logger,
		pump: engine.NewPump(listener),
		tab:  tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}
	chromedp.ListenTarget(tabCtx, e.onTargetEvent)

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}
	// The first Run allocates the browser and must not carry a deadline,
	// or the browser dies with it.
	timer := time.AfterFunc(timeout, e.cancel)
	err := chromedp.Run(tabCtx, runtime.AddBinding(BindingName))
	if !timer.Stop() && err == nil {
		err = context.DeadlineExceeded
	}
	if err != nil {
		e.cancel()
		e.pump.Stop()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	logger.Debug("chrome started", "headless", cfg.Headless)
	return e, nil
}

// Open loads the engine page at url and reports the outcome to the
// listener. Only the first call navigates.
func (e *Engine) Open(ctx context.Context, url string) error {
	var err error
	e.navigate.Do(func() {
		runCtx, stop := e.bind(ctx)
		defer stop()
		err = chromedp.Run(runCtx, chromedp.Navigate(url))
		if err != nil {
			err = &schema.LoadError{URL: url, Err: err}
			e.log.Warn("engine page load failed", "url", url, "err", err)
			e.pump.LoadFailed(err)
			return
		}
		e.log.Debug("engine page loaded", "url", url)
		e.pump.Loaded()
	})
	return err
}

// Evaluate runs script in the page and returns its JSON value.
func (e *Engine) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	runCtx, stop := e.bind(ctx)
	defer stop()
	var raw []byte
	err := chromedp.Run(runCtx, chromedp.Evaluate(script, &raw))
	if errors.Is(err, chromedp.ErrJSUndefined) || errors.Is(err, chromedp.ErrJSNull) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// Close shuts the tab and the browser down.
func (e *Engine) Close() error {
	e.closeMu.Lock()
	if e.closed {
		e.closeMu.Unlock()
		return nil
	}
	e.closed = true
	e.closeMu.Unlock()
	e.cancel()
	e.pump.Stop()
	return nil
}

// bind derives a context that carries the tab and ends with either ctx or
// the tab.
func (e *Engine) bind(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(e.tab)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (e *Engine) onTargetEvent(ev any) {
	called, ok := ev.(*runtime.EventBindingCalled)
	if !ok || called.Name != BindingName {
		return
	}
	name, body, ok := DecodePost(called.Payload)
	if !ok {
		e.log.Debug("malformed engine post ignored", "bytes", len(called.Payload))
		return
	}
	e.pump.Receive(name, body)
}

// DecodePost splits a binding payload of the form {"name":..,"body":..}.
func DecodePost(payload string) (string, json.RawMessage, bool) {
	if !gjson.Valid(payload) {
		return "", nil, false
	}
	root := gjson.Parse(payload)
	name := root.Get("name")
	if name.Type != gjson.String || name.Str == "" {
		return "", nil, false
	}
	var body json.RawMessage
	if raw := root.Get("body"); raw.Exists() {
		body = json.RawMessage(raw.Raw)
	}
	return name.Str, body, true
}
