package codebridge

import (
	"context"

	"pkt.systems/codebridge/engine/cdp"
	"pkt.systems/codebridge/internal/logx"
	"pkt.systems/codebridge/session"
)

// ChromeConfig controls how Chrome is started for chromedp sessions.
type ChromeConfig = cdp.Config

// Launcher starts the engine behind a session and attaches it.
type Launcher interface {
	Launch(ctx context.Context, sess *session.Session, pageURL string) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, sess *session.Session, pageURL string) error

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, sess *session.Session, pageURL string) error {
	return f(ctx, sess, pageURL)
}

// ChromeLauncher hosts each session in its own Chrome tab.
type ChromeLauncher struct {
	Config ChromeConfig
}

// Launch starts Chrome, attaches the tab to sess, then loads the page so
// the load notification reaches an attached session.
func (l ChromeLauncher) Launch(ctx context.Context, sess *session.Session, pageURL string) error {
	cfg := l.Config
	if cfg.Logger == nil {
		cfg.Logger = logx.WithSession(ctx, sess.ID())
	}
	eng, err := cdp.Launch(ctx, cfg, sess)
	if err != nil {
		return err
	}
	if err := sess.Attach(eng); err != nil {
		_ = eng.Close()
		return err
	}
	return eng.Open(ctx, pageURL)
}
