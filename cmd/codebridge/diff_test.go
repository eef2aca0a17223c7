package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"pkt.systems/codebridge"
	"pkt.systems/codebridge/engine/enginetest"
	"pkt.systems/codebridge/internal/appconfig"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
)

type testLauncher struct {
	mu       sync.Mutex
	engines  []*enginetest.Engine
	sessions []*session.Session
	ready    chan struct{}
}

func newTestLauncher() *testLauncher {
	return &testLauncher{ready: make(chan struct{}, 1)}
}

func (l *testLauncher) Launch(_ context.Context, sess *session.Session, _ string) error {
	eng := enginetest.New(sess, sess.Mode())
	if err := sess.Attach(eng); err != nil {
		return err
	}
	eng.Load()
	eng.SignalReady()
	l.mu.Lock()
	l.engines = append(l.engines, eng)
	l.sessions = append(l.sessions, sess)
	l.mu.Unlock()
	l.ready <- struct{}{}
	return nil
}

func (l *testLauncher) engine(i int) *enginetest.Engine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engines[i]
}

func testConfig() appconfig.Config {
	cfg := appconfig.DefaultConfig()
	cfg.HTTP.Addr = "127.0.0.1:0"
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunDiffReportsEngineContents(t *testing.T) {
	left := writeFile(t, "a.txt", "same\n")
	right := writeFile(t, "b.txt", "same\n")
	var out bytes.Buffer
	launcher := newTestLauncher()
	err := runDiff(context.Background(), testConfig(), left, right,
		diffOptions{mode: schema.ModeCompare, timeout: 5 * time.Second}, &out,
		codebridge.WithLauncher(launcher))
	if err != nil {
		t.Fatalf("runDiff: %v", err)
	}
	text := out.String()
	for _, want := range []string{"original", "modified", left, right, "5 bytes", "identical true", "clean true"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in output:\n%s", want, text)
		}
	}
	if !launcher.engine(0).Closed() {
		t.Fatalf("expected diff session to be closed")
	}
}

func TestRunEditPrintsChanges(t *testing.T) {
	path := writeFile(t, "main.go", "package main\n")
	launcher := newTestLauncher()
	var (
		out   bytes.Buffer
		outMu sync.Mutex
	)
	w := writerFunc(func(p []byte) (int, error) {
		outMu.Lock()
		defer outMu.Unlock()
		return out.Write(p)
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runEdit(ctx, testConfig(), path, w, codebridge.WithLauncher(launcher)) }()

	select {
	case <-launcher.ready:
	case <-time.After(5 * time.Second):
		t.Fatalf("engine never launched")
	}
	eng := launcher.engine(0)
	launcher.mu.Lock()
	sess := launcher.sessions[0]
	launcher.mu.Unlock()
	settleCtx, settleCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer settleCancel()
	if _, err := session.Await(settleCtx, sess.IsClean); err != nil {
		t.Fatalf("settle: %v", err)
	}
	eng.Edit(schema.SlotContent, "package main\n\nfunc main() {}\n")
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runEdit: %v", err)
	}
	outMu.Lock()
	text := out.String()
	outMu.Unlock()
	if !strings.Contains(text, "(change 1, ") || !strings.Contains(text, "func main() {}") {
		t.Fatalf("edit not printed:\n%s", text)
	}
	if v, ok := eng.Option("SetMimeType"); !ok || v != "text/x-go" {
		t.Fatalf("expected go mime type, got %v", v)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func TestMimeForPath(t *testing.T) {
	cases := map[string]string{
		"x.go":      "text/x-go",
		"X.JSON":    "application/json",
		"README":    schema.DefaultMimeType,
		"notes.txt": schema.DefaultMimeType,
	}
	for path, want := range cases {
		if got := mimeForPath(path); got != want {
			t.Fatalf("mimeForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
