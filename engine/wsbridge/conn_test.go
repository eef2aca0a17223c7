package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/codebridge/engine"
	"pkt.systems/codebridge/engine/enginetest"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
)

type recordListener struct {
	loaded chan struct{}
	events chan string
}

func newRecordListener() *recordListener {
	return &recordListener{loaded: make(chan struct{}, 1), events: make(chan string, 16)}
}

func (r *recordListener) Loaded()          { r.loaded <- struct{}{} }
func (r *recordListener) LoadFailed(error) {}
func (r *recordListener) Receive(name string, body json.RawMessage) {
	r.events <- name + " " + string(body)
}

// page plays the browser side of the bridge.
type page struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	eval    func(script string) (json.RawMessage, error)
}

func (p *page) send(msg Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(msg)
}

func (p *page) Loaded()          {}
func (p *page) LoadFailed(error) {}
func (p *page) Receive(name string, body json.RawMessage) {
	_ = p.send(Message{Type: TypeEvent, Name: name, Body: body})
}

func (p *page) run() {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := DecodeMessage(data)
		if err != nil || msg.Type != TypeEval {
			continue
		}
		go func(msg Message) {
			value, err := p.eval(msg.Script)
			reply := Message{Type: TypeResult, ID: msg.ID, Value: value}
			if err != nil {
				reply.Error = err.Error()
			}
			_ = p.send(reply)
		}(msg)
	}
}

func newBridgeServer(t *testing.T, listener engine.Listener) (*httptest.Server, chan *Conn) {
	t.Helper()
	conns := make(chan *Conn, 1)
	upgrader := NewUpgrader(nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConn(ws, listener, nil)
		conns <- conn
		_ = conn.Serve(context.Background())
	}))
	t.Cleanup(server.Close)
	return server, conns
}

func dialPage(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestConnEvaluateAndEvents(t *testing.T) {
	rec := newRecordListener()
	server, conns := newBridgeServer(t, rec)
	p := &page{conn: dialPage(t, server)}
	p.eval = func(script string) (json.RawMessage, error) {
		switch script {
		case "Fail()":
			return nil, errors.New("ReferenceError: Fail is not defined")
		case "Nothing()":
			return nil, nil
		}
		return json.Marshal("echo:" + script)
	}
	go p.run()
	conn := <-conns

	select {
	case <-rec.loaded:
	case <-time.After(2 * time.Second):
		t.Fatalf("no load notification")
	}
	if err := p.send(Message{Type: TypeEvent, Name: "ready"}); err != nil {
		t.Fatalf("send event: %v", err)
	}
	select {
	case ev := <-rec.events:
		if ev != "ready " {
			t.Fatalf("unexpected event %q", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := conn.Evaluate(ctx, "IsClean()")
	if err != nil || string(raw) != `"echo:IsClean()"` {
		t.Fatalf("evaluate = %s, %v", raw, err)
	}
	raw, err = conn.Evaluate(ctx, "Nothing()")
	if err != nil || raw != nil {
		t.Fatalf("expected empty result, got %s, %v", raw, err)
	}
	var evalErr *EvalError
	if _, err := conn.Evaluate(ctx, "Fail()"); !errors.As(err, &evalErr) {
		t.Fatalf("expected eval error, got %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not return")
	}
	if _, err := conn.Evaluate(ctx, "IsClean()"); !errors.Is(err, schema.ErrTransportUnavailable) {
		t.Fatalf("expected unavailable after close, got %v", err)
	}
}

func TestConnFailsPendingOnDisconnect(t *testing.T) {
	rec := newRecordListener()
	server, conns := newBridgeServer(t, rec)
	ws := dialPage(t, server)
	conn := <-conns

	errc := make(chan error, 1)
	go func() {
		_, err := conn.Evaluate(context.Background(), "IsClean()")
		errc <- err
	}()
	// Wait for the eval frame, then drop the socket without answering.
	if _, _, err := ws.ReadMessage(); err != nil {
		t.Fatalf("read eval: %v", err)
	}
	_ = ws.Close()
	select {
	case err := <-errc:
		if !errors.Is(err, schema.ErrTransportUnavailable) {
			t.Fatalf("expected unavailable, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("pending evaluation never failed")
	}
}

func TestSessionOverBridge(t *testing.T) {
	changes := make(chan string, 4)
	sess, err := session.New(context.Background(), session.Options{
		Mode:     schema.ModeDiff,
		Contents: schema.Contents{schema.SlotLeft: "a\nb", schema.SlotRight: "a\nc"},
		Callbacks: session.Callbacks{
			OnContentChange: func(slot schema.Slot, value string) { changes <- string(slot) + "=" + value },
		},
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	server, conns := newBridgeServer(t, sess)
	p := &page{conn: dialPage(t, server)}
	fake := enginetest.New(p, schema.ModeDiff)
	fake.AutoEcho = true
	p.eval = func(script string) (json.RawMessage, error) {
		return fake.Evaluate(context.Background(), script)
	}
	go p.run()
	conn := <-conns
	if err := sess.Attach(conn); err != nil {
		t.Fatalf("attach: %v", err)
	}
	fake.SignalReady()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.WaitReady(ctx); err != nil {
		t.Fatalf("wait ready: %v", err)
	}
	right, err := session.AwaitContent(ctx, sess, schema.SlotRight)
	if err != nil || right != "a\nc" {
		t.Fatalf("right = %q, %v", right, err)
	}

	fake.Edit(schema.SlotRight, "a\nd")
	select {
	case got := <-changes:
		if got != "right=a\nd" {
			t.Fatalf("unexpected change %q", got)
		}
	case <-ctx.Done():
		t.Fatalf("no change callback")
	}
	select {
	case got := <-changes:
		t.Fatalf("unexpected extra change %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
