package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pkt.systems/codebridge/schema"
)

type recordingEvaluator struct {
	mu      sync.Mutex
	scripts []string
	answer  func(script string) (json.RawMessage, error)
}

func (r *recordingEvaluator) Evaluate(_ context.Context, script string) (json.RawMessage, error) {
	r.mu.Lock()
	r.scripts = append(r.scripts, script)
	r.mu.Unlock()
	if r.answer != nil {
		return r.answer(script)
	}
	return nil, nil
}

func (r *recordingEvaluator) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.scripts...)
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for result")
		return Result{}
	}
}

func TestSubmitPreservesOrder(t *testing.T) {
	eval := &recordingEvaluator{}
	c := New(context.Background(), Options{})
	defer c.Close()
	if err := c.Attach(eval); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	done := make(chan Result, 1)
	for _, script := range []string{"A()", "B()", "C()"} {
		c.Submit(script, nil)
	}
	c.Submit("D()", func(r Result) { done <- r })
	waitResult(t, done)
	got := eval.seen()
	want := []string{"A()", "B()", "C()", "D()"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSubmitDeliversEvaluatorError(t *testing.T) {
	boom := errors.New("ReferenceError: Nope is not defined")
	eval := &recordingEvaluator{answer: func(string) (json.RawMessage, error) { return nil, boom }}
	c := New(context.Background(), Options{})
	defer c.Close()
	_ = c.Attach(eval)
	done := make(chan Result, 1)
	c.Submit("Nope()", func(r Result) { done <- r })
	res := waitResult(t, done)
	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected evaluator error, got %v", res.Err)
	}
	if res.Bool(true) != true {
		t.Fatalf("expected default on failure")
	}
}

func TestSubmitWithoutTransportResolvesUnavailable(t *testing.T) {
	c := New(context.Background(), Options{})
	defer c.Close()
	done := make(chan Result, 1)
	c.Submit("IsClean()", func(r Result) { done <- r })
	res := waitResult(t, done)
	if !errors.Is(res.Err, schema.ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", res.Err)
	}
}

func TestSubmitAfterCloseDoesNotPanic(t *testing.T) {
	c := New(context.Background(), Options{})
	c.Close()
	<-c.Done()
	var got Result
	c.Submit("IsClean()", func(r Result) { got = r })
	c.Submit("ClearHistory()", nil)
	if !errors.Is(got.Err, schema.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", got.Err)
	}
	if err := c.Attach(&recordingEvaluator{}); !errors.Is(err, schema.ErrSessionClosed) {
		t.Fatalf("expected attach after close to fail, got %v", err)
	}
}

func TestAttachTwiceFails(t *testing.T) {
	c := New(context.Background(), Options{})
	defer c.Close()
	if err := c.Attach(&recordingEvaluator{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := c.Attach(&recordingEvaluator{}); !errors.Is(err, schema.ErrAlreadyAttached) {
		t.Fatalf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestCallbackMaySubmit(t *testing.T) {
	eval := &recordingEvaluator{}
	c := New(context.Background(), Options{})
	defer c.Close()
	_ = c.Attach(eval)
	done := make(chan Result, 1)
	c.Submit("First()", func(Result) {
		c.Submit("Second()", func(r Result) { done <- r })
	})
	waitResult(t, done)
	got := eval.seen()
	if len(got) != 2 || got[1] != "Second()" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestResultCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		str  string
		b    bool
		n    int
	}{
		{"string", `"hello"`, "hello", false, 7},
		{"true", `true`, "", true, 7},
		{"number", `12`, "", false, 12},
		{"float", `1.5`, "", false, 7},
		{"object", `{"a":1}`, "", false, 7},
		{"garbage", `not json`, "", false, 7},
	}
	for _, tc := range cases {
		res := Result{Value: json.RawMessage(tc.raw)}
		if got := res.String(""); got != tc.str {
			t.Fatalf("case %q: String = %q", tc.name, got)
		}
		if got := res.Bool(false); got != tc.b {
			t.Fatalf("case %q: Bool = %v", tc.name, got)
		}
		if got := res.Int(7); got != tc.n {
			t.Fatalf("case %q: Int = %d", tc.name, got)
		}
	}
}

func TestResultStrings(t *testing.T) {
	list := Result{Value: json.RawMessage(`["text/x-go","text/x-swift"]`)}.Strings()
	if len(list) != 2 || list[1] != "text/x-swift" {
		t.Fatalf("unexpected list %v", list)
	}
	csv := Result{Value: json.RawMessage(`"text/x-go, text/x-swift,"`)}.Strings()
	if len(csv) != 2 || csv[0] != "text/x-go" {
		t.Fatalf("unexpected csv list %v", csv)
	}
	if got := (Result{Value: json.RawMessage(`[1,2]`)}).Strings(); got != nil {
		t.Fatalf("expected nil for mixed list, got %v", got)
	}
}
