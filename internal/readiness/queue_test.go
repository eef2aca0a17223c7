package readiness

import (
	"errors"
	"sync"
	"testing"

	"pkt.systems/codebridge/internal/channel"
	"pkt.systems/codebridge/schema"
)

type sliceSink struct {
	mu      sync.Mutex
	scripts []string
}

func (s *sliceSink) Submit(script string, cb channel.Callback) {
	s.mu.Lock()
	s.scripts = append(s.scripts, script)
	s.mu.Unlock()
	if cb != nil {
		cb(channel.Result{})
	}
}

func (s *sliceSink) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

func TestQueueBuffersUntilReady(t *testing.T) {
	sink := &sliceSink{}
	q := New(sink)
	q.Send("A()", nil)
	q.Send("B()", nil)
	q.Send("C()", nil)
	if got := sink.seen(); len(got) != 0 {
		t.Fatalf("expected nothing forwarded before ready, got %v", got)
	}
	if q.Len() != 3 {
		t.Fatalf("expected 3 buffered, got %d", q.Len())
	}
	n, ok := q.MarkReady()
	if !ok || n != 3 {
		t.Fatalf("MarkReady = %d, %v", n, ok)
	}
	q.Send("D()", nil)
	got := sink.seen()
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

func TestQueueMarkReadyOnce(t *testing.T) {
	sink := &sliceSink{}
	q := New(sink)
	q.Send("A()", nil)
	if _, ok := q.MarkReady(); !ok {
		t.Fatalf("expected first MarkReady to flip")
	}
	if n, ok := q.MarkReady(); ok || n != 0 {
		t.Fatalf("expected second MarkReady to be a no-op, got %d %v", n, ok)
	}
	if got := sink.seen(); len(got) != 1 {
		t.Fatalf("expected exactly one delivery, got %v", got)
	}
}

func TestQueueConcurrentSendsDuringFlushKeepOrder(t *testing.T) {
	sink := &sliceSink{}
	q := New(sink)
	for i := 0; i < 100; i++ {
		q.Send("pre()", nil)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			q.Send("post()", nil)
		}
	}()
	q.MarkReady()
	wg.Wait()
	got := sink.seen()
	seenPost := false
	pre := 0
	for _, s := range got {
		switch s {
		case "post()":
			seenPost = true
		case "pre()":
			pre++
			if seenPost {
				t.Fatalf("buffered command delivered after a later send")
			}
		}
	}
	if pre != 100 || len(got) != 200 {
		t.Fatalf("expected 200 deliveries with 100 buffered, got %d/%d", pre, len(got))
	}
}

func TestQueueCloseReturnsPending(t *testing.T) {
	q := New(&sliceSink{})
	q.Send("A()", nil)
	q.Send("B()", nil)
	pending := q.Close()
	if len(pending) != 2 || pending[0].Script != "A()" {
		t.Fatalf("unexpected pending %v", pending)
	}
	var got channel.Result
	q.Send("C()", func(r channel.Result) { got = r })
	if !errors.Is(got.Err, schema.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", got.Err)
	}
	if _, ok := q.MarkReady(); ok {
		t.Fatalf("expected MarkReady after Close to be a no-op")
	}
}
