package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/codebridge/schema"
	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithSessionAddsField(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	log := WithSession(ctx, "s1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["session"] != "s1" {
		t.Fatalf("expected session field, got %+v", entry)
	}
}

func TestWithSessionSkipsDuplicateMarker(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture).With("session", "s1")
	ctx := ContextWithSessionLogger(context.Background(), logger, "s1")
	WithSession(ctx, "s1").Info("hello")

	line := capture.buf.String()
	if bytes.Count([]byte(line), []byte(`"session"`)) != 1 {
		t.Fatalf("expected a single session field, got %s", line)
	}
}

func TestWithSlotAndMode(t *testing.T) {
	capture := &logCapture{}
	log := WithSlot(WithMode(newCaptureLogger(capture), schema.ModeDiff), schema.SlotRight)
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["mode"] != "diff" || entry["slot"] != "right" {
		t.Fatalf("expected mode and slot fields, got %+v", entry)
	}
}

func TestWithSlotEmptyIsNoop(t *testing.T) {
	capture := &logCapture{}
	WithSlot(newCaptureLogger(capture), "").Info("hello")
	entry := capture.firstEntry(t)
	if _, ok := entry["slot"]; ok {
		t.Fatalf("did not expect slot field, got %+v", entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
