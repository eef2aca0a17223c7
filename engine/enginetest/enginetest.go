// Package enginetest provides an in-memory engine that speaks the command
// protocol, for exercising sessions without a browser.
package enginetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"pkt.systems/codebridge/engine"
	"pkt.systems/codebridge/internal/command"
	"pkt.systems/codebridge/schema"
)

// ErrClosed is returned by Evaluate after Close.
var ErrClosed = errors.New("enginetest: engine closed")

var slotBySetter = map[command.Op]schema.Slot{
	command.OpSetContent:      schema.SlotContent,
	command.OpSetLeftContent:  schema.SlotLeft,
	command.OpSetRightContent: schema.SlotRight,
	command.OpSetOriginalCode: schema.SlotOriginal,
	command.OpSetModifiedCode: schema.SlotModified,
}

var slotByGetter = map[command.Op]schema.Slot{
	command.OpGetContent:      schema.SlotContent,
	command.OpGetLeftContent:  schema.SlotLeft,
	command.OpGetRightContent: schema.SlotRight,
	command.OpGetOriginalCode: schema.SlotOriginal,
	command.OpGetModifiedCode: schema.SlotModified,
}

var getterSource = map[command.Op]command.Op{
	command.OpGetMimeType:        command.OpSetMimeType,
	command.OpGetReadOnly:        command.OpSetReadOnly,
	command.OpGetLineWrapping:    command.OpSetLineWrapping,
	command.OpGetTabInsertSpaces: command.OpSetTabInsertSpaces,
	command.OpGetTabSize:         command.OpSetTabSize,
	command.OpGetIndentUnit:      command.OpSetIndentUnit,
}

// Engine is a fake engine. The zero value is not usable; call New.
type Engine struct {
	mu        sync.Mutex
	listener  engine.Listener
	slots     map[schema.Slot]string
	options   map[command.Op]any
	scripts   []string
	failures  map[command.Op]error
	selection string
	clean     bool
	cleared   int
	refreshed int
	closed    bool

	// AutoEcho makes content writes emit a change event for the written
	// slot, like a real editor does.
	AutoEcho bool
	// Mode shapes change event payloads.
	Mode schema.Mode
}

// New returns a fake engine that delivers events to listener.
func New(listener engine.Listener, mode schema.Mode) *Engine {
	return &Engine{
		listener: listener,
		slots:    make(map[schema.Slot]string),
		options:  make(map[command.Op]any),
		failures: make(map[command.Op]error),
		clean:    true,
		Mode:     mode,
	}
}

var _ engine.Engine = (*Engine)(nil)

// Evaluate runs one protocol script against the in-memory state.
func (e *Engine) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd, err := command.Parse(script)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	e.scripts = append(e.scripts, script)
	if err := e.failures[cmd.Op]; err != nil {
		e.mu.Unlock()
		return nil, err
	}
	var (
		value any
		echo  json.RawMessage
	)
	switch {
	case slotBySetter[cmd.Op] != "":
		slot := slotBySetter[cmd.Op]
		e.slots[slot] = cmd.Args[0].Value().(string)
		if e.AutoEcho {
			echo = e.payloadLocked(slot)
		}
	case slotByGetter[cmd.Op] != "":
		value = e.slots[slotByGetter[cmd.Op]]
	case getterSource[cmd.Op] != "":
		value = e.options[getterSource[cmd.Op]]
	case cmd.Op == command.OpGetTextSelection:
		value = e.selection
	case cmd.Op == command.OpSupportedMimeTypes:
		value = []string{schema.AttachMimeType, schema.DefaultMimeType, "text/x-go"}
	case cmd.Op == command.OpIsClean:
		value = e.clean
	case cmd.Op == command.OpClearHistory:
		e.clean = true
		e.cleared++
	case cmd.Op == command.OpRefreshDiffView:
		e.refreshed++
	case len(cmd.Args) == 1:
		e.options[cmd.Op] = cmd.Args[0].Value()
	}
	listener := e.listener
	e.mu.Unlock()

	if echo != nil && listener != nil {
		listener.Receive(engine.EventContentChanged, echo)
	}
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Load reports a successful page load.
func (e *Engine) Load() {
	e.listener.Loaded()
}

// FailLoad reports a failed page load.
func (e *Engine) FailLoad(err error) {
	e.listener.LoadFailed(err)
}

// SignalReady posts the ready notification.
func (e *Engine) SignalReady() {
	e.listener.Receive(engine.EventReady, nil)
}

// Post delivers an arbitrary notification.
func (e *Engine) Post(name string, body json.RawMessage) {
	e.listener.Receive(name, body)
}

// Edit simulates a user edit of slot and posts the change notification.
func (e *Engine) Edit(slot schema.Slot, text string) {
	e.mu.Lock()
	e.slots[slot] = text
	e.clean = false
	body := e.payloadLocked(e.modeLocked().Slots()...)
	e.mu.Unlock()
	e.listener.Receive(engine.EventContentChanged, body)
}

// Select sets the text GetTextSelection answers with.
func (e *Engine) Select(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = text
}

// Put sets slot without notifying anyone.
func (e *Engine) Put(slot schema.Slot, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slots[slot] = text
}

// Fail makes every evaluation of op return err. A nil err clears it.
func (e *Engine) Fail(op command.Op, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.failures, op)
		return
	}
	e.failures[op] = err
}

// Slot returns the engine's text for slot.
func (e *Engine) Slot(slot schema.Slot) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots[slot]
}

// Option returns the last value written by the setter op.
func (e *Engine) Option(op command.Op) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.options[op]
	return v, ok
}

// Scripts returns every script evaluated so far.
func (e *Engine) Scripts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.scripts...)
}

// Ops returns the operation of every script evaluated so far.
func (e *Engine) Ops() []command.Op {
	scripts := e.Scripts()
	out := make([]command.Op, 0, len(scripts))
	for _, script := range scripts {
		cmd, err := command.Parse(script)
		if err != nil {
			continue
		}
		out = append(out, cmd.Op)
	}
	return out
}

// Count returns how many times op was evaluated.
func (e *Engine) Count(op command.Op) int {
	n := 0
	for _, got := range e.Ops() {
		if got == op {
			n++
		}
	}
	return n
}

// Reset forgets the evaluated scripts.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts = nil
}

// Cleared returns how many times the history was cleared.
func (e *Engine) Cleared() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleared
}

// Refreshed returns how many times the diff view was refreshed.
func (e *Engine) Refreshed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshed
}

func (e *Engine) modeLocked() schema.Mode {
	if e.Mode == "" {
		return schema.ModeDocument
	}
	return e.Mode
}

// payloadLocked encodes the change notification body for slots.
func (e *Engine) payloadLocked(slots ...schema.Slot) json.RawMessage {
	body := make(map[string]string, len(slots))
	for _, slot := range slots {
		body[string(slot)] = e.slots[slot]
	}
	raw, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("enginetest: encode payload: %v", err))
	}
	return raw
}
