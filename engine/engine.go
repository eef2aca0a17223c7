// Package engine defines the contract between a session and the embedded
// document engine that executes its commands.
package engine

import (
	"context"
	"encoding/json"
)

// Raw event names emitted by the engine pages.
const (
	EventReady          = "ready"
	EventContentChanged = "content-changed"
)

var eventAliases = map[string]string{
	EventReady:                       EventReady,
	EventContentChanged:              EventContentChanged,
	"codeMirrorIsReady":              EventReady,
	"codeMirrorDiffIsReady":          EventReady,
	"codeMirrorTextContentDidChange": EventContentChanged,
}

// CanonicalEvent maps an engine event name, including legacy bridge names,
// to its canonical form. Unknown names return "".
func CanonicalEvent(name string) string {
	return eventAliases[name]
}

// Evaluator runs one command script inside the engine and returns the
// JSON-encoded result. A nil result means the script produced no value.
type Evaluator interface {
	Evaluate(ctx context.Context, script string) (json.RawMessage, error)
}

// Engine is a live embedded engine instance.
type Engine interface {
	Evaluator
	Close() error
}

// Listener receives inbound notifications from an engine. Implementations
// must tolerate calls from the transport's own goroutine.
type Listener interface {
	// Loaded reports that the engine page finished loading.
	Loaded()
	// LoadFailed reports that the engine page could not be loaded.
	LoadFailed(err error)
	// Receive delivers a named event with its JSON body.
	Receive(name string, body json.RawMessage)
}
