package channel

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Result is the outcome of one evaluated command.
type Result struct {
	Value json.RawMessage
	Err   error
}

// Callback receives the result of a command.
type Callback func(Result)

// OK reports whether the engine evaluated the command without error.
func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) parsed() (gjson.Result, bool) {
	if r.Err != nil || len(r.Value) == 0 {
		return gjson.Result{}, false
	}
	if !gjson.ValidBytes(r.Value) {
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(r.Value), true
}

// String returns the string result or def on failure or type mismatch.
func (r Result) String(def string) string {
	v, ok := r.parsed()
	if !ok || v.Type != gjson.String {
		return def
	}
	return v.Str
}

// Text returns the string result and whether the engine answered with one.
func (r Result) Text() (string, bool) {
	v, ok := r.parsed()
	if !ok || v.Type != gjson.String {
		return "", false
	}
	return v.Str, true
}

// Bool returns the boolean result or def on failure or type mismatch.
func (r Result) Bool(def bool) bool {
	v, ok := r.parsed()
	if !ok {
		return def
	}
	switch v.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return def
	}
}

// Int returns the integer result or def on failure or type mismatch.
func (r Result) Int(def int) int {
	v, ok := r.parsed()
	if !ok || v.Type != gjson.Number {
		return def
	}
	if float64(int(v.Num)) != v.Num {
		return def
	}
	return int(v.Num)
}

// Strings returns a list result. A JSON array of strings and a comma
// separated string are both accepted; anything else yields nil.
func (r Result) Strings() []string {
	v, ok := r.parsed()
	if !ok {
		return nil
	}
	var out []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if item.Type != gjson.String {
				return nil
			}
			out = append(out, item.Str)
		}
	case v.Type == gjson.String:
		for _, part := range strings.Split(v.Str, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
