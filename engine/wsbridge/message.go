package wsbridge

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Message types exchanged with the engine page.
const (
	TypeEval   = "eval"
	TypeResult = "result"
	TypeEvent  = "event"
)

// Message is the single envelope used in both directions.
type Message struct {
	Type   string          `json:"type"`
	ID     uint64          `json:"id,omitempty"`
	Script string          `json:"script,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Error  string          `json:"error,omitempty"`
	Name   string          `json:"name,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// DecodeMessage parses an inbound frame. Unknown fields are ignored and a
// missing type is an error.
func DecodeMessage(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return Message{}, fmt.Errorf("wsbridge: frame is not JSON")
	}
	root := gjson.ParseBytes(data)
	msg := Message{Type: root.Get("type").String()}
	switch msg.Type {
	case TypeResult:
		id := root.Get("id")
		if id.Type != gjson.Number {
			return Message{}, fmt.Errorf("wsbridge: result without id")
		}
		msg.ID = id.Uint()
		if v := root.Get("value"); v.Exists() && v.Type != gjson.Null {
			msg.Value = json.RawMessage(v.Raw)
		}
		msg.Error = root.Get("error").String()
	case TypeEvent:
		msg.Name = root.Get("name").String()
		if msg.Name == "" {
			return Message{}, fmt.Errorf("wsbridge: event without name")
		}
		if b := root.Get("body"); b.Exists() {
			msg.Body = json.RawMessage(b.Raw)
		}
	case TypeEval:
		msg.ID = root.Get("id").Uint()
		msg.Script = root.Get("script").String()
	case "":
		return Message{}, fmt.Errorf("wsbridge: frame without type")
	}
	return msg, nil
}
