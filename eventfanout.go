package codebridge

import (
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
)

type eventFanout struct {
	sinks []session.EventSink
}

func (f eventFanout) OnSessionEvent(event schema.Event) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnSessionEvent(event)
	}
}
