package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pkt.systems/codebridge/internal/logx"
	"pkt.systems/codebridge/schema"
)

// streamEvents relays a session's events as server-sent events. The
// subscription is registered before headers are flushed so nothing is
// missed between the 200 and the first event.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.WithSession(r.Context(), sess.ID())
	events, cancel := s.events.Subscribe(sess.ID())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Info("http stream opened")
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Info("http stream closed")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
			if event.Kind == schema.EventClosed {
				return
			}
		}
	}
}

func writeSSEvent(w http.ResponseWriter, event schema.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
	return err
}
