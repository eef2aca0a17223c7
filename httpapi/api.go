package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pkt.systems/codebridge/internal/logx"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
)

type openRequest struct {
	ID       string               `json:"id,omitempty"`
	Mode     string               `json:"mode,omitempty"`
	Contents map[string]string    `json:"contents,omitempty"`
	Config   *schema.EditorConfig `json:"config,omitempty"`
}

type openResponse struct {
	session.Info
	Page string `json:"page"`
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.host.Sessions()
	out := make([]session.Info, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Info())
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))
	var payload openRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http open session decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, err := schema.ParseMode(payload.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts := session.Options{ID: schema.SessionID(payload.ID), Mode: mode}
	if payload.Config != nil {
		opts.Config = *payload.Config
	}
	if len(payload.Contents) > 0 {
		opts.Contents = make(schema.Contents, len(payload.Contents))
		for name, value := range payload.Contents {
			slot, err := schema.ParseSlot(name)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			opts.Contents[slot] = value
		}
	}
	sess, err := s.host.OpenSession(r.Context(), opts)
	if err != nil {
		log.Warn("http open session failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, openResponse{
		Info: sess.Info(),
		Page: PagePath(s.basePath, sess.Mode(), sess.ID()),
	})
	logx.WithSession(r.Context(), sess.ID()).Info("http session opened", "mode", sess.Mode())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := schema.SessionID(chi.URLParam(r, "id"))
	sess, err := s.host.Session(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess.Info(),
		"config":  sess.Pushed(),
	})
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id := schema.SessionID(chi.URLParam(r, "id"))
	if err := s.host.CloseSession(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) slot(w http.ResponseWriter, r *http.Request, sess *session.Session) (schema.Slot, bool) {
	slot, err := schema.ParseSlot(chi.URLParam(r, "slot"))
	if err == nil && !sess.Mode().HasSlot(slot) {
		err = fmt.Errorf("%w: %s has no %q buffer", schema.ErrInvalidSlot, sess.Mode(), slot)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return slot, true
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	slot, ok := s.slot(w, r, sess)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()
	value, err := session.AwaitContent(ctx, sess, slot)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slot": slot, "value": value})
}

func (s *Server) putContent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	slot, ok := s.slot(w, r, sess)
	if !ok {
		return
	}
	var payload struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := sess.SetContent(slot, payload.Value); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "queued": !sess.Ready()})
}

func (s *Server) putOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var payload map[string]json.RawMessage
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	values, err := decodeOptions(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	applied := make([]schema.Option, 0, len(values))
	for _, opt := range schema.Options() {
		value, ok := values[opt]
		if !ok {
			continue
		}
		if opt == schema.OptionTheme {
			err = sess.SetTheme(value.(string))
		} else {
			err = sess.SetOption(opt, value)
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		applied = append(applied, opt)
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied})
}

// decodeOptions converts JSON option values to the Go types each option
// carries.
func decodeOptions(payload map[string]json.RawMessage) (map[schema.Option]any, error) {
	out := make(map[schema.Option]any, len(payload))
	for name, raw := range payload {
		opt := schema.Option(name)
		kind, ok := opt.Kind()
		if !ok {
			return nil, fmt.Errorf("%w: %q", schema.ErrInvalidOption, name)
		}
		var err error
		switch kind {
		case schema.KindIdent:
			var v string
			err = json.Unmarshal(raw, &v)
			out[opt] = v
		case schema.KindInt:
			var v int
			err = json.Unmarshal(raw, &v)
			out[opt] = v
		case schema.KindBool:
			var v bool
			err = json.Unmarshal(raw, &v)
			out[opt] = v
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", schema.ErrInvalidOption, name, err)
		}
	}
	return out, nil
}

func (s *Server) getClean(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()
	clean, err := session.Await(ctx, sess.IsClean)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clean": clean})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) refreshDiff(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.RefreshDiffView(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
