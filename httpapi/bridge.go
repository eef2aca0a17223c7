package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"pkt.systems/codebridge/engine/wsbridge"
	"pkt.systems/codebridge/internal/logx"
	"pkt.systems/codebridge/schema"
)

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return wsbridge.NewUpgrader(allowedOrigins)
}

// handleBridge accepts the websocket an engine page opens back to its
// session and serves it as the session's engine.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	id := schema.SessionID(chi.URLParam(r, "id"))
	log := logx.WithSession(r.Context(), id).With("remote", clientIP(r))
	sess, err := s.host.Session(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if sess.Attached() {
		writeError(w, http.StatusConflict, schema.ErrAlreadyAttached)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("bridge upgrade failed", "err", err)
		return
	}
	conn := wsbridge.NewConn(ws, sess, log)
	if err := sess.Attach(conn); err != nil {
		log.Warn("bridge attach failed", "err", err)
		_ = conn.Close()
		return
	}
	log.Info("bridge connected")
	if err := conn.Serve(r.Context()); err != nil {
		log.Warn("bridge closed with error", "err", err)
		return
	}
	log.Info("bridge disconnected")
}
