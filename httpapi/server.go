// Package httpapi serves the engine pages, the bridge endpoint engine pages
// connect back through, and a JSON API over live sessions.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"pkt.systems/codebridge/internal/version"
	"pkt.systems/codebridge/schema"
	"pkt.systems/codebridge/session"
)

// Host is the session owner the server drives.
type Host interface {
	OpenSession(ctx context.Context, opts session.Options) (*session.Session, error)
	CloseSession(id schema.SessionID) error
	Session(id schema.SessionID) (*session.Session, error)
	Sessions() []*session.Session
}

// Subscriber streams session events.
type Subscriber interface {
	Subscribe(id schema.SessionID) (<-chan schema.Event, func())
}

// Server serves the HTTP API and engine pages.
type Server struct {
	cfg          Config
	host         Host
	events       Subscriber
	pages        fs.FS
	upgrader     *websocket.Upgrader
	basePath     string
	baseHref     string
	queryTimeout time.Duration
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, host Host, events Subscriber) *Server {
	pages := assetsFS
	if dir := strings.TrimSpace(cfg.AssetsDir); dir != "" {
		pages = os.DirFS(dir)
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Server{
		cfg:          cfg,
		host:         host,
		events:       events,
		pages:        pages,
		upgrader:     newUpgrader(cfg.AllowedOrigins),
		basePath:     normalizeBasePath(cfg.BasePath),
		baseHref:     buildBaseHref(cfg.BaseURL, cfg.BasePath),
		queryTimeout: timeout,
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/editor", s.pageHandler(schema.ModeDocument))
	r.Get("/diff", s.pageHandler(schema.ModeDiff))
	r.Get("/compare", s.pageHandler(schema.ModeCompare))
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(s.pages))))
	r.Get("/bridge/{id}", s.handleBridge)

	r.Route("/api", func(r chi.Router) {
		r.Get("/themes", s.handleThemes)
		r.Get("/sessions", s.listSessions)
		r.Post("/sessions", s.openSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.closeSession)
			r.Get("/content/{slot}", s.getContent)
			r.Put("/content/{slot}", s.putContent)
			r.Put("/options", s.putOptions)
			r.Get("/clean", s.getClean)
			r.Post("/clear-history", s.clearHistory)
			r.Post("/refresh", s.refreshDiff)
			r.Get("/events", s.streamEvents)
		})
	})

	handler := withRequestLogging(r)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":    []string{"editor", "diff", "compare"},
		"sessions": len(s.host.Sessions()),
		"version":  version.Get(),
	})
}

func (s *Server) pageHandler(mode schema.Mode) http.HandlerFunc {
	name := mode.Page() + ".html"
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(s.pages, name)
		if err != nil {
			http.Error(w, "page not found", http.StatusInternalServerError)
			return
		}
		modTime := time.Time{}
		if stat, err := fs.Stat(s.pages, name); err == nil {
			modTime = stat.ModTime()
		}
		data = applyBaseHref(data, s.baseHref)
		http.ServeContent(w, r, name, modTime, bytes.NewReader(data))
	}
}

const baseHrefPlaceholder = "<!-- BASE_HREF -->"

func applyBaseHref(data []byte, baseHref string) []byte {
	replacement := ""
	if strings.TrimSpace(baseHref) != "" {
		replacement = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(replacement))
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": schema.DefaultTheme,
		"themes":  schema.AvailableThemes(),
	})
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// statusFor maps session errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrSessionExists), errors.Is(err, schema.ErrAlreadyAttached):
		return http.StatusConflict
	case errors.Is(err, schema.ErrSessionLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, schema.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, schema.ErrInvalidMode),
		errors.Is(err, schema.ErrInvalidSlot),
		errors.Is(err, schema.ErrInvalidOption),
		errors.Is(err, schema.ErrUnsafeIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
