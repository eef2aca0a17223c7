package wsbridge

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// NewUpgrader returns an upgrader that accepts same-host and loopback
// origins, or only allowedOrigins when any are given.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	origins := make(map[string]bool)
	hosts := make(map[string]bool)
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		origins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			hosts[parsed.Host] = true
		}
	}
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return checkOrigin(r, origins, hosts)
		},
	}
}

func checkOrigin(r *http.Request, origins, hosts map[string]bool) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(origins) > 0 {
		if origins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return hosts[parsed.Host]
		}
		return false
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	hostname := parsed.Hostname()
	return hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
}
