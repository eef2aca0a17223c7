package httpapi

import "time"

// Config defines HTTP API and engine page settings.
type Config struct {
	Addr     string
	BaseURL  string
	BasePath string
	// AssetsDir serves engine pages from disk instead of the embedded copy.
	AssetsDir string
	// AllowedOrigins restricts bridge connections; empty allows same-host
	// and loopback origins.
	AllowedOrigins []string
	// QueryTimeout bounds API calls that wait for an engine answer.
	QueryTimeout time.Duration
}

const (
	shutdownTimeout     = 5 * time.Second
	defaultQueryTimeout = 10 * time.Second
)
