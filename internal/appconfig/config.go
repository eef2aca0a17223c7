package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/codebridge/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int                 `mapstructure:"config_version" yaml:"config_version"`
	HTTP          HTTPConfig          `mapstructure:"http" yaml:"http"`
	Engine        EngineConfig        `mapstructure:"engine" yaml:"engine"`
	Editor        schema.EditorConfig `mapstructure:"editor" yaml:"editor"`
	Sessions      SessionsConfig      `mapstructure:"sessions" yaml:"sessions"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// HTTPConfig configures the HTTP server that serves engine pages.
type HTTPConfig struct {
	Addr                string `mapstructure:"addr" yaml:"addr"`
	BaseURL             string `mapstructure:"base_url" yaml:"base_url"`
	BasePath            string `mapstructure:"base_path" yaml:"base_path"`
	QueryTimeoutSeconds int    `mapstructure:"query_timeout_seconds" yaml:"query_timeout_seconds"`
}

// EngineConfig selects and tunes the engine transport.
type EngineConfig struct {
	Transport             string   `mapstructure:"transport" yaml:"transport"`
	ChromePath            string   `mapstructure:"chrome_path" yaml:"chrome_path"`
	Headless              bool     `mapstructure:"headless" yaml:"headless"`
	NoSandbox             bool     `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	StartupTimeoutSeconds int      `mapstructure:"startup_timeout_seconds" yaml:"startup_timeout_seconds"`
	CommandTimeoutSeconds int      `mapstructure:"command_timeout_seconds" yaml:"command_timeout_seconds"`
	AssetsDir             string   `mapstructure:"assets_dir" yaml:"assets_dir"`
	AllowedOrigins        []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// SessionsConfig bounds live sessions.
type SessionsConfig struct {
	MaxSessions int `mapstructure:"max_sessions" yaml:"max_sessions"`
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		HTTP: HTTPConfig{
			Addr:                "127.0.0.1:27490",
			BaseURL:             "",
			BasePath:            "",
			QueryTimeoutSeconds: 10,
		},
		Engine: EngineConfig{
			Transport:             "chromedp",
			ChromePath:            "",
			Headless:              true,
			NoSandbox:             false,
			StartupTimeoutSeconds: 30,
			CommandTimeoutSeconds: 10,
			AssetsDir:             "",
			AllowedOrigins:        []string{},
		},
		Editor: schema.DefaultEditorConfig(),
		Sessions: SessionsConfig{
			MaxSessions: 32,
			EventBuffer: 256,
		},
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codebridge", "config.yaml"), nil
}
