package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"

	"pkt.systems/codebridge/schema"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.base_url", cfg.HTTP.BaseURL)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
	v.SetDefault("http.query_timeout_seconds", cfg.HTTP.QueryTimeoutSeconds)
	v.SetDefault("engine.transport", cfg.Engine.Transport)
	v.SetDefault("engine.chrome_path", cfg.Engine.ChromePath)
	v.SetDefault("engine.headless", cfg.Engine.Headless)
	v.SetDefault("engine.no_sandbox", cfg.Engine.NoSandbox)
	v.SetDefault("engine.startup_timeout_seconds", cfg.Engine.StartupTimeoutSeconds)
	v.SetDefault("engine.command_timeout_seconds", cfg.Engine.CommandTimeoutSeconds)
	v.SetDefault("engine.assets_dir", cfg.Engine.AssetsDir)
	v.SetDefault("engine.allowed_origins", cfg.Engine.AllowedOrigins)
	v.SetDefault("editor.mime_type", cfg.Editor.MimeType)
	v.SetDefault("editor.theme", string(cfg.Editor.Theme))
	v.SetDefault("editor.font_size", cfg.Editor.FontSize)
	v.SetDefault("editor.show_invisibles", cfg.Editor.ShowInvisibles)
	v.SetDefault("editor.line_wrapping", cfg.Editor.LineWrapping)
	v.SetDefault("editor.read_only", cfg.Editor.ReadOnly)
	v.SetDefault("editor.tab_size", cfg.Editor.TabSize)
	v.SetDefault("editor.indent_unit", cfg.Editor.IndentUnit)
	v.SetDefault("editor.tab_insert_spaces", cfg.Editor.TabInsertSpaces)
	v.SetDefault("sessions.max_sessions", cfg.Sessions.MaxSessions)
	v.SetDefault("sessions.event_buffer", cfg.Sessions.EventBuffer)

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return Config{}, err
		}
	} else {
		// IsSet also sees the default, so ask the file itself.
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// viper reports a missing explicit config file as an fs error rather than
// ConfigFileNotFoundError.
func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return os.IsNotExist(err)
}

// Validate checks values Load cannot coerce.
func Validate(cfg Config) error {
	if err := validateHTTPConfig(cfg.HTTP); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Engine.Transport)) {
	case "chromedp", "websocket":
	default:
		return fmt.Errorf("unsupported engine.transport %q", cfg.Engine.Transport)
	}
	if cfg.Engine.StartupTimeoutSeconds < 0 || cfg.Engine.CommandTimeoutSeconds < 0 {
		return fmt.Errorf("engine timeouts must not be negative")
	}
	if cfg.Sessions.MaxSessions < 0 {
		return fmt.Errorf("sessions.max_sessions must not be negative")
	}
	if _, err := schema.NormalizeEditorConfig(cfg.Editor); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}

func validateHTTPConfig(cfg HTTPConfig) error {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("http.base_url must include scheme and host (e.g. https://example.com)")
		}
	}
	basePath := strings.TrimSpace(cfg.BasePath)
	if basePath != "" {
		if strings.Contains(basePath, "://") {
			return fmt.Errorf("http.base_path must be a path prefix, not a URL")
		}
		if strings.ContainsAny(basePath, "?#") {
			return fmt.Errorf("http.base_path must not include query or fragment")
		}
	}
	if cfg.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("http.query_timeout_seconds must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.HTTP.Addr = expandEnv(cfg.HTTP.Addr)
	cfg.HTTP.BaseURL = expandEnv(cfg.HTTP.BaseURL)
	cfg.Engine.ChromePath = expandEnv(cfg.Engine.ChromePath)
	cfg.Engine.AssetsDir = expandEnv(cfg.Engine.AssetsDir)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}
