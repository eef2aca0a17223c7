// Package bootstrap renders and writes the default configuration file.
package bootstrap

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pkt.systems/codebridge/internal/appconfig"
	"pkt.systems/codebridge/internal/version"
)

// ConfigOverride sets one dotted config path, e.g. "engine.transport".
type ConfigOverride struct {
	Path  string
	Value any
}

// Options controls rendering.
type Options struct {
	Overrides []ConfigOverride
}

var sectionComments = map[string]string{
	"http":     "HTTP server that serves engine pages, the bridge endpoint and the JSON API.",
	"engine":   "Engine transport: chromedp launches a Chrome tab per session, websocket waits for a web view to connect back.",
	"editor":   "Display options new sessions start with.",
	"sessions": "Limits on live sessions.",
}

// Render returns the default config as commented YAML.
func Render(opts Options) ([]byte, error) {
	cfg, err := applyOverrides(appconfig.DefaultConfig(), opts.Overrides)
	if err != nil {
		return nil, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if comment, ok := sectionComments[doc.Content[i].Value]; ok {
			doc.Content[i].HeadComment = comment
		}
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# codebridge configuration (generated by %s)\n\n", version.Current())
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the config to path. An empty path uses the default
// location; existing files are kept unless overwrite is set.
func Write(path string, overwrite bool, opts Options) (string, error) {
	if path == "" {
		defaultPath, err := appconfig.DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}
	data, err := Render(opts)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func applyOverrides(cfg appconfig.Config, overrides []ConfigOverride) (appconfig.Config, error) {
	if len(overrides) == 0 {
		return cfg, nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return cfg, err
	}
	for _, override := range overrides {
		if err := setOverrideValue(data, override.Path, override.Value); err != nil {
			return cfg, err
		}
	}
	updated, err := yaml.Marshal(data)
	if err != nil {
		return cfg, err
	}
	var next appconfig.Config
	if err := yaml.Unmarshal(updated, &next); err != nil {
		return cfg, err
	}
	return next, nil
}

func setOverrideValue(root map[string]any, path string, value any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config override path is required")
	}
	parts := strings.Split(path, ".")
	node := root
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return fmt.Errorf("invalid config override path %q", path)
		}
		if i == len(parts)-1 {
			node[part] = value
			return nil
		}
		next, ok := node[part]
		if !ok || next == nil {
			child := map[string]any{}
			node[part] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config override %q: %q is not a map", path, part)
		}
		node = child
	}
	return nil
}

// ParseOverride parses "path=value". Values are decoded as YAML scalars so
// "false" and "8080" keep their types.
func ParseOverride(raw string) (ConfigOverride, error) {
	path, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(path) == "" {
		return ConfigOverride{}, fmt.Errorf("override %q must look like path=value", raw)
	}
	var decoded any
	if err := yaml.Unmarshal([]byte(value), &decoded); err != nil || decoded == nil {
		decoded = value
	}
	return ConfigOverride{Path: strings.TrimSpace(path), Value: decoded}, nil
}
