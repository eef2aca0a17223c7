package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/codebridge/internal/appconfig"
)

func TestRenderLoadsBack(t *testing.T) {
	data, err := Render(Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "# codebridge configuration") {
		t.Fatalf("missing header comment:\n%s", text)
	}
	if !strings.Contains(text, "# Engine transport") {
		t.Fatalf("missing engine section comment:\n%s", text)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := appconfig.Load(path)
	if err != nil {
		t.Fatalf("Load rendered config: %v", err)
	}
	def := appconfig.DefaultConfig()
	if cfg.HTTP != def.HTTP || cfg.Editor != def.Editor || cfg.Sessions != def.Sessions {
		t.Fatalf("rendered config drifted from defaults: %+v", cfg)
	}
}

func TestRenderAppliesOverrides(t *testing.T) {
	transport, err := ParseOverride("engine.transport=websocket")
	if err != nil {
		t.Fatalf("ParseOverride: %v", err)
	}
	headless, err := ParseOverride("engine.headless=false")
	if err != nil {
		t.Fatalf("ParseOverride: %v", err)
	}
	if headless.Value != false {
		t.Fatalf("expected bool override, got %#v", headless.Value)
	}
	data, err := Render(Options{Overrides: []ConfigOverride{transport, headless}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(data), "transport: websocket") || !strings.Contains(string(data), "headless: false") {
		t.Fatalf("overrides missing:\n%s", data)
	}
	if _, err := Render(Options{Overrides: []ConfigOverride{{Path: "engine.transport", Value: "smoke"}}}); err == nil {
		t.Fatalf("expected invalid override to fail validation")
	}
	if _, err := ParseOverride("novalue"); err == nil {
		t.Fatalf("expected malformed override error")
	}
}

func TestWriteRespectsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	written, err := Write(path, false, Options{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := Write(path, false, Options{}); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := Write(path, true, Options{}); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}
