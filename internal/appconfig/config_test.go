package appconfig

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Engine.Transport != "chromedp" || !cfg.Engine.Headless {
		t.Fatalf("expected headless chromedp default, got %+v", cfg.Engine)
	}
	if !cfg.Editor.TabInsertSpaces {
		t.Fatalf("expected tab_insert_spaces to default true")
	}
}
