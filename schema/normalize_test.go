package schema

import (
	"errors"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{"theme", "material-palenight", true},
		{"mime", "text/x-c++src", true},
		{"spaces", "Solarized Dark", true},
		{"dots", "application/vnd.api+json", true},
		{"empty", "", false},
		{"quote", "it's", false},
		{"backslash", `a\b`, false},
		{"newline", "a\nb", false},
		{"paren", "x)", false},
		{"unicode", "thème", false},
	}
	for _, tc := range cases {
		err := ValidateIdentifier(tc.value)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrUnsafeIdentifier) {
			t.Fatalf("case %q expected ErrUnsafeIdentifier, got %v", tc.name, err)
		}
	}
}

func TestNormalizeEditorConfigFillsDefaults(t *testing.T) {
	cfg, err := NormalizeEditorConfig(EditorConfig{})
	if err != nil {
		t.Fatalf("NormalizeEditorConfig: %v", err)
	}
	defaults := DefaultEditorConfig()
	if cfg.MimeType != defaults.MimeType || cfg.Theme != defaults.Theme {
		t.Fatalf("expected default mime/theme, got %+v", cfg)
	}
	if cfg.FontSize != DefaultFontSize || cfg.TabSize != DefaultTabSize || cfg.IndentUnit != DefaultIndentUnit {
		t.Fatalf("expected default sizes, got %+v", cfg)
	}
}

func TestNormalizeEditorConfigCanonicalTheme(t *testing.T) {
	cfg, err := NormalizeEditorConfig(EditorConfig{Theme: "Oceanic_Next"})
	if err != nil {
		t.Fatalf("NormalizeEditorConfig: %v", err)
	}
	if cfg.Theme != "oceanic-next" {
		t.Fatalf("expected oceanic-next, got %q", cfg.Theme)
	}
}

func TestNormalizeEditorConfigRejectsUnsafeTheme(t *testing.T) {
	if _, err := NormalizeEditorConfig(EditorConfig{Theme: "x');alert(1);//"}); !errors.Is(err, ErrUnsafeIdentifier) {
		t.Fatalf("expected ErrUnsafeIdentifier, got %v", err)
	}
}

func TestNormalizeEditorConfigRejectsRange(t *testing.T) {
	if _, err := NormalizeEditorConfig(EditorConfig{FontSize: 900}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestEditorConfigSetChecksType(t *testing.T) {
	cfg := DefaultEditorConfig()
	if err := cfg.Set(OptionFontSize, "14"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected type error, got %v", err)
	}
	if err := cfg.Set(OptionFontSize, 14); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if value, _ := cfg.Value(OptionFontSize); value != 14 {
		t.Fatalf("expected 14, got %v", value)
	}
	if err := cfg.Set(Option("bogus"), true); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected unknown option error, got %v", err)
	}
}

func TestModeSlots(t *testing.T) {
	if !ModeDiff.HasSlot(SlotLeft) || ModeDiff.HasSlot(SlotContent) {
		t.Fatalf("unexpected diff slots: %v", ModeDiff.Slots())
	}
	if got := ModeCompare.Slots(); len(got) != 2 || got[0] != SlotOriginal || got[1] != SlotModified {
		t.Fatalf("unexpected compare slots: %v", got)
	}
	if Mode("bogus").Valid() {
		t.Fatalf("expected bogus mode to be invalid")
	}
}
