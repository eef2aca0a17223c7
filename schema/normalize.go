package schema

import (
	"fmt"
	"strings"
)

const maxIdentifierLen = 128

// ValidateIdentifier ensures s is non-empty and limited to [A-Za-z0-9 ._+/-].
// Identifiers are the only strings the command encoder quotes directly.
func ValidateIdentifier(s string) error {
	if s == "" || len(s) > maxIdentifierLen {
		return fmt.Errorf("%w: %q", ErrUnsafeIdentifier, s)
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '.', '_', '+', '/', '-':
			continue
		}
		return fmt.Errorf("%w: %q", ErrUnsafeIdentifier, s)
	}
	return nil
}

// ValidateSessionID ensures a session id matches [A-Za-z0-9_-].
func ValidateSessionID(id SessionID) error {
	raw := string(id)
	if raw == "" || len(raw) > maxIdentifierLen {
		return ErrSessionNotFound
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return ErrSessionNotFound
	}
	return nil
}

// ParseSlot validates a slot name.
func ParseSlot(value string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(value)))
	switch slot {
	case SlotContent, SlotLeft, SlotRight, SlotOriginal, SlotModified:
		return slot, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}
}

// ParseMode validates a mode name.
func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(value)))
	if mode == "" {
		return ModeDocument, nil
	}
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, value)
	}
	return mode, nil
}

// NormalizeEditorConfig fills zero values with defaults and validates the rest.
func NormalizeEditorConfig(cfg EditorConfig) (EditorConfig, error) {
	defaults := DefaultEditorConfig()
	cfg.MimeType = strings.TrimSpace(cfg.MimeType)
	if cfg.MimeType == "" {
		cfg.MimeType = defaults.MimeType
	}
	if err := ValidateIdentifier(cfg.MimeType); err != nil {
		return EditorConfig{}, fmt.Errorf("mime_type: %w", err)
	}
	if strings.TrimSpace(string(cfg.Theme)) == "" {
		cfg.Theme = defaults.Theme
	} else if theme, ok := NormalizeThemeName(string(cfg.Theme)); ok {
		cfg.Theme = theme
	} else if err := ValidateIdentifier(string(cfg.Theme)); err != nil {
		return EditorConfig{}, fmt.Errorf("theme: %w", err)
	}
	if cfg.FontSize == 0 {
		cfg.FontSize = defaults.FontSize
	}
	if cfg.FontSize < 1 || cfg.FontSize > 200 {
		return EditorConfig{}, fmt.Errorf("%w: font_size %d out of range", ErrInvalidOption, cfg.FontSize)
	}
	if cfg.TabSize == 0 {
		cfg.TabSize = defaults.TabSize
	}
	if cfg.TabSize < 1 || cfg.TabSize > 16 {
		return EditorConfig{}, fmt.Errorf("%w: tab_size %d out of range", ErrInvalidOption, cfg.TabSize)
	}
	if cfg.IndentUnit == 0 {
		cfg.IndentUnit = defaults.IndentUnit
	}
	if cfg.IndentUnit < 1 || cfg.IndentUnit > 16 {
		return EditorConfig{}, fmt.Errorf("%w: indent_unit %d out of range", ErrInvalidOption, cfg.IndentUnit)
	}
	return cfg, nil
}
