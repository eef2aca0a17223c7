package schema

import "fmt"

// Option names one host-owned display setting of the engine.
type Option string

const (
	// OptionMimeType selects the language mode.
	OptionMimeType Option = "mime_type"
	// OptionTheme selects the color theme.
	OptionTheme Option = "theme"
	// OptionFontSize sets the font size in points.
	OptionFontSize Option = "font_size"
	// OptionShowInvisibles toggles rendering of invisible characters.
	OptionShowInvisibles Option = "show_invisibles"
	// OptionLineWrapping toggles soft wrapping.
	OptionLineWrapping Option = "line_wrapping"
	// OptionReadOnly toggles editing.
	OptionReadOnly Option = "read_only"
	// OptionTabSize sets the tab width.
	OptionTabSize Option = "tab_size"
	// OptionIndentUnit sets the indent width.
	OptionIndentUnit Option = "indent_unit"
	// OptionTabInsertSpaces makes the tab key insert spaces.
	OptionTabInsertSpaces Option = "tab_insert_spaces"
)

// OptionKind is the value type carried by an option.
type OptionKind int

const (
	// KindIdent is a restricted-charset string.
	KindIdent OptionKind = iota
	// KindInt is an integer.
	KindInt
	// KindBool is a boolean.
	KindBool
)

var optionOrder = []Option{
	OptionMimeType,
	OptionTheme,
	OptionFontSize,
	OptionShowInvisibles,
	OptionLineWrapping,
	OptionReadOnly,
	OptionTabSize,
	OptionIndentUnit,
	OptionTabInsertSpaces,
}

var optionKinds = map[Option]OptionKind{
	OptionMimeType:        KindIdent,
	OptionTheme:           KindIdent,
	OptionFontSize:        KindInt,
	OptionShowInvisibles:  KindBool,
	OptionLineWrapping:    KindBool,
	OptionReadOnly:        KindBool,
	OptionTabSize:         KindInt,
	OptionIndentUnit:      KindInt,
	OptionTabInsertSpaces: KindBool,
}

// Options returns every option in push order.
func Options() []Option {
	out := make([]Option, len(optionOrder))
	copy(out, optionOrder)
	return out
}

// Kind returns the value type of the option.
func (o Option) Kind() (OptionKind, bool) {
	kind, ok := optionKinds[o]
	return kind, ok
}

const (
	// DefaultMimeType is the language mode used when none is configured.
	DefaultMimeType = "text/plain"
	// AttachMimeType is pushed when a transport is first attached.
	AttachMimeType = "application/json"
	// DefaultFontSize is the engine font size in points.
	DefaultFontSize = 12
	// DefaultTabSize is the tab width reported when the engine cannot answer.
	DefaultTabSize = 4
	// DefaultIndentUnit is the indent width reported when the engine cannot answer.
	DefaultIndentUnit = 2
)

// EditorConfig is the full set of host-owned display options.
type EditorConfig struct {
	MimeType        string    `json:"mime_type" yaml:"mime_type" mapstructure:"mime_type"`
	Theme           ThemeName `json:"theme" yaml:"theme" mapstructure:"theme"`
	FontSize        int       `json:"font_size" yaml:"font_size" mapstructure:"font_size"`
	ShowInvisibles  bool      `json:"show_invisibles" yaml:"show_invisibles" mapstructure:"show_invisibles"`
	LineWrapping    bool      `json:"line_wrapping" yaml:"line_wrapping" mapstructure:"line_wrapping"`
	ReadOnly        bool      `json:"read_only" yaml:"read_only" mapstructure:"read_only"`
	TabSize         int       `json:"tab_size" yaml:"tab_size" mapstructure:"tab_size"`
	IndentUnit      int       `json:"indent_unit" yaml:"indent_unit" mapstructure:"indent_unit"`
	TabInsertSpaces bool      `json:"tab_insert_spaces" yaml:"tab_insert_spaces" mapstructure:"tab_insert_spaces"`
}

// DefaultEditorConfig returns the display options a new view starts with.
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		MimeType:        DefaultMimeType,
		Theme:           DefaultTheme,
		FontSize:        DefaultFontSize,
		ShowInvisibles:  false,
		LineWrapping:    true,
		ReadOnly:        false,
		TabSize:         DefaultTabSize,
		IndentUnit:      DefaultIndentUnit,
		TabInsertSpaces: true,
	}
}

// Value returns the option value as string, int, or bool.
func (c EditorConfig) Value(opt Option) (any, bool) {
	switch opt {
	case OptionMimeType:
		return c.MimeType, true
	case OptionTheme:
		return string(c.Theme), true
	case OptionFontSize:
		return c.FontSize, true
	case OptionShowInvisibles:
		return c.ShowInvisibles, true
	case OptionLineWrapping:
		return c.LineWrapping, true
	case OptionReadOnly:
		return c.ReadOnly, true
	case OptionTabSize:
		return c.TabSize, true
	case OptionIndentUnit:
		return c.IndentUnit, true
	case OptionTabInsertSpaces:
		return c.TabInsertSpaces, true
	default:
		return nil, false
	}
}

// Set assigns an option value after checking its type.
func (c *EditorConfig) Set(opt Option, value any) error {
	kind, ok := opt.Kind()
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidOption, opt)
	}
	if err := CheckOptionValue(opt, kind, value); err != nil {
		return err
	}
	switch opt {
	case OptionMimeType:
		c.MimeType = value.(string)
	case OptionTheme:
		c.Theme = ThemeName(value.(string))
	case OptionFontSize:
		c.FontSize = value.(int)
	case OptionShowInvisibles:
		c.ShowInvisibles = value.(bool)
	case OptionLineWrapping:
		c.LineWrapping = value.(bool)
	case OptionReadOnly:
		c.ReadOnly = value.(bool)
	case OptionTabSize:
		c.TabSize = value.(int)
	case OptionIndentUnit:
		c.IndentUnit = value.(int)
	case OptionTabInsertSpaces:
		c.TabInsertSpaces = value.(bool)
	}
	return nil
}

// CheckOptionValue reports whether value has the Go type required by kind.
func CheckOptionValue(opt Option, kind OptionKind, value any) error {
	switch kind {
	case KindIdent:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidOption, opt, value)
		}
		return ValidateIdentifier(s)
	case KindInt:
		if _, ok := value.(int); !ok {
			return fmt.Errorf("%w: %s expects an integer, got %T", ErrInvalidOption, opt, value)
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidOption, opt, value)
		}
	}
	return nil
}
