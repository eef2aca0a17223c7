package schema

import "strings"

// ThemeName identifies an engine color theme.
type ThemeName string

// DefaultTheme is the theme a new view starts with.
const DefaultTheme ThemeName = "material-palenight"

var themeNames = []ThemeName{
	"material-palenight",
	"material",
	"dracula",
	"monokai",
	"nord",
	"oceanic-next",
	"solarized",
	"zenburn",
	"eclipse",
	"idea",
}

// AvailableThemes returns the themes shipped with the bundled engine pages.
func AvailableThemes() []ThemeName {
	out := make([]ThemeName, len(themeNames))
	copy(out, themeNames)
	return out
}

// NormalizeThemeName returns a canonical theme name if it is bundled.
func NormalizeThemeName(name string) (ThemeName, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "palenight", "material-palenight":
		return "material-palenight", true
	case "oceanic", "oceanic-next":
		return "oceanic-next", true
	case "solarized", "solarized-dark", "solarized-light":
		return "solarized", true
	}
	for _, theme := range themeNames {
		if string(theme) == normalized {
			return theme, true
		}
	}
	return "", false
}
