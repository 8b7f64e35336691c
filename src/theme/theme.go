package theme

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Text       lipgloss.Color
	TextMuted  lipgloss.Color
	Background lipgloss.Color
	User       lipgloss.Color
	Bot        lipgloss.Color
	Info       lipgloss.Color
	Error      lipgloss.Color

	// CodeStyle is the chroma style used for bot markdown
	CodeStyle string
}

const DefaultName = "dark"

var themes = map[string]Theme{
	"dark": {
		Name:       "dark",
		Primary:    lipgloss.Color("#3498db"),
		Text:       lipgloss.Color("#ffffff"),
		TextMuted:  lipgloss.Color("#808080"),
		Background: lipgloss.Color("#000000"),
		User:       lipgloss.Color("#2ecc71"),
		Bot:        lipgloss.Color("#3498db"),
		Info:       lipgloss.Color("#bdc3c7"),
		Error:      lipgloss.Color("#e74c3c"),
		CodeStyle:  "monokai",
	},
	"light": {
		Name:       "light",
		Primary:    lipgloss.Color("#2c3e50"),
		Text:       lipgloss.Color("#000000"),
		TextMuted:  lipgloss.Color("#7f8c8d"),
		Background: lipgloss.Color("#ffffff"),
		User:       lipgloss.Color("#27ae60"),
		Bot:        lipgloss.Color("#2980b9"),
		Info:       lipgloss.Color("#34495e"),
		Error:      lipgloss.Color("#c0392b"),
		CodeStyle:  "github",
	},
}

// Get returns the named theme
func Get(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// Default returns the default theme
func Default() Theme {
	return themes[DefaultName]
}

// Names lists the available themes in sorted order
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
