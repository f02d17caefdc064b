// Package styles holds the color theme and the lipgloss styles built
// from it. Views never hardcode colors; they pull styles from here so
// a theme switch restyles everything at once.
package styles

import (
	"regexp"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// themeMu protects the registry and the active theme.
var themeMu sync.RWMutex

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// ColorPalette holds the theme colors.
type ColorPalette struct {
	Primary string `json:"primary"`
	Accent  string `json:"accent"`

	Success string `json:"success"`
	Warning string `json:"warning"`
	Error   string `json:"error"`

	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
	TextMuted     string `json:"textMuted"`

	BgPrimary   string `json:"bgPrimary"`
	BgSecondary string `json:"bgSecondary"`
	BgSelection string `json:"bgSelection"`

	BorderNormal string `json:"borderNormal"`
	BorderActive string `json:"borderActive"`

	// Role accents in the timeline.
	UserAccent      string `json:"userAccent"`
	AssistantAccent string `json:"assistantAccent"`
	ThinkingAccent  string `json:"thinkingAccent"`
	ToolAccent      string `json:"toolAccent"`

	DiffAddFg    string `json:"diffAddFg"`
	DiffRemoveFg string `json:"diffRemoveFg"`

	// Third-party theme names.
	SyntaxTheme   string `json:"syntaxTheme"`   // chroma
	MarkdownTheme string `json:"markdownTheme"` // glamour
}

// Theme is a named palette.
type Theme struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Colors      ColorPalette `json:"colors"`
}

var (
	// DefaultTheme is the dark theme.
	DefaultTheme = Theme{
		Name:        "default",
		DisplayName: "Default Dark",
		Colors: ColorPalette{
			Primary: "#7C3AED",
			Accent:  "#F59E0B",

			Success: "#10B981",
			Warning: "#F59E0B",
			Error:   "#EF4444",

			TextPrimary:   "#F9FAFB",
			TextSecondary: "#9CA3AF",
			TextMuted:     "#6B7280",

			BgPrimary:   "#111827",
			BgSecondary: "#1F2937",
			BgSelection: "#374151",

			BorderNormal: "#374151",
			BorderActive: "#7C3AED",

			UserAccent:      "#3B82F6",
			AssistantAccent: "#7C3AED",
			ThinkingAccent:  "#6B7280",
			ToolAccent:      "#10B981",

			DiffAddFg:    "#10B981",
			DiffRemoveFg: "#EF4444",

			SyntaxTheme:   "monokai",
			MarkdownTheme: "dark",
		},
	}

	// LightTheme for light terminals.
	LightTheme = Theme{
		Name:        "light",
		DisplayName: "Light",
		Colors: ColorPalette{
			Primary: "#6D28D9",
			Accent:  "#B45309",

			Success: "#047857",
			Warning: "#B45309",
			Error:   "#B91C1C",

			TextPrimary:   "#111827",
			TextSecondary: "#4B5563",
			TextMuted:     "#9CA3AF",

			BgPrimary:   "#FFFFFF",
			BgSecondary: "#F3F4F6",
			BgSelection: "#E5E7EB",

			BorderNormal: "#D1D5DB",
			BorderActive: "#6D28D9",

			UserAccent:      "#1D4ED8",
			AssistantAccent: "#6D28D9",
			ThinkingAccent:  "#9CA3AF",
			ToolAccent:      "#047857",

			DiffAddFg:    "#047857",
			DiffRemoveFg: "#B91C1C",

			SyntaxTheme:   "github",
			MarkdownTheme: "light",
		},
	}
)

var themeRegistry = map[string]Theme{
	DefaultTheme.Name: DefaultTheme,
	LightTheme.Name:   LightTheme,
}

var currentTheme = DefaultTheme

// Styles built from the active theme; rebuilt on Apply.
var (
	TitleStyle     lipgloss.Style
	MutedStyle     lipgloss.Style
	ErrorStyle     lipgloss.Style
	SelectionStyle lipgloss.Style

	UserLabelStyle      lipgloss.Style
	AssistantLabelStyle lipgloss.Style
	ThinkingStyle       lipgloss.Style
	ToolLabelStyle      lipgloss.Style

	StatusRunningStyle lipgloss.Style
	StatusDoneStyle    lipgloss.Style
	StatusFailedStyle  lipgloss.Style

	DiffAddStyle    lipgloss.Style
	DiffRemoveStyle lipgloss.Style

	BorderNormalStyle lipgloss.Style
	BorderActiveStyle lipgloss.Style
)

func init() {
	rebuildStyles()
}

// IsValidHexColor reports whether s is a #RRGGBB(AA) color.
func IsValidHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// IsValidTheme reports whether a theme with that name is registered.
func IsValidTheme(name string) bool {
	themeMu.RLock()
	defer themeMu.RUnlock()
	_, ok := themeRegistry[name]
	return ok
}

// GetTheme returns the named theme, falling back to the default.
func GetTheme(name string) Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if theme, ok := themeRegistry[name]; ok {
		return theme
	}
	return DefaultTheme
}

// CurrentTheme returns the active theme.
func CurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// ListThemes returns registered theme names, sorted.
func ListThemes() []string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	names := make([]string, 0, len(themeRegistry))
	for name := range themeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterTheme adds or replaces a theme.
func RegisterTheme(theme Theme) {
	themeMu.Lock()
	defer themeMu.Unlock()
	themeRegistry[theme.Name] = theme
}

// Apply switches the active theme and rebuilds all styles.
func Apply(name string) {
	themeMu.Lock()
	if theme, ok := themeRegistry[name]; ok {
		currentTheme = theme
	}
	themeMu.Unlock()
	rebuildStyles()
}

func rebuildStyles() {
	themeMu.RLock()
	c := currentTheme.Colors
	themeMu.RUnlock()

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.TextPrimary))
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.TextMuted))
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error))
	SelectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.TextPrimary)).
		Background(lipgloss.Color(c.BgSelection))

	UserLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.UserAccent))
	AssistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.AssistantAccent))
	ThinkingStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(c.ThinkingAccent))
	ToolLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.ToolAccent))

	StatusRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Warning))
	StatusDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Success))
	StatusFailedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error))

	DiffAddStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.DiffAddFg))
	DiffRemoveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.DiffRemoveFg))

	BorderNormalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(c.BorderNormal))
	BorderActiveStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(c.BorderActive))
}

// SyntaxTheme returns the chroma theme name for the active theme.
func SyntaxTheme() string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if currentTheme.Colors.SyntaxTheme == "" {
		return "monokai"
	}
	return currentTheme.Colors.SyntaxTheme
}

// MarkdownTheme returns the glamour style name for the active theme.
func MarkdownTheme() string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if currentTheme.Colors.MarkdownTheme == "" {
		return "dark"
	}
	return currentTheme.Colors.MarkdownTheme
}
