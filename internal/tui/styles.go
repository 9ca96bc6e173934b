package tui

import "github.com/charmbracelet/lipgloss"

const (
	// DefaultPadding is the horizontal padding inside boxes
	DefaultPadding = 2

	// PromptArrow is the arrow character used in prompts
	PromptArrow = "▶ "
)

const (
	accentColorCode    = "62"  // Blue
	dimColorCode       = "240" // Dark gray
	errorColorCode     = "196" // Red
	highlightColorCode = "86"  // Cyan
	primaryColorCode   = "205" // Pink/purple
	successColorCode   = "42"  // Green
	warningColorCode   = "226" // Yellow
)

// BoxStyle returns the style for the procedures box
func BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accentColorCode)).
		Padding(0, DefaultPadding)
}

// TitleStyle returns the style for titles
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(primaryColorCode)).
		MarginBottom(1)
}

// PromptStyle returns the style for the question line
func PromptStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(highlightColorCode)).
		Bold(true)
}

// DimStyle returns the style for help text
func DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(dimColorCode))
}

// SuccessStyle returns the style for the accepted answer
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(successColorCode)).
		Bold(true)
}

// WarningStyle returns the style for the aborted answer
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(warningColorCode)).
		Bold(true)
}

// ErrorStyle returns the style for error messages
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(errorColorCode)).
		Bold(true)
}

// RenderError renders an error message with consistent styling
func RenderError(text string) string {
	return ErrorStyle().Render(text)
}
