// Package tui renders taskflow output for terminals.
//
// All colors use AdaptiveColor for light/dark terminal support. Call
// CheckNoColor before rendering to respect NO_COLOR and TERM=dumb.
//
// Statuses carry an icon, a color and their text so that output stays
// readable without color.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/taskflow/internal/domain"
)

//nolint:gochecknoglobals // Package-level palette for the styling API
var (
	// ColorPrimary is blue, used for active states and headers.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for done tasks and success messages.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for review and attention states.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for errors, urgent and overdue tasks.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies faint formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// StatusColor returns the color of a task status.
func StatusColor(s domain.Status) lipgloss.AdaptiveColor {
	switch s {
	case domain.StatusInProgress:
		return ColorPrimary
	case domain.StatusReview:
		return ColorWarning
	case domain.StatusDone:
		return ColorSuccess
	case domain.StatusYetToStart, domain.StatusBacklog:
		return ColorMuted
	default:
		return ColorMuted
	}
}

// StatusIcon returns the icon of a task status.
func StatusIcon(s domain.Status) string {
	switch s {
	case domain.StatusYetToStart:
		return "◌"
	case domain.StatusBacklog:
		return "○"
	case domain.StatusInProgress:
		return "●"
	case domain.StatusReview:
		return "◐"
	case domain.StatusDone:
		return "✓"
	default:
		return "?"
	}
}

// PriorityColor returns the color of a task priority.
func PriorityColor(p domain.Priority) lipgloss.AdaptiveColor {
	switch p {
	case domain.PriorityUrgent:
		return ColorError
	case domain.PriorityHigh:
		return ColorWarning
	case domain.PriorityMedium:
		return ColorPrimary
	case domain.PriorityLow:
		return ColorMuted
	default:
		return ColorMuted
	}
}

// FormatStatus renders a status as icon plus text in its color.
func FormatStatus(s domain.Status) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render(StatusIcon(s) + " " + string(s))
}

// FormatPriority renders a priority in its color.
func FormatPriority(p domain.Priority) string {
	return lipgloss.NewStyle().Foreground(PriorityColor(p)).Render(string(p))
}

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// CheckNoColor disables colors when NO_COLOR is set or TERM is dumb.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (any value, including
// empty) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
