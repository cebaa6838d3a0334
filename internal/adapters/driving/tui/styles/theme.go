// Package styles holds the dashboard palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// Theme is the dashboard palette.
type Theme struct {
	Accent  lipgloss.Color // titles, the on-air badge
	Info    lipgloss.Color // connecting channels, subtitles
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Live    lipgloss.Color // streaming channels
	Warning lipgloss.Color // recovering channels
	Error   lipgloss.Color
	Border  lipgloss.Color
	Bar     lipgloss.Color // status bar background
}

// DefaultTheme returns the studio palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#E5484D"),
		Info:    lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Dim:     lipgloss.Color("#6C7086"),
		Live:    lipgloss.Color("#A6E3A1"),
		Warning: lipgloss.Color("#F9E2AF"),
		Error:   lipgloss.Color("#F38BA8"),
		Border:  lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles are the rendered styles used across the dashboard.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// OnAir is the reversed badge shown next to the title.
	OnAir lipgloss.Style
}

// NewStyles builds styles from theme, or the default theme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	rounded := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border)

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Accent).Bold(true),
		Subtitle:   fg(theme.Info).Bold(true),
		Normal:     fg(theme.Text),
		Muted:      fg(theme.Dim),
		Selected:   fg(theme.Text).Background(theme.Border).Bold(true),
		Error:      fg(theme.Error),
		Success:    fg(theme.Live),
		Warning:    fg(theme.Warning),
		InputField: rounded.Padding(0, 1),
		StatusBar:  fg(theme.Dim).Background(theme.Bar).Padding(0, 1),
		Border:     rounded,
		OnAir:      lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Background(theme.Accent).Padding(0, 1),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForState returns the style for a channel's capture state.
func (s *Styles) ForState(state domain.StreamState) lipgloss.Style {
	switch state {
	case domain.StreamStateStreaming:
		return s.Success
	case domain.StreamStateRecovering:
		return s.Warning
	case domain.StreamStateConnecting:
		return s.Subtitle
	default:
		return s.Muted
	}
}
