// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/onair/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/onair/internal/adapters/driving/tui/styles"
)

// State represents the current dashboard state for display.
type State string

const (
	StateReady      State = "ready"
	StateRefreshing State = "refreshing"
	StateSearching  State = "searching"
	StateTyping     State = "typing"
	StateError      State = "error"
	StateHelp       State = "help"
)

// Bar displays channel counts, the last refresh and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	channels  int
	streaming int
	refreshed time.Time
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// The style's padding and border are drawn inside s.width.
	style := s.styles.StatusBar
	inner := max(s.width-style.GetHorizontalFrameSize(), 0)

	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return style.Width(inner + style.GetHorizontalPadding()).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateRefreshing:
		return s.styles.Muted.Render("Refreshing...")
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateReady, StateTyping:
	}

	if s.channels == 0 {
		return s.styles.Muted.Render("No channels")
	}
	text := fmt.Sprintf("%d/%d streaming", s.streaming, s.channels)
	if !s.refreshed.IsZero() {
		text += " · updated " + s.refreshed.Format("15:04:05")
	}
	return s.styles.Normal.Render(text)
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateTyping {
		bindings = s.keymap.SearchHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCounts records how many channels exist and how many are streaming.
func (s *Bar) SetCounts(channels, streaming int, at time.Time) {
	s.channels = channels
	s.streaming = streaming
	s.refreshed = at
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
