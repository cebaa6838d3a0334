// Package input provides the query prompt used to search a channel.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/onair/internal/adapters/driving/tui/styles"
)

const (
	defaultWidth = 50
	minWidth     = 20
	labelPadding = 10
)

// QueryInput is a one-line prompt bound to the channel being searched.
// Submitting an empty query searches for the configured watch list.
type QueryInput struct {
	field   textinput.Model
	styles  *styles.Styles
	channel string
	width   int
}

// NewQueryInput creates a closed query prompt.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "topic to look for, empty for the watch list"
	field.CharLimit = 256
	field.Width = defaultWidth

	return &QueryInput{field: field, styles: s, width: defaultWidth}
}

// Open clears the prompt and focuses it for channel.
func (q *QueryInput) Open(channel string) tea.Cmd {
	q.channel = channel
	q.field.Reset()
	return tea.Batch(q.field.Focus(), textinput.Blink)
}

// Close drops focus without clearing the typed text.
func (q *QueryInput) Close() {
	q.field.Blur()
}

// Submit closes the prompt and returns the trimmed query.
func (q *QueryInput) Submit() string {
	q.field.Blur()
	return strings.TrimSpace(q.field.Value())
}

// Update forwards key input to the field while it is open.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	if !q.field.Focused() {
		return q, nil
	}
	var cmd tea.Cmd
	q.field, cmd = q.field.Update(msg)
	return q, cmd
}

// View renders the prompt labelled with its channel.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render(q.channel + ": ")
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, q.styles.InputField.Render(q.field.View()))
}

// Value returns the raw text typed so far.
func (q *QueryInput) Value() string { return q.field.Value() }

// Channel returns the channel the prompt was opened for.
func (q *QueryInput) Channel() string { return q.channel }

// IsOpen reports whether the prompt has focus.
func (q *QueryInput) IsOpen() bool { return q.field.Focused() }

// SetWidth fits the field into width, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.field.Width = max(width-labelPadding, minWidth)
}
