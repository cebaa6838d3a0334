package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/onair/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/onair/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/onair/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/onair/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/onair/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/onair/internal/core/domain"
)

// DefaultRefreshInterval is how often channel status is polled.
const DefaultRefreshInterval = 2 * time.Second

// App is the dashboard application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    *status.Bar
	input  *input.QueryInput

	// interval is the status poll period.
	interval time.Duration

	// states is the latest status snapshot.
	states []domain.ChannelWatchState

	// selected is the index of the highlighted channel.
	selected int

	// result is the last search result.
	result *domain.MonitorResult

	// searching is true while a search is in flight.
	searching bool

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new dashboard with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		bar:         status.NewBar(s, km),
		input:       input.NewQueryInput(s),
		interval:    DefaultRefreshInterval,
		currentView: messages.ViewDashboard,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithInterval sets the status poll interval.
func (a *App) WithInterval(d time.Duration) *App {
	if d > 0 {
		a.interval = d
	}
	return a
}

// Init implements tea.Model.
// It fetches the first snapshot and starts the poll timer.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("onair - dashboard"),
		a.fetchStatus(),
		a.tick(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.bar.SetWidth(msg.Width)
		a.input.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case messages.RefreshTick:
		return a, tea.Batch(a.fetchStatus(), a.tick())

	case messages.StatusLoaded:
		a.applyStatus(msg)
		return a, nil

	case messages.SearchCompleted:
		a.searching = false
		if msg.Err != nil {
			a.err = msg.Err
			a.bar.SetState(status.StateError)
			a.bar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.result = msg.Result
		a.bar.Clear()
		return a, nil

	case messages.ViewChanged:
		return a, a.switchView(msg.View)
	}

	if a.currentView == messages.ViewSearch {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	switch a.currentView {
	case messages.ViewSearch:
		switch {
		case keymap.Matches(k, a.keymap.Back):
			return a, a.switchView(messages.ViewDashboard)
		case keymap.Matches(k, a.keymap.Submit):
			return a, a.submitSearch()
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case messages.ViewHelp:
		if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) {
			return a, a.switchView(messages.ViewDashboard)
		}
		if keymap.Matches(k, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, nil

	case messages.ViewDashboard:
	}

	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(k, a.keymap.Help):
		return a, a.switchView(messages.ViewHelp)
	case keymap.Matches(k, a.keymap.Up):
		if a.selected > 0 {
			a.selected--
		}
	case keymap.Matches(k, a.keymap.Down):
		if a.selected < len(a.states)-1 {
			a.selected++
		}
	case keymap.Matches(k, a.keymap.Refresh):
		a.bar.SetState(status.StateRefreshing)
		return a, a.fetchStatus()
	case keymap.Matches(k, a.keymap.Query):
		if a.ports.Search == nil {
			a.err = fmt.Errorf("search is not available")
			return a, nil
		}
		return a, a.switchView(messages.ViewSearch)
	}
	return a, nil
}

func (a *App) switchView(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewSearch:
		a.bar.SetState(status.StateTyping)
		return a.input.Open(a.ports.displayName(a.SelectedChannel()))
	case messages.ViewHelp:
		a.bar.SetState(status.StateHelp)
	case messages.ViewDashboard:
		a.input.Close()
		if !a.searching {
			a.bar.Clear()
		}
	}
	return nil
}

func (a *App) applyStatus(msg messages.StatusLoaded) {
	if msg.Err != nil {
		a.err = msg.Err
		a.bar.SetState(status.StateError)
		a.bar.SetMessage(msg.Err.Error())
		return
	}

	a.err = nil
	a.states = msg.States
	if a.selected >= len(a.states) {
		a.selected = max(len(a.states)-1, 0)
	}

	streaming := 0
	for _, st := range a.states {
		if st.IsStreaming {
			streaming++
		}
	}
	a.bar.SetCounts(len(a.states), streaming, time.Now())
	if a.bar.State() == status.StateRefreshing || a.bar.State() == status.StateError {
		a.bar.Clear()
	}
}

func (a *App) anyStreaming() bool {
	for _, st := range a.states {
		if st.IsStreaming {
			return true
		}
	}
	return false
}

func (a *App) submitSearch() tea.Cmd {
	channelID := a.SelectedChannel()
	if channelID == "" {
		a.err = ErrNoChannelSelected
		return nil
	}

	query := a.input.Submit()
	a.searching = true
	a.result = nil
	a.currentView = messages.ViewDashboard
	a.bar.SetState(status.StateSearching)

	ctx, search := a.ctx, a.ports.Search
	return func() tea.Msg {
		result, err := search.Search(ctx, channelID, query)
		return messages.SearchCompleted{Result: result, Err: err}
	}
}

func (a *App) fetchStatus() tea.Cmd {
	ctx, source := a.ctx, a.ports.Status
	return func() tea.Msg {
		states, err := source.Status(ctx)
		return messages.StatusLoaded{States: states, Err: err}
	}
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.interval, func(time.Time) tea.Msg {
		return messages.RefreshTick{}
	})
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("onair"))
	b.WriteString("  ")
	if a.anyStreaming() {
		b.WriteString(a.styles.OnAir.Render("ON AIR"))
		b.WriteString("  ")
	}
	b.WriteString(a.styles.Muted.Render("live capture status"))
	b.WriteString("\n\n")

	switch a.currentView {
	case messages.ViewHelp:
		b.WriteString(a.viewHelp())
	case messages.ViewSearch:
		b.WriteString(a.viewChannels())
		b.WriteString("\n")
		b.WriteString(a.input.View())
		b.WriteString("\n")
	case messages.ViewDashboard:
		b.WriteString(a.viewChannels())
		b.WriteString(a.viewResult())
	}

	b.WriteString("\n")
	b.WriteString(a.bar.View())
	return b.String()
}

func (a *App) viewChannels() string {
	if len(a.states) == 0 {
		return a.styles.Muted.Render("  No channels reported yet.") + "\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("  %-20s %-11s %8s %6s  %s", "CHANNEL", "STATE", "SEGMENT", "RECON", "LAST ERROR")
	b.WriteString(a.styles.Subtitle.Render(header))
	b.WriteString("\n")

	for i, st := range a.states {
		name := truncate(a.ports.displayName(st.ChannelID), 20)
		seq := "-"
		if st.CurrentSequence > 0 {
			seq = fmt.Sprintf("%d", st.CurrentSequence)
		}
		row := fmt.Sprintf("%-20s %s %8s %6d  %s",
			name,
			a.styles.ForState(st.State).Render(fmt.Sprintf("%-11s", st.State)),
			seq,
			st.Reconnects,
			truncate(st.LastError, 40),
		)
		if i == a.selected {
			b.WriteString(a.styles.Selected.Render("▸ " + row))
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) viewResult() string {
	switch {
	case a.searching:
		return "\n" + a.styles.Muted.Render("  Searching...") + "\n"
	case a.result == nil:
		return ""
	case !a.result.Relevant:
		return fmt.Sprintf("\n%s\n", a.styles.Muted.Render(fmt.Sprintf(
			"  %s: nothing relevant in %d chunks", a.ports.displayName(a.result.ChannelID), a.result.Matches)))
	default:
		title := a.styles.Subtitle.Render(a.ports.displayName(a.result.ChannelID))
		return fmt.Sprintf("\n%s\n%s\n", title, a.styles.Border.Render(a.result.Summary))
	}
}

func (a *App) viewHelp() string {
	return `Help

Dashboard:
  j/k, ↑/↓    Select channel
  / or enter  Search the selected channel
  r           Refresh now
  q           Quit

Search:
  (type)      Topic to look for; leave empty for the watch list
  enter       Run search
  esc         Back to dashboard

[esc] back to dashboard
`
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the dashboard.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// SelectedChannel returns the id of the highlighted channel, empty if none.
func (a *App) SelectedChannel() string {
	if a.selected < 0 || a.selected >= len(a.states) {
		return ""
	}
	return a.states[a.selected].ChannelID
}

// States returns the latest status snapshot.
func (a *App) States() []domain.ChannelWatchState {
	return a.states
}

// Result returns the last search result.
func (a *App) Result() *domain.MonitorResult {
	return a.result
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.bar.SetWidth(width)
	a.input.SetWidth(width)
}
