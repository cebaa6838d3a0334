// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/onair/internal/core/domain"
)

// RefreshTick is sent on every poll interval.
type RefreshTick struct{}

// StatusLoaded carries a capture status snapshot back to the model.
type StatusLoaded struct {
	States []domain.ChannelWatchState
	Err    error
}

// SearchCompleted carries a channel search result back to the model.
type SearchCompleted struct {
	Result *domain.MonitorResult
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDashboard is the channel status table.
	ViewDashboard ViewType = iota
	// ViewSearch is the query input for the selected channel.
	ViewSearch
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}
