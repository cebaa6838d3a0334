// Package tui provides the interactive terminal dashboard for onair.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"context"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// StatusSource reports per-channel capture state.
type StatusSource interface {
	Status(ctx context.Context) ([]domain.ChannelWatchState, error)
}

// ChannelSearcher runs an on-demand channel search.
type ChannelSearcher interface {
	Search(ctx context.Context, channelID, query string) (*domain.MonitorResult, error)
}

// Ports aggregates the services the dashboard needs.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Status is polled for channel state.
	Status StatusSource

	// Search answers searches from the dashboard. Optional.
	Search ChannelSearcher

	// Channels supplies display names.
	Channels []domain.Channel
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Status == nil {
		return ErrMissingStatusSource
	}
	return nil
}

// displayName returns the configured name of a channel, falling back to its id.
func (p *Ports) displayName(id string) string {
	for _, c := range p.Channels {
		if c.ID == id {
			return c.DisplayName()
		}
	}
	return id
}
