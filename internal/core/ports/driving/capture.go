package driving

import (
	"context"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// CaptureService runs capture for every configured channel.
type CaptureService interface {
	// Run captures all channels until ctx is cancelled.
	Run(ctx context.Context) error

	// Status returns a snapshot of every channel's watch state.
	Status() []domain.ChannelWatchState
}
