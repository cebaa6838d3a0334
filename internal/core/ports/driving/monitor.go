package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// MonitorService searches recent transcripts for watch-list mentions.
type MonitorService interface {
	// Search runs one channel search. An empty query uses the watch-list probe.
	Search(ctx context.Context, channelID, query string) (*domain.MonitorResult, error)

	// Tick searches every monitored channel and notifies on relevant summaries.
	Tick(ctx context.Context) (int, error)
}

// TranscriptSearch retrieves raw transcript chunks from a recent time window.
type TranscriptSearch interface {
	// Query returns the chunks most similar to probe for a channel within lookback.
	Query(ctx context.Context, channelID, probe string, lookback time.Duration) ([]domain.Match, error)
}
