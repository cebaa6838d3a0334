package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
)

// DefaultTopK is the number of chunks a window query returns.
const DefaultTopK = 10

// Ensure TimeWindowQuery implements the interface.
var _ driving.TranscriptSearch = (*TimeWindowQuery)(nil)

// QueryConfig configures time-window retrieval.
type QueryConfig struct {
	// TopK caps the number of matches.
	TopK int

	// StrictToday restricts matches to entries ingested today, which misses
	// the part of a window that falls before midnight.
	StrictToday bool
}

// TimeWindowQuery retrieves a channel's most relevant recent transcripts.
type TimeWindowQuery struct {
	embedder driven.Embedder
	store    driven.VectorStore
	cfg      QueryConfig
	now      func() time.Time
}

// NewTimeWindowQuery creates a window query.
func NewTimeWindowQuery(embedder driven.Embedder, store driven.VectorStore, cfg QueryConfig) *TimeWindowQuery {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &TimeWindowQuery{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Query embeds probe and returns the channel's closest entries that started
// within lookback of now, most similar first.
func (q *TimeWindowQuery) Query(ctx context.Context, channelID, probe string, lookback time.Duration) ([]domain.Match, error) {
	if q.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if q.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	vector, err := q.embedder.Embed(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("embedding probe: %w", err)
	}

	matches, err := q.store.Query(ctx, vector, q.cfg.TopK, q.Filter(channelID, lookback))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", channelID, err)
	}
	return matches, nil
}

// Filter builds the store filter for a window ending now.
func (q *TimeWindowQuery) Filter(channelID string, lookback time.Duration) domain.QueryFilter {
	now := q.now()
	from := now.Add(-lookback)

	dates := domain.DaysSpanned(from, now)
	if q.cfg.StrictToday {
		dates = []string{domain.DayString(now)}
	}

	return domain.QueryFilter{
		ChannelID:      channelID,
		StartFrom:      from,
		IngestionDates: dates,
	}
}
