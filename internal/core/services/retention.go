package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
	"github.com/custodia-labs/onair/internal/logger"
)

// Default retention values.
const (
	DefaultRetentionHorizon = 48 * time.Hour
	DefaultRetentionPage    = 100
)

// Ensure RetentionSweeper implements the interface.
var _ driving.RetentionService = (*RetentionSweeper)(nil)

// RetentionConfig configures the sweep.
type RetentionConfig struct {
	// Horizon is how long entries are kept, measured from their start time.
	Horizon time.Duration

	// PageSize is the number of ids listed per page.
	PageSize int
}

// RetentionSweeper deletes entries whose audio started before the horizon.
type RetentionSweeper struct {
	store driven.VectorStore
	cfg   RetentionConfig
	now   func() time.Time
}

// NewRetentionSweeper creates a sweeper.
func NewRetentionSweeper(store driven.VectorStore, cfg RetentionConfig) *RetentionSweeper {
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultRetentionHorizon
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultRetentionPage
	}
	return &RetentionSweeper{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Sweep walks every page of the store once and deletes stale entries,
// one DeleteMany per page. Entries without a numeric start time are kept.
// Any store error aborts the sweep; the next run starts over.
func (r *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, domain.ErrVectorStoreUnavailable
	}

	cutoff := r.now().Add(-r.cfg.Horizon)
	deleted := 0
	token := ""

	for {
		page, err := r.store.List(ctx, r.cfg.PageSize, token)
		if err != nil {
			return deleted, fmt.Errorf("listing entries: %w", err)
		}

		if len(page.IDs) > 0 {
			entries, err := r.store.Fetch(ctx, page.IDs)
			if err != nil {
				return deleted, fmt.Errorf("fetching entries: %w", err)
			}

			var stale []string
			for _, id := range page.IDs {
				entry, ok := entries[id]
				if !ok || entry.StartTime.IsZero() {
					continue
				}
				if entry.StartTime.Before(cutoff) {
					stale = append(stale, id)
				}
			}

			if len(stale) > 0 {
				if err := r.store.DeleteMany(ctx, stale); err != nil {
					return deleted, fmt.Errorf("deleting entries: %w", err)
				}
				deleted += len(stale)
				logger.Debug("retention: deleted %d entries older than %s", len(stale), cutoff.Format(time.RFC3339))
			}
		}

		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	logger.Info("retention: sweep removed %d entries", deleted)
	return deleted, nil
}
