package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
	"github.com/custodia-labs/onair/internal/logger"
)

// DefaultRepairPage is the number of entries repaired per page.
const DefaultRepairPage = 10

// Ensure MetadataRepair implements the interface.
var _ driving.RepairService = (*MetadataRepair)(nil)

// RepairConfig configures metadata repair.
type RepairConfig struct {
	// PageSize is the number of ids listed per page.
	PageSize int

	// ChunkDuration fills in a missing end time.
	ChunkDuration time.Duration

	// Location resolves legacy clock times. Defaults to local time.
	Location *time.Location
}

// MetadataRepair backfills entries written by older ingesters: clock-only
// times become epoch times, a missing date is derived from the start time
// and a missing end time from the chunk duration.
type MetadataRepair struct {
	store driven.VectorStore
	cfg   RepairConfig
}

// NewMetadataRepair creates a repair service.
func NewMetadataRepair(store driven.VectorStore, cfg RepairConfig) *MetadataRepair {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultRepairPage
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = DefaultChunkDuration
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &MetadataRepair{store: store, cfg: cfg}
}

// Repair walks the whole store and patches every entry that needs it.
// Per-entry failures are logged and collected; listing failures abort.
func (r *MetadataRepair) Repair(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, domain.ErrVectorStoreUnavailable
	}

	var errs []error
	updated := 0
	token := ""

	for {
		page, err := r.store.List(ctx, r.cfg.PageSize, token)
		if err != nil {
			return updated, errors.Join(append(errs, fmt.Errorf("listing entries: %w", err))...)
		}

		if len(page.IDs) > 0 {
			entries, err := r.store.Fetch(ctx, page.IDs)
			if err != nil {
				return updated, errors.Join(append(errs, fmt.Errorf("fetching entries: %w", err))...)
			}

			for _, id := range page.IDs {
				entry, ok := entries[id]
				if !ok {
					continue
				}
				patch, err := r.Plan(&entry)
				if err != nil {
					logger.Warn("repair: entry %s: %v", id, err)
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				if patch.IsEmpty() {
					continue
				}
				if err := r.store.Update(ctx, id, patch); err != nil {
					logger.Warn("repair: updating %s: %v", id, err)
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				updated++
			}
		}

		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	logger.Info("repair: updated %d entries", updated)
	return updated, errors.Join(errs...)
}

// Plan returns the patch an entry needs. The patch is empty for entries
// that are already complete.
func (r *MetadataRepair) Plan(e *domain.IndexEntry) (domain.MetadataPatch, error) {
	var patch domain.MetadataPatch

	start, end := e.StartTime, e.EndTime
	if start.IsZero() && e.Legacy != nil {
		if e.IngestionDate == "" {
			return patch, fmt.Errorf("%w: legacy times without a date", domain.ErrInvalidInput)
		}
		s, err := domain.ParseClock(e.IngestionDate, e.Legacy.StartClock, r.cfg.Location)
		if err != nil {
			return patch, err
		}
		start = s
		patch.StartTime = &start

		if en, err := domain.ParseClock(e.IngestionDate, e.Legacy.EndClock, r.cfg.Location); err == nil {
			// A chunk that crossed midnight ends on the next day
			if !en.After(start) {
				en = en.AddDate(0, 0, 1)
			}
			end = en
			patch.EndTime = &end
		}
	}

	if start.IsZero() {
		return patch, nil
	}

	if end.IsZero() {
		end = start.Add(r.cfg.ChunkDuration)
		patch.EndTime = &end
	}
	if e.IngestionDate == "" {
		day := domain.DayString(start)
		patch.IngestionDate = &day
	}
	return patch, nil
}
