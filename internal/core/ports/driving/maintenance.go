package driving

import "context"

// RetentionService purges entries older than the retention horizon.
type RetentionService interface {
	// Sweep deletes stale entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// RepairService backfills missing or legacy entry metadata.
type RepairService interface {
	// Repair patches entries and returns how many were updated.
	Repair(ctx context.Context) (int, error)
}
