package driven

import (
	"context"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// VectorStore persists index entries and answers filtered similarity queries.
// There is no application-level locking; implementations must tolerate
// concurrent writers.
//
// Implementations may include:
//   - Pinecone (hosted)
//   - SQLite (local, brute-force cosine)
//   - In-memory (tests and ephemeral runs)
type VectorStore interface {
	// Upsert inserts or replaces entries by ID.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Query returns up to topK entries matching filter, most similar first.
	Query(ctx context.Context, vector []float32, topK int, filter domain.QueryFilter) ([]domain.Match, error)

	// Fetch returns the entries for ids that exist, keyed by ID.
	Fetch(ctx context.Context, ids []string) (map[string]domain.IndexEntry, error)

	// List returns one page of ids. An empty token starts from the beginning.
	List(ctx context.Context, limit int, token string) (*domain.ListPage, error)

	// DeleteMany removes the given ids. Missing ids are ignored.
	DeleteMany(ctx context.Context, ids []string) error

	// Update applies a partial metadata change to one entry.
	Update(ctx context.Context, id string, patch domain.MetadataPatch) error

	// Close releases resources.
	Close() error
}
