package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory driven.VectorStore with brute-force cosine search.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		entries: make(map[string]domain.IndexEntry),
	}
}

// Upsert inserts or replaces entries by ID.
func (s *VectorStore) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range entries {
		if entries[i].ID == "" {
			return fmt.Errorf("%w: entry id is required", domain.ErrInvalidInput)
		}
		s.entries[entries[i].ID] = cloneEntry(entries[i])
	}
	return nil
}

// Query returns the topK entries passing the filter, most similar first.
func (s *VectorStore) Query(
	_ context.Context,
	vector []float32,
	topK int,
	filter domain.QueryFilter,
) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	var matches []domain.Match
	for _, e := range s.entries {
		if !filter.Matches(&e) {
			continue
		}
		matches = append(matches, domain.Match{
			Entry: cloneEntry(e),
			Score: domain.CosineSimilarity(vector, e.Vector),
		})
	}
	s.mu.RUnlock()

	// Ties break on ID so results are deterministic
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Entry.ID < matches[j].Entry.ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Fetch returns entries by ID. Unknown IDs are absent from the result.
func (s *VectorStore) Fetch(_ context.Context, ids []string) (map[string]domain.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.IndexEntry, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			result[id] = cloneEntry(e)
		}
	}
	return result, nil
}

// List pages through IDs in ascending order. The token is the last ID of
// the previous page.
func (s *VectorStore) List(_ context.Context, limit int, token string) (*domain.ListPage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: list limit must be positive", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		if id > token {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	page := &domain.ListPage{IDs: ids}
	if len(ids) > limit {
		page.IDs = ids[:limit]
		page.NextToken = ids[limit-1]
	}
	return page, nil
}

// DeleteMany removes the given IDs. Unknown IDs are ignored.
func (s *VectorStore) DeleteMany(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

// Update applies a partial metadata change.
func (s *VectorStore) Update(_ context.Context, id string, patch domain.MetadataPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	patch.Apply(&e)
	s.entries[id] = e
	return nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

// Len returns the number of stored entries.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneEntry(e domain.IndexEntry) domain.IndexEntry {
	if e.Vector != nil {
		e.Vector = append([]float32(nil), e.Vector...)
	}
	if e.Legacy != nil {
		legacy := *e.Legacy
		e.Legacy = &legacy
	}
	return e
}
