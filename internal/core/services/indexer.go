package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// IndexWriter embeds transcripts and stores them with their time metadata.
type IndexWriter struct {
	embedder driven.Embedder
	store    driven.VectorStore
	now      func() time.Time
}

// NewIndexWriter creates an index writer.
func NewIndexWriter(embedder driven.Embedder, store driven.VectorStore) *IndexWriter {
	return &IndexWriter{
		embedder: embedder,
		store:    store,
		now:      time.Now,
	}
}

// Index embeds text and upserts it as one entry. Returns the new entry ID.
func (w *IndexWriter) Index(ctx context.Context, text, channelID string, start, end time.Time) (string, error) {
	if w.embedder == nil {
		return "", domain.ErrEmbeddingUnavailable
	}
	if w.store == nil {
		return "", domain.ErrVectorStoreUnavailable
	}

	entry := domain.IndexEntry{
		ID:            uuid.NewString(),
		Text:          text,
		ChannelID:     channelID,
		StartTime:     start,
		EndTime:       end,
		IngestionDate: domain.DayString(w.now()),
	}
	if err := entry.Validate(); err != nil {
		return "", err
	}

	vector, err := w.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embedding transcript: %w", err)
	}
	entry.Vector = vector

	if err := w.store.Upsert(ctx, []domain.IndexEntry{entry}); err != nil {
		return "", fmt.Errorf("storing transcript: %w", err)
	}
	return entry.ID, nil
}
