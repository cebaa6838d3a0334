package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/core/domain"
)

func TestChunkIndexStore_DefaultsToOne(t *testing.T) {
	store, err := NewChunkIndexStore(t.TempDir())
	require.NoError(t, err)

	next, err := store.Next(context.Background(), "2GB")

	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestChunkIndexStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewChunkIndexStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "2GB", 42))
	require.NoError(t, store.Save(ctx, "3AW", 7))

	// A fresh store simulates a process restart
	reopened, err := NewChunkIndexStore(dir)
	require.NoError(t, err)

	next, err := reopened.Next(ctx, "2GB")
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)

	next, err = reopened.Next(ctx, "3AW")
	require.NoError(t, err)
	assert.Equal(t, int64(7), next)

	data, err := os.ReadFile(filepath.Join(dir, "2GB.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"index": 42}`, string(data))
}

func TestChunkIndexStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := NewChunkIndexStore(dir)
	require.NoError(t, err)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, store.Save(context.Background(), "2GB", i))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2GB.json", entries[0].Name())
}

func TestChunkIndexStore_RejectsBadInput(t *testing.T) {
	store, err := NewChunkIndexStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, "2GB", 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(ctx, "../escape", 3), domain.ErrInvalidInput)
	_, err = store.Next(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewChunkIndexStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChunkIndexStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2GB.json"), []byte("{not json"), 0600))

	store, err := NewChunkIndexStore(dir)
	require.NoError(t, err)

	_, err = store.Next(context.Background(), "2GB")
	assert.Error(t, err)
}
