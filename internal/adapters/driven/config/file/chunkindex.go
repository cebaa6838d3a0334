package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// Ensure ChunkIndexStore implements the interface.
var _ driven.ChunkIndexStore = (*ChunkIndexStore)(nil)

// ChunkIndexStore keeps one small JSON file per channel holding the next
// unused segment sequence: {"index": 42}. Writes go through a temp file and
// a rename so a crash never leaves a truncated file behind.
type ChunkIndexStore struct {
	mu  sync.Mutex
	dir string
}

type chunkIndexFile struct {
	Index int64 `json:"index"`
}

// NewChunkIndexStore creates a store rooted at dir.
func NewChunkIndexStore(dir string) (*ChunkIndexStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: chunk index directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create chunk index directory: %w", err)
	}
	return &ChunkIndexStore{dir: dir}, nil
}

// Next returns the stored next sequence for the channel, 1 if none.
func (s *ChunkIndexStore) Next(_ context.Context, channelID string) (int64, error) {
	path, err := s.path(channelID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read chunk index: %w", err)
	}

	var f chunkIndexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("decode chunk index %s: %w", path, err)
	}
	if f.Index < 1 {
		return 1, nil
	}
	return f.Index, nil
}

// Save records next for the channel.
func (s *ChunkIndexStore) Save(_ context.Context, channelID string, next int64) error {
	if next < 1 {
		return fmt.Errorf("%w: chunk index must be positive", domain.ErrInvalidInput)
	}
	path, err := s.path(channelID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(chunkIndexFile{Index: next}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chunk index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".chunk-index-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write chunk index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync chunk index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close chunk index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace chunk index: %w", err)
	}
	return nil
}

// Dir returns the directory holding the index files.
func (s *ChunkIndexStore) Dir() string {
	return s.dir
}

func (s *ChunkIndexStore) path(channelID string) (string, error) {
	if channelID == "" || strings.ContainsAny(channelID, `/\`) || channelID == "." || channelID == ".." {
		return "", fmt.Errorf("%w: channel id %q", domain.ErrInvalidInput, channelID)
	}
	return filepath.Join(s.dir, channelID+".json"), nil
}
