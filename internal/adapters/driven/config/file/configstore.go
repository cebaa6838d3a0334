package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/onair/internal/adapters/driven/config/confval"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps onair's settings in config.toml. Tables are addressed
// with dotted keys ("capture.chunk_duration"); arrays of tables such as
// [[channels]] stay whole under their own key.
type ConfigStore struct {
	path string

	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore opens config.toml in configDir (~/.onair when empty).
// A missing file is not an error; it is written on the first Set.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".onair")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: filepath.Join(configDir, "config.toml")}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) value(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string { return confval.String(s.value(key)) }
func (s *ConfigStore) GetInt(key string) int       { return confval.Int(s.value(key)) }
func (s *ConfigStore) GetBool(key string) bool     { return confval.Bool(s.value(key)) }

func (s *ConfigStore) GetStringSlice(key string) []string {
	return confval.Strings(s.value(key))
}

func (s *ConfigStore) GetDuration(key string) time.Duration {
	return confval.Duration(s.value(key))
}

func (s *ConfigStore) GetMapSlice(key string) []map[string]any {
	return confval.Tables(s.value(key))
}

// Set updates one key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.write()
}

func (s *ConfigStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.write()
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		raw, err = nil, nil
	}
	if err != nil {
		return err
	}

	tree := map[string]any{}
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return err
	}

	flat := make(map[string]any)
	flatten(flat, "", tree)

	s.mu.Lock()
	s.values = flat
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

// write must be called with mu held. The file may contain API keys.
func (s *ConfigStore) write() error {
	out, err := toml.Marshal(nestMap(s.values))
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, out, 0600)
}

// flatten copies tree into dst with dotted keys.
func flatten(dst map[string]any, prefix string, tree map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flatten(dst, k, table)
			continue
		}
		dst[k] = v
	}
}

// nestMap rebuilds TOML tables from dotted keys.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, v := range flat {
		path := strings.Split(key, ".")
		table := root
		for _, name := range path[:len(path)-1] {
			next, ok := table[name].(map[string]any)
			if !ok {
				next = make(map[string]any)
				table[name] = next
			}
			table = next
		}
		table[path[len(path)-1]] = v
	}
	return root
}
