package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/config/confval"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds dotted-key settings in memory. Save and Load do nothing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore copies values into a new store.
func NewConfigStore(values map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) raw(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string             { return confval.String(s.raw(key)) }
func (s *ConfigStore) GetInt(key string) int                   { return confval.Int(s.raw(key)) }
func (s *ConfigStore) GetBool(key string) bool                 { return confval.Bool(s.raw(key)) }
func (s *ConfigStore) GetStringSlice(key string) []string      { return confval.Strings(s.raw(key)) }
func (s *ConfigStore) GetDuration(key string) time.Duration    { return confval.Duration(s.raw(key)) }
func (s *ConfigStore) GetMapSlice(key string) []map[string]any { return confval.Tables(s.raw(key)) }

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Save() error  { return nil }
func (s *ConfigStore) Load() error  { return nil }
func (s *ConfigStore) Path() string { return ":memory:" }
