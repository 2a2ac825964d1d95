package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in a map. Used by tests.
type ConfigStore struct {
	mu      sync.RWMutex
	values  map[string]any
	saveErr error
}

// NewConfigStore returns a ConfigStore seeded with values.
func NewConfigStore(values ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, v := range values {
		maps.Copy(s.values, v)
	}
	return s
}

// FailSaves makes every following Set and Save return err. Nil restores success.
func (s *ConfigStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Get returns the value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// Set stores value under key unless saves are failing.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.values[key] = value
	return nil
}

// Save returns the configured save error, if any.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveErr
}

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Keys returns every stored key, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
