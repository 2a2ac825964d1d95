package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore for testing.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []domain.ChatHistoryEntry
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Append stores an entry.
func (s *HistoryStore) Append(_ context.Context, entry domain.ChatHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Citekeys = append([]domain.Citekey(nil), entry.Citekeys...)
	s.entries = append(s.entries, entry)
	return nil
}

// List returns up to limit entries, newest first. A limit of 0 returns all.
func (s *HistoryStore) List(_ context.Context, limit int) ([]domain.ChatHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]domain.ChatHistoryEntry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.entries[i])
	}
	return result, nil
}

// Clear removes all entries.
func (s *HistoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
