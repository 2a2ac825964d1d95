package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type storedIndex struct {
	manifest domain.IndexManifest
	records  []domain.VectorRecord
	corrupt  bool
}

// VectorStore is an in-memory implementation of driven.VectorStore for testing.
type VectorStore struct {
	mu        sync.RWMutex
	indexes   map[domain.Citekey]*storedIndex
	loads     int
	publishes int
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		indexes: make(map[domain.Citekey]*storedIndex),
	}
}

// Exists reports whether an index is stored for citekey, readable or not.
func (s *VectorStore) Exists(citekey domain.Citekey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[citekey]
	return ok
}

// Load returns copies of the stored manifest and records.
func (s *VectorStore) Load(_ context.Context, citekey domain.Citekey) (*domain.IndexManifest, []domain.VectorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++

	idx, ok := s.indexes[citekey]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	if idx.corrupt {
		return nil, nil, domain.ErrCorruptIndex
	}

	manifest := idx.manifest
	records := make([]domain.VectorRecord, len(idx.records))
	copy(records, idx.records)
	return &manifest, records, nil
}

// Publish replaces the stored index for manifest.Citekey.
func (s *VectorStore) Publish(_ context.Context, manifest domain.IndexManifest, records []domain.VectorRecord) error {
	if manifest.Citekey == "" {
		return domain.ErrInvalidInput
	}

	stored := make([]domain.VectorRecord, len(records))
	copy(stored, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishes++
	s.indexes[manifest.Citekey] = &storedIndex{manifest: manifest, records: stored}
	return nil
}

// Delete removes the stored index. Deleting a missing index is not an error.
func (s *VectorStore) Delete(citekey domain.Citekey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, citekey)
	return nil
}

// List returns the citekeys of all stored indexes, sorted.
func (s *VectorStore) List(_ context.Context) ([]domain.Citekey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]domain.Citekey, 0, len(s.indexes))
	for k := range s.indexes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Corrupt marks a stored index unreadable, or stores an unreadable one.
// The mark is cleared by the next Publish.
func (s *VectorStore) Corrupt(citekey domain.Citekey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[citekey]
	if !ok {
		idx = &storedIndex{manifest: domain.IndexManifest{Citekey: citekey}}
		s.indexes[citekey] = idx
	}
	idx.corrupt = true
}

// PublishCount returns how many times Publish succeeded.
func (s *VectorStore) PublishCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publishes
}

// LoadCount returns how many times Load was called.
func (s *VectorStore) LoadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}
