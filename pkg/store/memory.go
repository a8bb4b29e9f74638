package store

import (
	"context"
	"slices"
	"sync"

	"github.com/adonovan/spaghetti/pkg/dag"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]dag.EdgeKey
}

// NewMemoryStore returns an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]dag.EdgeKey)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]dag.EdgeKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records[key]), nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, edges []dag.EdgeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(edges) == 0 {
		delete(s.records, key)
		return nil
	}
	s.records[key] = slices.Clone(edges)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
