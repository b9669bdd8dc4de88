package store

import (
	"context"
	"sync"

	"github.com/shopipet/chatkit/internal/core"
)

// MemoryStore is an in-process core.CatalogStore. It backs tests and
// deployments without a Redis backend; contents do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Get returns the blob at key, or core.ErrCatalogEmpty if absent.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, core.ErrCatalogEmpty
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set replaces the blob at key.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]byte, len(value))
	copy(data, value)
	s.blobs[key] = data
	return nil
}

// Delete removes the blob at key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}
