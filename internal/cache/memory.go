package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

// MemoryStore keeps encoded chunk lists in process memory. Values are
// stored serialized so callers never share slices with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]doctree.Chunk, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	raw, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var chunks []doctree.Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return chunks, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, chunks []doctree.Chunk) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	s.items[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
