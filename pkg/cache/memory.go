package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in a map guarded by a read-write mutex.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get retrieves a value.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Put stores a value.
func (s *MemoryStore) Put(ctx context.Context, key, value string) error {
	return s.PutBatch(ctx, Pair{Key: key, Value: value})
}

// PutBatch stores all pairs under a single lock, so readers observe either
// none or all of them.
func (s *MemoryStore) PutBatch(ctx context.Context, pairs ...Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, p := range pairs {
		s.data[p.Key] = p.Value
	}
	return nil
}

// Delete removes a value.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close releases the stored data. Further operations return [ErrClosed].
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Batcher = (*MemoryStore)(nil)
)
