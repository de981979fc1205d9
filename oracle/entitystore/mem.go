package entitystore

import (
	"context"
	"sync"
)

// MemEntityStore is an in-process map-of-maps implementation without a
// durable backing store, used by tests; the oracle CLI uses KVEntityStore.
type MemEntityStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemEntityStore returns an empty store with a bucket pre-created for
// every entry in Kinds.
func NewMemEntityStore() *MemEntityStore {
	s := &MemEntityStore{data: make(map[string]map[string][]byte, len(Kinds))}
	for _, k := range Kinds {
		s.data[k] = make(map[string][]byte)
	}
	return s
}

func (s *MemEntityStore) Load(_ context.Context, kind string, id string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket, ok := s.data[kind]
	if !ok {
		return nil, false, nil
	}
	v, ok := bucket[id]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemEntityStore) Save(_ context.Context, kind string, id string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.data[kind]
	if !ok {
		bucket = make(map[string][]byte)
		s.data[kind] = bucket
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	bucket[id] = stored
	return nil
}
