package entitystore

import (
	"context"
	"fmt"

	"github.com/gateway-fm/cdk-erigon-lib/kv"
)

// KVEntityStore wraps a transactional key-value handle with one bucket per
// entity kind, created up front. It is the durable-backing-store variant:
// entity bytes are the entity's own Marshal/Unmarshal encoding, never JSON,
// so the on-disk format stays stable and inspectable independent of Go
// struct tags.
type KVEntityStore struct {
	tx kv.RwTx
}

// NewKVEntityStore wraps tx; CreateBuckets must have been called once
// against the underlying database before any KVEntityStore is used.
func NewKVEntityStore(tx kv.RwTx) *KVEntityStore {
	return &KVEntityStore{tx: tx}
}

// CreateBuckets provisions one bucket per entity kind. Safe to call
// repeatedly; bucket creation is idempotent in the underlying kv store.
func CreateBuckets(tx kv.RwTx) error {
	for _, k := range Kinds {
		if err := tx.CreateBucket(k); err != nil {
			return fmt.Errorf("entitystore: create bucket %q: %w", k, err)
		}
	}
	return nil
}

func (s *KVEntityStore) Load(_ context.Context, kind string, id string) ([]byte, bool, error) {
	v, err := s.tx.GetOne(kind, []byte(id))
	if err != nil {
		return nil, false, fmt.Errorf("entitystore: load %s/%s: %w", kind, id, err)
	}
	if v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

func (s *KVEntityStore) Save(_ context.Context, kind string, id string, value []byte) error {
	if err := s.tx.Put(kind, []byte(id), value); err != nil {
		return fmt.Errorf("entitystore: save %s/%s: %w", kind, id, err)
	}
	return nil
}
