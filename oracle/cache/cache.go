// Package cache implements the per-invocation write-back cache that sits
// between the message executors and the durable EntityStore.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gateway-fm/epoch-oracle/oracle/entitystore"
)

// DefaultCleanLayerSize bounds the number of clean (non-dirty) reads
// memoized per entity kind before the least-recently-used entry is evicted.
const DefaultCleanLayerSize = 4096

type cleanEntry struct {
	value  []byte
	absent bool
}

// StoreCache is a write-back cache scoped to one invocation. Every write
// survives in the dirty layer for the invocation's lifetime regardless of
// access frequency; the LRU-bounded clean layer only memoizes reads that
// were not (yet) written, including store misses, so repeated Has/Get calls
// within an invocation do not repeatedly query the store.
//
// It is the sole write path during an invocation: executors never bypass it
// to talk to the EntityStore directly.
type StoreCache struct {
	store entitystore.Store

	dirty map[string]map[string][]byte
	clean map[string]*lru.Cache[string, cleanEntry]

	cleanLayerSize int
}

// New returns a cache backed by store, with clean reads bounded to
// cleanLayerSize entries per kind. A cleanLayerSize <= 0 selects
// DefaultCleanLayerSize.
func New(store entitystore.Store, cleanLayerSize int) *StoreCache {
	if cleanLayerSize <= 0 {
		cleanLayerSize = DefaultCleanLayerSize
	}
	return &StoreCache{
		store:          store,
		dirty:          make(map[string]map[string][]byte),
		clean:          make(map[string]*lru.Cache[string, cleanEntry]),
		cleanLayerSize: cleanLayerSize,
	}
}

func (c *StoreCache) cleanFor(kind string) *lru.Cache[string, cleanEntry] {
	l, ok := c.clean[kind]
	if !ok {
		// lru.New only errors on a non-positive size, which cleanLayerSize
		// is guaranteed not to be.
		l, _ = lru.New[string, cleanEntry](c.cleanLayerSize)
		c.clean[kind] = l
	}
	return l
}

// Get returns the current value for (kind, id): the dirty write if one
// exists this invocation, else a clean memoized read, else a fresh load from
// the EntityStore (itself memoized into the clean layer, including a miss).
func (c *StoreCache) Get(ctx context.Context, kind, id string) (value []byte, ok bool, err error) {
	if bucket, exists := c.dirty[kind]; exists {
		if v, ok := bucket[id]; ok {
			return v, true, nil
		}
	}

	if entry, ok := c.cleanFor(kind).Get(id); ok {
		if entry.absent {
			return nil, false, nil
		}
		return entry.value, true, nil
	}

	v, found, err := c.store.Load(ctx, kind, id)
	if err != nil {
		return nil, false, fmt.Errorf("cache: load %s/%s: %w", kind, id, err)
	}
	if !found {
		c.cleanFor(kind).Add(id, cleanEntry{absent: true})
		return nil, false, nil
	}
	c.cleanFor(kind).Add(id, cleanEntry{value: v})
	return v, true, nil
}

// Has reports whether (kind, id) exists in the dirty layer, the clean layer,
// or the store, without copying or returning the value.
func (c *StoreCache) Has(ctx context.Context, kind, id string) (bool, error) {
	_, ok, err := c.Get(ctx, kind, id)
	return ok, err
}

// GetOrCreate returns the existing cached or stored value for (kind, id); if
// none exists, it invokes makeDefault, marks the result dirty, and returns
// it. makeDefault is never called when a value already exists.
func (c *StoreCache) GetOrCreate(ctx context.Context, kind, id string, makeDefault func() []byte) ([]byte, error) {
	v, ok, err := c.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}
	v = makeDefault()
	c.Put(kind, id, v)
	return v, nil
}

// Put stages a write in the dirty layer. It does not touch the EntityStore
// until Commit.
func (c *StoreCache) Put(kind, id string, value []byte) {
	bucket, ok := c.dirty[kind]
	if !ok {
		bucket = make(map[string][]byte)
		c.dirty[kind] = bucket
	}
	bucket[id] = value
	// A dirty write supersedes any clean memoization of the same id, so the
	// clean entry is dropped.
	if l, ok := c.clean[kind]; ok {
		l.Remove(id)
	}
}

// Commit writes every dirty entry to the EntityStore, in arbitrary order,
// and clears both layers.
func (c *StoreCache) Commit(ctx context.Context) error {
	for kind, bucket := range c.dirty {
		for id, value := range bucket {
			if err := c.store.Save(ctx, kind, id, value); err != nil {
				return fmt.Errorf("cache: commit %s/%s: %w", kind, id, err)
			}
		}
	}
	c.Discard()
	return nil
}

// Discard drops both layers without writing anything to the EntityStore.
func (c *StoreCache) Discard() {
	c.dirty = make(map[string]map[string][]byte)
	c.clean = make(map[string]*lru.Cache[string, cleanEntry])
}
