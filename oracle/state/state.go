// Package state provides typed entity accessors over the byte-oriented
// write-back cache, so the executors, network list manager, and driver
// never hand-roll Marshal/Unmarshal calls themselves.
package state

import (
	"context"

	"github.com/gateway-fm/epoch-oracle/oracle/cache"
	"github.com/gateway-fm/epoch-oracle/oracle/entitystore"
	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// Accessor composes the StoreCache with typed load/save helpers for every
// entity kind in the data model.
type Accessor struct {
	cache                  *cache.StoreCache
	initialEncodingVersion uint32
}

// New returns an Accessor over c. initialEncodingVersion seeds a
// lazily-created GlobalState's encodingVersion.
func New(c *cache.StoreCache, initialEncodingVersion uint32) *Accessor {
	return &Accessor{cache: c, initialEncodingVersion: initialEncodingVersion}
}

func (a *Accessor) Cache() *cache.StoreCache { return a.cache }

// GlobalState loads the GlobalState row at id, creating a fresh
// default-initialized one (marked dirty) if absent.
func (a *Accessor) GlobalState(ctx context.Context, id string) (*types.GlobalState, error) {
	raw, err := a.cache.GetOrCreate(ctx, entitystore.KindGlobalState, id, func() []byte {
		return types.NewGlobalState(a.initialEncodingVersion).Marshal()
	})
	if err != nil {
		return nil, err
	}
	return types.UnmarshalGlobalState(raw)
}

// SaveGlobalState stages s at id in the write-back cache.
func (a *Accessor) SaveGlobalState(id string, s *types.GlobalState) {
	a.cache.Put(entitystore.KindGlobalState, id, s.Marshal())
}

func (a *Accessor) Network(ctx context.Context, chainID string) (*types.Network, bool, error) {
	raw, ok, err := a.cache.Get(ctx, entitystore.KindNetwork, chainID)
	if err != nil || !ok {
		return nil, ok, err
	}
	n, err := types.UnmarshalNetwork(raw)
	return n, true, err
}

func (a *Accessor) SaveNetwork(n *types.Network) {
	a.cache.Put(entitystore.KindNetwork, n.ChainID, n.Marshal())
}

func (a *Accessor) Epoch(ctx context.Context, id string) (*types.Epoch, bool, error) {
	raw, ok, err := a.cache.Get(ctx, entitystore.KindEpoch, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	e, err := types.UnmarshalEpoch(raw)
	return e, true, err
}

func (a *Accessor) SaveEpoch(id string, e *types.Epoch) {
	a.cache.Put(entitystore.KindEpoch, id, e.Marshal())
}

func (a *Accessor) NEBN(ctx context.Context, id string) (*types.NetworkEpochBlockNumber, bool, error) {
	raw, ok, err := a.cache.Get(ctx, entitystore.KindNEBN, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	n, err := types.UnmarshalNetworkEpochBlockNumber(raw)
	return n, true, err
}

func (a *Accessor) SaveNEBN(id string, n *types.NetworkEpochBlockNumber) {
	a.cache.Put(entitystore.KindNEBN, id, n.Marshal())
}

func (a *Accessor) Payload(ctx context.Context, id string) (*types.Payload, bool, error) {
	raw, ok, err := a.cache.Get(ctx, entitystore.KindPayload, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	p, err := types.UnmarshalPayload(raw)
	return p, true, err
}

func (a *Accessor) SavePayload(id string, p *types.Payload) {
	a.cache.Put(entitystore.KindPayload, id, p.Marshal())
}

func (a *Accessor) SaveMessageBlock(id string, m *types.MessageBlock) {
	a.cache.Put(entitystore.KindMessageBlock, id, m.Marshal())
}

func (a *Accessor) SaveMessage(m *types.Message) {
	a.cache.Put(entitystore.KindMessage, m.ID, m.Marshal())
}

func (a *Accessor) SavePermissionListEntry(id string, p *types.PermissionListEntry) {
	a.cache.Put(entitystore.KindPermissionListEntry, id, p.Marshal())
}

// CopyGlobalStateFields copies the §3 commit/rollback-relevant fields from
// src into dst's id, leaving dst's other (non-listed) storage untouched.
// Used both for rollback-prep (canonical -> auxiliary) and commit
// (auxiliary -> canonical).
func CopyGlobalStateFields(dst *types.GlobalState, src *types.GlobalState) {
	clone := src.Clone()
	dst.NetworkCount = clone.NetworkCount
	dst.ActiveNetworkCount = clone.ActiveNetworkCount
	dst.NetworkArrayHead = clone.NetworkArrayHead
	dst.LatestValidEpoch = clone.LatestValidEpoch
	dst.EncodingVersion = clone.EncodingVersion
	dst.PermissionList = clone.PermissionList
}

// ErrNetworkNotFound is returned when a referenced Network id is absent
// from the store, which is always an InvariantViolation: the linked list
// must never reference a node that does not exist.
var ErrNetworkNotFound = errs.Wrap(errs.ErrInvariantViolation, "state: network not found")
