// Package entitystore defines the EntityStore contract and its two
// implementations: an in-memory store for tests, and a key-value-backed
// store for durable deployments.
package entitystore

import "context"

// Store loads and saves entities by kind and id. Values are opaque bytes:
// the caller is responsible for the entity's own Marshal/Unmarshal.
type Store interface {
	Load(ctx context.Context, kind string, id string) (value []byte, ok bool, err error)
	Save(ctx context.Context, kind string, id string, value []byte) error
}

// Kinds enumerates the bucket/table names one EntityStore implementation
// must provision up front, mirroring the fixed table list a KV-backed store
// creates at open time.
var Kinds = []string{
	KindGlobalState,
	KindNetwork,
	KindEpoch,
	KindNEBN,
	KindPayload,
	KindMessageBlock,
	KindMessage,
	KindPermissionListEntry,
}

const (
	KindGlobalState         = "oracle_global_state"
	KindNetwork             = "oracle_network"
	KindEpoch               = "oracle_epoch"
	KindNEBN                = "oracle_nebn"
	KindPayload             = "oracle_payload"
	KindMessageBlock        = "oracle_message_block"
	KindMessage             = "oracle_message"
	KindPermissionListEntry = "oracle_permission_list_entry"
)
