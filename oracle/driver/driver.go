// Package driver implements the top-level invocation loop: preamble
// parsing, executor dispatch, audit-log bookkeeping, and commit/rollback of
// the auxiliary GlobalState.
package driver

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gateway-fm/epoch-oracle/oracle/cache"
	"github.com/gateway-fm/epoch-oracle/oracle/codec"
	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/executor"
	"github.com/gateway-fm/epoch-oracle/oracle/state"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// Config carries the wire-format and identity constants the Driver and its
// executors need; it is the narrow slice of the process-wide configuration
// the decoder itself depends on.
type Config struct {
	InitialEncodingVersion uint32
	LegacyNetworkIdentity  bool
	PreambleBits           int
}

// DefaultConfig matches the wire format described in the payload framing
// section: a 64-bit preamble, chain-id network identity, encoding version 1.
var DefaultConfig = Config{InitialEncodingVersion: 1, LegacyNetworkIdentity: false, PreambleBits: 64}

// Observer receives per-invocation and per-message notifications for
// metrics collection; a nil Observer is treated as a no-op.
type Observer interface {
	ObserveInvocation(valid bool, errorKind string)
	ObserveMessage(kind types.MessageKind)
	ObserveActiveNetworks(count uint64)
}

// Driver processes invocations one at a time against a shared EntityStore.
type Driver struct {
	cfg      Config
	observer Observer
}

// New returns a Driver using cfg; a zero-valued Observer field means
// observations are dropped.
func New(cfg Config, observer Observer) *Driver {
	return &Driver{cfg: cfg, observer: observer}
}

func (d *Driver) observeInvocation(valid bool, kind string) {
	if d.observer != nil {
		d.observer.ObserveInvocation(valid, kind)
	}
}

func (d *Driver) observeMessage(kind types.MessageKind) {
	if d.observer != nil {
		d.observer.ObserveMessage(kind)
	}
}

// Invoke processes one on-chain call: txHash is the Payload's key,
// submitter is the 20-byte calling address, payload is the raw message-block
// stream, and blockNumber is the L1 block the call was observed in (used
// only for Payload.CreatedAt bookkeeping).
//
// It returns the persisted Payload audit record. A non-nil error indicates
// an EntityStoreFailure: the invocation is abandoned with no commit at all,
// not even the failed Payload record.
func (d *Driver) Invoke(ctx context.Context, c *cache.StoreCache, txHash string, submitter [20]byte, payload []byte, blockNumber uint64) (*types.Payload, error) {
	a := state.New(c, d.cfg.InitialEncodingVersion)

	canonical, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrEntityStoreFailure, "driver: load canonical state")
	}
	aux, err := a.GlobalState(ctx, types.AuxiliaryGlobalStateID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrEntityStoreFailure, "driver: load auxiliary state")
	}
	state.CopyGlobalStateFields(aux, canonical)
	a.SaveGlobalState(types.AuxiliaryGlobalStateID, aux)

	env := &executor.Env{
		Accessor:               a,
		StateID:                types.AuxiliaryGlobalStateID,
		LegacyNetworkIdentity:  d.cfg.LegacyNetworkIdentity,
		InitialEncodingVersion: d.cfg.InitialEncodingVersion,
	}

	payloadEntity := &types.Payload{
		Data:      payload,
		Submitter: submitter,
		CreatedAt: new(big.Int).SetUint64(blockNumber),
	}

	decodeErr := d.runBlocks(ctx, env, txHash, payload)

	if decodeErr != nil {
		kind := errs.Kind(decodeErr)
		if kind == "entity_store_failure" {
			c.Discard()
			return nil, decodeErr
		}

		c.Discard()
		msg := kind
		payloadEntity.Valid = false
		payloadEntity.ErrorMessage = &msg
		a.SavePayload(txHash, payloadEntity)
		if err := c.Commit(ctx); err != nil {
			return nil, errs.Wrap(errs.ErrEntityStoreFailure, "driver: commit rollback payload")
		}
		d.observeInvocation(false, kind)
		return payloadEntity, nil
	}

	finalAux, err := a.GlobalState(ctx, types.AuxiliaryGlobalStateID)
	if err != nil {
		c.Discard()
		return nil, errs.Wrap(errs.ErrEntityStoreFailure, "driver: reload auxiliary state")
	}
	state.CopyGlobalStateFields(canonical, finalAux)
	a.SaveGlobalState(types.CanonicalGlobalStateID, canonical)

	payloadEntity.Valid = true
	a.SavePayload(txHash, payloadEntity)

	if err := c.Commit(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrEntityStoreFailure, "driver: commit invocation")
	}

	d.observeInvocation(true, "")
	d.observeActiveNetworks(finalAux.ActiveNetworkCount)
	return payloadEntity, nil
}

func (d *Driver) observeActiveNetworks(count uint64) {
	if d.observer != nil {
		d.observer.ObserveActiveNetworks(count)
	}
}

// runBlocks parses payload into message blocks and dispatches each tagged
// message to its executor. It returns the first decode error encountered
// (truncation or invariant violation); an unknown tag is not an error, it
// only terminates the current block.
func (d *Driver) runBlocks(ctx context.Context, env *executor.Env, txHash string, payload []byte) error {
	preambleBytes := d.cfg.PreambleBits / 8
	offset := 0
	blockIndex := 0

	for offset < len(payload) {
		blockStart := offset
		tags, err := codec.ReadPreamble(payload, offset)
		if err != nil {
			return errs.Wrap(errs.ErrTruncation, "driver: read preamble")
		}
		offset += preambleBytes

		blockID := fmt.Sprintf("%s-%d", txHash, blockIndex)

		for msgIndex, tag := range tags {
			if offset >= len(payload) {
				break
			}

			fn, ok := executor.Lookup(tag)
			if !ok {
				break
			}

			msg := &types.Message{
				ID:      types.MessageKey(blockID, uint32(msgIndex)),
				BlockID: blockID,
				Index:   uint32(msgIndex),
				Kind:    types.MessageKind(tag),
			}
			consumed, err := fn(ctx, env, msg, payload[offset:])
			if err != nil {
				return err
			}
			offset += consumed
			d.observeMessage(msg.Kind)
		}

		env.Accessor.SaveMessageBlock(blockID, &types.MessageBlock{
			Data:    payload[blockStart:offset],
			Payload: txHash,
		})
		blockIndex++
	}

	return nil
}
