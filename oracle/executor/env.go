// Package executor implements the seven message executors, one per
// registered preamble tag, each consuming a prefix of the remaining payload
// and mutating the auxiliary GlobalState through a state.Accessor.
package executor

import (
	"context"

	"github.com/gateway-fm/epoch-oracle/oracle/state"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// Env carries everything an executor needs beyond the message bytes
// themselves: where to read/write state, which invocation it belongs to,
// and the wire-format/identity constants from Config.
type Env struct {
	Accessor *state.Accessor

	// StateID is the GlobalState row this invocation mutates — always the
	// auxiliary scratch id during normal operation.
	StateID string

	// LegacyNetworkIdentity selects keying new Network rows by
	// state.NetworkCount (stringified) instead of by chainID, for replaying
	// a chain whose encoder used the legacy counter scheme.
	LegacyNetworkIdentity bool

	// InitialEncodingVersion is the value ResetState resets
	// GlobalState.EncodingVersion to.
	InitialEncodingVersion uint32
}

// Func is the signature every registered executor implements: it reads from
// data starting at offset 0, mutates state via env, and returns the number
// of bytes consumed. msg is the outer record the executor must finish
// populating (ID/BlockID/Index/Kind are already set) and save.
type Func func(ctx context.Context, env *Env, msg *types.Message, data []byte) (consumed int, err error)
