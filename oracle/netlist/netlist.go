// Package netlist maintains the active-network set as a singly-linked list
// of Network entities, materializing it to a contiguous slice for the
// duration of one invocation and re-serializing the result on commit.
package netlist

import (
	"context"
	"fmt"

	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/state"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// ErrInvariantViolation marks a network-list invariant failure: an
// activeNetworkCount mismatch or an out-of-range swap index. It always
// aborts and rolls back the invocation.
var ErrInvariantViolation = errs.ErrInvariantViolation

// Materialize walks s.NetworkArrayHead following NextArrayElement,
// collecting nodes whose RemovedAt is nil, and asserts the result's length
// equals s.ActiveNetworkCount.
func Materialize(ctx context.Context, a *state.Accessor, s *types.GlobalState) ([]*types.Network, error) {
	var out []*types.Network
	cursor := s.NetworkArrayHead
	seen := make(map[string]bool)
	for cursor != nil {
		id := *cursor
		if seen[id] {
			return nil, fmt.Errorf("%w: cycle in network list at %s", ErrInvariantViolation, id)
		}
		seen[id] = true

		n, ok, err := a.Network(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", id, state.ErrNetworkNotFound)
		}
		if n.RemovedAt == nil {
			out = append(out, n)
		}
		cursor = n.NextArrayElement
	}

	if uint64(len(out)) != s.ActiveNetworkCount {
		return nil, fmt.Errorf("%w: materialized %d networks, state claims %d", ErrInvariantViolation, len(out), s.ActiveNetworkCount)
	}
	return out, nil
}

// SwapAndPop removes the element at index by swapping it with the tail and
// popping the tail: the former tail takes the removed slot, and every other
// element keeps its position.
// It returns the removed node and the retained slice (a fresh slice; list
// is not mutated).
func SwapAndPop(list []*types.Network, index int) (removed *types.Network, retained []*types.Network, err error) {
	if index < 0 || index >= len(list) {
		return nil, nil, fmt.Errorf("%w: swap index %d out of range [0,%d)", ErrInvariantViolation, index, len(list))
	}

	out := make([]*types.Network, len(list))
	copy(out, list)
	removed = out[index]
	last := len(out) - 1
	out[index] = out[last]
	out = out[:last]
	return removed, out, nil
}

// Commit re-links retained into an in-order singly-linked list, clears the
// list fields of removed, and updates state's head/activeNetworkCount. It
// stages every touched Network via SaveNetwork and the state via
// SaveGlobalState at stateID.
func Commit(a *state.Accessor, stateID string, s *types.GlobalState, removed []*types.Network, retained []*types.Network) {
	for _, n := range removed {
		n.State = nil
		n.NextArrayElement = nil
		n.ArrayIndex = nil
		a.SaveNetwork(n)
	}

	for i, n := range retained {
		sid := stateID
		n.State = &sid
		idx := uint32(i)
		n.ArrayIndex = &idx
		if i+1 < len(retained) {
			next := retained[i+1].ChainID
			n.NextArrayElement = &next
		} else {
			n.NextArrayElement = nil
		}
		a.SaveNetwork(n)
	}

	if len(retained) > 0 {
		head := retained[0].ChainID
		s.NetworkArrayHead = &head
	} else {
		s.NetworkArrayHead = nil
	}
	s.ActiveNetworkCount = uint64(len(retained))
}
