package executor

import (
	"strconv"

	"context"

	"github.com/gateway-fm/epoch-oracle/oracle/codec"
	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/netlist"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// RegisterNetworks implements tag 3: a batch of removals by list index
// followed by a batch of additions keyed by chain id.
func RegisterNetworks(ctx context.Context, env *Env, msg *types.Message, data []byte) (int, error) {
	removedIdx, addedIDs, _, consumed, err := registerNetworksCommon(ctx, env, msg, data, false)
	if err != nil {
		return 0, err
	}
	msg.RegisterNetworks = &types.RegisterNetworksData{RemovedIndices: removedIdx, AddedChainIDs: addedIDs}
	env.Accessor.SaveMessage(msg)
	return consumed, nil
}

// RegisterNetworksAndAliases implements tag 4: like RegisterNetworks, but
// each addition carries an extra length-prefixed alias string.
func RegisterNetworksAndAliases(ctx context.Context, env *Env, msg *types.Message, data []byte) (int, error) {
	removedIdx, addedIDs, addedAliases, consumed, err := registerNetworksCommon(ctx, env, msg, data, true)
	if err != nil {
		return 0, err
	}
	msg.RegisterNetworksAndAliases = &types.RegisterNetworksAndAliasesData{
		RemovedIndices: removedIdx,
		AddedChainIDs:  addedIDs,
		AddedAliases:   addedAliases,
	}
	env.Accessor.SaveMessage(msg)
	return consumed, nil
}

func registerNetworksCommon(ctx context.Context, env *Env, msg *types.Message, data []byte, withAlias bool) (removedIdx []uint64, addedIDs []string, addedAliases []string, consumed int, err error) {
	s, err := env.Accessor.GlobalState(ctx, env.StateID)
	if err != nil {
		return nil, nil, nil, 0, errs.Wrap(errs.ErrEntityStoreFailure, "register_networks: load state")
	}

	list, err := netlist.Materialize(ctx, env.Accessor, s)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	offset := 0
	removeCount, n, err := codec.DecodeU64(data, offset)
	if err != nil {
		return nil, nil, nil, 0, errs.Wrap(errs.ErrTruncation, "register_networks: read removeCount")
	}
	offset += n

	var removed []*types.Network
	for i := uint64(0); i < removeCount; i++ {
		removeIndex, n, err := codec.DecodeU64(data, offset)
		if err != nil {
			return nil, nil, nil, 0, errs.Wrap(errs.ErrTruncation, "register_networks: read removeIndex")
		}
		offset += n

		r, retained, err := netlist.SwapAndPop(list, int(removeIndex))
		if err != nil {
			return nil, nil, nil, 0, err
		}
		list = retained
		r.RemovedAt = &msg.ID
		removed = append(removed, r)
		removedIdx = append(removedIdx, removeIndex)
	}

	addCount, n, err := codec.DecodeU64(data, offset)
	if err != nil {
		return nil, nil, nil, 0, errs.Wrap(errs.ErrTruncation, "register_networks: read addCount")
	}
	offset += n

	for i := uint64(0); i < addCount; i++ {
		chainID, n, err := readLengthPrefixedString(data, offset)
		if err != nil {
			return nil, nil, nil, 0, err
		}
		offset += n

		alias := ""
		if withAlias {
			alias, n, err = readLengthPrefixedString(data, offset)
			if err != nil {
				return nil, nil, nil, 0, err
			}
			offset += n
		}

		key := chainID
		if env.LegacyNetworkIdentity {
			key = strconv.FormatUint(s.NetworkCount, 10)
		}

		network := &types.Network{
			ChainID:       key,
			Alias:         alias,
			AddedAt:       msg.ID,
			LastUpdatedAt: msg.ID,
		}
		list = append(list, network)
		addedIDs = append(addedIDs, chainID)
		addedAliases = append(addedAliases, alias)
		s.NetworkCount++
	}

	netlist.Commit(env.Accessor, env.StateID, s, removed, list)
	env.Accessor.SaveGlobalState(env.StateID, s)

	return removedIdx, addedIDs, addedAliases, offset, nil
}

// readLengthPrefixedString decodes a uvarint length followed by that many
// UTF-8 bytes, returning the string and the total bytes consumed.
func readLengthPrefixedString(data []byte, offset int) (string, int, error) {
	length, n, err := codec.DecodeU64(data, offset)
	if err != nil {
		return "", 0, errs.Wrap(errs.ErrTruncation, "read length prefix")
	}
	s, err := codec.GetString(data, offset+n, int(length))
	if err != nil {
		return "", 0, errs.Wrap(errs.ErrTruncation, "read length-prefixed string")
	}
	return s, n + int(length), nil
}
