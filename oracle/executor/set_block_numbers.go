package executor

import (
	"context"
	"math/big"

	"github.com/gateway-fm/epoch-oracle/oracle/codec"
	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/netlist"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// SetBlockNumbersForEpoch implements tag 0: advances the epoch counter and
// derives one NEBN row per active network from a signed acceleration.
func SetBlockNumbersForEpoch(ctx context.Context, env *Env, msg *types.Message, data []byte) (int, error) {
	s, err := env.Accessor.GlobalState(ctx, env.StateID)
	if err != nil {
		return 0, errs.Wrap(errs.ErrEntityStoreFailure, "set_block_numbers: load state")
	}

	if s.ActiveNetworkCount == 0 {
		msg.SetBlockNumbers = &types.SetBlockNumbersForEpochData{}
		env.Accessor.SaveMessage(msg)
		return 0, nil
	}

	networks, err := netlist.Materialize(ctx, env.Accessor, s)
	if err != nil {
		return 0, err
	}

	epochNumber := new(big.Int)
	if s.LatestValidEpoch != nil {
		if _, ok := epochNumber.SetString(*s.LatestValidEpoch, 10); !ok {
			return 0, errs.Wrap(errs.ErrInvariantViolation, "set_block_numbers: malformed latestValidEpoch")
		}
	}
	epochNumber.Add(epochNumber, big.NewInt(1))

	epochKey := epochNumber.String()
	if _, ok, err := env.Accessor.Epoch(ctx, epochKey); err != nil {
		return 0, errs.Wrap(errs.ErrEntityStoreFailure, "set_block_numbers: load epoch")
	} else if !ok {
		env.Accessor.SaveEpoch(epochKey, &types.Epoch{EpochNumber: epochNumber})
	}

	offset := 0
	merkleRoot, err := codec.GetString(data, offset, 32)
	if err != nil {
		return 0, errs.Wrap(errs.ErrTruncation, "set_block_numbers: read merkle root")
	}
	offset += 32

	accelerations := make([]int64, len(networks))
	for i, n := range networks {
		accel, consumed, err := codec.DecodeI64(data, offset)
		if err != nil {
			return 0, errs.Wrap(errs.ErrTruncation, "set_block_numbers: read acceleration")
		}
		offset += consumed
		accelerations[i] = accel

		nebnID := types.NEBNKey(epochNumber, n.ChainID)
		prevKey := ""
		if epochNumber.Cmp(big.NewInt(1)) > 0 {
			prevEpoch := new(big.Int).Sub(epochNumber, big.NewInt(1))
			prevKey = types.NEBNKey(prevEpoch, n.ChainID)
		}

		accelBig := big.NewInt(accel)
		delta := new(big.Int).Set(accelBig)
		blockNumber := new(big.Int)
		var prevID *string

		if prevKey != "" {
			prev, ok, err := env.Accessor.NEBN(ctx, prevKey)
			if err != nil {
				return 0, errs.Wrap(errs.ErrEntityStoreFailure, "set_block_numbers: load previous nebn")
			}
			if ok {
				delta = new(big.Int).Add(prev.Delta, accelBig)
				blockNumber = new(big.Int).Add(prev.BlockNumber, delta)
				id := prevKey
				prevID = &id
			}
		}
		if prevID == nil {
			blockNumber.Set(delta)
		}

		env.Accessor.SaveNEBN(nebnID, &types.NetworkEpochBlockNumber{
			Acceleration:        accelBig,
			Delta:               delta,
			BlockNumber:         blockNumber,
			EpochNumber:         epochNumber,
			Network:             n.ChainID,
			Epoch:               epochKey,
			PreviousBlockNumber: prevID,
		})
	}

	s.LatestValidEpoch = &epochKey
	env.Accessor.SaveGlobalState(env.StateID, s)

	var root [32]byte
	copy(root[:], merkleRoot)
	msg.SetBlockNumbers = &types.SetBlockNumbersForEpochData{
		MerkleRoot:    root,
		Accelerations: accelerations,
	}
	env.Accessor.SaveMessage(msg)
	return offset, nil
}
