package executor

import (
	"context"

	"github.com/gateway-fm/epoch-oracle/oracle/codec"
	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// CorrectEpochs implements tag 1: reserved, currently consumes nothing.
func CorrectEpochs(ctx context.Context, env *Env, msg *types.Message, data []byte) (int, error) {
	env.Accessor.SaveMessage(msg)
	return 0, nil
}

// UpdateVersions implements tag 2: bumps the encoding version, rejecting
// non-monotonic updates.
func UpdateVersions(ctx context.Context, env *Env, msg *types.Message, data []byte) (int, error) {
	newVersion, consumed, err := codec.DecodeU64(data, 0)
	if err != nil {
		return 0, errs.Wrap(errs.ErrTruncation, "update_versions: read version")
	}

	s, err := env.Accessor.GlobalState(ctx, env.StateID)
	if err != nil {
		return 0, errs.Wrap(errs.ErrEntityStoreFailure, "update_versions: load state")
	}

	oldVersion := s.EncodingVersion
	if newVersion <= uint64(oldVersion) {
		return 0, errs.Wrap(errs.ErrInvariantViolation, "update_versions: non-monotonic version")
	}

	s.EncodingVersion = uint32(newVersion)
	env.Accessor.SaveGlobalState(env.StateID, s)

	msg.UpdateVersions = &types.UpdateVersionsData{OldVersion: oldVersion, NewVersion: uint32(newVersion)}
	env.Accessor.SaveMessage(msg)
	return consumed, nil
}

// ResetState implements tag 6: clears the permission list and restores the
// initial encoding version, leaving network/epoch data untouched.
func ResetState(ctx context.Context, env *Env, msg *types.Message, data []byte) (int, error) {
	s, err := env.Accessor.GlobalState(ctx, env.StateID)
	if err != nil {
		return 0, errs.Wrap(errs.ErrEntityStoreFailure, "reset_state: load state")
	}

	s.PermissionList = nil
	s.EncodingVersion = env.InitialEncodingVersion
	env.Accessor.SaveGlobalState(env.StateID, s)

	env.Accessor.SaveMessage(msg)
	return 0, nil
}
