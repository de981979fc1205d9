package executor

import (
	"context"

	"github.com/gateway-fm/epoch-oracle/oracle/codec"
	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

// ChangePermissions implements tag 5: records an address's permission
// change and appends a PermissionListEntry to GlobalState.PermissionList.
func ChangePermissions(ctx context.Context, env *Env, msg *types.Message, data []byte) (int, error) {
	offset := 0
	addr, err := codec.GetString(data, offset, 20)
	if err != nil {
		return 0, errs.Wrap(errs.ErrTruncation, "change_permissions: read address")
	}
	offset += 20

	validThrough, n, err := codec.DecodeU64(data, offset)
	if err != nil {
		return 0, errs.Wrap(errs.ErrTruncation, "change_permissions: read validThrough")
	}
	offset += n

	oldPermissions, n, err := readStringList(data, offset)
	if err != nil {
		return 0, err
	}
	offset += n

	newPermissions, n, err := readStringList(data, offset)
	if err != nil {
		return 0, err
	}
	offset += n

	s, err := env.Accessor.GlobalState(ctx, env.StateID)
	if err != nil {
		return 0, errs.Wrap(errs.ErrEntityStoreFailure, "change_permissions: load state")
	}

	var address [20]byte
	copy(address[:], addr)

	entry := &types.PermissionListEntry{
		Address:        address,
		ValidThrough:   validThrough,
		OldPermissions: oldPermissions,
		NewPermissions: newPermissions,
	}
	env.Accessor.SavePermissionListEntry(msg.ID, entry)
	s.PermissionList = append(s.PermissionList, msg.ID)
	env.Accessor.SaveGlobalState(env.StateID, s)

	msg.ChangePermissions = &types.ChangePermissionsData{
		Address:        address,
		ValidThrough:   validThrough,
		OldPermissions: oldPermissions,
		NewPermissions: newPermissions,
	}
	env.Accessor.SaveMessage(msg)
	return offset, nil
}

// readStringList decodes a uvarint count followed by that many
// length-prefixed strings, returning the list and total bytes consumed.
func readStringList(data []byte, offset int) ([]string, int, error) {
	start := offset
	count, n, err := codec.DecodeU64(data, offset)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrTruncation, "read string list count")
	}
	offset += n

	out := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		s, n, err := readLengthPrefixedString(data, offset)
		if err != nil {
			return nil, 0, err
		}
		offset += n
		out = append(out, s)
	}
	return out, offset - start, nil
}
