package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateway-fm/epoch-oracle/oracle/cache"
	"github.com/gateway-fm/epoch-oracle/oracle/codec"
	"github.com/gateway-fm/epoch-oracle/oracle/entitystore"
	"github.com/gateway-fm/epoch-oracle/oracle/errs"
	"github.com/gateway-fm/epoch-oracle/oracle/state"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

func newTestEnv() (*Env, *state.Accessor) {
	store := entitystore.NewMemEntityStore()
	a := state.New(cache.New(store, 64), 1)
	return &Env{Accessor: a, StateID: types.AuxiliaryGlobalStateID, InitialEncodingVersion: 1}, a
}

func newMsg(kind types.MessageKind) *types.Message {
	return &types.Message{ID: "blk-0-0", BlockID: "blk-0", Kind: kind}
}

func TestSetBlockNumbersEmptyActiveSet(t *testing.T) {
	env, _ := newTestEnv()
	ctx := context.Background()
	msg := newMsg(types.KindSetBlockNumbersForEpoch)
	consumed, err := SetBlockNumbersForEpoch(ctx, env, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, consumed)

	s, err := env.Accessor.GlobalState(ctx, env.StateID)
	require.NoError(t, err)
	assert.Nil(t, s.LatestValidEpoch)
}

func TestRegisterNetworksAddTwo(t *testing.T) {
	env, a := newTestEnv()
	ctx := context.Background()
	msg := newMsg(types.KindRegisterNetworks)

	var data []byte
	data = codec.EncodeU64(data, 0) // removeCount
	data = codec.EncodeU64(data, 2) // addCount
	data = codec.EncodeU64(data, 3)
	data = append(data, "eth"...)
	data = codec.EncodeU64(data, 3)
	data = append(data, "gno"...)

	consumed, err := RegisterNetworks(ctx, env, msg, data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)

	s, err := a.GlobalState(ctx, env.StateID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), s.NetworkCount)
	assert.Equal(t, uint64(2), s.ActiveNetworkCount)
	require.NotNil(t, s.NetworkArrayHead)
	assert.Equal(t, "eth", *s.NetworkArrayHead)

	eth, ok, err := a.Network(ctx, "eth")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, eth.NextArrayElement)
	assert.Equal(t, "gno", *eth.NextArrayElement)
}

func TestSetBlockNumbersAfterRegister(t *testing.T) {
	env, a := newTestEnv()
	ctx := context.Background()

	var regData []byte
	regData = codec.EncodeU64(regData, 0)
	regData = codec.EncodeU64(regData, 2)
	regData = codec.EncodeU64(regData, 3)
	regData = append(regData, "eth"...)
	regData = codec.EncodeU64(regData, 3)
	regData = append(regData, "gno"...)
	_, err := RegisterNetworks(ctx, env, newMsg(types.KindRegisterNetworks), regData)
	require.NoError(t, err)

	var sbn []byte
	sbn = append(sbn, make([]byte, 32)...)
	for i := range sbn[:32] {
		sbn[i] = 0x01
	}
	sbn = codec.EncodeI64(sbn, 5)
	sbn = codec.EncodeI64(sbn, -3)

	consumed, err := SetBlockNumbersForEpoch(ctx, env, newMsg(types.KindSetBlockNumbersForEpoch), sbn)
	require.NoError(t, err)
	assert.Equal(t, len(sbn), consumed)

	s, err := a.GlobalState(ctx, env.StateID)
	require.NoError(t, err)
	require.NotNil(t, s.LatestValidEpoch)
	assert.Equal(t, "1", *s.LatestValidEpoch)

	eth, ok, err := a.NEBN(ctx, "1-eth")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), eth.Acceleration.Int64())
	assert.Equal(t, int64(5), eth.Delta.Int64())
	assert.Equal(t, int64(5), eth.BlockNumber.Int64())

	gno, ok, err := a.NEBN(ctx, "1-gno")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-3), gno.Acceleration.Int64())
	assert.Equal(t, int64(-3), gno.Delta.Int64())
	assert.Equal(t, int64(-3), gno.BlockNumber.Int64())
}

func TestUpdateVersionsMonotonic(t *testing.T) {
	env, _ := newTestEnv()
	ctx := context.Background()
	data := codec.EncodeU64(nil, 2)
	_, err := UpdateVersions(ctx, env, newMsg(types.KindUpdateVersions), data)
	require.NoError(t, err)

	s, err := env.Accessor.GlobalState(ctx, env.StateID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), s.EncodingVersion)
}

func TestUpdateVersionsRejectsNonMonotonic(t *testing.T) {
	env, _ := newTestEnv()
	ctx := context.Background()
	data := codec.EncodeU64(nil, 1) // state starts at version 1
	_, err := UpdateVersions(ctx, env, newMsg(types.KindUpdateVersions), data)
	require.ErrorIs(t, err, errs.ErrInvariantViolation)
}

func TestResetStateClearsPermissions(t *testing.T) {
	env, a := newTestEnv()
	ctx := context.Background()
	s, err := a.GlobalState(ctx, env.StateID)
	require.NoError(t, err)
	s.PermissionList = []string{"msg-0"}
	s.EncodingVersion = 9
	a.SaveGlobalState(env.StateID, s)

	_, err = ResetState(ctx, env, newMsg(types.KindResetState), nil)
	require.NoError(t, err)

	got, err := a.GlobalState(ctx, env.StateID)
	require.NoError(t, err)
	assert.Empty(t, got.PermissionList)
	assert.Equal(t, uint32(1), got.EncodingVersion)
}

func TestRegistryLookup(t *testing.T) {
	fn, ok := Lookup(uint8(types.KindResetState))
	require.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = Lookup(uint8(types.KindCount))
	assert.False(t, ok)
}

func TestRegisterNetworksThenRemove(t *testing.T) {
	env, a := newTestEnv()
	ctx := context.Background()

	var regData []byte
	regData = codec.EncodeU64(regData, 0)
	regData = codec.EncodeU64(regData, 2)
	regData = codec.EncodeU64(regData, 3)
	regData = append(regData, "eth"...)
	regData = codec.EncodeU64(regData, 3)
	regData = append(regData, "gno"...)
	_, err := RegisterNetworks(ctx, env, newMsg(types.KindRegisterNetworks), regData)
	require.NoError(t, err)

	var rmData []byte
	rmData = codec.EncodeU64(rmData, 1) // removeCount
	rmData = codec.EncodeU64(rmData, 0) // removeIndex
	rmData = codec.EncodeU64(rmData, 0) // addCount
	msg := newMsg(types.KindRegisterNetworks)
	msg.ID = "blk-1-0"
	_, err = RegisterNetworks(ctx, env, msg, rmData)
	require.NoError(t, err)

	s, err := a.GlobalState(ctx, env.StateID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.ActiveNetworkCount)
	require.NotNil(t, s.NetworkArrayHead)
	assert.Equal(t, "gno", *s.NetworkArrayHead)

	eth, ok, err := a.Network(ctx, "eth")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, eth.RemovedAt)
	assert.Equal(t, "blk-1-0", *eth.RemovedAt)
}
