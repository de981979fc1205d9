package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateway-fm/epoch-oracle/oracle/cache"
	"github.com/gateway-fm/epoch-oracle/oracle/entitystore"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

func newAccessor() *Accessor {
	store := entitystore.NewMemEntityStore()
	c := cache.New(store, 64)
	return New(c, 1)
}

func TestGlobalStateLazyCreate(t *testing.T) {
	a := newAccessor()
	ctx := context.Background()
	s, err := a.GlobalState(ctx, types.AuxiliaryGlobalStateID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.EncodingVersion)
	assert.Equal(t, uint64(0), s.NetworkCount)
}

func TestGlobalStateSaveThenLoad(t *testing.T) {
	a := newAccessor()
	ctx := context.Background()
	s, err := a.GlobalState(ctx, types.AuxiliaryGlobalStateID)
	require.NoError(t, err)
	s.NetworkCount = 5
	a.SaveGlobalState(types.AuxiliaryGlobalStateID, s)

	got, err := a.GlobalState(ctx, types.AuxiliaryGlobalStateID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.NetworkCount)
}

func TestNetworkRoundTrip(t *testing.T) {
	a := newAccessor()
	ctx := context.Background()
	n := &types.Network{ChainID: "eth", Alias: "ethereum"}
	a.SaveNetwork(n)

	got, ok, err := a.Network(ctx, "eth")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ethereum", got.Alias)
}

func TestCopyGlobalStateFieldsIsDeepCopy(t *testing.T) {
	head := "eth"
	src := &types.GlobalState{NetworkArrayHead: &head, PermissionList: []string{"a"}}
	dst := &types.GlobalState{}
	CopyGlobalStateFields(dst, src)

	*dst.NetworkArrayHead = "gno"
	dst.PermissionList[0] = "b"

	assert.Equal(t, "eth", *src.NetworkArrayHead)
	assert.Equal(t, "a", src.PermissionList[0])
}
