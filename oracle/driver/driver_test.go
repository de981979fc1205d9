package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateway-fm/epoch-oracle/oracle/cache"
	"github.com/gateway-fm/epoch-oracle/oracle/codec"
	"github.com/gateway-fm/epoch-oracle/oracle/entitystore"
	"github.com/gateway-fm/epoch-oracle/oracle/state"
	"github.com/gateway-fm/epoch-oracle/oracle/types"
)

func newTestCache() *cache.StoreCache {
	return cache.New(entitystore.NewMemEntityStore(), 64)
}

func preamble(tags ...uint8) []byte {
	var word uint64
	for i, t := range tags {
		word |= uint64(t) << uint(i*4)
	}
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(word >> uint(8*i))
	}
	return buf
}

func registerNetworksBody(removeCount, addCount uint64, adds ...string) []byte {
	var data []byte
	data = codec.EncodeU64(data, removeCount)
	data = codec.EncodeU64(data, addCount)
	for _, s := range adds {
		data = codec.EncodeU64(data, uint64(len(s)))
		data = append(data, s...)
	}
	return data
}

func TestInvokeS1EmptyActiveSetSetBlockNumbers(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()

	payload := preamble(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	p, err := d.Invoke(ctx, c, "0xtx1", [20]byte{}, payload, 1)
	require.NoError(t, err)
	assert.True(t, p.Valid)

	a := state.New(c, 1)
	s, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
	require.NoError(t, err)
	assert.Nil(t, s.LatestValidEpoch)
}

func TestInvokeS2RegisterTwoNetworks(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()

	body := registerNetworksBody(0, 2, "eth", "gno")
	payload := append(preamble(3), body...)

	p, err := d.Invoke(ctx, c, "0xtx2", [20]byte{}, payload, 1)
	require.NoError(t, err)
	assert.True(t, p.Valid)

	a := state.New(c, 1)
	s, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
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

func runS2(t *testing.T, c *cache.StoreCache, d *Driver) {
	t.Helper()
	body := registerNetworksBody(0, 2, "eth", "gno")
	payload := append(preamble(3), body...)
	p, err := d.Invoke(context.Background(), c, "0xtxs2", [20]byte{}, payload, 1)
	require.NoError(t, err)
	require.True(t, p.Valid)
}

func TestInvokeS3SetBlockNumbersAfterRegister(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()
	runS2(t, c, d)

	var body []byte
	root := make([]byte, 32)
	for i := range root {
		root[i] = 1
	}
	body = append(body, root...)
	body = codec.EncodeI64(body, 5)
	body = codec.EncodeI64(body, -3)
	payload := append(preamble(0), body...)

	p, err := d.Invoke(ctx, c, "0xtxs3", [20]byte{}, payload, 2)
	require.NoError(t, err)
	require.True(t, p.Valid)

	a := state.New(c, 1)
	eth, ok, err := a.NEBN(ctx, "1-eth")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), eth.Acceleration.Int64())
	assert.Equal(t, int64(5), eth.Delta.Int64())
	assert.Equal(t, int64(5), eth.BlockNumber.Int64())

	gno, ok, err := a.NEBN(ctx, "1-gno")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-3), gno.BlockNumber.Int64())
}

func TestInvokeS4SubsequentEpochAccumulates(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()
	runS2(t, c, d)

	mkSetBlockNumbers := func(a1, a2 int64) []byte {
		var body []byte
		root := make([]byte, 32)
		body = append(body, root...)
		body = codec.EncodeI64(body, a1)
		body = codec.EncodeI64(body, a2)
		return append(preamble(0), body...)
	}

	_, err := d.Invoke(ctx, c, "0xtxs3", [20]byte{}, mkSetBlockNumbers(5, -3), 2)
	require.NoError(t, err)
	p, err := d.Invoke(ctx, c, "0xtxs4", [20]byte{}, mkSetBlockNumbers(2, 4), 3)
	require.NoError(t, err)
	require.True(t, p.Valid)

	a := state.New(c, 1)
	eth, ok, err := a.NEBN(ctx, "2-eth")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), eth.Delta.Int64())
	assert.Equal(t, int64(12), eth.BlockNumber.Int64())

	gno, ok, err := a.NEBN(ctx, "2-gno")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), gno.Delta.Int64())
	assert.Equal(t, int64(-2), gno.BlockNumber.Int64())
}

func TestInvokeS5RemoveNetworkSwapAndPop(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()
	runS2(t, c, d)

	var rmBody []byte
	rmBody = codec.EncodeU64(rmBody, 1)
	rmBody = codec.EncodeU64(rmBody, 0)
	rmBody = codec.EncodeU64(rmBody, 0)
	payload := append(preamble(3), rmBody...)

	p, err := d.Invoke(ctx, c, "0xtxs5", [20]byte{}, payload, 2)
	require.NoError(t, err)
	require.True(t, p.Valid)

	a := state.New(c, 1)
	s, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.ActiveNetworkCount)
	require.NotNil(t, s.NetworkArrayHead)
	assert.Equal(t, "gno", *s.NetworkArrayHead)

	eth, ok, err := a.Network(ctx, "eth")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, eth.RemovedAt)
}

func TestInvokeS6TruncatedPayloadRollsBack(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()
	runS2(t, c, d)

	a := state.New(c, 1)
	before, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
	require.NoError(t, err)
	beforeBytes := before.Marshal()

	shortBody := make([]byte, 10) // shorter than the 32-byte merkle root
	payload := append(preamble(0), shortBody...)

	p, err := d.Invoke(ctx, c, "0xtxs6", [20]byte{}, payload, 3)
	require.NoError(t, err)
	assert.False(t, p.Valid)
	require.NotNil(t, p.ErrorMessage)
	assert.Equal(t, "truncation", *p.ErrorMessage)

	after, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
	require.NoError(t, err)
	assert.Equal(t, beforeBytes, after.Marshal())
}

func TestInvokeS7UnknownTagTerminatesBlockOnly(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()

	body := registerNetworksBody(0, 1, "eth")
	payload := append(preamble(3, 7), body...)
	// a second block follows, so the unknown tag in slot 1 is reached with
	// bytes still remaining; it must end only the first block.
	payload = append(payload, preamble(2)...)
	payload = codec.EncodeU64(payload, 2)

	p, err := d.Invoke(ctx, c, "0xtxs7", [20]byte{}, payload, 1)
	require.NoError(t, err)
	assert.True(t, p.Valid)

	a := state.New(c, 1)
	s, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.ActiveNetworkCount)
	assert.Equal(t, uint32(2), s.EncodingVersion)
}

func TestInvokeS8ChangePermissionsThenResetState(t *testing.T) {
	c := newTestCache()
	d := New(DefaultConfig, nil)
	ctx := context.Background()

	var cpBody []byte
	cpBody = append(cpBody, make([]byte, 20)...)
	cpBody = codec.EncodeU64(cpBody, 1000)
	cpBody = codec.EncodeU64(cpBody, 0) // oldLen
	cpBody = codec.EncodeU64(cpBody, 1) // newLen
	cpBody = codec.EncodeU64(cpBody, 5)
	cpBody = append(cpBody, "admin"...)
	payload := append(preamble(5), cpBody...)

	p, err := d.Invoke(ctx, c, "0xtxs8a", [20]byte{}, payload, 1)
	require.NoError(t, err)
	require.True(t, p.Valid)

	// a tag only runs while payload bytes remain, so the empty-bodied
	// ResetState is followed by an empty RegisterNetworks (no removals, no
	// additions).
	resetPayload := append(preamble(6, 3), registerNetworksBody(0, 0)...)
	p, err = d.Invoke(ctx, c, "0xtxs8b", [20]byte{}, resetPayload, 2)
	require.NoError(t, err)
	require.True(t, p.Valid)

	a := state.New(c, 1)
	s, err := a.GlobalState(ctx, types.CanonicalGlobalStateID)
	require.NoError(t, err)
	assert.Empty(t, s.PermissionList)
	assert.Equal(t, uint32(1), s.EncodingVersion)
}
