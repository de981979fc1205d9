package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTripSetBlockNumbers(t *testing.T) {
	m := &Message{
		ID:      "blk-0-0",
		BlockID: "blk-0",
		Index:   0,
		Kind:    KindSetBlockNumbersForEpoch,
		SetBlockNumbers: &SetBlockNumbersForEpochData{
			MerkleRoot:    [32]byte{1, 1, 1},
			Accelerations: []int64{5, -3},
		},
	}
	got, err := UnmarshalMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMessageRoundTripRegisterNetworks(t *testing.T) {
	m := &Message{
		ID:      "blk-0-0",
		BlockID: "blk-0",
		Kind:    KindRegisterNetworks,
		RegisterNetworks: &RegisterNetworksData{
			RemovedIndices: []uint64{0},
			AddedChainIDs:  []string{"eth", "gno"},
		},
	}
	got, err := UnmarshalMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMessageRoundTripRegisterNetworksAndAliases(t *testing.T) {
	m := &Message{
		Kind: KindRegisterNetworksAndAliases,
		RegisterNetworksAndAliases: &RegisterNetworksAndAliasesData{
			AddedChainIDs: []string{"eth"},
			AddedAliases:  []string{"ethereum"},
		},
	}
	got, err := UnmarshalMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMessageRoundTripUpdateVersions(t *testing.T) {
	m := &Message{Kind: KindUpdateVersions, UpdateVersions: &UpdateVersionsData{OldVersion: 1, NewVersion: 2}}
	got, err := UnmarshalMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMessageRoundTripChangePermissions(t *testing.T) {
	m := &Message{
		Kind: KindChangePermissions,
		ChangePermissions: &ChangePermissionsData{
			Address:        [20]byte{9},
			ValidThrough:   10,
			OldPermissions: []string{"a"},
			NewPermissions: []string{"a", "b"},
		},
	}
	got, err := UnmarshalMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMessageRoundTripNoVariantBody(t *testing.T) {
	for _, k := range []MessageKind{KindCorrectEpochs, KindResetState} {
		m := &Message{Kind: k}
		got, err := UnmarshalMessage(m.Marshal())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestMessageKeyFormat(t *testing.T) {
	assert.Equal(t, "blk-0-3", MessageKey("blk-0", 3))
}

func TestMessageKindStringUnknown(t *testing.T) {
	assert.Equal(t, "MessageKind(99)", MessageKind(99).String())
}
