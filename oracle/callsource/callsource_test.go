package callsource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCalldata(payload []byte) []byte {
	calldata := make([]byte, calldataPayloadOffset+len(payload))
	lengthWord := make([]byte, 32)
	lengthWord[0] = byte(len(payload))
	copy(calldata[calldataLengthOffset:], lengthWord)
	copy(calldata[calldataPayloadOffset:], payload)
	return calldata
}

func TestExtractPayloadRoundTrip(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	calldata := buildCalldata(payload)

	got, err := ExtractPayload(calldata)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestExtractPayloadTruncatedHeader(t *testing.T) {
	_, err := ExtractPayload(make([]byte, 40))
	assert.ErrorIs(t, err, ErrCalldataFraming)
}

func TestExtractPayloadLengthOverrunsCalldata(t *testing.T) {
	calldata := buildCalldata([]byte{1, 2, 3})
	truncated := calldata[:len(calldata)-1]
	_, err := ExtractPayload(truncated)
	assert.ErrorIs(t, err, ErrCalldataFraming)
}

func TestExtractPayloadRejectsOversizedLength(t *testing.T) {
	calldata := buildCalldata([]byte{1})
	lengthWord := calldata[calldataLengthOffset : calldataLengthOffset+32]
	lengthWord[8] = 1 // set a high byte of the 64-bit length word
	_, err := ExtractPayload(calldata)
	assert.ErrorIs(t, err, ErrCalldataFraming)
}

func TestStaticCallSourceYieldsInOrderThenExhausts(t *testing.T) {
	ctx := context.Background()
	events := []Event{
		{TxHash: "0x1", BlockNumber: 10, LogIndex: 0},
		{TxHash: "0x2", BlockNumber: 10, LogIndex: 1},
	}
	src := NewStaticCallSource(events)

	e1, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0x1", e1.TxHash)

	e2, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0x2", e2.TxHash)

	_, ok, err = src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaticCallSourceRespectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := NewStaticCallSource([]Event{{TxHash: "0x1"}})

	_, _, err := src.Next(ctx)
	assert.Error(t, err)
}
