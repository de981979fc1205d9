// Package callsource implements the CallSource contract: yielding inbound
// invocation events to the Driver, one at a time, in ascending
// (block_number, log_index) order.
package callsource

import (
	"context"
	"encoding/binary"
	"errors"
)

// Event is one decoded or extracted invocation: the parameters the Driver
// needs to process a single call.
type Event struct {
	TxHash      string
	Submitter   [20]byte
	Payload     []byte
	BlockNumber uint64
	LogIndex    uint64
}

// Source yields the next pending event. ok is false with a nil error when
// the source is exhausted. StaticCallSource implements it; L1LogCallSource
// does not, since its Next also takes the latest L1 block number.
type Source interface {
	Next(ctx context.Context) (event Event, ok bool, err error)
}

// ErrCalldataFraming is returned when raw calldata doesn't carry a
// well-formed length-prefixed payload at the expected offsets.
var ErrCalldataFraming = errors.New("callsource: malformed calldata framing")

// calldataLengthOffset and calldataPayloadOffset locate the payload inside
// raw calldata for local harnesses that hand the Driver a full call instead
// of a pre-extracted payload.
const (
	calldataLengthOffset  = 36
	calldataPayloadOffset = 68
)

// ExtractPayload locates the payload within raw calldata: a 32-byte
// little-endian length field at offset 36, followed by that many payload
// bytes starting at offset 68.
func ExtractPayload(calldata []byte) ([]byte, error) {
	if len(calldata) < calldataLengthOffset+32 {
		return nil, ErrCalldataFraming
	}
	lengthWord := calldata[calldataLengthOffset : calldataLengthOffset+32]
	length := binary.LittleEndian.Uint64(lengthWord[:8])
	for _, b := range lengthWord[8:] {
		if b != 0 {
			return nil, ErrCalldataFraming
		}
	}

	end := calldataPayloadOffset + int(length)
	if end < calldataPayloadOffset || end > len(calldata) {
		return nil, ErrCalldataFraming
	}
	return calldata[calldataPayloadOffset:end], nil
}
