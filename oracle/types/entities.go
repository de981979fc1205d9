package types

import "math/big"

// CanonicalGlobalStateID and AuxiliaryGlobalStateID are the two fixed
// GlobalState keys: the durable canonical row and the per-invocation
// scratch row copied from it at the start of each call.
const (
	CanonicalGlobalStateID = "0"
	AuxiliaryGlobalStateID = "1"
)

// GlobalState is the oracle's singleton root, replicated under two ids (see
// CanonicalGlobalStateID / AuxiliaryGlobalStateID).
type GlobalState struct {
	NetworkCount       uint64
	ActiveNetworkCount uint64
	NetworkArrayHead   *string
	LatestValidEpoch   *string
	EncodingVersion    uint32
	PermissionList     []string
}

// NewGlobalState returns a zero-valued state seeded with the initial
// encoding version, as produced on first lazy read.
func NewGlobalState(initialEncodingVersion uint32) *GlobalState {
	return &GlobalState{EncodingVersion: initialEncodingVersion}
}

func (s *GlobalState) Marshal() []byte {
	w := newWriter()
	w.putUvarint(s.NetworkCount)
	w.putUvarint(s.ActiveNetworkCount)
	w.putOptString(s.NetworkArrayHead)
	w.putOptString(s.LatestValidEpoch)
	w.putUint32(s.EncodingVersion)
	w.putStringSlice(s.PermissionList)
	return w.bytes()
}

func UnmarshalGlobalState(b []byte) (*GlobalState, error) {
	r := newReader(b)
	s := &GlobalState{}
	var err error
	if s.NetworkCount, err = r.getUvarint(); err != nil {
		return nil, err
	}
	if s.ActiveNetworkCount, err = r.getUvarint(); err != nil {
		return nil, err
	}
	if s.NetworkArrayHead, err = r.getOptString(); err != nil {
		return nil, err
	}
	if s.LatestValidEpoch, err = r.getOptString(); err != nil {
		return nil, err
	}
	if s.EncodingVersion, err = r.getUint32(); err != nil {
		return nil, err
	}
	if s.PermissionList, err = r.getStringSlice(); err != nil {
		return nil, err
	}
	return s, nil
}

// Clone returns a deep copy, used to seed the auxiliary scratch row from the
// canonical row (and back, on commit) without aliasing slices.
func (s *GlobalState) Clone() *GlobalState {
	c := *s
	if s.NetworkArrayHead != nil {
		v := *s.NetworkArrayHead
		c.NetworkArrayHead = &v
	}
	if s.LatestValidEpoch != nil {
		v := *s.LatestValidEpoch
		c.LatestValidEpoch = &v
	}
	c.PermissionList = append([]string(nil), s.PermissionList...)
	return &c
}

// Network is a node in the active-network linked list, keyed by chain id
// (or, under legacy identity, by the network's ordinal registration count).
type Network struct {
	ChainID                string
	Alias                  string
	AddedAt                string
	LastUpdatedAt          string
	RemovedAt              *string
	NextArrayElement       *string
	ArrayIndex             *uint32
	State                  *string
	LatestValidBlockNumber *string
}

func (n *Network) Marshal() []byte {
	w := newWriter()
	w.putString(n.ChainID)
	w.putString(n.Alias)
	w.putString(n.AddedAt)
	w.putString(n.LastUpdatedAt)
	w.putOptString(n.RemovedAt)
	w.putOptString(n.NextArrayElement)
	w.putOptUint32(n.ArrayIndex)
	w.putOptString(n.State)
	w.putOptString(n.LatestValidBlockNumber)
	return w.bytes()
}

func UnmarshalNetwork(b []byte) (*Network, error) {
	r := newReader(b)
	n := &Network{}
	var err error
	if n.ChainID, err = r.getString(); err != nil {
		return nil, err
	}
	if n.Alias, err = r.getString(); err != nil {
		return nil, err
	}
	if n.AddedAt, err = r.getString(); err != nil {
		return nil, err
	}
	if n.LastUpdatedAt, err = r.getString(); err != nil {
		return nil, err
	}
	if n.RemovedAt, err = r.getOptString(); err != nil {
		return nil, err
	}
	if n.NextArrayElement, err = r.getOptString(); err != nil {
		return nil, err
	}
	if n.ArrayIndex, err = r.getOptUint32(); err != nil {
		return nil, err
	}
	if n.State, err = r.getOptString(); err != nil {
		return nil, err
	}
	if n.LatestValidBlockNumber, err = r.getOptString(); err != nil {
		return nil, err
	}
	return n, nil
}

// Epoch is a monotonically numbered time unit; EpochNumber is a non-negative
// u256 stored as a big.Int.
type Epoch struct {
	EpochNumber *big.Int
}

func (e *Epoch) Marshal() []byte {
	w := newWriter()
	w.putBigInt(e.EpochNumber)
	return w.bytes()
}

func UnmarshalEpoch(b []byte) (*Epoch, error) {
	r := newReader(b)
	v, err := r.getBigInt()
	if err != nil {
		return nil, err
	}
	return &Epoch{EpochNumber: v}, nil
}

// NetworkEpochBlockNumber (NEBN) is one network's derived block-number
// reading for one epoch.
type NetworkEpochBlockNumber struct {
	Acceleration        *big.Int
	Delta               *big.Int
	BlockNumber         *big.Int
	EpochNumber         *big.Int
	Network             string
	Epoch               string
	PreviousBlockNumber *string
}

func (n *NetworkEpochBlockNumber) Marshal() []byte {
	w := newWriter()
	w.putBigInt(n.Acceleration)
	w.putBigInt(n.Delta)
	w.putBigInt(n.BlockNumber)
	w.putBigInt(n.EpochNumber)
	w.putString(n.Network)
	w.putString(n.Epoch)
	w.putOptString(n.PreviousBlockNumber)
	return w.bytes()
}

func UnmarshalNetworkEpochBlockNumber(b []byte) (*NetworkEpochBlockNumber, error) {
	r := newReader(b)
	n := &NetworkEpochBlockNumber{}
	var err error
	if n.Acceleration, err = r.getBigInt(); err != nil {
		return nil, err
	}
	if n.Delta, err = r.getBigInt(); err != nil {
		return nil, err
	}
	if n.BlockNumber, err = r.getBigInt(); err != nil {
		return nil, err
	}
	if n.EpochNumber, err = r.getBigInt(); err != nil {
		return nil, err
	}
	if n.Network, err = r.getString(); err != nil {
		return nil, err
	}
	if n.Epoch, err = r.getString(); err != nil {
		return nil, err
	}
	if n.PreviousBlockNumber, err = r.getOptString(); err != nil {
		return nil, err
	}
	return n, nil
}

// NEBNKey formats the canonical NetworkEpochBlockNumber id.
func NEBNKey(epochNumber *big.Int, chainID string) string {
	return epochNumber.String() + "-" + chainID
}

// Payload is the audit record of one raw invocation.
type Payload struct {
	Data         []byte
	Submitter    [20]byte
	Valid        bool
	CreatedAt    *big.Int
	ErrorMessage *string
}

func (p *Payload) Marshal() []byte {
	w := newWriter()
	w.putBytes(p.Data)
	w.putFixed(p.Submitter[:])
	w.putBool(p.Valid)
	w.putBigInt(p.CreatedAt)
	w.putOptString(p.ErrorMessage)
	return w.bytes()
}

func UnmarshalPayload(b []byte) (*Payload, error) {
	r := newReader(b)
	p := &Payload{}
	var err error
	if p.Data, err = r.getBytes(); err != nil {
		return nil, err
	}
	sub, err := r.getFixed(20)
	if err != nil {
		return nil, err
	}
	copy(p.Submitter[:], sub)
	if p.Valid, err = r.getBool(); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = r.getBigInt(); err != nil {
		return nil, err
	}
	if p.ErrorMessage, err = r.getOptString(); err != nil {
		return nil, err
	}
	return p, nil
}

// MessageBlock is one preamble-plus-tagged-messages unit of a Payload.
type MessageBlock struct {
	Data    []byte
	Payload string
}

func (m *MessageBlock) Marshal() []byte {
	w := newWriter()
	w.putBytes(m.Data)
	w.putString(m.Payload)
	return w.bytes()
}

func UnmarshalMessageBlock(b []byte) (*MessageBlock, error) {
	r := newReader(b)
	m := &MessageBlock{}
	var err error
	if m.Data, err = r.getBytes(); err != nil {
		return nil, err
	}
	if m.Payload, err = r.getString(); err != nil {
		return nil, err
	}
	return m, nil
}

// PermissionListEntry records one ChangePermissions call; its id is owned by
// GlobalState.PermissionList, append-only.
type PermissionListEntry struct {
	Address        [20]byte
	ValidThrough   uint64
	OldPermissions []string
	NewPermissions []string
}

func (p *PermissionListEntry) Marshal() []byte {
	w := newWriter()
	w.putFixed(p.Address[:])
	w.putUvarint(p.ValidThrough)
	w.putStringSlice(p.OldPermissions)
	w.putStringSlice(p.NewPermissions)
	return w.bytes()
}

func UnmarshalPermissionListEntry(b []byte) (*PermissionListEntry, error) {
	r := newReader(b)
	p := &PermissionListEntry{}
	addr, err := r.getFixed(20)
	if err != nil {
		return nil, err
	}
	copy(p.Address[:], addr)
	if p.ValidThrough, err = r.getUvarint(); err != nil {
		return nil, err
	}
	if p.OldPermissions, err = r.getStringSlice(); err != nil {
		return nil, err
	}
	if p.NewPermissions, err = r.getStringSlice(); err != nil {
		return nil, err
	}
	return p, nil
}
