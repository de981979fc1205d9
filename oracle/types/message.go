package types

import "fmt"

// MessageKind is the tag discriminant of the Message union; values mirror
// the preamble's 4-bit tag slots and must stay contiguous from zero so the
// registered-tag check in executor.Lookup (tag < len(registered executors))
// stays a simple bound comparison.
type MessageKind uint8

const (
	KindSetBlockNumbersForEpoch MessageKind = iota
	KindCorrectEpochs
	KindUpdateVersions
	KindRegisterNetworks
	KindRegisterNetworksAndAliases
	KindChangePermissions
	KindResetState

	KindCount // number of registered tags; anything >= this is unknown.
)

func (k MessageKind) String() string {
	switch k {
	case KindSetBlockNumbersForEpoch:
		return "SetBlockNumbersForEpoch"
	case KindCorrectEpochs:
		return "CorrectEpochs"
	case KindUpdateVersions:
		return "UpdateVersions"
	case KindRegisterNetworks:
		return "RegisterNetworks"
	case KindRegisterNetworksAndAliases:
		return "RegisterNetworksAndAliases"
	case KindChangePermissions:
		return "ChangePermissions"
	case KindResetState:
		return "ResetState"
	default:
		return fmt.Sprintf("MessageKind(%d)", uint8(k))
	}
}

// SetBlockNumbersForEpochData holds the decoded body of a tag-0 message.
type SetBlockNumbersForEpochData struct {
	MerkleRoot    [32]byte
	Accelerations []int64
}

// UpdateVersionsData holds the decoded body of a tag-2 message.
type UpdateVersionsData struct {
	OldVersion uint32
	NewVersion uint32
}

// RegisterNetworksData holds the decoded body of a tag-3 message.
type RegisterNetworksData struct {
	RemovedIndices []uint64
	AddedChainIDs  []string
}

// RegisterNetworksAndAliasesData holds the decoded body of a tag-4 message.
type RegisterNetworksAndAliasesData struct {
	RemovedIndices []uint64
	AddedChainIDs  []string
	AddedAliases   []string
}

// ChangePermissionsData holds the decoded body of a tag-5 message.
type ChangePermissionsData struct {
	Address        [20]byte
	ValidThrough   uint64
	OldPermissions []string
	NewPermissions []string
}

// Message is the outer record wrapping one decoded tagged message; only the
// field matching Kind is populated.
type Message struct {
	ID      string
	BlockID string
	Index   uint32
	Kind    MessageKind

	SetBlockNumbers            *SetBlockNumbersForEpochData
	UpdateVersions             *UpdateVersionsData
	RegisterNetworks           *RegisterNetworksData
	RegisterNetworksAndAliases *RegisterNetworksAndAliasesData
	ChangePermissions          *ChangePermissionsData
}

// MessageKey formats the canonical Message id.
func MessageKey(blockID string, index uint32) string {
	return fmt.Sprintf("%s-%d", blockID, index)
}

func (m *Message) Marshal() []byte {
	w := newWriter()
	w.putString(m.ID)
	w.putString(m.BlockID)
	w.putUint32(m.Index)
	w.buf = append(w.buf, byte(m.Kind))

	switch m.Kind {
	case KindSetBlockNumbersForEpoch:
		d := m.SetBlockNumbers
		w.putFixed(d.MerkleRoot[:])
		w.putUvarint(uint64(len(d.Accelerations)))
		for _, a := range d.Accelerations {
			w.putUvarint(zigZagEncode(a))
		}
	case KindUpdateVersions:
		d := m.UpdateVersions
		w.putUint32(d.OldVersion)
		w.putUint32(d.NewVersion)
	case KindRegisterNetworks:
		d := m.RegisterNetworks
		w.putUvarint(uint64(len(d.RemovedIndices)))
		for _, idx := range d.RemovedIndices {
			w.putUvarint(idx)
		}
		w.putStringSlice(d.AddedChainIDs)
	case KindRegisterNetworksAndAliases:
		d := m.RegisterNetworksAndAliases
		w.putUvarint(uint64(len(d.RemovedIndices)))
		for _, idx := range d.RemovedIndices {
			w.putUvarint(idx)
		}
		w.putStringSlice(d.AddedChainIDs)
		w.putStringSlice(d.AddedAliases)
	case KindChangePermissions:
		d := m.ChangePermissions
		w.putFixed(d.Address[:])
		w.putUvarint(d.ValidThrough)
		w.putStringSlice(d.OldPermissions)
		w.putStringSlice(d.NewPermissions)
	case KindCorrectEpochs, KindResetState:
		// no variant body
	}
	return w.bytes()
}

func UnmarshalMessage(b []byte) (*Message, error) {
	r := newReader(b)
	m := &Message{}
	var err error
	if m.ID, err = r.getString(); err != nil {
		return nil, err
	}
	if m.BlockID, err = r.getString(); err != nil {
		return nil, err
	}
	if m.Index, err = r.getUint32(); err != nil {
		return nil, err
	}
	if r.off+1 > len(r.buf) {
		return nil, ErrMalformed
	}
	m.Kind = MessageKind(r.buf[r.off])
	r.off++

	switch m.Kind {
	case KindSetBlockNumbersForEpoch:
		root, err := r.getFixed(32)
		if err != nil {
			return nil, err
		}
		n, err := r.getUvarint()
		if err != nil {
			return nil, err
		}
		accels := make([]int64, 0, n)
		for i := uint64(0); i < n; i++ {
			u, err := r.getUvarint()
			if err != nil {
				return nil, err
			}
			accels = append(accels, zigZagDecode(u))
		}
		d := &SetBlockNumbersForEpochData{Accelerations: accels}
		copy(d.MerkleRoot[:], root)
		m.SetBlockNumbers = d
	case KindUpdateVersions:
		d := &UpdateVersionsData{}
		if d.OldVersion, err = r.getUint32(); err != nil {
			return nil, err
		}
		if d.NewVersion, err = r.getUint32(); err != nil {
			return nil, err
		}
		m.UpdateVersions = d
	case KindRegisterNetworks:
		d := &RegisterNetworksData{}
		n, err := r.getUvarint()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			idx, err := r.getUvarint()
			if err != nil {
				return nil, err
			}
			d.RemovedIndices = append(d.RemovedIndices, idx)
		}
		if d.AddedChainIDs, err = r.getStringSlice(); err != nil {
			return nil, err
		}
		m.RegisterNetworks = d
	case KindRegisterNetworksAndAliases:
		d := &RegisterNetworksAndAliasesData{}
		n, err := r.getUvarint()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			idx, err := r.getUvarint()
			if err != nil {
				return nil, err
			}
			d.RemovedIndices = append(d.RemovedIndices, idx)
		}
		if d.AddedChainIDs, err = r.getStringSlice(); err != nil {
			return nil, err
		}
		if d.AddedAliases, err = r.getStringSlice(); err != nil {
			return nil, err
		}
		m.RegisterNetworksAndAliases = d
	case KindChangePermissions:
		d := &ChangePermissionsData{}
		addr, err := r.getFixed(20)
		if err != nil {
			return nil, err
		}
		copy(d.Address[:], addr)
		if d.ValidThrough, err = r.getUvarint(); err != nil {
			return nil, err
		}
		if d.OldPermissions, err = r.getStringSlice(); err != nil {
			return nil, err
		}
		if d.NewPermissions, err = r.getStringSlice(); err != nil {
			return nil, err
		}
		m.ChangePermissions = d
	case KindCorrectEpochs, KindResetState:
		// no variant body
	default:
		return nil, fmt.Errorf("types: %w: unrecognized message kind %d", ErrMalformed, m.Kind)
	}
	return m, nil
}

func zigZagEncode(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }
func zigZagDecode(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }
