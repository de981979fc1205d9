// Package types defines the entity model persisted through an EntityStore:
// plain Go structs with their own binary Marshal/Unmarshal pair, independent
// of struct tags or a schema generator.
package types

import (
	"encoding/binary"
	"errors"
	"math/big"
)

// ErrMalformed is returned when an entity's persisted bytes are structurally
// inconsistent (short reads, bad presence flags). It always indicates a
// corrupted or foreign-format store entry, never a legitimate empty value.
var ErrMalformed = errors.New("types: malformed entity encoding")

// writer accumulates an entity's binary encoding. All variable-length
// fields are length-prefixed with a uvarint so Unmarshal never has to guess
// a boundary.
type writer struct {
	buf []byte
}

func newWriter() *writer { return &writer{buf: make([]byte, 0, 64)} }

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) putUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf = append(w.buf, tmp[:n]...)
}

func (w *writer) putUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *writer) putBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) putBytes(b []byte) {
	w.putUvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) putFixed(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) putString(s string) {
	w.putBytes([]byte(s))
}

func (w *writer) putStringSlice(ss []string) {
	w.putUvarint(uint64(len(ss)))
	for _, s := range ss {
		w.putString(s)
	}
}

func (w *writer) putOptString(s *string) {
	if s == nil {
		w.putBool(false)
		return
	}
	w.putBool(true)
	w.putString(*s)
}

func (w *writer) putOptUint32(v *uint32) {
	if v == nil {
		w.putBool(false)
		return
	}
	w.putBool(true)
	w.putUint32(*v)
}

// putBigInt encodes a big.Int as a sign byte (0 = non-negative, 1 =
// negative) followed by a length-prefixed big-endian magnitude.
func (w *writer) putBigInt(v *big.Int) {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
	w.putBytes(v.Bytes())
}

func (w *writer) putOptBigInt(v *big.Int) {
	if v == nil {
		w.putBool(false)
		return
	}
	w.putBool(true)
	w.putBigInt(v)
}

// reader consumes a writer's encoding in the same field order it was
// produced; field order is the wire contract between the two.
type reader struct {
	buf []byte
	off int
}

func newReader(b []byte) *reader { return &reader{buf: b} }

func (r *reader) getUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, ErrMalformed
	}
	r.off += n
	return v, nil
}

func (r *reader) getUint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, ErrMalformed
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *reader) getBool() (bool, error) {
	if r.off+1 > len(r.buf) {
		return false, ErrMalformed
	}
	v := r.buf[r.off] != 0
	r.off++
	return v, nil
}

func (r *reader) getBytes() ([]byte, error) {
	n, err := r.getUvarint()
	if err != nil {
		return nil, err
	}
	if r.off+int(n) > len(r.buf) {
		return nil, ErrMalformed
	}
	b := make([]byte, n)
	copy(b, r.buf[r.off:r.off+int(n)])
	r.off += int(n)
	return b, nil
}

func (r *reader) getFixed(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, ErrMalformed
	}
	b := make([]byte, n)
	copy(b, r.buf[r.off:r.off+n])
	r.off += n
	return b, nil
}

func (r *reader) getString() (string, error) {
	b, err := r.getBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) getStringSlice() ([]string, error) {
	n, err := r.getUvarint()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := r.getString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *reader) getOptString() (*string, error) {
	present, err := r.getBool()
	if err != nil || !present {
		return nil, err
	}
	s, err := r.getString()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *reader) getOptUint32() (*uint32, error) {
	present, err := r.getBool()
	if err != nil || !present {
		return nil, err
	}
	v, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *reader) getBigInt() (*big.Int, error) {
	if r.off+1 > len(r.buf) {
		return nil, ErrMalformed
	}
	neg := r.buf[r.off] == 1
	r.off++
	mag, err := r.getBytes()
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(mag)
	if neg {
		v.Neg(v)
	}
	return v, nil
}

func (r *reader) getOptBigInt() (*big.Int, error) {
	present, err := r.getBool()
	if err != nil || !present {
		return nil, err
	}
	return r.getBigInt()
}
