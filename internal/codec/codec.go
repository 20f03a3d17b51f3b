// Package codec implements the binary encoding of protocol instructions and
// persisted records.
//
// The format is fixed by already-deployed state and must stay byte-exact:
//   - integers are little-endian
//   - strings and sequences carry a u32 little-endian length prefix
//   - fixed 32-byte values are written raw
//   - bool is a single 0/1 byte
//   - the instruction union is a u8 tag followed by the variant's fields in
//     declaration order
//
// Note the asymmetry with selection: records encode integers little-endian,
// but the target selector reads the first 8 entropy bytes big-endian. Both
// are wire constants inherited from the deployed protocol.
package codec

import (
	"encoding/binary"
	"fmt"
)

// maxLen bounds length prefixes read from untrusted input. Nothing the
// protocol persists comes close: the largest record is a full pool,
// 10000 targets at 32 bytes each.
const maxLen = 1 << 20

// writer accumulates a binary encoding.
type writer struct {
	buf []byte
}

func (w *writer) u8(v byte) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *writer) i64(v int64) {
	w.u64(uint64(v))
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) bytes32(v [32]byte) {
	w.buf = append(w.buf, v[:]...)
}

func (w *writer) string(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) u16Seq(vs []uint16) {
	w.u32(uint32(len(vs)))
	for _, v := range vs {
		w.u16(v)
	}
}

// reader consumes a binary encoding. All reads fail cleanly on truncated
// input; Remaining lets callers reject trailing garbage.
type reader struct {
	data []byte
	off  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("truncated input: need %d bytes at offset %d, have %d", n, r.off, r.remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *reader) bool() (bool, error) {
	b, err := r.u8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool byte 0x%02x", b)
	}
}

func (r *reader) bytes32() ([32]byte, error) {
	var v [32]byte
	b, err := r.take(32)
	if err != nil {
		return v, err
	}
	copy(v[:], b)
	return v, nil
}

func (r *reader) length() (int, error) {
	n, err := r.u32()
	if err != nil {
		return 0, err
	}
	if n > maxLen {
		return 0, fmt.Errorf("length prefix %d exceeds limit", n)
	}
	return int(n), nil
}

func (r *reader) string() (string, error) {
	n, err := r.length()
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) u16Seq() ([]uint16, error) {
	n, err := r.length()
	if err != nil {
		return nil, err
	}
	vs := make([]uint16, n)
	for i := range vs {
		vs[i], err = r.u16()
		if err != nil {
			return nil, err
		}
	}
	return vs, nil
}
