package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncated is returned when the input ends before the encoded value does.
	ErrTruncated = errors.New("compact size: truncated input")
	// ErrNonCanonical is returned for a value encoded wider than necessary.
	ErrNonCanonical = errors.New("compact size: non-minimal encoding")
)

// CompactSizeLen returns the number of bytes EncodeCompactSize writes for n.
func CompactSizeLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// AppendCompactSize appends the minimal Bitcoin compact size encoding of n.
//
//	n < 0xfd           -> 1 byte
//	n <= 0xffff        -> 0xfd + u16
//	n <= 0xffffffff    -> 0xfe + u32
//	otherwise          -> 0xff + u64
func AppendCompactSize(b []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(b, byte(n))
	case n <= 0xffff:
		b = append(b, 0xfd)
		return binary.LittleEndian.AppendUint16(b, uint16(n))
	case n <= 0xffffffff:
		b = append(b, 0xfe)
		return binary.LittleEndian.AppendUint32(b, uint32(n))
	default:
		b = append(b, 0xff)
		return binary.LittleEndian.AppendUint64(b, n)
	}
}

// EncodeCompactSize returns the minimal encoding of n.
func EncodeCompactSize(n uint64) []byte {
	return AppendCompactSize(make([]byte, 0, CompactSizeLen(n)), n)
}

// DecodeCompactSize decodes a compact size from the front of b and returns
// the value and the number of bytes consumed. Non-minimal encodings are rejected.
func DecodeCompactSize(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}

	var (
		n     uint64
		width int
		floor uint64
	)
	switch b[0] {
	case 0xfd:
		width, floor = 2, 0xfd
	case 0xfe:
		width, floor = 4, 0x10000
	case 0xff:
		width, floor = 8, 0x100000000
	default:
		return uint64(b[0]), 1, nil
	}

	if len(b) < 1+width {
		return 0, 0, ErrTruncated
	}
	switch width {
	case 2:
		n = uint64(binary.LittleEndian.Uint16(b[1:]))
	case 4:
		n = uint64(binary.LittleEndian.Uint32(b[1:]))
	case 8:
		n = binary.LittleEndian.Uint64(b[1:])
	}
	if n < floor {
		return 0, 0, fmt.Errorf("%w: %d in %d bytes", ErrNonCanonical, n, width+1)
	}
	return n, 1 + width, nil
}

// WriteCompactSize writes the minimal encoding of n to w.
func WriteCompactSize(w io.Writer, n uint64) error {
	var buf [9]byte
	_, err := w.Write(AppendCompactSize(buf[:0], n))
	return err
}

// ReadCompactSize reads a compact size from r.
func ReadCompactSize(r io.Reader) (uint64, error) {
	var buf [9]byte
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	var width int
	switch buf[0] {
	case 0xfd:
		width = 2
	case 0xfe:
		width = 4
	case 0xff:
		width = 8
	default:
		return uint64(buf[0]), nil
	}
	if _, err := io.ReadFull(r, buf[1:1+width]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	n, _, err := DecodeCompactSize(buf[:1+width])
	return n, err
}
