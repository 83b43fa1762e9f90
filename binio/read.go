package binio

import (
	"bytes"
	"fmt"
	"math"
)

// Check reports ErrTruncated unless b[off:off+n] is addressable.
func Check(b []byte, off, n uint64) error {
	if off > uint64(len(b)) || n > uint64(len(b))-off {
		return fmt.Errorf("%w: need %d bytes at 0x%x, have 0x%x", ErrTruncated, n, off, len(b))
	}
	return nil
}

// CheckSignature compares the bytes at off with sig.
func CheckSignature(b []byte, off int, sig string) error {
	if err := Check(b, uint64(off), uint64(len(sig))); err != nil {
		return err
	}
	if string(b[off:off+len(sig)]) != sig {
		return fmt.Errorf("%w: want %q, got %q", ErrBadSignature, sig, b[off:off+len(sig)])
	}
	return nil
}

// DetectByteOrder reads the two bytes at off as a big-endian u16. A value
// equal to expectedBE means the file is big-endian, its byte swap means
// little-endian.
func DetectByteOrder(b []byte, off int, expectedBE uint16) (ByteOrder, error) {
	if err := Check(b, uint64(off), 2); err != nil {
		return LittleEndian, err
	}
	v := uint16(b[off])<<8 | uint16(b[off+1])
	switch v {
	case expectedBE:
		return BigEndian, nil
	case expectedBE<<8 | expectedBE>>8:
		return LittleEndian, nil
	}
	return LittleEndian, fmt.Errorf("%w: 0x%04x", ErrBadByteOrder, v)
}

// The readers below do not range check. Callers must have established the
// region with Check.

func U8(b []byte, off uint32) uint8 { return b[off] }

func U16(b []byte, off uint32, o ByteOrder) uint16 { return o.Binary().Uint16(b[off:]) }

func U24(b []byte, off uint32, o ByteOrder) uint32 {
	if o == BigEndian {
		return uint32(b[off])<<16 | uint32(b[off+1])<<8 | uint32(b[off+2])
	}
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16
}

func U32(b []byte, off uint32, o ByteOrder) uint32 { return o.Binary().Uint32(b[off:]) }
func U64(b []byte, off uint32, o ByteOrder) uint64 { return o.Binary().Uint64(b[off:]) }
func S32(b []byte, off uint32, o ByteOrder) int32  { return int32(U32(b, off, o)) }
func S64(b []byte, off uint32, o ByteOrder) int64  { return int64(U64(b, off, o)) }

func F32(b []byte, off uint32, o ByteOrder) float32 {
	return math.Float32frombits(U32(b, off, o))
}

func F64(b []byte, off uint32, o ByteOrder) float64 {
	return math.Float64frombits(U64(b, off, o))
}

// CString returns the NUL terminated string starting at off.
func CString(b []byte, off uint32) (string, error) {
	if uint64(off) >= uint64(len(b)) {
		return "", fmt.Errorf("%w: string at 0x%x", ErrTruncated, off)
	}
	end := bytes.IndexByte(b[off:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at 0x%x", ErrTruncated, off)
	}
	return string(b[off : off+uint32(end)]), nil
}
