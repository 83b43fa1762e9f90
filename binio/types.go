package binio

import (
	"encoding/binary"
	"errors"
)

var (
	ErrBadSignature = errors.New("binio: bad signature")
	ErrBadByteOrder = errors.New("binio: bad byte order mark")
	ErrTruncated    = errors.New("binio: buffer truncated")
)

// ByteOrder selects the endianness of a file.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// Binary returns the encoding/binary implementation for o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseByteOrder accepts "big", "be", "little" and "le".
func ParseByteOrder(s string) (ByteOrder, bool) {
	switch s {
	case "big", "be", "BE":
		return BigEndian, true
	case "little", "le", "LE", "":
		return LittleEndian, true
	}
	return LittleEndian, false
}

// RoundUp rounds x up to a multiple of align, which must be a power of two.
func RoundUp(x, align uint32) uint32 {
	return (x + align - 1) &^ (align - 1)
}
