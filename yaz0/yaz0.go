package yaz0

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Magic       = "Yaz0"
	HeaderBytes = 0x10

	// DefaultAlignment is the data alignment recorded in the header when
	// none is given.
	DefaultAlignment = 0x80

	windowSize = 0x1000
	minMatch   = 3
	maxMatch   = 0x111
	// matches shorter than this fit a two byte back reference
	longMatch = 0x12
)

var (
	ErrBadMagic     = errors.New("yaz0: bad magic")
	ErrTruncated    = errors.New("yaz0: input truncated")
	ErrBadReference = errors.New("yaz0: back reference before start of output")
)

// Header is the 16 byte stream header. All fields are big-endian.
type Header struct {
	UncompressedSize uint32
	Alignment        uint32
}

func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderBytes {
		return Header{}, fmt.Errorf("%w: header", ErrTruncated)
	}
	if string(src[:4]) != Magic {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, src[:4])
	}
	return Header{
		UncompressedSize: binary.BigEndian.Uint32(src[4:8]),
		Alignment:        binary.BigEndian.Uint32(src[8:12]),
	}, nil
}

func (h Header) Encode(dst []byte) {
	copy(dst[0:4], Magic)
	binary.BigEndian.PutUint32(dst[4:8], h.UncompressedSize)
	binary.BigEndian.PutUint32(dst[8:12], h.Alignment)
	clear(dst[12:HeaderBytes])
}

// IsCompressed reports whether src starts with the Yaz0 magic.
func IsCompressed(src []byte) bool {
	return len(src) >= 4 && string(src[:4]) == Magic
}

// Decompress expands a Yaz0 stream.
//
// Each group starts with a code byte read from the most significant bit
// down. A set bit copies one literal byte. A clear bit is a back reference:
// two big-endian bytes NR RR give distance RRR+1, and length N+2, or when N
// is zero a third byte plus 0x12.
func Decompress(src []byte) ([]byte, error) {
	h, err := DecodeHeader(src)
	if err != nil {
		return nil, err
	}
	out := make([]byte, h.UncompressedSize)
	s, d := HeaderBytes, 0
	for d < len(out) {
		if s >= len(src) {
			return nil, fmt.Errorf("%w: code byte at 0x%x", ErrTruncated, s)
		}
		code := src[s]
		s++
		for bit := 7; bit >= 0 && d < len(out); bit-- {
			if code>>bit&1 != 0 {
				if s >= len(src) {
					return nil, fmt.Errorf("%w: literal at 0x%x", ErrTruncated, s)
				}
				out[d] = src[s]
				s++
				d++
				continue
			}
			if s+2 > len(src) {
				return nil, fmt.Errorf("%w: reference at 0x%x", ErrTruncated, s)
			}
			data := int(src[s])<<8 | int(src[s+1])
			s += 2
			count := data >> 12
			if count == 0 {
				if s >= len(src) {
					return nil, fmt.Errorf("%w: reference length at 0x%x", ErrTruncated, s)
				}
				count = int(src[s]) + longMatch
				s++
			} else {
				count += 2
			}
			dist := data&0xfff + 1
			if dist > d {
				return nil, fmt.Errorf("%w: distance %d at output 0x%x", ErrBadReference, dist, d)
			}
			// the regions may overlap, so copy byte by byte
			for i := 0; i < count && d < len(out); i++ {
				out[d] = out[d-dist]
				d++
			}
		}
	}
	return out, nil
}
