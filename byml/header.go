package byml

import (
	"fmt"

	"github.com/tetraxile/afl/binio"
)

// Header is the fixed 16 byte preamble. Offsets are absolute; zero means the
// section is absent.
type Header struct {
	Order                  binio.ByteOrder
	Version                uint16
	HashKeyTableOffset     uint32
	StringValueTableOffset uint32
	RootOffset             uint32
}

func supportedVersion(v uint16) bool { return v == 2 || v == 3 }

// DecodeHeader decodes the header, taking the byte order from the magic.
func DecodeHeader(b []byte) (Header, error) {
	if err := binio.Check(b, 0, HeaderBytes); err != nil {
		return Header{}, err
	}
	order, err := binio.DetectByteOrder(b, 0, Magic)
	if err != nil {
		return Header{}, err
	}
	h := Header{
		Order:                  order,
		Version:                binio.U16(b, 2, order),
		HashKeyTableOffset:     binio.U32(b, 4, order),
		StringValueTableOffset: binio.U32(b, 8, order),
		RootOffset:             binio.U32(b, 12, order),
	}
	if !supportedVersion(h.Version) {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

// Encode writes the header at offset 0 of buf. h.Order must match the
// buffer's byte order.
func (h Header) Encode(buf *binio.Buffer) error {
	if h.Order != buf.Order {
		return fmt.Errorf("%w: header is %s, buffer is %s", binio.ErrBadByteOrder, h.Order, buf.Order)
	}
	buf.PutU16(0, Magic)
	buf.PutU16(2, h.Version)
	buf.PutU32(4, h.HashKeyTableOffset)
	buf.PutU32(8, h.StringValueTableOffset)
	buf.PutU32(12, h.RootOffset)
	return nil
}
