package bntx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetraxile/afl/binio"
)

func sample(order binio.ByteOrder) []byte {
	w := binio.NewBuffer(order, 0)
	binio.FileHeader{
		Signature:         Signature,
		Version:           0x00040100,
		Order:             order,
		Alignment:         0x0c,
		TargetAddressSize: 0x40,
		FilenameOffset:    0x40,
		FileSize:          0x48,
	}.Encode(w)
	w.PutBytes(0x20, []byte("NX  "))
	w.PutU32(0x24, 3)
	w.PutString(0x40, "Font0")
	w.Pad(0x48)
	return w.Bytes()
}

func TestDecodeHeader(t *testing.T) {
	for _, order := range []binio.ByteOrder{binio.LittleEndian, binio.BigEndian} {
		b := sample(order)
		h, err := DecodeHeader(b)
		require.NoError(t, err)
		assert.Equal(t, order, h.Order)
		assert.Equal(t, uint32(3), h.TextureCount)
		assert.Equal(t, uint32(0x48), h.FileSize)
		assert.Equal(t, "4.1.0", h.VersionString())
		name, err := h.Name(b)
		require.NoError(t, err)
		assert.Equal(t, "Font0", name)
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	b := sample(binio.LittleEndian)
	b[0x20] = 'M'
	_, err := DecodeHeader(b)
	require.ErrorIs(t, err, binio.ErrBadSignature)

	b = sample(binio.LittleEndian)
	b[0xc], b[0xd] = 0, 0
	_, err = DecodeHeader(b)
	require.ErrorIs(t, err, binio.ErrBadByteOrder)
}
