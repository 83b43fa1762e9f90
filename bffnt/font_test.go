package bffnt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetraxile/afl/binio"
	"github.com/tetraxile/afl/bntx"
)

const (
	sheetBytes  = 0x30
	sheetOffset = 0x100
)

func sheet(order binio.ByteOrder, textures uint32) []byte {
	w := binio.NewBuffer(order, sheetBytes)
	binio.FileHeader{Signature: bntx.Signature, Version: 0x00040100, Order: order, FileSize: sheetBytes}.Encode(w)
	w.PutBytes(0x20, []byte("NX  "))
	w.PutU32(0x24, textures)
	w.Pad(sheetBytes)
	return w.Bytes()
}

func blockAt(w *binio.Buffer, body uint32, sig string, size uint32) {
	w.PutBytes(body-8, []byte(sig))
	w.PutU32(body-4, size)
}

// sampleFont lays out a font with two width ranges and three character maps,
// one of each method.
func sampleFont(order binio.ByteOrder) []byte {
	w := binio.NewBuffer(order, 0)
	w.PutBytes(0, []byte(Signature))
	w.PutU16(4, 0xfeff)
	w.PutU16(6, 0x14)
	w.PutU32(8, 0x04010000)
	w.PutU16(0x10, 5)

	blockAt(w, 0x1c, "FINF", 0x20)
	w.PutU8(0x1c, 1)
	w.PutU8(0x1d, 0x20)
	w.PutU8(0x1e, 0x18)
	w.PutU8(0x1f, 0x1a)
	w.PutU16(0x20, 0x22)
	w.PutU16(0x22, 5)
	w.PutBytes(0x24, []byte{1, 2, 3})
	w.PutU8(0x27, 1)
	w.PutU32(0x28, 0x3c)
	w.PutU32(0x2c, 0x5c)
	w.PutU32(0x30, 0x90)

	blockAt(w, 0x3c, "TGLP", 0x20)
	w.PutU8(0x3c, 0x18)
	w.PutU8(0x3d, 0x1e)
	w.PutU8(0x3e, 2)
	w.PutU8(0x3f, 0x17)
	w.PutU32(0x40, sheetBytes)
	w.PutU16(0x44, 0x19)
	w.PutU16(0x46, 0x0b)
	w.PutU16(0x48, 10)
	w.PutU16(0x4a, 12)
	w.PutU16(0x4c, 256)
	w.PutU16(0x4e, 512)
	w.PutU32(0x50, sheetOffset)

	blockAt(w, 0x5c, "CWDH", 0x14)
	w.PutU16(0x5c, 0)
	w.PutU16(0x5e, 2)
	w.PutU32(0x60, 0x78)
	w.PutBytes(0x64, []byte{0, 8, 9, 1, 10, 11, 2, 12, 13})

	blockAt(w, 0x78, "CWDH", 0x10)
	w.PutU16(0x78, 5)
	w.PutU16(0x7a, 5)
	w.PutU32(0x7c, 0)
	w.PutBytes(0x80, []byte{4, 20, 21})

	blockAt(w, 0x90, "CMAP", 0x14)
	w.PutU32(0x90, 'A')
	w.PutU32(0x94, 'Z')
	w.PutU16(0x98, uint16(MapDirect))
	w.PutU32(0x9c, 0xac)
	w.PutU16(0xa0, 10)

	blockAt(w, 0xac, "CMAP", 0x18)
	w.PutU32(0xac, '0')
	w.PutU32(0xb0, '2')
	w.PutU16(0xb4, uint16(MapTable))
	w.PutU32(0xb8, 0xcc)
	w.PutU16(0xbc, 3)
	w.PutU16(0xbe, 0xffff)
	w.PutU16(0xc0, 4)

	blockAt(w, 0xcc, "CMAP", 0x24)
	w.PutU32(0xcc, 0)
	w.PutU32(0xd0, 0xffff)
	w.PutU16(0xd4, uint16(MapScan))
	w.PutU32(0xd8, 0)
	w.PutU16(0xdc, 2)
	w.PutU32(0xe0, 0x3042)
	w.PutU32(0xe4, 7)
	w.PutU32(0xe8, ' ')
	w.PutU32(0xec, 1)

	w.PutBytes(sheetOffset, sheet(order, 1))
	w.PutBytes(sheetOffset+sheetBytes, sheet(order, 2))
	w.PutU32(0xc, w.Len())
	return w.Bytes()
}

func TestDecode(t *testing.T) {
	for _, order := range []binio.ByteOrder{binio.LittleEndian, binio.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			b := sampleFont(order)
			f, err := Decode(b)
			require.NoError(t, err)

			assert.Equal(t, order, f.Header.Order)
			assert.Equal(t, uint32(len(b)), f.Header.FileSize)
			assert.Equal(t, uint8(0x20), f.Info.Height)
			assert.Equal(t, uint16(0x22), f.Info.LineFeed)
			assert.Equal(t, CharWidth{1, 2, 3}, f.Info.DefaultWidth)
			assert.Equal(t, uint8(2), f.Glyphs.SheetCount)
			assert.Equal(t, uint16(512), f.Glyphs.SheetHeight)
			require.Len(t, f.Widths, 2)
			require.Len(t, f.Maps, 3)
			assert.Equal(t, MapScan, f.Maps[2].Method)
		})
	}
}

func TestRune(t *testing.T) {
	f, err := Decode(sampleFont(binio.LittleEndian))
	require.NoError(t, err)

	for code, want := range map[rune]uint16{'A': 10, 'C': 12, 'Z': 35, '0': 3, '2': 4, 0x3042: 7, ' ': 1} {
		g, ok := f.Rune(code)
		assert.True(t, ok, "%q", code)
		assert.Equal(t, want, g, "%q", code)
	}
	for _, code := range []rune{'1', 'a', 0x10000, -1} {
		_, ok := f.Rune(code)
		assert.False(t, ok, "%q", code)
	}
}

func TestWidth(t *testing.T) {
	f, err := Decode(sampleFont(binio.BigEndian))
	require.NoError(t, err)

	for glyph, want := range map[uint16]CharWidth{0: {0, 8, 9}, 2: {2, 12, 13}, 5: {4, 20, 21}} {
		got, ok := f.Width(glyph)
		assert.True(t, ok, glyph)
		assert.Equal(t, want, got, glyph)
	}
	got, ok := f.Width(3)
	assert.False(t, ok)
	assert.Equal(t, CharWidth{1, 2, 3}, got)
}

func TestSheets(t *testing.T) {
	b := sampleFont(binio.LittleEndian)
	f, err := Decode(b)
	require.NoError(t, err)

	data, err := f.SheetData(b, 1)
	require.NoError(t, err)
	assert.Len(t, data, sheetBytes)

	h, err := f.Sheet(b, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), h.TextureCount)

	_, err = f.SheetData(b, 2)
	require.ErrorIs(t, err, ErrSheetIndex)
	_, err = f.SheetData(b[:sheetOffset+sheetBytes], 1)
	require.ErrorIs(t, err, binio.ErrTruncated)
}

func TestDecodeErrors(t *testing.T) {
	patch := func(fn func(w *binio.Buffer)) []byte {
		b := sampleFont(binio.LittleEndian)
		w := binio.NewBuffer(binio.LittleEndian, 0)
		w.PutBytes(0, b)
		fn(w)
		return w.Bytes()
	}

	_, err := Decode(patch(func(w *binio.Buffer) { w.PutU32(0x7c, 0x5c) }))
	require.ErrorIs(t, err, ErrChainCycle)

	_, err = Decode(patch(func(w *binio.Buffer) { w.PutU32(0xd8, 0x90) }))
	require.ErrorIs(t, err, ErrChainCycle)

	_, err = Decode(patch(func(w *binio.Buffer) { w.PutU16(0x98, 7) }))
	require.ErrorIs(t, err, ErrUnknownMethod)

	_, err = Decode(patch(func(w *binio.Buffer) { w.PutU16(0x5e, 0); w.PutU16(0x5c, 1) }))
	require.ErrorIs(t, err, ErrBadRange)

	_, err = Decode(patch(func(w *binio.Buffer) { w.PutBytes(0x34, []byte("XXXX")) }))
	require.ErrorIs(t, err, binio.ErrBadSignature)

	_, err = Decode(patch(func(w *binio.Buffer) { w.PutU16(4, 0x1234) }))
	require.ErrorIs(t, err, binio.ErrBadByteOrder)

	_, err = Decode(sampleFont(binio.LittleEndian)[:0x40])
	require.ErrorIs(t, err, binio.ErrTruncated)
}
