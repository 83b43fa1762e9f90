package bffnt

import (
	"errors"
	"fmt"

	"github.com/tetraxile/afl/binio"
	"github.com/tetraxile/afl/bntx"
)

const (
	Signature = "FFNT"

	infoOffset     = 0x14
	blockHeader    = 8
	infoBodyBytes  = 0x18
	glyphBodyBytes = 0x18
	widthHeadBytes = 8
	mapHeadBytes   = 0x10
	noGlyph        = 0xffff
)

var (
	ErrChainCycle    = errors.New("bffnt: block chain revisits a block")
	ErrBadRange      = errors.New("bffnt: block range is inverted")
	ErrUnknownMethod = errors.New("bffnt: unknown character map method")
	ErrSheetIndex    = errors.New("bffnt: sheet index out of range")
)

type MapMethod uint16

const (
	MapDirect MapMethod = iota
	MapTable
	MapScan
)

func (m MapMethod) String() string {
	switch m {
	case MapDirect:
		return "direct"
	case MapTable:
		return "table"
	case MapScan:
		return "scan"
	}
	return fmt.Sprintf("method(%d)", uint16(m))
}

type Header struct {
	Order        binio.ByteOrder
	HeaderSize   uint16
	Version      uint32
	FileSize     uint32
	SectionCount uint16
}

// CharWidth holds the horizontal metrics of one glyph.
type CharWidth struct {
	Left  uint8
	Glyph uint8
	Char  uint8
}

// Info is the FINF block.
type Info struct {
	FontType      uint8
	Height        uint8
	Width         uint8
	Ascent        uint8
	LineFeed      uint16
	AltCharIndex  uint16
	DefaultWidth  CharWidth
	Encoding      uint8
	GlyphsOffset  uint32
	WidthsOffset  uint32
	CharMapOffset uint32
}

// Glyphs is the TGLP block.
type Glyphs struct {
	CellWidth       uint8
	CellHeight      uint8
	SheetCount      uint8
	MaxCharWidth    uint8
	SheetSize       uint32
	Baseline        uint16
	Format          uint16
	CellsPerRow     uint16
	CellsPerColumn  uint16
	SheetWidth      uint16
	SheetHeight     uint16
	SheetDataOffset uint32
}

// WidthBlock is one CWDH block: the widths of glyphs First through Last
// inclusive.
type WidthBlock struct {
	First  uint16
	Last   uint16
	Widths []CharWidth
}

// CharMap is one CMAP block covering code points Begin through End.
type CharMap struct {
	Begin  uint32
	End    uint32
	Method MapMethod
	// Offset is the first glyph of a direct map.
	Offset uint16
	// Table holds one glyph per code point of a table map.
	Table []uint16
	// Pairs maps code points to glyphs for a scan map.
	Pairs map[uint32]uint16
}

func (m *CharMap) glyph(code uint32) (uint16, bool) {
	if code < m.Begin || code > m.End {
		return 0, false
	}
	var g uint16
	switch m.Method {
	case MapDirect:
		g = m.Offset + uint16(code-m.Begin)
	case MapTable:
		g = m.Table[code-m.Begin]
	case MapScan:
		var ok bool
		if g, ok = m.Pairs[code]; !ok {
			return 0, false
		}
	}
	return g, g != noGlyph
}

type Font struct {
	Header Header
	Info   Info
	Glyphs Glyphs
	Widths []WidthBlock
	Maps   []CharMap
}

// Decode parses a whole font. The glyph sheets are not copied; use SheetData
// with the same buffer to reach them.
func Decode(b []byte) (*Font, error) {
	f := &Font{}
	if err := f.decodeHeader(b); err != nil {
		return nil, err
	}
	if err := f.decodeInfo(b); err != nil {
		return nil, err
	}
	if err := f.decodeGlyphs(b); err != nil {
		return nil, err
	}
	if err := f.decodeWidths(b); err != nil {
		return nil, err
	}
	if err := f.decodeMaps(b); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Font) decodeHeader(b []byte) error {
	if err := binio.CheckSignature(b, 0, Signature); err != nil {
		return err
	}
	order, err := binio.DetectByteOrder(b, 4, 0xfeff)
	if err != nil {
		return err
	}
	if err := binio.Check(b, 0, infoOffset); err != nil {
		return err
	}
	f.Header = Header{
		Order:        order,
		HeaderSize:   binio.U16(b, 6, order),
		Version:      binio.U32(b, 8, order),
		FileSize:     binio.U32(b, 0xc, order),
		SectionCount: binio.U16(b, 0x10, order),
	}
	return nil
}

// block checks the signature preceding body and that size bytes of body are
// present.
func block(b []byte, body uint32, sig string, size uint32) error {
	if body < blockHeader {
		return fmt.Errorf("%s: %w: body at 0x%x", sig, binio.ErrTruncated, body)
	}
	if err := binio.CheckSignature(b, int(body-blockHeader), sig); err != nil {
		return fmt.Errorf("%s: %w", sig, err)
	}
	if err := binio.Check(b, uint64(body), uint64(size)); err != nil {
		return fmt.Errorf("%s: %w", sig, err)
	}
	return nil
}

func (f *Font) decodeInfo(b []byte) error {
	o := f.Header.Order
	at := uint32(infoOffset + blockHeader)
	if err := block(b, at, "FINF", infoBodyBytes); err != nil {
		return err
	}
	f.Info = Info{
		FontType:      binio.U8(b, at),
		Height:        binio.U8(b, at+1),
		Width:         binio.U8(b, at+2),
		Ascent:        binio.U8(b, at+3),
		LineFeed:      binio.U16(b, at+4, o),
		AltCharIndex:  binio.U16(b, at+6, o),
		DefaultWidth:  readWidth(b, at+8),
		Encoding:      binio.U8(b, at+0xb),
		GlyphsOffset:  binio.U32(b, at+0xc, o),
		WidthsOffset:  binio.U32(b, at+0x10, o),
		CharMapOffset: binio.U32(b, at+0x14, o),
	}
	return nil
}

func readWidth(b []byte, at uint32) CharWidth {
	return CharWidth{Left: b[at], Glyph: b[at+1], Char: b[at+2]}
}

func (f *Font) decodeGlyphs(b []byte) error {
	o := f.Header.Order
	at := f.Info.GlyphsOffset
	if err := block(b, at, "TGLP", glyphBodyBytes); err != nil {
		return err
	}
	f.Glyphs = Glyphs{
		CellWidth:       binio.U8(b, at),
		CellHeight:      binio.U8(b, at+1),
		SheetCount:      binio.U8(b, at+2),
		MaxCharWidth:    binio.U8(b, at+3),
		SheetSize:       binio.U32(b, at+4, o),
		Baseline:        binio.U16(b, at+8, o),
		Format:          binio.U16(b, at+0xa, o),
		CellsPerRow:     binio.U16(b, at+0xc, o),
		CellsPerColumn:  binio.U16(b, at+0xe, o),
		SheetWidth:      binio.U16(b, at+0x10, o),
		SheetHeight:     binio.U16(b, at+0x12, o),
		SheetDataOffset: binio.U32(b, at+0x14, o),
	}
	return nil
}

// chain walks a linked list of blocks starting at first, calling visit with
// each body offset. visit returns the next body offset.
func chain(first uint32, sig string, visit func(at uint32) (uint32, error)) error {
	seen := map[uint32]bool{}
	for at := first; at != 0; {
		if seen[at] {
			return fmt.Errorf("%w: %s at 0x%x", ErrChainCycle, sig, at)
		}
		seen[at] = true
		next, err := visit(at)
		if err != nil {
			return err
		}
		at = next
	}
	return nil
}

func (f *Font) decodeWidths(b []byte) error {
	o := f.Header.Order
	return chain(f.Info.WidthsOffset, "CWDH", func(at uint32) (uint32, error) {
		if err := block(b, at, "CWDH", widthHeadBytes); err != nil {
			return 0, err
		}
		r := WidthBlock{
			First: binio.U16(b, at, o),
			Last:  binio.U16(b, at+2, o),
		}
		next := binio.U32(b, at+4, o)
		if r.Last < r.First {
			return 0, fmt.Errorf("%w: CWDH %d..%d", ErrBadRange, r.First, r.Last)
		}
		n := uint32(r.Last-r.First) + 1
		if err := binio.Check(b, uint64(at+widthHeadBytes), uint64(3*n)); err != nil {
			return 0, fmt.Errorf("CWDH: %w", err)
		}
		r.Widths = make([]CharWidth, n)
		for i := range r.Widths {
			r.Widths[i] = readWidth(b, at+widthHeadBytes+3*uint32(i))
		}
		f.Widths = append(f.Widths, r)
		return next, nil
	})
}

func (f *Font) decodeMaps(b []byte) error {
	o := f.Header.Order
	return chain(f.Info.CharMapOffset, "CMAP", func(at uint32) (uint32, error) {
		if err := block(b, at, "CMAP", mapHeadBytes); err != nil {
			return 0, err
		}
		m := CharMap{
			Begin:  binio.U32(b, at, o),
			End:    binio.U32(b, at+4, o),
			Method: MapMethod(binio.U16(b, at+8, o)),
		}
		next := binio.U32(b, at+0xc, o)
		if m.End < m.Begin {
			return 0, fmt.Errorf("%w: CMAP 0x%x..0x%x", ErrBadRange, m.Begin, m.End)
		}
		data := at + mapHeadBytes
		switch m.Method {
		case MapDirect:
			if err := binio.Check(b, uint64(data), 2); err != nil {
				return 0, fmt.Errorf("CMAP: %w", err)
			}
			m.Offset = binio.U16(b, data, o)
		case MapTable:
			n := uint64(m.End-m.Begin) + 1
			if err := binio.Check(b, uint64(data), 2*n); err != nil {
				return 0, fmt.Errorf("CMAP: %w", err)
			}
			m.Table = make([]uint16, n)
			for i := range m.Table {
				m.Table[i] = binio.U16(b, data+2*uint32(i), o)
			}
		case MapScan:
			if err := binio.Check(b, uint64(data), 4); err != nil {
				return 0, fmt.Errorf("CMAP: %w", err)
			}
			n := uint32(binio.U16(b, data, o))
			if err := binio.Check(b, uint64(data)+4, 8*uint64(n)); err != nil {
				return 0, fmt.Errorf("CMAP: %w", err)
			}
			m.Pairs = make(map[uint32]uint16, n)
			for i := uint32(0); i < n; i++ {
				key := binio.U32(b, data+4+8*i, o)
				m.Pairs[key] = uint16(binio.U32(b, data+8+8*i, o))
			}
		default:
			return 0, fmt.Errorf("%w: %d", ErrUnknownMethod, m.Method)
		}
		f.Maps = append(f.Maps, m)
		return next, nil
	})
}

// Rune returns the glyph index for a code point, searching the maps in chain
// order.
func (f *Font) Rune(code rune) (uint16, bool) {
	if code < 0 {
		return 0, false
	}
	for i := range f.Maps {
		if g, ok := f.Maps[i].glyph(uint32(code)); ok {
			return g, true
		}
	}
	return 0, false
}

// Width returns the metrics of a glyph. Glyphs outside every width block
// get the font default and false.
func (f *Font) Width(glyph uint16) (CharWidth, bool) {
	for _, r := range f.Widths {
		if glyph >= r.First && glyph <= r.Last {
			return r.Widths[glyph-r.First], true
		}
	}
	return f.Info.DefaultWidth, false
}

// SheetData returns the bytes of sheet i within b.
func (f *Font) SheetData(b []byte, i int) ([]byte, error) {
	if i < 0 || i >= int(f.Glyphs.SheetCount) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSheetIndex, i, f.Glyphs.SheetCount)
	}
	size := uint64(f.Glyphs.SheetSize)
	off := uint64(f.Glyphs.SheetDataOffset) + uint64(i)*size
	if err := binio.Check(b, off, size); err != nil {
		return nil, err
	}
	return b[off : off+size], nil
}

// Sheet decodes the texture header of sheet i.
func (f *Font) Sheet(b []byte, i int) (bntx.Header, error) {
	data, err := f.SheetData(b, i)
	if err != nil {
		return bntx.Header{}, err
	}
	h, err := bntx.DecodeHeader(data)
	if err != nil {
		return bntx.Header{}, fmt.Errorf("sheet %d: %w", i, err)
	}
	return h, nil
}
