// Package bfres decodes the header of BFRES model resources: the section
// offsets, the section counts and the embedded file table.
package bfres

import (
	"fmt"

	"github.com/tetraxile/afl/binio"
)

const (
	Signature   = "FRES    "
	HeaderBytes = 0xca

	embeddedFileBytes = 0x10
)

// Section names an array/dictionary pair in the header.
type Section int

const (
	Models Section = iota
	SkeletalAnims
	MaterialAnims
	VisibilityAnims
	ShapeAnims
	SceneAnims
	EmbeddedFiles
	numSections
)

var sectionNames = [...]string{"models", "skeletal_anims", "material_anims", "visibility_anims", "shape_anims", "scene_anims", "embedded_files"}

func (s Section) String() string {
	if s < 0 || s >= numSections {
		return fmt.Sprintf("section(%d)", int(s))
	}
	return sectionNames[s]
}

// SectionRef locates one section: its entry array, its name dictionary and
// the number of entries.
type SectionRef struct {
	ArrayOffset uint64
	DictOffset  uint64
	Count       uint16
}

type Header struct {
	binio.FileHeader
	NameOffset       uint64
	Sections         [numSections]SectionRef
	MemoryPoolOffset uint64
	MemoryPoolInfo   uint64
	StringPoolOffset uint64
	StringPoolSize   uint32
}

// arrayOffsets gives the header position of each section's array offset;
// the dictionary offset follows it.
var arrayOffsets = [numSections]uint32{
	Models:          0x28,
	SkeletalAnims:   0x38,
	MaterialAnims:   0x48,
	VisibilityAnims: 0x58,
	ShapeAnims:      0x68,
	SceneAnims:      0x78,
	EmbeddedFiles:   0x98,
}

func DecodeHeader(b []byte) (Header, error) {
	fh, err := binio.DecodeFileHeader(b, Signature)
	if err != nil {
		return Header{}, err
	}
	if err := binio.Check(b, 0, HeaderBytes); err != nil {
		return Header{}, err
	}
	o := fh.Order
	h := Header{
		FileHeader:       fh,
		NameOffset:       binio.U64(b, 0x20, o),
		MemoryPoolOffset: binio.U64(b, 0x88, o),
		MemoryPoolInfo:   binio.U64(b, 0x90, o),
		StringPoolOffset: binio.U64(b, 0xb0, o),
		StringPoolSize:   binio.U32(b, 0xb8, o),
	}
	for s := Section(0); s < numSections; s++ {
		h.Sections[s] = SectionRef{
			ArrayOffset: binio.U64(b, arrayOffsets[s], o),
			DictOffset:  binio.U64(b, arrayOffsets[s]+8, o),
			Count:       binio.U16(b, 0xbc+2*uint32(s), o),
		}
	}
	return h, nil
}

func (h Header) Count(s Section) uint16 { return h.Sections[s].Count }

// EmbeddedFile is one entry of the embedded file table.
type EmbeddedFile struct {
	Offset uint64
	Size   uint32
}

// EmbeddedFiles lists the embedded file table.
func (h Header) EmbeddedFiles(b []byte) ([]EmbeddedFile, error) {
	ref := h.Sections[EmbeddedFiles]
	if err := binio.Check(b, ref.ArrayOffset, uint64(ref.Count)*embeddedFileBytes); err != nil {
		return nil, err
	}
	files := make([]EmbeddedFile, ref.Count)
	for i := range files {
		at := uint32(ref.ArrayOffset) + uint32(i)*embeddedFileBytes
		files[i] = EmbeddedFile{
			Offset: binio.U64(b, at, h.Order),
			Size:   binio.U32(b, at+8, h.Order),
		}
		if err := binio.Check(b, files[i].Offset, uint64(files[i].Size)); err != nil {
			return nil, fmt.Errorf("embedded file %d: %w", i, err)
		}
	}
	return files, nil
}
