package sarc

import (
	"errors"

	"github.com/tetraxile/afl/binio"
)

const (
	Signature     = "SARC"
	SFATSignature = "SFAT"
	SFNTSignature = "SFNT"

	HeaderBytes     = 0x14
	SFATHeaderBytes = 0x0c
	SFATEntryBytes  = 0x10
	SFNTHeaderBytes = 0x08

	ByteOrderMark = 0xfeff

	DefaultVersion        = 0x100
	DefaultHashMultiplier = 101
	DefaultAlignment      = 0x80

	// nameFlagShift positions the collision ordinal in an entry's
	// attributes; a nonzero ordinal means the entry has a name.
	nameFlagShift  = 24
	nameOffsetMask = 1<<nameFlagShift - 1
	maxCollisions  = 1<<(32-nameFlagShift) - 1
)

var (
	ErrBadHeaderSize = errors.New("sarc: bad section header size")
	ErrFileNotFound  = errors.New("sarc: file not found")
	ErrDuplicateName = errors.New("sarc: duplicate file name")
	ErrBadAlignment  = errors.New("sarc: alignment must be a power of two")
	ErrBadFileExtent = errors.New("sarc: file data outside archive")
	ErrTooManyFiles  = errors.New("sarc: too many files")
)

// Header is the archive preamble.
type Header struct {
	Order      binio.ByteOrder
	FileSize   uint32
	DataOffset uint32
	Version    uint16
}

// FATEntry is one SFAT record. Start and End are relative to the data
// offset.
type FATEntry struct {
	Hash  uint32
	Attrs uint32
	Start uint32
	End   uint32
}

func (e FATEntry) HasName() bool { return e.Attrs>>nameFlagShift != 0 }

// NameOffset is the offset of the name inside the SFNT name table.
func (e FATEntry) NameOffset() uint32 { return (e.Attrs & nameOffsetMask) * 4 }

func (e FATEntry) Size() uint32 { return e.End - e.Start }

// Hash computes the SFAT name hash.
func Hash(name string, multiplier uint32) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*multiplier + uint32(name[i])
	}
	return h
}
