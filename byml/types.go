package byml

import (
	"errors"
	"fmt"
)

const (
	// Magic is the header signature as a big-endian u16 ("BY").
	Magic = 0x4259

	HeaderBytes = 16

	// MaxDepth bounds the Writer's nesting stack.
	MaxDepth = 16

	// MaxCount is the largest count representable in a container header.
	MaxCount = 1<<24 - 1

	// NoContainer marks leaf entries in a Hash's index remap.
	NoContainer = ^uint32(0)
)

var (
	ErrWrongNodeType      = errors.New("byml: wrong node type")
	ErrInvalidKey         = errors.New("byml: invalid key")
	ErrOutOfBounds        = errors.New("byml: index out of bounds")
	ErrEmptyStack         = errors.New("byml: container stack is empty")
	ErrFullStack          = errors.New("byml: container stack is full")
	ErrInvalidVersion     = errors.New("byml: 64-bit values need version 3")
	ErrUnsupportedVersion = errors.New("byml: unsupported version")
	ErrDuplicateKey       = errors.New("byml: duplicate key in hash")
	ErrInvalidString      = errors.New("byml: string contains NUL")
	ErrEmptyDocument      = errors.New("byml: document has no root")
	ErrTooLarge           = errors.New("byml: document exceeds 32-bit offsets")
	ErrSharedContainer    = errors.New("byml: container referenced more than once")
)

// NodeType is the one byte tag stored for every node.
type NodeType uint8

const (
	String      NodeType = 0xa0
	Array       NodeType = 0xc0
	Hash        NodeType = 0xc1
	StringTable NodeType = 0xc2
	Bool        NodeType = 0xd0
	Int32       NodeType = 0xd1
	Float32     NodeType = 0xd2
	Uint32      NodeType = 0xd3
	Int64       NodeType = 0xd4
	Uint64      NodeType = 0xd5
	Float64     NodeType = 0xd6
	Null        NodeType = 0xff
)

func (t NodeType) String() string {
	switch t {
	case String:
		return "string"
	case Array:
		return "array"
	case Hash:
		return "hash"
	case StringTable:
		return "string_table"
	case Bool:
		return "bool"
	case Int32:
		return "s32"
	case Float32:
		return "f32"
	case Uint32:
		return "u32"
	case Int64:
		return "s64"
	case Uint64:
		return "u64"
	case Float64:
		return "f64"
	case Null:
		return "null"
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(t))
}

func (t NodeType) IsContainer() bool { return t == Array || t == Hash }

// Is64 reports whether values of this type live in the 64-bit pool.
func (t NodeType) Is64() bool { return t == Int64 || t == Uint64 || t == Float64 }

// IsValue reports whether t may appear as a child entry.
func (t NodeType) IsValue() bool {
	switch t {
	case String, Array, Hash, Bool, Int32, Float32, Uint32, Int64, Uint64, Float64, Null:
		return true
	}
	return false
}

// ContainerSize is the encoded size of a container with n children.
func ContainerSize(t NodeType, n uint32) uint32 {
	if t == Array {
		return 4 + (n+3)&^3 + 4*n
	}
	return 4 + 8*n
}
