package sarc

import (
	"fmt"
	"math"
	"sort"

	"github.com/tetraxile/afl/binio"
)

type WriterOptions struct {
	order          binio.ByteOrder
	alignment      uint32
	version        uint16
	hashMultiplier uint32
}

type WriterOption func(*WriterOptions)

func WithByteOrder(order binio.ByteOrder) WriterOption {
	return func(o *WriterOptions) { o.order = order }
}

// WithAlignment sets the alignment of every file's data. It must be a power
// of two.
func WithAlignment(alignment uint32) WriterOption {
	return func(o *WriterOptions) { o.alignment = alignment }
}

func WithVersion(version uint16) WriterOption {
	return func(o *WriterOptions) { o.version = version }
}

func WithHashMultiplier(m uint32) WriterOption {
	return func(o *WriterOptions) { o.hashMultiplier = m }
}

type pending struct {
	name string
	hash uint32
	data []byte
}

// Writer collects files and lays out an archive.
type Writer struct {
	options WriterOptions
	files   []pending
	names   map[string]struct{}
}

func NewWriter(opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		options: WriterOptions{
			alignment:      DefaultAlignment,
			version:        DefaultVersion,
			hashMultiplier: DefaultHashMultiplier,
		},
		names: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(&w.options)
	}
	if a := w.options.alignment; a == 0 || a&(a-1) != 0 {
		return nil, fmt.Errorf("%w: 0x%x", ErrBadAlignment, a)
	}
	return w, nil
}

// Add queues a file. The data is not copied.
func (w *Writer) Add(name string, data []byte) error {
	if _, ok := w.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if len(w.files) == math.MaxUint16 {
		return ErrTooManyFiles
	}
	w.names[name] = struct{}{}
	w.files = append(w.files, pending{name: name, hash: Hash(name, w.options.hashMultiplier), data: data})
	return nil
}

func (w *Writer) Len() int { return len(w.files) }

// Save lays out the archive: header, SFAT sorted by hash, SFNT with 4 byte
// aligned names, then file data with every file aligned. The recorded file
// size is the end of the last file's data.
func (w *Writer) Save() ([]byte, error) {
	files := make([]pending, len(w.files))
	copy(files, w.files)
	sort.SliceStable(files, func(a, b int) bool { return files[a].hash < files[b].hash })

	n := uint32(len(files))
	entries := uint32(HeaderBytes + SFATHeaderBytes)
	sfnt := entries + n*SFATEntryBytes
	names := sfnt + SFNTHeaderBytes

	var namesLen uint64
	nameOffsets := make([]uint32, n)
	for i, f := range files {
		namesLen = uint64(binio.RoundUp(uint32(namesLen), 4))
		nameOffsets[i] = uint32(namesLen)
		namesLen += uint64(len(f.name)) + 1
	}
	align := w.options.alignment
	dataOffset := uint64(names) + namesLen
	dataOffset = (dataOffset + uint64(align) - 1) &^ (uint64(align) - 1)

	starts := make([]uint64, n)
	end := dataOffset
	for i, f := range files {
		end = (end + uint64(align) - 1) &^ (uint64(align) - 1)
		starts[i] = end - dataOffset
		end += uint64(len(f.data))
	}
	if end > math.MaxUint32 {
		return nil, fmt.Errorf("sarc: archive of %d bytes exceeds 32-bit offsets", end)
	}

	buf := binio.NewBuffer(w.options.order, int(end))
	buf.PutBytes(0, []byte(Signature))
	buf.PutU16(4, HeaderBytes)
	buf.PutU16(6, ByteOrderMark)
	buf.PutU32(8, uint32(end))
	buf.PutU32(0xc, uint32(dataOffset))
	buf.PutU16(0x10, w.options.version)
	buf.PutU16(0x12, 0)

	buf.PutBytes(HeaderBytes, []byte(SFATSignature))
	buf.PutU16(HeaderBytes+4, SFATHeaderBytes)
	buf.PutU16(HeaderBytes+6, uint16(n))
	buf.PutU32(HeaderBytes+8, w.options.hashMultiplier)

	buf.PutBytes(sfnt, []byte(SFNTSignature))
	buf.PutU16(sfnt+4, SFNTHeaderBytes)
	buf.PutU16(sfnt+6, 0)

	collisions := make(map[uint32]uint32)
	for i, f := range files {
		collisions[f.hash]++
		if collisions[f.hash] > maxCollisions {
			return nil, fmt.Errorf("%w: more than %d names hash to 0x%08x", ErrTooManyFiles, maxCollisions, f.hash)
		}
		at := entries + uint32(i)*SFATEntryBytes
		buf.PutU32(at, f.hash)
		buf.PutU32(at+4, collisions[f.hash]<<nameFlagShift|(nameOffsets[i]/4)&nameOffsetMask)
		buf.PutU32(at+8, uint32(starts[i]))
		buf.PutU32(at+0xc, uint32(starts[i])+uint32(len(f.data)))
		buf.PutString(names+nameOffsets[i], f.name)
		buf.PutBytes(uint32(dataOffset+starts[i]), f.data)
	}
	buf.Pad(uint32(end))
	return buf.Bytes(), nil
}
