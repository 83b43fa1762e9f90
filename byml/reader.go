package byml

import (
	"fmt"
	"math"
	"sort"

	"github.com/tetraxile/afl/binio"
)

// Document is a decoded header plus the two string tables, over a buffer
// the caller keeps alive and unmodified.
type Document struct {
	data   []byte
	header Header
	keys   stringTable
	values stringTable
}

// Open decodes the header and string tables of data.
func Open(data []byte) (*Document, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	d := &Document{data: data, header: h}
	if d.keys, err = openStringTable(data, h.Order, h.HashKeyTableOffset); err != nil {
		return nil, fmt.Errorf("hash key table: %w", err)
	}
	if d.values, err = openStringTable(data, h.Order, h.StringValueTableOffset); err != nil {
		return nil, fmt.Errorf("value string table: %w", err)
	}
	return d, nil
}

func (d *Document) Header() Header                       { return d.header }
func (d *Document) HashKeyCount() uint32                 { return d.keys.Len() }
func (d *Document) ValueStringCount() uint32             { return d.values.Len() }
func (d *Document) HashKey(i uint32) (string, error)     { return d.keys.At(i) }
func (d *Document) ValueString(i uint32) (string, error) { return d.values.At(i) }

func (d *Document) HasHashKey(s string) bool {
	_, ok := d.keys.Index(s)
	return ok
}

func (d *Document) HasValueString(s string) bool {
	_, ok := d.values.Index(s)
	return ok
}

// Root returns a Reader on the root container.
func (d *Document) Root() (*Reader, error) {
	if d.header.RootOffset == 0 {
		return nil, ErrEmptyDocument
	}
	return d.ReaderAt(d.header.RootOffset)
}

// ReaderAt returns a Reader on the container at an absolute offset.
func (d *Document) ReaderAt(offset uint32) (*Reader, error) {
	if err := binio.Check(d.data, uint64(offset), 4); err != nil {
		return nil, err
	}
	r := &Reader{
		doc:    d,
		offset: offset,
		typ:    NodeType(d.data[offset]),
		size:   binio.U24(d.data, offset+1, d.header.Order),
	}
	if !r.typ.IsContainer() {
		return nil, fmt.Errorf("%w: %s at 0x%x is not a container", ErrWrongNodeType, r.typ, offset)
	}
	if err := binio.Check(d.data, uint64(offset), uint64(ContainerSize(r.typ, r.size))); err != nil {
		return nil, err
	}
	if r.typ == Hash {
		r.initKeyOrder()
	}
	return r, nil
}

// Reader is a view of one Array or Hash. It never writes to the buffer and
// is safe for concurrent use.
type Reader struct {
	doc    *Document
	offset uint32
	typ    NodeType
	size   uint32

	// keyOrder maps a logical Hash index to its on-disk entry. Entries
	// holding containers come first, ordered by container offset; the rest
	// keep their on-disk (key) order.
	keyOrder []uint32
}

func (r *Reader) initKeyOrder() {
	sortKeys := make([]uint32, r.size)
	r.keyOrder = make([]uint32, r.size)
	for i := uint32(0); i < r.size; i++ {
		r.keyOrder[i] = i
		sortKeys[i] = NoContainer
		if NodeType(r.doc.data[r.offset+7+8*i]).IsContainer() {
			sortKeys[i] = r.u32(r.offset + 8 + 8*i)
		}
	}
	sort.SliceStable(r.keyOrder, func(a, b int) bool {
		return sortKeys[r.keyOrder[a]] < sortKeys[r.keyOrder[b]]
	})
}

func (r *Reader) u32(off uint32) uint32 { return binio.U32(r.doc.data, off, r.doc.header.Order) }

func (r *Reader) Document() *Document { return r.doc }
func (r *Reader) Offset() uint32      { return r.offset }
func (r *Reader) Type() NodeType      { return r.typ }
func (r *Reader) Len() uint32         { return r.size }

// slot returns the tag and value addresses of logical child i.
func (r *Reader) slot(i uint32) (tagAt, valueAt uint32, err error) {
	if i >= r.size {
		return 0, 0, fmt.Errorf("%w: child %d of %d", ErrOutOfBounds, i, r.size)
	}
	if r.typ == Array {
		return r.offset + 4 + i, r.offset + binio.RoundUp(4+r.size, 4) + 4*i, nil
	}
	disk := r.keyOrder[i]
	return r.offset + 7 + 8*disk, r.offset + 8 + 8*disk, nil
}

// find returns the tag and value addresses of the entry stored under key.
// Entries are sorted by key index so this is a lower bound search, which
// lands on the same entry as a front to back scan.
func (r *Reader) find(key string) (tagAt, valueAt uint32, err error) {
	if r.typ != Hash {
		return 0, 0, fmt.Errorf("%w: key lookup in %s", ErrWrongNodeType, r.typ)
	}
	keyIdx, ok := r.doc.keys.Index(key)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	order := r.doc.header.Order
	i := uint32(sort.Search(int(r.size), func(i int) bool {
		return binio.U24(r.doc.data, r.offset+4+8*uint32(i), order) >= keyIdx
	}))
	if i >= r.size || binio.U24(r.doc.data, r.offset+4+8*i, order) != keyIdx {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return r.offset + 7 + 8*i, r.offset + 8 + 8*i, nil
}

func (r *Reader) expect(tagAt, valueAt uint32, err error, want NodeType) (uint32, error) {
	if err != nil {
		return 0, err
	}
	if got := NodeType(r.doc.data[tagAt]); got != want {
		return 0, fmt.Errorf("%w: want %s, got %s", ErrWrongNodeType, want, got)
	}
	return valueAt, nil
}

func (r *Reader) at(i uint32, want NodeType) (uint32, error) {
	tagAt, valueAt, err := r.slot(i)
	return r.expect(tagAt, valueAt, err, want)
}

func (r *Reader) byKey(key string, want NodeType) (uint32, error) {
	tagAt, valueAt, err := r.find(key)
	return r.expect(tagAt, valueAt, err, want)
}

// TypeAt returns the type of logical child i.
func (r *Reader) TypeAt(i uint32) (NodeType, error) {
	tagAt, _, err := r.slot(i)
	if err != nil {
		return 0, err
	}
	return NodeType(r.doc.data[tagAt]), nil
}

// KeyIndexAt returns the hash key table index of logical child i.
func (r *Reader) KeyIndexAt(i uint32) (uint32, error) {
	if r.typ != Hash {
		return 0, fmt.Errorf("%w: keys of %s", ErrWrongNodeType, r.typ)
	}
	if i >= r.size {
		return 0, fmt.Errorf("%w: child %d of %d", ErrOutOfBounds, i, r.size)
	}
	return binio.U24(r.doc.data, r.offset+4+8*r.keyOrder[i], r.doc.header.Order), nil
}

// KeyAt returns the key of logical child i.
func (r *Reader) KeyAt(i uint32) (string, error) {
	k, err := r.KeyIndexAt(i)
	if err != nil {
		return "", err
	}
	return r.doc.keys.At(k)
}

func (r *Reader) TypeByKey(key string) (NodeType, error) {
	tagAt, _, err := r.find(key)
	if err != nil {
		return 0, err
	}
	return NodeType(r.doc.data[tagAt]), nil
}

// HasKey is false for Arrays.
func (r *Reader) HasKey(key string) bool {
	_, _, err := r.find(key)
	return err == nil
}

func (r *Reader) child(tagAt, valueAt uint32, err error) (*Reader, error) {
	if err != nil {
		return nil, err
	}
	if t := NodeType(r.doc.data[tagAt]); !t.IsContainer() {
		return nil, fmt.Errorf("%w: %s is not a container", ErrWrongNodeType, t)
	}
	return r.doc.ReaderAt(r.u32(valueAt))
}

func (r *Reader) Child(i uint32) (*Reader, error)        { return r.child(r.slot(i)) }
func (r *Reader) ChildByKey(key string) (*Reader, error) { return r.child(r.find(key)) }

func (r *Reader) str(valueAt uint32, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return r.doc.values.At(r.u32(valueAt))
}

func (r *Reader) boolean(valueAt uint32, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	// Any nonzero value is true.
	return r.u32(valueAt) != 0, nil
}

func (r *Reader) scalar(valueAt uint32, err error) (uint32, error) {
	if err != nil {
		return 0, err
	}
	return r.u32(valueAt), nil
}

func (r *Reader) pooled(valueAt uint32, err error) (uint64, error) {
	if err != nil {
		return 0, err
	}
	off := r.u32(valueAt)
	if err := binio.Check(r.doc.data, uint64(off), 8); err != nil {
		return 0, err
	}
	return binio.U64(r.doc.data, off, r.doc.header.Order), nil
}

func (r *Reader) checkVersion() error {
	if r.doc.header.Version < 3 {
		return fmt.Errorf("%w: document is version %d", ErrInvalidVersion, r.doc.header.Version)
	}
	return nil
}

func (r *Reader) StringAt(i uint32) (string, error) { return r.str(r.at(i, String)) }
func (r *Reader) BoolAt(i uint32) (bool, error)     { return r.boolean(r.at(i, Bool)) }

func (r *Reader) Int32At(i uint32) (int32, error) {
	v, err := r.scalar(r.at(i, Int32))
	return int32(v), err
}

func (r *Reader) Float32At(i uint32) (float32, error) {
	v, err := r.scalar(r.at(i, Float32))
	return math.Float32frombits(v), err
}

func (r *Reader) Uint32At(i uint32) (uint32, error) { return r.scalar(r.at(i, Uint32)) }

func (r *Reader) Int64At(i uint32) (int64, error) {
	if err := r.checkVersion(); err != nil {
		return 0, err
	}
	v, err := r.pooled(r.at(i, Int64))
	return int64(v), err
}

func (r *Reader) Uint64At(i uint32) (uint64, error) {
	if err := r.checkVersion(); err != nil {
		return 0, err
	}
	return r.pooled(r.at(i, Uint64))
}

func (r *Reader) Float64At(i uint32) (float64, error) {
	if err := r.checkVersion(); err != nil {
		return 0, err
	}
	v, err := r.pooled(r.at(i, Float64))
	return math.Float64frombits(v), err
}

func (r *Reader) StringByKey(key string) (string, error) { return r.str(r.byKey(key, String)) }
func (r *Reader) BoolByKey(key string) (bool, error)     { return r.boolean(r.byKey(key, Bool)) }

func (r *Reader) Int32ByKey(key string) (int32, error) {
	v, err := r.scalar(r.byKey(key, Int32))
	return int32(v), err
}

func (r *Reader) Float32ByKey(key string) (float32, error) {
	v, err := r.scalar(r.byKey(key, Float32))
	return math.Float32frombits(v), err
}

func (r *Reader) Uint32ByKey(key string) (uint32, error) { return r.scalar(r.byKey(key, Uint32)) }

func (r *Reader) Int64ByKey(key string) (int64, error) {
	if err := r.checkVersion(); err != nil {
		return 0, err
	}
	v, err := r.pooled(r.byKey(key, Int64))
	return int64(v), err
}

func (r *Reader) Uint64ByKey(key string) (uint64, error) {
	if err := r.checkVersion(); err != nil {
		return 0, err
	}
	return r.pooled(r.byKey(key, Uint64))
}

func (r *Reader) Float64ByKey(key string) (float64, error) {
	if err := r.checkVersion(); err != nil {
		return 0, err
	}
	v, err := r.pooled(r.byKey(key, Float64))
	return math.Float64frombits(v), err
}
