package byml

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tetraxile/afl/binio"
)

// entry is one child of a container. Scalars keep their 32-bit encoding in
// bits; Strings keep the string until Save ranks it; Arrays and Hashes
// reference the Writer's container arena and 64-bit kinds its value pool.
type entry struct {
	key  string
	typ  NodeType
	bits uint32
	str  string
	ref  int
}

type container struct {
	typ     NodeType
	entries []entry
	keys    map[string]struct{}
}

// Writer builds a document through a stack of open containers. It is not
// safe for concurrent use.
type Writer struct {
	options    WriterOptions
	version    uint16
	containers []container
	stack      []int
	keys       *StringTableBuilder
	values     *StringTableBuilder
	pool       []uint64
}

// NewWriter returns a Writer for the given format version (2 or 3).
func NewWriter(version uint16, opts ...WriterOption) (*Writer, error) {
	if !supportedVersion(version) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	w := &Writer{
		options: NewWriterOptions(opts...),
		version: version,
		stack:   make([]int, 0, MaxDepth),
		keys:    NewStringTableBuilder(),
		values:  NewStringTableBuilder(),
	}
	return w, nil
}

// Version is the format version the Writer was created for.
func (w *Writer) Version() uint16 { return w.version }

// Depth is the number of open containers.
func (w *Writer) Depth() int { return len(w.stack) }

func (w *Writer) top() *container {
	return &w.containers[w.stack[len(w.stack)-1]]
}

func checkString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidString, s)
	}
	return nil
}

// arrayTop returns the open Array that an unkeyed child is appended to.
func (w *Writer) arrayTop() (*container, error) {
	if len(w.stack) == 0 {
		return nil, ErrEmptyStack
	}
	top := w.top()
	if top.typ != Array {
		return nil, fmt.Errorf("%w: unkeyed child added to %s", ErrWrongNodeType, top.typ)
	}
	if len(top.entries) >= MaxCount {
		return nil, fmt.Errorf("%w: array is full", ErrOutOfBounds)
	}
	return top, nil
}

// hashTop returns the open Hash that a keyed child is added to.
func (w *Writer) hashTop(key string) (*container, error) {
	if len(w.stack) == 0 {
		return nil, ErrEmptyStack
	}
	if err := checkString(key); err != nil {
		return nil, err
	}
	top := w.top()
	if top.typ != Hash {
		return nil, fmt.Errorf("%w: keyed child added to %s", ErrWrongNodeType, top.typ)
	}
	if _, ok := top.keys[key]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	if len(top.entries) >= MaxCount {
		return nil, fmt.Errorf("%w: hash is full", ErrOutOfBounds)
	}
	return top, nil
}

func (w *Writer) newContainer(t NodeType) int {
	c := container{typ: t}
	if t == Hash {
		c.keys = make(map[string]struct{})
	}
	w.containers = append(w.containers, c)
	return len(w.containers) - 1
}

func (w *Writer) push(t NodeType) error {
	if len(w.stack) == MaxDepth {
		return ErrFullStack
	}
	if len(w.stack) == 0 {
		if len(w.containers) != 0 {
			return fmt.Errorf("%w: document already has a root", ErrWrongNodeType)
		}
		w.stack = append(w.stack, w.newContainer(t))
		return nil
	}
	if _, err := w.arrayTop(); err != nil {
		return err
	}
	idx := w.newContainer(t)
	// newContainer may have moved the arena, so look the parent up again.
	p := w.top()
	p.entries = append(p.entries, entry{typ: t, ref: idx})
	w.stack = append(w.stack, idx)
	return nil
}

func (w *Writer) pushKey(key string, t NodeType) error {
	if len(w.stack) == MaxDepth {
		return ErrFullStack
	}
	if _, err := w.hashTop(key); err != nil {
		return err
	}
	idx := w.newContainer(t)
	p := w.top()
	p.entries = append(p.entries, entry{key: key, typ: t, ref: idx})
	p.keys[key] = struct{}{}
	w.keys.Add(key)
	w.stack = append(w.stack, idx)
	return nil
}

// PushArray opens an Array, either as the root or appended to the open Array.
func (w *Writer) PushArray() error { return w.push(Array) }

// PushHash opens a Hash, either as the root or appended to the open Array.
func (w *Writer) PushHash() error { return w.push(Hash) }

// PushArrayKey opens an Array stored under key in the open Hash.
func (w *Writer) PushArrayKey(key string) error { return w.pushKey(key, Array) }

// PushHashKey opens a Hash stored under key in the open Hash.
func (w *Writer) PushHashKey(key string) error { return w.pushKey(key, Hash) }

// Pop closes the innermost open container.
func (w *Writer) Pop() error {
	if len(w.stack) == 0 {
		return ErrEmptyStack
	}
	w.stack = w.stack[:len(w.stack)-1]
	return nil
}

func (w *Writer) leaf(e entry) (entry, error) {
	switch {
	case e.typ.Is64():
		if w.version < 3 {
			return e, fmt.Errorf("%w: %s in version %d", ErrInvalidVersion, e.typ, w.version)
		}
	case e.typ == String:
		if err := checkString(e.str); err != nil {
			return e, err
		}
	}
	return e, nil
}

func (w *Writer) commit(e entry, pooled uint64) {
	if e.typ.Is64() {
		e.ref = len(w.pool)
		w.pool = append(w.pool, pooled)
	}
	if e.typ == String {
		w.values.Add(e.str)
	}
	top := w.top()
	top.entries = append(top.entries, e)
	if top.typ == Hash {
		top.keys[e.key] = struct{}{}
		w.keys.Add(e.key)
	}
}

func (w *Writer) add(e entry, pooled uint64) error {
	if _, err := w.arrayTop(); err != nil {
		return err
	}
	e, err := w.leaf(e)
	if err != nil {
		return err
	}
	w.commit(e, pooled)
	return nil
}

func (w *Writer) put(key string, e entry, pooled uint64) error {
	if _, err := w.hashTop(key); err != nil {
		return err
	}
	e, err := w.leaf(e)
	if err != nil {
		return err
	}
	e.key = key
	w.commit(e, pooled)
	return nil
}

func boolBits(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// AddString appends a string to the open Array.
func (w *Writer) AddString(v string) error { return w.add(entry{typ: String, str: v}, 0) }

// AddBool appends a bool to the open Array.
func (w *Writer) AddBool(v bool) error { return w.add(entry{typ: Bool, bits: boolBits(v)}, 0) }

// AddInt32 appends a signed 32-bit integer to the open Array.
func (w *Writer) AddInt32(v int32) error { return w.add(entry{typ: Int32, bits: uint32(v)}, 0) }

// AddUint32 appends an unsigned 32-bit integer to the open Array.
func (w *Writer) AddUint32(v uint32) error { return w.add(entry{typ: Uint32, bits: v}, 0) }

// AddInt64 appends a signed 64-bit integer to the open Array. Version 3 only.
func (w *Writer) AddInt64(v int64) error { return w.add(entry{typ: Int64}, uint64(v)) }

// AddUint64 appends an unsigned 64-bit integer to the open Array. Version 3 only.
func (w *Writer) AddUint64(v uint64) error { return w.add(entry{typ: Uint64}, v) }

// AddNull appends a null to the open Array.
func (w *Writer) AddNull() error { return w.add(entry{typ: Null}, 0) }

// AddFloat32 appends a single precision float to the open Array.
func (w *Writer) AddFloat32(v float32) error {
	return w.add(entry{typ: Float32, bits: math.Float32bits(v)}, 0)
}

// AddFloat64 appends a double precision float to the open Array. Version 3 only.
func (w *Writer) AddFloat64(v float64) error {
	return w.add(entry{typ: Float64}, math.Float64bits(v))
}

// PutString adds key with a string value to the open Hash.
func (w *Writer) PutString(key, v string) error {
	return w.put(key, entry{typ: String, str: v}, 0)
}

// PutBool adds key with a bool value to the open Hash.
func (w *Writer) PutBool(key string, v bool) error {
	return w.put(key, entry{typ: Bool, bits: boolBits(v)}, 0)
}

// PutInt32 adds key with a signed 32-bit value to the open Hash.
func (w *Writer) PutInt32(key string, v int32) error {
	return w.put(key, entry{typ: Int32, bits: uint32(v)}, 0)
}

// PutFloat32 adds key with a single precision value to the open Hash.
func (w *Writer) PutFloat32(key string, v float32) error {
	return w.put(key, entry{typ: Float32, bits: math.Float32bits(v)}, 0)
}

// PutUint32 adds key with an unsigned 32-bit value to the open Hash.
func (w *Writer) PutUint32(key string, v uint32) error {
	return w.put(key, entry{typ: Uint32, bits: v}, 0)
}

// PutInt64 adds key with a signed 64-bit value to the open Hash. Version 3 only.
func (w *Writer) PutInt64(key string, v int64) error {
	return w.put(key, entry{typ: Int64}, uint64(v))
}

// PutUint64 adds key with an unsigned 64-bit value to the open Hash. Version 3 only.
func (w *Writer) PutUint64(key string, v uint64) error {
	return w.put(key, entry{typ: Uint64}, v)
}

// PutFloat64 adds key with a double precision value to the open Hash. Version 3 only.
func (w *Writer) PutFloat64(key string, v float64) error {
	return w.put(key, entry{typ: Float64}, math.Float64bits(v))
}

// PutNull adds key with a null value to the open Hash.
func (w *Writer) PutNull(key string) error { return w.put(key, entry{typ: Null}, 0) }

// Save lays the document out and returns the encoded bytes. The Writer
// remains usable; further additions are reflected in later saves.
func (w *Writer) Save() ([]byte, error) {
	if w.keys.Len() > MaxCount || w.values.Len() > MaxCount {
		return nil, fmt.Errorf("%w: string table exceeds %d entries", ErrTooLarge, MaxCount)
	}

	keysOff := uint64(HeaderBytes)
	valuesOff := keysOff + uint64(w.keys.ByteSize())
	poolOff := (valuesOff + uint64(w.values.ByteSize()) + 7) &^ 7
	rootOff := poolOff + 8*uint64(len(w.pool))

	offsets := make([]uint32, len(w.containers))
	end := rootOff
	for i := range w.containers {
		if end > math.MaxUint32 {
			return nil, ErrTooLarge
		}
		offsets[i] = uint32(end)
		c := &w.containers[i]
		end += uint64(ContainerSize(c.typ, uint32(len(c.entries))))
	}
	if end > math.MaxUint32 {
		return nil, ErrTooLarge
	}

	h := Header{Order: w.options.order, Version: w.version}
	if !w.keys.IsEmpty() {
		h.HashKeyTableOffset = uint32(keysOff)
	}
	if !w.values.IsEmpty() {
		h.StringValueTableOffset = uint32(valuesOff)
	}
	if len(w.containers) != 0 {
		h.RootOffset = uint32(rootOff)
	}

	buf := binio.NewBuffer(w.options.order, int(end))
	if err := h.Encode(buf); err != nil {
		return nil, err
	}
	w.keys.Serialize(buf, uint32(keysOff))
	w.values.Serialize(buf, uint32(valuesOff))
	buf.Pad(uint32(poolOff))
	for i, v := range w.pool {
		buf.PutU64(uint32(poolOff)+8*uint32(i), v)
	}

	value := func(e entry) uint32 {
		switch {
		case e.typ.IsContainer():
			return offsets[e.ref]
		case e.typ.Is64():
			return uint32(poolOff) + 8*uint32(e.ref)
		case e.typ == String:
			return w.values.Find(e.str)
		}
		return e.bits
	}

	for i := range w.containers {
		c := &w.containers[i]
		base := offsets[i]
		n := uint32(len(c.entries))
		buf.PutU8(base, uint8(c.typ))
		buf.PutU24(base+1, n)

		if c.typ == Array {
			for j, e := range c.entries {
				buf.PutU8(base+4+uint32(j), uint8(e.typ))
			}
			values := base + 4 + binio.RoundUp(n, 4)
			for j, e := range c.entries {
				buf.PutU32(values+4*uint32(j), value(e))
			}
			continue
		}

		sorted := make([]entry, len(c.entries))
		copy(sorted, c.entries)
		sort.SliceStable(sorted, func(a, b int) bool {
			return w.keys.Find(sorted[a].key) < w.keys.Find(sorted[b].key)
		})
		for j, e := range sorted {
			at := base + 4 + 8*uint32(j)
			buf.PutU24(at, w.keys.Find(e.key))
			buf.PutU8(at+3, uint8(e.typ))
			buf.PutU32(at+4, value(e))
		}
	}
	buf.Pad(uint32(end))
	return buf.Bytes(), nil
}
