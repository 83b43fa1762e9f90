package byml

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Node is a fully materialised document node. Value holds the Go value of
// a leaf: string, bool, int32, float32, uint32, int64, uint64, float64, or
// nil for Null. Children of a Hash carry their Key.
type Node struct {
	Type     NodeType
	Key      string
	Value    any
	Children []*Node
}

func NewString(v string) *Node   { return &Node{Type: String, Value: v} }
func NewBool(v bool) *Node       { return &Node{Type: Bool, Value: v} }
func NewInt32(v int32) *Node     { return &Node{Type: Int32, Value: v} }
func NewFloat32(v float32) *Node { return &Node{Type: Float32, Value: v} }
func NewUint32(v uint32) *Node   { return &Node{Type: Uint32, Value: v} }
func NewInt64(v int64) *Node     { return &Node{Type: Int64, Value: v} }
func NewUint64(v uint64) *Node   { return &Node{Type: Uint64, Value: v} }
func NewFloat64(v float64) *Node { return &Node{Type: Float64, Value: v} }
func NewNull() *Node             { return &Node{Type: Null} }

func NewArray(children ...*Node) *Node {
	return &Node{Type: Array, Children: children}
}

// NewHash builds a Hash; each child must already carry its Key.
func NewHash(children ...*Node) *Node {
	return &Node{Type: Hash, Children: children}
}

// Keyed sets n's key and returns n.
func Keyed(key string, n *Node) *Node {
	n.Key = key
	return n
}

// Get returns the child of a Hash stored under key, or nil.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Type != Hash {
		return nil
	}
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// Decode materialises the whole document. An empty document decodes to nil.
func Decode(data []byte) (*Node, error) {
	doc, err := Open(data)
	if err != nil {
		return nil, err
	}
	root, err := doc.Root()
	if errors.Is(err, ErrEmptyDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeReader(root)
}

// DecodeReader materialises the container r is positioned on. Children
// appear in logical order. A container reached through more than one
// offset fails with ErrSharedContainer.
func DecodeReader(r *Reader) (*Node, error) {
	d := decoder{seen: map[uint32]struct{}{}}
	return d.decode(r, 1)
}

type decoder struct {
	seen map[uint32]struct{}
}

func (d *decoder) decode(r *Reader, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d at 0x%x", ErrOutOfBounds, MaxDepth, r.offset)
	}
	if _, ok := d.seen[r.offset]; ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrSharedContainer, r.offset)
	}
	d.seen[r.offset] = struct{}{}

	n := &Node{Type: r.Type()}
	for i := uint32(0); i < r.Len(); i++ {
		c, err := d.decodeChild(r, i, depth)
		if err != nil {
			return nil, err
		}
		if r.Type() == Hash {
			if c.Key, err = r.KeyAt(i); err != nil {
				return nil, err
			}
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func (d *decoder) decodeChild(r *Reader, i uint32, depth int) (*Node, error) {
	t, err := r.TypeAt(i)
	if err != nil {
		return nil, err
	}
	n := &Node{Type: t}
	switch t {
	case Array, Hash:
		child, err := r.Child(i)
		if err != nil {
			return nil, err
		}
		return d.decode(child, depth+1)
	case String:
		n.Value, err = r.StringAt(i)
	case Bool:
		n.Value, err = r.BoolAt(i)
	case Int32:
		n.Value, err = r.Int32At(i)
	case Float32:
		n.Value, err = r.Float32At(i)
	case Uint32:
		n.Value, err = r.Uint32At(i)
	case Int64:
		n.Value, err = r.Int64At(i)
	case Uint64:
		n.Value, err = r.Uint64At(i)
	case Float64:
		n.Value, err = r.Float64At(i)
	case Null:
	default:
		return nil, fmt.Errorf("%w: child %d has tag %s", ErrWrongNodeType, i, t)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Encode writes root, which must be an Array or a Hash, as a document. A nil
// root produces an empty document.
func Encode(root *Node, version uint16, opts ...WriterOption) ([]byte, error) {
	w, err := NewWriter(version, opts...)
	if err != nil {
		return nil, err
	}
	if root != nil {
		if !root.Type.IsContainer() {
			return nil, fmt.Errorf("%w: root is %s", ErrWrongNodeType, root.Type)
		}
		if err := w.WriteNode(root); err != nil {
			return nil, err
		}
	}
	return w.Save()
}

// WriteNode adds n, and everything below it, to the open container; as the
// root when nothing is open. Inside a Hash, n.Key is used.
func (w *Writer) WriteNode(n *Node) error {
	keyed := len(w.stack) > 0 && w.top().typ == Hash
	if n.Type.IsContainer() {
		var err error
		switch {
		case keyed && n.Type == Array:
			err = w.PushArrayKey(n.Key)
		case keyed:
			err = w.PushHashKey(n.Key)
		case n.Type == Array:
			err = w.PushArray()
		default:
			err = w.PushHash()
		}
		if err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := w.WriteNode(c); err != nil {
				return err
			}
		}
		return w.Pop()
	}

	e, pooled, err := leafEntry(n)
	if err != nil {
		return err
	}
	if keyed {
		return w.put(n.Key, e, pooled)
	}
	return w.add(e, pooled)
}

func leafEntry(n *Node) (entry, uint64, error) {
	e := entry{typ: n.Type}
	var ok bool
	switch n.Type {
	case String:
		e.str, ok = n.Value.(string)
		return e, 0, typed(n, ok)
	case Bool:
		var v bool
		v, ok = n.Value.(bool)
		e.bits = boolBits(v)
	case Int32:
		var v int32
		v, ok = n.Value.(int32)
		e.bits = uint32(v)
	case Float32:
		var v float32
		v, ok = n.Value.(float32)
		e.bits = math.Float32bits(v)
	case Uint32:
		e.bits, ok = n.Value.(uint32)
	case Int64:
		v, ok := n.Value.(int64)
		return e, uint64(v), typed(n, ok)
	case Uint64:
		v, ok := n.Value.(uint64)
		return e, v, typed(n, ok)
	case Float64:
		v, ok := n.Value.(float64)
		return e, math.Float64bits(v), typed(n, ok)
	case Null:
		ok = n.Value == nil
	default:
		return e, 0, fmt.Errorf("%w: cannot encode %s", ErrWrongNodeType, n.Type)
	}
	return e, 0, typed(n, ok)
}

func typed(n *Node, ok bool) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s node holds %T", ErrWrongNodeType, n.Type, n.Value)
}

// Normalize puts every Hash's children into the order a decoder presents
// them: containers first, in their existing order, then leaves sorted by
// key.
func Normalize(n *Node) {
	if n == nil {
		return
	}
	if n.Type == Hash {
		sort.SliceStable(n.Children, func(a, b int) bool {
			ca, cb := n.Children[a], n.Children[b]
			if ca.Type.IsContainer() != cb.Type.IsContainer() {
				return ca.Type.IsContainer()
			}
			if ca.Type.IsContainer() {
				return false
			}
			return ca.Key < cb.Key
		})
	}
	for _, c := range n.Children {
		Normalize(c)
	}
}

// Equal compares kinds and values. Floats compare by bit pattern and Hash
// children compare as sets keyed by Key.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || len(a.Children) != len(b.Children) {
		return false
	}
	switch a.Type {
	case Array:
		for i := range a.Children {
			if !Equal(a.Children[i], b.Children[i]) {
				return false
			}
		}
		return true
	case Hash:
		byKey := make(map[string]*Node, len(b.Children))
		for _, c := range b.Children {
			byKey[c.Key] = c
		}
		for _, c := range a.Children {
			if !Equal(c, byKey[c.Key]) {
				return false
			}
		}
		return true
	case Float32:
		x, _ := a.Value.(float32)
		y, _ := b.Value.(float32)
		return math.Float32bits(x) == math.Float32bits(y)
	case Float64:
		x, _ := a.Value.(float64)
		y, _ := b.Value.(float64)
		return math.Float64bits(x) == math.Float64bits(y)
	}
	return a.Value == b.Value
}
