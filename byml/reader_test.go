package byml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetraxile/afl/binio"
)

func openRoot(t *testing.T, data []byte) *Reader {
	t.Helper()
	doc, err := Open(data)
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)
	return root
}

func mixedArray(t *testing.T, opts ...WriterOption) []byte {
	t.Helper()
	w, err := NewWriter(3, opts...)
	require.NoError(t, err)
	require.NoError(t, w.PushArray())
	require.NoError(t, w.AddUint32(123))
	require.NoError(t, w.AddFloat32(1.0))
	require.NoError(t, w.AddInt64(-1))
	require.NoError(t, w.AddString("hihi"))
	require.NoError(t, w.Pop())
	data, err := w.Save()
	require.NoError(t, err)
	return data
}

func TestReaderMixedArray(t *testing.T) {
	root := openRoot(t, mixedArray(t))
	assert.Equal(t, Array, root.Type())
	require.Equal(t, uint32(4), root.Len())

	u, err := root.Uint32At(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(123), u)

	f, err := root.Float32At(1)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f)

	s64, err := root.Int64At(2)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), s64)

	s, err := root.StringAt(3)
	require.NoError(t, err)
	assert.Equal(t, "hihi", s)

	_, err = root.Int32At(0)
	require.ErrorIs(t, err, ErrWrongNodeType)
	_, err = root.StringAt(4)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = root.TypeByKey("a")
	require.ErrorIs(t, err, ErrWrongNodeType)
	_, err = root.KeyAt(0)
	require.ErrorIs(t, err, ErrWrongNodeType)
	assert.False(t, root.HasKey("a"))
}

func TestReaderHashScenario(t *testing.T) {
	w, err := NewWriter(3)
	require.NoError(t, err)
	require.NoError(t, w.PushHash())
	require.NoError(t, w.PutUint32("a", 100))
	require.NoError(t, w.PutUint32("b", 200))
	require.NoError(t, w.PushArrayKey("xyz"))
	require.NoError(t, w.AddUint32(123))
	data, err := w.Save()
	require.NoError(t, err)

	root := openRoot(t, data)
	assert.True(t, root.HasKey("xyz"))
	assert.False(t, root.HasKey("nope"))

	xyz, err := root.ChildByKey("xyz")
	require.NoError(t, err)
	v, err := xyz.Uint32At(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(123), v)

	typ, err := root.TypeByKey("a")
	require.NoError(t, err)
	assert.Equal(t, Uint32, typ)

	b, err := root.Uint32ByKey("b")
	require.NoError(t, err)
	assert.Equal(t, uint32(200), b)

	_, err = root.Uint32ByKey("nope")
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = root.StringByKey("a")
	require.ErrorIs(t, err, ErrWrongNodeType)
	_, err = root.ChildByKey("a")
	require.ErrorIs(t, err, ErrWrongNodeType)

	// "xyz" is the only container so it is first in logical order.
	k, err := root.KeyAt(0)
	require.NoError(t, err)
	assert.Equal(t, "xyz", k)
	k, err = root.KeyAt(1)
	require.NoError(t, err)
	assert.Equal(t, "a", k)
}

func TestReaderLogicalOrderFollowsContainerCreation(t *testing.T) {
	w, err := NewWriter(3)
	require.NoError(t, err)
	require.NoError(t, w.PushHash())
	require.NoError(t, w.PutInt32("scalar", 1))
	for _, k := range []string{"zz", "mm", "aa"} {
		require.NoError(t, w.PushHashKey(k))
		require.NoError(t, w.PutString("name", k))
		require.NoError(t, w.Pop())
	}
	data, err := w.Save()
	require.NoError(t, err)

	root := openRoot(t, data)
	var keys []string
	for i := uint32(0); i < root.Len(); i++ {
		k, err := root.KeyAt(i)
		require.NoError(t, err)
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"zz", "mm", "aa", "scalar"}, keys)

	for i, want := range []string{"zz", "mm", "aa"} {
		c, err := root.Child(uint32(i))
		require.NoError(t, err)
		name, err := c.StringByKey("name")
		require.NoError(t, err)
		assert.Equal(t, want, name)
	}
}

func TestReaderVersionGating(t *testing.T) {
	data := mixedArray(t)
	root := openRoot(t, data)
	_, err := root.Int64At(2)
	require.NoError(t, err)

	// the same bytes claiming version 2
	data[2] = 2
	root = openRoot(t, data)
	_, err = root.Int64At(2)
	require.ErrorIs(t, err, ErrInvalidVersion)
	_, err = root.Uint64At(2)
	require.ErrorIs(t, err, ErrInvalidVersion)
	_, err = root.Float64At(2)
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestReader64BitBitExact(t *testing.T) {
	nan := math.Float64frombits(0x7ff8_dead_beef_0001)
	w, err := NewWriter(3)
	require.NoError(t, err)
	require.NoError(t, w.PushHash())
	require.NoError(t, w.PutInt64("min", math.MinInt64))
	require.NoError(t, w.PutUint64("max", math.MaxUint64))
	require.NoError(t, w.PutFloat64("nan", nan))
	require.NoError(t, w.PutFloat64("inf", math.Inf(-1)))
	data, err := w.Save()
	require.NoError(t, err)

	root := openRoot(t, data)
	i, err := root.Int64ByKey("min")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), i)
	u, err := root.Uint64ByKey("max")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), u)
	f, err := root.Float64ByKey("nan")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7ff8_dead_beef_0001), math.Float64bits(f))
	f, err = root.Float64ByKey("inf")
	require.NoError(t, err)
	assert.True(t, math.IsInf(f, -1))
}

func TestReaderBoolNonzeroIsTrue(t *testing.T) {
	w, err := NewWriter(3)
	require.NoError(t, err)
	require.NoError(t, w.PushArray())
	require.NoError(t, w.AddBool(false))
	data, err := w.Save()
	require.NoError(t, err)

	root := openRoot(t, data)
	b, err := root.BoolAt(0)
	require.NoError(t, err)
	assert.False(t, b)

	// value slot of a one element array: base + 4 + 4
	data[root.Offset()+8] = 7
	root = openRoot(t, data)
	b, err = root.BoolAt(0)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestReaderByteOrders(t *testing.T) {
	le := mixedArray(t)
	be := mixedArray(t, WithByteOrder(binio.BigEndian))
	assert.NotEqual(t, le, be)
	assert.Equal(t, []byte("BY"), be[:2])
	assert.Equal(t, []byte("YB"), le[:2])

	for _, data := range [][]byte{le, be} {
		root := openRoot(t, data)
		u, err := root.Uint32At(0)
		require.NoError(t, err)
		assert.Equal(t, uint32(123), u)
		s, err := root.StringAt(3)
		require.NoError(t, err)
		assert.Equal(t, "hihi", s)
		i, err := root.Int64At(2)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), i)
	}
}

func TestReaderMalformed(t *testing.T) {
	_, err := Open([]byte("BY\x00"))
	require.ErrorIs(t, err, binio.ErrTruncated)

	_, err = Open([]byte("XX\x00\x03\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	require.ErrorIs(t, err, binio.ErrBadByteOrder)

	_, err = Open([]byte("BY\x00\x07\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	// root offset past the end
	data := mixedArray(t)
	data[12] = 0xf0
	doc, err := Open(data)
	require.NoError(t, err)
	_, err = doc.Root()
	require.ErrorIs(t, err, binio.ErrTruncated)

	// truncated container body
	data = mixedArray(t)
	_, err = Open(data[:len(data)-4])
	require.NoError(t, err)
	doc, _ = Open(data[:len(data)-4])
	_, err = doc.Root()
	require.ErrorIs(t, err, binio.ErrTruncated)
}

func TestDecodeRejectsSharedContainer(t *testing.T) {
	w, err := NewWriter(3)
	require.NoError(t, err)
	require.NoError(t, w.PushArray())
	require.NoError(t, w.PushArray())
	require.NoError(t, w.AddInt32(1))
	require.NoError(t, w.Pop())
	require.NoError(t, w.PushArray())
	require.NoError(t, w.AddInt32(2))
	require.NoError(t, w.Pop())
	require.NoError(t, w.Pop())
	data, err := w.Save()
	require.NoError(t, err)

	_, err = Decode(data)
	require.NoError(t, err)

	// point the second slot at the first child
	root := openRoot(t, data).Offset()
	copy(data[root+12:root+16], data[root+8:root+12])

	r := openRoot(t, data)
	a, err := r.Child(0)
	require.NoError(t, err)
	b, err := r.Child(1)
	require.NoError(t, err)
	assert.Equal(t, a.Offset(), b.Offset())

	_, err = Decode(data)
	require.ErrorIs(t, err, ErrSharedContainer)
}

func TestDecodeRejectsCycle(t *testing.T) {
	w, err := NewWriter(3)
	require.NoError(t, err)
	require.NoError(t, w.PushArray())
	require.NoError(t, w.PushArray())
	require.NoError(t, w.Pop())
	require.NoError(t, w.Pop())
	data, err := w.Save()
	require.NoError(t, err)

	// the only child points back at the root
	root := openRoot(t, data).Offset()
	binio.LittleEndian.Binary().PutUint32(data[root+8:], root)

	_, err = Decode(data)
	require.ErrorIs(t, err, ErrSharedContainer)
}

func TestHeaderEncodeOrderMismatch(t *testing.T) {
	h := Header{Order: binio.BigEndian, Version: 3}
	err := h.Encode(binio.NewBuffer(binio.LittleEndian, HeaderBytes))
	require.ErrorIs(t, err, binio.ErrBadByteOrder)

	buf := binio.NewBuffer(binio.BigEndian, HeaderBytes)
	require.NoError(t, h.Encode(buf))
	got, err := DecodeHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDocumentStringTables(t *testing.T) {
	w, err := NewWriter(3)
	require.NoError(t, err)
	require.NoError(t, w.PushHash())
	require.NoError(t, w.PutString("b", "two"))
	require.NoError(t, w.PutString("a", "one"))
	data, err := w.Save()
	require.NoError(t, err)

	doc, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), doc.HashKeyCount())
	assert.Equal(t, uint32(2), doc.ValueStringCount())
	k, err := doc.HashKey(0)
	require.NoError(t, err)
	assert.Equal(t, "a", k)
	v, err := doc.ValueString(1)
	require.NoError(t, err)
	assert.Equal(t, "two", v)
	assert.True(t, doc.HasHashKey("b"))
	assert.False(t, doc.HasHashKey("two"))
	assert.True(t, doc.HasValueString("one"))
	_, err = doc.ValueString(2)
	require.ErrorIs(t, err, ErrOutOfBounds)
}
