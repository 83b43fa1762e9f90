package byml

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetraxile/afl/binio"
)

func TestStringTableFindIsSortedRank(t *testing.T) {
	st := NewStringTableBuilder()
	in := []string{"zeta", "alpha", "Mario", "", "alpha", "beta", "ß"}
	for _, s := range in {
		st.Add(s)
	}
	want := []string{"", "Mario", "alpha", "beta", "zeta", "ß"}
	require.True(t, sort.StringsAreSorted(want))
	assert.Equal(t, want, st.Strings())
	for rank, s := range want {
		assert.Equal(t, uint32(rank), st.Find(s), s)
	}
}

func TestStringTableDuplicateKeepsRanks(t *testing.T) {
	st := NewStringTableBuilder()
	st.Add("b")
	st.Add("a")
	before := st.Find("b")
	st.Add("a")
	assert.Equal(t, before, st.Find("b"))
	assert.Equal(t, 2, st.Len())
}

func TestStringTableFindUnregisteredPanics(t *testing.T) {
	st := NewStringTableBuilder()
	st.Add("a")
	assert.Panics(t, func() { st.Find("b") })
}

func TestStringTableSize(t *testing.T) {
	st := NewStringTableBuilder()
	assert.Equal(t, uint32(0), st.ByteSize())

	st.Add("hihi")
	// tag+count, two offsets, "hihi\0" padded to 8
	assert.Equal(t, uint32(4+8+8), st.ByteSize())

	st.Add("abc")
	assert.Equal(t, uint32(4+12+12), st.ByteSize())
}

func TestStringTableSerializeAndView(t *testing.T) {
	for _, order := range []binio.ByteOrder{binio.LittleEndian, binio.BigEndian} {
		st := NewStringTableBuilder()
		for _, s := range []string{"pear", "apple", "fig"} {
			st.Add(s)
		}
		buf := binio.NewBuffer(order, 0)
		buf.Pad(8)
		st.Serialize(buf, 8)
		require.Equal(t, 8+st.ByteSize(), buf.Len())

		view, err := openStringTable(buf.Bytes(), order, 8)
		require.NoError(t, err)
		require.Equal(t, uint32(3), view.Len())
		for i, want := range []string{"apple", "fig", "pear"} {
			got, err := view.At(uint32(i))
			require.NoError(t, err)
			assert.Equal(t, want, got)

			idx, ok := view.Index(want)
			require.True(t, ok)
			assert.Equal(t, uint32(i), idx)
		}
		_, ok := view.Index("kiwi")
		assert.False(t, ok)
		_, err = view.At(3)
		require.ErrorIs(t, err, ErrOutOfBounds)
	}
}
