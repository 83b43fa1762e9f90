package byml_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetraxile/afl/assettesting"
	"github.com/tetraxile/afl/binio"
	"github.com/tetraxile/afl/byml"
)

func TestRoundTripRandomTrees(t *testing.T) {
	for _, version := range []uint16{2, 3} {
		for _, order := range []binio.ByteOrder{binio.LittleEndian, binio.BigEndian} {
			g := assettesting.NewTreeGenerator(int64(version)*100+int64(order), assettesting.TreeConfig{
				Version:     version,
				MaxChildren: 6,
			})
			for i := 0; i < 40; i++ {
				want := g.Tree()
				data, err := byml.Encode(want, version, byml.WithByteOrder(order))
				require.NoError(t, err)

				got, err := byml.Decode(data)
				require.NoError(t, err)

				byml.Normalize(want)
				require.True(t, byml.Equal(want, got), "version %d %s tree %d", version, order, i)
				// Normalized trees also agree in order.
				if diff := cmp.Diff(want, got); diff != "" {
					t.Fatalf("tree %d mismatch (-want +got):\n%s", i, diff)
				}
			}
		}
	}
}

func TestRoundTripDeepestNesting(t *testing.T) {
	root := byml.NewArray()
	n := root
	for i := 1; i < byml.MaxDepth; i++ {
		child := byml.NewArray()
		n.Children = append(n.Children, child)
		n = child
	}
	n.Children = append(n.Children, byml.NewString("bottom"))

	data, err := byml.Encode(root, 3)
	require.NoError(t, err)
	got, err := byml.Decode(data)
	require.NoError(t, err)
	assert.True(t, byml.Equal(root, got))

	// one more level no longer fits the writer's stack
	deeper := byml.NewArray(root)
	_, err = byml.Encode(deeper, 3)
	require.ErrorIs(t, err, byml.ErrFullStack)
}

func TestEncodeRejectsMistypedValues(t *testing.T) {
	root := byml.NewArray(&byml.Node{Type: byml.Int32, Value: "seven"})
	_, err := byml.Encode(root, 3)
	require.ErrorIs(t, err, byml.ErrWrongNodeType)

	_, err = byml.Encode(byml.NewInt32(1), 3)
	require.ErrorIs(t, err, byml.ErrWrongNodeType)
}

func TestEncodeNilIsEmptyDocument(t *testing.T) {
	data, err := byml.Encode(nil, 2)
	require.NoError(t, err)
	got, err := byml.Decode(data)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNormalizeMatchesDecodedOrder(t *testing.T) {
	tree := byml.NewHash(
		byml.Keyed("z", byml.NewInt32(1)),
		byml.Keyed("list", byml.NewArray(byml.NewBool(true))),
		byml.Keyed("a", byml.NewNull()),
		byml.Keyed("map", byml.NewHash()),
	)
	data, err := byml.Encode(tree, 3)
	require.NoError(t, err)
	got, err := byml.Decode(data)
	require.NoError(t, err)

	byml.Normalize(tree)
	var keys []string
	for _, c := range got.Children {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"list", "map", "a", "z"}, keys)
	assert.Empty(t, cmp.Diff(tree, got))
}
