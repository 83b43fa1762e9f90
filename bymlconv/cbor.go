package bymlconv

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/tetraxile/afl/byml"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bymlconv: CBOR encoder initialization failed: " + err.Error())
	}
}

// ToCBOR encodes the plain Go projection of the tree: hashes as maps keyed
// by string, arrays as lists and leaves as their values.
func ToCBOR(root *byml.Node) ([]byte, error) {
	v, err := Plain(root)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(v)
}

// Plain projects the tree onto map[string]any, []any and leaf values. A nil
// root projects to nil.
func Plain(n *byml.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Type {
	case byml.Array:
		out := make([]any, 0, len(n.Children))
		for _, c := range n.Children {
			v, err := Plain(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case byml.Hash:
		out := make(map[string]any, len(n.Children))
		for _, c := range n.Children {
			v, err := Plain(c)
			if err != nil {
				return nil, err
			}
			out[c.Key] = v
		}
		return out, nil
	}
	if !n.Type.IsValue() {
		return nil, fmt.Errorf("%w: node type %s", byml.ErrWrongNodeType, n.Type)
	}
	return n.Value, nil
}
