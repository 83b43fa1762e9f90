package bymlconv

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tetraxile/afl/byml"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedYAML = errors.New("bymlconv: unsupported yaml construct")
	ErrValueRange      = errors.New("bymlconv: value out of range")
)

const (
	tagStr   = "!!str"
	tagBool  = "!!bool"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagNull  = "!!null"

	// timestamps are kept as the text they were written as
	tagTimestamp = "!!timestamp"

	TagUint32  = "!u"
	TagInt64   = "!l"
	TagUint64  = "!ul"
	TagFloat64 = "!f64"
)

// ToYAML renders the tree as a YAML document. A nil root renders as an
// empty document.
func ToYAML(root *byml.Node) ([]byte, error) {
	if root == nil {
		return []byte{}, nil
	}
	n, err := toYAMLNode(root)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{n}})
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toYAMLNode(n *byml.Node) (*yaml.Node, error) {
	switch n.Type {
	case byml.Array:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, c := range n.Children {
			y, err := toYAMLNode(c)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, y)
		}
		return out, nil
	case byml.Hash:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, c := range n.Children {
			if !utf8.ValidString(c.Key) {
				return nil, fmt.Errorf("%w: key %q is not utf-8", ErrUnsupportedYAML, c.Key)
			}
			y, err := toYAMLNode(c)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, scalar(tagStr, c.Key), y)
		}
		return out, nil
	case byml.String:
		s, err := value[string](n)
		if err != nil {
			return nil, err
		}
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("%w: string %q is not utf-8", ErrUnsupportedYAML, s)
		}
		return scalar(tagStr, s), nil
	case byml.Bool:
		v, err := value[bool](n)
		if err != nil {
			return nil, err
		}
		return scalar(tagBool, strconv.FormatBool(v)), nil
	case byml.Int32:
		v, err := value[int32](n)
		if err != nil {
			return nil, err
		}
		return scalar(tagInt, strconv.FormatInt(int64(v), 10)), nil
	case byml.Float32:
		v, err := value[float32](n)
		if err != nil {
			return nil, err
		}
		return scalar(tagFloat, formatFloat(float64(v), 32)), nil
	case byml.Uint32:
		v, err := value[uint32](n)
		if err != nil {
			return nil, err
		}
		return scalar(TagUint32, strconv.FormatUint(uint64(v), 10)), nil
	case byml.Int64:
		v, err := value[int64](n)
		if err != nil {
			return nil, err
		}
		return scalar(TagInt64, strconv.FormatInt(v, 10)), nil
	case byml.Uint64:
		v, err := value[uint64](n)
		if err != nil {
			return nil, err
		}
		return scalar(TagUint64, strconv.FormatUint(v, 10)), nil
	case byml.Float64:
		v, err := value[float64](n)
		if err != nil {
			return nil, err
		}
		return scalar(TagFloat64, formatFloat(v, 64)), nil
	case byml.Null:
		return scalar(tagNull, "null"), nil
	}
	return nil, fmt.Errorf("%w: node type %s", byml.ErrWrongNodeType, n.Type)
}

func value[T any](n *byml.Node) (T, error) {
	v, ok := n.Value.(T)
	if !ok {
		return v, fmt.Errorf("%w: %s node holds %T", byml.ErrWrongNodeType, n.Type, n.Value)
	}
	return v, nil
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return ".nan"
	case math.IsInf(v, 1):
		return ".inf"
	case math.IsInf(v, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}

func parseFloat(s string, bits int) (float64, error) {
	switch strings.ToLower(strings.TrimPrefix(s, "+")) {
	case ".nan":
		return math.NaN(), nil
	case ".inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, rangeOr(err, s)
	}
	return v, nil
}

func rangeOr(err error, s string) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: %q", ErrValueRange, s)
	}
	return fmt.Errorf("%w: %q: %v", ErrUnsupportedYAML, s, err)
}

// FromYAML parses a YAML document into a tree. An empty document yields a
// nil root.
func FromYAML(data []byte) (*byml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == tagNull {
		return nil, nil
	}
	p := yamlParser{budget: aliasExpansion * (len(data) + 1)}
	return p.node(root, 1)
}

// aliasExpansion bounds the nodes a document may produce per input byte,
// which stops alias chains from growing exponentially.
const aliasExpansion = 4

type yamlParser struct {
	budget int
}

func (p *yamlParser) node(y *yaml.Node, depth int) (*byml.Node, error) {
	if depth > byml.MaxDepth+1 {
		return nil, fmt.Errorf("%w: nesting deeper than %d at line %d", ErrUnsupportedYAML, byml.MaxDepth, y.Line)
	}
	if p.budget--; p.budget < 0 {
		return nil, fmt.Errorf("%w: aliases expand past %d nodes per byte at line %d", ErrUnsupportedYAML, aliasExpansion, y.Line)
	}
	switch y.Kind {
	case yaml.AliasNode:
		return p.node(y.Alias, depth)
	case yaml.SequenceNode:
		n := byml.NewArray()
		for _, c := range y.Content {
			child, err := p.node(c, depth+1)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	case yaml.MappingNode:
		n := byml.NewHash()
		for i := 0; i+1 < len(y.Content); i += 2 {
			k := y.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: non-scalar key at line %d", ErrUnsupportedYAML, k.Line)
			}
			child, err := p.node(y.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, byml.Keyed(k.Value, child))
		}
		return n, nil
	case yaml.ScalarNode:
		n, err := fromScalar(y)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: node kind %d at line %d", ErrUnsupportedYAML, y.Kind, y.Line)
}

func fromScalar(y *yaml.Node) (*byml.Node, error) {
	switch tag := y.ShortTag(); tag {
	case tagStr, tagTimestamp:
		return byml.NewString(y.Value), nil
	case tagNull:
		return byml.NewNull(), nil
	case tagBool:
		var v bool
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedYAML, err)
		}
		return byml.NewBool(v), nil
	case tagInt:
		var v int64
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrValueRange, y.Value, err)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %d does not fit Int32, tag it %s", ErrValueRange, v, TagInt64)
		}
		return byml.NewInt32(int32(v)), nil
	case tagFloat:
		v, err := parseFloat(y.Value, 32)
		if err != nil {
			return nil, err
		}
		return byml.NewFloat32(float32(v)), nil
	case TagUint32:
		v, err := strconv.ParseUint(y.Value, 0, 32)
		if err != nil {
			return nil, rangeOr(err, y.Value)
		}
		return byml.NewUint32(uint32(v)), nil
	case TagInt64:
		v, err := strconv.ParseInt(y.Value, 0, 64)
		if err != nil {
			return nil, rangeOr(err, y.Value)
		}
		return byml.NewInt64(v), nil
	case TagUint64:
		v, err := strconv.ParseUint(y.Value, 0, 64)
		if err != nil {
			return nil, rangeOr(err, y.Value)
		}
		return byml.NewUint64(v), nil
	case TagFloat64:
		v, err := parseFloat(y.Value, 64)
		if err != nil {
			return nil, err
		}
		return byml.NewFloat64(v), nil
	default:
		return nil, fmt.Errorf("%w: tag %s", ErrUnsupportedYAML, tag)
	}
}
