package assettesting

import (
	"fmt"
	"math/rand"
	"strings"

	fuzz "github.com/google/gofuzz"
	"github.com/tetraxile/afl/byml"
)

// TreeConfig bounds a generated document.
type TreeConfig struct {
	Version  uint16
	MaxDepth int
	// MaxChildren bounds the children of each container.
	MaxChildren int
}

// TreeGenerator builds random documents from a seed.
type TreeGenerator struct {
	cfg  TreeConfig
	fz   *fuzz.Fuzzer
	rand *rand.Rand
}

func NewTreeGenerator(seed int64, cfg TreeConfig) *TreeGenerator {
	if cfg.MaxDepth <= 0 || cfg.MaxDepth > byml.MaxDepth {
		cfg.MaxDepth = byml.MaxDepth
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = 8
	}
	if cfg.Version == 0 {
		cfg.Version = 3
	}
	return &TreeGenerator{
		cfg:  cfg,
		fz:   fuzz.NewWithSeed(seed).NilChance(0).NumElements(0, 12),
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Tree returns a random root container.
func (g *TreeGenerator) Tree() *byml.Node {
	if g.rand.Intn(2) == 0 {
		return g.container(byml.Array, 1)
	}
	return g.container(byml.Hash, 1)
}

func (g *TreeGenerator) container(t byml.NodeType, depth int) *byml.Node {
	n := &byml.Node{Type: t}
	count := g.rand.Intn(g.cfg.MaxChildren + 1)
	for i := 0; i < count; i++ {
		c := g.child(depth)
		if t == byml.Hash {
			c.Key = fmt.Sprintf("%s_%d", g.str(), i)
		}
		n.Children = append(n.Children, c)
	}
	return n
}

var leafTypes = []byml.NodeType{
	byml.String, byml.Bool, byml.Int32, byml.Float32, byml.Uint32, byml.Null,
	byml.Int64, byml.Uint64, byml.Float64,
}

func (g *TreeGenerator) child(depth int) *byml.Node {
	// deeper levels become increasingly leafy
	if depth < g.cfg.MaxDepth && g.rand.Intn(depth+2) == 0 {
		if g.rand.Intn(2) == 0 {
			return g.container(byml.Array, depth+1)
		}
		return g.container(byml.Hash, depth+1)
	}
	kinds := leafTypes
	if g.cfg.Version < 3 {
		kinds = leafTypes[:6]
	}
	return g.leaf(kinds[g.rand.Intn(len(kinds))])
}

func (g *TreeGenerator) str() string {
	var s string
	g.fz.Fuzz(&s)
	return strings.ReplaceAll(s, "\x00", "")
}

func (g *TreeGenerator) leaf(t byml.NodeType) *byml.Node {
	switch t {
	case byml.String:
		return byml.NewString(g.str())
	case byml.Bool:
		var v bool
		g.fz.Fuzz(&v)
		return byml.NewBool(v)
	case byml.Int32:
		var v int32
		g.fz.Fuzz(&v)
		return byml.NewInt32(v)
	case byml.Float32:
		var v float32
		g.fz.Fuzz(&v)
		return byml.NewFloat32(v)
	case byml.Uint32:
		var v uint32
		g.fz.Fuzz(&v)
		return byml.NewUint32(v)
	case byml.Int64:
		var v int64
		g.fz.Fuzz(&v)
		return byml.NewInt64(v)
	case byml.Uint64:
		var v uint64
		g.fz.Fuzz(&v)
		return byml.NewUint64(v)
	case byml.Float64:
		var v float64
		g.fz.Fuzz(&v)
		return byml.NewFloat64(v)
	}
	return byml.NewNull()
}
