package byml

import (
	"fmt"
	"sort"

	"github.com/tetraxile/afl/binio"
)

// StringTableBuilder collects the distinct strings of one table. Ranks are
// only meaningful once every string has been added.
type StringTableBuilder struct {
	set    map[string]struct{}
	sorted []string
	ranks  map[string]uint32
}

func NewStringTableBuilder() *StringTableBuilder {
	return &StringTableBuilder{set: make(map[string]struct{})}
}

// Add registers s. Adding a string twice is a no-op.
func (t *StringTableBuilder) Add(s string) {
	if _, ok := t.set[s]; ok {
		return
	}
	t.set[s] = struct{}{}
	t.sorted = nil
	t.ranks = nil
}

func (t *StringTableBuilder) Len() int      { return len(t.set) }
func (t *StringTableBuilder) IsEmpty() bool { return len(t.set) == 0 }

func (t *StringTableBuilder) freeze() {
	if t.sorted != nil || len(t.set) == 0 {
		return
	}
	t.sorted = make([]string, 0, len(t.set))
	for s := range t.set {
		t.sorted = append(t.sorted, s)
	}
	sort.Strings(t.sorted)
	t.ranks = make(map[string]uint32, len(t.sorted))
	for i, s := range t.sorted {
		t.ranks[s] = uint32(i)
	}
}

// Strings returns the table contents in rank order.
func (t *StringTableBuilder) Strings() []string {
	t.freeze()
	return t.sorted
}

// Find returns the rank of s. s must have been added; anything else is a
// programming error and panics.
func (t *StringTableBuilder) Find(s string) uint32 {
	t.freeze()
	rank, ok := t.ranks[s]
	if !ok {
		panic(fmt.Sprintf("byml: string %q not registered in string table", s))
	}
	return rank
}

// ByteSize is the serialized size, 0 for an empty table.
func (t *StringTableBuilder) ByteSize() uint32 {
	if t.IsEmpty() {
		return 0
	}
	var payload uint32
	for s := range t.set {
		payload += uint32(len(s)) + 1
	}
	return 8 + 4*uint32(len(t.set)) + binio.RoundUp(payload, 4)
}

// Serialize writes the table at base. Offsets are relative to base.
func (t *StringTableBuilder) Serialize(buf *binio.Buffer, base uint32) {
	if t.IsEmpty() {
		return
	}
	strs := t.Strings()
	n := uint32(len(strs))
	buf.PutU8(base, uint8(StringTable))
	buf.PutU24(base+1, n)

	rel := 4 + 4*(n+1)
	for i, s := range strs {
		buf.PutU32(base+4+4*uint32(i), rel)
		buf.PutString(base+rel, s)
		rel += uint32(len(s)) + 1
	}
	buf.PutU32(base+4+4*n, rel)
	buf.Pad(base + t.ByteSize())
}
