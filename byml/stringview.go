package byml

import (
	"fmt"
	"sort"

	"github.com/tetraxile/afl/binio"
)

// stringTable is a read-only view over a serialized string table.
type stringTable struct {
	data  []byte
	order binio.ByteOrder
	base  uint32
	count uint32
}

func openStringTable(b []byte, order binio.ByteOrder, base uint32) (stringTable, error) {
	if base == 0 {
		return stringTable{}, nil
	}
	if err := binio.Check(b, uint64(base), 4); err != nil {
		return stringTable{}, err
	}
	if t := NodeType(b[base]); t != StringTable {
		return stringTable{}, fmt.Errorf("%w: string table at 0x%x has type %s", ErrWrongNodeType, base, t)
	}
	st := stringTable{data: b, order: order, base: base, count: binio.U24(b, base+1, order)}
	if err := binio.Check(b, uint64(base)+4, 4*(uint64(st.count)+1)); err != nil {
		return stringTable{}, err
	}
	return st, nil
}

func (st stringTable) Len() uint32 { return st.count }

// At returns string i. The string's extent is given by its offset and the
// next one, which is why the table carries a trailing sentinel offset.
func (st stringTable) At(i uint32) (string, error) {
	if i >= st.count {
		return "", fmt.Errorf("%w: string %d of %d", ErrOutOfBounds, i, st.count)
	}
	start := st.base + binio.U32(st.data, st.base+4+4*i, st.order)
	end := st.base + binio.U32(st.data, st.base+8+4*i, st.order)
	if end <= start {
		return "", fmt.Errorf("%w: string %d has bad extent", binio.ErrTruncated, i)
	}
	if err := binio.Check(st.data, uint64(start), uint64(end-start)); err != nil {
		return "", err
	}
	return string(st.data[start : end-1]), nil
}

// Index finds s by binary search over the sorted table.
func (st stringTable) Index(s string) (uint32, bool) {
	var failed bool
	i := sort.Search(int(st.count), func(i int) bool {
		v, err := st.At(uint32(i))
		if err != nil {
			failed = true
			return true
		}
		return v >= s
	})
	if failed || uint32(i) >= st.count {
		return 0, false
	}
	if v, _ := st.At(uint32(i)); v != s {
		return 0, false
	}
	return uint32(i), true
}
