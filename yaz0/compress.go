package yaz0

import "encoding/binary"

const (
	hashBits   = 15
	maxChain   = 512
	noPosition = -1
)

type Options struct {
	alignment uint32
}

type Option func(*Options)

// WithAlignment sets the alignment hint stored in the header.
func WithAlignment(alignment uint32) Option {
	return func(o *Options) {
		o.alignment = alignment
	}
}

// matcher finds the longest earlier occurrence of the bytes at a position
// using hash chains over three byte prefixes.
type matcher struct {
	src  []byte
	head []int32
	prev []int32
}

func newMatcher(src []byte) *matcher {
	m := &matcher{
		src:  src,
		head: make([]int32, 1<<hashBits),
		prev: make([]int32, len(src)),
	}
	for i := range m.head {
		m.head[i] = noPosition
	}
	return m
}

func (m *matcher) hash(pos int) uint32 {
	v := uint32(m.src[pos])<<16 | uint32(m.src[pos+1])<<8 | uint32(m.src[pos+2])
	return (v * 2654435761) >> (32 - hashBits)
}

func (m *matcher) insert(pos int) {
	if pos+minMatch > len(m.src) {
		return
	}
	h := m.hash(pos)
	m.prev[pos] = m.head[h]
	m.head[h] = int32(pos)
}

func (m *matcher) longest(pos int) (length, dist int) {
	if pos+minMatch > len(m.src) {
		return 0, 0
	}
	limit := min(maxMatch, len(m.src)-pos)
	cand := m.head[m.hash(pos)]
	for chain := 0; cand != noPosition && chain < maxChain; chain++ {
		c := int(cand)
		if pos-c > windowSize {
			break
		}
		n := 0
		for n < limit && m.src[c+n] == m.src[pos+n] {
			n++
		}
		if n > length {
			length, dist = n, pos-c
			if n == limit {
				break
			}
		}
		cand = m.prev[c]
	}
	if length < minMatch {
		return 0, 0
	}
	return length, dist
}

// Compress encodes src as a Yaz0 stream using greedy longest matches inside
// a 0x1000 byte window.
func Compress(src []byte, opts ...Option) []byte {
	options := Options{alignment: DefaultAlignment}
	for _, o := range opts {
		o(&options)
	}

	out := make([]byte, HeaderBytes, HeaderBytes+len(src)+len(src)/8+1)
	Header{UncompressedSize: uint32(len(src)), Alignment: options.alignment}.Encode(out)

	m := newMatcher(src)
	var group [24]byte
	pos := 0
	for pos < len(src) {
		var code byte
		n := 0
		for bit := 7; bit >= 0 && pos < len(src); bit-- {
			length, dist := m.longest(pos)
			if length == 0 {
				code |= 1 << bit
				group[n] = src[pos]
				n++
				m.insert(pos)
				pos++
				continue
			}

			ref := uint16(dist - 1)
			if length < longMatch {
				binary.BigEndian.PutUint16(group[n:], uint16(length-2)<<12|ref)
				n += 2
			} else {
				binary.BigEndian.PutUint16(group[n:], ref)
				group[n+2] = byte(length - longMatch)
				n += 3
			}
			for i := 0; i < length; i++ {
				m.insert(pos + i)
			}
			pos += length
		}
		out = append(out, code)
		out = append(out, group[:n]...)
	}
	return out
}
