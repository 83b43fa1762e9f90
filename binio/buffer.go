package binio

import "math"

// Buffer is a write buffer addressed by absolute offset. Writing past the end
// grows the buffer, zero filling any gap.
type Buffer struct {
	Order ByteOrder
	data  []byte
}

func NewBuffer(order ByteOrder, capacity int) *Buffer {
	return &Buffer{Order: order, data: make([]byte, 0, capacity)}
}

func (w *Buffer) Bytes() []byte { return w.data }
func (w *Buffer) Len() uint32   { return uint32(len(w.data)) }

func (w *Buffer) grow(off uint32, n int) []byte {
	end := int(off) + n
	if end > len(w.data) {
		if end > cap(w.data) {
			next := make([]byte, end, max(end, 2*cap(w.data)))
			copy(next, w.data)
			w.data = next
		} else {
			w.data = w.data[:end]
		}
	}
	return w.data[off:end]
}

// Pad extends the buffer with zeros up to n bytes.
func (w *Buffer) Pad(n uint32) {
	if n > w.Len() {
		w.grow(n, 0)
	}
}

func (w *Buffer) PutU8(off uint32, v uint8) { w.grow(off, 1)[0] = v }

func (w *Buffer) PutU16(off uint32, v uint16) { w.Order.Binary().PutUint16(w.grow(off, 2), v) }

func (w *Buffer) PutU24(off uint32, v uint32) {
	dst := w.grow(off, 3)
	if w.Order == BigEndian {
		dst[0], dst[1], dst[2] = byte(v>>16), byte(v>>8), byte(v)
		return
	}
	dst[0], dst[1], dst[2] = byte(v), byte(v>>8), byte(v>>16)
}

func (w *Buffer) PutU32(off uint32, v uint32) { w.Order.Binary().PutUint32(w.grow(off, 4), v) }
func (w *Buffer) PutU64(off uint32, v uint64) { w.Order.Binary().PutUint64(w.grow(off, 8), v) }
func (w *Buffer) PutS32(off uint32, v int32)  { w.PutU32(off, uint32(v)) }
func (w *Buffer) PutS64(off uint32, v int64)  { w.PutU64(off, uint64(v)) }
func (w *Buffer) PutF32(off uint32, v float32) {
	w.PutU32(off, math.Float32bits(v))
}
func (w *Buffer) PutF64(off uint32, v float64) {
	w.PutU64(off, math.Float64bits(v))
}

func (w *Buffer) PutBytes(off uint32, b []byte) { copy(w.grow(off, len(b)), b) }

// PutString writes s followed by a NUL terminator.
func (w *Buffer) PutString(off uint32, s string) {
	dst := w.grow(off, len(s)+1)
	copy(dst, s)
	dst[len(s)] = 0
}
