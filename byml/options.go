package byml

import "github.com/tetraxile/afl/binio"

// WriterOptions configures a Writer. The zero value writes little-endian.
type WriterOptions struct {
	order binio.ByteOrder
}

type WriterOption func(*WriterOptions)

func NewWriterOptions(opts ...WriterOption) WriterOptions {
	var options WriterOptions
	for _, o := range opts {
		o(&options)
	}
	return options
}

// WithByteOrder selects the byte order of the saved document.
func WithByteOrder(order binio.ByteOrder) WriterOption {
	return func(o *WriterOptions) {
		o.order = order
	}
}
