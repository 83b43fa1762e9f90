package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/tetraxile/afl/yaz0"
)

// Format identifies a compression wrapper by its leading magic.
type Format uint8

const (
	None Format = iota
	Yaz0
	Zstd
	LZ4
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

var ErrUnknownFormat = errors.New("compression: unknown format")

func (f Format) String() string {
	switch f {
	case None:
		return "none"
	case Yaz0:
		return "yaz0"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return fmt.Sprintf("unknown(%d)", uint8(f))
}

// ParseFormat parses the names returned by Format.String. "szs" is accepted
// as an alias for yaz0.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "none", "":
		return None, nil
	case "yaz0", "szs":
		return Yaz0, nil
	case "zstd", "zs":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// zstd encoders and decoders are safe for concurrent use and expensive to
// build, so one of each is shared.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compression: zstd decoder initialization failed: " + err.Error())
	}
}

// Detect inspects the leading magic of data.
func Detect(data []byte) Format {
	switch {
	case yaz0.IsCompressed(data):
		return Yaz0
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	case bytes.HasPrefix(data, lz4Magic):
		return LZ4
	}
	return None
}

// Decompress unwraps data according to its magic. Data without a known
// magic is returned as is, with format None.
func Decompress(data []byte) ([]byte, Format, error) {
	f := Detect(data)
	var out []byte
	var err error
	switch f {
	case Yaz0:
		out, err = yaz0.Decompress(data)
	case Zstd:
		out, err = zstdDecoder.DecodeAll(data, nil)
	case LZ4:
		out, err = io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return data, None, nil
	}
	if err != nil {
		return nil, f, fmt.Errorf("%s decompress: %w", f, err)
	}
	return out, f, nil
}

type Options struct {
	yaz0 []yaz0.Option
}

type Option func(*Options)

// WithYaz0Options forwards options to the Yaz0 encoder.
func WithYaz0Options(opts ...yaz0.Option) Option {
	return func(o *Options) {
		o.yaz0 = append(o.yaz0, opts...)
	}
}

// Compress wraps data in format f. None returns data unchanged.
func Compress(data []byte, f Format, opts ...Option) ([]byte, error) {
	var options Options
	for _, o := range opts {
		o(&options)
	}
	switch f {
	case None:
		return data, nil
	case Yaz0:
		return yaz0.Compress(data, options.yaz0...), nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
}
