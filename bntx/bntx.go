// Package bntx decodes the header of BNTX texture containers.
package bntx

import (
	"fmt"

	"github.com/tetraxile/afl/binio"
)

const (
	Signature = "BNTX\x00\x00\x00\x00"

	containerSignature = "NX  "
	containerOffset    = binio.FileHeaderBytes
)

// Header is the file preamble followed by the NX texture container summary.
type Header struct {
	binio.FileHeader
	TextureCount uint32
}

func DecodeHeader(b []byte) (Header, error) {
	fh, err := binio.DecodeFileHeader(b, Signature)
	if err != nil {
		return Header{}, err
	}
	h := Header{FileHeader: fh}
	if err := binio.CheckSignature(b, containerOffset, containerSignature); err != nil {
		return Header{}, fmt.Errorf("texture container: %w", err)
	}
	if err := binio.Check(b, containerOffset, 8); err != nil {
		return Header{}, err
	}
	h.TextureCount = binio.U32(b, containerOffset+4, fh.Order)
	return h, nil
}

// Name returns the file name recorded in the string pool, or "" when the
// header has none.
func (h Header) Name(b []byte) (string, error) {
	if h.FilenameOffset == 0 {
		return "", nil
	}
	return binio.CString(b, h.FilenameOffset)
}
