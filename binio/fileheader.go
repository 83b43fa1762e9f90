package binio

import "fmt"

// FileHeaderBytes is the size of the common preamble shared by BNTX and
// BFRES files.
const FileHeaderBytes = 0x20

// FileHeader is the common preamble of the relocatable resource formats: an
// 8 byte signature, a big-endian version, a byte order mark and the
// relocation bookkeeping.
type FileHeader struct {
	Signature             string
	Version               uint32
	Order                 ByteOrder
	Alignment             uint8
	TargetAddressSize     uint8
	FilenameOffset        uint32
	IsRelocated           uint16
	FirstBlockOffset      uint16
	RelocationTableOffset uint32
	FileSize              uint32
}

// VersionString formats the version as major.minor.micro.
func (h FileHeader) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", h.Version>>16, h.Version>>8&0xff, h.Version&0xff)
}

// DecodeFileHeader checks the signature and decodes the preamble.
func DecodeFileHeader(b []byte, signature string) (FileHeader, error) {
	if err := CheckSignature(b, 0, signature); err != nil {
		return FileHeader{}, err
	}
	if err := Check(b, 0, FileHeaderBytes); err != nil {
		return FileHeader{}, err
	}
	order, err := DetectByteOrder(b, 0xc, 0xfeff)
	if err != nil {
		return FileHeader{}, err
	}
	return FileHeader{
		Signature:             signature,
		Version:               U32(b, 8, BigEndian),
		Order:                 order,
		Alignment:             U8(b, 0xe),
		TargetAddressSize:     U8(b, 0xf),
		FilenameOffset:        U32(b, 0x10, order),
		IsRelocated:           U16(b, 0x14, order),
		FirstBlockOffset:      U16(b, 0x16, order),
		RelocationTableOffset: U32(b, 0x18, order),
		FileSize:              U32(b, 0x1c, order),
	}, nil
}

// Encode writes the preamble at offset 0 of w, in w's byte order.
func (h FileHeader) Encode(w *Buffer) {
	w.PutBytes(0, []byte(h.Signature))
	order := w.Order
	w.Order = BigEndian
	w.PutU32(8, h.Version)
	w.Order = order
	w.PutU16(0xc, 0xfeff)
	w.PutU8(0xe, h.Alignment)
	w.PutU8(0xf, h.TargetAddressSize)
	w.PutU32(0x10, h.FilenameOffset)
	w.PutU16(0x14, h.IsRelocated)
	w.PutU16(0x16, h.FirstBlockOffset)
	w.PutU32(0x18, h.RelocationTableOffset)
	w.PutU32(0x1c, h.FileSize)
}
