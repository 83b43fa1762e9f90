package sarc

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetraxile/afl/binio"
	"golang.org/x/sync/errgroup"
)

// File is a named view into an archive's data. Data aliases the archive
// buffer.
type File struct {
	FATEntry
	Name string
	Data []byte
}

// Archive is a decoded SARC over a caller owned buffer.
type Archive struct {
	header         Header
	hashMultiplier uint32
	files          []File
}

func decodeHeader(b []byte) (Header, error) {
	if err := binio.CheckSignature(b, 0, Signature); err != nil {
		return Header{}, err
	}
	if err := binio.Check(b, 0, HeaderBytes); err != nil {
		return Header{}, err
	}
	order, err := binio.DetectByteOrder(b, 6, ByteOrderMark)
	if err != nil {
		return Header{}, err
	}
	if size := binio.U16(b, 4, order); size != HeaderBytes {
		return Header{}, fmt.Errorf("%w: SARC header is 0x%x", ErrBadHeaderSize, size)
	}
	return Header{
		Order:      order,
		FileSize:   binio.U32(b, 8, order),
		DataOffset: binio.U32(b, 0xc, order),
		Version:    binio.U16(b, 0x10, order),
	}, nil
}

// Open decodes the archive's header, file table and name table.
func Open(b []byte) (*Archive, error) {
	h, err := decodeHeader(b)
	if err != nil {
		return nil, err
	}
	o := h.Order

	const sfat = HeaderBytes
	if err := binio.CheckSignature(b, sfat, SFATSignature); err != nil {
		return nil, err
	}
	if err := binio.Check(b, sfat, SFATHeaderBytes); err != nil {
		return nil, err
	}
	if size := binio.U16(b, sfat+4, o); size != SFATHeaderBytes {
		return nil, fmt.Errorf("%w: SFAT header is 0x%x", ErrBadHeaderSize, size)
	}
	count := uint32(binio.U16(b, sfat+6, o))
	a := &Archive{header: h, hashMultiplier: binio.U32(b, sfat+8, o)}

	entries := uint32(sfat + SFATHeaderBytes)
	if err := binio.Check(b, uint64(entries), uint64(count)*SFATEntryBytes); err != nil {
		return nil, err
	}

	sfnt := entries + count*SFATEntryBytes
	if err := binio.CheckSignature(b, int(sfnt), SFNTSignature); err != nil {
		return nil, err
	}
	if err := binio.Check(b, uint64(sfnt), SFNTHeaderBytes); err != nil {
		return nil, err
	}
	if size := binio.U16(b, sfnt+4, o); size != SFNTHeaderBytes {
		return nil, fmt.Errorf("%w: SFNT header is 0x%x", ErrBadHeaderSize, size)
	}
	names := sfnt + SFNTHeaderBytes

	a.files = make([]File, count)
	for i := range a.files {
		at := entries + uint32(i)*SFATEntryBytes
		f := &a.files[i]
		f.FATEntry = FATEntry{
			Hash:  binio.U32(b, at, o),
			Attrs: binio.U32(b, at+4, o),
			Start: binio.U32(b, at+8, o),
			End:   binio.U32(b, at+0xc, o),
		}
		if f.HasName() {
			if f.Name, err = binio.CString(b, names+f.NameOffset()); err != nil {
				return nil, fmt.Errorf("name of file %d: %w", i, err)
			}
		}
		start := uint64(h.DataOffset) + uint64(f.Start)
		if f.End < f.Start || binio.Check(b, start, uint64(f.Size())) != nil {
			return nil, fmt.Errorf("%w: file %d spans 0x%x-0x%x", ErrBadFileExtent, i, f.Start, f.End)
		}
		f.Data = b[start : start+uint64(f.Size()) : start+uint64(f.Size())]
	}
	return a, nil
}

func (a *Archive) Header() Header         { return a.header }
func (a *Archive) HashMultiplier() uint32 { return a.hashMultiplier }

// Files returns every file in table (hash) order.
func (a *Archive) Files() []File { return a.files }

func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.files))
	for _, f := range a.files {
		names = append(names, f.Name)
	}
	return names
}

// File finds a file by name. The table is sorted by hash, so the search is
// a lower bound on the hash followed by a name comparison across
// colliding entries.
func (a *Archive) File(name string) (File, error) {
	h := Hash(name, a.hashMultiplier)
	i := sort.Search(len(a.files), func(i int) bool { return a.files[i].Hash >= h })
	for ; i < len(a.files) && a.files[i].Hash == h; i++ {
		if a.files[i].Name == name {
			return a.files[i], nil
		}
	}
	return File{}, fmt.Errorf("%w: %q", ErrFileNotFound, name)
}

// Lookup returns a file's data.
func (a *Archive) Lookup(name string) ([]byte, error) {
	f, err := a.File(name)
	if err != nil {
		return nil, err
	}
	return f.Data, nil
}

func (a *Archive) Size(name string) (uint32, error) {
	f, err := a.File(name)
	if err != nil {
		return 0, err
	}
	return f.Size(), nil
}

// Sink receives extracted files. assetstore stores satisfy it.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Extract writes one file to dst.
func (a *Archive) Extract(ctx context.Context, dst Sink, name string) error {
	data, err := a.Lookup(name)
	if err != nil {
		return err
	}
	return dst.Put(ctx, name, data)
}

// ExtractAll writes every named file to dst, at most jobs at a time.
func (a *Archive) ExtractAll(ctx context.Context, dst Sink, jobs int) error {
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for _, f := range a.files {
		if f.Name == "" {
			continue
		}
		f := f
		g.Go(func() error {
			if err := dst.Put(ctx, f.Name, f.Data); err != nil {
				return fmt.Errorf("extract %s: %w", f.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
