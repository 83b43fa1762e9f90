package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tetraxile/afl/bffnt"
	"github.com/tetraxile/afl/bfres"
	"github.com/tetraxile/afl/bntx"
	"github.com/tetraxile/afl/byml"
	"github.com/tetraxile/afl/compression"
	"github.com/tetraxile/afl/sarc"
	"github.com/urfave/cli/v2"
)

func infoCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Detect a file's format and print its header",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			a, err := args(c, "<file>")
			if err != nil {
				return err
			}
			data, f, err := e.readInput(a[0])
			if err != nil {
				return err
			}
			w := c.App.Writer
			if f != compression.None {
				fmt.Fprintf(w, "compression: %s\n", f)
			}
			return describe(w, data)
		},
	}
}

func describe(w io.Writer, data []byte) error {
	switch {
	case bytes.HasPrefix(data, []byte("BY")), bytes.HasPrefix(data, []byte("YB")):
		return describeBYML(w, data)
	case bytes.HasPrefix(data, []byte(sarc.Signature)):
		a, err := sarc.Open(data)
		if err != nil {
			return err
		}
		h := a.Header()
		fmt.Fprintf(w, "format: SARC\nbyte order: %s\nversion: 0x%x\nfiles: %d\nnamed: %d\n",
			h.Order, h.Version, len(a.Files()), len(a.Names()))
	case bytes.HasPrefix(data, []byte(bntx.Signature)):
		h, err := bntx.DecodeHeader(data)
		if err != nil {
			return err
		}
		name, err := h.Name(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "format: BNTX\nbyte order: %s\nversion: %s\nname: %s\ntextures: %d\n",
			h.Order, h.VersionString(), name, h.TextureCount)
	case bytes.HasPrefix(data, []byte(bfres.Signature)):
		h, err := bfres.DecodeHeader(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "format: BFRES\nbyte order: %s\nversion: %s\n", h.Order, h.VersionString())
		for s := bfres.Models; s <= bfres.EmbeddedFiles; s++ {
			fmt.Fprintf(w, "%s: %d\n", s, h.Count(s))
		}
	case bytes.HasPrefix(data, []byte(bffnt.Signature)):
		f, err := bffnt.Decode(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "format: BFFNT\nbyte order: %s\nversion: 0x%08x\nheight: %d\nsheets: %d (%dx%d)\nwidth ranges: %d\ncharacter maps: %d\n",
			f.Header.Order, f.Header.Version, f.Info.Height, f.Glyphs.SheetCount,
			f.Glyphs.SheetWidth, f.Glyphs.SheetHeight, len(f.Widths), len(f.Maps))
	default:
		return fmt.Errorf("unrecognised format, leading bytes % x", data[:min(len(data), 8)])
	}
	return nil
}

func describeBYML(w io.Writer, data []byte) error {
	doc, err := byml.Open(data)
	if err != nil {
		return err
	}
	h := doc.Header()
	fmt.Fprintf(w, "format: BYML\nbyte order: %s\nversion: %d\nhash keys: %d\nstring values: %d\n",
		h.Order, h.Version, doc.HashKeyCount(), doc.ValueStringCount())
	root, err := doc.Root()
	if errors.Is(err, byml.ErrEmptyDocument) {
		fmt.Fprintln(w, "root: none")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "root: %s of %d\n", root.Type(), root.Len())
	return nil
}
