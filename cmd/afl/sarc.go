package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tetraxile/afl/assetstore"
	"github.com/tetraxile/afl/compression"
	"github.com/tetraxile/afl/sarc"
	"github.com/urfave/cli/v2"
)

var errNotSZS = errors.New("not a Yaz0 compressed archive")

func sarcCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "sarc",
		Usage: "List, extract or build SARC archives",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the files of an archive with their size and blake3 digest",
				ArgsUsage: "<archive>",
				Action: func(c *cli.Context) error {
					a, err := args(c, "<archive>")
					if err != nil {
						return err
					}
					data, _, err := e.readInput(a[0])
					if err != nil {
						return err
					}
					archive, err := sarc.Open(data)
					if err != nil {
						return err
					}
					for _, f := range archive.Files() {
						name := f.Name
						if name == "" {
							name = fmt.Sprintf("<hash %08x>", f.Hash)
						}
						fmt.Fprintf(c.App.Writer, "%s\t%d\t%s\n", name, len(f.Data), assetstore.ContentHash(f.Data))
					}
					return nil
				},
			},
			{
				Name:      "extract",
				Usage:     "Extract every named file of an archive",
				ArgsUsage: "<archive> <dir>",
				Flags:     []cli.Flag{jobsFlag},
				Action: func(c *cli.Context) error {
					a, err := args(c, "<archive>", "<dir>")
					if err != nil {
						return err
					}
					data, _, err := e.readInput(a[0])
					if err != nil {
						return err
					}
					return e.extract(c.Context, data, a[1], c.Int("jobs"))
				},
			},
			{
				Name:      "create",
				Usage:     "Build an archive from the files below a directory",
				ArgsUsage: "<dir> <archive>",
				Flags: []cli.Flag{
					byteOrderFlag,
					&cli.UintFlag{Name: "alignment", Value: sarc.DefaultAlignment, Usage: "Data alignment, a power of two"},
					compressFlag,
				},
				Action: func(c *cli.Context) error {
					a, err := args(c, "<dir>", "<archive>")
					if err != nil {
						return err
					}
					f, err := compression.ParseFormat(c.String("compress"))
					if err != nil {
						return err
					}
					return e.create(c, a[0], a[1], f)
				},
			},
		},
	}
}

func szsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "szs",
		Usage: "Extract or build Yaz0 compressed SARC archives",
		Subcommands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract every named file of a compressed archive",
				ArgsUsage: "<archive> <dir>",
				Flags:     []cli.Flag{jobsFlag},
				Action: func(c *cli.Context) error {
					a, err := args(c, "<archive>", "<dir>")
					if err != nil {
						return err
					}
					data, f, err := e.readInput(a[0])
					if err != nil {
						return err
					}
					if f != compression.Yaz0 {
						return fmt.Errorf("%s: %w", a[0], errNotSZS)
					}
					return e.extract(c.Context, data, a[1], c.Int("jobs"))
				},
			},
			{
				Name:      "create",
				Usage:     "Build a compressed archive from the files below a directory",
				ArgsUsage: "<dir> <archive>",
				Flags: []cli.Flag{
					byteOrderFlag,
					&cli.UintFlag{Name: "alignment", Value: sarc.DefaultAlignment, Usage: "Data alignment, a power of two"},
				},
				Action: func(c *cli.Context) error {
					a, err := args(c, "<dir>", "<archive>")
					if err != nil {
						return err
					}
					return e.create(c, a[0], a[1], compression.Yaz0)
				},
			},
		},
	}
}

var jobsFlag = &cli.IntFlag{Name: "jobs", Value: 4, Usage: "Files written concurrently"}

func (e *env) extract(ctx context.Context, data []byte, dir string, jobs int) error {
	archive, err := sarc.Open(data)
	if err != nil {
		return err
	}
	dst, err := e.store(ctx, dir)
	if err != nil {
		return err
	}
	if err := archive.ExtractAll(ctx, dst, jobs); err != nil {
		return err
	}
	e.log.Infof("extracted %d files to %s", len(archive.Names()), dir)
	return nil
}

func (e *env) create(c *cli.Context, dir, out string, f compression.Format) error {
	order, err := byteOrder(c)
	if err != nil {
		return err
	}
	align, err := uintFlag(c, "alignment", math.MaxUint32)
	if err != nil {
		return err
	}
	w, err := sarc.NewWriter(sarc.WithByteOrder(order), sarc.WithAlignment(uint32(align)))
	if err != nil {
		return err
	}
	src := assetstore.NewDirStore(e.log, dir)
	names, err := src.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := src.Get(c.Context, name)
		if err != nil {
			return err
		}
		if err := w.Add(name, data); err != nil {
			return err
		}
	}
	archive, err := w.Save()
	if err != nil {
		return err
	}
	packed, err := compression.Compress(archive, f)
	if err != nil {
		return err
	}
	return e.writeOutput(c.Context, out, packed)
}
