package main

import (
	"fmt"
	"math"
	"os"

	"github.com/tetraxile/afl/byml"
	"github.com/tetraxile/afl/bymlconv"
	"github.com/tetraxile/afl/compression"
	"github.com/urfave/cli/v2"
)

func bymlCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "byml",
		Usage: "Convert BYML documents",
		Subcommands: []*cli.Command{
			{
				Name:      "toyaml",
				Usage:     "Render a document as YAML",
				ArgsUsage: "<in> <out>",
				Action: func(c *cli.Context) error {
					return e.convertDocument(c, bymlconv.ToYAML)
				},
			},
			{
				Name:      "tocbor",
				Usage:     "Export a document as deterministic CBOR",
				ArgsUsage: "<in> <out>",
				Action: func(c *cli.Context) error {
					return e.convertDocument(c, bymlconv.ToCBOR)
				},
			},
			{
				Name:      "fromyaml",
				Usage:     "Build a document from YAML",
				ArgsUsage: "<in> <out>",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "version", Value: 3, Usage: "Document version (2 or 3)"},
					byteOrderFlag,
					compressFlag,
				},
				Action: func(c *cli.Context) error {
					a, err := args(c, "<in>", "<out>")
					if err != nil {
						return err
					}
					order, err := byteOrder(c)
					if err != nil {
						return err
					}
					f, err := compression.ParseFormat(c.String("compress"))
					if err != nil {
						return err
					}
					text, err := os.ReadFile(a[0])
					if err != nil {
						return err
					}
					root, err := bymlconv.FromYAML(text)
					if err != nil {
						return fmt.Errorf("%s: %w", a[0], err)
					}
					version, err := uintFlag(c, "version", math.MaxUint16)
					if err != nil {
						return err
					}
					data, err := byml.Encode(root, uint16(version), byml.WithByteOrder(order))
					if err != nil {
						return err
					}
					if data, err = compression.Compress(data, f); err != nil {
						return err
					}
					return e.writeOutput(c.Context, a[1], data)
				},
			},
		},
	}
}

func (e *env) convertDocument(c *cli.Context, convert func(*byml.Node) ([]byte, error)) error {
	a, err := args(c, "<in>", "<out>")
	if err != nil {
		return err
	}
	data, _, err := e.readInput(a[0])
	if err != nil {
		return err
	}
	root, err := byml.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", a[0], err)
	}
	out, err := convert(root)
	if err != nil {
		return err
	}
	return e.writeOutput(c.Context, a[1], out)
}
