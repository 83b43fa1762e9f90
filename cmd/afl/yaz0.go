package main

import (
	"math"
	"os"

	"github.com/tetraxile/afl/yaz0"
	"github.com/urfave/cli/v2"
)

func yaz0Command(e *env) *cli.Command {
	return &cli.Command{
		Name:  "yaz0",
		Usage: "Compress or decompress Yaz0 streams",
		Subcommands: []*cli.Command{
			{
				Name:      "decompress",
				Usage:     "Decompress a Yaz0 stream",
				ArgsUsage: "<in> <out>",
				Action: func(c *cli.Context) error {
					a, err := args(c, "<in>", "<out>")
					if err != nil {
						return err
					}
					src, err := os.ReadFile(a[0])
					if err != nil {
						return err
					}
					out, err := yaz0.Decompress(src)
					if err != nil {
						return err
					}
					return e.writeOutput(c.Context, a[1], out)
				},
			},
			{
				Name:      "compress",
				Usage:     "Compress a file as a Yaz0 stream",
				ArgsUsage: "<in> <out>",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "alignment", Value: yaz0.DefaultAlignment, Usage: "Alignment recorded in the stream header"},
				},
				Action: func(c *cli.Context) error {
					a, err := args(c, "<in>", "<out>")
					if err != nil {
						return err
					}
					align, err := uintFlag(c, "alignment", math.MaxUint32)
					if err != nil {
						return err
					}
					src, err := os.ReadFile(a[0])
					if err != nil {
						return err
					}
					out := yaz0.Compress(src, yaz0.WithAlignment(uint32(align)))
					return e.writeOutput(c.Context, a[1], out)
				},
			},
		},
	}
}
