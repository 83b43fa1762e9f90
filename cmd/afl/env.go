package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/tetraxile/afl/assetstore"
	"github.com/tetraxile/afl/binio"
	"github.com/tetraxile/afl/compression"
	"github.com/urfave/cli/v2"
)

// env carries the state shared by every command once the global flags are
// parsed.
type env struct {
	log       logger.Logger
	container string
	storer    *azblob.Storer
}

func (e *env) blobClient(ctx context.Context) (*azblob.Storer, error) {
	if e.storer != nil {
		return e.storer, nil
	}
	storer, err := azblob.NewDev(azblob.NewDevConfigFromEnv(), e.container)
	if err != nil {
		return nil, fmt.Errorf("blob container %s: %w", e.container, err)
	}
	// An existing container is reported as an error, which is fine.
	_, _ = storer.GetServiceClient().CreateContainer(ctx, e.container, nil)
	e.storer = storer
	return storer, nil
}

// store returns where assets below dir are written: the blob container when
// one is configured, else the directory itself.
func (e *env) store(ctx context.Context, dir string) (assetstore.Store, error) {
	if e.container == "" {
		return assetstore.NewDirStore(e.log, dir), nil
	}
	client, err := e.blobClient(ctx)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimPrefix(path.Clean(filepath.ToSlash(dir)), "/")
	if prefix == "." {
		prefix = ""
	}
	return assetstore.NewBlobStore(e.log, client, assetstore.WithPrefix(prefix)), nil
}

// writeOutput stores data as the file at p.
func (e *env) writeOutput(ctx context.Context, p string, data []byte) error {
	s, err := e.store(ctx, filepath.Dir(p))
	if err != nil {
		return err
	}
	if err := s.Put(ctx, filepath.Base(p), data); err != nil {
		return err
	}
	e.log.Infof("wrote %s (%d bytes)", p, len(data))
	return nil
}

// readInput reads a file and strips any compression wrapper.
func (e *env) readInput(p string) ([]byte, compression.Format, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, compression.None, err
	}
	data, f, err := compression.Decompress(raw)
	if err != nil {
		return nil, f, fmt.Errorf("%s: %w", p, err)
	}
	if f != compression.None {
		e.log.Debugf("%s: %s, %d bytes unpacked", p, f, len(data))
	}
	return data, f, nil
}

func args(c *cli.Context, names ...string) ([]string, error) {
	if c.NArg() != len(names) {
		return nil, fmt.Errorf("%s: expected arguments: %s", c.Command.Name, strings.Join(names, " "))
	}
	return c.Args().Slice(), nil
}

var byteOrderFlag = &cli.StringFlag{Name: "byte-order", Value: "little", Usage: "Output byte order (little, big)"}

func byteOrder(c *cli.Context) (binio.ByteOrder, error) {
	order, ok := binio.ParseByteOrder(c.String("byte-order"))
	if !ok {
		return order, fmt.Errorf("unknown byte order %q", c.String("byte-order"))
	}
	return order, nil
}

var errFlagRange = errors.New("flag value out of range")

// uintFlag reads a uint flag, rejecting values above max rather than
// truncating them.
func uintFlag(c *cli.Context, name string, max uint64) (uint64, error) {
	v := uint64(c.Uint(name))
	if v > max {
		return 0, fmt.Errorf("%w: --%s %d exceeds %d", errFlagRange, name, v, max)
	}
	return v, nil
}

var compressFlag = &cli.StringFlag{Name: "compress", Value: "none", Usage: "Wrap the output (none, yaz0, zstd, lz4)"}
