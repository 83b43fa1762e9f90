// Package assetstore persists extracted and built assets, either under a
// local directory or in an Azure blob container.
package assetstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/zeebo/blake3"
)

var (
	ErrNotFound     = errors.New("assetstore: asset not found")
	ErrBadName      = errors.New("assetstore: asset name escapes the store")
	ErrHashMismatch = errors.New("assetstore: content hash mismatch")
)

// Store reads and writes named assets. Names use forward slashes.
type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
}

// ContentHash returns the hex blake3-256 digest of data.
func ContentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// cleanName returns name in clean slash form, rejecting names that leave the
// store.
func cleanName(name string) (string, error) {
	clean := path.Clean(name)
	if name == "" || clean == "." || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return clean, nil
}
