package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"
)

// DirStore keeps assets as files below Root.
type DirStore struct {
	Log  logger.Logger
	Root string
}

func NewDirStore(log logger.Logger, root string) *DirStore {
	return &DirStore{Log: log, Root: root}
}

func (s *DirStore) path(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

func (s *DirStore) Get(ctx context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, err
}

// Put writes data to a uniquely named temporary file beside the target and
// renames it into place, so readers never see a partial asset.
func (s *DirStore) Put(ctx context.Context, name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%s.tmp", p, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	s.Log.Debugf("stored %s (%d bytes)", name, len(data))
	return nil
}

// Names lists every asset below Root in lexical order.
func (s *DirStore) Names() ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	return names, err
}
