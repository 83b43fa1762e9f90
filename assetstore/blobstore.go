package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"

	azStorageBlob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
)

const (
	azblobBlobNotFound = "BlobNotFound"

	// TagContentHash names the blob index tag carrying ContentHash of the
	// blob.
	TagContentHash = "contentHash"
)

// BlobClient is the subset of *azblob.Storer the store needs.
type BlobClient interface {
	Reader(ctx context.Context, identity string, opts ...azblob.Option) (*azblob.ReaderResponse, error)
	Put(ctx context.Context, identity string, source io.ReadSeekCloser, opts ...azblob.Option) (*azblob.WriteResponse, error)
}

type BlobOption func(*BlobStore)

// WithBlobTags adds index tags to every blob written.
func WithBlobTags(tags map[string]string) BlobOption {
	return func(s *BlobStore) { maps.Copy(s.tags, tags) }
}

// WithPrefix stores every asset below prefix in the container.
func WithPrefix(prefix string) BlobOption {
	return func(s *BlobStore) { s.prefix = prefix }
}

// BlobStore keeps assets as blobs, tagging each with its content hash.
type BlobStore struct {
	log    logger.Logger
	client BlobClient
	prefix string
	tags   map[string]string
}

func NewBlobStore(log logger.Logger, client BlobClient, opts ...BlobOption) *BlobStore {
	s := &BlobStore{log: log, client: client, tags: map[string]string{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BlobStore) identity(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return path.Join(s.prefix, clean), nil
}

// Get reads a blob, checking it against its content hash tag when present.
func (s *BlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	id, err := s.identity(name)
	if err != nil {
		return nil, err
	}
	rr, err := s.client.Reader(ctx, id, azblob.WithGetTags())
	if err != nil {
		return nil, blobError(id, err)
	}
	defer rr.Reader.Close()
	data, err := io.ReadAll(rr.Reader)
	if err != nil {
		return nil, err
	}
	if want, ok := rr.Tags[TagContentHash]; ok && want != ContentHash(data) {
		return nil, fmt.Errorf("%w: %s", ErrHashMismatch, id)
	}
	return data, nil
}

func (s *BlobStore) Put(ctx context.Context, name string, data []byte) error {
	id, err := s.identity(name)
	if err != nil {
		return err
	}
	tags := maps.Clone(s.tags)
	tags[TagContentHash] = ContentHash(data)
	if _, err := s.client.Put(ctx, id, azblob.NewBytesReaderCloser(data), azblob.WithTags(tags)); err != nil {
		return blobError(id, err)
	}
	s.log.Debugf("stored blob %s (%d bytes)", id, len(data))
	return nil
}

// blobError maps the SDK's BlobNotFound onto ErrNotFound and names the
// blob in every other failure.
func blobError(id string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	if storageErrorCode(err) == azblobBlobNotFound {
		return fmt.Errorf("%w: %s: %v", ErrNotFound, id, err)
	}
	return fmt.Errorf("blob %s: %w", id, err)
}

func storageErrorCode(err error) string {
	var ierr *azStorageBlob.InternalError
	if !errors.As(err, &ierr) || ierr == nil {
		return ""
	}
	serr := &azStorageBlob.StorageError{}
	if !ierr.As(&serr) {
		return ""
	}
	return string(serr.ErrorCode)
}
