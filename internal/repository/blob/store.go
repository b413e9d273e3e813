// Package blob stores raw uploaded file bytes by storage path.
package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/policy-oracle/policyoracle/internal/db"
	"github.com/policy-oracle/policyoracle/internal/domain"
)

const keyPrefix = "blob:"

// kv is the consumer interface for blob persistence (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Store implements ingest.BlobStore on the shared KV store.
type Store struct {
	kv kv
}

// New creates a blob store.
func New(kv kv) *Store {
	return &Store{kv: kv}
}

// Upload stores uploaded bytes under the given path.
func (s *Store) Upload(ctx context.Context, path string, data []byte) error {
	if err := s.kv.Set(ctx, blobKey(path), data); err != nil {
		return fmt.Errorf("set blob %s: %w", path, err)
	}
	return nil
}

// Download returns the bytes stored under the given path.
func (s *Store) Download(ctx context.Context, path string) ([]byte, error) {
	data, err := s.kv.Get(ctx, blobKey(path))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("blob %s: %w", path, domain.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("get blob %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the bytes stored under the given path. Deleting an
// absent path is a no-op.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.kv.Del(ctx, blobKey(path)); err != nil {
		return fmt.Errorf("del blob %s: %w", path, err)
	}
	return nil
}

func blobKey(path string) string {
	return keyPrefix + path
}
