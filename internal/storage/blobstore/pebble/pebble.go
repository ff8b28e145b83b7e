// Package pebble provides a PebbleDB-backed blob store for long-lived
// deployments where uploaded files must survive restarts.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/openclearing/epinflow/internal/storage/blobstore"
)

// Store implements blobstore.Store on top of PebbleDB. Payload compression
// is handled by the blobstore envelope; pebble's own block compression is
// left at its defaults.
type Store struct {
	db         *pebble.DB
	path       string
	compressor blobstore.Compressor
	config     *blobstore.Config
	closed     int64
}

// New opens (or creates) a pebble blob store at config.Path.
func New(config *blobstore.Config) (blobstore.Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("pebble blob backend requires a path")
	}

	comp, err := blobstore.GetCompressor(config.Compressor)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", config.Path, err)
	}

	db, err := pebble.Open(config.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", config.Path, err)
	}

	return &Store{
		db:         db,
		path:       config.Path,
		compressor: comp,
		config:     config,
	}, nil
}

func (s *Store) Name() string {
	return fmt.Sprintf("pebble(%s)", s.path)
}

func (s *Store) isClosed() bool {
	return atomic.LoadInt64(&s.closed) == 1
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if s.isClosed() {
		return blobstore.ErrStoreClosed
	}

	encoded, err := blobstore.EncodeBlob(data, s.compressor, s.config.MinCompressSize)
	if err != nil {
		return err
	}
	if err := s.db.Set([]byte(key), encoded, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s.isClosed() {
		return nil, blobstore.ErrStoreClosed
	}

	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("pebble get failed: %w", err)
	}

	encoded := make([]byte, len(value))
	copy(encoded, value)
	closer.Close()

	return blobstore.DecodeBlob(encoded)
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if s.isClosed() {
		return false, blobstore.ErrStoreClosed
	}

	_, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("pebble get failed: %w", err)
	}
	closer.Close()
	return true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return blobstore.ErrStoreClosed
	}
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt64(&s.closed, 0, 1) {
		return nil
	}
	return s.db.Close()
}

func init() {
	blobstore.Register("pebble", New)
}
