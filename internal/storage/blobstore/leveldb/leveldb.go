// Package leveldb provides a goleveldb-backed blob store. It is the lighter
// persistent option; prefer pebble for high write volumes.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/openclearing/epinflow/internal/storage/blobstore"
)

// Store implements blobstore.Store on top of goleveldb.
type Store struct {
	db         *leveldb.DB
	path       string
	compressor blobstore.Compressor
	config     *blobstore.Config
	closed     int64
}

// New opens (or creates) a leveldb blob store at config.Path.
func New(config *blobstore.Config) (blobstore.Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("leveldb blob backend requires a path")
	}

	comp, err := blobstore.GetCompressor(config.Compressor)
	if err != nil {
		return nil, err
	}

	db, err := leveldb.OpenFile(config.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", config.Path, err)
	}

	return &Store{
		db:         db,
		path:       config.Path,
		compressor: comp,
		config:     config,
	}, nil
}

func (s *Store) Name() string {
	return fmt.Sprintf("leveldb(%s)", s.path)
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
	if err := s.db.Put([]byte(key), encoded, nil); err != nil {
		return fmt.Errorf("leveldb put failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s.isClosed() {
		return nil, blobstore.ErrStoreClosed
	}

	encoded, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("leveldb get failed: %w", err)
	}
	return blobstore.DecodeBlob(encoded)
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if s.isClosed() {
		return false, blobstore.ErrStoreClosed
	}

	ok, err := s.db.Has([]byte(key), nil)
	if err != nil {
		return false, fmt.Errorf("leveldb has failed: %w", err)
	}
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return blobstore.ErrStoreClosed
	}
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("leveldb delete failed: %w", err)
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
	blobstore.Register("leveldb", New)
}
