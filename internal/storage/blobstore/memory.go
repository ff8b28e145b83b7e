package blobstore

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded blobs in a map. Used for tests and single-shot
// CLI runs; data does not survive the process.
type MemoryStore struct {
	mu         sync.RWMutex
	blobs      map[string][]byte
	closed     bool
	compressor Compressor
	config     *Config
}

// NewMemoryStore creates an in-memory blob store.
func NewMemoryStore(config *Config) (Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	comp, err := GetCompressor(config.Compressor)
	if err != nil {
		return nil, err
	}

	return &MemoryStore{
		blobs:      make(map[string][]byte),
		compressor: comp,
		config:     config,
	}, nil
}

func (s *MemoryStore) Name() string {
	return "memory"
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	encoded, err := EncodeBlob(data, s.compressor, s.config.MinCompressSize)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.blobs[key] = encoded
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	encoded, ok := s.blobs[key]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return nil, ErrStoreClosed
	}
	if !ok {
		return nil, ErrNotFound
	}
	return DecodeBlob(encoded)
}

func (s *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.blobs = nil
	return nil
}
