// Package blobstore provides key-addressed storage for raw uploaded
// settlement files. Jobs keep only a blob key; a retry re-reads the original
// bytes from here instead of requiring a re-upload. Payloads are lz4
// compressed above a size threshold and wrapped in a CBOR envelope that
// records the compressor and a content checksum.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrStoreClosed = errors.New("blob store is closed")
	ErrCorrupt     = errors.New("blob checksum mismatch")
)

// Store is the backend-independent blob interface.
type Store interface {
	// Name returns a human-readable name for this backend.
	Name() string

	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error

	Close() error
}

// Config selects and tunes a blob backend.
type Config struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path" mapstructure:"path"`

	Compressor string `json:"compressor" mapstructure:"compressor"`
	// MinCompressSize is the payload size below which compression is skipped.
	MinCompressSize int `json:"min_compress_size" mapstructure:"min_compress_size"`
}

// DefaultConfig returns an in-memory store with lz4 compression.
func DefaultConfig() *Config {
	return &Config{
		Backend:         "memory",
		Compressor:      "lz4",
		MinCompressSize: 128,
	}
}

// Factory is a function that creates a new backend instance.
type Factory func(config *Config) (Store, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]Factory)
)

// Register registers a backend factory with the given name.
func Register(name string, factory Factory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = factory
}

// Open creates a store for the configured backend.
func Open(config *Config) (Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	backendMu.RLock()
	factory, ok := backends[config.Backend]
	backendMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown blob backend: %s", config.Backend)
	}
	return factory(config)
}

// Available returns a list of registered backend names.
func Available() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

func init() {
	Register("memory", NewMemoryStore)
}
