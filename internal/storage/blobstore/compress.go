package blobstore

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4"
)

// Compressor defines the interface for blob compression algorithms.
type Compressor interface {
	// Name returns the name of the compression algorithm.
	Name() string

	// Compress compresses the input data.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses the input data. The original size is supplied
	// so the output buffer can be allocated exactly.
	Decompress(data []byte, originalSize int) ([]byte, error)
}

// CompressorFactory is a function that creates a new compressor instance.
type CompressorFactory func() Compressor

var (
	compressorMu sync.RWMutex
	compressors  = make(map[string]CompressorFactory)
)

// RegisterCompressor registers a compressor factory with the given name.
func RegisterCompressor(name string, factory CompressorFactory) {
	compressorMu.Lock()
	defer compressorMu.Unlock()
	compressors[name] = factory
}

// GetCompressor returns a new compressor instance for the given name.
func GetCompressor(name string) (Compressor, error) {
	compressorMu.RLock()
	factory, ok := compressors[name]
	compressorMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return factory(), nil
}

// NoCompressor implements a pass-through compressor.
type NoCompressor struct{}

func (c *NoCompressor) Name() string {
	return "none"
}

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (c *NoCompressor) Decompress(data []byte, originalSize int) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// LZ4Compressor implements LZ4 block compression.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string {
	return "lz4"
}

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		// Incompressible input; CompressBlock signals this with n == 0.
		result := make([]byte, len(data))
		copy(result, data)
		return result, nil
	}
	return compressed[:n], nil
}

func (c *LZ4Compressor) Decompress(data []byte, originalSize int) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	if originalSize <= 0 {
		return nil, fmt.Errorf("lz4 decompression requires the original size")
	}

	decompressed := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(data, decompressed)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	return decompressed[:n], nil
}

func init() {
	RegisterCompressor("none", func() Compressor { return &NoCompressor{} })
	RegisterCompressor("lz4", func() Compressor { return &LZ4Compressor{} })
}
