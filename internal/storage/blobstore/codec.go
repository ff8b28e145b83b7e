package blobstore

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/ugorji/go/codec"
)

var cborHandle = &codec.CborHandle{}

// blobEnvelope is the stored representation of a blob: the payload plus the
// metadata needed to restore and verify it.
type blobEnvelope struct {
	Compressor   string `codec:"c"`
	OriginalSize int64  `codec:"s"`
	Checksum     []byte `codec:"h"`
	StoredAt     int64  `codec:"t"`
	Payload      []byte `codec:"p"`
}

// EncodeBlob wraps raw data in a CBOR envelope, compressing when it pays off.
func EncodeBlob(data []byte, comp Compressor, minCompressSize int) ([]byte, error) {
	payload := data
	name := "none"

	if comp != nil && comp.Name() != "none" && len(data) >= minCompressSize {
		compressed, err := comp.Compress(data)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(data) {
			payload = compressed
			name = comp.Name()
		}
	}

	sum := sha256.Sum256(data)
	env := blobEnvelope{
		Compressor:   name,
		OriginalSize: int64(len(data)),
		Checksum:     sum[:],
		StoredAt:     time.Now().UTC().UnixNano(),
		Payload:      payload,
	}

	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, cborHandle).Encode(&env); err != nil {
		return nil, fmt.Errorf("failed to encode blob envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBlob unwraps a stored envelope, decompresses and verifies the
// checksum.
func DecodeBlob(stored []byte) ([]byte, error) {
	var env blobEnvelope
	if err := codec.NewDecoderBytes(stored, cborHandle).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode blob envelope: %w", err)
	}

	comp, err := GetCompressor(env.Compressor)
	if err != nil {
		return nil, err
	}

	data, err := comp.Decompress(env.Payload, int(env.OriginalSize))
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	if !bytes.Equal(sum[:], env.Checksum) {
		return nil, ErrCorrupt
	}
	return data, nil
}
