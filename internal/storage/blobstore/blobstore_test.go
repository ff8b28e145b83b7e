package blobstore

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(DefaultConfig())
	require.NoError(t, err)
	defer store.Close()

	data := []byte(strings.Repeat("4600123456 settlement line content\n", 50))
	require.NoError(t, store.Put(ctx, "job-1", data))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, data, got)

	ok, err := store.Has(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Has(ctx, "job-2")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, "job-1"))
	_, err = store.Get(ctx, "job-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := Open(DefaultConfig())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "k", []byte("first")))
	require.NoError(t, store.Put(ctx, "k", []byte("second")))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)
}

func TestEncodeBlobCompresses(t *testing.T) {
	comp, err := GetCompressor("lz4")
	require.NoError(t, err)

	// Highly repetitive payload compresses well
	data := bytes.Repeat([]byte("0000000000050000CR"), 200)
	encoded, err := EncodeBlob(data, comp, 128)
	require.NoError(t, err)
	require.Less(t, len(encoded), len(data))

	decoded, err := DecodeBlob(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestEncodeBlobSkipsSmallPayloads(t *testing.T) {
	comp, err := GetCompressor("lz4")
	require.NoError(t, err)

	data := []byte("tiny")
	encoded, err := EncodeBlob(data, comp, 128)
	require.NoError(t, err)

	decoded, err := DecodeBlob(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestEncodeBlobIncompressibleFallsBack(t *testing.T) {
	comp, err := GetCompressor("lz4")
	require.NoError(t, err)

	// Pseudo-random bytes do not shrink under lz4
	data := make([]byte, 4096)
	seed := uint32(0x9e3779b9)
	for i := range data {
		seed = seed*1664525 + 1013904223
		data[i] = byte(seed >> 24)
	}

	encoded, err := EncodeBlob(data, comp, 128)
	require.NoError(t, err)

	decoded, err := DecodeBlob(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestDecodeBlobDetectsCorruption(t *testing.T) {
	comp, err := GetCompressor("none")
	require.NoError(t, err)

	encoded, err := EncodeBlob([]byte("settlement content"), comp, 0)
	require.NoError(t, err)

	// Flip a byte near the end, inside the stored payload
	corrupted := append([]byte(nil), encoded...)
	corrupted[len(corrupted)-2] ^= 0xff

	_, err = DecodeBlob(corrupted)
	require.Error(t, err)
}

func TestAvailableBackends(t *testing.T) {
	names := Available()
	require.Contains(t, names, "memory")
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(&Config{Backend: "bogus"})
	require.Error(t, err)
}

func TestNoCompressorRoundTrip(t *testing.T) {
	comp, err := GetCompressor("none")
	require.NoError(t, err)

	data := []byte("as-is")
	c, err := comp.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, c)

	d, err := comp.Decompress(c, len(data))
	require.NoError(t, err)
	require.Equal(t, data, d)
}
