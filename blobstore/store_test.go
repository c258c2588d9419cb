package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	src := []byte("abcdef")
	require.NoError(t, store.Put(ctx, "a/one", src))
	require.NoError(t, store.Put(ctx, "b/two", []byte("x")))
	src[0] = 'z'

	b, err := store.Open(ctx, "a/one")
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = b.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf), "put copies its input")

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one"}, names)

	require.NoError(t, store.Delete(ctx, "a/one"))
	_, err = store.Open(ctx, "a/one")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBlobCanceled(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "x", []byte("data")))
	b, err := store.Open(context.Background(), "x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.ReadAt(ctx, make([]byte, 1), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompressionOf(t *testing.T) {
	assert.Equal(t, CompressionZSTD, CompressionOf("movies.arrow.zst"))
	assert.Equal(t, CompressionZSTD, CompressionOf("movies.arrow.zstd"))
	assert.Equal(t, CompressionLZ4, CompressionOf("movies.arrow.lz4"))
	assert.Equal(t, CompressionNone, CompressionOf("movies.arrow"))
	assert.Equal(t, "zst", CompressionZSTD.String())
}

func TestReadAllDecompresses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := bytes.Repeat([]byte("falcon crossfilter "), 512)

	for _, c := range []Compression{CompressionNone, CompressionZSTD, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			framed, err := Compress(c, data)
			require.NoError(t, err)
			if c != CompressionNone {
				assert.Less(t, len(framed), len(data))
			}

			name := "dataset.arrow"
			if c != CompressionNone {
				name += "." + c.String()
			}
			require.NoError(t, store.Put(ctx, name, framed))

			got, err := ReadAll(ctx, store, name)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := Decompress(CompressionZSTD, []byte("not zstd"))
	assert.Error(t, err)
	_, err = Decompress(CompressionLZ4, []byte("not lz4"))
	assert.Error(t, err)
}

func TestReaderAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "x", []byte("0123456789")))
	b, err := store.Open(ctx, "x")
	require.NoError(t, err)

	r := io.NewSectionReader(ReaderAt(ctx, b), 2, 4)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(got))
}
