package minio

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/falcon/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := envOr("MINIO_ENDPOINT", "localhost:9000")
	bucket := "test-falcon"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(envOr("MINIO_ACCESS_KEY", "minioadmin"), envOr("MINIO_SECRET_KEY", "minioadmin"), ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err = client.ListBuckets(probeCtx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := bytes.Repeat([]byte("hello minio world "), 64)
	framed, err := blobstore.Compress(blobstore.CompressionLZ4, data)
	require.NoError(t, err)

	for name, body := range map[string][]byte{"test-prefix/raw.bin": data, "test-prefix/raw.bin.lz4": framed} {
		_, err = client.PutObject(ctx, bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{})
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		_ = client.RemoveObject(ctx, bucket, "test-prefix/raw.bin", minio.RemoveObjectOptions{})
		_ = client.RemoveObject(ctx, bucket, "test-prefix/raw.bin.lz4", minio.RemoveObjectOptions{})
	})

	store := NewStore(client, bucket, "test-prefix/")

	blob, err := store.Open(ctx, "raw.bin")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "minio", string(buf))

	_, err = blob.ReadAt(ctx, make([]byte, 10), int64(len(data))-2)
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw.bin", "raw.bin.lz4"}, names)

	got, err := blobstore.ReadAll(ctx, store, "raw.bin.lz4")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = store.Open(ctx, "missing.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
