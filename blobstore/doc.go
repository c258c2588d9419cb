// Package blobstore provides read access to immutable datasets.
//
// A Store opens named blobs. Datasets are loaded whole by the Arrow backend,
// so the contract is small: random access reads, a size and Close.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory blobs, mainly for tests
//   - LocalStore: local filesystem with mmap support
//   - s3.Store: Amazon S3 with range reads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Compression
//
// Blobs named with a ".zst" or ".lz4" suffix are decompressed by ReadAll:
//
//	data, err := blobstore.ReadAll(ctx, store, "movies.arrow.zst")
package blobstore
