package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading immutable data blobs (datasets).
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
}

// Lister is implemented by stores that can enumerate their blobs.
type Lister interface {
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off. It returns io.EOF when
	// fewer bytes are available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ReaderAt adapts a Blob to io.ReaderAt, binding ctx to every read.
func ReaderAt(ctx context.Context, b Blob) io.ReaderAt {
	return readerAt{ctx: ctx, b: b}
}

type readerAt struct {
	ctx context.Context
	b   Blob
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) { return r.b.ReadAt(r.ctx, p, off) }

// ReadAll opens name and returns its decompressed content. The compression
// is derived from the name's suffix.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	var data []byte
	if m, ok := b.(Mappable); ok {
		mapped, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		// The mapping dies with the blob.
		data = append([]byte(nil), mapped...)
	} else {
		data = make([]byte, b.Size())
		n, err := b.ReadAt(ctx, data, 0)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
		}
		if int64(n) != b.Size() {
			return nil, fmt.Errorf("blobstore: read %s: %w", name, io.ErrUnexpectedEOF)
		}
	}

	return Decompress(CompressionOf(name), data)
}
