package arrowdb

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/hupe1980/falcon/backend"
	"github.com/hupe1980/falcon/backend/columnar"
	"github.com/hupe1980/falcon/blobstore"
)

// fileMagic opens every Arrow IPC file; streams lack it.
var fileMagic = []byte("ARROW1")

// DB is a columnar backend over an Arrow table.
type DB struct {
	*columnar.DB
	tbl *Table
}

var _ backend.Backend = (*DB)(nil)

// New serves tbl. The DB holds its own reference to tbl.
func New(tbl arrow.Table, optFns ...Option) (*DB, error) {
	opts := applyOptions(optFns)
	t, err := NewTable(tbl)
	if err != nil {
		return nil, err
	}
	return &DB{DB: columnar.New(t, opts.columnar...), tbl: t}, nil
}

// FromRecords serves the concatenation of recs.
func FromRecords(schema *arrow.Schema, recs []arrow.Record, optFns ...Option) (*DB, error) {
	tbl := array.NewTableFromRecords(schema, recs)
	defer tbl.Release()
	return New(tbl, optFns...)
}

// Arrow returns the wrapped table.
func (db *DB) Arrow() *Table { return db.tbl }

// Release frees the Arrow buffers. The DB must not be used afterwards.
func (db *DB) Release() { db.tbl.Release() }

// Load reads the named IPC file or stream from store.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*DB, error) {
	if blobstore.CompressionOf(name) == blobstore.CompressionNone {
		b, err := store.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		defer func() { _ = b.Close() }()

		head := make([]byte, len(fileMagic))
		if n, _ := b.ReadAt(ctx, head, 0); n == len(head) && bytes.Equal(head, fileMagic) {
			db, err := readFile(io.NewSectionReader(blobstore.ReaderAt(ctx, b), 0, b.Size()), optFns)
			if err != nil {
				return nil, fmt.Errorf("arrowdb: load %s: %w", name, err)
			}
			return db, nil
		}
	}

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	db, err := Read(data, optFns...)
	if err != nil {
		return nil, fmt.Errorf("arrowdb: load %s: %w", name, err)
	}
	return db, nil
}

// Read decodes an IPC file or stream held in memory.
func Read(data []byte, optFns ...Option) (*DB, error) {
	if bytes.HasPrefix(data, fileMagic) {
		return readFile(bytes.NewReader(data), optFns)
	}
	return ReadStream(bytes.NewReader(data), optFns...)
}

func readFile(r ipc.ReadAtSeeker, optFns []Option) (*DB, error) {
	opts := applyOptions(optFns)
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(opts.mem))
	if err != nil {
		return nil, err
	}
	defer func() { _ = fr.Close() }()

	recs := make([]arrow.Record, 0, fr.NumRecords())
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.RecordAt(i)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return FromRecords(fr.Schema(), recs, optFns...)
}

// ReadStream decodes an IPC stream.
func ReadStream(r io.Reader, optFns ...Option) (*DB, error) {
	opts := applyOptions(optFns)
	sr, err := ipc.NewReader(r, ipc.WithAllocator(opts.mem))
	if err != nil {
		return nil, err
	}
	defer sr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for sr.Next() {
		rec := sr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := sr.Err(); err != nil {
		return nil, err
	}
	return FromRecords(sr.Schema(), recs, optFns...)
}
