// Package arrowdb serves Apache Arrow data through the columnar backend.
//
// Datasets are Arrow IPC files or streams, optionally zstd or lz4 framed,
// loaded from any blobstore.Store:
//
//	db, err := arrowdb.Load(ctx, blobstore.NewLocalStore("data"), "movies.arrow.zst")
//	if err != nil { ... }
//	defer db.Release()
//
//	f := falcon.New(db)
//
// Cells are read straight from the Arrow buffers. Integer columns become
// int values, floating point columns floats, string and dictionary columns
// strings. Timestamps and dates become float milliseconds since the epoch.
package arrowdb
