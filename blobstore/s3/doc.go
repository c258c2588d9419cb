// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	db, err := arrowdb.Load(ctx, store, "movies.arrow.zst")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
