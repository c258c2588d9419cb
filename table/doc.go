// Package table defines the read-only columnar table the in-process backends
// scan, plus an in-memory implementation and row loaders.
package table
