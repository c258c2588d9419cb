// Package counts implements strided integer count arrays.
//
// An *Array owns its buffer and may be mutated. A View is a read-only,
// zero-copy window into an Array produced by Slice; it cannot write through
// to the buffer. Element type is int64, exact for any realistic row count and
// for prefix sums over it.
package counts
