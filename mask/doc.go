// Package mask builds and caches per-dimension filter masks.
//
// A Mask is a roaring bitmap of excluded rows: bit set means the row fails
// the dimension's filter. Masks are pure functions of (column, filter), so the
// Cache only saves work and never changes results. Row ids are uint32, which
// caps a table at 2^32 rows.
package mask
