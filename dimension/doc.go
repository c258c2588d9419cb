// Package dimension describes a column's value domain and how it is
// discretized.
//
// A continuous dimension is binned by a BinConfig{Start, Stop, Step} and, when
// it is the active dimension, further divided into Resolution pixels that form
// the cumulative axis of an index cube. A categorical dimension maps each of its
// ordered categories to the bin at the same position.
//
// Extents that are not supplied up front are resolved once from the backend
// and frozen; later data changes are not observed.
package dimension
