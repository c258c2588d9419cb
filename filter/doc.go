// Package filter defines brushes and the shared per-dimension filter set.
//
// A Filter is either a half-open numeric interval [Lo, Hi) or a set of
// categories. The zero Filter means "unfiltered". Filters are values: they
// are compared with Equal and identified in caches by Key.
package filter
