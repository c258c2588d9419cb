// Package value provides the typed cell values that flow between backends,
// dimensions and filters.
//
// Values are small tagged structs rather than interface{} so that binning and
// mask construction never go through reflection:
//
//	value.Float(3.5)
//	value.String("PG-13")
//	value.Null()
//
// Every value has a stable Key() used for category lookup maps and filter
// mask cache keys.
package value
