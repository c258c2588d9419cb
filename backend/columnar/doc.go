// Package columnar is the in-process reference backend. It scans any
// table.Table synchronously and memoizes filter masks in an LRU cache.
package columnar
