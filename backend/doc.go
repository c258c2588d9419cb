// Package backend defines what a data source must provide to the engine.
//
// Backends answer row counts, extents, histograms and index builds for a
// single table. In-process backends (columnar, arrowdb) scan synchronously;
// remote backends (sqlite) fan out one query per passive view and report
// per-view failures inside the returned index instead of failing the batch.
package backend
