// Package falcon links histograms and counts over a table so that brushing
// one view updates every other view in time independent of the row count.
//
// # Quick Start
//
//	ctx := context.Background()
//	db := columnar.New(tbl)
//	f := falcon.New(db)
//
//	count, _ := f.View0D(ctx)
//	gross, _ := f.View1D(ctx, dimension.Continuous("US_Gross", dimension.WithResolution(400)))
//	rating, _ := f.View1D(ctx, dimension.Categorical("MPAA_Rating"))
//
//	count.OnChange(func(s falcon.CountState) { fmt.Println(s.Filter, "of", s.Total) })
//	_ = f.Link(ctx)
//
//	_ = gross.Activate(ctx)                         // build the index once
//	_ = gross.Select(ctx, filter.Range(0, 2e8))      // O(resolution) per passive view
//	_ = rating.Activate(ctx)
//	_ = rating.Select(ctx, filter.Set(value.Strings("PG-13", "R")...))
//
// # Views
//
// A View0D reports a row count; a View1D reports the bins of one dimension.
// At most one View1D is active. Activating a view clears its own filter and
// asks the backend for an index cube per passive view; Select then answers
// every brush from those cubes without touching the backend.
//
// # Listeners
//
// OnChange callbacks run synchronously in the goroutine that caused the
// change, after the engine lock is released. A passive view whose cube
// failed to build receives no update.
//
// # Concurrency
//
// Operations are safe for concurrent use. Backend calls are made without
// holding the engine lock; every state change bumps a generation counter and
// results computed under an older generation are dropped with
// ErrStaleGeneration.
//
// # Counts
//
// Counts are int64. Prefix sums over a table of at most 2^32 rows (the
// filter mask limit) cannot overflow.
package falcon
