// Package sqlite is a SQL backend over an embedded SQLite database.
//
// Counting is pushed into GROUP BY queries. Continuous bins and active
// pixels are computed in SQL; categorical cells are grouped by value and
// mapped to their bins in Go so that category matching follows
// value.Value.Key. Index builds issue one query per passive view, bounded
// by a concurrency cap and an optional query rate:
//
//	db, err := sqlite.Open(ctx, "movies.db", sqlite.WithTable("movies"), sqlite.WithMaxConcurrency(4))
//	if err != nil { ... }
//	defer db.Close()
//
//	f := falcon.New(db)
package sqlite
