// Package testutil provides deterministic datasets for tests and examples.
//
// This package is intended for use in tests, benchmarks and demos only.
//
// # Movies
//
//	rows := testutil.Movies(testutil.NewRNG(42))
//
// Movies returns 3201 rows with the columns Title, US_Gross, MPAA_Rating,
// IMDB_Rating and Running_Time_min. The distribution is fixed: 2559 rows
// gross under 200M, of which 1977 are rated PG-13 or R.
//
// # Random tables
//
//	tbl := testutil.NewRNG(7).RandomTable(10_000, 0.05)
//
// RandomTable has continuous columns x and y and a categorical column c,
// with the given fraction of nulls per column.
package testutil
