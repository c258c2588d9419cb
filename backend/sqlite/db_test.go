package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/falcon/backend"
	"github.com/hupe1980/falcon/backend/columnar"
	"github.com/hupe1980/falcon/cube"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/testutil"
	"github.com/hupe1980/falcon/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTable(t *testing.T, tbl table.Table, optFns ...Option) *DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "falcon.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, Import(ctx, raw, "movies", tbl))
	require.NoError(t, raw.Close())

	db, err := Open(ctx, path, append([]Option{WithTable("movies")}, optFns...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func moviesTable() *table.Memory {
	return testutil.MoviesTable(testutil.NewRNG(42))
}

func TestSchema(t *testing.T) {
	ctx := context.Background()
	db := openTable(t, moviesTable())

	ok, err := db.TableExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.DimensionExists(ctx, dimension.Continuous("US_Gross"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.DimensionExists(ctx, dimension.Continuous("Budget"))
	require.NoError(t, err)
	assert.False(t, ok)

	other := New(db.SQL(), WithTable("nope"))
	ok, err = other.TableExists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, other.Close(), "borrowed handles stay open")
	_, err = db.Length(ctx, filter.NewFilters())
	require.NoError(t, err)
}

func TestMatchesColumnar(t *testing.T) {
	ctx := context.Background()
	tbl := moviesTable()
	ref := columnar.New(tbl)
	db := openTable(t, tbl, WithMaxConcurrency(2))

	refIv, err := ref.Extent(ctx, dimension.Continuous("US_Gross"))
	require.NoError(t, err)
	iv, err := db.Extent(ctx, dimension.Continuous("US_Gross"))
	require.NoError(t, err)
	assert.Equal(t, refIv, iv)

	refCats, err := ref.Categories(ctx, dimension.Categorical("MPAA_Rating"))
	require.NoError(t, err)
	cats, err := db.Categories(ctx, dimension.Categorical("MPAA_Rating"))
	require.NoError(t, err)
	assert.Equal(t, refCats, cats)

	resolved := func(b backend.Backend) (gross, rating, imdb *dimension.Dimension) {
		gross = dimension.Continuous("US_Gross")
		rating = dimension.Categorical("MPAA_Rating")
		imdb = dimension.Continuous("IMDB_Rating", dimension.WithMaxBins(10))
		for _, d := range []*dimension.Dimension{gross, rating, imdb} {
			require.NoError(t, backend.Resolve(ctx, b, d))
		}
		return gross, rating, imdb
	}
	rg, rr, ri := resolved(ref)
	g, r, i := resolved(db)

	filters := func(gross, rating, imdb *dimension.Dimension) filter.Filters {
		fs := filter.NewFilters()
		fs.Set(gross, filter.Range(1e7, 3e8))
		fs.Set(rating, filter.Set(value.String("R"), value.Null()))
		fs.Set(imdb, filter.Range(3, 8))
		return fs
	}
	rfs, fs := filters(rg, rr, ri), filters(g, r, i)

	n, err := db.Length(ctx, fs)
	require.NoError(t, err)
	want, err := ref.Length(ctx, rfs)
	require.NoError(t, err)
	assert.Equal(t, want, n)

	for _, pair := range [][2]*dimension.Dimension{{rg, g}, {rr, r}, {ri, i}} {
		wh, err := ref.Histogram(ctx, pair[0], rfs)
		require.NoError(t, err)
		gh, err := db.Histogram(ctx, pair[1], fs)
		require.NoError(t, err)
		assert.Equal(t, wh.Unfiltered.Values(), gh.Unfiltered.Values(), pair[0].Name)
		assert.Equal(t, wh.Filtered.Values(), gh.Filtered.Values(), pair[0].Name)
	}

	cases := []struct {
		name           string
		active         [2]*dimension.Dimension
		passiveA, pasB [2]*dimension.Dimension
	}{
		{"continuous active", [2]*dimension.Dimension{rg, g}, [2]*dimension.Dimension{rr, r}, [2]*dimension.Dimension{ri, i}},
		{"categorical active", [2]*dimension.Dimension{rr, r}, [2]*dimension.Dimension{rg, g}, [2]*dimension.Dimension{ri, i}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			passives := func(k int) []cube.Passive {
				return []cube.Passive{{ID: 1}, {ID: 2, Dimension: tc.passiveA[k]}, {ID: 3, Dimension: tc.pasB[k]}}
			}
			wix, err := ref.BuildIndex(ctx, tc.active[0], passives(0), rfs)
			require.NoError(t, err)
			gix, err := db.BuildIndex(ctx, tc.active[1], passives(1), fs)
			require.NoError(t, err)
			for _, id := range []cube.ViewID{1, 2, 3} {
				w, err := wix.Lookup(id)
				require.NoError(t, err)
				g, err := gix.Lookup(id)
				require.NoError(t, err)
				assert.Equal(t, w.Filtered.Shape(), g.Filtered.Shape())
				assert.Equal(t, w.Filtered.Values(), g.Filtered.Values(), "view %d", id)
				assert.Equal(t, w.Baseline(), g.Baseline(), "view %d", id)
				assert.Equal(t, w.Cumulative, g.Cumulative)
			}
		})
	}
}

func TestMoviesCounts(t *testing.T) {
	ctx := context.Background()
	db := openTable(t, moviesTable(), WithQueryRate(1000))

	gross := dimension.Continuous("US_Gross")
	rating := dimension.Categorical("MPAA_Rating")
	require.NoError(t, backend.Resolve(ctx, db, gross))
	require.NoError(t, backend.Resolve(ctx, db, rating))

	ix, err := db.BuildIndex(ctx, gross, []cube.Passive{{ID: 1}, {ID: 2, Dimension: rating}}, filter.NewFilters())
	require.NoError(t, err)
	count, err := ix.Lookup(1)
	require.NoError(t, err)
	got, err := count.Query(filter.Range(0, 2e8))
	require.NoError(t, err)
	assert.Equal(t, []int64{testutil.MoviesUnder200M}, got)
	assert.Equal(t, []int64{testutil.MoviesRows}, count.Baseline())
}

func TestBuildIndexViewFailures(t *testing.T) {
	ctx := context.Background()
	db := openTable(t, moviesTable())

	gross := dimension.Continuous("US_Gross", dimension.WithExtent(0, testutil.MoviesMaxGross))
	missing := dimension.Categorical("Studio", value.String("A"))
	ix, err := db.BuildIndex(ctx, gross, []cube.Passive{
		{ID: 1},
		{ID: 2, Dimension: missing},
		{ID: 3, Dimension: gross},
	}, filter.NewFilters())
	require.NoError(t, err)

	_, err = ix.Lookup(1)
	require.NoError(t, err)

	_, err = ix.Lookup(2)
	var ve *cube.ViewError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, cube.ViewID(2), ve.View)

	_, err = ix.Lookup(3)
	assert.ErrorIs(t, err, cube.ErrSelfActiveFilter)
}

func TestCanceled(t *testing.T) {
	db := openTable(t, moviesTable())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gross := dimension.Continuous("US_Gross", dimension.WithExtent(0, testutil.MoviesMaxGross))
	_, err := db.BuildIndex(ctx, gross, []cube.Passive{{ID: 1}}, filter.NewFilters())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = db.Length(ctx, filter.NewFilters())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	tbl := table.FromRows([]value.Row{
		{"x": value.Int(1), "c": value.String("a")},
		{"x": value.Int(5), "c": value.String("b")},
		{"x": value.Null(), "c": value.Null()},
		{"x": value.Float(9.5), "c": value.String("a")},
		{"x": value.Int(3), "c": value.String("c")},
	})
	db := openTable(t, tbl)
	x := dimension.Continuous("x", dimension.WithExtent(0, 10))
	fs := filter.NewFilters()
	fs.Set(x, filter.Range(2, 10))

	collect := func(offset, length int) []value.Value {
		var xs []value.Value
		for row, err := range db.Entries(ctx, offset, length, fs) {
			require.NoError(t, err)
			xs = append(xs, row["x"])
		}
		return xs
	}
	assert.Equal(t, []value.Value{value.Int(5), value.Float(9.5), value.Int(3)}, collect(0, -1))
	assert.Equal(t, []value.Value{value.Float(9.5)}, collect(1, 1))
	assert.Empty(t, collect(5, -1))

	n := 0
	for range db.Entries(ctx, 0, -1, filter.NewFilters()) {
		n++
		break
	}
	assert.Equal(t, 1, n, "early break releases the query")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = db.Length(ctx, filter.NewFilters())
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("query slot leaked")
	}
}

func TestWhere(t *testing.T) {
	c := dimension.Categorical("c", value.String("a"))
	x := dimension.Continuous("x", dimension.WithExtent(0, 1))

	w, args := where(filter.NewFilters())
	assert.Equal(t, "1", w)
	assert.Empty(t, args)

	fs := filter.NewFilters()
	fs.Set(c, filter.Set(value.String("a"), value.Null()))
	fs.Set(x, filter.Range(0, 0.5))
	w, args = where(fs)
	assert.Equal(t, `("c" IS NULL OR "c" IN (?)) AND (typeof("x") IN ('integer', 'real') AND "x" >= ? AND "x" < ?)`, w)
	assert.Equal(t, []any{"a", 0.0, 0.5}, args)

	fs = filter.NewFilters()
	fs.Set(c, filter.Set())
	w, _ = where(fs)
	assert.Equal(t, "0", w)

	assert.Equal(t, `"we""ird"`, quote(`we"ird`))
}
