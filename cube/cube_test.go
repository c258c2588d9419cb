package cube

import (
	"context"
	"testing"

	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/mask"
	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/testutil"
	"github.com/hupe1980/falcon/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	tbl *table.Memory
	src *mask.Source
	x   *dimension.Dimension
	y   *dimension.Dimension
	c   *dimension.Dimension
	fs  filter.Filters
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tbl := testutil.NewRNG(4711).RandomTable(5000, 0.05)
	f := &fixture{
		tbl: tbl,
		src: mask.NewSource(tbl, mask.NewCache(0, nil)),
		x: dimension.Continuous("x",
			dimension.WithBinConfig(dimension.BinConfig{Start: 0, Stop: 100, Step: 10}),
			dimension.WithResolution(50)),
		y: dimension.Continuous("y",
			dimension.WithBinConfig(dimension.BinConfig{Start: -50, Stop: 50, Step: 10})),
		c:  dimension.Categorical("c", append(value.Strings("a", "b", "c", "d", "e"), value.Null())...),
		fs: filter.NewFilters(),
	}
	for _, d := range []*dimension.Dimension{f.x, f.y, f.c} {
		require.NoError(t, d.Resolve())
	}
	f.fs.Set(f.y, filter.Range(-10, 30))
	f.fs.Set(f.c, filter.Set(value.Strings("a", "b")...))
	return f
}

// oracle counts passive bins by direct row inspection.
func (f *fixture) oracle(passive *dimension.Dimension, fs filter.Filters, active *dimension.Dimension, pass func(v value.Value) bool) []int64 {
	bins := 1
	if passive != nil {
		bins = passive.NumBins()
	}
	out := make([]int64, bins)
	for i := 0; i < f.tbl.NumRows(); i++ {
		row := table.Row(f.tbl, i)
		if !fs.Matches(row) || !pass(row[active.Name]) {
			continue
		}
		bin := 0
		if passive != nil {
			var ok bool
			if bin, ok = passive.BinOf(row[passive.Name]); !ok {
				continue
			}
		}
		out[bin]++
	}
	return out
}

func TestBuildContinuous(t *testing.T) {
	f := newFixture(t)
	passives := []Passive{{ID: 1}, {ID: 2, Dimension: f.y}, {ID: 3, Dimension: f.c}}

	ix, err := Build(context.Background(), f.tbl, f.src, f.x, passives, f.fs)
	require.NoError(t, err)
	require.Len(t, ix.Entries, 3)

	for _, p := range passives {
		c, err := ix.Lookup(p.ID)
		require.NoError(t, err)
		assert.True(t, c.Cumulative)
		assert.Equal(t, []int{51, p.NumBins()}, c.Filtered.Shape())

		relevant := RelevantFilters(f.fs, f.x, p.Dimension)
		assert.Equal(t,
			f.oracle(p.Dimension, relevant, f.x, func(value.Value) bool { return true }),
			c.Baseline(), "baseline of view %d", p.ID)

		for lo := 0; lo <= 50; lo += 7 {
			for hi := lo + 1; hi <= 50; hi += 5 {
				got, err := c.QueryRange(lo, hi)
				require.NoError(t, err)
				from, to := f.x.PixelToValue(lo), f.x.PixelToValue(hi)
				want := f.oracle(p.Dimension, relevant, f.x, func(v value.Value) bool {
					x, ok := v.Number()
					// The last pixel is closed at Stop.
					return ok && x >= from && (x < to || (hi == 50 && x <= to))
				})
				require.Equal(t, want, got, "view %d pixels [%d, %d)", p.ID, lo, hi)
			}
		}
	}
}

func TestSelfExclusion(t *testing.T) {
	f := newFixture(t)
	ix, err := Build(context.Background(), f.tbl, f.src, f.x, []Passive{{ID: 2, Dimension: f.y}}, f.fs)
	require.NoError(t, err)
	c, err := ix.Lookup(2)
	require.NoError(t, err)

	// y's own filter must not shape y's distribution.
	var outside int64
	for bin, n := range c.Baseline() {
		b := f.y.ReadableBins()[bin]
		if b.End <= -10 || b.Start >= 30 {
			outside += n
		}
	}
	assert.Positive(t, outside)
}

func TestBuildCategorical(t *testing.T) {
	f := newFixture(t)
	passives := []Passive{{ID: 1}, {ID: 2, Dimension: f.x}}

	ix, err := Build(context.Background(), f.tbl, f.src, f.c, passives, f.fs)
	require.NoError(t, err)

	for _, p := range passives {
		c, err := ix.Lookup(p.ID)
		require.NoError(t, err)
		assert.False(t, c.Cumulative)
		assert.Equal(t, []int{6, p.NumBins()}, c.Filtered.Shape())

		// Summing every category reproduces the baseline.
		all := make([]int, f.c.NumBins())
		for i := range all {
			all[i] = i
		}
		sum, err := c.QueryCategories(all)
		require.NoError(t, err)
		assert.Equal(t, c.Baseline(), sum)

		got, err := c.Query(filter.Set(value.String("b"), value.String("d")))
		require.NoError(t, err)
		relevant := RelevantFilters(f.fs, f.c, p.Dimension)
		sel := filter.Set(value.String("b"), value.String("d"))
		assert.Equal(t, f.oracle(p.Dimension, relevant, f.c, sel.Contains), got)

		_, err = c.QueryRange(0, 1)
		assert.ErrorIs(t, err, ErrNotCumulative)
	}
}

func TestBuildErrors(t *testing.T) {
	f := newFixture(t)
	missing := dimension.Continuous("missing", dimension.WithExtent(0, 1))
	passives := []Passive{
		{ID: 1, Dimension: f.x},
		{ID: 2, Dimension: missing},
		{ID: 3},
		{ID: 4, Dimension: &dimension.Dimension{Name: "y", Kind: dimension.Kind(9)}},
	}
	ix, err := Build(context.Background(), f.tbl, f.src, f.x, passives, f.fs)
	require.NoError(t, err)

	_, err = ix.Lookup(1)
	assert.ErrorIs(t, err, ErrSelfActiveFilter)
	var ve *ViewError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ViewID(1), ve.View)

	_, err = ix.Lookup(2)
	assert.Error(t, err)

	_, err = ix.Lookup(3)
	assert.NoError(t, err, "failures must not affect other views")

	_, err = ix.Lookup(4)
	assert.ErrorIs(t, err, ErrUnsupportedView)

	_, err = ix.Lookup(99)
	assert.ErrorIs(t, err, ErrIndexNotReady)

	var none *Index
	_, err = none.Lookup(1)
	assert.ErrorIs(t, err, ErrIndexNotReady)
}

func TestBuildCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, f.tbl, f.src, f.x, []Passive{{ID: 1}}, f.fs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuery(t *testing.T) {
	x := dimension.Continuous("x",
		dimension.WithBinConfig(dimension.BinConfig{Start: 0, Stop: 10, Step: 1}),
		dimension.WithResolution(10))
	require.NoError(t, x.Resolve())

	c := New(x, 1)
	for v := 0; v < 10; v++ {
		c.Add(x.PixelIndex(float64(v))+1, 0, int64(v))
		c.AddBaseline(0, int64(v))
	}
	c.Finalize()
	c.Finalize()

	got, err := c.Query(filter.Range(2, 5))
	require.NoError(t, err)
	assert.Equal(t, []int64{2 + 3 + 4}, got)

	got, err = c.Query(filter.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{45}, got)

	got, err = c.QueryRange(-5, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{45}, got)

	got, err = c.QueryRange(5, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, got)

	_, err = c.QueryCategories([]int{0})
	assert.Error(t, err)
}

func TestBuildHistogram(t *testing.T) {
	f := newFixture(t)
	h, err := BuildHistogram(context.Background(), f.tbl, f.src, f.y, f.fs.Without("y"))
	require.NoError(t, err)

	all := func(value.Value) bool { return true }
	assert.Equal(t, f.oracle(f.y, filter.NewFilters(), f.y, all), h.Unfiltered.Values())
	assert.Equal(t, f.oracle(f.y, f.fs.Without("y"), f.y, all), h.Filtered.Values())

	n, err := Count(f.tbl, f.src, f.fs)
	require.NoError(t, err)
	assert.Equal(t, f.oracle(nil, f.fs, f.y, all)[0], n)
}
