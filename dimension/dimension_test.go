package dimension

import (
	"math"
	"testing"

	"github.com/hupe1980/falcon/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNiceBins(t *testing.T) {
	t.Run("Gross", func(t *testing.T) {
		b := NiceBins(20, Interval{Lo: 0, Hi: 760507625})
		assert.Equal(t, BinConfig{Start: 0, Stop: 8e8, Step: 5e7}, b)
		assert.Equal(t, 16, b.NumBins())
	})

	t.Run("Unit", func(t *testing.T) {
		b := NiceBins(10, Interval{Lo: 0, Hi: 10})
		assert.Equal(t, 1.0, b.Step)
		assert.Equal(t, 0.0, b.Start)
		assert.Equal(t, 10.0, b.Stop)
	})

	t.Run("Degenerate", func(t *testing.T) {
		b := NiceBins(20, Interval{Lo: 5, Hi: 5})
		require.NoError(t, b.Validate())
		assert.LessOrEqual(t, b.Start, 5.0)
		assert.Greater(t, b.Stop, 5.0)
	})
}

func TestTimeBins(t *testing.T) {
	day := float64(24 * 60 * 60 * 1000)
	b := TimeBins(10, Interval{Lo: 0, Hi: 10 * day})
	assert.Equal(t, day, b.Step)
	assert.Equal(t, 10, b.NumBins())
	require.NoError(t, b.Validate())
}

func TestBinConfigValidate(t *testing.T) {
	assert.Error(t, BinConfig{Start: 0, Stop: 1, Step: 0}.Validate())
	assert.Error(t, BinConfig{Start: 1, Stop: 1, Step: 1}.Validate())
	assert.NoError(t, BinConfig{Start: 0, Stop: 1, Step: 0.1}.Validate())
}

func TestBinIndexClamping(t *testing.T) {
	d := Continuous("x", WithBinConfig(BinConfig{Start: 0, Stop: 100, Step: 10}))
	require.NoError(t, d.Resolve())

	n := d.NumBins()
	require.Equal(t, 10, n)
	assert.Equal(t, 0, d.BinIndex(0))
	assert.Equal(t, n-1, d.BinIndex(100))
	assert.Equal(t, n-1, d.BinIndex(99.999))
	assert.Equal(t, 1, d.BinIndex(10))
	assert.Equal(t, 0, d.BinIndex(-5))
	assert.Equal(t, n-1, d.BinIndex(1e9))

	_, ok := d.BinOf(value.Float(100.5))
	assert.False(t, ok)
	_, ok = d.BinOf(value.Null())
	assert.False(t, ok)
	bin, ok := d.BinOf(value.Int(100))
	assert.True(t, ok)
	assert.Equal(t, n-1, bin)
}

func TestPixels(t *testing.T) {
	d := Continuous("US_Gross", WithExtent(0, 760507625), WithResolution(400))
	assert.False(t, d.NeedsExtent())
	require.NoError(t, d.Resolve())

	assert.Equal(t, 400, d.NumPixels())
	assert.Equal(t, 2e6, d.PixelStep())
	assert.Equal(t, 0, d.PixelIndex(0))
	assert.Equal(t, 399, d.PixelIndex(8e8))
	assert.Equal(t, 100, d.PixelIndex(2e8))
	assert.Equal(t, 2e8, d.PixelToValue(100))

	lo, hi := d.ToPixels(Interval{Lo: 0, Hi: 2e8})
	assert.Equal(t, 0, lo)
	assert.Equal(t, 100, hi)

	lo, hi = d.ToPixels(Interval{Lo: -1e9, Hi: 1e10})
	assert.Equal(t, 0, lo)
	assert.Equal(t, 400, hi)
}

func TestPixelBoundaries(t *testing.T) {
	d := Continuous("x", WithBinConfig(BinConfig{Start: 0, Stop: 1, Step: 0.1}), WithResolution(10))
	require.NoError(t, d.Resolve())

	for _, v := range []float64{0.3, 0.6, 0.7} {
		lo, _ := d.ToPixels(Interval{Lo: v, Hi: 1})
		assert.Equal(t, lo, d.PixelIndex(v), "value %v", v)
	}

	for k := 0; k < 10; k++ {
		v := float64(k) / 10
		assert.Equal(t, v, d.PixelToValue(k))
		assert.Equal(t, k, d.PixelIndex(v), "value %v", v)

		lo, hi := d.ToPixels(Interval{Lo: v, Hi: v})
		assert.Equal(t, k, lo)
		assert.Equal(t, k, hi)

		if k > 0 {
			below := math.Nextafter(v, math.Inf(-1))
			assert.Equal(t, k-1, d.PixelIndex(below), "value %v", below)
		}
	}

	_, hi := d.ToPixels(Interval{Lo: 0, Hi: 1})
	assert.Equal(t, 10, hi)
	assert.Equal(t, 9, d.PixelIndex(1))
	assert.Equal(t, 0, PixelFloor(d.BinConfig(), 10, math.NaN()))
}

func TestResolve(t *testing.T) {
	t.Run("NeedsExtent", func(t *testing.T) {
		d := Continuous("x")
		assert.True(t, d.NeedsExtent())
		assert.ErrorIs(t, d.Resolve(), ErrUnresolved)

		d.SetExtent(Interval{Lo: 0, Hi: 10})
		require.NoError(t, d.Resolve())
		assert.False(t, d.NeedsExtent())

		// Frozen after resolution.
		before := d.BinConfig()
		d.SetExtent(Interval{Lo: -100, Hi: 100})
		require.NoError(t, d.Resolve())
		assert.Equal(t, before, d.BinConfig())
	})

	t.Run("Categorical", func(t *testing.T) {
		d := Categorical("rating")
		assert.True(t, d.NeedsExtent())
		d.SetCategories([]value.Value{value.String("G"), value.String("PG"), value.Null()})
		require.NoError(t, d.Resolve())

		assert.Equal(t, 3, d.NumBins())
		i, ok := d.CategoryIndex(value.String("PG"))
		assert.True(t, ok)
		assert.Equal(t, 1, i)
		i, ok = d.BinOf(value.Null())
		assert.True(t, ok)
		assert.Equal(t, 2, i)
		_, ok = d.BinOf(value.String("R"))
		assert.False(t, ok)

		bins := d.ReadableBins()
		require.Len(t, bins, 3)
		assert.Equal(t, value.String("G"), bins[0].Category)
	})

	t.Run("DuplicateCategories", func(t *testing.T) {
		d := Categorical("rating", value.String("G"), value.String("PG"), value.String("G"), value.Null(), value.Null())
		require.NoError(t, d.Resolve())

		assert.Equal(t, 3, d.NumBins())
		assert.Equal(t, []value.Value{value.String("G"), value.String("PG"), value.Null()}, d.Categories)
		i, ok := d.CategoryIndex(value.Null())
		assert.True(t, ok)
		assert.Equal(t, 2, i)
	})
}

func TestReadableBins(t *testing.T) {
	d := Continuous("x", WithBinConfig(BinConfig{Start: 0, Stop: 30, Step: 10}))
	require.NoError(t, d.Resolve())
	assert.Equal(t, []Bin{
		{Start: 0, End: 10},
		{Start: 10, End: 20},
		{Start: 20, End: 30},
	}, d.ReadableBins())
}
