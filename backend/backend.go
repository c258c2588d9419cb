package backend

import (
	"context"
	"iter"

	"github.com/hupe1980/falcon/cube"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/value"
)

// Backend is the data source contract.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// Length returns the number of rows passing fs.
	Length(ctx context.Context, fs filter.Filters) (int64, error)

	// Extent returns the [min, max] of a numeric column.
	Extent(ctx context.Context, d *dimension.Dimension) (dimension.Interval, error)

	// Categories returns the distinct values of a column in first-seen order,
	// with null last when present.
	Categories(ctx context.Context, d *dimension.Dimension) ([]value.Value, error)

	// TableExists reports whether the backing table exists.
	TableExists(ctx context.Context) (bool, error)

	// DimensionExists reports whether the dimension's column exists.
	DimensionExists(ctx context.Context, d *dimension.Dimension) (bool, error)

	// Entries iterates up to length rows passing fs, skipping the first
	// offset of them. A negative length means no limit. Every range over the
	// returned sequence starts again at offset.
	Entries(ctx context.Context, offset, length int, fs filter.Filters) iter.Seq2[value.Row, error]

	// Histogram counts the bins of d with and without fs.
	Histogram(ctx context.Context, d *dimension.Dimension, fs filter.Filters) (*cube.Histogram, error)

	// BuildIndex computes the cube of every passive view keyed to active.
	// A failing passive view is reported in its index entry.
	BuildIndex(ctx context.Context, active *dimension.Dimension, passives []cube.Passive, fs filter.Filters) (*cube.Index, error)
}

// Named is implemented by backends that read one named table.
type Named interface {
	TableName() string
}

// Resolve asks b for d's extent or categories when they were not given and
// finalizes d's binning.
func Resolve(ctx context.Context, b Backend, d *dimension.Dimension) error {
	if !d.NeedsExtent() {
		return d.Resolve()
	}
	switch d.Kind {
	case dimension.KindContinuous:
		iv, err := b.Extent(ctx, d)
		if err != nil {
			return err
		}
		d.SetExtent(iv)
	case dimension.KindCategorical:
		cats, err := b.Categories(ctx, d)
		if err != nil {
			return err
		}
		d.SetCategories(cats)
	}
	return d.Resolve()
}
