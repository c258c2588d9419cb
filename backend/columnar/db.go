package columnar

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/hupe1980/falcon/backend"
	"github.com/hupe1980/falcon/cube"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/mask"
	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/value"
)

// DB serves a table from memory.
type DB struct {
	tbl   table.Table
	cache *mask.Cache
	masks *mask.Source
}

var _ backend.Backend = (*DB)(nil)

// New returns a backend over tbl.
func New(tbl table.Table, optFns ...Option) *DB {
	opts := applyOptions(optFns)
	cache := mask.NewCache(opts.maskCacheBytes, opts.controller())
	return &DB{
		tbl:   tbl,
		cache: cache,
		masks: mask.NewSource(tbl, cache),
	}
}

// Table returns the underlying table.
func (db *DB) Table() table.Table { return db.tbl }

// MaskCache returns the mask cache.
func (db *DB) MaskCache() *mask.Cache { return db.cache }

// Length returns the number of rows passing fs.
func (db *DB) Length(_ context.Context, fs filter.Filters) (int64, error) {
	return cube.Count(db.tbl, db.masks, fs)
}

// Extent scans the numeric values of d's column.
func (db *DB) Extent(ctx context.Context, d *dimension.Dimension) (dimension.Interval, error) {
	col, err := db.column(d.Name)
	if err != nil {
		return dimension.Interval{}, err
	}
	return Extent(ctx, col, d.Name)
}

// Categories returns the distinct values of d's column.
func (db *DB) Categories(ctx context.Context, d *dimension.Dimension) ([]value.Value, error) {
	col, err := db.column(d.Name)
	if err != nil {
		return nil, err
	}
	return Distinct(ctx, col)
}

// TableExists always reports true for an in-memory table.
func (db *DB) TableExists(context.Context) (bool, error) {
	return db.tbl != nil, nil
}

// DimensionExists reports whether the column exists.
func (db *DB) DimensionExists(_ context.Context, d *dimension.Dimension) (bool, error) {
	_, ok := db.tbl.Column(d.Name)
	return ok, nil
}

// Entries iterates the rows passing fs.
func (db *DB) Entries(ctx context.Context, offset, length int, fs filter.Filters) iter.Seq2[value.Row, error] {
	return func(yield func(value.Row, error) bool) {
		m, err := db.masks.Union(fs)
		if err != nil {
			yield(nil, err)
			return
		}
		skipped, emitted := 0, 0
		m.ForEachPassing(db.tbl.NumRows(), func(row int) bool {
			if length >= 0 && emitted >= length {
				return false
			}
			if skipped < offset {
				skipped++
				return true
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return false
			}
			emitted++
			return yield(table.Row(db.tbl, row), nil)
		})
	}
}

// Histogram counts the bins of d with and without fs.
func (db *DB) Histogram(ctx context.Context, d *dimension.Dimension, fs filter.Filters) (*cube.Histogram, error) {
	return cube.BuildHistogram(ctx, db.tbl, db.masks, d, fs)
}

// BuildIndex scans the table once for every passive view.
func (db *DB) BuildIndex(ctx context.Context, active *dimension.Dimension, passives []cube.Passive, fs filter.Filters) (*cube.Index, error) {
	return cube.Build(ctx, db.tbl, db.masks, active, passives, fs)
}

func (db *DB) column(name string) (table.Column, error) {
	col, ok := db.tbl.Column(name)
	if !ok {
		return nil, fmt.Errorf("columnar: unknown column %q", name)
	}
	return col, nil
}

// Extent returns the [min, max] of the numeric cells of col.
func Extent(ctx context.Context, col table.Column, name string) (dimension.Interval, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := col.Len()
	for i := 0; i < n; i++ {
		if i%(1<<16) == 0 {
			if err := ctx.Err(); err != nil {
				return dimension.Interval{}, err
			}
		}
		f, ok := col.Value(i).Number()
		if !ok {
			continue
		}
		lo, hi = min(lo, f), max(hi, f)
	}
	if lo > hi {
		return dimension.Interval{}, fmt.Errorf("columnar: column %q has no numeric values", name)
	}
	return dimension.Interval{Lo: lo, Hi: hi}, nil
}

// Distinct returns the distinct cells of col in first-seen order with null
// moved last.
func Distinct(ctx context.Context, col table.Column) ([]value.Value, error) {
	seen := make(map[string]bool)
	var out []value.Value
	hasNull := false
	n := col.Len()
	for i := 0; i < n; i++ {
		if i%(1<<16) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v := col.Value(i)
		if v.IsNull() {
			hasNull = true
			continue
		}
		if k := v.Key(); !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	if hasNull {
		out = append(out, value.Null())
	}
	return out, nil
}
