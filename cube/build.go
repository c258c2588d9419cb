package cube

import (
	"context"
	"fmt"

	"github.com/hupe1980/falcon/counts"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/mask"
	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/value"
)

// checkEvery is how many rows are scanned between context checks.
const checkEvery = 1 << 16

type scanTarget struct {
	id   ViewID
	dim  *dimension.Dimension
	col  table.Column
	mask *mask.Mask
	cube *Cube
}

// RelevantFilters returns the filters that apply to a passive view's cube:
// every filter except the active dimension's and, for 1D views, the view's
// own dimension's.
func RelevantFilters(fs filter.Filters, active *dimension.Dimension, passive *dimension.Dimension) filter.Filters {
	if passive == nil {
		return fs.Without(active.Name)
	}
	return fs.Without(active.Name, passive.Name)
}

// Build scans tbl once and returns the cube of every passive view keyed to
// active. Per-view failures are recorded in the returned entries; the error
// result is reserved for failures that affect every view.
func Build(ctx context.Context, tbl table.Table, src *mask.Source, active *dimension.Dimension, passives []Passive, fs filter.Filters) (*Index, error) {
	if err := active.Resolve(); err != nil {
		return nil, err
	}
	activeCol, ok := tbl.Column(active.Name)
	if !ok {
		return nil, fmt.Errorf("cube: unknown column %q", active.Name)
	}

	ix := NewIndex(active)
	targets := make([]*scanTarget, 0, len(passives))
	for _, p := range passives {
		t, err := prepare(tbl, src, active, p, fs)
		if err != nil {
			ix.Entries[p.ID] = Entry{Err: &ViewError{View: p.ID, Err: err}}
			continue
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return ix, nil
	}

	activeKey := activeKeyFunc(active)
	n := tbl.NumRows()
	for row := 0; row < n; row++ {
		if row%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		key, keyOK := activeKey(activeCol.Value(row))
		for _, t := range targets {
			if t.mask.Excluded(row) {
				continue
			}
			bin := 0
			if t.dim != nil {
				var ok bool
				if bin, ok = t.dim.BinOf(t.col.Value(row)); !ok {
					continue
				}
			}
			t.cube.AddBaseline(bin, 1)
			if keyOK {
				t.cube.Add(key, bin, 1)
			}
		}
	}

	for _, t := range targets {
		t.cube.Finalize()
		ix.Entries[t.id] = Entry{Cube: t.cube}
	}
	return ix, nil
}

func prepare(tbl table.Table, src *mask.Source, active *dimension.Dimension, p Passive, fs filter.Filters) (*scanTarget, error) {
	if err := p.Check(active); err != nil {
		return nil, err
	}
	t := &scanTarget{id: p.ID, dim: p.Dimension}
	if p.Dimension != nil {
		col, ok := tbl.Column(p.Dimension.Name)
		if !ok {
			return nil, fmt.Errorf("cube: unknown column %q", p.Dimension.Name)
		}
		t.col = col
	}
	m, err := src.Union(RelevantFilters(fs, active, p.Dimension))
	if err != nil {
		return nil, err
	}
	t.mask = m
	t.cube = New(active, p.NumBins())
	return t, nil
}

// ActiveKey maps a cell to its row in the cube's active axis: pixel+1 for
// continuous dimensions, the category index for categorical ones.
func ActiveKey(active *dimension.Dimension, v value.Value) (int, bool) {
	return activeKeyFunc(active)(v)
}

func activeKeyFunc(active *dimension.Dimension) func(value.Value) (int, bool) {
	if active.IsContinuous() {
		return func(v value.Value) (int, bool) {
			px, ok := active.PixelOf(v)
			return px + 1, ok
		}
	}
	return active.CategoryIndex
}

// Histogram is the per-bin distribution of one dimension.
type Histogram struct {
	// Filtered counts rows passing the filters.
	Filtered *counts.Array
	// Unfiltered counts every row.
	Unfiltered *counts.Array
}

// BuildHistogram counts the bins of d over tbl with and without fs.
func BuildHistogram(ctx context.Context, tbl table.Table, src *mask.Source, d *dimension.Dimension, fs filter.Filters) (*Histogram, error) {
	if err := d.Resolve(); err != nil {
		return nil, err
	}
	col, ok := tbl.Column(d.Name)
	if !ok {
		return nil, fmt.Errorf("cube: unknown column %q", d.Name)
	}
	m, err := src.Union(fs)
	if err != nil {
		return nil, err
	}

	h := &Histogram{
		Filtered:   counts.Alloc(d.NumBins()),
		Unfiltered: counts.Alloc(d.NumBins()),
	}
	n := tbl.NumRows()
	for row := 0; row < n; row++ {
		if row%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		bin, ok := d.BinOf(col.Value(row))
		if !ok {
			continue
		}
		h.Unfiltered.Increment(1, bin)
		if !m.Excluded(row) {
			h.Filtered.Increment(1, bin)
		}
	}
	return h, nil
}

// Count returns the number of rows passing fs.
func Count(tbl table.Table, src *mask.Source, fs filter.Filters) (int64, error) {
	m, err := src.Union(fs)
	if err != nil {
		return 0, err
	}
	return int64(tbl.NumRows()) - int64(m.Cardinality()), nil
}
