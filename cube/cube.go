package cube

import (
	"fmt"

	"github.com/hupe1980/falcon/counts"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
)

// ViewID identifies a view within one engine.
type ViewID uint64

// Passive describes a passive view for Build. A nil Dimension is a 0D view.
type Passive struct {
	ID        ViewID
	Dimension *dimension.Dimension
}

// NumBins returns the passive bin count (1 for 0D views).
func (p Passive) NumBins() int {
	if p.Dimension == nil {
		return 1
	}
	return p.Dimension.NumBins()
}

// Check reports whether p can be indexed against active and resolves its
// bins.
func (p Passive) Check(active *dimension.Dimension) error {
	if p.Dimension == nil {
		return nil
	}
	switch p.Dimension.Kind {
	case dimension.KindContinuous, dimension.KindCategorical:
	default:
		return fmt.Errorf("%w: dimension %s has kind %s", ErrUnsupportedView, p.Dimension.Name, p.Dimension.Kind)
	}
	if p.Dimension.Name == active.Name {
		return ErrSelfActiveFilter
	}
	return p.Dimension.Resolve()
}

// Cube is the index of one passive view against one active dimension.
type Cube struct {
	Filtered   *counts.Array
	Unfiltered *counts.Array
	// Cumulative is true once Filtered has been prefix-summed along the
	// active axis (continuous active dimensions only).
	Cumulative bool

	active *dimension.Dimension
}

// New allocates an empty cube. active must be resolved.
func New(active *dimension.Dimension, passiveBins int) *Cube {
	rows := active.NumPixels()
	if active.IsContinuous() {
		rows++
	}
	return &Cube{
		Filtered:   counts.Alloc(rows, passiveBins),
		Unfiltered: counts.Alloc(passiveBins),
		active:     active,
	}
}

// Active returns the active dimension the cube is keyed to.
func (c *Cube) Active() *dimension.Dimension { return c.active }

// NumBins returns the passive bin count.
func (c *Cube) NumBins() int { return c.Unfiltered.Size() }

// Add counts n rows with the given active key and passive bin. Keys of a
// continuous active dimension are pixel+1; row 0 stays empty.
func (c *Cube) Add(activeKey, passiveBin int, n int64) {
	c.Filtered.Increment(n, activeKey, passiveBin)
}

// AddBaseline counts n rows in the unfiltered baseline.
func (c *Cube) AddBaseline(passiveBin int, n int64) {
	c.Unfiltered.Increment(n, passiveBin)
}

// Finalize prefix-sums each passive column along the active axis when the
// active dimension is continuous. It is idempotent.
func (c *Cube) Finalize() {
	if c.Cumulative || !c.active.IsContinuous() {
		return
	}
	for j := 0; j < c.NumBins(); j++ {
		c.Filtered.SliceMut(counts.All, j).CumulativeSum()
	}
	c.Cumulative = true
}

// Baseline returns the unfiltered counts.
func (c *Cube) Baseline() []int64 {
	return c.Unfiltered.Values()
}

// QueryRange returns per-bin counts of rows whose active pixel lies in
// [lo, hi). Boundaries are clamped to [0, Resolution].
func (c *Cube) QueryRange(lo, hi int) ([]int64, error) {
	if !c.Cumulative {
		return nil, ErrNotCumulative
	}
	last := c.Filtered.Shape()[0] - 1
	lo, hi = min(max(lo, 0), last), min(max(hi, 0), last)
	if hi < lo {
		lo, hi = hi, lo
	}
	out, err := counts.Sub(c.Filtered.Slice(hi), c.Filtered.Slice(lo))
	if err != nil {
		return nil, err
	}
	return out.Values(), nil
}

// QueryCategories sums the rows of the given category bins. Out of range
// indices are ignored.
func (c *Cube) QueryCategories(bins []int) ([]int64, error) {
	if c.active.IsContinuous() {
		return nil, fmt.Errorf("cube: category query on continuous dimension %s", c.active.Name)
	}
	out := counts.Alloc(c.NumBins())
	rows := c.Filtered.Shape()[0]
	for _, b := range bins {
		if b < 0 || b >= rows {
			continue
		}
		if err := out.AddInPlace(c.Filtered.Slice(b)); err != nil {
			return nil, err
		}
	}
	return out.Values(), nil
}

// Query answers a brush on the active dimension. The zero filter returns
// the baseline.
func (c *Cube) Query(f filter.Filter) ([]int64, error) {
	switch f.Kind() {
	case filter.KindNone:
		return c.Baseline(), nil
	case filter.KindRange:
		lo, hi := c.active.ToPixels(f.Interval())
		return c.QueryRange(lo, hi)
	case filter.KindSet:
		var bins []int
		for _, v := range f.Categories() {
			if i, ok := c.active.CategoryIndex(v); ok {
				bins = append(bins, i)
			}
		}
		return c.QueryCategories(bins)
	default:
		return nil, fmt.Errorf("cube: unknown filter kind %d", f.Kind())
	}
}

// Entry is the build result for one passive view. Exactly one of Cube and
// Err is set.
type Entry struct {
	Cube *Cube
	Err  error
}

// Index holds the cubes of every passive view for one activation.
type Index struct {
	Active  *dimension.Dimension
	Entries map[ViewID]Entry
}

// NewIndex returns an empty index for active.
func NewIndex(active *dimension.Dimension) *Index {
	return &Index{Active: active, Entries: make(map[ViewID]Entry)}
}

// Lookup returns the cube of a passive view.
func (ix *Index) Lookup(id ViewID) (*Cube, error) {
	if ix == nil {
		return nil, ErrIndexNotReady
	}
	e, ok := ix.Entries[id]
	switch {
	case !ok:
		return nil, ErrIndexNotReady
	case e.Err != nil:
		return nil, e.Err
	default:
		return e.Cube, nil
	}
}
