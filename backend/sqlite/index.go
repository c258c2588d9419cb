package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hupe1980/falcon/counts"
	"github.com/hupe1980/falcon/cube"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"golang.org/x/sync/errgroup"
)

// binKey maps a grouped bin expression to d's bin.
func binKey(d *dimension.Dimension, raw any) (int, bool, error) {
	if d.IsContinuous() {
		i, ok := raw.(int64)
		return int(i), ok, nil
	}
	v, err := toValue(raw)
	if err != nil {
		return 0, false, err
	}
	i, ok := d.CategoryIndex(v)
	return i, ok, nil
}

// Histogram counts d's bins with one grouped scan: all rows and the rows
// passing fs.
func (d *DB) Histogram(ctx context.Context, dim *dimension.Dimension, fs filter.Filters) (*cube.Histogram, error) {
	if err := dim.Resolve(); err != nil {
		return nil, err
	}
	bin, binArgs := binExpr(dim)
	w, wArgs := where(fs)
	q := fmt.Sprintf("SELECT %s, COUNT(*), SUM(CASE WHEN %s THEN 1 ELSE 0 END)%s GROUP BY 1", bin, w, d.from())

	h := &cube.Histogram{
		Filtered:   counts.Alloc(dim.NumBins()),
		Unfiltered: counts.Alloc(dim.NumBins()),
	}
	err := d.query(ctx, q, append(binArgs, wArgs...), func(r *sql.Rows) error {
		var (
			raw       any
			all, pass int64
		)
		if err := r.Scan(&raw, &all, &pass); err != nil {
			return err
		}
		i, ok, err := binKey(dim, raw)
		if err != nil || !ok {
			return err
		}
		h.Unfiltered.Increment(all, i)
		h.Filtered.Increment(pass, i)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// BuildIndex issues one grouped query per passive view. Failing views are
// reported in their entries; a canceled context fails the whole build.
func (d *DB) BuildIndex(ctx context.Context, active *dimension.Dimension, passives []cube.Passive, fs filter.Filters) (*cube.Index, error) {
	if err := active.Resolve(); err != nil {
		return nil, err
	}

	entries := make([]cube.Entry, len(passives))
	var g errgroup.Group
	for i, p := range passives {
		g.Go(func() error {
			c, err := d.buildCube(ctx, active, p, fs)
			if err != nil {
				entries[i] = cube.Entry{Err: &cube.ViewError{View: p.ID, Err: err}}
				return nil
			}
			entries[i] = cube.Entry{Cube: c}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix := cube.NewIndex(active)
	for i, p := range passives {
		ix.Entries[p.ID] = entries[i]
	}
	return ix, nil
}

func (d *DB) buildCube(ctx context.Context, active *dimension.Dimension, p cube.Passive, fs filter.Filters) (*cube.Cube, error) {
	if err := p.Check(active); err != nil {
		return nil, err
	}

	key, args := activeExpr(active)
	bin := "0"
	if p.Dimension != nil {
		var binArgs []any
		bin, binArgs = binExpr(p.Dimension)
		args = append(args, binArgs...)
	}
	w, wArgs := where(cube.RelevantFilters(fs, active, p.Dimension))
	args = append(args, wArgs...)
	q := fmt.Sprintf("SELECT %s, %s, COUNT(*)%s WHERE %s GROUP BY 1, 2", key, bin, d.from(), w)

	c := cube.New(active, p.NumBins())
	err := d.query(ctx, q, args, func(r *sql.Rows) error {
		var (
			rawKey, rawBin any
			n              int64
		)
		if err := r.Scan(&rawKey, &rawBin, &n); err != nil {
			return err
		}
		b := 0
		if p.Dimension != nil {
			var (
				ok  bool
				err error
			)
			if b, ok, err = binKey(p.Dimension, rawBin); err != nil || !ok {
				return err
			}
		}
		c.AddBaseline(b, n)
		if k, ok, err := binKey(active, rawKey); err != nil {
			return err
		} else if ok {
			c.Add(k, b, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.Finalize()
	return c, nil
}
