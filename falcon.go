package falcon

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/falcon/backend"
	"github.com/hupe1980/falcon/cube"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/value"
)

// activeState is either noActiveView or *activeView.
type activeState interface {
	isActiveState()
}

type noActiveView struct{}

func (noActiveView) isActiveState() {}

type activeView struct {
	view *View1D
	gen  uint64
	// index is nil while the build is in flight.
	index *cube.Index
}

func (*activeView) isActiveState() {}

// covers reports whether the built index holds an entry for id.
func (a *activeView) covers(id ViewID) bool {
	if a.index == nil {
		return false
	}
	_, ok := a.index.Entries[id]
	return ok
}

// Falcon owns the views, the shared filters and the index of the active view.
type Falcon struct {
	db      backend.Backend
	logger  *Logger
	metrics MetricsCollector

	mu      sync.Mutex
	nextID  ViewID
	views   []View
	filters filter.Filters
	active  activeState
	gen     uint64
}

// New returns an engine over db.
func New(db backend.Backend, optFns ...Option) *Falcon {
	opts := applyOptions(optFns)
	return &Falcon{
		db:      db,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		filters: filter.NewFilters(),
		active:  noActiveView{},
	}
}

// View0D creates and attaches a count view.
func (f *Falcon) View0D(ctx context.Context) (*View0D, error) {
	if err := f.checkTable(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &View0D{viewBase: f.newBaseLocked()}
	f.views = append(f.views, v)
	return v, nil
}

// View1D creates and attaches a histogram view over d. Missing extents or
// categories are read from the backend once and frozen.
func (f *Falcon) View1D(ctx context.Context, d *dimension.Dimension) (*View1D, error) {
	if err := f.checkTable(ctx); err != nil {
		return nil, err
	}
	ok, err := f.db.DimensionExists(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("check dimension %s: %w", d.Name, err)
	}
	if !ok {
		return nil, &SchemaError{Table: f.tableName(), Dimension: d.Name}
	}
	if err := backend.Resolve(ctx, f.db, d); err != nil {
		return nil, fmt.Errorf("resolve dimension %s: %w", d.Name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	v := &View1D{viewBase: f.newBaseLocked(), dim: d}
	v.state.Bins = d.ReadableBins()
	f.views = append(f.views, v)
	return v, nil
}

func (f *Falcon) newBaseLocked() viewBase {
	f.nextID++
	return viewBase{f: f, id: f.nextID, attached: true}
}

func (f *Falcon) checkTable(ctx context.Context) error {
	ok, err := f.db.TableExists(ctx)
	if err != nil {
		return fmt.Errorf("check table: %w", err)
	}
	if !ok {
		return &SchemaError{Table: f.tableName()}
	}
	return nil
}

func (f *Falcon) tableName() string {
	if n, ok := f.db.(backend.Named); ok {
		return n.TableName()
	}
	return ""
}

// Views returns the attached views in creation order.
func (f *Falcon) Views() []View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.views)
}

// Active returns the active view, if any.
func (f *Falcon) Active() (*View1D, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch a := f.active.(type) {
	case *activeView:
		return a.view, true
	case noActiveView:
		return nil, false
	default:
		panic(fmt.Sprintf("falcon: unknown active state %T", a))
	}
}

// Filters returns a copy of the current filters.
func (f *Falcon) Filters() filter.Filters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters.Clone()
}

// All recomputes every view from the backend.
func (f *Falcon) All(ctx context.Context) error {
	return f.refresh(ctx, f.Views())
}

// Link recomputes every view. With an active view, the index is rebuilt and
// the active view's last filter is applied again.
func (f *Falcon) Link(ctx context.Context) error {
	if err := f.All(ctx); err != nil {
		return err
	}
	if a, ok := f.Active(); ok {
		return f.activate(ctx, a, false)
	}
	return nil
}

// Entries iterates the rows passing every current filter. See
// backend.Backend.Entries for offset and length.
func (f *Falcon) Entries(ctx context.Context, offset, length int) iter.Seq2[value.Row, error] {
	return f.db.Entries(ctx, offset, length, f.Filters())
}

// passivesLocked lists every attached view except active.
func (f *Falcon) passivesLocked(active View) []cube.Passive {
	out := make([]cube.Passive, 0, len(f.views))
	for _, v := range f.views {
		if v == active {
			continue
		}
		out = append(out, v.passive())
	}
	return out
}

// refresh recomputes the baselines of views from the backend.
func (f *Falcon) refresh(ctx context.Context, views []View) error {
	start := time.Now()
	f.mu.Lock()
	gen := f.gen
	fs := f.filters.Clone()
	targets := make([]View, 0, len(views))
	for _, v := range views {
		if slices.Contains(f.views, v) {
			targets = append(targets, v)
		}
	}
	f.mu.Unlock()

	applies := make([]func() bool, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range targets {
		g.Go(func() error {
			apply, err := v.fetchAll(gctx, f.db, fs)
			if err != nil {
				return fmt.Errorf("view %d: %w", v.ID(), err)
			}
			applies[i] = apply
			return nil
		})
	}
	err := g.Wait()
	f.metrics.RecordHistogram(time.Since(start), err)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if f.gen != gen {
		current := f.gen
		f.mu.Unlock()
		f.dropStale(ctx, "all", gen, current)
		return ErrStaleGeneration
	}
	var notes []func()
	for i, v := range targets {
		if applies[i]() {
			notes = append(notes, v.notifier())
		}
	}
	f.mu.Unlock()

	notify(notes)
	return nil
}

// activate builds the index for v. clearOwn is set for user activations; a
// rebuild keeps v's filter and re-applies it.
func (f *Falcon) activate(ctx context.Context, v *View1D, clearOwn bool) error {
	start := time.Now()

	f.mu.Lock()
	if !v.attached {
		f.mu.Unlock()
		return ErrDetached
	}
	if a, ok := f.active.(*activeView); ok && clearOwn && a.view == v && a.index != nil {
		f.mu.Unlock()
		return nil
	}
	f.gen++
	gen := f.gen
	if clearOwn {
		f.filters.Delete(v.dim.Name)
		v.last = filter.Filter{}
	}
	f.active = &activeView{view: v, gen: gen}
	passives := f.passivesLocked(v)
	fs := f.filters.Without(v.dim.Name)
	f.mu.Unlock()

	logger := f.logger.WithView(v.id).WithGeneration(gen)
	ix, err := f.db.BuildIndex(ctx, v.dim, passives, fs)
	f.metrics.RecordActivate(len(passives), time.Since(start), err)
	logger.LogActivate(ctx, v.id, v.dim.Name, len(passives), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("activate view %d: %w", v.id, err)
	}

	f.mu.Lock()
	if f.gen != gen {
		current := f.gen
		f.mu.Unlock()
		f.dropStale(ctx, "activate", gen, current)
		return ErrStaleGeneration
	}
	a := f.active.(*activeView)
	a.index = ix
	notes, errs := f.applyIndexLocked(ctx, a, v.last)
	f.mu.Unlock()

	notify(notes)
	return errors.Join(errs...)
}

func (f *Falcon) selectFilter(ctx context.Context, v *View1D, flt filter.Filter) error {
	start := time.Now()
	if err := checkFilter(v.dim, flt); err != nil {
		return err
	}

	f.mu.Lock()
	if !v.attached {
		f.mu.Unlock()
		return ErrDetached
	}
	a, ok := f.active.(*activeView)
	if !ok || a.view != v {
		f.mu.Unlock()
		return ErrNotActive
	}
	if flt.Equal(v.last) {
		f.mu.Unlock()
		return nil
	}
	if a.index == nil {
		f.mu.Unlock()
		return cube.ErrIndexNotReady
	}
	f.gen++
	f.filters.Set(v.dim, flt)
	v.last = flt
	notes, errs := f.applyIndexLocked(ctx, a, flt)
	f.mu.Unlock()

	notify(notes)
	err := errors.Join(errs...)
	f.metrics.RecordSelect(time.Since(start), err)
	f.logger.LogSelect(ctx, v.id, flt.String(), err)
	return err
}

func checkFilter(d *dimension.Dimension, flt filter.Filter) error {
	switch flt.Kind() {
	case filter.KindNone:
		return nil
	case filter.KindRange:
		if d.IsContinuous() {
			return nil
		}
	case filter.KindSet:
		if !d.IsContinuous() {
			return nil
		}
	}
	return fmt.Errorf("filter %s does not fit %s dimension %s", flt, d.Kind, d.Name)
}

// applyIndexLocked answers flt from the index for every passive view.
// Views whose cube is missing or failed keep their state.
func (f *Falcon) applyIndexLocked(ctx context.Context, a *activeView, flt filter.Filter) ([]func(), []error) {
	var (
		notes []func()
		errs  []error
	)
	for _, v := range f.views {
		if v == a.view {
			continue
		}
		c, err := a.index.Lookup(v.ID())
		if err == nil {
			var counts []int64
			if counts, err = c.Query(flt); err == nil {
				if v.applyCounts(counts) {
					notes = append(notes, v.notifier())
				}
				continue
			}
		}
		if !errors.Is(err, cube.ErrIndexNotReady) {
			f.metrics.RecordBackendFailure()
		}
		f.logger.LogViewFailure(ctx, v.ID(), err)
		errs = append(errs, fmt.Errorf("view %d: %w", v.ID(), err))
	}
	return notes, errs
}

func (f *Falcon) detach(ctx context.Context, v View) error {
	f.mu.Lock()
	idx := slices.Index(f.views, v)
	if idx < 0 {
		f.mu.Unlock()
		return ErrDetached
	}
	f.views = slices.Delete(f.views, idx, idx+1)

	wasActive, hadFilter := false, false
	switch v := v.(type) {
	case *View0D:
		v.attached = false
	case *View1D:
		v.attached = false
		hadFilter = f.filters.Delete(v.dim.Name)
		v.last = filter.Filter{}
		if a, ok := f.active.(*activeView); ok && a.view == v {
			wasActive = true
			f.active = noActiveView{}
		}
	default:
		panic(fmt.Sprintf("falcon: unknown view type %T", v))
	}
	if wasActive || hadFilter {
		f.gen++
	}
	a, stillActive := f.active.(*activeView)
	if stillActive && a.index != nil {
		delete(a.index.Entries, v.ID())
	}
	f.mu.Unlock()

	switch {
	case wasActive:
		return f.All(ctx)
	case hadFilter && stillActive:
		return f.activate(ctx, a.view, false)
	case hadFilter:
		return f.All(ctx)
	default:
		return nil
	}
}

func (f *Falcon) attach(ctx context.Context, v View) error {
	f.mu.Lock()
	if slices.Contains(f.views, v) {
		f.mu.Unlock()
		return nil
	}
	switch v := v.(type) {
	case *View0D:
		v.attached = true
	case *View1D:
		v.attached = true
		v.last = filter.Filter{}
	default:
		panic(fmt.Sprintf("falcon: unknown view type %T", v))
	}
	f.views = append(f.views, v)
	f.mu.Unlock()

	if err := f.refresh(ctx, []View{v}); err != nil {
		return err
	}

	// The active view may have changed while refreshing.
	f.mu.Lock()
	a, active := f.active.(*activeView)
	rebuild := active && a.view != v && !a.covers(v.ID())
	f.mu.Unlock()
	if rebuild {
		return f.activate(ctx, a.view, false)
	}
	return nil
}

func (f *Falcon) dropStale(ctx context.Context, op string, gen, current uint64) {
	f.metrics.RecordStale()
	f.logger.LogStale(ctx, op, gen, current)
}

func notify(notes []func()) {
	for _, n := range notes {
		n()
	}
}
