package falcon

import (
	"context"
	"slices"

	"github.com/hupe1980/falcon/backend"
	"github.com/hupe1980/falcon/cube"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
)

// ViewID identifies a view within one Falcon.
type ViewID = cube.ViewID

// ViewKind distinguishes view types.
type ViewKind uint8

const (
	// ViewKind0D is a plain row count.
	ViewKind0D ViewKind = iota
	// ViewKind1D is a histogram over one dimension.
	ViewKind1D
)

// String implements fmt.Stringer.
func (k ViewKind) String() string {
	switch k {
	case ViewKind0D:
		return "0D"
	case ViewKind1D:
		return "1D"
	default:
		return "unknown"
	}
}

// View is implemented by *View0D and *View1D only.
type View interface {
	ID() ViewID
	Kind() ViewKind
	All(ctx context.Context) error
	Detach(ctx context.Context) error
	Attach(ctx context.Context) error
	IsAttached() bool

	passive() cube.Passive
	fetchAll(ctx context.Context, db backend.Backend, fs filter.Filters) (func() bool, error)
	applyCounts(counts []int64) bool
	notifier() func()
}

// CountState is the displayed state of a View0D.
type CountState struct {
	// Total is the number of rows in the table.
	Total int64
	// Filter is the number of rows passing the relevant filters.
	Filter int64
}

// HistogramState is the displayed state of a View1D.
type HistogramState struct {
	// Total holds the unfiltered bin counts.
	Total []int64
	// Filter holds the bin counts under the relevant filters.
	Filter []int64
	// Bins describes the bins in order.
	Bins []dimension.Bin
}

func (s HistogramState) clone() HistogramState {
	return HistogramState{
		Total:  slices.Clone(s.Total),
		Filter: slices.Clone(s.Filter),
		Bins:   slices.Clone(s.Bins),
	}
}

type subscription[S any] struct {
	id uint64
	fn func(S)
}

// listeners is guarded by the engine lock.
type listeners[S any] struct {
	next uint64
	subs []subscription[S]
}

func (l *listeners[S]) add(fn func(S)) uint64 {
	l.next++
	l.subs = append(l.subs, subscription[S]{id: l.next, fn: fn})
	return l.next
}

func (l *listeners[S]) remove(id uint64) {
	l.subs = slices.DeleteFunc(l.subs, func(s subscription[S]) bool { return s.id == id })
}

func (l *listeners[S]) snapshot() []func(S) {
	fns := make([]func(S), len(l.subs))
	for i, s := range l.subs {
		fns[i] = s.fn
	}
	return fns
}

type viewBase struct {
	f        *Falcon
	id       ViewID
	attached bool
}

func (b *viewBase) ID() ViewID { return b.id }

// IsAttached reports whether the view takes part in linking.
func (b *viewBase) IsAttached() bool {
	b.f.mu.Lock()
	defer b.f.mu.Unlock()
	return b.attached
}

// View0D is a row count.
type View0D struct {
	viewBase
	state     CountState
	listeners listeners[CountState]
}

var _ View = (*View0D)(nil)

// Kind returns ViewKind0D.
func (v *View0D) Kind() ViewKind { return ViewKind0D }

// State returns the current counts.
func (v *View0D) State() CountState {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	return v.state
}

// OnChange registers fn for state changes and returns its unsubscribe func.
func (v *View0D) OnChange(fn func(CountState)) (unsubscribe func()) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	id := v.listeners.add(fn)
	return func() {
		v.f.mu.Lock()
		defer v.f.mu.Unlock()
		v.listeners.remove(id)
	}
}

// All recomputes the count from the backend.
func (v *View0D) All(ctx context.Context) error { return v.f.refresh(ctx, []View{v}) }

// Detach removes the view from the engine.
func (v *View0D) Detach(ctx context.Context) error { return v.f.detach(ctx, v) }

// Attach re-adds a detached view.
func (v *View0D) Attach(ctx context.Context) error { return v.f.attach(ctx, v) }

func (v *View0D) passive() cube.Passive { return cube.Passive{ID: v.id} }

func (v *View0D) fetchAll(ctx context.Context, db backend.Backend, fs filter.Filters) (func() bool, error) {
	total, err := db.Length(ctx, filter.NewFilters())
	if err != nil {
		return nil, err
	}
	passing := total
	if fs.Len() > 0 {
		if passing, err = db.Length(ctx, fs); err != nil {
			return nil, err
		}
	}
	return func() bool {
		next := CountState{Total: total, Filter: passing}
		changed := next != v.state
		v.state = next
		return changed
	}, nil
}

func (v *View0D) applyCounts(counts []int64) bool {
	if len(counts) != 1 || v.state.Filter == counts[0] {
		return false
	}
	v.state.Filter = counts[0]
	return true
}

func (v *View0D) notifier() func() {
	state := v.state
	fns := v.listeners.snapshot()
	return func() {
		for _, fn := range fns {
			fn(state)
		}
	}
}

// View1D is a histogram over one dimension.
type View1D struct {
	viewBase
	dim       *dimension.Dimension
	last      filter.Filter
	state     HistogramState
	listeners listeners[HistogramState]
}

var _ View = (*View1D)(nil)

// Kind returns ViewKind1D.
func (v *View1D) Kind() ViewKind { return ViewKind1D }

// Dimension returns the view's dimension.
func (v *View1D) Dimension() *dimension.Dimension { return v.dim }

// State returns a copy of the current histogram.
func (v *View1D) State() HistogramState {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	return v.state.clone()
}

// Filter returns the last filter applied by Select.
func (v *View1D) Filter() filter.Filter {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	return v.last
}

// IsActive reports whether v is the active view.
func (v *View1D) IsActive() bool {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	a, ok := v.f.active.(*activeView)
	return ok && a.view == v
}

// OnChange registers fn for state changes and returns its unsubscribe func.
func (v *View1D) OnChange(fn func(HistogramState)) (unsubscribe func()) {
	v.f.mu.Lock()
	defer v.f.mu.Unlock()
	id := v.listeners.add(fn)
	return func() {
		v.f.mu.Lock()
		defer v.f.mu.Unlock()
		v.listeners.remove(id)
	}
}

// All recomputes the histogram from the backend.
func (v *View1D) All(ctx context.Context) error { return v.f.refresh(ctx, []View{v}) }

// Activate makes v the active view and builds the index for every other
// view. v's own filter is cleared. Activating the active view is a no-op.
func (v *View1D) Activate(ctx context.Context) error { return v.f.activate(ctx, v, true) }

// Select brushes the active view. The zero filter clears the brush. A filter
// equal to the last one is a no-op.
func (v *View1D) Select(ctx context.Context, f filter.Filter) error { return v.f.selectFilter(ctx, v, f) }

// Detach removes the view and its filter from the engine.
func (v *View1D) Detach(ctx context.Context) error { return v.f.detach(ctx, v) }

// Attach re-adds a detached view.
func (v *View1D) Attach(ctx context.Context) error { return v.f.attach(ctx, v) }

func (v *View1D) passive() cube.Passive { return cube.Passive{ID: v.id, Dimension: v.dim} }

func (v *View1D) fetchAll(ctx context.Context, db backend.Backend, fs filter.Filters) (func() bool, error) {
	h, err := db.Histogram(ctx, v.dim, fs.Without(v.dim.Name))
	if err != nil {
		return nil, err
	}
	total, passing := h.Unfiltered.Values(), h.Filtered.Values()
	return func() bool {
		changed := !slices.Equal(total, v.state.Total) || !slices.Equal(passing, v.state.Filter)
		v.state.Total, v.state.Filter = total, passing
		return changed
	}, nil
}

func (v *View1D) applyCounts(counts []int64) bool {
	if slices.Equal(v.state.Filter, counts) {
		return false
	}
	v.state.Filter = counts
	return true
}

func (v *View1D) notifier() func() {
	state := v.state.clone()
	fns := v.listeners.snapshot()
	return func() {
		for _, fn := range fns {
			fn(state.clone())
		}
	}
}
