package filter

import (
	"iter"
	"maps"
	"slices"

	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/value"
)

// Entry binds a Filter to its dimension.
type Entry struct {
	Dimension *dimension.Dimension
	Filter    Filter
}

// Filters maps dimension names to their active filter. At most one filter is
// kept per dimension; a missing entry means unfiltered.
//
// The zero value is an empty set. Filters is not safe for concurrent
// mutation; callers pass copies (Clone, Without) across goroutines.
type Filters struct {
	m map[string]Entry
}

// NewFilters returns an empty filter set.
func NewFilters() Filters {
	return Filters{m: make(map[string]Entry)}
}

// Set installs f for d, replacing any previous filter. A zero f deletes it.
func (fs *Filters) Set(d *dimension.Dimension, f Filter) {
	if f.IsZero() {
		fs.Delete(d.Name)
		return
	}
	if fs.m == nil {
		fs.m = make(map[string]Entry)
	}
	fs.m[d.Name] = Entry{Dimension: d, Filter: f}
}

// Delete removes the filter of the named dimension. It reports whether one
// was present.
func (fs *Filters) Delete(name string) bool {
	if _, ok := fs.m[name]; !ok {
		return false
	}
	delete(fs.m, name)
	return true
}

// Get returns the filter for the named dimension.
func (fs Filters) Get(name string) (Filter, bool) {
	e, ok := fs.m[name]
	return e.Filter, ok
}

// Has reports whether the named dimension is filtered.
func (fs Filters) Has(name string) bool {
	_, ok := fs.m[name]
	return ok
}

// Len returns the number of filtered dimensions.
func (fs Filters) Len() int { return len(fs.m) }

// Names returns the filtered dimension names in sorted order.
func (fs Filters) Names() []string {
	return slices.Sorted(maps.Keys(fs.m))
}

// All iterates the entries in name order.
func (fs Filters) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for _, name := range fs.Names() {
			if !yield(name, fs.m[name]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (fs Filters) Clone() Filters {
	return Filters{m: maps.Clone(fs.m)}
}

// Without returns a copy with the named dimensions removed.
func (fs Filters) Without(names ...string) Filters {
	out := fs.Clone()
	for _, n := range names {
		delete(out.m, n)
	}
	return out
}

// Equal reports whether both sets hold equal filters on the same dimensions.
func (fs Filters) Equal(o Filters) bool {
	if len(fs.m) != len(o.m) {
		return false
	}
	for name, e := range fs.m {
		oe, ok := o.m[name]
		if !ok || !e.Filter.Equal(oe.Filter) {
			return false
		}
	}
	return true
}

// Matches reports whether row passes every filter. Missing columns fail.
func (fs Filters) Matches(row value.Row) bool {
	for name, e := range fs.m {
		v, ok := row[name]
		if !ok || !e.Filter.Contains(v) {
			return false
		}
	}
	return true
}
