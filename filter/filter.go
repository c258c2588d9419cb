package filter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/value"
)

// Kind identifies the shape of a Filter.
type Kind uint8

const (
	// KindNone is the zero Filter.
	KindNone Kind = iota
	// KindRange is a half-open numeric interval.
	KindRange
	// KindSet is a set of categories.
	KindSet
)

// Filter is a brush on one dimension.
type Filter struct {
	kind Kind
	iv   dimension.Interval
	// set is keyed by value.Key; cats keeps the values in Key order.
	set  map[string]struct{}
	cats []value.Value
}

// Range returns the half-open interval filter [lo, hi).
func Range(lo, hi float64) Filter {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Filter{kind: KindRange, iv: dimension.Interval{Lo: lo, Hi: hi}}
}

// Set returns a category filter. Duplicates are dropped. Include
// value.Null() to let null cells pass.
func Set(categories ...value.Value) Filter {
	f := Filter{kind: KindSet, set: make(map[string]struct{}, len(categories))}
	for _, c := range categories {
		k := c.Key()
		if _, dup := f.set[k]; dup {
			continue
		}
		f.set[k] = struct{}{}
		f.cats = append(f.cats, c)
	}
	slices.SortFunc(f.cats, func(a, b value.Value) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return f
}

// Kind returns the filter kind.
func (f Filter) Kind() Kind { return f.kind }

// IsZero reports whether f is the empty "no filter" value.
func (f Filter) IsZero() bool { return f.kind == KindNone }

// Interval returns the bounds of a range filter.
func (f Filter) Interval() dimension.Interval { return f.iv }

// Categories returns the categories of a set filter in key order.
func (f Filter) Categories() []value.Value {
	return slices.Clone(f.cats)
}

// Contains reports whether v passes the filter. Null never passes a range
// filter and passes a set filter only when the set contains null.
func (f Filter) Contains(v value.Value) bool {
	switch f.kind {
	case KindNone:
		return true
	case KindRange:
		x, ok := v.Number()
		return ok && x >= f.iv.Lo && x < f.iv.Hi
	case KindSet:
		_, ok := f.set[v.Key()]
		return ok
	default:
		return false
	}
}

// Equal reports whether f and o select the same rows.
func (f Filter) Equal(o Filter) bool {
	if f.kind != o.kind {
		return false
	}
	switch f.kind {
	case KindRange:
		return f.iv == o.iv
	case KindSet:
		if len(f.set) != len(o.set) {
			return false
		}
		for k := range f.set {
			if _, ok := o.set[k]; !ok {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Key returns a stable string identifying f.
func (f Filter) Key() string {
	switch f.kind {
	case KindRange:
		return "[" + strconv.FormatFloat(f.iv.Lo, 'g', -1, 64) + "," +
			strconv.FormatFloat(f.iv.Hi, 'g', -1, 64) + ")"
	case KindSet:
		keys := make([]string, len(f.cats))
		for i, c := range f.cats {
			keys[i] = c.Key()
		}
		return "{" + strings.Join(keys, ",") + "}"
	default:
		return "none"
	}
}

// String implements fmt.Stringer.
func (f Filter) String() string {
	if f.kind != KindSet {
		return f.Key()
	}
	s := make([]string, len(f.cats))
	for i, c := range f.cats {
		s[i] = c.String()
	}
	return "{" + strings.Join(s, ", ") + "}"
}
