package mask

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/table"
)

// Mask marks excluded rows. A nil *Mask excludes nothing.
type Mask struct {
	rb *roaring.Bitmap
}

// New returns an empty mask.
func New() *Mask {
	return &Mask{rb: roaring.New()}
}

// Build scans col and excludes every row failing f.
func Build(col table.Column, f filter.Filter) *Mask {
	m := New()
	n := col.Len()
	for i := 0; i < n; i++ {
		if !f.Contains(col.Value(i)) {
			m.rb.Add(uint32(i))
		}
	}
	m.rb.RunOptimize()
	return m
}

// Exclude marks row as excluded.
func (m *Mask) Exclude(row int) {
	m.rb.Add(uint32(row))
}

// Excluded reports whether row is excluded.
func (m *Mask) Excluded(row int) bool {
	if m == nil {
		return false
	}
	return m.rb.Contains(uint32(row))
}

// Cardinality returns the number of excluded rows.
func (m *Mask) Cardinality() uint64 {
	if m == nil {
		return 0
	}
	return m.rb.GetCardinality()
}

// Equal reports whether both masks exclude the same rows.
func (m *Mask) Equal(o *Mask) bool {
	switch {
	case m == nil || o == nil:
		return m.Cardinality() == 0 && o.Cardinality() == 0
	default:
		n := m.rb.GetCardinality()
		return n == o.rb.GetCardinality() && m.rb.AndCardinality(o.rb) == n
	}
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}
	return &Mask{rb: m.rb.Clone()}
}

// SizeInBytes estimates the memory held by the mask.
func (m *Mask) SizeInBytes() int64 {
	if m == nil {
		return 0
	}
	return int64(m.rb.GetSizeInBytes())
}

// Bytes serializes the mask in the portable roaring format.
func (m *Mask) Bytes() ([]byte, error) {
	if m == nil {
		return New().rb.ToBytes()
	}
	return m.rb.ToBytes()
}

// ForEachPassing calls fn for every row in [0, n) the mask does not exclude,
// stopping early when fn returns false.
func (m *Mask) ForEachPassing(n int, fn func(row int) bool) {
	if m == nil || m.rb.IsEmpty() {
		for i := 0; i < n; i++ {
			if !fn(i) {
				return
			}
		}
		return
	}
	it := m.rb.Iterator()
	next := -1
	if it.HasNext() {
		next = int(it.Next())
	}
	for i := 0; i < n; i++ {
		if i == next {
			next = -1
			if it.HasNext() {
				next = int(it.Next())
			}
			continue
		}
		if !fn(i) {
			return
		}
	}
}

// Union returns a mask excluding every row excluded by any input. It returns
// nil (nothing excluded) for no inputs. Inputs are never modified.
func Union(masks ...*Mask) *Mask {
	bms := make([]*roaring.Bitmap, 0, len(masks))
	for _, m := range masks {
		if m != nil {
			bms = append(bms, m.rb)
		}
	}
	switch len(bms) {
	case 0:
		return nil
	case 1:
		return &Mask{rb: bms[0].Clone()}
	default:
		return &Mask{rb: roaring.FastOr(bms...)}
	}
}
