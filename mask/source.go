package mask

import (
	"fmt"

	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/table"
)

// Source produces masks for the columns of one table.
type Source struct {
	tbl   table.Table
	cache *Cache
}

// NewSource returns a mask source. A nil cache disables memoization.
func NewSource(t table.Table, c *Cache) *Source {
	return &Source{tbl: t, cache: c}
}

// Get returns the mask of rows failing f on the named column. The zero
// filter yields nil.
func (s *Source) Get(name string, f filter.Filter) (*Mask, error) {
	if f.IsZero() {
		return nil, nil
	}
	key := Key(name, f)
	if s.cache != nil {
		if m, ok := s.cache.Get(key); ok {
			return m, nil
		}
	}
	col, ok := s.tbl.Column(name)
	if !ok {
		return nil, fmt.Errorf("mask: unknown column %q", name)
	}
	m := Build(col, f)
	if s.cache != nil {
		s.cache.Set(key, m)
	}
	return m, nil
}

// Union returns the union of the masks of every filter in fs.
func (s *Source) Union(fs filter.Filters) (*Mask, error) {
	masks := make([]*Mask, 0, fs.Len())
	for name, e := range fs.All() {
		m, err := s.Get(name, e.Filter)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	return Union(masks...), nil
}
