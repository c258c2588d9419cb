package table

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/falcon/codec"
	"github.com/hupe1980/falcon/value"
)

// Column is a read-only column of cells.
type Column interface {
	Len() int
	Value(i int) value.Value
}

// Table is a read-only set of equal-length columns.
type Table interface {
	NumRows() int
	Column(name string) (Column, bool)
	ColumnNames() []string
}

// Row materializes row i of t.
func Row(t Table, i int) value.Row {
	names := t.ColumnNames()
	row := make(value.Row, len(names))
	for _, name := range names {
		col, _ := t.Column(name)
		row[name] = col.Value(i)
	}
	return row
}

// Values is an in-memory Column.
type Values []value.Value

// Len returns the number of cells.
func (c Values) Len() int { return len(c) }

// Value returns cell i.
func (c Values) Value(i int) value.Value { return c[i] }

// Floats is an in-memory numeric Column without nulls.
type Floats []float64

// Len returns the number of cells.
func (c Floats) Len() int { return len(c) }

// Value returns cell i.
func (c Floats) Value(i int) value.Value { return value.Float(c[i]) }

// Memory is an in-memory Table.
type Memory struct {
	names []string
	cols  map[string]Column
	rows  int
}

var _ Table = (*Memory)(nil)

// NewMemory returns an empty table with n rows.
func NewMemory(n int) *Memory {
	return &Memory{cols: make(map[string]Column), rows: n}
}

// AddColumn appends a column. Its length must equal the table's row count.
func (m *Memory) AddColumn(name string, c Column) error {
	if c.Len() != m.rows {
		return fmt.Errorf("table: column %q has %d rows, want %d", name, c.Len(), m.rows)
	}
	if _, dup := m.cols[name]; dup {
		return fmt.Errorf("table: duplicate column %q", name)
	}
	m.names = append(m.names, name)
	m.cols[name] = c
	return nil
}

// NumRows returns the row count.
func (m *Memory) NumRows() int { return m.rows }

// Column returns the named column.
func (m *Memory) Column(name string) (Column, bool) {
	c, ok := m.cols[name]
	return c, ok
}

// ColumnNames returns the column names in insertion order.
func (m *Memory) ColumnNames() []string { return slices.Clone(m.names) }

// FromRows builds a table from row documents. Columns are the union of the
// row keys in first-seen order; missing cells are null.
func FromRows(rows []value.Row) *Memory {
	var names []string
	seen := make(map[string]bool)
	for _, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			seen[k] = true
			names = append(names, k)
		}
	}

	m := NewMemory(len(rows))
	for _, name := range names {
		col := make(Values, len(rows))
		for i, r := range rows {
			col[i] = r[name]
		}
		_ = m.AddColumn(name, col)
	}
	return m
}

// ReadJSON loads a JSON array of flat objects. A nil c uses codec.Default.
func ReadJSON(r io.Reader, c codec.Codec) (*Memory, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("table: read json: %w", err)
	}
	var raw []map[string]any
	if err := c.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("table: decode json: %w", err)
	}

	rows := make([]value.Row, len(raw))
	var errs []error
	for i, obj := range raw {
		row, err := value.RowFromAny(obj)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		rows[i] = row
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	return FromRows(rows), nil
}
