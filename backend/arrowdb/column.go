package arrowdb

import (
	"fmt"
	"slices"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/value"
)

// column adapts a chunked Arrow column to table.Column.
type column struct {
	chunks []arrow.Array
	// starts[i] is the first row of chunks[i].
	starts []int
	n      int
}

var _ table.Column = (*column)(nil)

func newColumn(chunks []arrow.Array) (*column, error) {
	c := &column{chunks: make([]arrow.Array, 0, len(chunks))}
	for _, ch := range chunks {
		if err := supported(ch.DataType()); err != nil {
			return nil, err
		}
		if ch.Len() == 0 {
			continue
		}
		c.chunks = append(c.chunks, ch)
		c.starts = append(c.starts, c.n)
		c.n += ch.Len()
	}
	return c, nil
}

func supported(dt arrow.DataType) error {
	switch dt.ID() {
	case arrow.NULL, arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.LARGE_STRING,
		arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return nil
	case arrow.DICTIONARY:
		return supported(dt.(*arrow.DictionaryType).ValueType)
	default:
		return fmt.Errorf("arrowdb: unsupported column type %s", dt)
	}
}

func (c *column) Len() int { return c.n }

func (c *column) Value(i int) value.Value {
	k := sort.Search(len(c.starts), func(j int) bool { return c.starts[j] > i }) - 1
	return cell(c.chunks[k], i-c.starts[k])
}

func cell(a arrow.Array, i int) value.Value {
	if a.IsNull(i) {
		return value.Null()
	}
	switch a := a.(type) {
	case *array.Boolean:
		return value.Bool(a.Value(i))
	case *array.Int8:
		return value.Int(int64(a.Value(i)))
	case *array.Int16:
		return value.Int(int64(a.Value(i)))
	case *array.Int32:
		return value.Int(int64(a.Value(i)))
	case *array.Int64:
		return value.Int(a.Value(i))
	case *array.Uint8:
		return value.Int(int64(a.Value(i)))
	case *array.Uint16:
		return value.Int(int64(a.Value(i)))
	case *array.Uint32:
		return value.Int(int64(a.Value(i)))
	case *array.Uint64:
		v, err := value.FromAny(a.Value(i))
		if err != nil {
			return value.Float(float64(a.Value(i)))
		}
		return v
	case *array.Float32:
		return value.Float(float64(a.Value(i)))
	case *array.Float64:
		return value.Float(a.Value(i))
	case *array.String:
		return value.String(a.Value(i))
	case *array.LargeString:
		return value.String(a.Value(i))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return value.Float(float64(a.Value(i).ToTime(unit).UnixMilli()))
	case *array.Date32:
		return value.Float(float64(a.Value(i).ToTime().UnixMilli()))
	case *array.Date64:
		return value.Float(float64(a.Value(i)))
	case *array.Dictionary:
		return cell(a.Dictionary(), a.GetValueIndex(i))
	default:
		return value.Null()
	}
}

// Table exposes an arrow.Table as a table.Table.
type Table struct {
	tbl   arrow.Table
	names []string
	cols  map[string]*column
}

var _ table.Table = (*Table)(nil)

// NewTable wraps tbl. The Table retains tbl until Release.
func NewTable(tbl arrow.Table) (*Table, error) {
	t := &Table{cols: make(map[string]*column, tbl.NumCols())}
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		name := col.Name()
		if _, dup := t.cols[name]; dup {
			return nil, fmt.Errorf("arrowdb: duplicate column %q", name)
		}
		c, err := newColumn(col.Data().Chunks())
		if err != nil {
			return nil, fmt.Errorf("arrowdb: column %q: %w", name, err)
		}
		t.names = append(t.names, name)
		t.cols[name] = c
	}
	tbl.Retain()
	t.tbl = tbl
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return int(t.tbl.NumRows()) }

// Column returns the named column.
func (t *Table) Column(name string) (table.Column, bool) {
	c, ok := t.cols[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// ColumnNames returns the names in schema order.
func (t *Table) ColumnNames() []string { return slices.Clone(t.names) }

// Schema returns the Arrow schema.
func (t *Table) Schema() *arrow.Schema { return t.tbl.Schema() }

// Release drops the reference taken by NewTable.
func (t *Table) Release() { t.tbl.Release() }
