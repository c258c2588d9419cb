package arrowdb

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/value"
)

// Record converts tbl into a single Arrow record. Column types are inferred
// from the non-null cells: all ints give int64, any float gives float64,
// strings give utf8 and bools give bool. Mixed columns are rejected.
func Record(mem memory.Allocator, tbl table.Table) (arrow.Record, error) {
	names := tbl.ColumnNames()
	fields := make([]arrow.Field, len(names))
	cols := make([]table.Column, len(names))
	for i, name := range names {
		col, _ := tbl.Column(name)
		dt, err := inferType(col)
		if err != nil {
			return nil, fmt.Errorf("arrowdb: column %q: %w", name, err)
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
		cols[i] = col
	}

	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	n := tbl.NumRows()
	for i, col := range cols {
		fb := b.Field(i)
		for r := 0; r < n; r++ {
			appendCell(fb, col.Value(r))
		}
	}
	return b.NewRecord(), nil
}

func inferType(col table.Column) (arrow.DataType, error) {
	var seen value.Kind
	for i := 0; i < col.Len(); i++ {
		k := col.Value(i).Kind
		switch {
		case k == value.KindNull || k == seen:
		case seen == value.KindNull:
			seen = k
		case (seen == value.KindInt && k == value.KindFloat) || (seen == value.KindFloat && k == value.KindInt):
			seen = value.KindFloat
		default:
			return nil, fmt.Errorf("mixed %s and %s cells", seen, k)
		}
	}
	switch seen {
	case value.KindInt:
		return arrow.PrimitiveTypes.Int64, nil
	case value.KindFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case value.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case value.KindString:
		return arrow.BinaryTypes.String, nil
	default:
		return arrow.Null, nil
	}
}

func appendCell(b array.Builder, v value.Value) {
	if v.IsNull() {
		b.AppendNull()
		return
	}
	switch b := b.(type) {
	case *array.Int64Builder:
		b.Append(v.I64)
	case *array.Float64Builder:
		f, _ := v.Number()
		b.Append(f)
	case *array.BooleanBuilder:
		b.Append(v.B)
	case *array.StringBuilder:
		b.Append(v.StringValue())
	default:
		b.AppendNull()
	}
}

// WriteFile writes recs as an Arrow IPC file.
func WriteFile(w io.Writer, schema *arrow.Schema, recs ...arrow.Record) error {
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema))
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := fw.Write(rec); err != nil {
			_ = fw.Close()
			return err
		}
	}
	return fw.Close()
}

// WriteStream writes recs as an Arrow IPC stream.
func WriteStream(w io.Writer, schema *arrow.Schema, recs ...arrow.Record) error {
	sw := ipc.NewWriter(w, ipc.WithSchema(schema))
	for _, rec := range recs {
		if err := sw.Write(rec); err != nil {
			_ = sw.Close()
			return err
		}
	}
	return sw.Close()
}
