package value

import (
	"fmt"
	"math"
	"time"

	json "github.com/goccy/go-json"
)

// FromAny converts a Go value into a typed Value.
//
// time.Time is stored as float milliseconds since the Unix epoch, the unit
// used by time dimensions.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid number %q: %w", x, err)
		}
		return Float(f), nil
	case time.Time:
		return Float(float64(x.UnixMilli())), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported type %T", v)
	}
}

func fromUint(x uint64) (Value, error) {
	if x > math.MaxInt64 {
		return Value{}, fmt.Errorf("value: uint64 out of range: %d", x)
	}
	return Int(int64(x)), nil
}

// Row is a single table row keyed by column name.
type Row map[string]Value

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowFromAny converts a map[string]any document (for example decoded JSON)
// into a typed Row.
func RowFromAny(m map[string]any) (Row, error) {
	r := make(Row, len(m))
	for k, v := range m {
		vv, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
		r[k] = vv
	}
	return r, nil
}
