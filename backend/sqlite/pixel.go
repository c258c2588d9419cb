package sqlite

import (
	"database/sql/driver"
	"fmt"

	"github.com/hupe1980/falcon/dimension"
	"modernc.org/sqlite"
)

// pixelFunc is falcon_pixel(value, start, stop, resolution): the active
// pixel of value, clamped to [0, resolution-1].
const pixelFunc = "falcon_pixel"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(pixelFunc, 4, pixel)
}

func pixel(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	var f [3]float64
	for i := range f {
		v, ok := toFloat(args[i])
		if !ok {
			return nil, nil
		}
		f[i] = v
	}
	res, ok := args[3].(int64)
	if !ok || res <= 0 {
		return nil, fmt.Errorf("%s: invalid resolution %v", pixelFunc, args[3])
	}
	cfg := dimension.BinConfig{Start: f[1], Stop: f[2]}
	return int64(min(dimension.PixelFloor(cfg, int(res), f[0]), int(res)-1)), nil
}

func toFloat(v driver.Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
