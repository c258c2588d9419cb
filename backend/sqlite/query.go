package sqlite

import (
	"fmt"
	"strings"

	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/value"
)

// quote returns name as a SQL identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isNumber(col string) string {
	return "typeof(" + col + ") IN ('integer', 'real')"
}

// where renders fs as a boolean expression. An empty set renders as "1".
func where(fs filter.Filters) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for name, e := range fs.All() {
		col := quote(name)
		switch e.Filter.Kind() {
		case filter.KindRange:
			iv := e.Filter.Interval()
			parts = append(parts, fmt.Sprintf("(%s AND %s >= ? AND %s < ?)", isNumber(col), col, col))
			args = append(args, iv.Lo, iv.Hi)
		case filter.KindSet:
			p, a := inSet(col, e.Filter.Categories())
			parts = append(parts, p)
			args = append(args, a...)
		}
	}
	if len(parts) == 0 {
		return "1", nil
	}
	return strings.Join(parts, " AND "), args
}

func inSet(col string, cats []value.Value) (string, []any) {
	var (
		alts  []string
		marks []string
		args  []any
	)
	for _, c := range cats {
		if c.IsNull() {
			alts = append(alts, col+" IS NULL")
			continue
		}
		marks = append(marks, "?")
		args = append(args, c.Any())
	}
	if len(marks) > 0 {
		alts = append(alts, fmt.Sprintf("%s IN (%s)", col, strings.Join(marks, ", ")))
	}
	if len(alts) == 0 {
		return "0", nil
	}
	return "(" + strings.Join(alts, " OR ") + ")", args
}

// binExpr groups rows by d's bin. Continuous dimensions yield the bin index
// (NULL outside the binned range); categorical dimensions yield the raw
// cell, mapped to a bin by the caller.
func binExpr(d *dimension.Dimension) (string, []any) {
	col := quote(d.Name)
	if !d.IsContinuous() {
		return col, nil
	}
	cfg := d.BinConfig()
	return scaled(col, d.NumBins()), []any{cfg.Start, cfg.Stop, cfg.Start, cfg.Step}
}

// activeExpr yields pixel+1 for continuous dimensions and the raw cell for
// categorical ones. Pixels come from falcon_pixel so that brushes and rows
// agree on every boundary.
func activeExpr(d *dimension.Dimension) (string, []any) {
	col := quote(d.Name)
	if !d.IsContinuous() {
		return col, nil
	}
	cfg := d.BinConfig()
	expr := fmt.Sprintf("(CASE WHEN %s AND %s >= ? AND %s <= ? THEN %s(%s, ?, ?, ?) + 1 END)",
		isNumber(col), col, col, pixelFunc, col)
	return expr, []any{cfg.Start, cfg.Stop, cfg.Start, cfg.Stop, d.Resolution}
}

// scaled floors (col - start) / step into [0, n-1] for cells within
// [start, stop]. Parameters: start, stop, start, step.
func scaled(col string, n int) string {
	return fmt.Sprintf("(CASE WHEN %s AND %s >= ? AND %s <= ? THEN MIN(CAST((%s - ?) / ? AS INTEGER), %d) END)",
		isNumber(col), col, col, col, n-1)
}
