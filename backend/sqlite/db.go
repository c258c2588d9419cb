package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/falcon/backend"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	"github.com/hupe1980/falcon/internal/resource"
	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/value"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DB queries one table of a SQLite database.
type DB struct {
	db    *sql.DB
	table string
	rc    *resource.Controller
	owned bool
}

var (
	_ backend.Backend = (*DB)(nil)
	_ backend.Named   = (*DB)(nil)
)

// Open opens the database at dsn with the pure Go SQLite driver.
func Open(ctx context.Context, dsn string, optFns ...Option) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	d := New(db, optFns...)
	d.owned = true
	return d, nil
}

// New queries an already opened database. Close leaves db open.
func New(db *sql.DB, optFns ...Option) *DB {
	opts := applyOptions(optFns)
	return &DB{
		db:    db,
		table: opts.table,
		rc:    opts.controller(),
	}
}

// TableName implements backend.Named.
func (d *DB) TableName() string { return d.table }

// SQL returns the underlying handle.
func (d *DB) SQL() *sql.DB { return d.db }

// Close closes the database if Open created it.
func (d *DB) Close() error {
	if !d.owned {
		return nil
	}
	return d.db.Close()
}

// query runs one statement under the resource controller.
func (d *DB) query(ctx context.Context, q string, args []any, scan func(*sql.Rows) error) error {
	if err := d.rc.AcquireQuery(ctx); err != nil {
		return err
	}
	defer d.rc.ReleaseQuery()

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (d *DB) from() string { return " FROM " + quote(d.table) }

// Length returns the number of rows passing fs.
func (d *DB) Length(ctx context.Context, fs filter.Filters) (int64, error) {
	w, args := where(fs)
	var n int64
	err := d.query(ctx, "SELECT COUNT(*)"+d.from()+" WHERE "+w, args, func(r *sql.Rows) error {
		return r.Scan(&n)
	})
	return n, err
}

// Extent returns the [min, max] of the numeric cells of d's column.
func (d *DB) Extent(ctx context.Context, dim *dimension.Dimension) (dimension.Interval, error) {
	col := quote(dim.Name)
	var lo, hi sql.NullFloat64
	err := d.query(ctx, "SELECT MIN("+col+"), MAX("+col+")"+d.from()+" WHERE "+isNumber(col), nil, func(r *sql.Rows) error {
		return r.Scan(&lo, &hi)
	})
	if err != nil {
		return dimension.Interval{}, err
	}
	if !lo.Valid || !hi.Valid {
		return dimension.Interval{}, fmt.Errorf("sqlite: column %q has no numeric values", dim.Name)
	}
	return dimension.Interval{Lo: lo.Float64, Hi: hi.Float64}, nil
}

// Categories returns the distinct cells of d's column in first-seen order
// with null last. Views without rowid are not supported.
func (d *DB) Categories(ctx context.Context, dim *dimension.Dimension) ([]value.Value, error) {
	col := quote(dim.Name)
	var (
		out     []value.Value
		hasNull bool
	)
	err := d.query(ctx, "SELECT "+col+d.from()+" GROUP BY "+col+" ORDER BY MIN(rowid)", nil, func(r *sql.Rows) error {
		v, err := scanValue(r)
		if err != nil {
			return err
		}
		if v.IsNull() {
			hasNull = true
			return nil
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hasNull {
		out = append(out, value.Null())
	}
	return out, nil
}

// TableExists looks the table or view up in sqlite_master.
func (d *DB) TableExists(ctx context.Context) (bool, error) {
	var n int
	err := d.query(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", []any{d.table}, func(r *sql.Rows) error {
		return r.Scan(&n)
	})
	return n > 0, err
}

// DimensionExists looks the column up with pragma_table_info.
func (d *DB) DimensionExists(ctx context.Context, dim *dimension.Dimension) (bool, error) {
	var n int
	err := d.query(ctx, "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", []any{d.table, dim.Name}, func(r *sql.Rows) error {
		return r.Scan(&n)
	})
	return n > 0, err
}

// Entries pages through the rows passing fs with LIMIT and OFFSET. A query
// slot is held while the sequence is being ranged over.
func (d *DB) Entries(ctx context.Context, offset, length int, fs filter.Filters) iter.Seq2[value.Row, error] {
	return func(yield func(value.Row, error) bool) {
		w, args := where(fs)
		if length < 0 {
			length = -1
		}
		args = append(args, length, max(offset, 0))

		var (
			cols []string
			stop = errors.New("stop")
		)
		err := d.query(ctx, "SELECT *"+d.from()+" WHERE "+w+" LIMIT ? OFFSET ?", args, func(r *sql.Rows) error {
			if cols == nil {
				var err error
				if cols, err = r.Columns(); err != nil {
					return err
				}
			}
			raw := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := r.Scan(ptrs...); err != nil {
				return err
			}
			row := make(value.Row, len(cols))
			for i, name := range cols {
				v, err := toValue(raw[i])
				if err != nil {
					return fmt.Errorf("sqlite: column %q: %w", name, err)
				}
				row[name] = v
			}
			if !yield(row, nil) {
				return stop
			}
			return nil
		})
		if err != nil && !errors.Is(err, stop) {
			yield(nil, err)
		}
	}
}

func scanValue(r *sql.Rows) (value.Value, error) {
	var raw any
	if err := r.Scan(&raw); err != nil {
		return value.Value{}, err
	}
	return toValue(raw)
}

func toValue(raw any) (value.Value, error) {
	if b, ok := raw.([]byte); ok {
		return value.String(string(b)), nil
	}
	return value.FromAny(raw)
}

// Import creates name in db and copies tbl into it. Columns are created
// without a declared type so every cell keeps its storage class.
func Import(ctx context.Context, db *sql.DB, name string, tbl table.Table) error {
	names := tbl.ColumnNames()
	cols := make([]table.Column, len(names))
	quoted := make([]string, len(names))
	marks := make([]string, len(names))
	for i, n := range names {
		cols[i], _ = tbl.Column(n)
		quoted[i] = quote(n)
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(quoted, ", "))); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", name, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quote(name), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(cols))
	for row := 0; row < tbl.NumRows(); row++ {
		for i, c := range cols {
			args[i] = c.Value(row).Any()
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlite: insert row %d: %w", row, err)
		}
	}
	return tx.Commit()
}
