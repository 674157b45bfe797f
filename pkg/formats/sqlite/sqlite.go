// Package sqlite exports tables into SQLite database files.
//
// Scalar columns map to INTEGER, REAL and TEXT. Array columns are stored as
// JSON text. A _tabula_columns table records every exported table's column
// order and kinds so Load can rebuild the arrays.
package sqlite

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	jsonpool "github.com/ajitpratap0/tabula/pkg/json"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/storage"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// DefaultTable is the table name used when none is given.
const DefaultTable = "records"

const catalogSQL = `
	CREATE TABLE IF NOT EXISTS _tabula_columns (
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (table_name, position)
	) WITHOUT ROWID
`

// quote returns name as an SQL identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "INTEGER"
	case table.KindFloat, table.KindNull:
		return "REAL"
	default:
		return "TEXT"
	}
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	loc, err := storage.ParseLocation(path)
	if err != nil {
		return nil, err
	}
	if loc.Remote() {
		return nil, errors.New(errors.ErrorTypeCapability, "SQLite export needs a local file").
			WithDetail("path", path)
	}
	db, err := sql.Open("sqlite3", loc.Key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open SQLite database").WithDetail("path", path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open SQLite database").WithDetail("path", path)
	}
	return db, nil
}

// Export writes tbl into the table name of the database at path, replacing
// any previous content of that table.
func Export(ctx context.Context, path, name string, tbl *table.Table) (err error) {
	if name == "" {
		name = DefaultTable
	}
	if tbl == nil {
		tbl = table.Empty()
	}
	ctx, span := observability.StartSpan(ctx, "sqlite.export",
		attribute.String("db.path", path),
		attribute.String("db.table", name))
	timer := metrics.NewTimer("export")
	defer timer.ObserveDuration()
	defer func() {
		if err != nil {
			metrics.Errors.WithLabelValues(string(errors.TypeOf(err))).Inc()
		}
		span.End(err)
	}()

	db, err := open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to begin transaction")
	}
	if err := export(ctx, tx, name, tbl); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to commit export")
	}

	logger.WithContext(ctx).Debug("table exported to SQLite",
		zap.String("path", path),
		zap.String("table", name),
		zap.Int("records", tbl.Len()))
	return nil
}

func export(ctx context.Context, tx *sql.Tx, name string, tbl *table.Table) error {
	cols := tbl.Columns()
	kinds := make([]table.Kind, len(cols))
	defs := make([]string, len(cols))
	for i, c := range cols {
		kinds[i] = tbl.Kind(c)
		defs[i] = quote(c) + " " + sqlType(kinds[i])
	}

	stmts := []string{
		catalogSQL,
		"DROP TABLE IF EXISTS " + quote(name),
		"CREATE TABLE " + quote(name) + " (" + strings.Join(defs, ", ") + ")",
	}
	if len(cols) == 0 {
		stmts[2] = "CREATE TABLE " + quote(name) + " (_empty INTEGER)"
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create table").WithDetail("table", name)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM _tabula_columns WHERE table_name = ?", name); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to reset column catalog")
	}
	for i, c := range cols {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO _tabula_columns (table_name, column_name, position, kind) VALUES (?, ?, ?, ?)",
			name, c, i, kinds[i].String()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to record column").WithDetail("column", c)
		}
	}
	if len(cols) == 0 || tbl.Len() == 0 {
		return nil
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quote(name)+" ("+strings.Join(quoted, ", ")+") VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to prepare insert statement")
	}
	defer stmt.Close()

	args := make([]interface{}, len(cols))
	for i := 0; i < tbl.Len(); i++ {
		for j, c := range cols {
			v, err := sqlValue(kinds[j], tbl.Value(c, i))
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode value").
					WithDetail("column", c).
					WithDetail("record", i)
			}
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to insert row").WithDetail("record", i)
		}
	}
	return nil
}

func sqlValue(k table.Kind, v table.Value) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case table.KindInt, table.KindFloat, table.KindText:
		return v, nil
	case table.KindNull:
		return nil, nil
	case table.KindMixed:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return table.Format(v), nil
	default:
		data, err := jsonpool.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
}

// Load reads back a table written by Export.
func Load(ctx context.Context, path, name string) (*table.Table, error) {
	if name == "" {
		name = DefaultTable
	}
	db, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		"SELECT column_name, kind FROM _tabula_columns WHERE table_name = ? ORDER BY position", name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read column catalog")
	}
	var (
		cols  []string
		kinds []string
	)
	for rows.Next() {
		var c, k string
		if err := rows.Scan(&c, &k); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read column catalog")
		}
		cols = append(cols, c)
		kinds = append(kinds, k)
	}
	rows.Close()
	if len(cols) == 0 {
		return nil, errors.Newf(errors.ErrorTypeFile, "table %q was not exported by tabula", name)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	data := make(map[string][]table.Value, len(cols))
	for _, c := range cols {
		data[c] = []table.Value{}
	}
	rows, err = db.QueryContext(ctx, "SELECT "+strings.Join(quoted, ", ")+" FROM "+quote(name)+" ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to query table").WithDetail("table", name)
	}
	defer rows.Close()

	cells := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to scan row")
		}
		for i, c := range cols {
			v, err := fromSQL(kinds[i], cells[i])
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decode value").WithDetail("column", c)
			}
			data[c] = append(data[c], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read rows")
	}
	return table.Rebuild(cols, data)
}

func fromSQL(kind string, cell interface{}) (table.Value, error) {
	switch x := cell.(type) {
	case nil:
		return nil, nil
	case int64:
		if kind == table.KindFloat.String() {
			return float64(x), nil
		}
		return x, nil
	case float64:
		return x, nil
	case []byte:
		return decodeText(kind, string(x))
	case string:
		return decodeText(kind, x)
	default:
		return nil, errors.Newf(errors.ErrorTypeFile, "unexpected SQLite value %T", cell)
	}
}

func decodeText(kind, s string) (table.Value, error) {
	var elem table.Kind
	switch kind {
	case table.KindIntList.String():
		elem = table.KindInt
	case table.KindFloatList.String():
		elem = table.KindFloat
	case table.KindTextList.String():
		elem = table.KindText
	default:
		return s, nil
	}
	var raw []interface{}
	if err := jsonpool.NewDecoder(strings.NewReader(s)).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]table.Value, len(raw))
	for i, r := range raw {
		out[i] = element(elem, r)
	}
	return out, nil
}

func element(k table.Kind, r interface{}) table.Value {
	switch x := r.(type) {
	case nil:
		return nil
	case string:
		return x
	case interface{ String() string }:
		s := x.String()
		if k == table.KindInt {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return s
		}
		return f
	default:
		return nil
	}
}
