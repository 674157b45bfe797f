// Package table provides the column-oriented Table produced by the reader
// and consumed by the condition engine, the writer and the exporters.
package table

import (
	"math"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// LogPrefix marks columns holding base-10 logarithms.
const LogPrefix = "log_"

// Table maps column names to per-record values. Every column holds exactly
// Len() values. A Table is never mutated after construction.
type Table struct {
	columns []string
	data    map[string][]Value
	n       int
}

// New builds a table from columns, in the given order, and derives the
// sibling of every numeric log_ column. Ragged or missing columns are
// rejected.
func New(columns []string, data map[string][]Value) (*Table, error) {
	t, err := Rebuild(columns, data)
	if err != nil {
		return nil, err
	}
	t.deriveLogColumns()
	return t, nil
}

// Rebuild is New without the log_ expansion, for tables derived from a
// table whose derived columns already exist.
func Rebuild(columns []string, data map[string][]Value) (*Table, error) {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		data:    make(map[string][]Value, len(columns)),
	}
	for i, name := range columns {
		col, ok := data[name]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeInternal, "column %q has no values", name)
		}
		if _, dup := t.data[name]; dup {
			return nil, errors.Newf(errors.ErrorTypeInternal, "column %q listed twice", name)
		}
		if i == 0 {
			t.n = len(col)
		} else if len(col) != t.n {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"column %q has %d values, expected %d", name, len(col), t.n).WithDetail("column", name)
		}
		t.columns = append(t.columns, name)
		t.data[name] = col
	}
	if len(data) != len(columns) {
		return nil, errors.Newf(errors.ErrorTypeInternal, "%d columns given but %d ordered", len(data), len(columns))
	}
	return t, nil
}

// MustNew is New that panics on error, for tests and literals.
func MustNew(columns []string, data map[string][]Value) *Table {
	t, err := New(columns, data)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no columns and no records.
func Empty() *Table {
	return &Table{data: map[string][]Value{}}
}

// deriveLogColumns adds X = 10^log_X for every purely numeric log_X column
// whose sibling does not exist yet. Only columns present before the call are
// considered, so a derived column never derives again.
func (t *Table) deriveLogColumns() {
	for _, name := range append([]string(nil), t.columns...) {
		if !strings.HasPrefix(name, LogPrefix) {
			continue
		}
		base := strings.TrimPrefix(name, LogPrefix)
		if base == "" || t.Has(base) {
			continue
		}
		col := t.data[name]
		if !numericValues(col) {
			continue
		}
		derived := make([]Value, len(col))
		for i, v := range col {
			derived[i] = pow10(v)
		}
		t.columns = append(t.columns, base)
		t.data[base] = derived
	}
}

func numericValues(values []Value) bool {
	for _, v := range values {
		switch x := v.(type) {
		case nil, int64, float64, int:
		case []Value:
			if !numericValues(x) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func pow10(v Value) Value {
	if arr, ok := v.([]Value); ok {
		out := make([]Value, len(arr))
		for i, e := range arr {
			out[i] = pow10(e)
		}
		return out
	}
	f, ok := ToFloat(v)
	if !ok {
		return nil
	}
	return math.Pow(10, f)
}

// Len returns the record count.
func (t *Table) Len() int {
	return t.n
}

// IsEmpty reports whether the table has no records.
func (t *Table) IsEmpty() bool {
	return t.n == 0
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns the values of a column. The slice must not be modified.
func (t *Table) Column(name string) ([]Value, bool) {
	col, ok := t.data[name]
	return col, ok
}

// Value returns one cell, nil for unknown columns.
func (t *Table) Value(column string, i int) Value {
	col, ok := t.data[column]
	if !ok || i < 0 || i >= len(col) {
		return nil
	}
	return col[i]
}

// Record returns record i as a column map.
func (t *Table) Record(i int) map[string]Value {
	rec := make(map[string]Value, len(t.columns))
	for _, name := range t.columns {
		rec[name] = t.data[name][i]
	}
	return rec
}

// Row returns the cells of record i for the given columns.
func (t *Table) Row(i int, columns []string) []Value {
	row := make([]Value, len(columns))
	for j, name := range columns {
		row[j] = t.Value(name, i)
	}
	return row
}

// Equal reports whether both tables hold the same columns, regardless of
// order, and equal cells within the relative tolerance tol.
func (t *Table) Equal(other *Table, tol float64) bool {
	if t.n != other.n || len(t.columns) != len(other.columns) {
		return false
	}
	for _, name := range t.columns {
		oc, ok := other.data[name]
		if !ok {
			return false
		}
		for i, v := range t.data[name] {
			if !ValuesEqual(v, oc[i], tol) {
				return false
			}
		}
	}
	return true
}

// Concat stacks the records of tables in order. Columns appear in order of
// first appearance; a table lacking a column contributes absent values.
func Concat(tables ...*Table) (*Table, error) {
	var (
		columns []string
		seen    = map[string]bool{}
		total   int
	)
	for _, t := range tables {
		if t == nil {
			continue
		}
		total += t.n
		for _, c := range t.columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		data[c] = make([]Value, 0, total)
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range columns {
			if col, ok := t.data[c]; ok {
				data[c] = append(data[c], col...)
			} else {
				data[c] = append(data[c], make([]Value, t.n)...)
			}
		}
	}
	return Rebuild(columns, data)
}
