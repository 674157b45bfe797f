package condition

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// ParseAll parses every clause, reporting all failures in one error.
func ParseAll(conditions []string) ([]Clause, error) {
	clauses := make([]Clause, 0, len(conditions))
	var problems []string
	for _, cond := range conditions {
		c, err := Parse(cond)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		clauses = append(clauses, c)
	}
	if len(problems) > 0 {
		return nil, filterError("invalid clauses", problems)
	}
	return clauses, nil
}

// Validate checks that every clause can be evaluated against tbl: the right
// side of in/not in names a column, the left side of an arithmetic clause
// names a column and its right side is a number.
func Validate(tbl *table.Table, clauses []Clause) error {
	var problems []string
	for _, c := range clauses {
		if c.Op.Word() {
			if !tbl.Has(c.Right) {
				problems = append(problems, strconv.Quote(c.Right)+" is not an available column")
			}
			continue
		}
		if !tbl.Has(c.Left) {
			problems = append(problems, strconv.Quote(c.Left)+" is not an available column")
		}
		if !c.HasNumber {
			problems = append(problems, strconv.Quote(c.Right)+" should be a number in "+strconv.Quote(c.String()))
		}
	}
	if len(problems) > 0 {
		return filterError("clauses do not apply to table", problems)
	}
	return nil
}

func filterError(msg string, problems []string) error {
	return errors.New(errors.ErrorTypeFilter, msg+": "+strings.Join(problems, "; ")).
		WithDetail("problems", problems)
}

// Filter returns a new table holding the records, and the array elements,
// that satisfy every condition. An empty table filters to an empty table.
// On any parse, validation or evaluation failure the original table is
// returned unchanged together with a filter error.
func Filter(tbl *table.Table, conditions ...string) (*table.Table, error) {
	return FilterContext(context.Background(), tbl, conditions...)
}

// FilterContext is Filter with tracing and logging bound to ctx.
func FilterContext(ctx context.Context, tbl *table.Table, conditions ...string) (*table.Table, error) {
	if tbl == nil || tbl.IsEmpty() {
		return table.Empty(), nil
	}
	if len(conditions) == 0 {
		return tbl, nil
	}

	ctx, span := observability.StartSpan(ctx, "condition.filter",
		attribute.StringSlice("conditions", conditions),
		attribute.Int("records.in", tbl.Len()))
	timer := metrics.NewTimer("filter")
	defer timer.ObserveDuration()

	out, err := filter(tbl, conditions)
	if err != nil {
		metrics.FilterClauses.WithLabelValues("rejected").Add(float64(len(conditions)))
		metrics.Errors.WithLabelValues(string(errors.ErrorTypeFilter)).Inc()
		logger.WithContext(ctx).Warn("filter not applied, returning unfiltered table",
			zap.Strings("conditions", conditions),
			zap.Error(err))
		span.End(err)
		return tbl, err
	}
	metrics.FilterClauses.WithLabelValues("applied").Add(float64(len(conditions)))
	span.SetAttribute("records.out", out.Len())
	span.End(nil)
	return out, nil
}

func filter(tbl *table.Table, conditions []string) (*table.Table, error) {
	clauses, err := ParseAll(conditions)
	if err != nil {
		return nil, err
	}
	if err := Validate(tbl, clauses); err != nil {
		return nil, err
	}

	columns := tbl.Columns()
	data := make(map[string][]table.Value, len(columns))
	for _, name := range columns {
		data[name] = []table.Value{}
	}

	for i := 0; i < tbl.Len(); i++ {
		keep, mask, err := evalRecord(tbl, clauses, i)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		for _, name := range columns {
			v := tbl.Value(name, i)
			if arr, ok := v.([]table.Value); ok && mask != nil && len(arr) == len(mask) {
				kept := make([]table.Value, 0, len(arr))
				for j, e := range arr {
					if mask[j] {
						kept = append(kept, e)
					}
				}
				v = kept
			}
			data[name] = append(data[name], v)
		}
	}
	return table.Rebuild(columns, data)
}

// evalRecord applies every clause to record i. A scalar false excludes the
// record. Element masks are AND-ed and the record survives when any element
// does; mask is nil when no clause produced one.
func evalRecord(tbl *table.Table, clauses []Clause, i int) (bool, []bool, error) {
	var mask []bool
	for _, c := range clauses {
		scalar, m, err := c.eval(tbl, i)
		if err != nil {
			return false, nil, err
		}
		if m == nil {
			if !scalar {
				return false, nil, nil
			}
			continue
		}
		if mask == nil {
			mask = append([]bool{}, m...)
			continue
		}
		if len(m) != len(mask) {
			return false, nil, errors.Newf(errors.ErrorTypeFilter,
				"element masks differ in length (%d and %d) in record %d", len(mask), len(m), i).
				WithDetail("clause", c.Text).
				WithDetail("record", i)
		}
		for j := range mask {
			mask[j] = mask[j] && m[j]
		}
	}
	if mask == nil {
		return true, nil, nil
	}
	for _, ok := range mask {
		if ok {
			return true, mask, nil
		}
	}
	return false, nil, nil
}

// eval returns either a scalar outcome or, for array values under an
// arithmetic operator, a non-nil element mask.
func (c Clause) eval(tbl *table.Table, i int) (bool, []bool, error) {
	switch c.Op {
	case OpIn, OpNotIn:
		in, err := c.contains(tbl.Value(c.Right, i))
		if err != nil {
			return false, nil, errors.Wrap(err, errors.ErrorTypeFilter, "cannot evaluate clause").
				WithDetail("clause", c.Text).
				WithDetail("record", i)
		}
		return in == (c.Op == OpIn), nil, nil
	}

	v := tbl.Value(c.Left, i)
	if arr, ok := v.([]table.Value); ok {
		mask := make([]bool, len(arr))
		for j, e := range arr {
			mask[j] = c.compare(e)
		}
		return false, mask, nil
	}
	return c.compare(v), nil, nil
}

// compare applies an arithmetic operator to one scalar. Values that are not
// numbers only satisfy !=.
func (c Clause) compare(v table.Value) bool {
	f, ok := table.ToFloat(v)
	if !ok {
		return c.Op == OpNe
	}
	switch c.Op {
	case OpEq:
		return f == c.Number
	case OpNe:
		return f != c.Number
	case OpGe:
		return f >= c.Number
	case OpGt:
		return f > c.Number
	case OpLe:
		return f <= c.Number
	case OpLt:
		return f < c.Number
	}
	return false
}

// contains tests Left against a text value (substring) or an array value
// (membership, numeric when the array starts with a number).
func (c Clause) contains(v table.Value) (bool, error) {
	switch x := v.(type) {
	case string:
		return strings.Contains(x, c.Left), nil
	case []table.Value:
		if len(x) == 0 {
			return false, nil
		}
		if _, numeric := table.ToFloat(x[0]); numeric {
			want, err := strconv.ParseFloat(c.Left, 64)
			if err != nil {
				return false, nil
			}
			for _, e := range x {
				if f, ok := table.ToFloat(e); ok && f == want {
					return true, nil
				}
			}
			return false, nil
		}
		for _, e := range x {
			if s, ok := e.(string); ok && s == c.Left {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errors.Newf(errors.ErrorTypeFilter,
			"%q must hold text or arrays, found %s", c.Right, table.TypeName(v))
	}
}

// Select filters tbl and returns the requested columns of every surviving
// record, in the order requested. Unknown columns or a failed filter return
// nil and a filter error.
func Select(tbl *table.Table, columns []string, conditions ...string) ([][]table.Value, error) {
	var missing []string
	for _, name := range columns {
		if !tbl.Has(name) {
			missing = append(missing, strconv.Quote(name)+" is not an available column")
		}
	}
	if len(missing) > 0 {
		return nil, filterError("unknown columns", missing)
	}

	filtered, err := Filter(tbl, conditions...)
	if err != nil {
		return nil, err
	}
	rows := make([][]table.Value, filtered.Len())
	for i := range rows {
		rows[i] = filtered.Row(i, columns)
	}
	return rows, nil
}
