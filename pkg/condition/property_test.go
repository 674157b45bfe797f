package condition

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ajitpratap0/tabula/pkg/table"
)

type sampleRecord struct {
	Scalar int64
	A      []int64
	B      []int64
}

// genRecord builds a record whose two array columns share one length.
func genRecord() gopter.Gen {
	return gen.IntRange(0, 6).FlatMap(func(n interface{}) gopter.Gen {
		size := n.(int)
		return gopter.CombineGens(
			gen.Int64Range(-5, 5),
			gen.SliceOfN(size, gen.Int64Range(-5, 5)),
			gen.SliceOfN(size, gen.Int64Range(-5, 5)),
		).Map(func(vals []interface{}) sampleRecord {
			return sampleRecord{Scalar: vals[0].(int64), A: vals[1].([]int64), B: vals[2].([]int64)}
		})
	}, reflect.TypeOf(sampleRecord{}))
}

func genClause() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("s", "a", "b"),
		gen.OneConstOf("=", "!=", ">=", "<=", ">", "<"),
		gen.Int64Range(-5, 5),
	).Map(func(vals []interface{}) string {
		return fmt.Sprintf("%s %s %d", vals[0], vals[1], vals[2])
	})
}

func buildTable(records []sampleRecord) *table.Table {
	data := map[string][]table.Value{"s": {}, "a": {}, "b": {}}
	for _, r := range records {
		data["s"] = append(data["s"], r.Scalar)
		data["a"] = append(data["a"], ints(r.A...))
		data["b"] = append(data["b"], ints(r.B...))
	}
	return table.MustNew([]string{"s", "a", "b"}, data)
}

func TestFilterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("filter is idempotent", prop.ForAll(
		func(records []sampleRecord, clauses []string) bool {
			once, err := Filter(buildTable(records), clauses...)
			if err != nil {
				return false
			}
			twice, err := Filter(once, clauses...)
			if err != nil {
				return false
			}
			if once.IsEmpty() {
				return twice.IsEmpty()
			}
			return once.Equal(twice, 0)
		},
		gen.SliceOf(genRecord()),
		gen.SliceOfN(2, genClause()),
	))

	properties.Property("retained arrays keep equal lengths", prop.ForAll(
		func(records []sampleRecord, clauses []string) bool {
			out, err := Filter(buildTable(records), clauses...)
			if err != nil {
				return false
			}
			for i := 0; i < out.Len(); i++ {
				a := out.Value("a", i).([]table.Value)
				b := out.Value("b", i).([]table.Value)
				if len(a) != len(b) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genRecord()),
		gen.SliceOfN(2, genClause()),
	))

	properties.Property("records only shrink", prop.ForAll(
		func(records []sampleRecord, clause string) bool {
			tbl := buildTable(records)
			out, err := Filter(tbl, clause)
			return err == nil && out.Len() <= tbl.Len()
		},
		gen.SliceOf(genRecord()),
		genClause(),
	))

	properties.Property("composite operators parse whole", prop.ForAll(
		func(op string, n int64) bool {
			c, err := Parse(fmt.Sprintf("A %s %d", op, n))
			return err == nil && string(c.Op) == op && c.Left == "A" && c.Number == float64(n)
		},
		gen.OneConstOf(">=", "<=", "!=", "=", ">", "<"),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
