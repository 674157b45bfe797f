package columnar

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/tabula/pkg/table"
)

// column pairs a table column with the kind its values were exported as.
type column struct {
	name string
	kind table.Kind
}

func columnsOf(tbl *table.Table) []column {
	names := tbl.Columns()
	out := make([]column, len(names))
	for i, n := range names {
		k := tbl.Kind(n)
		if k == table.KindNull {
			k = table.KindFloat
		}
		out[i] = column{name: n, kind: k}
	}
	return out
}

func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.KindInt:
		return arrow.PrimitiveTypes.Int64
	case table.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case table.KindIntList:
		return arrow.ListOf(arrow.PrimitiveTypes.Int64)
	case table.KindFloatList:
		return arrow.ListOf(arrow.PrimitiveTypes.Float64)
	case table.KindTextList:
		return arrow.ListOf(arrow.BinaryTypes.String)
	default:
		return arrow.BinaryTypes.String
	}
}

func arrowSchema(cols []column) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.name, Type: arrowType(c.kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// avroName turns a column name into a valid, unique Avro name.
func avroName(name string, used map[string]bool) string {
	b := []byte(name)
	for i, c := range b {
		valid := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9')
		if !valid {
			b[i] = '_'
		}
	}
	out := string(b)
	if out == "" {
		out = "_"
	}
	base := out
	for n := 2; used[out]; n++ {
		out = base + "_" + strconv.Itoa(n)
	}
	used[out] = true
	return out
}

func avroScalarType(k table.Kind) string {
	switch k {
	case table.KindInt:
		return "long"
	case table.KindFloat:
		return "double"
	default:
		return "string"
	}
}

// avroSchema returns the record schema, every field nullable.
func avroSchema(cols []column, names []string) map[string]interface{} {
	fields := make([]map[string]interface{}, len(cols))
	for i, c := range cols {
		var typ interface{} = []interface{}{"null", avroScalarType(c.kind)}
		if c.kind.IsList() {
			typ = []interface{}{"null", map[string]interface{}{
				"type":  "array",
				"items": []interface{}{"null", avroScalarType(c.kind.Elem())},
			}}
		}
		fields[i] = map[string]interface{}{
			"name":    names[i],
			"type":    typ,
			"default": nil,
		}
	}
	return map[string]interface{}{
		"type":      "record",
		"name":      "Record",
		"namespace": "tabula",
		"fields":    fields,
	}
}
