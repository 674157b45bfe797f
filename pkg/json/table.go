package json

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// Document is the JSON shape of a table: column names plus one array of
// values per record, in column order.
type Document struct {
	Columns []string        `json:"columns"`
	Rows    [][]table.Value `json:"rows"`
}

// NewDocument copies tbl into a Document. Non-finite floats become the
// strings "nan", "inf" and "-inf" since JSON has no such numbers.
func NewDocument(tbl *table.Table) *Document {
	cols := tbl.Columns()
	doc := &Document{Columns: cols, Rows: make([][]table.Value, tbl.Len())}
	for i := range doc.Rows {
		row := tbl.Row(i, cols)
		for j, v := range row {
			row[j] = encodable(v)
		}
		doc.Rows[i] = row
	}
	return doc
}

func encodable(v table.Value) table.Value {
	switch x := v.(type) {
	case float64:
		switch {
		case math.IsNaN(x):
			return "nan"
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		}
		return jsonFloat(x)
	case []table.Value:
		out := make([]table.Value, len(x))
		for i, e := range x {
			out[i] = encodable(e)
		}
		return out
	}
	return v
}

// jsonFloat keeps a fraction or exponent on integral floats so they decode
// back as floats.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// EncodeTable writes tbl to w as a Document.
func EncodeTable(w io.Writer, tbl *table.Table, pretty bool) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := NewEncoder(buf)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewDocument(tbl)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode table")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write JSON")
	}
	return nil
}

// EncodeLines writes one JSON object per record, keys in column order.
func EncodeLines(w io.Writer, tbl *table.Table) error {
	cols := tbl.Columns()
	keys := make([][]byte, len(cols))
	for j, c := range cols {
		k, err := gojson.Marshal(c)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode column name")
		}
		keys[j] = k
	}

	buf := GetBuffer()
	defer PutBuffer(buf)
	for i := 0; i < tbl.Len(); i++ {
		buf.Reset()
		buf.WriteByte('{')
		for j, c := range cols {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[j])
			buf.WriteByte(':')
			data, err := gojson.Marshal(encodable(tbl.Value(c, i)))
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode value").
					WithDetail("column", c).
					WithDetail("record", i)
			}
			buf.Write(data)
		}
		buf.WriteString("}\n")
		if _, err := w.Write(buf.Bytes()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write JSON")
		}
	}
	return nil
}

// DecodeTable reads a Document from r. Integral numbers without a fraction
// or exponent come back as int64, every other number as float64.
func DecodeTable(r io.Reader) (*table.Table, error) {
	var doc struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	}
	if err := NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decode table")
	}
	data := make(map[string][]table.Value, len(doc.Columns))
	for _, c := range doc.Columns {
		data[c] = make([]table.Value, len(doc.Rows))
	}
	for i, row := range doc.Rows {
		if len(row) != len(doc.Columns) {
			return nil, errors.Newf(errors.ErrorTypeFile, "row %d has %d values for %d columns", i, len(row), len(doc.Columns))
		}
		for j, c := range doc.Columns {
			v, err := decodeValue(row[j])
			if err != nil {
				return nil, err
			}
			data[c][i] = v
		}
	}
	return table.Rebuild(doc.Columns, data)
}

func decodeValue(v interface{}) (table.Value, error) {
	switch x := v.(type) {
	case nil, string:
		return x, nil
	case gojson.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "invalid number").WithDetail("value", s)
		}
		return f, nil
	case []interface{}:
		out := make([]table.Value, len(x))
		for i, e := range x {
			d, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeFile, "unsupported JSON value %T", v)
	}
}

// Bytes encodes tbl as a compact Document.
func Bytes(tbl *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTable(&buf, tbl, false); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
