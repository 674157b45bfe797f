package columnar

import (
	"bytes"
	"io"

	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/tabula/pkg/errors"
	jsonpool "github.com/ajitpratap0/tabula/pkg/json"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// columnsMetaKey holds the original column names, since Avro field names
// are restricted to [A-Za-z_][A-Za-z0-9_]*.
const columnsMetaKey = "tabula.columns"

func writeAvro(w io.Writer, tbl *table.Table, cfg *WriterConfig) error {
	cols := columnsOf(tbl)
	used := map[string]bool{}
	names := make([]string, len(cols))
	original := make([]string, len(cols))
	for i, c := range cols {
		names[i] = avroName(c.name, used)
		original[i] = c.name
	}

	schema, err := jsonpool.Marshal(avroSchema(cols, names))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode Avro schema")
	}
	codec, err := goavro.NewCodec(string(schema))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create Avro codec")
	}
	meta, err := jsonpool.Marshal(original)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode column names")
	}
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: getAvroCompression(cfg.Compression),
		MetaData:        map[string][]byte{columnsMetaKey: meta},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create Avro writer")
	}

	block := make([]interface{}, 0, cfg.BatchSize)
	for i := 0; i < tbl.Len(); i++ {
		native := make(map[string]interface{}, len(cols))
		for j, c := range cols {
			native[names[j]] = avroNative(c.kind, tbl.Value(c.name, i))
		}
		block = append(block, native)
		if len(block) == cfg.BatchSize {
			if err := ocf.Append(block); err != nil {
				return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write Avro block")
			}
			block = block[:0]
		}
	}
	if len(block) > 0 {
		if err := ocf.Append(block); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write Avro block")
		}
	}
	return nil
}

// avroNative wraps v in the union branch of a column of kind k.
func avroNative(k table.Kind, v table.Value) interface{} {
	if v == nil {
		return nil
	}
	if k.IsList() {
		items, ok := table.AsArray(v)
		if !ok {
			return nil
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = avroNative(k.Elem(), item)
		}
		return goavro.Union("array", out)
	}
	switch k {
	case table.KindInt:
		if n, ok := v.(int64); ok {
			return goavro.Union("long", n)
		}
		return nil
	case table.KindFloat:
		if f, ok := table.ToFloat(v); ok {
			return goavro.Union("double", f)
		}
		return nil
	default:
		if s, ok := v.(string); ok {
			return goavro.Union("string", s)
		}
		return goavro.Union("string", table.Format(v))
	}
}

func readAvro(data []byte) (*table.Table, error) {
	ocf, err := goavro.NewOCFReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create Avro reader")
	}

	var schema struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := jsonpool.Unmarshal([]byte(ocf.Codec().Schema()), &schema); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to parse Avro schema")
	}
	fields := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		fields[i] = f.Name
	}
	names := fields
	if raw, ok := ocf.MetaData()[columnsMetaKey]; ok {
		var original []string
		if err := jsonpool.Unmarshal(raw, &original); err == nil && len(original) == len(fields) {
			names = original
		}
	}

	out := newColumnBuilder(names)
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read Avro record")
		}
		rec, _ := datum.(map[string]interface{})
		for i, f := range fields {
			out.add(names[i], fromAvroNative(rec[f]))
		}
	}
	if err := ocf.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read Avro file")
	}
	return out.table()
}

// fromAvroNative unwraps a union value decoded by goavro.
func fromAvroNative(v interface{}) table.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		for _, inner := range x {
			return fromAvroNative(inner)
		}
		return nil
	case []interface{}:
		out := make([]table.Value, len(x))
		for i, e := range x {
			out[i] = fromAvroNative(e)
		}
		return out
	case int32:
		return int64(x)
	case int64, float64, string:
		return x
	case float32:
		return float64(x)
	default:
		return nil
	}
}

func getAvroCompression(compression string) string {
	switch compression {
	case "snappy":
		return goavro.CompressionSnappyLabel
	case "deflate", "gzip":
		return goavro.CompressionDeflateLabel
	default:
		return goavro.CompressionNullLabel
	}
}
