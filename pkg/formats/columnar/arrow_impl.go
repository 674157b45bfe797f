package columnar

import (
	"bytes"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// batches builds one Arrow record per cfg.BatchSize table records and hands
// each to emit. Records are released after emit returns.
func batches(tbl *table.Table, cols []column, schema *arrow.Schema, batchSize int, emit func(arrow.Record) error) error {
	mem := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for lo := 0; lo < tbl.Len(); lo += batchSize {
		hi := lo + batchSize
		if hi > tbl.Len() {
			hi = tbl.Len()
		}
		for j, c := range cols {
			fb := builder.Field(j)
			for i := lo; i < hi; i++ {
				if err := appendArrowValue(fb, c.kind, tbl.Value(c.name, i)); err != nil {
					return errors.Wrap(err, errors.ErrorTypeWrite, "failed to append value").
						WithDetail("column", c.name).
						WithDetail("record", i)
				}
			}
		}
		rec := builder.NewRecord()
		err := emit(rec)
		rec.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeArrow(w io.Writer, tbl *table.Table, cfg *WriterConfig) error {
	cols := columnsOf(tbl)
	schema := arrowSchema(cols)

	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(memory.NewGoAllocator())}
	switch cfg.Compression {
	case "zstd":
		opts = append(opts, ipc.WithZstd())
	case "lz4":
		opts = append(opts, ipc.WithLZ4())
	}
	fw, err := ipc.NewFileWriter(w, opts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create Arrow writer")
	}
	if err := batches(tbl, cols, schema, cfg.BatchSize, fw.Write); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.TypeOf(err), "failed to write record batch")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to close Arrow writer")
	}
	return nil
}

func readArrow(data []byte) (*table.Table, error) {
	fr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create Arrow reader")
	}
	defer fr.Close()

	out := newColumnBuilder(fieldNames(fr.Schema()))
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read record batch").WithDetail("batch", i)
		}
		collect(out, rec)
	}
	return out.table()
}

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, len(schema.Fields()))
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	return names
}

// collect appends every row of rec to out.
func collect(out *columnBuilder, rec arrow.Record) {
	for j := 0; j < int(rec.NumCols()); j++ {
		name := rec.ColumnName(j)
		col := rec.Column(j)
		for i := 0; i < int(rec.NumRows()); i++ {
			out.add(name, getArrowColumnValue(col, i))
		}
	}
}

// appendArrowValue appends v to the builder of a column of kind k.
func appendArrowValue(builder array.Builder, k table.Kind, v table.Value) error {
	if v == nil {
		builder.AppendNull()
		return nil
	}
	switch b := builder.(type) {
	case *array.Int64Builder:
		switch x := v.(type) {
		case int64:
			b.Append(x)
		case int:
			b.Append(int64(x))
		default:
			b.AppendNull()
		}

	case *array.Float64Builder:
		if f, ok := table.ToFloat(v); ok {
			b.Append(f)
		} else {
			b.AppendNull()
		}

	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			b.Append(s)
		} else {
			b.Append(table.Format(v))
		}

	case *array.ListBuilder:
		items, ok := table.AsArray(v)
		if !ok {
			b.AppendNull()
			return nil
		}
		b.Append(true)
		vb := b.ValueBuilder()
		for _, item := range items {
			if err := appendArrowValue(vb, k.Elem(), item); err != nil {
				return err
			}
		}

	default:
		return errors.Newf(errors.ErrorTypeInternal, "unsupported builder type: %T", builder)
	}
	return nil
}

// getArrowColumnValue returns row i of col as a table value.
func getArrowColumnValue(col arrow.Array, i int) table.Value {
	if col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.Int64:
		return c.Value(i)
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	case *array.List:
		start, end := c.ValueOffsets(i)
		values := c.ListValues()
		items := make([]table.Value, 0, end-start)
		for k := start; k < end; k++ {
			items = append(items, getArrowColumnValue(values, int(k)))
		}
		return items
	default:
		return nil
	}
}
