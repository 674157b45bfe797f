package columnar

import (
	"bytes"
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
)

func writeParquet(w io.Writer, tbl *table.Table, cfg *WriterConfig) error {
	cols := columnsOf(tbl)
	schema := arrowSchema(cols)
	mem := memory.NewGoAllocator()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(getParquetCompression(cfg.Compression)),
		parquet.WithMaxRowGroupLength(int64(cfg.BatchSize)),
		parquet.WithAllocator(mem),
	)
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem)))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create Parquet writer")
	}
	if err := batches(tbl, cols, schema, cfg.BatchSize, fw.Write); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.TypeOf(err), "failed to write row group")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to close Parquet writer")
	}
	return nil
}

func readParquet(data []byte) (*table.Table, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open Parquet file")
	}
	defer pf.Close()

	ar, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create Parquet reader")
	}
	schema, err := ar.Schema()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read Parquet schema")
	}

	out := newColumnBuilder(fieldNames(schema))
	if pf.NumRowGroups() == 0 {
		return out.table()
	}
	rr, err := ar.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read row groups")
	}
	defer rr.Release()
	for rr.Next() {
		collect(out, rr.Record())
	}
	if err := rr.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read row groups")
	}
	return out.table()
}

func getParquetCompression(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	case "none", "":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}
