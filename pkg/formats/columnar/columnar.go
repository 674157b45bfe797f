// Package columnar exports tables to columnar and row-oriented binary
// formats and reads them back.
package columnar

import (
	"context"
	"io"
	"path"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/storage"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// Format represents an export format
type Format string

const (
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
	// Avro is the Apache Avro object container format
	Avro Format = "avro"
)

// WriterConfig configures exports
type WriterConfig struct {
	Format      Format
	Compression string
	// BatchSize is the number of records per Arrow record batch or Parquet
	// row group.
	BatchSize int
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig(format Format) *WriterConfig {
	return &WriterConfig{
		Format:      format,
		Compression: "snappy",
		BatchSize:   10000,
	}
}

// FormatInfo provides information about export formats
type FormatInfo struct {
	Format        Format
	Name          string
	FileExtension string
	MIMEType      string
}

var formats = map[Format]*FormatInfo{
	Parquet: {Format: Parquet, Name: "Apache Parquet", FileExtension: ".parquet", MIMEType: "application/x-parquet"},
	Arrow:   {Format: Arrow, Name: "Apache Arrow", FileExtension: ".arrow", MIMEType: "application/x-arrow"},
	Avro:    {Format: Avro, Name: "Apache Avro", FileExtension: ".avro", MIMEType: "application/x-avro"},
}

// GetFormatInfo returns information about a format, nil if unknown.
func GetFormatInfo(format Format) *FormatInfo {
	return formats[format]
}

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(s, "."))
	if _, ok := formats[Format(name)]; ok {
		return Format(name), nil
	}
	ext := strings.ToLower(path.Ext(s))
	for f, info := range formats {
		if info.FileExtension == ext {
			return f, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unsupported export format %q", s)
}

// Export writes tbl to w in cfg.Format.
func Export(ctx context.Context, w io.Writer, tbl *table.Table, cfg *WriterConfig) (err error) {
	if cfg == nil {
		cfg = DefaultWriterConfig(Arrow)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWriterConfig(cfg.Format).BatchSize
	}
	if tbl == nil {
		tbl = table.Empty()
	}

	_, span := observability.StartSpan(ctx, "columnar.export",
		attribute.String("format", string(cfg.Format)),
		attribute.Int("records", tbl.Len()))
	timer := metrics.NewTimer("export")
	defer timer.ObserveDuration()
	defer func() {
		if err != nil {
			metrics.Errors.WithLabelValues(string(errors.TypeOf(err))).Inc()
		}
		span.End(err)
	}()

	switch cfg.Format {
	case Arrow:
		err = writeArrow(w, tbl, cfg)
	case Parquet:
		err = writeParquet(w, tbl, cfg)
	case Avro:
		err = writeAvro(w, tbl, cfg)
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported export format %q", cfg.Format)
	}
	if err != nil {
		return err
	}
	logger.WithContext(ctx).Debug("table exported",
		zap.String("format", string(cfg.Format)),
		zap.Int("records", tbl.Len()))
	return nil
}

// ExportFile exports tbl to path through store, which may be remote or
// compressed.
func ExportFile(ctx context.Context, store *storage.Store, path string, tbl *table.Table, cfg *WriterConfig) error {
	if store == nil {
		store = storage.Default()
	}
	out, err := store.Create(ctx, path, false)
	if err != nil {
		return err
	}
	if err := Export(ctx, out, tbl, cfg); err != nil {
		_ = out.Close()
		return errors.Wrap(err, errors.TypeOf(err), "export failed").WithDetail("path", path)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to close export").WithDetail("path", path)
	}
	return nil
}

// Import reads a table written by Export. Columns exported as text because
// their values were mixed come back as text.
func Import(r io.Reader, format Format) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read export")
	}
	switch format {
	case Arrow:
		return readArrow(data)
	case Parquet:
		return readParquet(data)
	case Avro:
		return readAvro(data)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported export format %q", format)
	}
}

// columnBuilder collects the values of one column while reading back.
type columnBuilder struct {
	names []string
	data  map[string][]table.Value
}

func newColumnBuilder(names []string) *columnBuilder {
	data := make(map[string][]table.Value, len(names))
	for _, n := range names {
		data[n] = nil
	}
	return &columnBuilder{names: names, data: data}
}

func (b *columnBuilder) add(name string, v table.Value) {
	b.data[name] = append(b.data[name], v)
}

func (b *columnBuilder) table() (*table.Table, error) {
	for _, n := range b.names {
		if b.data[n] == nil {
			b.data[n] = []table.Value{}
		}
	}
	return table.Rebuild(b.names, b.data)
}
