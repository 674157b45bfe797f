// Package reader drives a compiled structure over the lines of a data file
// and assembles the records it finds into a table.
package reader

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/storage"
	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
)

type options struct {
	ignoreLines []int
	splitChar   string
	testFile    string
	store       *storage.Store
}

// Option configures Read.
type Option func(*options)

// WithIgnoreLines never parses the given zero-based line indices.
func WithIgnoreLines(lines ...int) Option {
	return func(o *options) { o.ignoreLines = append(o.ignoreLines, lines...) }
}

// WithSplitChar splits index and split-all lines on sep instead of runs of
// whitespace.
func WithSplitChar(sep string) Option {
	return func(o *options) { o.splitChar = sep }
}

// WithTestFile validates the table against the test file at path.
func WithTestFile(path string) Option {
	return func(o *options) { o.testFile = path }
}

// WithStore reads through store instead of the default store.
func WithStore(store *storage.Store) Option {
	return func(o *options) { o.store = store }
}

// Read parses the data file at path with spec and header.
//
// A missing START marker or an unresolvable repeat field aborts the read
// with a read error. A failed validation returns an empty table together
// with the validation error.
func Read(ctx context.Context, path string, spec *structure.Spec, header *structure.Header, opts ...Option) (*table.Table, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = storage.Default()
	}
	if spec == nil {
		return nil, errors.New(errors.ErrorTypeRead, "nil structure")
	}

	ctx = logger.ContextWith(ctx, logger.DataFileKey, path)
	ctx, span := observability.StartSpan(ctx, "reader.read", attribute.String("data.path", path))
	timer := metrics.NewTimer("read")
	defer timer.ObserveDuration()
	log := logger.WithContext(ctx)
	label := logger.FromContext(ctx, logger.StructureKey, "unknown")

	tbl, err := read(ctx, path, spec, header, o)
	if err != nil {
		metrics.Errors.WithLabelValues(string(errors.TypeOf(err))).Inc()
		span.End(err)
		if errors.IsType(err, errors.ErrorTypeValidation) {
			log.Warn("reading test failed", zap.Error(err))
			return table.Empty(), err
		}
		return nil, err
	}

	metrics.RecordsRead.WithLabelValues(label).Add(float64(tbl.Len()))
	span.SetAttribute("records", tbl.Len())
	span.End(nil)
	log.Debug("table assembled",
		zap.Int("records", tbl.Len()),
		zap.Strings("columns", tbl.Columns()))
	return tbl, nil
}

func read(ctx context.Context, path string, spec *structure.Spec, header *structure.Header, o options) (*table.Table, error) {
	lines, err := o.store.ReadLines(ctx, path)
	if err != nil {
		return nil, err
	}

	s := NewSession(spec, header, lines, o.ignoreLines, o.splitChar)
	if err := s.Run(ctx); err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "failed to read data file").WithDetail("path", path)
	}
	metrics.LinesConsumed.WithLabelValues(logger.FromContext(ctx, logger.StructureKey, "unknown")).
		Add(float64(s.LinesConsumed()))

	tbl, err := Assemble(s.Records())
	if err != nil {
		return nil, err
	}

	if o.testFile != "" {
		if err := validateWith(ctx, o, tbl); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func validateWith(ctx context.Context, o options, tbl *table.Table) error {
	log := logger.WithContext(ctx).With(zap.String("test_file", o.testFile))
	lines, err := o.store.ReadLines(ctx, o.testFile)
	if err != nil {
		log.Warn("test file unreadable, no test performed", zap.Error(err))
		return nil
	}
	expectations, err := ParseTestFile(lines)
	if err != nil {
		log.Warn("test file not formatted correctly, no test performed", zap.Error(err))
		return nil
	}
	if err := Validate(tbl, expectations); err != nil {
		return err
	}
	log.Info("reading test successful", zap.Int("records_checked", len(expectations)))
	return nil
}
