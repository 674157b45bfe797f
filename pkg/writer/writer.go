// Package writer renders a table back to text following a compiled
// structure, so that reading the output with the same structure yields the
// same table.
package writer

import (
	"context"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/reader"
	"github.com/ajitpratap0/tabula/pkg/storage"
	tstrings "github.com/ajitpratap0/tabula/pkg/strings"
	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// Defaults for Write.
const (
	DefaultMaxDecimal         = 3
	DefaultMaxRecordsPerFlush = 100
	DefaultEmptyChar          = "&"
	DefaultSpacing            = " "
	rangeExponentWidth        = 6
)

type options struct {
	appendMode bool
	maxDecimal int
	scientific bool
	flushEvery int
	emptyChar  string
	spacing    string
	store      *storage.Store
}

func defaultOptions() options {
	return options{
		maxDecimal: DefaultMaxDecimal,
		scientific: true,
		flushEvery: DefaultMaxRecordsPerFlush,
		emptyChar:  DefaultEmptyChar,
		spacing:    DefaultSpacing,
	}
}

// Option configures Write.
type Option func(*options)

// WithAppend appends to the target instead of truncating it.
func WithAppend(appendMode bool) Option {
	return func(o *options) { o.appendMode = appendMode }
}

// WithMaxDecimal sets the number of decimals of floats in scientific mode.
func WithMaxDecimal(n int) Option {
	return func(o *options) { o.maxDecimal = n }
}

// WithScientific selects %E formatting for floats.
func WithScientific(on bool) Option {
	return func(o *options) { o.scientific = on }
}

// WithMaxRecordsPerFlush bounds how many rendered records are buffered
// before they are written to the target.
func WithMaxRecordsPerFlush(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.flushEvery = n
		}
	}
}

// WithEmptyChar sets the placeholder written for absent values.
func WithEmptyChar(s string) Option {
	return func(o *options) { o.emptyChar = s }
}

// WithSpacing sets the separator between tokens.
func WithSpacing(s string) Option {
	return func(o *options) { o.spacing = s }
}

// WithStore writes through store instead of storage.Default().
func WithStore(store *storage.Store) Option {
	return func(o *options) { o.store = store }
}

// Write renders tbl to path following spec. The target is created or
// truncated even when tbl is empty. Fields whose fixed-width range is too
// narrow for a float are left blank; they are reported together as a write
// error once the file is complete.
func Write(ctx context.Context, path string, spec *structure.Spec, header *structure.Header, tbl *table.Table, opts ...Option) (err error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = storage.Default()
	}
	if spec == nil {
		return errors.New(errors.ErrorTypeWrite, "nil structure")
	}
	if tbl == nil {
		tbl = table.Empty()
	}

	ctx = logger.ContextWith(ctx, logger.DataFileKey, path)
	ctx, span := observability.StartSpan(ctx, "writer.write",
		attribute.String("data.path", path),
		attribute.Bool("append", o.appendMode))
	timer := metrics.NewTimer("write")
	defer timer.ObserveDuration()
	defer func() {
		if err != nil {
			metrics.Errors.WithLabelValues(string(errors.TypeOf(err))).Inc()
		}
		span.End(err)
	}()

	sink, err := o.store.Create(ctx, path, o.appendMode)
	if err != nil {
		return err
	}

	w := newRenderer(ctx, spec, header, tbl, o)
	werr := w.run(ctx, sink)
	if cerr := sink.Close(); werr == nil && cerr != nil {
		werr = errors.Wrap(cerr, errors.ErrorTypeWrite, "failed to close output").WithDetail("path", path)
	}
	if werr != nil {
		return werr
	}

	metrics.RecordsWritten.WithLabelValues(logger.FromContext(ctx, logger.StructureKey, "unknown")).
		Add(float64(tbl.Len()))
	span.SetAttribute("records", tbl.Len())

	if len(w.overflow) > 0 {
		return errors.Newf(errors.ErrorTypeWrite, "%d fields too narrow for scientific notation", len(w.overflow)).
			WithDetail("fields", w.overflow).
			WithDetail("path", path)
	}
	logger.WithContext(ctx).Debug("data file written", zap.Int("records", tbl.Len()))
	return nil
}

// renderer walks the bloc plan once per record, the same way a read session
// does, and renders each line-spec from the table.
type renderer struct {
	log     *zap.Logger
	spec    *structure.Spec
	header  *structure.Header
	tbl     *table.Table
	opts    options
	fmt     formatter
	applied map[*structure.LineSpec]struct{}

	overflow []string
	ignored  int
}

func newRenderer(ctx context.Context, spec *structure.Spec, header *structure.Header, tbl *table.Table, o options) *renderer {
	if header == nil {
		header = &structure.Header{}
	}
	return &renderer{
		log:     logger.WithContext(ctx),
		spec:    spec,
		header:  header,
		tbl:     tbl,
		opts:    o,
		fmt:     formatter{emptyChar: o.emptyChar, spacing: o.spacing, scientific: o.scientific},
		applied: make(map[*structure.LineSpec]struct{}),
	}
}

func (r *renderer) run(ctx context.Context, sink io.Writer) error {
	buf := tstrings.GetBuilder(tstrings.Large)
	defer tstrings.PutBuilder(buf, tstrings.Large)

	pending := 0
	for i := 0; i < r.tbl.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "write cancelled")
		}
		if err := r.record(buf, i); err != nil {
			return err
		}
		pending++
		if pending == r.opts.flushEvery {
			if err := flush(sink, buf); err != nil {
				return err
			}
			pending = 0
		}
	}
	if err := flush(sink, buf); err != nil {
		return err
	}
	if r.ignored > 0 {
		r.log.Warn("written lines contain an IGNORE marker and will be skipped on read",
			zap.Int("lines", r.ignored))
	}
	return nil
}

func flush(sink io.Writer, buf *tstrings.Builder) error {
	if buf.Len() == 0 {
		return nil
	}
	if _, err := sink.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write output")
	}
	buf.Reset()
	return nil
}

// record renders entry i. Keys seen more than once within the record are
// looked up under the "key N" names the assembler gives them.
func (r *renderer) record(buf *tstrings.Builder, i int) error {
	counts := map[string]int{}
	for _, bloc := range r.spec.Blocs {
		n, err := r.repeatCount(bloc, i, counts)
		if err != nil {
			return err
		}
		for rep := 0; rep < n; rep++ {
			for _, ls := range bloc.Lines {
				if _, seen := r.applied[ls]; seen && ls.Once() {
					continue
				}
				r.applied[ls] = struct{}{}

				if ls.Invalid {
					r.emit(buf, "")
					continue
				}
				values := make([]table.Value, len(ls.Fields))
				for j, f := range ls.Fields {
					counts[f.Name]++
					values[j] = r.tbl.Value(reader.DuplicateKey(f.Name, counts[f.Name]), i)
				}
				r.lineSpec(buf, ls, values, i)
			}
		}
	}
	return nil
}

func (r *renderer) lineSpec(buf *tstrings.Builder, ls *structure.LineSpec, values []table.Value, i int) {
	if ls.Multiline == nil {
		r.emit(buf, r.line(ls, values, i))
		return
	}
	rows := 1
	if items, ok := table.AsArray(values[0]); ok {
		rows = len(items)
	} else if ls.Multiline.Dynamic() {
		// The group read no item before its terminator and was filled in.
		rows = 0
	}
	at := make([]table.Value, len(values))
	for k := 0; k < rows; k++ {
		for j, v := range values {
			at[j] = element(v, k)
		}
		r.emit(buf, r.line(ls, at, i))
	}
	if ls.Multiline.Dynamic() {
		r.emit(buf, ls.Multiline.Terminator)
	}
}

// element returns item k of an array value, or v itself for scalars.
func element(v table.Value, k int) table.Value {
	items, ok := table.AsArray(v)
	if !ok {
		return v
	}
	if k < len(items) {
		return items[k]
	}
	return nil
}

func (r *renderer) emit(buf *tstrings.Builder, line string) {
	if r.header.ShouldIgnore(line) {
		r.ignored++
	}
	buf.WriteString(line)
	_ = buf.WriteByte('\n')
}

func (r *renderer) line(ls *structure.LineSpec, values []table.Value, i int) string {
	switch ls.Kind() {
	case structure.LocationIndex:
		return r.indexLine(ls, values, i)
	case structure.LocationRange:
		return r.rangeLine(ls, values, i)
	case structure.LocationSplitAll:
		parts := make([]string, 0, len(values))
		for j, v := range values {
			if !ls.Fields[j].Valid() {
				continue
			}
			parts = append(parts, r.text(ls.Fields[j], v, r.opts.maxDecimal, i, false))
		}
		return tstrings.TrimTrailingSpaces(strings.Join(parts, r.opts.spacing))
	default:
		for j, v := range values {
			if ls.Fields[j].Valid() {
				return tstrings.TrimTrailingSpaces(r.text(ls.Fields[j], v, r.opts.maxDecimal, i, false))
			}
		}
		return ""
	}
}

func (r *renderer) indexLine(ls *structure.LineSpec, values []table.Value, i int) string {
	columns := map[int]int{}
	last := -1
	for j, f := range ls.Fields {
		if !f.Valid() || f.Location.Kind != structure.LocationIndex {
			continue
		}
		if _, taken := columns[f.Location.Index]; !taken {
			columns[f.Location.Index] = j
		}
		if f.Location.Index > last {
			last = f.Location.Index
		}
	}
	parts := make([]string, last+1)
	for c := range parts {
		j, ok := columns[c]
		if !ok {
			parts[c] = r.opts.emptyChar
			continue
		}
		parts[c] = r.text(ls.Fields[j], values[j], r.opts.maxDecimal, i, true)
	}
	return tstrings.TrimTrailingSpaces(strings.Join(parts, r.opts.spacing))
}

func (r *renderer) rangeLine(ls *structure.LineSpec, values []table.Value, i int) string {
	width := 0
	for _, f := range ls.Fields {
		if f.Valid() && f.Location.Kind == structure.LocationRange && f.Location.Hi+1 > width {
			width = f.Location.Hi + 1
		}
	}
	line := []rune(strings.Repeat(" ", width))
	for j, f := range ls.Fields {
		if !f.Valid() || f.Location.Kind != structure.LocationRange {
			continue
		}
		lo, hi := f.Location.Lo, f.Location.Hi
		decimals := r.opts.maxDecimal
		if room := hi - lo - rangeExponentWidth; room < decimals {
			decimals = room
		}
		s := []rune(r.text(f, values[j], decimals, i, false))
		end := lo + len(s)
		if end > hi+1 {
			end = hi + 1
		}
		copy(line[lo:end], s)
	}
	return string(line)
}

// text formats v for field f. A float that does not fit is recorded and
// rendered blank.
func (r *renderer) text(f structure.Field, v table.Value, decimals, i int, token bool) string {
	var (
		s  string
		ok bool
	)
	if token {
		s, ok = r.fmt.token(v, decimals)
	} else {
		s, ok = r.fmt.scalar(v, decimals)
	}
	if !ok {
		r.overflow = append(r.overflow, tstrings.Sprintf("%s (record %d)", f.Name, i))
		r.log.Warn("column width insufficient for scientific notation",
			zap.String("field", f.Name),
			zap.String("location", f.Location.String()),
			zap.Int("record", i))
		return ""
	}
	return s
}

// repeatCount resolves how many times bloc runs for entry i, reading a
// field repeat from the most recent occurrence of the field in the record.
func (r *renderer) repeatCount(bloc *structure.Bloc, i int, counts map[string]int) (int, error) {
	if bloc.Repeat == nil {
		return 1, nil
	}
	if bloc.Repeat.Field == "" {
		return bloc.Repeat.Count, nil
	}
	name := bloc.Repeat.Field
	n := counts[name]
	if n == 0 {
		return 0, errors.Newf(errors.ErrorTypeWrite, "repeat field %q not written before its bloc", name).
			WithDetail("field", name).
			WithDetail("record", i)
	}
	v := r.tbl.Value(reader.DuplicateKey(name, n), i)
	if f, ok := table.ToFloat(v); ok && f >= 0 && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, errors.Newf(errors.ErrorTypeWrite, "repeat field %q holds %s value %s, expected a non-negative integer",
		name, table.TypeName(v), table.Format(v)).
		WithDetail("field", name).
		WithDetail("record", i)
}
