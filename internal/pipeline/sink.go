package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/ajitpratap0/tabula/pkg/formats/columnar"
	"github.com/ajitpratap0/tabula/pkg/formats/sqlite"
	"github.com/ajitpratap0/tabula/pkg/json"
	"github.com/ajitpratap0/tabula/pkg/storage"
	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
	"github.com/ajitpratap0/tabula/pkg/writer"
)

// Sink receives the table of every data file of a job, in input order.
// Close is called once after the last table, or after the first failed
// Consume.
type Sink interface {
	Consume(ctx context.Context, input string, tbl *table.Table) error
	Close(ctx context.Context) error
}

// collector merges consumed tables into one.
type collector struct {
	mu     sync.Mutex
	tables []*table.Table
}

func (c *collector) Consume(_ context.Context, _ string, tbl *table.Table) error {
	if tbl == nil || tbl.IsEmpty() {
		return nil
	}
	c.mu.Lock()
	c.tables = append(c.tables, tbl)
	c.mu.Unlock()
	return nil
}

func (c *collector) merged() (*table.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return table.Concat(c.tables...)
}

// TextSink renders the merged table to a data file with an output structure.
// The file is written once on Close so that compressed and remote paths,
// which cannot be appended to, work too.
type TextSink struct {
	collector
	path   string
	spec   *structure.Spec
	header *structure.Header
	opts   []writer.Option
}

// NewTextSink creates a sink writing path with spec and header.
func NewTextSink(path string, spec *structure.Spec, header *structure.Header, opts ...writer.Option) *TextSink {
	return &TextSink{path: path, spec: spec, header: header, opts: opts}
}

// Close writes the file.
func (s *TextSink) Close(ctx context.Context) error {
	tbl, err := s.merged()
	if err != nil {
		return err
	}
	return writer.Write(ctx, s.path, s.spec, s.header, tbl, s.opts...)
}

// JSONSink encodes tables as JSON. In lines mode every record is written as
// soon as its file is consumed; otherwise a single document is written on
// Close.
type JSONSink struct {
	collector
	w      io.Writer
	lines  bool
	pretty bool
}

// NewJSONSink creates a sink writing one JSON document to w.
func NewJSONSink(w io.Writer, pretty bool) *JSONSink {
	return &JSONSink{w: w, pretty: pretty}
}

// NewJSONLinesSink creates a sink writing one JSON object per record to w.
func NewJSONLinesSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, lines: true}
}

// Consume implements Sink.
func (s *JSONSink) Consume(ctx context.Context, input string, tbl *table.Table) error {
	if !s.lines {
		return s.collector.Consume(ctx, input, tbl)
	}
	if tbl == nil || tbl.IsEmpty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.EncodeLines(s.w, tbl)
}

// Close implements Sink.
func (s *JSONSink) Close(context.Context) error {
	if s.lines {
		return nil
	}
	tbl, err := s.merged()
	if err != nil {
		return err
	}
	return json.EncodeTable(s.w, tbl, s.pretty)
}

// ColumnarSink exports the merged table as Parquet, Arrow or Avro.
type ColumnarSink struct {
	collector
	store *storage.Store
	path  string
	cfg   *columnar.WriterConfig
}

// NewColumnarSink creates a sink exporting to path through store.
func NewColumnarSink(store *storage.Store, path string, cfg *columnar.WriterConfig) *ColumnarSink {
	return &ColumnarSink{store: store, path: path, cfg: cfg}
}

// Close implements Sink.
func (s *ColumnarSink) Close(ctx context.Context) error {
	tbl, err := s.merged()
	if err != nil {
		return err
	}
	return columnar.ExportFile(ctx, s.store, s.path, tbl, s.cfg)
}

// SQLiteSink stores the merged table in a SQLite database.
type SQLiteSink struct {
	collector
	path string
	name string
}

// NewSQLiteSink creates a sink writing table name of the database at path.
func NewSQLiteSink(path, name string) *SQLiteSink {
	if name == "" {
		name = sqlite.DefaultTable
	}
	return &SQLiteSink{path: path, name: name}
}

// Close implements Sink.
func (s *SQLiteSink) Close(ctx context.Context) error {
	tbl, err := s.merged()
	if err != nil {
		return err
	}
	return sqlite.Export(ctx, s.path, s.name, tbl)
}
