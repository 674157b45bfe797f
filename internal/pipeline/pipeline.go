// Package pipeline runs tabula jobs: compile a structure once, read every
// data file against it concurrently, filter and project each table, and hand
// the results to a sink.
//
// # Overview
//
// A Job names one structure file and any number of data files. The Runner
// caches compiled structures by path, bounds concurrent reads with an
// errgroup, and tags every log line and span with the job ID.
//
// # Basic Usage
//
//	runner := pipeline.NewRunner(pipeline.DefaultConfig(), storage.Default())
//	res, err := runner.Run(ctx, &pipeline.Job{
//	    Structure:  "rates.struct",
//	    Inputs:     []string{"rates_a.dat", "rates_b.dat.gz"},
//	    Conditions: []string{"T9 < 0.002"},
//	    Sink:       pipeline.NewJSONSink(os.Stdout, false),
//	})
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/tabula/pkg/condition"
	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/performance"
	"github.com/ajitpratap0/tabula/pkg/reader"
	"github.com/ajitpratap0/tabula/pkg/storage"
	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// Config contains runner parameters.
type Config struct {
	Workers int           // Concurrent data file reads
	Timeout time.Duration // Whole-job deadline, zero for none
}

// DefaultConfig returns the runner defaults of config.NewConfig.
func DefaultConfig() *Config {
	return FromConfig(config.NewConfig("tabula"))
}

// FromConfig builds a runner configuration from the application config.
func FromConfig(cfg *config.Config) *Config {
	return &Config{
		Workers: cfg.Pipeline.GetWorkers(),
		Timeout: cfg.Pipeline.Timeout,
	}
}

// Job describes one run.
type Job struct {
	Structure   string
	Inputs      []string
	Conditions  []string
	Columns     []string // Optional projection; tuples are returned in FileResult.Rows
	IgnoreLines []int
	SplitChar   string
	TestFile    string
	Sink        Sink // Optional
}

// FileResult is the outcome for one data file.
type FileResult struct {
	Input string
	// Table is the filtered table, or the unfiltered one when FilterErr is set.
	Table *table.Table
	// Rows holds the projected tuples when the job names columns.
	Rows [][]table.Value
	// ReadRecords counts records before filtering.
	ReadRecords int
	// ValidationErr is set when the reading test failed; Table is then empty.
	ValidationErr error
	// FilterErr is set when the conditions were rejected.
	FilterErr error
}

// Result is the outcome of a job.
type Result struct {
	JobID    string
	Spec     *structure.Spec
	Header   *structure.Header
	Files    []FileResult
	Duration time.Duration
	Usage    *performance.ResourceUsage
}

// Records returns the number of records kept across all files.
func (r *Result) Records() int {
	n := 0
	for _, f := range r.Files {
		n += f.Table.Len()
	}
	return n
}

// Runner executes jobs. A Runner is safe for concurrent use; compiled
// structures are shared across jobs.
type Runner struct {
	cfg   *Config
	store *storage.Store
	cache *structure.Cache
}

// NewRunner creates a runner reading through store.
func NewRunner(cfg *Config, store *storage.Store) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if store == nil {
		store = storage.Default()
	}
	return &Runner{cfg: cfg, store: store, cache: structure.NewCache(store)}
}

// Cache exposes the structure cache, for statistics.
func (r *Runner) Cache() *structure.Cache { return r.cache }

// Run executes job. Read errors abort the job and cancel the remaining
// reads. Validation and filter errors are kept per file.
func (r *Runner) Run(ctx context.Context, job *Job) (res *Result, err error) {
	if job == nil || job.Structure == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "job needs a structure file")
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	id := uuid.New().String()
	ctx = logger.ContextWith(ctx, logger.JobIDKey, id)
	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("job.id", id),
		attribute.String("structure", job.Structure),
		attribute.Int("inputs", len(job.Inputs)))
	timer := metrics.NewTimer("pipeline")
	defer timer.ObserveDuration()
	defer func() {
		if err != nil {
			metrics.Errors.WithLabelValues(string(errors.TypeOf(err))).Inc()
		}
		span.End(err)
	}()
	log := logger.WithContext(ctx)
	monitor := performance.NewResourceMonitor()

	spec, header, err := r.cache.Get(ctx, job.Structure)
	if err != nil {
		return nil, err
	}
	ctx = logger.ContextWith(ctx, logger.StructureKey, job.Structure)

	log.Info("starting job",
		zap.String("structure", job.Structure),
		zap.Int("inputs", len(job.Inputs)),
		zap.Int("workers", r.cfg.Workers),
		zap.Strings("conditions", job.Conditions))

	files := make([]FileResult, len(job.Inputs))
	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		g.SetLimit(r.cfg.Workers)
	}
	for i, input := range job.Inputs {
		i, input := i, input
		g.Go(func() error {
			fr, err := r.process(gctx, job, spec, header, input)
			if err != nil {
				return err
			}
			files[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if job.Sink != nil {
		if err := drain(ctx, job.Sink, files); err != nil {
			return nil, err
		}
	}

	usage := monitor.Usage()
	res = &Result{JobID: id, Spec: spec, Header: header, Files: files, Duration: usage.Elapsed, Usage: usage}
	span.SetAttribute("records", res.Records())
	log.Info("job completed", append([]zap.Field{
		zap.Int("files", len(files)),
		zap.Int("records", res.Records()),
		zap.Duration("duration", res.Duration),
		zap.Float64("records_per_second", usage.Throughput(res.Records())),
	}, usage.Fields()...)...)
	return res, nil
}

func (r *Runner) process(ctx context.Context, job *Job, spec *structure.Spec, header *structure.Header, input string) (FileResult, error) {
	fr := FileResult{Input: input}
	opts := []reader.Option{
		reader.WithStore(r.store),
		reader.WithIgnoreLines(job.IgnoreLines...),
		reader.WithSplitChar(job.SplitChar),
	}
	if job.TestFile != "" {
		opts = append(opts, reader.WithTestFile(job.TestFile))
	}

	tbl, err := reader.Read(ctx, input, spec, header, opts...)
	switch {
	case errors.IsType(err, errors.ErrorTypeValidation):
		fr.ValidationErr = err
	case err != nil:
		return fr, err
	}
	fr.ReadRecords = tbl.Len()

	filtered, err := condition.FilterContext(ctx, tbl, job.Conditions...)
	if err != nil {
		fr.FilterErr = err
	}
	fr.Table = filtered

	if len(job.Columns) > 0 && fr.FilterErr == nil {
		rows, err := condition.Select(filtered, job.Columns)
		if err != nil {
			return fr, err
		}
		fr.Rows = rows
	}
	return fr, nil
}

// drain hands every file's table to sink in input order and closes it.
func drain(ctx context.Context, sink Sink, files []FileResult) error {
	for _, f := range files {
		if err := sink.Consume(ctx, f.Input, f.Table); err != nil {
			_ = sink.Close(ctx)
			return err
		}
	}
	return sink.Close(ctx)
}
