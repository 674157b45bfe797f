// Package metrics provides Prometheus instrumentation for tabula.
//
// # Overview
//
// The metrics package provides:
//   - Pre-defined counters for records read, lines consumed and records written
//   - Filter clause outcomes and typed error counts
//   - Operation latency histograms with a Timer helper
//   - A text exposition dump for batch runs, which have no scrape endpoint
//
// # Basic Usage
//
//	timer := metrics.NewTimer("read")
//	tbl, err := reader.Read(ctx, path, spec, header)
//	timer.ObserveDuration()
//	metrics.RecordsRead.WithLabelValues("rates.struct").Add(float64(tbl.Len()))
package metrics

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	// RecordsRead counts records assembled by the reader.
	// Labels: structure
	RecordsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_records_read_total",
			Help: "Total number of records assembled from data files",
		},
		[]string{"structure"},
	)

	// LinesConsumed counts data lines handed to line-specs.
	// Labels: structure
	LinesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_lines_consumed_total",
			Help: "Total number of data lines consumed by the reader",
		},
		[]string{"structure"},
	)

	// RecordsWritten counts records rendered by the writer.
	// Labels: structure
	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_records_written_total",
			Help: "Total number of records rendered to text",
		},
		[]string{"structure"},
	)

	// FilterClauses counts evaluated clauses by outcome.
	// Labels: result (applied, rejected)
	FilterClauses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_filter_clauses_total",
			Help: "Total number of filter clauses by outcome",
		},
		[]string{"result"},
	)

	// Errors counts structured errors by type.
	// Labels: type
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)

	// OperationDuration tracks compile, read, filter, write and export latency.
	// Labels: operation
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tabula_operation_duration_seconds",
			Help: "Operation latency in seconds",
			Buckets: []float64{
				0.0001, // 100μs - tiny structure files
				0.001,  // 1ms
				0.01,   // 10ms
				0.1,    // 100ms - typical data files
				1,      // 1s
				10,     // 10s - large or remote files
			},
		},
		[]string{"operation"},
	)
)

// Timer measures one operation and reports it to OperationDuration.
type Timer struct {
	start     time.Time
	operation string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(operation string) *Timer {
	return &Timer{
		start:     time.Now(),
		operation: operation,
	}
}

// Stop returns the elapsed duration since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := t.Stop()
	OperationDuration.WithLabelValues(t.operation).Observe(d.Seconds())
	return d
}

// WriteTextfile writes every metric family of g in the Prometheus text
// exposition format, suitable for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush metrics file: %w", err)
	}
	return f.Close()
}
