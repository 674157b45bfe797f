// Package config provides the configuration system for tabula.
// A single Config structure carries every tunable used by the reader, the
// writer, the storage layer, the pipeline and the observability stack.
//
// The configuration is organized into logical sections:
//   - Read: line splitting and explicitly ignored line indices
//   - Write: fill token, spacing, numeric precision and flushing
//   - Storage: object store region, credentials and compression level
//   - Pipeline: concurrency and timeouts for multi-file jobs
//   - Observability: logging, tracing and metrics output
//
// Example usage:
//
//	cfg := config.NewConfig("nuclear-rates")
//	cfg.Write.MaxDecimal = 5
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	// Name identifies the job in logs and metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version" mapstructure:"version"`

	Read          ReadConfig          `yaml:"read" json:"read" mapstructure:"read"`
	Write         WriteConfig         `yaml:"write" json:"write" mapstructure:"write"`
	Storage       StorageConfig       `yaml:"storage" json:"storage" mapstructure:"storage"`
	Pipeline      PipelineConfig      `yaml:"pipeline" json:"pipeline" mapstructure:"pipeline"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// ReadConfig controls how data lines are split and skipped.
type ReadConfig struct {
	// SplitChar separates tokens; empty means runs of whitespace
	SplitChar string `yaml:"split_char" json:"split_char" mapstructure:"split_char"`
	// IgnoreLines lists zero-based line indices that are never parsed
	IgnoreLines []int `yaml:"ignore_lines" json:"ignore_lines" mapstructure:"ignore_lines"`
}

// WriteConfig controls how records are rendered back to text.
type WriteConfig struct {
	// EmptyChar is written in place of absent values
	EmptyChar string `yaml:"empty_char" json:"empty_char" mapstructure:"empty_char"`
	// Spacing separates columns
	Spacing string `yaml:"spacing" json:"spacing" mapstructure:"spacing"`
	// MaxDecimal is the number of decimals in scientific notation
	MaxDecimal int `yaml:"max_decimal" json:"max_decimal" mapstructure:"max_decimal"`
	// Scientific renders floats in scientific notation
	Scientific bool `yaml:"scientific" json:"scientific" mapstructure:"scientific"`
	// FlushEvery is the number of records buffered between flushes
	FlushEvery int `yaml:"flush_every" json:"flush_every" mapstructure:"flush_every"`
	// Append appends to the destination instead of truncating it
	Append bool `yaml:"append" json:"append" mapstructure:"append"`
}

// StorageConfig configures remote object stores and compression.
type StorageConfig struct {
	// Region for S3 access; empty uses the SDK default chain
	Region string `yaml:"region" json:"region" mapstructure:"region"`
	// Endpoint overrides the S3 endpoint (MinIO, localstack)
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	// CredentialsFile is a GCS service account file
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
	// CompressionLevel is one of fastest, default, better, best
	CompressionLevel string `yaml:"compression_level" json:"compression_level" mapstructure:"compression_level"`
	// MmapThreshold is the local file size above which files are memory mapped
	MmapThreshold int64 `yaml:"mmap_threshold" json:"mmap_threshold" mapstructure:"mmap_threshold"`
}

// PipelineConfig configures multi-file jobs.
type PipelineConfig struct {
	// Workers bounds the number of data files read concurrently
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`
	// Timeout bounds the whole job
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

// ObservabilityConfig contains logging, tracing and metrics settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
	// EnableTracing activates OpenTelemetry tracing to stdout
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	// MetricsFile receives a Prometheus text dump at exit when set
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" mapstructure:"metrics_file"`
}

// NewConfig creates a Config with defaults matching the writer and reader
// defaults.
func NewConfig(name string) *Config {
	return &Config{
		Name:    name,
		Version: "1.0.0",
		Write: WriteConfig{
			EmptyChar:  "&",
			Spacing:    " ",
			MaxDecimal: 3,
			Scientific: true,
			FlushEvery: 100,
		},
		Storage: StorageConfig{
			CompressionLevel: "default",
			MmapThreshold:    4 * 1024 * 1024,
		},
		Pipeline: PipelineConfig{
			Workers: runtime.NumCPU(),
			Timeout: 30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "console",
			TracingSampleRate: 1.0,
		},
	}
}

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Write.MaxDecimal < 0 {
		return fmt.Errorf("write.max_decimal cannot be negative")
	}
	if c.Write.FlushEvery <= 0 {
		return fmt.Errorf("write.flush_every must be positive")
	}
	if c.Write.Spacing == "" {
		return fmt.Errorf("write.spacing cannot be empty")
	}
	for _, idx := range c.Read.IgnoreLines {
		if idx < 0 {
			return fmt.Errorf("read.ignore_lines cannot contain negative index %d", idx)
		}
	}
	switch c.Storage.CompressionLevel {
	case "", "fastest", "default", "better", "best":
	default:
		return fmt.Errorf("storage.compression_level %q is not one of fastest, default, better, best", c.Storage.CompressionLevel)
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("pipeline.workers cannot be negative")
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("observability.tracing_sample_rate must be within [0, 1]")
	}
	return nil
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (p *PipelineConfig) GetWorkers() int {
	if p.Workers <= 0 {
		return runtime.NumCPU()
	}
	return p.Workers
}
