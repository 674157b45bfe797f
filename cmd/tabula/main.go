package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/internal/pipeline"
	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/storage"
)

var version = "0.1.0"

// app holds what every subcommand shares once flags and config are resolved.
type app struct {
	v          *viper.Viper
	configFile string

	cfg      *config.Config
	store    *storage.Store
	runner   *pipeline.Runner
	shutdown func(context.Context) error
}

// flagKeys binds command line flags to configuration keys. Only flags
// defined on the executing command are bound.
var flagKeys = map[string]string{
	"log-level":    "observability.log_level",
	"log-encoding": "observability.log_encoding",
	"trace":        "observability.enable_tracing",
	"metrics-out":  "observability.metrics_file",
	"workers":      "pipeline.workers",
	"timeout":      "pipeline.timeout",
	"split-char":   "read.split_char",
	"empty-char":   "write.empty_char",
	"spacing":      "write.spacing",
	"max-decimal":  "write.max_decimal",
	"scientific":   "write.scientific",
	"flush-every":  "write.flush_every",
	"append":       "write.append",
}

func (a *app) setup(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.LoadWithViper(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return err
	}

	if cfg.Observability.EnableTracing {
		tc := observability.DefaultTracingConfig(version)
		tc.SamplingRate = cfg.Observability.TracingSampleRate
		tc.Output = os.Stderr
		shutdown, err := observability.InitTracing(tc)
		if err != nil {
			return err
		}
		a.shutdown = shutdown
	}

	level, err := compression.ParseLevel(cfg.Storage.CompressionLevel)
	if err != nil {
		return err
	}
	a.store = storage.New(storage.Options{
		Region:           cfg.Storage.Region,
		Endpoint:         cfg.Storage.Endpoint,
		CredentialsFile:  cfg.Storage.CredentialsFile,
		CompressionLevel: level,
		MmapThreshold:    cfg.Storage.MmapThreshold,
	})
	a.runner = pipeline.NewRunner(pipeline.FromConfig(cfg), a.store)

	logger.Get().Debug("configuration loaded",
		zap.String("config_file", a.configFile),
		zap.Int("workers", cfg.Pipeline.GetWorkers()))
	return nil
}

// close flushes traces and metrics. It runs whether or not the command failed.
func (a *app) close() {
	log := logger.Get()
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}
	if a.cfg != nil && a.cfg.Observability.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.cfg.Observability.MetricsFile, nil); err != nil {
			log.Warn("failed to write metrics", zap.Error(err))
		}
	}
	_ = logger.Sync()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tabula",
		Short: "Tabula - structure-driven reader and writer for columnar text data",
		Long: `Tabula reads text data files into tables using a structure file that
describes where each value sits on its line, filters the records with simple
conditions, and writes them back to text or exports them to JSON, Arrow,
Parquet, Avro or SQLite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Path to a YAML configuration file")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-encoding", "console", "Log encoding (console, json)")
	pf.Bool("trace", false, "Print OpenTelemetry spans to stderr")
	pf.String("metrics-out", "", "Write Prometheus metrics in text format to this file on exit")

	root.AddCommand(
		newReadCmd(a),
		newConvertCmd(a),
		newInspectCmd(a),
		newConfigCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			PersistentPreRunE: func(*cobra.Command, []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Tabula v%s\n", version)
				fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
				fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			},
		},
	)
	return root
}

func main() {
	// Credentials for remote stores may live in a .env file
	_ = godotenv.Load()

	a := &app{v: viper.New()}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
