package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tabula/internal/pipeline"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/formats/columnar"
	"github.com/ajitpratap0/tabula/pkg/formats/sqlite"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// jobFlags are the selection flags shared by read and convert.
type jobFlags struct {
	structure   string
	where       []string
	ignoreLines []int
	testFile    string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.structure, "structure", "s", "", "Structure file describing the data files (required)")
	cmd.Flags().StringArrayVarP(&f.where, "where", "w", nil, `Condition records must satisfy, e.g. "T9 < 0.002" (repeatable)`)
	cmd.Flags().IntSliceVar(&f.ignoreLines, "ignore-lines", nil, "Zero-based data line indices never parsed")
	cmd.Flags().String("split-char", "", "Token separator for index lines; default is runs of whitespace")
	cmd.Flags().StringVar(&f.testFile, "test", "", "Reading test file validated against every data file")
	cmd.Flags().Int("workers", 0, "Data files read concurrently; default from config")
	cmd.Flags().Duration("timeout", 0, "Whole-job deadline; default from config")
	_ = cmd.MarkFlagRequired("structure")
}

func (f *jobFlags) job(a *app, inputs []string) *pipeline.Job {
	return &pipeline.Job{
		Structure:   f.structure,
		Inputs:      inputs,
		Conditions:  f.where,
		IgnoreLines: append(append([]int(nil), a.cfg.Read.IgnoreLines...), f.ignoreLines...),
		SplitChar:   a.cfg.Read.SplitChar,
		TestFile:    f.testFile,
	}
}

func newReadCmd(a *app) *cobra.Command {
	var (
		flags     jobFlags
		columns   []string
		export    string
		out       string
		tableName string
		codec     string
		pretty    bool
	)

	cmd := &cobra.Command{
		Use:   "read DATA...",
		Short: "Read data files and print a summary, selected columns or an export",
		Long: `Read one or more data files with a structure file.

Without --select or --export, prints the columns and record count of every
file. With --select, prints the selected columns of every kept record, tab
separated. With --export, writes all kept records to --out (or stdout for
json and jsonl) as json, jsonl, arrow, parquet, avro or sqlite.

Example:
  tabula read -s rates.struct rates_*.dat --where "T9 < 0.002" --select T9,rate
  tabula read -s rates.struct rates.dat --export parquet --out s3://bucket/rates.parquet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			job := flags.job(a, args)
			job.Columns = columns

			var closeOut func() error
			if export != "" {
				sink, c, err := newExportSink(ctx, a, export, out, tableName, codec, pretty, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				job.Sink, closeOut = sink, c
			}

			res, err := a.runner.Run(ctx, job)
			if closeOut != nil {
				if cerr := closeOut(); err == nil {
					err = cerr
				}
			}
			if err != nil {
				return err
			}
			reportProblems(cmd.ErrOrStderr(), res)
			if export != "" && out == "" {
				return nil
			}
			if len(columns) > 0 {
				printRows(cmd.OutOrStdout(), res)
				return nil
			}
			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&columns, "select", nil, "Columns to print, comma separated")
	cmd.Flags().StringVar(&export, "export", "", "Export format: json, jsonl, arrow, parquet, avro or sqlite")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Export destination; local path, s3:// or gs:// URL")
	cmd.Flags().StringVar(&tableName, "table", sqlite.DefaultTable, "SQLite table name")
	cmd.Flags().StringVar(&codec, "compression", "snappy", "Arrow, Parquet or Avro block compression")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	return cmd
}

// newExportSink builds the sink for format. The returned function closes
// the output stream, if the sink owns one.
func newExportSink(ctx context.Context, a *app, format, out, tableName, codec string, pretty bool, stdout io.Writer) (pipeline.Sink, func() error, error) {
	switch strings.ToLower(format) {
	case "json", "jsonl":
		w, closeOut := stdout, func() error { return nil }
		if out != "" {
			f, err := a.store.Create(ctx, out, false)
			if err != nil {
				return nil, nil, err
			}
			w, closeOut = f, f.Close
		}
		if strings.EqualFold(format, "jsonl") {
			return pipeline.NewJSONLinesSink(w), closeOut, nil
		}
		return pipeline.NewJSONSink(w, pretty), closeOut, nil
	case "sqlite", "db":
		if out == "" {
			return nil, nil, errors.New(errors.ErrorTypeConfig, "--out is required for sqlite export")
		}
		return pipeline.NewSQLiteSink(out, tableName), nil, nil
	}

	f, err := columnar.ParseFormat(format)
	if err != nil {
		return nil, nil, err
	}
	if out == "" {
		return nil, nil, errors.Newf(errors.ErrorTypeConfig, "--out is required for %s export", f)
	}
	cfg := columnar.DefaultWriterConfig(f)
	cfg.Compression = codec
	return pipeline.NewColumnarSink(a.store, out, cfg), nil, nil
}

func reportProblems(w io.Writer, res *pipeline.Result) {
	for _, f := range res.Files {
		if f.ValidationErr != nil {
			fmt.Fprintf(w, "%s: reading test failed: %v\n", f.Input, f.ValidationErr)
		}
		if f.FilterErr != nil {
			fmt.Fprintf(w, "%s: filter not applied: %v\n", f.Input, f.FilterErr)
		}
	}
}

func printSummary(w io.Writer, res *pipeline.Result) {
	for _, f := range res.Files {
		fmt.Fprintf(w, "%s: %d of %d records\n", f.Input, f.Table.Len(), f.ReadRecords)
		for _, c := range f.Table.Columns() {
			fmt.Fprintf(w, "  %-20s %s\n", c, f.Table.Kind(c))
		}
	}
	fmt.Fprintf(w, "total: %d records in %d files (%s)\n", res.Records(), len(res.Files), res.Duration)
}

func printRows(w io.Writer, res *pipeline.Result) {
	for _, f := range res.Files {
		for _, row := range f.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = table.Format(v)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
	}
}
