package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tabula/internal/pipeline"
	"github.com/ajitpratap0/tabula/pkg/writer"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		flags       jobFlags
		toStructure string
		out         string
	)

	cmd := &cobra.Command{
		Use:   "convert DATA...",
		Short: "Rewrite data files with another structure",
		Long: `Read data files with one structure, filter them, and write the kept
records of all files to a single data file laid out by a second structure.

Example:
  tabula convert -s rates.struct rates.dat --to-structure compact.struct --out rates_compact.dat.gz --where "T9 > 0.1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spec, header, err := a.runner.Cache().Get(ctx, toStructure)
			if err != nil {
				return err
			}

			w := a.cfg.Write
			job := flags.job(a, args)
			job.Sink = pipeline.NewTextSink(out, spec, header,
				writer.WithStore(a.store),
				writer.WithAppend(w.Append),
				writer.WithScientific(w.Scientific),
				writer.WithMaxDecimal(w.MaxDecimal),
				writer.WithMaxRecordsPerFlush(w.FlushEvery),
				writer.WithEmptyChar(w.EmptyChar),
				writer.WithSpacing(w.Spacing))

			res, err := a.runner.Run(ctx, job)
			if err != nil {
				return err
			}
			reportProblems(cmd.ErrOrStderr(), res)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", res.Records(), out)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&toStructure, "to-structure", "", "Structure file of the output (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output data file; local path, s3:// or gs:// URL (required)")
	cmd.Flags().Bool("append", false, "Append to the output instead of truncating it")
	cmd.Flags().Bool("scientific", true, "Write floats in scientific notation")
	cmd.Flags().Int("max-decimal", writer.DefaultMaxDecimal, "Decimals in scientific notation")
	cmd.Flags().Int("flush-every", writer.DefaultMaxRecordsPerFlush, "Records buffered between flushes")
	cmd.Flags().String("empty-char", writer.DefaultEmptyChar, "Written in place of absent values")
	cmd.Flags().String("spacing", writer.DefaultSpacing, "Column separator of index lines")
	_ = cmd.MarkFlagRequired("to-structure")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
