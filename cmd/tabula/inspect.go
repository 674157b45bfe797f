package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tabula/pkg/config"
)

func newInspectCmd(a *app) *cobra.Command {
	var structure string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the compiled plan of a structure file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, header, err := a.runner.Cache().Get(cmd.Context(), structure)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if header != nil {
				if header.Start != "" {
					fmt.Fprintf(w, "$START: %s\n", header.Start)
				}
				for _, ign := range header.Ignore {
					fmt.Fprintf(w, "$IGNORE: %s\n", ign)
				}
				keys := make([]string, 0, len(header.Extra))
				for k := range header.Extra {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "$%s: %s\n", k, header.Extra[k])
				}
				fmt.Fprintln(w)
			}
			fmt.Fprint(w, spec.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&structure, "structure", "s", "", "Structure file (required)")
	_ = cmd.MarkFlagRequired("structure")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init PATH",
			Short: "Write a configuration file with the defaults",
			Args:  cobra.ExactArgs(1),
			PersistentPreRunE: func(*cobra.Command, []string) error {
				return nil
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.Save(args[0], config.NewConfig("tabula")); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration after files, environment and flags",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(a.cfg); err != nil {
					return err
				}
				return enc.Close()
			},
		},
	)
	return cmd
}
