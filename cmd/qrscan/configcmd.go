package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the merged configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out, err := a.cfg.Dump()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "paths",
			Short: "List where qrscan.yaml is searched and which file was read",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				w := cmd.OutOrStdout()
				for _, p := range config.SearchPaths() {
					fmt.Fprintln(w, p)
				}
				used := a.loader.FileUsed()
				if used == "" {
					used = "(none)"
				}
				fmt.Fprintf(w, "using: %s\n", used)
				fmt.Fprintf(w, "formats available: %v\n", matrixscan.RegisteredFormats())
				return nil
			},
		},
	)
	return cmd
}
