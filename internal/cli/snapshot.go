package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to <dir> as JSONL files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attach()
			if err != nil {
				return err
			}
			defer backend.Detach()

			if err := backend.Export(cmd.Context(), args[0]); err != nil {
				return sysError(fmt.Errorf("export: %w", err))
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"dir": args[0]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "exported to", args[0])
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <dir>",
		Short: "Load a snapshot written by export; existing rows are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attach()
			if err != nil {
				return err
			}
			defer backend.Detach()

			n, err := backend.Restore(cmd.Context(), args[0])
			if err != nil {
				return sysError(fmt.Errorf("restore: %w", err))
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"dir": args[0], "rows": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d rows from %s\n", n, args[0])
			return nil
		},
	}
}
