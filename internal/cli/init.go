package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize catalog configuration and storage",
		Long:  "Write a default config.yaml if none exists and create the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := writeConfigIfMissing(a.configDir, a.config.DataDir)
			if err != nil {
				return sysError(err)
			}

			backend, err := a.attach()
			if err != nil {
				return err
			}
			if err := backend.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, map[string]any{
					"config_dir":     a.configDir,
					"data_dir":       a.config.DataDir,
					"config_written": written,
				})
			}
			fmt.Fprintln(out, "Catalog initialized successfully")
			fmt.Fprintln(out, "  config:", a.configDir)
			fmt.Fprintln(out, "  data:  ", a.config.DataDir)
			return nil
		},
	}
}
