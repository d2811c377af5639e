// Package cli implements the catalog command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/catalog/internal/paths"
	"github.com/mesh-intelligence/catalog/internal/sqlite"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app carries what every subcommand needs after PersistentPreRunE.
type app struct {
	flags     rootFlags
	configDir string
	config    types.Config
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "catalog" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "catalog",
		Short: "Incremental product catalog sync with price history",
		Long: "catalog applies scraped product records to a normalized store,\n" +
			"keeping one row per article and a history of every price change.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newSyncCmd(a))
	root.AddCommand(newProductCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newRestoreCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code. An
// interrupt cancels a running sync between records.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "catalog:", err)
		os.Exit(exitCode(err))
	}
}

// load resolves directories, reads config.yaml and builds the logger.
func (a *app) load(stderr io.Writer) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return userError(err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir
	if err := cfg.Validate(); err != nil {
		return userError(fmt.Errorf("invalid config: %w", err))
	}

	a.configDir = configDir
	a.config = cfg
	a.logger = newLogger(cfg.Logging, stderr)
	return nil
}

// attach opens the backend described by the loaded config. The caller must
// Detach it.
func (a *app) attach() (*sqlite.Backend, error) {
	backend := sqlite.NewBackend(sqlite.WithLogger(a.logger))
	if err := backend.Attach(a.config); err != nil {
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	return backend, nil
}

// exitError carries a process exit code with the error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps an error from a command to the process exit code. Errors
// without a code are usage errors from cobra.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
