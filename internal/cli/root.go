// Package cli implements the lemon command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/littlelemon/internal/logging"
	"github.com/mesh-intelligence/littlelemon/internal/paths"
	"github.com/mesh-intelligence/littlelemon/pkg/littlelemon"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by the root command to a process exit
// code. Errors that carry no code are usage errors from cobra.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// app holds the global flags and the state loaded before each command.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool

	resolvedConfigDir string
	cfg               types.Config
	logger            zerolog.Logger
	logCloser         io.Closer
}

// close releases the log file opened by load, if any.
func (a *app) close() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// NewRootCmd creates the "lemon" command with its global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "lemon",
		Short:         "Table reservations for the Little Lemon restaurant",
		Long:          "lemon books restaurant tables by best fit, lists and cancels bookings,\nand serves the reservation API.",
		Version:       littlelemon.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $LEMON_CONFIG_DIR or the user config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newTablesCmd(a),
		newAvailabilityCmd(a),
		newBookCmd(a),
		newListCmd(a),
		newCancelCmd(a),
		newClearCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root, a
}

// Execute runs the CLI and exits the process with the command's code.
func Execute() {
	root, a := newRoot()
	err := root.Execute()
	if cerr := a.close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "lemon: close log:", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "lemon:", err)
		os.Exit(ExitCode(err))
	}
}

// load resolves directories, reads config.yaml and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError("%w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, cfg.DataDir)
	if err != nil {
		return sysError("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	if !a.verbose && cmd.Name() != "serve" {
		cfg.Log.Level = zerolog.LevelWarnValue
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return userError("configure logging: %w", err)
	}

	a.resolvedConfigDir = configDir
	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer
	return nil
}

// open opens the configured reservation store. Invalid configuration is a
// user error; anything else is a system error.
func (a *app) open(cmd *cobra.Command) (*littlelemon.Reservations, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, userError("invalid config: %w", err)
	}
	res, err := littlelemon.Open(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		return nil, sysError("open store: %w", err)
	}
	return res, nil
}

// out returns the writer for command output.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
