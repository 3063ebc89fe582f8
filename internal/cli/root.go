// Package cli implements the keepsake command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/keepsake/internal/backup"
	"github.com/mesh-intelligence/keepsake/internal/paths"
	"github.com/mesh-intelligence/keepsake/pkg/keepsake"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

var errNotFound = errors.New("record not found")

// exitError carries the exit code chosen for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by one invocation of the command tree.
type app struct {
	flags  rootFlags
	stdout io.Writer
	stderr io.Writer

	configDir string
	config    *viper.Viper
	logger    *slog.Logger
	st        types.Store
}

// rootCmd creates the top-level "keepsake" command with global flags and
// all subcommands registered.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "keepsake",
		Short:   "Local store for the keepsake lifestyle app",
		Long:    "Keepsake keeps accounts, diaries, photos, foods, games and settings in a local\nstore, with backup export and import.",
		Version: keepsake.Version,
		// Errors are printed once by Run.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/keepsake)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/keepsake)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(a.versionCmd())
	root.AddCommand(a.initCmd())
	root.AddCommand(a.addCmd())
	root.AddCommand(a.getCmd())
	root.AddCommand(a.listCmd())
	root.AddCommand(a.updateCmd())
	root.AddCommand(a.deleteCmd())
	root.AddCommand(a.settingCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.importCmd())
	root.AddCommand(a.summaryCmd())
	return root
}

// Run executes the command line args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if cerr := a.closeStore(); cerr != nil && err == nil {
		err = a.fail(cerr)
	}
	if err == nil {
		return exitSuccess
	}

	fmt.Fprintln(stderr, "keepsake:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors from cobra.
	return exitUserError
}

// Execute runs the root command against the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// store returns the store for this invocation, opening it on first call.
func (a *app) store(ctx context.Context) (types.Store, error) {
	if a.st != nil {
		return a.st, nil
	}
	dataDir, err := a.dataDir()
	if err != nil {
		return nil, a.fail(err)
	}
	st, err := keepsake.Open(types.Config{
		Backend: a.config.GetString(cfgKeyBackend),
		DataDir: dataDir,
		Logger:  a.logger,
	})
	if err != nil {
		return nil, &exitError{code: exitUserError, err: fmt.Errorf("config: %w", err)}
	}
	if err := st.Open(ctx); err != nil {
		return nil, a.fail(err)
	}
	a.st = st
	return st, nil
}

func (a *app) closeStore() error {
	if a.st == nil {
		return nil
	}
	err := a.st.Close()
	a.st = nil
	return err
}

// dataDir resolves the data directory: flag > config.yaml > env > default.
func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
}

// fail attaches the exit code matching err.
func (a *app) fail(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return &exitError{code: classify(err), err: err}
}

// classify maps an error to an exit code. Bad input is a user error; a
// store that cannot be opened or any unexpected failure is a system error.
func classify(err error) int {
	switch {
	case errors.Is(err, types.ErrStoreUnavailable):
		return exitSysError
	case errors.Is(err, errNotFound),
		errors.Is(err, types.ErrUnknownCollection),
		errors.Is(err, types.ErrDuplicateKey),
		errors.Is(err, types.ErrIndexNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrMissingField),
		errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidDate),
		errors.Is(err, types.ErrInvalidType),
		errors.Is(err, types.ErrVersionConflict),
		errors.Is(err, types.ErrImportFailed),
		errors.Is(err, backup.ErrVerifyFailed),
		errors.Is(err, backup.ErrObjectNotFound),
		errors.Is(err, errNoRemote),
		errors.Is(err, os.ErrNotExist):
		return exitUserError
	default:
		return exitSysError
	}
}
