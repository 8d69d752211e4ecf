package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/roach88/sqlequiv/internal/config"
	"github.com/roach88/sqlequiv/internal/equiv"
	"github.com/roach88/sqlequiv/internal/logutil"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Timeout    time.Duration
	Solver     string
	History    string
	NoColor    bool

	// Set by the root command before any subcommand runs.
	Config *config.Config
	Logger *zap.Logger

	// oracle and ids replace the solver process and run ids in tests.
	oracle equiv.Oracle
	ids    equiv.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sqlequiv CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlequiv",
		Short: "sqlequiv - SQL query equivalence checker",
		Long: `Decide whether two SELECT queries return the same rows on every database
of a given schema, using an SMT solver. When they differ, sqlequiv prints a
concrete row that one query returns and the other does not.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ./sqlequiv.yaml)")
	flags.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "solver timeout")
	flags.StringVar(&opts.Solver, "solver", "z3", "solver command speaking SMT-LIB2 on stdin")
	flags.StringVar(&opts.History, "history", "", "SQLite database recording every check")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSMTCommand(opts))
	cmd.AddCommand(NewSuiteCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// load merges config file, environment and flags into opts.
func (opts *RootOptions) load(cmd *cobra.Command) error {
	flags := cmd.Flags()
	bound := map[string]*pflag.Flag{
		config.KeyOutputFormat:  flags.Lookup("format"),
		config.KeySolverTimeout: flags.Lookup("timeout"),
		config.KeySolverCommand: flags.Lookup("solver"),
		config.KeyHistoryPath:   flags.Lookup("history"),
	}
	cfg, err := config.Load(opts.ConfigPath, bound)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.NoColor {
		cfg.Output.Color = config.ColorNever
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if !isValidFormat(cfg.Output.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Output.Format, ValidFormats))
	}

	logger, err := logutil.New(cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	opts.Config = cfg
	opts.Format = cfg.Output.Format
	opts.Logger = logger
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
