package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlequiv/internal/suite"
)

// SuiteOptions holds flags for the suite command.
type SuiteOptions struct {
	*RootOptions
	Only string
}

// NewSuiteCommand creates the suite command.
func NewSuiteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuiteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suite <suite.yaml|suite.cue>",
		Short: "Run a suite of query pairs with expected verdicts",
		Long: `Run every case of a suite file and compare each verdict with the expected
one. Suites are YAML, or CUE checked against the #Suite definition.

Exit codes: 0 all cases passed, 1 some case failed, 2 unreadable suite.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Only, "only", "", `run only cases matching an expression, e.g. 'expect == "equivalent"'`)

	return cmd
}

func runSuite(ctx context.Context, opts *SuiteOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := suite.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot load suite", err)
	}
	s, err = suite.Filter(s, opts.Only)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid --only expression", err)
	}
	formatter.VerboseLog("Loaded suite %s with %d case(s)", s.Name, len(s.Cases))

	checker, closeHistory, err := newChecker(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot open history", err)
	}
	defer closeHistory()

	sum, err := suite.Run(ctx, checker, s, opts.Logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, "suite interrupted", err)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(sum); err != nil {
			return err
		}
	} else if err := suite.WriteText(formatter.Writer, sum, formatter.Color); err != nil {
		return err
	}

	if !sum.OK() {
		return &ExitError{Code: ExitFailure, Message: "suite failed", Reported: true}
	}
	return nil
}
