package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlequiv/internal/equiv"
	"github.com/roach88/sqlequiv/internal/report"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <schema.sql> <query1.sql> <query2.sql>",
		Short: "Check whether two queries are equivalent",
		Long: `Check whether two SELECT queries return the same rows on every database of
the schema.

Exit codes: 0 equivalent, 1 not equivalent or unknown, 2 invalid input,
unsupported SQL, or solver failure.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(ctx context.Context, opts *RootOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	in, err := readInput(args[0], args[1], args[2])
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot read input", err)
	}

	checker, closeHistory, err := newChecker(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot open history", err)
	}
	defer closeHistory()

	out, err := checker.Check(ctx, in)
	if err != nil {
		return formatter.Fail(ExitCommandError, "check failed", err)
	}
	formatter.VerboseLog("run %s finished in %s", out.RunID, out.Duration)

	if formatter.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else if err := writeOutcome(formatter, out); err != nil {
		return err
	}

	switch out.Verdict {
	case equiv.Equivalent:
		return nil
	case equiv.NotEquivalent:
		return &ExitError{Code: ExitFailure, Message: "queries are not equivalent", Reported: true}
	default:
		return &ExitError{Code: ExitFailure, Message: "equivalence unknown: " + out.Reason, Reported: true}
	}
}

// writeOutcome prints the text form of a check:
//
//	Queries are not equivalent.
//	Counterexample:
//	  Table users: (id=7, age=21)
//	Interpretation:
//	  -> Query 1 returns the tuple while Query 2 does not.
//	Difference:
//	  SELECT ... WHERE users.age > [-20-]{+21+}
func writeOutcome(f *OutputFormatter, out *equiv.Outcome) error {
	var b strings.Builder
	switch out.Verdict {
	case equiv.Equivalent:
		b.WriteString("Queries are equivalent.\n")
	case equiv.NotEquivalent:
		b.WriteString("Queries are not equivalent.\n")
		if err := report.WriteText(&b, out.Counterexample, report.Options{Color: f.Color}); err != nil {
			return err
		}
		if out.Query1 != out.Query2 {
			b.WriteString("Difference:\n  ")
			b.WriteString(report.WordDiff(out.Query1, out.Query2, report.Options{Color: f.Color}))
			b.WriteString("\n")
		}
	default:
		fmt.Fprintf(&b, "Equivalence unknown: %s\n", out.Reason)
	}
	_, err := fmt.Fprint(f.Writer, b.String())
	return err
}
