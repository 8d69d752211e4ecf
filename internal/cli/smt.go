package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SMTResult is the JSON payload of the smt command.
type SMTResult struct {
	RunID       string `json:"run_id"`
	Fingerprint string `json:"fingerprint"`
	Script      string `json:"script"`
}

// NewSMTCommand creates the smt command.
func NewSMTCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smt <schema.sql> <query1.sql> <query2.sql>",
		Short: "Print the SMT-LIB2 script of a check without solving it",
		Long: `Validate and encode two queries, then print the SMT-LIB2 script that check
would send to the solver. The script is satisfiable exactly when the
queries differ; feed it to any SMT-LIB2 solver with string support.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSMT(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runSMT(opts *RootOptions, args []string, cmd *cobra.Command) error {
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

	p, err := checker.Prepare(in)
	if err != nil {
		return formatter.Fail(ExitCommandError, "encoding failed", err)
	}
	script := p.Script(opts.Config.Solver.Timeout).Render()

	if formatter.Format == "json" {
		return formatter.Success(SMTResult{RunID: p.RunID, Fingerprint: p.Fingerprint, Script: script})
	}
	_, err = fmt.Fprint(formatter.Writer, script)
	return err
}
