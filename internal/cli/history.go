package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlequiv/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit       int
	Fingerprint string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded checks",
		Long: `List checks recorded in the history database (--history or history.path),
oldest first. With --fingerprint, list every check of the same schema and
query pair.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "show at most this many recent runs (0 for all)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only runs of this input fingerprint")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	path := opts.Config.History.Path
	if path == "" {
		return formatter.Fail(ExitCommandError, "history is disabled: set --history or history.path", nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot open history", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.Fingerprint != "" {
		runs, err = st.RunsByFingerprint(ctx, opts.Fingerprint)
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot read history", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(historyEntries(runs))
	}
	return writeHistory(formatter, runs)
}

// HistoryEntry is the JSON form of a recorded run.
type HistoryEntry struct {
	Seq         int64  `json:"seq"`
	RunID       string `json:"run_id"`
	Fingerprint string `json:"fingerprint"`
	Verdict     string `json:"verdict"`
	Direction   string `json:"direction,omitempty"`
	Query1      string `json:"query1"`
	Query2      string `json:"query2"`
	DurationMS  int64  `json:"duration_ms"`
}

func historyEntries(runs []store.Run) []HistoryEntry {
	out := make([]HistoryEntry, len(runs))
	for i, r := range runs {
		out[i] = HistoryEntry{
			Seq:         r.Seq,
			RunID:       r.RunID,
			Fingerprint: r.Fingerprint,
			Verdict:     r.Verdict,
			Direction:   r.Direction,
			Query1:      r.Query1,
			Query2:      r.Query2,
			DurationMS:  r.DurationMS,
		}
	}
	return out
}

func writeHistory(f *OutputFormatter, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(f.Writer, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tVERDICT\tDIRECTION\tDURATION\tFINGERPRINT")
	for _, r := range runs {
		direction := r.Direction
		if direction == "" {
			direction = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Seq, r.RunID, r.Verdict, direction,
			time.Duration(r.DurationMS)*time.Millisecond,
			shortFingerprint(r.Fingerprint),
		)
	}
	return tw.Flush()
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
