package suite

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/roach88/sqlequiv/internal/equiv"
	"github.com/roach88/sqlequiv/internal/logutil"
)

// Checker is the part of *equiv.Checker a suite needs.
type Checker interface {
	Check(ctx context.Context, in equiv.Input) (*equiv.Outcome, error)
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name      string `json:"name"`
	Expect    string `json:"expect"`
	Got       string `json:"got"`
	Direction string `json:"direction,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Passed    bool   `json:"passed"`

	// Mismatch says why a failed case failed.
	Mismatch string `json:"mismatch,omitempty"`
}

// Summary collects every case result in suite order.
type Summary struct {
	Suite   string       `json:"suite"`
	Results []CaseResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
}

// OK reports whether every case passed.
func (s *Summary) OK() bool { return s.Failed == 0 }

// Run checks every case in order. Check errors are results, not failures
// of the run; only a cancelled context stops it early.
func Run(ctx context.Context, c Checker, s *Suite, logger *zap.Logger) (*Summary, error) {
	if logger == nil {
		logger = logutil.Nop()
	}
	sum := &Summary{Suite: s.Name}
	for _, tc := range s.Cases {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("suite %s: %w", s.Name, err)
		}
		r := runCase(ctx, c, tc)
		if r.Passed {
			sum.Passed++
		} else {
			sum.Failed++
		}
		logger.Debug("case finished",
			zap.String("case", r.Name),
			zap.String("run_id", r.RunID),
			zap.String("got", r.Got),
			zap.Bool("passed", r.Passed),
		)
		sum.Results = append(sum.Results, r)
	}
	return sum, nil
}

func runCase(ctx context.Context, c Checker, tc Case) CaseResult {
	r := CaseResult{Name: tc.Name, Expect: tc.Expect}

	out, err := c.Check(ctx, equiv.Input{SchemaSQL: tc.Schema, Query1: tc.Query1, Query2: tc.Query2})
	if err != nil {
		r.Got = ExpectError
		r.Error = err.Error()
	} else {
		r.Got = out.Verdict.String()
		r.RunID = out.RunID
		if out.Counterexample != nil {
			r.Direction = out.Counterexample.Direction.String()
		}
		if out.Verdict == equiv.Unknown {
			r.Error = out.Reason
		}
	}

	switch {
	case r.Got != tc.Expect:
		r.Mismatch = fmt.Sprintf("expected %s, got %s", tc.Expect, r.Got)
	case tc.Direction != "" && r.Direction != tc.Direction:
		r.Mismatch = fmt.Sprintf("expected direction %s, got %s", tc.Direction, r.Direction)
	case tc.Expect == ExpectError && tc.Error != "" && !strings.Contains(r.Error, tc.Error):
		r.Mismatch = fmt.Sprintf("expected error containing %q", tc.Error)
	default:
		r.Passed = true
	}
	return r
}

// WriteText renders the summary as one line per case and a total line.
func WriteText(w io.Writer, sum *Summary, useColor bool) error {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed, color.Bold)
	for _, c := range []*color.Color{pass, fail} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	fmt.Fprintf(w, "Suite: %s\n", sum.Suite)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range sum.Results {
		status := pass.Sprint("PASS")
		detail := r.Got
		if r.Direction != "" {
			detail += " (" + r.Direction + ")"
		}
		if !r.Passed {
			status = fail.Sprint("FAIL")
			detail = r.Mismatch
			if r.Error != "" {
				detail += ": " + r.Error
			}
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", status, r.Name, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed\n", sum.Passed, sum.Failed)
	return err
}
