package equiv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/sqlequiv/internal/encoder"
	"github.com/roach88/sqlequiv/internal/logutil"
	"github.com/roach88/sqlequiv/internal/queryir"
	"github.com/roach88/sqlequiv/internal/queryparse"
	"github.com/roach88/sqlequiv/internal/report"
	"github.com/roach88/sqlequiv/internal/sanity"
	"github.com/roach88/sqlequiv/internal/schema"
	"github.com/roach88/sqlequiv/internal/smtlib"
	"github.com/roach88/sqlequiv/internal/store"
)

// DefaultTimeout bounds a solver call when the Checker has none set.
const DefaultTimeout = 10 * time.Second

// Oracle decides a script. *smtlib.Solver is the production oracle.
type Oracle interface {
	Check(ctx context.Context, script *smtlib.Script) (*smtlib.Result, error)
}

// Recorder persists finished checks. *store.Store implements it.
type Recorder interface {
	RecordRun(ctx context.Context, r store.Run) error
}

// Input is the raw text of one check.
type Input struct {
	SchemaSQL string
	Query1    string
	Query2    string
}

// Prepared is a check that passed validation and encoding and is ready
// for the solver.
type Prepared struct {
	RunID       string
	Tag         string
	Fingerprint string
	Input       Input
	Schema      *schema.Schema
	Queries     [2]*queryir.Query
	Normalized  [2]string
	Problem     *encoder.Problem
}

// Script renders the problem as a solver script with the given timeout.
func (p *Prepared) Script(timeout time.Duration) *smtlib.Script {
	return &smtlib.Script{
		Comments: []string{
			"run " + p.RunID,
			"query 1: " + oneLine(p.Normalized[0]),
			"query 2: " + oneLine(p.Normalized[1]),
		},
		Timeout:    timeout,
		Assertions: p.Problem.Assertions,
		Observe:    p.Problem.Observables(),
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clock reports the current time. Tests substitute a deterministic one.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Checker runs equivalence checks. The zero value is not usable; Oracle
// is required, every other field has a default.
type Checker struct {
	Oracle   Oracle
	Timeout  time.Duration
	Logger   *zap.Logger
	IDs      IDGenerator
	Clock    Clock
	Recorder Recorder
}

func (c *Checker) now() time.Time {
	if c.Clock == nil {
		return systemClock{}.Now()
	}
	return c.Clock.Now()
}

func (c *Checker) logger() *zap.Logger {
	if c.Logger == nil {
		return logutil.Nop()
	}
	return c.Logger
}

func (c *Checker) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Checker) nextID() string {
	if c.IDs == nil {
		return UUIDv7Generator{}.Generate()
	}
	return c.IDs.Generate()
}

// Prepare runs every stage before the solver: load, parse, validate,
// encode. Errors are the typed errors of those stages, wrapped.
func (c *Checker) Prepare(in Input) (*Prepared, error) {
	runID := c.nextID()
	log := c.logger().With(zap.String("run_id", runID))

	s, err := schema.Load(in.SchemaSQL)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	p := &Prepared{RunID: runID, Tag: RunTag(runID), Input: in, Schema: s}
	for i, text := range []string{in.Query1, in.Query2} {
		q, err := queryparse.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse query %d: %w", i+1, err)
		}
		p.Queries[i] = q
		p.Normalized[i], err = queryparse.Normalize(text)
		if err != nil {
			return nil, fmt.Errorf("normalize query %d: %w", i+1, err)
		}
	}

	var aliases [2]*encoder.AliasMap
	for i, q := range p.Queries {
		aliases[i], err = encoder.ResolveAliases(q, i+1)
		if err != nil {
			return nil, err
		}
	}
	log.Debug("aliases resolved",
		zap.Strings("query1", aliases[0].Keys()),
		zap.Strings("query2", aliases[1].Keys()),
	)

	if err := sanity.Check(s, p.Queries, aliases); err != nil {
		return nil, err
	}

	p.Problem, err = encoder.Encode(p.Tag, s, p.Queries[0], p.Queries[1])
	if err != nil {
		return nil, err
	}
	log.Debug("encoded",
		logutil.Values(
			zap.String("tag", p.Tag),
			zap.Int("columns", len(p.Problem.Columns)),
			zap.Int("assertions", len(p.Problem.Assertions)),
		),
	)

	p.Fingerprint, err = Fingerprint(s, p.Normalized[0], p.Normalized[1])
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Check decides whether the two queries of in are equivalent.
func (c *Checker) Check(ctx context.Context, in Input) (*Outcome, error) {
	start := c.now()
	p, err := c.Prepare(in)
	if err != nil {
		return nil, err
	}
	out, err := c.Solve(ctx, p)
	if err != nil {
		return nil, err
	}
	out.Duration = c.now().Sub(start)

	if err := c.record(ctx, p, out); err != nil {
		return nil, err
	}
	c.logger().Info("check finished",
		zap.String("run_id", p.RunID),
		zap.String("verdict", out.Verdict.String()),
		zap.Duration("elapsed", out.Duration),
	)
	return out, nil
}

// Solve sends a prepared check to the oracle under the checker's timeout.
func (c *Checker) Solve(ctx context.Context, p *Prepared) (*Outcome, error) {
	if c.Oracle == nil {
		return nil, errors.New("equiv: checker has no oracle")
	}
	timeout := c.timeout()
	script := p.Script(timeout)

	// The process deadline sits a little past the solver's own timeout so
	// a well-behaved solver answers "unknown" before being killed.
	ctx, cancel := context.WithTimeout(ctx, timeout+timeout/2)
	defer cancel()

	out := &Outcome{
		RunID:       p.RunID,
		Fingerprint: p.Fingerprint,
		Query1:      p.Normalized[0],
		Query2:      p.Normalized[1],
	}

	res, err := c.Oracle.Check(ctx, script)
	if errors.Is(err, smtlib.ErrOracleTimeout) {
		out.Verdict = Unknown
		out.Reason = fmt.Sprintf("solver did not answer within %s", timeout)
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case smtlib.StatusUnsat:
		out.Verdict = Equivalent
	case smtlib.StatusSat:
		cx, err := report.Build(p.Problem, res.Model)
		if err != nil {
			return nil, err
		}
		out.Verdict = NotEquivalent
		out.Counterexample = cx
	default:
		out.Verdict = Unknown
		out.Reason = res.Reason
		if out.Reason == "" {
			out.Reason = "solver answered unknown"
		}
	}
	return out, nil
}

func (c *Checker) record(ctx context.Context, p *Prepared, out *Outcome) error {
	if c.Recorder == nil {
		return nil
	}
	run := store.Run{
		RunID:       out.RunID,
		Fingerprint: out.Fingerprint,
		Verdict:     out.Verdict.String(),
		SchemaSQL:   p.Input.SchemaSQL,
		Query1:      p.Input.Query1,
		Query2:      p.Input.Query2,
		Detail:      out.Reason,
		DurationMS:  out.DurationMS(),
	}
	if cx := out.Counterexample; cx != nil {
		run.Direction = cx.Direction.String()
		var b strings.Builder
		if err := report.WriteText(&b, cx, report.Options{}); err != nil {
			return err
		}
		run.Detail = b.String()
	}
	if err := c.Recorder.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("record run %s: %w", out.RunID, err)
	}
	return nil
}
