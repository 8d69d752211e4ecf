package smtlib

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultCommand and DefaultArgs run z3 reading SMT-LIB2 from stdin.
const DefaultCommand = "z3"

var DefaultArgs = []string{"-in", "-smt2"}

// Solver runs one solver process per Check.
type Solver struct {
	Command string
	Args    []string
	Logger  *zap.Logger
}

// NewSolver returns a Solver for command, falling back to z3 when command
// is empty.
func NewSolver(command string, args []string, logger *zap.Logger) *Solver {
	if command == "" {
		command = DefaultCommand
		if args == nil {
			args = DefaultArgs
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{Command: command, Args: args, Logger: logger}
}

// Available reports whether the solver binary can be found.
func (s *Solver) Available() bool {
	_, err := exec.LookPath(s.Command)
	return err == nil
}

// Check runs script and parses the reply. A context deadline yields
// ErrOracleTimeout; every other failure is an *OracleError.
func (s *Solver) Check(ctx context.Context, script *Script) (*Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	text := script.Render()
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("solver finished",
		zap.String("command", s.Command),
		zap.Int("script_bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("stdout_bytes", stdout.Len()),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, ErrOracleTimeout
		}
		return nil, &OracleError{Command: s.Command, Message: "cancelled", Err: ctxErr}
	}

	res, parseErr := ParseOutput(stdout.String(), script.Observe)
	if parseErr == nil {
		// z3 exits non-zero when get-value follows unsat; the answer
		// already parsed is what counts.
		return res, nil
	}
	if runErr != nil {
		return nil, &OracleError{
			Command: s.Command,
			Message: "process failed",
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     runErr,
		}
	}
	return nil, &OracleError{
		Command: s.Command,
		Message: "unreadable reply",
		Stderr:  strings.TrimSpace(stderr.String()),
		Err:     parseErr,
	}
}
