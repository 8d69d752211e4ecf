package testutil

import (
	"testing"

	"github.com/roach88/sqlequiv/internal/smtlib"
)

// RequireSolver returns a z3-backed solver, skipping the test when z3 is
// not installed.
func RequireSolver(t testing.TB) *smtlib.Solver {
	t.Helper()
	s := smtlib.NewSolver(smtlib.DefaultCommand, smtlib.DefaultArgs, nil)
	if !s.Available() {
		t.Skipf("%s not found on PATH", smtlib.DefaultCommand)
	}
	return s
}
