package smtlib

import (
	"errors"
	"fmt"
)

// ErrOracleTimeout is returned when the solver does not answer before the
// context deadline. Callers report it as an inconclusive result.
var ErrOracleTimeout = errors.New("solver timed out")

// OracleError reports a solver process that failed or replied with
// something other than a check-sat answer.
type OracleError struct {
	Command string
	Message string
	Stderr  string
	Err     error
}

func (e *OracleError) Error() string {
	msg := fmt.Sprintf("solver %s: %s", e.Command, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *OracleError) Unwrap() error { return e.Err }

// IsOracleError reports whether err is or wraps an *OracleError.
func IsOracleError(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe)
}
