package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/sqlequiv/internal/config"
	"github.com/roach88/sqlequiv/internal/encoder"
	"github.com/roach88/sqlequiv/internal/queryparse"
	"github.com/roach88/sqlequiv/internal/report"
	"github.com/roach88/sqlequiv/internal/sanity"
	"github.com/roach88/sqlequiv/internal/schema"
	"github.com/roach88/sqlequiv/internal/smtlib"
	"github.com/roach88/sqlequiv/internal/suite"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Equivalent, suite passed
	ExitFailure      = 1 // Not equivalent, unknown, suite cases failed
	ExitCommandError = 2 // Invalid input, unsupported SQL, solver failure
)

// Error codes reported in JSON and text error output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Input file not found or unreadable
	ErrCodeSchema      = "E101" // Schema definition rejected
	ErrCodeParse       = "E102" // Query is not a single SELECT
	ErrCodeSanity      = "E103" // Query pair cannot be compared
	ErrCodeEncoding    = "E104" // Query cannot be encoded
	ErrCodeOracle      = "E201" // Solver failed
	ErrCodeConsistency = "E202" // Solver model contradicts the encoding
	ErrCodeHistory     = "E301" // History database error
	ErrCodeSuite       = "E401" // Suite file rejected
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command already printed the error.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// IsReported reports whether err was already printed by the command.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// errorCode classifies a pipeline error for output.
func errorCode(err error) string {
	var (
		schemaErr *schema.SchemaError
		parseErr  *queryparse.ParseError
		sanityErr *sanity.SanityError
		encErr    *encoder.EncodingError
		iceErr    *report.InternalConsistencyError
		suiteErr  *suite.LoadError
		pathErr   *os.PathError
	)
	switch {
	case errors.As(err, &schemaErr):
		return ErrCodeSchema
	case errors.As(err, &parseErr):
		return ErrCodeParse
	case errors.As(err, &sanityErr):
		return ErrCodeSanity
	case errors.As(err, &encErr):
		return ErrCodeEncoding
	case errors.As(err, &iceErr):
		return ErrCodeConsistency
	case smtlib.IsOracleError(err):
		return ErrCodeOracle
	case errors.As(err, &suiteErr):
		return ErrCodeSuite
	case errors.As(err, &pathErr):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// errorDetails exposes structured context of an error in JSON output.
func errorDetails(err error) interface{} {
	var (
		sanityErr *sanity.SanityError
		encErr    *encoder.EncodingError
	)
	switch {
	case errors.As(err, &sanityErr):
		return map[string]interface{}{"issues": sanityErr.Issues}
	case errors.As(err, &encErr):
		d := map[string]interface{}{"kind": string(encErr.Code)}
		if encErr.Query != 0 {
			d["query"] = encErr.Query
		}
		if encErr.Table != "" {
			d["table"] = encErr.Table
		}
		if encErr.Column != "" {
			d["column"] = encErr.Column
		}
		return d
	}
	return nil
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	Color     bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail prints err and returns it as a reported ExitError.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	if outErr := f.Error(errorCode(err), msg, errorDetails(err)); outErr != nil {
		return outErr
	}
	return &ExitError{Code: exitCode, Message: message, Err: err, Reported: true}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// useColor resolves the color mode against the output writer.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if f, ok := w.(*os.File); ok {
		return report.AutoColor(f)
	}
	return false
}
