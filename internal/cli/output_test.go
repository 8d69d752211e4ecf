package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlequiv/internal/config"
	"github.com/roach88/sqlequiv/internal/encoder"
	"github.com/roach88/sqlequiv/internal/queryparse"
	"github.com/roach88/sqlequiv/internal/report"
	"github.com/roach88/sqlequiv/internal/sanity"
	"github.com/roach88/sqlequiv/internal/schema"
	"github.com/roach88/sqlequiv/internal/smtlib"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"verdict": "equivalent"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeSanity, "check failed", map[string]int{"issues": 2}))
	assert.Equal(t, "Error [E103]: check failed\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeGeneric, "check failed", "context"))
	assert.Contains(t, buf.String(), "Details: context")
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}
	cause := &sanity.SanityError{Issues: []string{"queries return different columns"}}

	err := formatter.Fail(ExitCommandError, "check failed", fmt.Errorf("wrapped: %w", cause))
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSanity, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "different columns")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			formatter.VerboseLog("run %s", "run-0001")

			assert.Empty(t, out.String(), "verbose output never goes to stdout")
			if tt.wantLog {
				assert.Equal(t, "run run-0001\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&schema.SchemaError{Message: "bad"}, ErrCodeSchema},
		{fmt.Errorf("parse query 1: %w", &queryparse.ParseError{Message: "bad"}), ErrCodeParse},
		{&sanity.SanityError{}, ErrCodeSanity},
		{&encoder.EncodingError{Code: encoder.ErrCodeTypeMismatch}, ErrCodeEncoding},
		{&report.InternalConsistencyError{}, ErrCodeConsistency},
		{&smtlib.OracleError{Command: "z3"}, ErrCodeOracle},
		{&os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}, ErrCodeNotFound},
		{errors.New("other"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorCode(tt.err), "%T", tt.err)
	}
}

func TestErrorDetails_Encoding(t *testing.T) {
	details := errorDetails(&encoder.EncodingError{
		Code:   encoder.ErrCodeUnknownColumn,
		Query:  2,
		Table:  "users",
		Column: "agee",
	})
	assert.Equal(t, map[string]interface{}{
		"kind":   "UNKNOWN_COLUMN",
		"query":  2,
		"table":  "users",
		"column": "agee",
	}, details)
	assert.Nil(t, errorDetails(errors.New("plain")))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "not equivalent")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("boom")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "inner", errors.New("cause")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "outer: inner: cause", wrapped.Error())
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor(config.ColorAlways, &buf))
	assert.False(t, useColor(config.ColorNever, &buf))
	assert.False(t, useColor(config.ColorAuto, &buf), "non-terminal writers get no color")
}
