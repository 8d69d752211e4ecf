package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlequiv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	testChdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "z3", cfg.Solver.Command)
	assert.Equal(t, []string{"-in", "-smt2"}, cfg.Solver.Args)
	assert.Equal(t, 10*time.Second, cfg.Solver.Timeout)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, ColorAuto, cfg.Output.Color)
	assert.Empty(t, cfg.History.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
solver:
  command: cvc5
  args: ["--lang", "smt2"]
  timeout: 30s
output:
  format: json
history:
  path: /tmp/history.db
log:
  level: debug
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "cvc5", cfg.Solver.Command)
	assert.Equal(t, []string{"--lang", "smt2"}, cfg.Solver.Args)
	assert.Equal(t, 30*time.Second, cfg.Solver.Timeout)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "/tmp/history.db", cfg.History.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DefaultFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlequiv.yaml"), []byte("output:\n  color: never\n"), 0o644))
	testChdir(t, dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ColorNever, cfg.Output.Color)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "solver:\n  timeout: 30s\n")
	t.Setenv("SQLEQUIV_SOLVER_TIMEOUT", "2s")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Solver.Timeout)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("SQLEQUIV_OUTPUT_FORMAT", "json")
	testChdir(t, t.TempDir())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", "text", "")
	fs.Duration("timeout", time.Second, "")
	require.NoError(t, fs.Parse([]string{"--format", "text"}))

	cfg, err := Load("", map[string]*pflag.Flag{
		KeyOutputFormat:  fs.Lookup("format"),
		KeySolverTimeout: fs.Lookup("timeout"),
	})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 10*time.Second, cfg.Solver.Timeout, "unset flag keeps the configured value")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeConfig(t, "output:\n  format: xml\n"), nil)
	assert.ErrorContains(t, err, "output.format")

	_, err = Load(writeConfig(t, "output:\n  color: sometimes\n"), nil)
	assert.ErrorContains(t, err, "output.color")

	_, err = Load(writeConfig(t, "solver:\n  timeout: 0s\n"), nil)
	assert.ErrorContains(t, err, "solver.timeout")
}

// testChdir changes the working directory for the duration of the test
// and restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
