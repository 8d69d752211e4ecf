package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlequiv/internal/equiv"
	"github.com/roach88/sqlequiv/internal/testutil"
)

const testSchema = `CREATE TABLE users (id INT PRIMARY KEY, age INT, name TEXT);
CREATE TABLE orders (id INT PRIMARY KEY, user_id INT, total REAL);
`

type fixture struct {
	dir    string
	schema string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	f := &fixture{dir: dir}
	f.schema = f.write(t, "schema.sql", testSchema)
	return f
}

func (f *fixture) write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (f *fixture) queries(t *testing.T, q1, q2 string) (string, string) {
	t.Helper()
	return f.write(t, "q1.sql", q1), f.write(t, "q2.sql", q2)
}

func execute(t *testing.T, oracle equiv.Oracle, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{oracle: oracle, ids: testutil.NewSequentialIDs("")})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sqlequiv", cmd.Use)

	for _, name := range []string{"check", "smt", "suite", "history"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	flags := NewRootCommand().PersistentFlags()

	verbose := flags.Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	for name, def := range map[string]string{
		"format":   "text",
		"timeout":  "10s",
		"solver":   "z3",
		"history":  "",
		"config":   "",
		"no-color": "false",
	} {
		f := flags.Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
}

func TestCheck_Equivalent(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users WHERE users.age > 20", "SELECT users.id FROM users WHERE users.age >= 21")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "check", f.schema, q1, q2)
	require.NoError(t, err)
	assert.Equal(t, "Queries are equivalent.\n", out)
}

func TestCheck_NotEquivalent(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users WHERE users.age > 20", "SELECT users.id FROM users WHERE users.age > 21")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Sat(true, false)), "--no-color", "check", f.schema, q1, q2)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))

	assert.Contains(t, out, "Queries are not equivalent.\n")
	assert.Contains(t, out, "Table users: (id=7, age=7, name='x')")
	assert.Contains(t, out, "-> Query 1 returns the tuple while Query 2 does not.")
	assert.Contains(t, out, "Difference:\n  SELECT users.id FROM users WHERE users.age > 2[-")
}

func TestCheck_JSON(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users WHERE users.age > 21", "SELECT users.id FROM users WHERE users.age > 20")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Sat(false, true)), "--format", "json", "check", f.schema, q1, q2)
	require.Error(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			RunID          string `json:"run_id"`
			Verdict        string `json:"verdict"`
			Counterexample struct {
				Direction string `json:"direction"`
				Rows      []struct {
					Table string `json:"table"`
				} `json:"rows"`
			} `json:"counterexample"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-0001", resp.Data.RunID)
	assert.Equal(t, "not_equivalent", resp.Data.Verdict)
	assert.Equal(t, "query2_only", resp.Data.Counterexample.Direction)
	require.Len(t, resp.Data.Counterexample.Rows, 1)
	assert.Equal(t, "users", resp.Data.Counterexample.Rows[0].Table)
}

func TestCheck_Unknown(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users", "SELECT users.id FROM users")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unknown("timeout")), "check", f.schema, q1, q2)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Equivalence unknown: timeout\n", out)
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name     string
		q1, q2   string
		wantCode string
	}{
		{"parse", "SELECT FROM WHERE", "SELECT users.id FROM users", ErrCodeParse},
		{"sanity", "SELECT users.id FROM users", "SELECT orders.id FROM orders", ErrCodeSanity},
		{"encoding", "SELECT users.id FROM users WHERE users.name > 1", "SELECT users.id FROM users", ErrCodeEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			q1, q2 := f.queries(t, tt.q1, tt.q2)
			oracle := testutil.NewFakeOracle(testutil.Unsat())

			out, err := execute(t, oracle, "check", f.schema, q1, q2)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
			assert.Zero(t, oracle.Calls())
		})
	}
}

func TestCheck_SanityDetailsInJSON(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users", "SELECT orders.id FROM orders")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "--format", "json", "check", f.schema, q1, q2)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSanity, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestCheck_MissingFile(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "check", f.schema, "nope.sql", "nope.sql")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestCheck_WrongArgCount(t *testing.T) {
	_, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "check", "a.sql")
	require.Error(t, err)
	assert.False(t, IsReported(err))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users", "SELECT users.id FROM users")

	_, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "--format", "xml", "check", f.schema, q1, q2)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSMT(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users WHERE users.age > 20", "SELECT users.id FROM users")
	oracle := testutil.NewFakeOracle(testutil.Unsat())

	out, err := execute(t, oracle, "--timeout", "3s", "smt", f.schema, q1, q2)
	require.NoError(t, err)
	assert.Contains(t, out, "; run run-0001\n")
	assert.Contains(t, out, "(set-option :timeout 3000)")
	assert.Contains(t, out, "(check-sat)")
	assert.Zero(t, oracle.Calls(), "smt never calls the solver")
}

func TestSMT_JSON(t *testing.T) {
	f := newFixture(t)
	q1, q2 := f.queries(t, "SELECT users.id FROM users", "SELECT users.id FROM users")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "--format", "json", "smt", f.schema, q1, q2)
	require.NoError(t, err)

	var resp struct {
		Data SMTResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-0001", resp.Data.RunID)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Contains(t, resp.Data.Script, "(check-sat)")
}

func TestSuite(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "suite.yaml", `name: cli
schema_file: schema.sql
cases:
  - name: same
    query1: SELECT users.id FROM users
    query2: SELECT users.id FROM users
    expect: equivalent
  - name: tables
    query1: SELECT users.id FROM users
    query2: SELECT orders.id FROM orders
    expect: error
`)

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "suite", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Suite: cli")
	assert.Contains(t, out, "2 passed, 0 failed")
}

func TestSuite_Failure(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "suite.yaml", `name: cli
schema_file: schema.sql
cases:
  - name: same
    query1: SELECT users.id FROM users
    query2: SELECT users.id FROM users
    expect: not_equivalent
`)

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "suite", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL")
}

func TestSuite_BadFile(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "suite.yaml", "name: x\n")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "suite", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeSuite+"]")
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	db := filepath.Join(f.dir, "history.db")
	q1, q2 := f.queries(t, "SELECT users.id FROM users", "SELECT users.id FROM users")
	oracle := testutil.NewFakeOracle(testutil.Unsat())

	_, err := execute(t, oracle, "--history", db, "check", f.schema, q1, q2)
	require.NoError(t, err)

	out, err := execute(t, oracle, "--history", db, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "run-0001")
	assert.Contains(t, out, "equivalent")

	out, err = execute(t, oracle, "--history", db, "--format", "json", "history", "--fingerprint", "nope")
	require.NoError(t, err)
	var resp struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Data)
}

func TestHistory_Disabled(t *testing.T) {
	newFixture(t)

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "history is disabled")
}

func TestHistory_Empty(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "--history", filepath.Join(f.dir, "h.db"), "history")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestConfigFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "sqlequiv.yaml", "output:\n  format: json\n")
	q1, q2 := f.queries(t, "SELECT users.id FROM users", "SELECT users.id FROM users")

	out, err := execute(t, testutil.NewFakeOracle(testutil.Unsat()), "check", f.schema, q1, q2)
	require.NoError(t, err)
	assert.Contains(t, out, `"verdict":"equivalent"`)
}

func TestSuite_Only(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "suite.yaml", `name: cli
schema_file: schema.sql
cases:
  - name: same
    query1: SELECT users.id FROM users
    query2: SELECT users.id FROM users
    expect: equivalent
  - name: wrong
    query1: SELECT users.id FROM users
    query2: SELECT users.id FROM users
    expect: not_equivalent
`)
	oracle := testutil.NewFakeOracle(testutil.Unsat())

	out, err := execute(t, oracle, "suite", "--only", `name == "same"`, path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed")
	assert.Equal(t, 1, oracle.Calls())

	_, err = execute(t, oracle, "suite", "--only", "name +", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
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
