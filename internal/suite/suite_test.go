package suite

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlequiv/internal/equiv"
	"github.com/roach88/sqlequiv/internal/smtlib"
	"github.com/roach88/sqlequiv/internal/testutil"
)

// textualOracle calls a pair equivalent exactly when the normalised
// queries are identical.
func textualOracle() *testutil.FakeOracle {
	unsat, sat := testutil.Unsat(), testutil.Sat(true, false)
	return testutil.NewFakeOracle(func(script *smtlib.Script) (*smtlib.Result, error) {
		q1 := strings.TrimPrefix(script.Comments[1], "query 1: ")
		q2 := strings.TrimPrefix(script.Comments[2], "query 2: ")
		if q1 == q2 {
			return unsat(script)
		}
		return sat(script)
	})
}

func newChecker() *equiv.Checker {
	return &equiv.Checker{Oracle: textualOracle(), IDs: testutil.NewSequentialIDs("")}
}

func TestLoad_YAML(t *testing.T) {
	s, err := Load("testdata/basic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Cases, 4)
	for _, c := range s.Cases {
		assert.Contains(t, c.Schema, "CREATE TABLE orders", "case %s gets the shared schema file", c.Name)
		assert.Empty(t, c.SchemaFile)
	}
	assert.Equal(t, "query1_only", s.Cases[1].Direction)
	assert.Equal(t, "same set of tables", s.Cases[2].Error)
}

func TestLoad_CUE(t *testing.T) {
	s, err := Load("testdata/basic.cue")
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Cases, 2)
	assert.Equal(t, "CREATE TABLE users (id INT PRIMARY KEY, age INT, name TEXT);", s.Cases[0].Schema)
	assert.Equal(t, ExpectNotEquivalent, s.Cases[1].Expect)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing file", "testdata/nope.yaml", "failed to read suite file"},
		{"unknown yaml field", "testdata/unknown_field.yaml", "expected"},
		{"cue constraint", "testdata/bad_expect.cue", "expect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			var le *LoadError
			assert.True(t, errors.As(err, &le))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Validation(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"no name", "cases: [{name: a, query1: x, query2: y, expect: equivalent, schema: s}]", "name is required"},
		{"no cases", "name: n\ncases: []", "must be non-empty"},
		{"bad expect", "name: n\nschema: s\ncases: [{name: a, query1: x, query2: y, expect: maybe}]", "expect must be"},
		{"bad direction", "name: n\nschema: s\ncases: [{name: a, query1: x, query2: y, expect: not_equivalent, direction: left}]", "direction must be"},
		{"duplicate names", "name: n\nschema: s\ncases: [{name: a, query1: x, query2: y, expect: equivalent}, {name: a, query1: x, query2: y, expect: equivalent}]", "used more than once"},
		{"no schema", "name: n\ncases: [{name: a, query1: x, query2: y, expect: equivalent}]", "no schema given"},
		{"both schemas", "name: n\ncases: [{name: a, schema: s, schema_file: f.sql, query1: x, query2: y, expect: equivalent}]", "mutually exclusive"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(strings.Repeat("x", i+1)+".yaml", tt.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun(t *testing.T) {
	s, err := Load("testdata/basic.yaml")
	require.NoError(t, err)

	sum, err := Run(context.Background(), newChecker(), s, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.False(t, sum.OK())

	require.Len(t, sum.Results, 4)
	assert.Equal(t, "run-0001", sum.Results[0].RunID)
	assert.Equal(t, "query1_only", sum.Results[1].Direction)
	assert.Equal(t, ExpectError, sum.Results[2].Got)
	assert.Contains(t, sum.Results[2].Error, "same set of tables")
	assert.Equal(t, "expected equivalent, got not_equivalent", sum.Results[3].Mismatch)
}

func TestRun_DirectionMismatch(t *testing.T) {
	s := &Suite{Name: "d", Cases: []Case{{
		Name:      "flip",
		Schema:    "CREATE TABLE t (id INT, v INT);",
		Query1:    "SELECT t.id FROM t WHERE t.v > 1",
		Query2:    "SELECT t.id FROM t WHERE t.v > 2",
		Expect:    ExpectNotEquivalent,
		Direction: "query2_only",
	}}}

	sum, err := Run(context.Background(), newChecker(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, "expected direction query2_only, got query1_only", sum.Results[0].Mismatch)
}

func TestRun_Cancelled(t *testing.T) {
	s, err := Load("testdata/basic.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, newChecker(), s, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteText_Golden(t *testing.T) {
	s, err := Load("testdata/basic.yaml")
	require.NoError(t, err)
	sum, err := Run(context.Background(), newChecker(), s, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sum, false))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "summary", buf.Bytes())
}

func TestFilter(t *testing.T) {
	s, err := Load("testdata/basic.yaml")
	require.NoError(t, err)

	all, err := Filter(s, "")
	require.NoError(t, err)
	assert.Len(t, all.Cases, 4)

	some, err := Filter(s, `expect == "equivalent" && name startsWith "same"`)
	require.NoError(t, err)
	require.Len(t, some.Cases, 1)
	assert.Equal(t, "same-query", some.Cases[0].Name)
	assert.Len(t, s.Cases, 4, "the input suite is not modified")

	none, err := Filter(s, `direction == "query2_only"`)
	require.NoError(t, err)
	assert.Empty(t, none.Cases)

	_, err = Filter(s, `expect + 1`)
	assert.Error(t, err)

	_, err = Filter(s, `nosuchfield == 1`)
	assert.Error(t, err)
}
