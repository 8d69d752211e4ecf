package report

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlequiv/internal/encoder"
	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/queryparse"
	"github.com/roach88/sqlequiv/internal/schema"
	"github.com/roach88/sqlequiv/internal/smtlib"
)

func problem(t *testing.T) *encoder.Problem {
	t.Helper()
	s, err := schema.Load("CREATE TABLE users (id INT, name TEXT, age INT, score REAL);")
	require.NoError(t, err)
	q1, err := queryparse.Parse("SELECT u.id FROM users u WHERE u.age > 20")
	require.NoError(t, err)
	q2, err := queryparse.Parse("SELECT users.id FROM users WHERE users.age > 21")
	require.NoError(t, err)
	p, err := encoder.Encode("tg", s, q1, q2)
	require.NoError(t, err)
	return p
}

func intValue(n int64) smtlib.Value {
	return smtlib.Value{Kind: smtlib.KindInt, Num: big.NewRat(n, 1)}
}

func boolValue(b bool) smtlib.Value {
	return smtlib.Value{Kind: smtlib.KindBool, Bool: b}
}

// sampleModel assigns r1, r2 and every column of query 1.
func sampleModel(p *encoder.Problem, r1, r2 bool) smtlib.Model {
	m := smtlib.Model{
		logic.Render(p.Result1): boolValue(r1),
		logic.Render(p.Result2): boolValue(r2),
	}
	values := map[string]smtlib.Value{
		"id":    intValue(7),
		"name":  {Kind: smtlib.KindString, Str: "O'Neil"},
		"age":   intValue(21),
		"score": {Kind: smtlib.KindReal, Num: big.NewRat(5, 2)},
	}
	for _, c := range p.Columns {
		m[logic.Render(c.Var)] = values[c.Name]
		m[logic.Render(p.IsNull(c))] = boolValue(c.Name == "score")
	}
	return m
}

func TestBuild(t *testing.T) {
	p := problem(t)

	cx, err := Build(p, sampleModel(p, true, false))
	require.NoError(t, err)

	assert.Equal(t, OnlyQuery1, cx.Direction)
	require.Len(t, cx.Rows, 1)
	assert.Equal(t, "users", cx.Rows[0].Table)
	assert.Equal(t, []Cell{
		{Column: "id", Type: "INTEGER", Value: "7"},
		{Column: "name", Type: "TEXT", Value: "'O''Neil'"},
		{Column: "age", Type: "INTEGER", Value: "21"},
		{Column: "score", Type: "REAL", Null: true},
	}, cx.Rows[0].Cells)

	cx, err = Build(p, sampleModel(p, false, true))
	require.NoError(t, err)
	assert.Equal(t, OnlyQuery2, cx.Direction)
}

func TestBuild_InternalConsistency(t *testing.T) {
	p := problem(t)

	_, err := Build(p, sampleModel(p, true, true))
	var ice *InternalConsistencyError
	require.ErrorAs(t, err, &ice)
	assert.True(t, ice.Query1)
	assert.True(t, ice.Query2)

	_, err = Build(p, smtlib.Model{})
	assert.ErrorAs(t, err, &ice)
}

func TestWriteText_Golden(t *testing.T) {
	p := problem(t)
	cx, err := Build(p, sampleModel(p, true, false))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, cx, Options{}))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "counterexample", buf.Bytes())
}

func TestCounterexample_JSON(t *testing.T) {
	p := problem(t)
	cx, err := Build(p, sampleModel(p, false, true))
	require.NoError(t, err)

	data, err := json.Marshal(cx)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "query2_only", decoded["direction"])
	assert.Equal(t, true, decoded["query2_returns"])
}

func TestWordDiff(t *testing.T) {
	got := WordDiff("SELECT id FROM t WHERE age > 20", "SELECT id FROM t WHERE age > 21", Options{})
	assert.Equal(t, "SELECT id FROM t WHERE age > 2[-0-]{+1+}", got)

	assert.Equal(t, "same", WordDiff("same", "same", Options{}))
}

func TestWriteText_ColorWrapsVerdict(t *testing.T) {
	p := problem(t)
	cx, err := Build(p, sampleModel(p, true, false))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, cx, Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}
