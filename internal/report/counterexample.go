package report

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlequiv/internal/encoder"
	"github.com/roach88/sqlequiv/internal/schema"
	"github.com/roach88/sqlequiv/internal/smtlib"
)

// Direction says which query admits the counterexample row.
type Direction int

const (
	DirectionNone Direction = iota
	OnlyQuery1
	OnlyQuery2
)

func (d Direction) String() string {
	switch d {
	case OnlyQuery1:
		return "query1_only"
	case OnlyQuery2:
		return "query2_only"
	default:
		return ""
	}
}

// MarshalText encodes d by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Sentence is the human interpretation of d.
func (d Direction) Sentence() string {
	switch d {
	case OnlyQuery1:
		return "Query 1 returns the tuple while Query 2 does not."
	case OnlyQuery2:
		return "Query 2 returns the tuple while Query 1 does not."
	default:
		return "No difference in outputs."
	}
}

// Cell is one column of a witness row.
type Cell struct {
	Column string `json:"column"`
	Type   string `json:"type"`
	Value  string `json:"value,omitempty"`
	Null   bool   `json:"null"`
}

// Row is the witness row of one table.
type Row struct {
	Table string `json:"table"`
	Cells []Cell `json:"cells"`
}

// Counterexample is a decoded model.
type Counterexample struct {
	Rows      []Row     `json:"rows"`
	Direction Direction `json:"direction"`
	Query1    bool      `json:"query1_returns"`
	Query2    bool      `json:"query2_returns"`
}

// InternalConsistencyError reports a model where r1 and r2 agree, which
// the encoding rules out; it means the encoder is wrong.
type InternalConsistencyError struct {
	Query1, Query2 bool
	Message        string
}

func (e *InternalConsistencyError) Error() string {
	if e.Message != "" {
		return "internal consistency failure: " + e.Message
	}
	return fmt.Sprintf("internal consistency failure: model has r1=%t and r2=%t", e.Query1, e.Query2)
}

// Build decodes model against p. Each (table, column) appears once, with
// the value of the first query that reads the table; the shared-input
// constraints make both queries' values equal.
func Build(p *encoder.Problem, model smtlib.Model) (*Counterexample, error) {
	r1, ok1 := model.Lookup(p.Result1)
	r2, ok2 := model.Lookup(p.Result2)
	if !ok1 || !ok2 || r1.Kind != smtlib.KindBool || r2.Kind != smtlib.KindBool {
		return nil, &InternalConsistencyError{Message: "model has no result values"}
	}

	cx := &Counterexample{Query1: r1.Bool, Query2: r2.Bool}
	switch {
	case r1.Bool && !r2.Bool:
		cx.Direction = OnlyQuery1
	case r2.Bool && !r1.Bool:
		cx.Direction = OnlyQuery2
	default:
		return nil, &InternalConsistencyError{Query1: r1.Bool, Query2: r2.Bool}
	}

	index := map[string]int{}
	for _, c := range p.Columns {
		i, ok := index[c.Table]
		if !ok {
			i = len(cx.Rows)
			index[c.Table] = i
			cx.Rows = append(cx.Rows, Row{Table: c.Table})
		}
		cell := Cell{Column: c.Name, Type: c.Type.String()}
		if nv, ok := model.Lookup(p.IsNull(c)); ok && nv.Kind == smtlib.KindBool && nv.Bool {
			cell.Null = true
		} else if v, ok := model.Lookup(c.Var); ok {
			cell.Value = formatValue(v, c.Type)
		} else {
			cell.Value = "?"
		}
		cx.Rows[i].Cells = append(cx.Rows[i].Cells, cell)
	}
	return cx, nil
}

func formatValue(v smtlib.Value, t schema.ColumnType) string {
	if t == schema.Text && v.Kind == smtlib.KindString {
		return "'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
	}
	return v.String()
}

// String renders a cell as column=value.
func (c Cell) String() string {
	if c.Null {
		return c.Column + "=NULL"
	}
	return c.Column + "=" + c.Value
}
