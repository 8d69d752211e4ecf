package encoder

import (
	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/queryir"
	"github.com/roach88/sqlequiv/internal/schema"
)

// Problem is the satisfiability question of one check: can r1 and r2
// differ when r1 ⟺ Membership(q1) and r2 ⟺ Membership(q2) over the same
// input rows?
type Problem struct {
	Run *Run

	Result1 *logic.Var
	Result2 *logic.Var

	Membership [2]logic.Term
	Joins      [2][]JoinStep

	// Shared holds the shared-input equalities, Constraints the NOT NULL
	// facts from the schema.
	Shared      []logic.Term
	Constraints []logic.Term

	// Assertions is everything to assert, in order.
	Assertions []logic.Term

	// Columns lists one variable per (table, column), preferring query 1.
	Columns []*Column
}

// Encode builds the problem for q1 and q2 under s. tag prefixes every
// symbol.
func Encode(tag string, s *schema.Schema, q1, q2 *queryir.Query) (*Problem, error) {
	run, err := NewRun(tag, s, q1, q2)
	if err != nil {
		return nil, err
	}

	p := &Problem{
		Run:     run,
		Result1: &logic.Var{Name: symbolName(tag, "r1"), Of: logic.SortBool},
		Result2: &logic.Var{Name: symbolName(tag, "r2"), Of: logic.SortBool},
	}
	for i, q := range run.Queries {
		if err := run.checkTargets(i+1, q); err != nil {
			return nil, err
		}
	}
	for i := range p.Membership {
		m, steps, err := run.Membership(i + 1)
		if err != nil {
			return nil, err
		}
		p.Membership[i] = m
		p.Joins[i] = steps
	}
	p.Shared = run.SharedInputConstraints()
	p.Constraints = run.SchemaConstraints()

	p.Assertions = append(p.Assertions, p.Shared...)
	p.Assertions = append(p.Assertions, p.Constraints...)
	p.Assertions = append(p.Assertions,
		&logic.Iff{A: p.Result1, B: p.Membership[0]},
		&logic.Iff{A: p.Result2, B: p.Membership[1]},
		&logic.Not{X: &logic.Iff{A: p.Result1, B: p.Result2}},
	)

	e1, e2 := run.Envs[0], run.Envs[1]
	for _, table := range e1.Tables() {
		p.Columns = append(p.Columns, e1.Columns(table)...)
	}
	for _, table := range e2.Tables() {
		if !e1.HasTable(table) {
			p.Columns = append(p.Columns, e2.Columns(table)...)
		}
	}
	return p, nil
}

// checkTargets encodes every projected expression so type errors in the
// SELECT list surface even though projections do not affect membership.
func (r *Run) checkTargets(q int, query *queryir.Query) error {
	for _, t := range query.Targets {
		var e queryir.Expr
		switch target := t.(type) {
		case *queryir.ColumnTarget:
			e = target.Column
		case *queryir.ExprTarget:
			e = target.Expr
		default:
			continue
		}
		if _, err := r.EncodeExpr(q, e); err != nil {
			return err
		}
	}
	return nil
}

// IsNull returns the NULL predicate application for c.
func (p *Problem) IsNull(c *Column) logic.Term {
	return p.Run.IsNull(c.Var)
}

// Observables lists the terms whose values explain a model: r1, r2, then
// each column's value and NULL flag.
func (p *Problem) Observables() []logic.Term {
	out := []logic.Term{p.Result1, p.Result2}
	for _, c := range p.Columns {
		out = append(out, c.Var, p.IsNull(c))
	}
	return out
}
