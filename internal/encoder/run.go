package encoder

import (
	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/queryir"
	"github.com/roach88/sqlequiv/internal/schema"
)

// Run is the context of one equivalence check. It is created per check
// and passed explicitly; nothing in this package is process-global.
type Run struct {
	Tag     string
	Schema  *schema.Schema
	Queries [2]*queryir.Query
	Aliases [2]*AliasMap
	Envs    [2]*Environment

	isNull  map[logic.Sort]*logic.Func
	witness map[JoinKind]*logic.Func
}

// NewRun resolves aliases and allocates variables for q1 and q2.
func NewRun(tag string, s *schema.Schema, q1, q2 *queryir.Query) (*Run, error) {
	r := &Run{
		Tag:     tag,
		Schema:  s,
		Queries: [2]*queryir.Query{q1, q2},
		isNull:  map[logic.Sort]*logic.Func{},
		witness: map[JoinKind]*logic.Func{},
	}
	for i, q := range r.Queries {
		am, err := ResolveAliases(q, i+1)
		if err != nil {
			return nil, err
		}
		r.Aliases[i] = am
	}
	envs, err := BuildEnvironments(tag, s, r.Aliases)
	if err != nil {
		return nil, err
	}
	r.Envs = envs
	return r, nil
}

// nullPredicate returns the run's IsNull predicate for sort s.
func (r *Run) nullPredicate(s logic.Sort) *logic.Func {
	if f, ok := r.isNull[s]; ok {
		return f
	}
	var suffix string
	switch s {
	case logic.SortString:
		suffix = "IsNullText"
	case logic.SortReal:
		suffix = "IsNullReal"
	default:
		suffix = "IsNullInt"
	}
	f := &logic.Func{Name: symbolName(r.Tag, suffix), Params: []logic.Sort{s}, Result: logic.SortBool}
	r.isNull[s] = f
	return f
}

// IsNull applies the NULL predicate matching t's sort.
func (r *Run) IsNull(t logic.Term) logic.Term {
	return logic.MustApply(r.nullPredicate(t.Sort()), t)
}

// witnessPredicate returns the join witness relation of a family. Left
// and Right share the Left relation.
func (r *Run) witnessPredicate(kind JoinKind) *logic.Func {
	if kind == JoinRight {
		kind = JoinLeft
	}
	if f, ok := r.witness[kind]; ok {
		return f
	}
	name := "LeftWitness"
	if kind == JoinFull {
		name = "FullWitness"
	}
	f := &logic.Func{
		Name:   symbolName(r.Tag, name),
		Params: []logic.Sort{logic.SortInt, logic.SortInt},
		Result: logic.SortBool,
	}
	r.witness[kind] = f
	return f
}

// SharedInputConstraints equates, column by column, the variables both
// queries use for every table they both read.
func (r *Run) SharedInputConstraints() []logic.Term {
	var out []logic.Term
	e1, e2 := r.Envs[0], r.Envs[1]
	for _, table := range e1.Tables() {
		if !e2.HasTable(table) {
			continue
		}
		for _, c1 := range e1.Columns(table) {
			c2, ok := e2.Column(table, c1.Name)
			if !ok {
				continue
			}
			out = append(out, &logic.Cmp{Op: logic.Eq, A: c1.Var, B: c2.Var})
		}
	}
	return out
}

// SchemaConstraints asserts NOT NULL (and primary key) columns are never
// NULL.
func (r *Run) SchemaConstraints() []logic.Term {
	var out []logic.Term
	for _, env := range r.Envs {
		for _, table := range env.Tables() {
			for _, c := range env.Columns(table) {
				if c.NotNull {
					out = append(out, logic.NewNot(r.IsNull(c.Var)))
				}
			}
		}
	}
	return out
}

// env returns the environment of query q (1 or 2).
func (r *Run) env(q int) *Environment { return r.Envs[q-1] }

// aliases returns the alias map of query q (1 or 2).
func (r *Run) aliases(q int) *AliasMap { return r.Aliases[q-1] }
