package encoder

import (
	"fmt"

	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/queryir"
	"github.com/roach88/sqlequiv/internal/schema"
)

// truth is a predicate under three-valued logic: T holds when it is TRUE,
// F when it is FALSE. Neither holds when it is UNKNOWN.
type truth struct {
	T, F logic.Term
}

var unknown = truth{T: logic.False, F: logic.False}

// EncodeCondition lowers p as it appears in query q (1 or 2) to the
// formula under which p is TRUE. Every comparison requires its operands
// to be non-NULL.
func (r *Run) EncodeCondition(q int, p queryir.Predicate) (logic.Term, error) {
	tv, err := r.encodePredicate(q, p)
	if err != nil {
		return nil, err
	}
	return tv.T, nil
}

func (r *Run) encodePredicate(q int, p queryir.Predicate) (truth, error) {
	switch x := p.(type) {
	case *queryir.Compare:
		l, rt, cmp, err := r.encodeCompare(q, x)
		if err != nil {
			return truth{}, err
		}
		if cmp == nil {
			return unknown, nil
		}
		known := logic.NewAnd(logic.NewNot(l.Null), logic.NewNot(rt.Null))
		return truth{
			T: logic.NewAnd(cmp, known),
			F: logic.NewAnd(logic.NewNot(cmp), known),
		}, nil

	case *queryir.And:
		ts, fs, err := r.encodeTerms(q, x.Terms)
		if err != nil {
			return truth{}, err
		}
		return truth{T: logic.NewAnd(ts...), F: logic.NewOr(fs...)}, nil

	case *queryir.Or:
		ts, fs, err := r.encodeTerms(q, x.Terms)
		if err != nil {
			return truth{}, err
		}
		return truth{T: logic.NewOr(ts...), F: logic.NewAnd(fs...)}, nil

	case *queryir.Not:
		tv, err := r.encodePredicate(q, x.Term)
		if err != nil {
			return truth{}, err
		}
		return truth{T: tv.F, F: tv.T}, nil

	case *queryir.IsNull:
		v, err := r.EncodeExpr(q, x.Expr)
		if err != nil {
			return truth{}, err
		}
		tv := truth{T: v.Null, F: logic.NewNot(v.Null)}
		if x.Negated {
			tv.T, tv.F = tv.F, tv.T
		}
		return tv, nil

	case *queryir.UnsupportedPredicate:
		return truth{}, &EncodingError{
			Code:    ErrCodeUnsupportedPredicate,
			Message: fmt.Sprintf("%s cannot be encoded", x.Kind),
			Query:   q,
			Expr:    x.String(),
		}
	}
	return truth{}, &EncodingError{
		Code:    ErrCodeUnsupportedPredicate,
		Message: fmt.Sprintf("unknown predicate %T", p),
		Query:   q,
	}
}

func (r *Run) encodeTerms(q int, terms []queryir.Predicate) ([]logic.Term, []logic.Term, error) {
	ts := make([]logic.Term, 0, len(terms))
	fs := make([]logic.Term, 0, len(terms))
	for _, t := range terms {
		tv, err := r.encodePredicate(q, t)
		if err != nil {
			return nil, nil, err
		}
		ts = append(ts, tv.T)
		fs = append(fs, tv.F)
	}
	return ts, fs, nil
}

// encodeCompare encodes both operands and the bare comparison, without
// NULL guards. cmp is nil when an operand is the NULL literal, which
// makes the comparison UNKNOWN.
func (r *Run) encodeCompare(q int, c *queryir.Compare) (Value, Value, logic.Term, error) {
	l, err := r.EncodeExpr(q, c.Left)
	if err != nil {
		return Value{}, Value{}, nil, err
	}
	rt, err := r.EncodeExpr(q, c.Right)
	if err != nil {
		return Value{}, Value{}, nil, err
	}
	if l.AlwaysNull() || rt.AlwaysNull() {
		return l, rt, nil, nil
	}
	if (l.Type == schema.Text) != (rt.Type == schema.Text) {
		return Value{}, Value{}, nil, &EncodingError{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("cannot compare %s with %s", l.Type, rt.Type),
			Query:   q,
			Expr:    c.String(),
		}
	}

	var cmp logic.Term
	switch c.Op {
	case queryir.OpNe:
		cmp, err = logic.NewCmp(logic.Eq, l.Term, rt.Term)
		if err == nil {
			cmp = logic.NewNot(cmp)
		}
	case queryir.OpLt:
		cmp, err = logic.NewCmp(logic.Lt, l.Term, rt.Term)
	case queryir.OpGt:
		cmp, err = logic.NewCmp(logic.Gt, l.Term, rt.Term)
	case queryir.OpLe:
		cmp, err = logic.NewCmp(logic.Le, l.Term, rt.Term)
	case queryir.OpGe:
		cmp, err = logic.NewCmp(logic.Ge, l.Term, rt.Term)
	case queryir.OpEq:
		cmp, err = logic.NewCmp(logic.Eq, l.Term, rt.Term)
	default:
		return Value{}, Value{}, nil, &EncodingError{
			Code:    ErrCodeUnsupportedPredicate,
			Message: fmt.Sprintf("unknown comparison operator %s", c.Op),
			Query:   q,
			Expr:    c.String(),
		}
	}
	if err != nil {
		return Value{}, Value{}, nil, &EncodingError{Code: ErrCodeTypeMismatch, Message: err.Error(), Query: q, Expr: c.String()}
	}
	return l, rt, cmp, nil
}

// encodeOn lowers a join's ON clause. A top-level comparison is returned
// bare with its operand NULL guards separate, so an inner join states the
// guards once and an outer join's axioms see the raw match condition.
// Any other shape is encoded like WHERE and needs no extra guards.
func (r *Run) encodeOn(q int, p queryir.Predicate) (logic.Term, []logic.Term, error) {
	if c, ok := p.(*queryir.Compare); ok {
		l, rt, cmp, err := r.encodeCompare(q, c)
		if err != nil {
			return nil, nil, err
		}
		if cmp == nil {
			return logic.False, nil, nil
		}
		var guards []logic.Term
		for _, g := range []logic.Term{logic.NewNot(l.Null), logic.NewNot(rt.Null)} {
			if g != logic.True {
				guards = append(guards, g)
			}
		}
		return cmp, guards, nil
	}
	on, err := r.EncodeCondition(q, p)
	return on, nil, err
}

// predicateTables returns the real tables referenced anywhere in p.
func (r *Run) predicateTables(q int, p queryir.Predicate) (map[string]bool, error) {
	out := map[string]bool{}
	if p == nil {
		return out, nil
	}
	for _, ref := range queryir.PredicateColumns(p) {
		table, err := r.tableOf(q, ref)
		if err != nil {
			return nil, err
		}
		out[table] = true
	}
	return out, nil
}
