package queryir

import (
	"fmt"
)

// ValidationResult contains the fragment analysis of a single query.
type ValidationResult struct {
	// InFragment is true when the query only uses constructs the encoder
	// can reason about.
	InFragment bool

	// Problems lists every construct outside the fragment, in the order
	// they were found.
	Problems []string
}

// Validate checks that a query stays inside the supported fragment.
//
// Fragment rules:
//  1. No query-level features recorded in Query.Unsupported
//  2. No UnsupportedExpr / UnsupportedPredicate nodes anywhere
//  3. Every join other than CROSS carries an ON predicate
//  4. A FROM table is present
//
// Validate is a pure function with no side effects. It does not consult
// the schema; see package sanity for the cross-query checks.
func Validate(q *Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(q)

	return ValidationResult{
		InFragment: len(v.problems) == 0,
		Problems:   v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) addUnsupported(kind, text string) {
	if text == "" {
		v.addProblem("%s is not supported", kind)
		return
	}
	v.addProblem("%s is not supported: %s", kind, text)
}

func (v *validator) validateQuery(q *Query) {
	if q == nil {
		v.addProblem("nil query")
		return
	}
	for _, f := range q.Unsupported {
		v.addProblem("%s is not supported", f)
	}
	if q.From.Name == "" {
		v.addProblem("query has no FROM table")
	}
	for _, t := range q.Targets {
		v.validateTarget(t)
	}
	for _, j := range q.Joins {
		v.validateJoin(j)
	}
	if q.Where != nil {
		v.validatePredicate(q.Where)
	}
}

func (v *validator) validateTarget(t Target) {
	switch target := t.(type) {
	case *ColumnTarget:
		v.validateExpr(target.Column)
	case *ExprTarget:
		v.validateExpr(target.Expr)
	case *StarTarget:
	default:
		v.addProblem("unknown select target %T", t)
	}
}

func (v *validator) validateJoin(j Join) {
	switch j.Side {
	case JoinCross:
		if j.On != nil {
			v.addProblem("cross join with %s carries an ON clause", j.Table)
		}
	case JoinInner, JoinLeft, JoinRight, JoinFull:
		if j.On == nil {
			v.addProblem("%s JOIN %s has no ON clause", j.Side, j.Table)
			return
		}
		v.validatePredicate(j.On)
	default:
		v.addProblem("unknown join side for %s", j.Table)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case *Compare:
		v.validateExpr(pred.Left)
		v.validateExpr(pred.Right)
	case *And:
		for _, t := range pred.Terms {
			v.validatePredicate(t)
		}
	case *Or:
		for _, t := range pred.Terms {
			v.validatePredicate(t)
		}
	case *Not:
		v.validatePredicate(pred.Term)
	case *IsNull:
		v.validateExpr(pred.Expr)
	case *UnsupportedPredicate:
		v.addUnsupported(pred.Kind, pred.Text)
	default:
		v.addProblem("unknown predicate %T", p)
	}
}

func (v *validator) validateExpr(e Expr) {
	switch expr := e.(type) {
	case *ColumnRef, *IntLit, *RealLit, *TextLit, *NullLit:
	case *Arith:
		v.validateExpr(expr.Left)
		v.validateExpr(expr.Right)
	case *UnsupportedExpr:
		v.addUnsupported(expr.Kind, expr.Text)
	default:
		v.addProblem("unknown expression %T", e)
	}
}
