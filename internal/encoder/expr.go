package encoder

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/queryir"
	"github.com/roach88/sqlequiv/internal/schema"
)

// Value is an encoded scalar expression.
type Value struct {
	// Term is the symbolic value; nil when the expression is always NULL.
	Term logic.Term

	// Type is the SQL type tag. Arithmetic takes the left operand's tag.
	Type schema.ColumnType

	// Null holds exactly when the expression evaluates to NULL: a column
	// leaf is NULL, or the expression contains the NULL literal.
	Null logic.Term
}

// AlwaysNull reports whether the expression is the NULL literal or
// arithmetic over it.
func (v Value) AlwaysNull() bool { return v.Term == nil }

// EncodeExpr lowers e as it appears in query q (1 or 2).
func (r *Run) EncodeExpr(q int, e queryir.Expr) (Value, error) {
	switch x := e.(type) {
	case *queryir.ColumnRef:
		c, err := r.resolveColumn(q, x)
		if err != nil {
			return Value{}, err
		}
		return Value{Term: c.Var, Type: c.Type, Null: r.IsNull(c.Var)}, nil

	case *queryir.IntLit:
		return Value{Term: logic.IntConst(x.Value), Type: schema.Integer, Null: logic.False}, nil

	case *queryir.RealLit:
		rc, ok := logic.NewReal(x.Text)
		if !ok {
			return Value{}, &EncodingError{
				Code:    ErrCodeUnresolvedExpression,
				Message: fmt.Sprintf("invalid decimal literal %s", x.Text),
				Query:   q,
				Expr:    x.String(),
			}
		}
		return Value{Term: rc, Type: schema.Real, Null: logic.False}, nil

	case *queryir.TextLit:
		return Value{Term: logic.StringConst(norm.NFC.String(x.Value)), Type: schema.Text, Null: logic.False}, nil

	case *queryir.NullLit:
		return Value{Type: schema.Unknown, Null: logic.True}, nil

	case *queryir.Arith:
		return r.encodeArith(q, x)

	case *queryir.UnsupportedExpr:
		return Value{}, &EncodingError{
			Code:    ErrCodeUnresolvedExpression,
			Message: fmt.Sprintf("%s cannot be encoded", x.Kind),
			Query:   q,
			Expr:    x.String(),
		}
	}
	return Value{}, &EncodingError{
		Code:    ErrCodeUnresolvedExpression,
		Message: fmt.Sprintf("unknown expression %T", e),
		Query:   q,
	}
}

func (r *Run) encodeArith(q int, a *queryir.Arith) (Value, error) {
	l, err := r.EncodeExpr(q, a.Left)
	if err != nil {
		return Value{}, err
	}
	rt, err := r.EncodeExpr(q, a.Right)
	if err != nil {
		return Value{}, err
	}
	if l.Type == schema.Text || rt.Type == schema.Text {
		return Value{}, &EncodingError{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("arithmetic on %s and %s", l.Type, rt.Type),
			Query:   q,
			Expr:    a.String(),
		}
	}

	typ := l.Type
	if typ == schema.Unknown {
		typ = rt.Type
	}
	null := logic.NewOr(l.Null, rt.Null)
	if l.AlwaysNull() || rt.AlwaysNull() {
		return Value{Type: typ, Null: logic.True}, nil
	}

	op := map[queryir.ArithOp]logic.ArithOp{
		queryir.OpAdd: logic.Add,
		queryir.OpSub: logic.Sub,
		queryir.OpMul: logic.Mul,
	}[a.Op]
	if op == 0 {
		return Value{}, &EncodingError{
			Code:    ErrCodeUnresolvedExpression,
			Message: fmt.Sprintf("unknown arithmetic operator %s", a.Op),
			Query:   q,
			Expr:    a.String(),
		}
	}
	t, err := logic.NewArith(op, l.Term, rt.Term)
	if err != nil {
		return Value{}, &EncodingError{Code: ErrCodeTypeMismatch, Message: err.Error(), Query: q, Expr: a.String()}
	}
	return Value{Term: t, Type: typ, Null: null}, nil
}

// resolveColumn finds the variable behind a column reference. An
// unqualified name must belong to exactly one table of the query.
func (r *Run) resolveColumn(q int, ref *queryir.ColumnRef) (*Column, error) {
	env := r.env(q)

	if ref.Table != "" {
		table, ok := r.aliases(q).Resolve(ref.Table)
		if !ok {
			return nil, &EncodingError{
				Code:    ErrCodeUnknownTable,
				Message: fmt.Sprintf("no table or alias named %s", ref.Table),
				Query:   q,
				Table:   ref.Table,
				Expr:    ref.String(),
			}
		}
		c, ok := env.Column(table, ref.Column)
		if !ok {
			return nil, &EncodingError{
				Code:    ErrCodeUnknownColumn,
				Message: fmt.Sprintf("table %s has no column %s", table, ref.Column),
				Query:   q,
				Table:   table,
				Column:  ref.Column,
				Expr:    ref.String(),
			}
		}
		return c, nil
	}

	var found []*Column
	for _, table := range env.Tables() {
		if c, ok := env.Column(table, ref.Column); ok {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, &EncodingError{
			Code:    ErrCodeUnknownColumn,
			Message: fmt.Sprintf("no table has column %s", ref.Column),
			Query:   q,
			Column:  ref.Column,
			Expr:    ref.String(),
		}
	default:
		tables := make([]string, len(found))
		for i, c := range found {
			tables[i] = c.Table
		}
		return nil, &EncodingError{
			Code:    ErrCodeUnresolvedExpression,
			Message: fmt.Sprintf("column %s is ambiguous between %s", ref.Column, strings.Join(tables, ", ")),
			Query:   q,
			Column:  ref.Column,
			Expr:    ref.String(),
		}
	}
}

// tableOf returns the real table a column reference belongs to.
func (r *Run) tableOf(q int, ref *queryir.ColumnRef) (string, error) {
	c, err := r.resolveColumn(q, ref)
	if err != nil {
		return "", err
	}
	return c.Table, nil
}
