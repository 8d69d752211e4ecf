package queryir

import (
	"strconv"
	"strings"
)

// Expr is a scalar expression.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode()
	String() string
}

// Predicate is a boolean condition used in WHERE and ON clauses.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
	String() string
}

// Target is one item of the SELECT list.
//
// This is a sealed interface - only types in this package implement it.
type Target interface {
	targetNode()
	String() string
}

// ColumnRef references a column, optionally qualified by a table name or
// alias exactly as written in the query.
type ColumnRef struct {
	Table  string // alias or table name; empty when unqualified
	Column string
}

func (*ColumnRef) exprNode() {}

func (c *ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

func (*IntLit) exprNode() {}

func (l *IntLit) String() string { return strconv.FormatInt(l.Value, 10) }

// RealLit is a decimal literal. The text is kept verbatim so no precision
// is lost before it reaches the solver.
type RealLit struct {
	Text string
}

func (*RealLit) exprNode() {}

func (l *RealLit) String() string { return l.Text }

// TextLit is a string literal.
type TextLit struct {
	Value string
}

func (*TextLit) exprNode() {}

func (l *TextLit) String() string {
	return "'" + strings.ReplaceAll(l.Value, "'", "''") + "'"
}

// NullLit is the NULL literal.
type NullLit struct{}

func (*NullLit) exprNode() {}

func (*NullLit) String() string { return "NULL" }

// ArithOp is a binary arithmetic operator.
type ArithOp int

const (
	OpAdd ArithOp = iota + 1
	OpSub
	OpMul
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	default:
		return "?"
	}
}

// Arith is a binary arithmetic expression.
type Arith struct {
	Op          ArithOp
	Left, Right Expr
}

func (*Arith) exprNode() {}

func (a *Arith) String() string {
	return "(" + a.Left.String() + " " + a.Op.String() + " " + a.Right.String() + ")"
}

// UnsupportedExpr stands in for an expression outside the fragment.
type UnsupportedExpr struct {
	Kind string // e.g. "function count", "subquery", "type cast"
	Text string // best-effort rendering for diagnostics
}

func (*UnsupportedExpr) exprNode() {}

func (u *UnsupportedExpr) String() string {
	if u.Text != "" {
		return u.Text
	}
	return "<" + u.Kind + ">"
}

// CompareOp is a comparison operator.
type CompareOp int

const (
	OpLt CompareOp = iota + 1
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
)

func (op CompareOp) String() string {
	switch op {
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	default:
		return "?"
	}
}

// ParseCompareOp maps an SQL operator spelling to a CompareOp.
func ParseCompareOp(s string) (CompareOp, bool) {
	switch s {
	case "<":
		return OpLt, true
	case ">":
		return OpGt, true
	case "<=":
		return OpLe, true
	case ">=":
		return OpGe, true
	case "=":
		return OpEq, true
	case "<>", "!=":
		return OpNe, true
	}
	return 0, false
}

// Compare is a binary comparison.
type Compare struct {
	Op          CompareOp
	Left, Right Expr
}

func (*Compare) predicateNode() {}

func (c *Compare) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

// And is a conjunction of two or more predicates.
type And struct {
	Terms []Predicate
}

func (*And) predicateNode() {}

func (a *And) String() string { return joinPredicates(a.Terms, " AND ") }

// Or is a disjunction of two or more predicates.
type Or struct {
	Terms []Predicate
}

func (*Or) predicateNode() {}

func (o *Or) String() string { return joinPredicates(o.Terms, " OR ") }

// Not negates a predicate.
type Not struct {
	Term Predicate
}

func (*Not) predicateNode() {}

func (n *Not) String() string { return "NOT (" + n.Term.String() + ")" }

// IsNull is "expr IS NULL", or "expr IS NOT NULL" when Negated is set.
type IsNull struct {
	Expr    Expr
	Negated bool
}

func (*IsNull) predicateNode() {}

func (n *IsNull) String() string {
	if n.Negated {
		return n.Expr.String() + " IS NOT NULL"
	}
	return n.Expr.String() + " IS NULL"
}

// UnsupportedPredicate stands in for a condition outside the fragment.
type UnsupportedPredicate struct {
	Kind string // e.g. "LIKE", "IN list", "EXISTS subquery"
	Text string
}

func (*UnsupportedPredicate) predicateNode() {}

func (u *UnsupportedPredicate) String() string {
	if u.Text != "" {
		return u.Text
	}
	return "<" + u.Kind + ">"
}

func joinPredicates(ps []Predicate, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = "(" + p.String() + ")"
	}
	return strings.Join(parts, sep)
}

// ColumnTarget projects a plain column reference.
type ColumnTarget struct {
	Column *ColumnRef
}

func (*ColumnTarget) targetNode() {}

func (c *ColumnTarget) String() string { return c.Column.String() }

// ExprTarget projects an expression, optionally under an output alias.
type ExprTarget struct {
	Alias string
	Expr  Expr
}

func (*ExprTarget) targetNode() {}

func (e *ExprTarget) String() string {
	if e.Alias == "" {
		return e.Expr.String()
	}
	return e.Expr.String() + " AS " + e.Alias
}

// StarTarget is "*" or "alias.*".
type StarTarget struct {
	Table string // empty for a bare *
}

func (*StarTarget) targetNode() {}

func (s *StarTarget) String() string {
	if s.Table == "" {
		return "*"
	}
	return s.Table + ".*"
}

// TableRef is a table reference in FROM or JOIN.
type TableRef struct {
	Name  string
	Alias string
}

// Key returns the name the rest of the query uses for this reference:
// the alias if present, else the table name.
func (t TableRef) Key() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

func (t TableRef) String() string {
	if t.Alias == "" {
		return t.Name
	}
	return t.Name + " AS " + t.Alias
}

// JoinSide is the join type as written.
type JoinSide int

const (
	JoinInner JoinSide = iota + 1
	JoinLeft
	JoinRight
	JoinFull
	// JoinCross is a comma-separated FROM item or CROSS JOIN; it carries no ON clause.
	JoinCross
)

func (s JoinSide) String() string {
	switch s {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	case JoinCross:
		return "CROSS"
	default:
		return "UNKNOWN"
	}
}

// Join is one entry of the ordered join list following the FROM table.
type Join struct {
	Side  JoinSide
	Table TableRef
	On    Predicate // nil for cross joins
}

// Query is a parsed SELECT statement.
type Query struct {
	Targets []Target
	From    TableRef
	Joins   []Join
	Where   Predicate // nil when absent
	Limit   *int64
	Offset  *int64

	// Unsupported lists query-level features outside the fragment,
	// e.g. "GROUP BY", "DISTINCT", "ORDER BY".
	Unsupported []string

	// SQL is the source text the query was parsed from.
	SQL string
}

// TableRefs returns the FROM table followed by every joined table.
func (q *Query) TableRefs() []TableRef {
	refs := make([]TableRef, 0, len(q.Joins)+1)
	if q.From.Name != "" {
		refs = append(refs, q.From)
	}
	for _, j := range q.Joins {
		refs = append(refs, j.Table)
	}
	return refs
}
