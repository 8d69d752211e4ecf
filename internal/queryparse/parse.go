// Package queryparse lowers SQL text into the queryir representation
// using the PostgreSQL parser (pg_query).
package queryparse

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/roach88/sqlequiv/internal/queryir"
)

// ParseError reports query text that cannot be turned into a queryir.Query.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %v", e.Message, e.Err)
	}
	return "parse: " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

var aggregates = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"array_agg": true, "string_agg": true, "bool_and": true, "bool_or": true,
}

// Parse parses exactly one SELECT statement.
func Parse(sql string) (*queryir.Query, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, &ParseError{Message: "invalid SQL", Err: err}
	}
	stmts := tree.GetStmts()
	if len(stmts) != 1 {
		return nil, &ParseError{Message: fmt.Sprintf("expected exactly one statement, found %d", len(stmts))}
	}
	sel := stmts[0].GetStmt().GetSelectStmt()
	if sel == nil {
		return nil, &ParseError{Message: "only SELECT statements are supported"}
	}

	q, err := lowerSelect(sel)
	if err != nil {
		return nil, err
	}
	q.SQL = sql
	return q, nil
}

// Normalize returns the query as deparsed by PostgreSQL, which removes
// formatting differences between two otherwise identical texts.
func Normalize(sql string) (string, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return "", &ParseError{Message: "invalid SQL", Err: err}
	}
	out, err := pg_query.Deparse(tree)
	if err != nil {
		return "", &ParseError{Message: "deparse", Err: err}
	}
	return out, nil
}

func lowerSelect(sel *pg_query.SelectStmt) (*queryir.Query, error) {
	q := &queryir.Query{}

	if sel.GetOp() != pg_query.SetOperation_SETOP_NONE {
		q.Unsupported = append(q.Unsupported, "UNION / INTERSECT / EXCEPT")
		// Keep going with the left operand so the remaining checks still
		// have something to report against.
		if sel.GetLarg() == nil {
			return q, nil
		}
		left, err := lowerSelect(sel.GetLarg())
		if err != nil {
			return nil, err
		}
		left.Unsupported = append(q.Unsupported, left.Unsupported...)
		return left, nil
	}

	features := []struct {
		present bool
		name    string
	}{
		{sel.GetWithClause() != nil, "WITH"},
		{len(sel.GetValuesLists()) > 0, "VALUES"},
		{len(sel.GetDistinctClause()) > 0, "DISTINCT"},
		{len(sel.GetGroupClause()) > 0, "GROUP BY"},
		{sel.GetHavingClause() != nil, "HAVING"},
		{len(sel.GetWindowClause()) > 0, "WINDOW"},
		{len(sel.GetSortClause()) > 0, "ORDER BY"},
		{sel.GetIntoClause() != nil, "SELECT INTO"},
		{len(sel.GetLockingClause()) > 0, "FOR UPDATE / FOR SHARE"},
	}
	for _, f := range features {
		if f.present {
			q.Unsupported = append(q.Unsupported, f.name)
		}
	}

	for _, n := range sel.GetTargetList() {
		q.Targets = append(q.Targets, lowerTarget(n.GetResTarget()))
	}

	if err := lowerFrom(q, sel.GetFromClause()); err != nil {
		return nil, err
	}

	if w := sel.GetWhereClause(); w != nil {
		q.Where = lowerPredicate(w)
	}

	var err error
	if q.Limit, err = lowerCount(sel.GetLimitCount(), "LIMIT"); err != nil {
		return nil, err
	}
	if q.Offset, err = lowerCount(sel.GetLimitOffset(), "OFFSET"); err != nil {
		return nil, err
	}
	return q, nil
}

func lowerTarget(rt *pg_query.ResTarget) queryir.Target {
	val := rt.GetVal()
	if cr := val.GetColumnRef(); cr != nil {
		if table, star := starTable(cr); star {
			return &queryir.StarTarget{Table: table}
		}
		if rt.GetName() == "" {
			if ref, ok := lowerExpr(val).(*queryir.ColumnRef); ok {
				return &queryir.ColumnTarget{Column: ref}
			}
		}
	}
	return &queryir.ExprTarget{Alias: rt.GetName(), Expr: lowerExpr(val)}
}

// lowerFrom flattens the FROM list into the base table plus a left-deep
// join list. Comma-separated items become cross joins.
func lowerFrom(q *queryir.Query, from []*pg_query.Node) error {
	for i, item := range from {
		steps, err := flattenFromItem(q, item)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			continue
		}
		if i == 0 {
			q.From = steps[0].Table
		} else {
			q.Joins = append(q.Joins, queryir.Join{Side: queryir.JoinCross, Table: steps[0].Table})
		}
		q.Joins = append(q.Joins, steps[1:]...)
	}
	return nil
}

// flattenFromItem returns the item as a join list whose first element holds
// the leftmost table (its Side and On are meaningless).
func flattenFromItem(q *queryir.Query, n *pg_query.Node) ([]queryir.Join, error) {
	switch {
	case n.GetRangeVar() != nil:
		return []queryir.Join{{Table: tableRef(n.GetRangeVar())}}, nil

	case n.GetJoinExpr() != nil:
		je := n.GetJoinExpr()
		left, err := flattenFromItem(q, je.GetLarg())
		if err != nil {
			return nil, err
		}
		rv := je.GetRarg().GetRangeVar()
		if rv == nil {
			q.Unsupported = append(q.Unsupported, "parenthesized or derived join operand")
			return left, nil
		}
		if je.GetIsNatural() {
			q.Unsupported = append(q.Unsupported, "NATURAL JOIN")
		}
		if len(je.GetUsingClause()) > 0 {
			q.Unsupported = append(q.Unsupported, "JOIN ... USING")
		}
		if je.GetAlias() != nil {
			q.Unsupported = append(q.Unsupported, "aliased join")
		}

		j := queryir.Join{Table: tableRef(rv)}
		switch je.GetJointype() {
		case pg_query.JoinType_JOIN_INNER:
			j.Side = queryir.JoinInner
			if je.GetQuals() == nil && !je.GetIsNatural() && len(je.GetUsingClause()) == 0 {
				j.Side = queryir.JoinCross
			}
		case pg_query.JoinType_JOIN_LEFT:
			j.Side = queryir.JoinLeft
		case pg_query.JoinType_JOIN_RIGHT:
			j.Side = queryir.JoinRight
		case pg_query.JoinType_JOIN_FULL:
			j.Side = queryir.JoinFull
		default:
			return nil, &ParseError{Message: fmt.Sprintf("unsupported join type %s", je.GetJointype())}
		}
		if quals := je.GetQuals(); quals != nil {
			j.On = lowerPredicate(quals)
		}
		return append(left, j), nil

	case n.GetRangeSubselect() != nil:
		q.Unsupported = append(q.Unsupported, "subquery in FROM")
	case n.GetRangeFunction() != nil:
		q.Unsupported = append(q.Unsupported, "function in FROM")
	default:
		q.Unsupported = append(q.Unsupported, "FROM item "+nodeKind(n))
	}
	return nil, nil
}

func tableRef(rv *pg_query.RangeVar) queryir.TableRef {
	ref := queryir.TableRef{Name: rv.GetRelname()}
	if a := rv.GetAlias(); a != nil {
		ref.Alias = a.GetAliasname()
	}
	return ref
}

func lowerCount(n *pg_query.Node, clause string) (*int64, error) {
	if n == nil {
		return nil, nil
	}
	c := n.GetAConst()
	if c == nil {
		return nil, &ParseError{Message: clause + " must be an integer constant"}
	}
	if c.GetIsnull() {
		// LIMIT ALL / LIMIT NULL
		return nil, nil
	}
	v, ok := constInt(c)
	if !ok {
		return nil, &ParseError{Message: clause + " must be an integer constant"}
	}
	return &v, nil
}

func constInt(c *pg_query.A_Const) (int64, bool) {
	if iv := c.GetIval(); iv != nil {
		return int64(iv.GetIval()), true
	}
	if fv := c.GetFval(); fv != nil {
		v, err := strconv.ParseInt(fv.GetFval(), 10, 64)
		return v, err == nil
	}
	return 0, false
}

func lowerPredicate(n *pg_query.Node) queryir.Predicate {
	switch {
	case n.GetBoolExpr() != nil:
		be := n.GetBoolExpr()
		terms := make([]queryir.Predicate, 0, len(be.GetArgs()))
		for _, a := range be.GetArgs() {
			terms = append(terms, lowerPredicate(a))
		}
		switch be.GetBoolop() {
		case pg_query.BoolExprType_AND_EXPR:
			return &queryir.And{Terms: terms}
		case pg_query.BoolExprType_OR_EXPR:
			return &queryir.Or{Terms: terms}
		case pg_query.BoolExprType_NOT_EXPR:
			if len(terms) == 1 {
				return &queryir.Not{Term: terms[0]}
			}
		}
		return &queryir.UnsupportedPredicate{Kind: "boolean expression " + be.GetBoolop().String()}

	case n.GetAExpr() != nil:
		ae := n.GetAExpr()
		name := operatorName(ae.GetName())
		if ae.GetKind() == pg_query.A_Expr_Kind_AEXPR_OP && ae.GetLexpr() != nil {
			if op, ok := queryir.ParseCompareOp(name); ok {
				return &queryir.Compare{Op: op, Left: lowerExpr(ae.GetLexpr()), Right: lowerExpr(ae.GetRexpr())}
			}
		}
		kind := aexprKind(ae)
		if kind == "operator" {
			return &queryir.UnsupportedPredicate{Kind: kind, Text: name}
		}
		return &queryir.UnsupportedPredicate{Kind: kind}

	case n.GetNullTest() != nil:
		nt := n.GetNullTest()
		return &queryir.IsNull{
			Expr:    lowerExpr(nt.GetArg()),
			Negated: nt.GetNulltesttype() == pg_query.NullTestType_IS_NOT_NULL,
		}

	case n.GetSubLink() != nil:
		return &queryir.UnsupportedPredicate{Kind: "subquery"}
	}
	return &queryir.UnsupportedPredicate{Kind: nodeKind(n)}
}

func lowerExpr(n *pg_query.Node) queryir.Expr {
	switch {
	case n == nil:
		return &queryir.UnsupportedExpr{Kind: "missing operand"}

	case n.GetColumnRef() != nil:
		fields := n.GetColumnRef().GetFields()
		var parts []string
		for _, f := range fields {
			if f.GetAStar() != nil {
				return &queryir.UnsupportedExpr{Kind: "star inside expression"}
			}
			parts = append(parts, f.GetString_().GetSval())
		}
		switch len(parts) {
		case 0:
			return &queryir.UnsupportedExpr{Kind: "empty column reference"}
		case 1:
			return &queryir.ColumnRef{Column: parts[0]}
		default:
			return &queryir.ColumnRef{Table: parts[len(parts)-2], Column: parts[len(parts)-1]}
		}

	case n.GetAConst() != nil:
		return lowerConst(n.GetAConst())

	case n.GetAExpr() != nil:
		ae := n.GetAExpr()
		name := operatorName(ae.GetName())
		if ae.GetKind() == pg_query.A_Expr_Kind_AEXPR_OP && ae.GetLexpr() != nil && ae.GetRexpr() != nil {
			var op queryir.ArithOp
			switch name {
			case "+":
				op = queryir.OpAdd
			case "-":
				op = queryir.OpSub
			case "*":
				op = queryir.OpMul
			}
			if op != 0 {
				return &queryir.Arith{Op: op, Left: lowerExpr(ae.GetLexpr()), Right: lowerExpr(ae.GetRexpr())}
			}
		}
		return &queryir.UnsupportedExpr{Kind: "operator", Text: name}

	case n.GetFuncCall() != nil:
		fname := strings.ToLower(lastName(n.GetFuncCall().GetFuncname()))
		if aggregates[fname] {
			return &queryir.UnsupportedExpr{Kind: "aggregate function", Text: fname + "(...)"}
		}
		return &queryir.UnsupportedExpr{Kind: "function", Text: fname + "(...)"}

	case n.GetSubLink() != nil:
		return &queryir.UnsupportedExpr{Kind: "subquery"}

	case n.GetTypeCast() != nil:
		return &queryir.UnsupportedExpr{Kind: "type cast"}
	}
	return &queryir.UnsupportedExpr{Kind: nodeKind(n)}
}

func lowerConst(c *pg_query.A_Const) queryir.Expr {
	switch {
	case c.GetIsnull():
		return &queryir.NullLit{}
	case c.GetIval() != nil:
		return &queryir.IntLit{Value: int64(c.GetIval().GetIval())}
	case c.GetFval() != nil:
		text := c.GetFval().GetFval()
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return &queryir.IntLit{Value: v}
		}
		return &queryir.RealLit{Text: text}
	case c.GetSval() != nil:
		return &queryir.TextLit{Value: c.GetSval().GetSval()}
	case c.GetBoolval() != nil:
		return &queryir.UnsupportedExpr{Kind: "boolean literal"}
	}
	return &queryir.UnsupportedExpr{Kind: "constant"}
}

// starTable reports whether a ColumnRef is "*" or "alias.*".
func starTable(cr *pg_query.ColumnRef) (string, bool) {
	fields := cr.GetFields()
	if len(fields) == 0 || fields[len(fields)-1].GetAStar() == nil {
		return "", false
	}
	if len(fields) >= 2 {
		return fields[len(fields)-2].GetString_().GetSval(), true
	}
	return "", true
}

func operatorName(names []*pg_query.Node) string {
	return lastName(names)
}

func lastName(names []*pg_query.Node) string {
	last := ""
	for _, n := range names {
		if s := n.GetString_(); s != nil {
			last = s.GetSval()
		}
	}
	return last
}

func aexprKind(ae *pg_query.A_Expr) string {
	switch ae.GetKind() {
	case pg_query.A_Expr_Kind_AEXPR_IN:
		return "IN list"
	case pg_query.A_Expr_Kind_AEXPR_LIKE, pg_query.A_Expr_Kind_AEXPR_ILIKE:
		return "LIKE"
	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		return "BETWEEN"
	case pg_query.A_Expr_Kind_AEXPR_DISTINCT, pg_query.A_Expr_Kind_AEXPR_NOT_DISTINCT:
		return "IS [NOT] DISTINCT FROM"
	case pg_query.A_Expr_Kind_AEXPR_OP_ANY, pg_query.A_Expr_Kind_AEXPR_OP_ALL:
		return "ANY / ALL"
	}
	return "operator"
}

// nodeKind names the concrete node type, e.g. "CaseExpr".
func nodeKind(n *pg_query.Node) string {
	if n == nil {
		return "empty node"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n.GetNode()), "*pg_query.Node_")
}
