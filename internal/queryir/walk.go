package queryir

// ExprColumns returns every column reference inside e, left to right.
func ExprColumns(e Expr) []*ColumnRef {
	var out []*ColumnRef
	walkExpr(e, func(c *ColumnRef) { out = append(out, c) })
	return out
}

// PredicateColumns returns every column reference inside p, left to right,
// recursing through AND/OR/NOT/comparisons/IS NULL.
func PredicateColumns(p Predicate) []*ColumnRef {
	var out []*ColumnRef
	walkPredicate(p, func(c *ColumnRef) { out = append(out, c) })
	return out
}

// QueryColumns returns every column reference in targets, ON clauses and
// WHERE, in that order.
func QueryColumns(q *Query) []*ColumnRef {
	var out []*ColumnRef
	visit := func(c *ColumnRef) { out = append(out, c) }
	for _, t := range q.Targets {
		switch target := t.(type) {
		case *ColumnTarget:
			visit(target.Column)
		case *ExprTarget:
			walkExpr(target.Expr, visit)
		}
	}
	for _, j := range q.Joins {
		if j.On != nil {
			walkPredicate(j.On, visit)
		}
	}
	if q.Where != nil {
		walkPredicate(q.Where, visit)
	}
	return out
}

func walkPredicate(p Predicate, visit func(*ColumnRef)) {
	switch pred := p.(type) {
	case *Compare:
		walkExpr(pred.Left, visit)
		walkExpr(pred.Right, visit)
	case *And:
		for _, t := range pred.Terms {
			walkPredicate(t, visit)
		}
	case *Or:
		for _, t := range pred.Terms {
			walkPredicate(t, visit)
		}
	case *Not:
		walkPredicate(pred.Term, visit)
	case *IsNull:
		walkExpr(pred.Expr, visit)
	}
}

func walkExpr(e Expr, visit func(*ColumnRef)) {
	switch expr := e.(type) {
	case *ColumnRef:
		visit(expr)
	case *Arith:
		walkExpr(expr.Left, visit)
		walkExpr(expr.Right, visit)
	}
}
