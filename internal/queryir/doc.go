// Package queryir is the intermediate representation of the restricted
// SELECT queries the equivalence checker understands.
//
// The IR is produced by package queryparse and consumed by the sanity
// validator and the semantic encoder. It is deliberately small:
//
//	SELECT <targets> FROM <table> [<join>...] [WHERE <predicate>] [LIMIT n] [OFFSET m]
//
// SEALED INTERFACES:
//
// Expr, Predicate and Target are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so consumers can use
// exhaustive type switches:
//
//	switch e := expr.(type) {
//	case *ColumnRef:
//	case *IntLit, *RealLit, *TextLit, *NullLit:
//	case *Arith:
//	case *UnsupportedExpr:
//	}
//
// Constructs the checker cannot reason about (function calls, subqueries,
// casts, LIKE, IN, ...) are not dropped by the parser. They are kept as
// UnsupportedExpr / UnsupportedPredicate nodes carrying a description, so
// the validator can name them and the encoder can refuse them.
//
// Query-level features outside the fragment (GROUP BY, DISTINCT, ORDER BY,
// set operations, ...) are recorded in Query.Unsupported.
package queryir
