// Package equiv drives one equivalence check end to end: load the schema,
// parse both queries, validate them, encode the pair, ask the solver, and
// turn its answer into a verdict.
//
// A check never reports Equivalent unless the solver proved the encoding
// unsatisfiable. Timeouts and solver "unknown" answers produce Unknown.
//
// Each check gets a UUIDv7 run id. Its random suffix becomes the tag that
// prefixes every SMT symbol, so concurrent checks never share names.
package equiv
