// Package smtlib talks to an external SMT-LIB2 solver.
//
// A Script is rendered once and piped to a fresh solver process, so no
// solver state survives between checks. The solver's reply is read as
// s-expressions: the check-sat status followed by the values requested
// with get-value, in request order.
package smtlib
