// Package report turns a solver model into a counterexample and renders
// it for people: one witness row per table, the query that admits it, and
// a word diff of the two queries.
package report
