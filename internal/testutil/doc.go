// Package testutil holds deterministic stand-ins for the checker's
// collaborators: a clock, run id generators, a scripted oracle, and a
// guard for tests that need a real solver.
package testutil
