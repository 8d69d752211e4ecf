// Package store keeps a SQLite history of equivalence checks.
//
// Every check that reaches a verdict is appended to the runs table with
// its inputs, verdict and a fingerprint of the inputs, so repeated checks
// of the same pair can be looked up later.
//
// Results are ordered by the seq column, never by wall-clock time; every
// read has an ORDER BY seq.
//
// The connection runs in WAL journal mode with synchronous=NORMAL and a
// five second busy timeout. Schema upgrades are tracked in
// PRAGMA user_version and applied one transaction per version.
package store
