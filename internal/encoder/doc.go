// Package encoder translates a pair of SELECT queries into one
// satisfiability problem whose models are rows on which the queries
// disagree.
//
// Every encoding happens inside a Run, which owns the alias maps,
// variable environments and uninterpreted predicates of one check. A Run
// is never shared between checks; its tag prefixes every symbol so scripts
// from concurrent checks cannot collide.
//
// Pipeline per query:
//
//	ResolveAliases -> BuildEnvironments -> EncodeJoins + EncodeCondition(WHERE) -> Membership
//
// and Encode binds r1 <=> Membership(q1), r2 <=> Membership(q2) and asks
// for r1 != r2 under the shared-input constraints.
//
// SQL's three-valued logic is kept by encoding each predicate as a pair
// of formulas: when it is TRUE and when it is FALSE. A NULL operand makes
// both false (UNKNOWN). Only the TRUE side ever admits a row.
package encoder
