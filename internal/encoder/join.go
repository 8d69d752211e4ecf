package encoder

import (
	"fmt"

	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/queryir"
)

// JoinKind is the join semantics actually encoded, after strength
// reduction.
type JoinKind int

const (
	JoinInner JoinKind = iota + 1
	JoinLeft
	JoinRight
	JoinFull
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

func kindOf(side queryir.JoinSide) (JoinKind, bool) {
	switch side {
	case queryir.JoinInner:
		return JoinInner, true
	case queryir.JoinLeft:
		return JoinLeft, true
	case queryir.JoinRight:
		return JoinRight, true
	case queryir.JoinFull:
		return JoinFull, true
	}
	return 0, false
}

// ReduceJoin degrades an outer join to an inner join when WHERE reads
// the side the outer join would pad with NULLs: the right table of a
// LEFT join, the left table of a RIGHT join, either table of a FULL join.
func ReduceJoin(kind JoinKind, left, right string, whereTables map[string]bool) JoinKind {
	switch kind {
	case JoinLeft:
		if whereTables[right] {
			return JoinInner
		}
	case JoinRight:
		if whereTables[left] {
			return JoinInner
		}
	case JoinFull:
		if whereTables[left] || whereTables[right] {
			return JoinInner
		}
	}
	return kind
}

// JoinAxioms is the contribution of one join between row identities l
// and rt with match condition on. guards are the NULL guards of a bare
// ON comparison; only an inner join states them.
//
//	INNER  on ∧ guards
//	LEFT   ¬IsNull(l) ∧ (on ⇒ W(l,r)) ∧ (¬on ⇒ W(l,N)) ∧ (W(l,r) ⇒ on)
//	RIGHT  LEFT with l and r swapped
//	FULL   (on ⇒ W(l,r)) ∧ (¬on ⇒ W(N,r) ∧ W(l,N)) ∧ (W(l,r) ⇒ on) ∧ (W(l,r) ⟺ W(r,l))
//
// N is NullSentinel. LEFT and RIGHT share one witness relation; FULL has
// its own.
func (r *Run) JoinAxioms(kind JoinKind, on logic.Term, guards []logic.Term, l, rt logic.Term) (logic.Term, error) {
	switch kind {
	case JoinInner:
		return logic.NewAnd(append([]logic.Term{on}, guards...)...), nil
	case JoinLeft:
		return r.leftAxioms(on, l, rt), nil
	case JoinRight:
		return r.leftAxioms(on, rt, l), nil
	case JoinFull:
		w := r.witnessPredicate(JoinFull)
		wlr := logic.MustApply(w, l, rt)
		return logic.NewAnd(
			logic.NewImplies(on, wlr),
			logic.NewImplies(logic.NewNot(on), logic.NewAnd(
				logic.MustApply(w, NullSentinel, rt),
				logic.MustApply(w, l, NullSentinel),
			)),
			logic.NewImplies(wlr, on),
			logic.NewIff(wlr, logic.MustApply(w, rt, l)),
		), nil
	}
	return nil, &EncodingError{
		Code:    ErrCodeUnknownJoinSide,
		Message: fmt.Sprintf("no axioms for join kind %d", int(kind)),
	}
}

// leftAxioms encodes a join preserving the row identified by kept.
func (r *Run) leftAxioms(on logic.Term, kept, other logic.Term) logic.Term {
	w := r.witnessPredicate(JoinLeft)
	match := logic.MustApply(w, kept, other)
	return logic.NewAnd(
		logic.NewNot(r.IsNull(kept)),
		logic.NewImplies(on, match),
		logic.NewImplies(logic.NewNot(on), logic.MustApply(w, kept, NullSentinel)),
		logic.NewImplies(match, on),
	)
}

// JoinStep records how one join of a query was encoded.
type JoinStep struct {
	Written JoinKind
	Encoded JoinKind
	Left    string
	Right   string
}

// EncodeJoins lowers the FROM/JOIN list of query q (1 or 2) to the
// conjunction of every join's contribution. Cross joins contribute true.
func (r *Run) EncodeJoins(q int) (logic.Term, []JoinStep, error) {
	query := r.Queries[q-1]
	am := r.aliases(q)
	env := r.env(q)

	whereTables, err := r.predicateTables(q, query.Where)
	if err != nil {
		return nil, nil, err
	}

	from, _ := am.Resolve(query.From.Key())
	joined := []string{from}
	var parts []logic.Term
	var steps []JoinStep

	for _, j := range query.Joins {
		right, ok := am.Resolve(j.Table.Key())
		if !ok {
			return nil, nil, &EncodingError{
				Code:    ErrCodeUnknownTable,
				Message: fmt.Sprintf("join table %s is not resolvable", j.Table),
				Query:   q,
				Table:   j.Table.Name,
			}
		}
		if j.Side == queryir.JoinCross {
			joined = append(joined, right)
			continue
		}
		kind, ok := kindOf(j.Side)
		if !ok {
			return nil, nil, &EncodingError{
				Code:    ErrCodeUnknownJoinSide,
				Message: fmt.Sprintf("unknown join side %s", j.Side),
				Query:   q,
				Table:   right,
			}
		}
		if j.On == nil {
			return nil, nil, &EncodingError{
				Code:    ErrCodeUnsupportedPredicate,
				Message: fmt.Sprintf("%s JOIN %s has no ON clause", j.Side, j.Table),
				Query:   q,
				Table:   right,
			}
		}

		on, guards, err := r.encodeOn(q, j.On)
		if err != nil {
			return nil, nil, err
		}
		left, err := r.leftTable(q, j.On, right, joined, from)
		if err != nil {
			return nil, nil, err
		}
		encoded := ReduceJoin(kind, left, right, whereTables)

		lID, _ := env.RowID(left)
		rID, _ := env.RowID(right)
		part, err := r.JoinAxioms(encoded, on, guards, lID, rID)
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, part)
		steps = append(steps, JoinStep{Written: kind, Encoded: encoded, Left: left, Right: right})
		joined = append(joined, right)
	}
	return logic.NewAnd(parts...), steps, nil
}

// leftTable picks the left-hand table of a join: the one other table the
// ON clause reads among those already joined, else the FROM table.
func (r *Run) leftTable(q int, on queryir.Predicate, right string, joined []string, from string) (string, error) {
	tables, err := r.predicateTables(q, on)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, t := range joined {
		if t != right && tables[t] {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return from, nil
}
