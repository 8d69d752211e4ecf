package encoder

import (
	"github.com/roach88/sqlequiv/internal/logic"
)

// Membership is the formula under which the chosen rows appear in the
// result of query q (1 or 2): every join holds and WHERE is TRUE.
func (r *Run) Membership(q int) (logic.Term, []JoinStep, error) {
	joins, steps, err := r.EncodeJoins(q)
	if err != nil {
		return nil, nil, err
	}
	where := logic.Term(logic.True)
	if w := r.Queries[q-1].Where; w != nil {
		where, err = r.EncodeCondition(q, w)
		if err != nil {
			return nil, nil, err
		}
	}
	return logic.NewAnd(joins, where), steps, nil
}
