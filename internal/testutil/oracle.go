package testutil

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/smtlib"
)

// Answer builds a solver reply from the script it answers.
type Answer func(script *smtlib.Script) (*smtlib.Result, error)

// FakeOracle answers scripts without a solver and remembers them.
//
// Thread-safety: FakeOracle is safe for concurrent use.
type FakeOracle struct {
	mu      sync.Mutex
	answer  Answer
	scripts []*smtlib.Script
}

// NewFakeOracle creates an oracle replying with answer.
func NewFakeOracle(answer Answer) *FakeOracle {
	return &FakeOracle{answer: answer}
}

// Check records script and returns the scripted answer. A cancelled
// context wins over the answer, as it would with a real process.
func (o *FakeOracle) Check(ctx context.Context, script *smtlib.Script) (*smtlib.Result, error) {
	o.mu.Lock()
	o.scripts = append(o.scripts, script)
	o.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, smtlib.ErrOracleTimeout
	}
	return o.answer(script)
}

// Scripts returns every script seen so far, in order.
func (o *FakeOracle) Scripts() []*smtlib.Script {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*smtlib.Script(nil), o.scripts...)
}

// Calls returns how many scripts the oracle has seen.
func (o *FakeOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.scripts)
}

// Unsat answers every script with unsat.
func Unsat() Answer {
	return func(*smtlib.Script) (*smtlib.Result, error) {
		return &smtlib.Result{Status: smtlib.StatusUnsat, Output: "unsat\n"}, nil
	}
}

// Unknown answers every script with unknown and the given reason.
func Unknown(reason string) Answer {
	return func(*smtlib.Script) (*smtlib.Result, error) {
		return &smtlib.Result{Status: smtlib.StatusUnknown, Reason: reason, Output: "unknown\n"}, nil
	}
}

// Fail answers every script with err.
func Fail(err error) Answer {
	return func(*smtlib.Script) (*smtlib.Result, error) {
		return nil, err
	}
}

// Sat answers with a model where the first two observables (the two
// result flags) are r1 and r2, and every other observable gets a fixed
// value of its sort: 7, 7.5, "x", or false for NULL flags.
func Sat(r1, r2 bool) Answer {
	return func(script *smtlib.Script) (*smtlib.Result, error) {
		model := smtlib.Model{}
		for i, term := range script.Observe {
			key := logic.Render(term)
			switch {
			case i == 0:
				model[key] = boolValue(r1)
			case i == 1:
				model[key] = boolValue(r2)
			default:
				model[key] = sampleValue(term.Sort())
			}
		}
		return &smtlib.Result{Status: smtlib.StatusSat, Model: model, Output: "sat\n"}, nil
	}
}

func boolValue(b bool) smtlib.Value {
	return smtlib.Value{Kind: smtlib.KindBool, Bool: b, Raw: strconv.FormatBool(b)}
}

func sampleValue(sort logic.Sort) smtlib.Value {
	switch sort {
	case logic.SortInt:
		return smtlib.Value{Kind: smtlib.KindInt, Num: big.NewRat(7, 1), Raw: "7"}
	case logic.SortReal:
		return smtlib.Value{Kind: smtlib.KindReal, Num: big.NewRat(15, 2), Raw: "(/ 15.0 2.0)"}
	case logic.SortString:
		return smtlib.Value{Kind: smtlib.KindString, Str: "x", Raw: `"x"`}
	default:
		return boolValue(false)
	}
}
