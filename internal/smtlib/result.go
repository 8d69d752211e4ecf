package smtlib

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlequiv/internal/logic"
)

// Status is the solver's answer to check-sat.
type Status int

const (
	StatusUnknown Status = iota
	StatusSat
	StatusUnsat
)

func (s Status) String() string {
	switch s {
	case StatusSat:
		return "sat"
	case StatusUnsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Result is a parsed solver reply.
type Result struct {
	Status Status

	// Reason explains an unknown status.
	Reason string

	// Model holds the observed values on sat.
	Model Model

	// Output is the raw solver stdout.
	Output string
}

// ParseOutput reads a solver reply to a script whose observables are
// observe, in that order.
func ParseOutput(output string, observe []logic.Term) (*Result, error) {
	exprs, err := readSExprs(output)
	if err != nil && len(exprs) == 0 {
		return nil, err
	}
	res := &Result{Output: output}

	rest := exprs
	for len(rest) > 0 {
		head := rest[0]
		rest = rest[1:]
		if head.isList {
			if msg, ok := solverError(head); ok {
				return nil, fmt.Errorf("solver error: %s", msg)
			}
			continue
		}
		switch head.atom {
		case "sat":
			res.Status = StatusSat
		case "unsat":
			res.Status = StatusUnsat
			return res, nil
		case "unknown":
			res.Status = StatusUnknown
			res.Reason = "solver returned unknown"
			return res, nil
		case "timeout":
			res.Status = StatusUnknown
			res.Reason = "solver timeout"
			return res, nil
		default:
			continue
		}
		break
	}
	if res.Status != StatusSat {
		return nil, fmt.Errorf("no check-sat answer in solver output")
	}
	if len(observe) == 0 {
		return res, nil
	}

	for _, x := range rest {
		if !x.isList {
			continue
		}
		if msg, ok := solverError(x); ok {
			return nil, fmt.Errorf("solver error: %s", msg)
		}
		if len(x.list) != len(observe) {
			continue
		}
		res.Model = make(Model, len(observe))
		for i, pair := range x.list {
			if !pair.isList || len(pair.list) != 2 {
				return nil, fmt.Errorf("malformed get-value entry %s", pair)
			}
			res.Model[logic.Render(observe[i])] = parseValue(pair.list[1])
		}
		return res, nil
	}
	return nil, fmt.Errorf("no get-value reply in solver output")
}

// solverError recognises (error "...").
func solverError(x sexpr) (string, bool) {
	if len(x.list) >= 1 && !x.list[0].isList && x.list[0].atom == "error" {
		parts := make([]string, 0, len(x.list)-1)
		for _, p := range x.list[1:] {
			parts = append(parts, p.atom)
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}
