package suite

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Filter keeps the cases for which the boolean expression holds, e.g.
//
//	expect == "not_equivalent" && name startsWith "join-"
//
// Case fields are available under their YAML names. An empty expression
// keeps every case.
func Filter(s *Suite, expression string) (*Suite, error) {
	if expression == "" {
		return s, nil
	}
	program, err := expr.Compile(expression, expr.Env(Case{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expression, err)
	}

	out := *s
	out.Cases = nil
	for _, c := range s.Cases {
		keep, err := expr.Run(program, c)
		if err != nil {
			return nil, fmt.Errorf("filter %q on case %q: %w", expression, c.Name, err)
		}
		if keep.(bool) {
			out.Cases = append(out.Cases, c)
		}
	}
	return &out, nil
}
