package smtlib

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/sqlequiv/internal/logic"
)

// Script is a one-shot satisfiability query.
type Script struct {
	// Comments are emitted as leading "; " lines.
	Comments []string

	// Logic defaults to ALL.
	Logic string

	// Timeout is passed to the solver as :timeout in milliseconds when set.
	Timeout time.Duration

	Assertions []logic.Term

	// Observe lists the terms whose values are requested on sat.
	Observe []logic.Term
}

// Render returns the script text.
func (s *Script) Render() string {
	var b strings.Builder
	_, _ = s.WriteTo(&b)
	return b.String()
}

// WriteTo writes the script text to w.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	for _, c := range s.Comments {
		for _, line := range strings.Split(c, "\n") {
			cw.printf("; %s\n", line)
		}
	}
	cw.printf("(set-option :produce-models true)\n")
	if s.Timeout > 0 {
		cw.printf("(set-option :timeout %d)\n", s.Timeout.Milliseconds())
	}
	lg := s.Logic
	if lg == "" {
		lg = "ALL"
	}
	cw.printf("(set-logic %s)\n", lg)

	decls := logic.Collect(append(append([]logic.Term{}, s.Assertions...), s.Observe...)...)
	for _, f := range decls.Funcs {
		params := make([]string, len(f.Params))
		for i, p := range f.Params {
			params[i] = p.String()
		}
		cw.printf("(declare-fun %s (%s) %s)\n", logic.Symbol(f.Name), strings.Join(params, " "), f.Result)
	}
	for _, v := range decls.Vars {
		cw.printf("(declare-fun %s () %s)\n", logic.Symbol(v.Name), v.Of)
	}
	for _, a := range s.Assertions {
		cw.printf("(assert %s)\n", logic.Render(a))
	}
	cw.printf("(check-sat)\n")
	if len(s.Observe) > 0 {
		obs := make([]string, len(s.Observe))
		for i, t := range s.Observe {
			obs[i] = logic.Render(t)
		}
		cw.printf("(get-value (%s))\n", strings.Join(obs, " "))
	}
	cw.printf("(exit)\n")
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	n, err := fmt.Fprintf(c.w, format, args...)
	c.n += int64(n)
	c.err = err
}
