package logic

import (
	"fmt"
)

// SortError reports terms combined with incompatible sorts.
type SortError struct {
	Op   string
	Want string
	Got  []Sort
}

func (e *SortError) Error() string {
	return fmt.Sprintf("%s expects %s operands, got %v", e.Op, e.Want, e.Got)
}

// NewNot negates x, folding constants and double negation.
func NewNot(x Term) Term {
	switch t := x.(type) {
	case BoolConst:
		return !t
	case *Not:
		return t.X
	}
	return &Not{X: x}
}

// NewAnd conjoins xs. Nested conjunctions are flattened, true is dropped
// and any false short-circuits. Zero terms yield True.
func NewAnd(xs ...Term) Term {
	out := make([]Term, 0, len(xs))
	for _, x := range xs {
		switch t := x.(type) {
		case BoolConst:
			if !t {
				return False
			}
		case *And:
			out = append(out, t.Xs...)
		default:
			out = append(out, x)
		}
	}
	switch len(out) {
	case 0:
		return True
	case 1:
		return out[0]
	}
	return &And{Xs: out}
}

// NewOr disjoins xs. Nested disjunctions are flattened, false is dropped
// and any true short-circuits. Zero terms yield False.
func NewOr(xs ...Term) Term {
	out := make([]Term, 0, len(xs))
	for _, x := range xs {
		switch t := x.(type) {
		case BoolConst:
			if t {
				return True
			}
		case *Or:
			out = append(out, t.Xs...)
		default:
			out = append(out, x)
		}
	}
	switch len(out) {
	case 0:
		return False
	case 1:
		return out[0]
	}
	return &Or{Xs: out}
}

// NewImplies builds a ⇒ b.
func NewImplies(a, b Term) Term {
	if c, ok := a.(BoolConst); ok {
		if c {
			return b
		}
		return True
	}
	if c, ok := b.(BoolConst); ok {
		if c {
			return True
		}
		return NewNot(a)
	}
	return &Implies{A: a, B: b}
}

// NewIff builds a ⟺ b.
func NewIff(a, b Term) Term {
	if c, ok := a.(BoolConst); ok {
		if c {
			return b
		}
		return NewNot(b)
	}
	if c, ok := b.(BoolConst); ok {
		if c {
			return a
		}
		return NewNot(a)
	}
	return &Iff{A: a, B: b}
}

// Promote lifts an Int term to Real when the other operand is Real, so
// both sides of a comparison or arithmetic share one sort.
func Promote(a, b Term) (Term, Term) {
	switch {
	case a.Sort() == SortInt && b.Sort() == SortReal:
		return NewToReal(a), b
	case a.Sort() == SortReal && b.Sort() == SortInt:
		return a, NewToReal(b)
	}
	return a, b
}

// NewToReal converts an Int term to Real; integer constants are folded.
func NewToReal(x Term) Term {
	if c, ok := x.(IntConst); ok {
		r, _ := NewReal(fmt.Sprint(int64(c)))
		return r
	}
	return &ToReal{X: x}
}

// NewCmp builds a comparison, promoting Int to Real when the sorts mix.
// Equality is defined on every sort; ordering on numeric sorts and
// strings (lexicographic).
func NewCmp(op CmpOp, a, b Term) (Term, error) {
	a, b = Promote(a, b)
	if a.Sort() != b.Sort() {
		return nil, &SortError{Op: op.String(), Want: "same-sorted", Got: []Sort{a.Sort(), b.Sort()}}
	}
	if op != Eq && !a.Sort().Numeric() && a.Sort() != SortString {
		return nil, &SortError{Op: op.String(), Want: "ordered", Got: []Sort{a.Sort(), b.Sort()}}
	}
	return &Cmp{Op: op, A: a, B: b}, nil
}

// NewArith builds a binary arithmetic term, promoting Int to Real when
// the sorts mix.
func NewArith(op ArithOp, a, b Term) (Term, error) {
	if !a.Sort().Numeric() || !b.Sort().Numeric() {
		return nil, &SortError{Op: op.String(), Want: "numeric", Got: []Sort{a.Sort(), b.Sort()}}
	}
	a, b = Promote(a, b)
	return &Arith{Op: op, A: a, B: b}, nil
}

// Apply applies f to args after checking arity and sorts.
func Apply(f *Func, args ...Term) (Term, error) {
	if len(args) != len(f.Params) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", f.Name, len(f.Params), len(args))
	}
	for i, a := range args {
		if a.Sort() != f.Params[i] {
			got := make([]Sort, len(args))
			for j, x := range args {
				got[j] = x.Sort()
			}
			return nil, &SortError{Op: f.Name, Want: fmt.Sprint(f.Params), Got: got}
		}
	}
	return &App{Func: f, Args: args}, nil
}

// MustApply is Apply for call sites whose sorts are fixed by construction.
func MustApply(f *Func, args ...Term) Term {
	t, err := Apply(f, args...)
	if err != nil {
		panic(err)
	}
	return t
}
