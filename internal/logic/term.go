package logic

import (
	"math/big"
)

// Sort is the SMT sort of a term.
type Sort int

const (
	SortBool Sort = iota + 1
	SortInt
	SortReal
	SortString
)

// String returns the SMT-LIB2 sort name.
func (s Sort) String() string {
	switch s {
	case SortBool:
		return "Bool"
	case SortInt:
		return "Int"
	case SortReal:
		return "Real"
	case SortString:
		return "String"
	default:
		return "Unknown"
	}
}

// Numeric reports whether arithmetic is defined on s.
func (s Sort) Numeric() bool {
	return s == SortInt || s == SortReal
}

// Term is a sealed interface - only types in this package implement it.
type Term interface {
	term()
	Sort() Sort
}

// BoolConst is true or false.
type BoolConst bool

func (BoolConst) term()      {}
func (BoolConst) Sort() Sort { return SortBool }

// True and False are the boolean constants.
const (
	True  = BoolConst(true)
	False = BoolConst(false)
)

// IntConst is an integer literal.
type IntConst int64

func (IntConst) term()      {}
func (IntConst) Sort() Sort { return SortInt }

// RealConst is an exact rational literal.
type RealConst struct {
	Value *big.Rat
}

func (RealConst) term()      {}
func (RealConst) Sort() Sort { return SortReal }

// NewReal parses a decimal literal such as "2.5" or "-0.125".
func NewReal(text string) (RealConst, bool) {
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return RealConst{}, false
	}
	return RealConst{Value: r}, true
}

// StringConst is a string literal.
type StringConst string

func (StringConst) term()      {}
func (StringConst) Sort() Sort { return SortString }

// Var is a free constant of the given sort.
type Var struct {
	Name string
	Of   Sort
}

func (*Var) term()        {}
func (v *Var) Sort() Sort { return v.Of }

// Func is an uninterpreted function symbol.
type Func struct {
	Name   string
	Params []Sort
	Result Sort
}

// App applies an uninterpreted function.
type App struct {
	Func *Func
	Args []Term
}

func (*App) term()        {}
func (a *App) Sort() Sort { return a.Func.Result }

// Not negates a boolean term.
type Not struct {
	X Term
}

func (*Not) term()      {}
func (*Not) Sort() Sort { return SortBool }

// And is an n-ary conjunction.
type And struct {
	Xs []Term
}

func (*And) term()      {}
func (*And) Sort() Sort { return SortBool }

// Or is an n-ary disjunction.
type Or struct {
	Xs []Term
}

func (*Or) term()      {}
func (*Or) Sort() Sort { return SortBool }

// Implies is A ⇒ B.
type Implies struct {
	A, B Term
}

func (*Implies) term()      {}
func (*Implies) Sort() Sort { return SortBool }

// Iff is A ⟺ B over booleans.
type Iff struct {
	A, B Term
}

func (*Iff) term()      {}
func (*Iff) Sort() Sort { return SortBool }

// CmpOp is a binary relation on same-sorted terms.
type CmpOp int

const (
	Eq CmpOp = iota + 1
	Lt
	Le
	Gt
	Ge
)

func (op CmpOp) String() string {
	switch op {
	case Eq:
		return "="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return "?"
	}
}

// Cmp compares two terms of the same sort. Ordering relations require a
// numeric sort.
type Cmp struct {
	Op   CmpOp
	A, B Term
}

func (*Cmp) term()      {}
func (*Cmp) Sort() Sort { return SortBool }

// ArithOp is a binary arithmetic operator.
type ArithOp int

const (
	Add ArithOp = iota + 1
	Sub
	Mul
)

func (op ArithOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	default:
		return "?"
	}
}

// Arith is a binary arithmetic term over one numeric sort.
type Arith struct {
	Op   ArithOp
	A, B Term
}

func (*Arith) term()        {}
func (a *Arith) Sort() Sort { return a.A.Sort() }

// ToReal converts an Int term to Real.
type ToReal struct {
	X Term
}

func (*ToReal) term()      {}
func (*ToReal) Sort() Sort { return SortReal }
