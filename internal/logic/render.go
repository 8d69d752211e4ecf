package logic

import (
	"fmt"
	"math/big"
	"strings"
)

// Render returns the SMT-LIB2 text of t.
func Render(t Term) string {
	var b strings.Builder
	render(&b, t)
	return b.String()
}

func render(b *strings.Builder, t Term) {
	switch x := t.(type) {
	case BoolConst:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case IntConst:
		if x < 0 {
			fmt.Fprintf(b, "(- %d)", -int64(x))
		} else {
			fmt.Fprintf(b, "%d", int64(x))
		}
	case RealConst:
		b.WriteString(renderRat(x.Value))
	case StringConst:
		b.WriteString(QuoteString(string(x)))
	case *Var:
		b.WriteString(Symbol(x.Name))
	case *App:
		if len(x.Args) == 0 {
			b.WriteString(Symbol(x.Func.Name))
			return
		}
		b.WriteString("(")
		b.WriteString(Symbol(x.Func.Name))
		for _, a := range x.Args {
			b.WriteString(" ")
			render(b, a)
		}
		b.WriteString(")")
	case *Not:
		list(b, "not", x.X)
	case *And:
		list(b, "and", x.Xs...)
	case *Or:
		list(b, "or", x.Xs...)
	case *Implies:
		list(b, "=>", x.A, x.B)
	case *Iff:
		list(b, "=", x.A, x.B)
	case *Cmp:
		if x.A.Sort() == SortString && x.Op != Eq {
			renderStringOrder(b, x)
			return
		}
		list(b, x.Op.String(), x.A, x.B)
	case *Arith:
		list(b, x.Op.String(), x.A, x.B)
	case *ToReal:
		list(b, "to_real", x.X)
	default:
		panic(fmt.Sprintf("logic: cannot render %T", t))
	}
}

// renderStringOrder maps ordering on strings onto str.< and str.<=.
func renderStringOrder(b *strings.Builder, c *Cmp) {
	switch c.Op {
	case Lt:
		list(b, "str.<", c.A, c.B)
	case Le:
		list(b, "str.<=", c.A, c.B)
	case Gt:
		list(b, "str.<", c.B, c.A)
	case Ge:
		list(b, "str.<=", c.B, c.A)
	}
}

func list(b *strings.Builder, head string, args ...Term) {
	b.WriteString("(")
	b.WriteString(head)
	for _, a := range args {
		b.WriteString(" ")
		render(b, a)
	}
	b.WriteString(")")
}

func renderRat(r *big.Rat) string {
	neg := r.Sign() < 0
	abs := new(big.Rat).Abs(r)
	var s string
	if abs.IsInt() {
		s = abs.Num().String() + ".0"
	} else {
		s = "(/ " + abs.Num().String() + ".0 " + abs.Denom().String() + ".0)"
	}
	if neg {
		return "(- " + s + ")"
	}
	return s
}

// Symbol renders name as an SMT-LIB2 symbol, using the |quoted| form when
// the name is not a simple symbol. Pipes and backslashes cannot appear in
// a quoted symbol and are replaced by underscores.
func Symbol(name string) string {
	if isSimpleSymbol(name) {
		return name
	}
	name = strings.NewReplacer("|", "_", `\`, "_").Replace(name)
	return "|" + name + "|"
}

var reservedWords = map[string]bool{
	"_": true, "!": true, "as": true, "let": true, "exists": true, "forall": true,
	"match": true, "par": true, "BINARY": true, "DECIMAL": true, "HEXADECIMAL": true,
	"NUMERAL": true, "STRING": true,
}

func isSimpleSymbol(s string) bool {
	if s == "" || reservedWords[s] {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		case strings.ContainsRune("~!@$%^&*_-+=<>.?/", r):
		default:
			return false
		}
	}
	return true
}

// QuoteString renders s as an SMT-LIB2 string literal. Double quotes are
// doubled; backslashes and characters outside printable ASCII use the
// \u{...} escape.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString(`""`)
		case r == '\\' || r < 0x20 || r > 0x7e:
			fmt.Fprintf(&b, `\u{%x}`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
