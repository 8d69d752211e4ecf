package smtlib

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/roach88/sqlequiv/internal/logic"
)

// ValueKind classifies a model value.
type ValueKind int

const (
	KindOther ValueKind = iota
	KindBool
	KindInt
	KindReal
	KindString
)

// Value is one model assignment as reported by the solver.
type Value struct {
	Kind ValueKind
	Bool bool
	Num  *big.Rat // KindInt and KindReal
	Str  string   // KindString
	Raw  string   // solver text, always set
}

// String renders the value for humans: numbers in decimal where exact,
// strings unquoted.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return v.Num.Num().String()
	case KindReal:
		return formatRat(v.Num)
	case KindString:
		return v.Str
	default:
		return v.Raw
	}
}

func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String() + ".0"
	}
	for prec := 1; prec <= 18; prec++ {
		s := r.FloatString(prec)
		if back, ok := new(big.Rat).SetString(s); ok && back.Cmp(r) == 0 {
			return s
		}
	}
	return r.RatString()
}

// Model maps rendered terms to their values.
type Model map[string]Value

// Lookup returns the value assigned to t, if it was observed.
func (m Model) Lookup(t logic.Term) (Value, bool) {
	v, ok := m[logic.Render(t)]
	return v, ok
}

// parseValue interprets a value s-expression.
func parseValue(x sexpr) Value {
	v := Value{Raw: x.String()}
	switch {
	case x.str:
		v.Kind = KindString
		v.Str = unescapeString(x.atom)
	case !x.isList:
		switch x.atom {
		case "true", "false":
			v.Kind = KindBool
			v.Bool = x.atom == "true"
			return v
		}
		if n, ok := parseNumeral(x.atom); ok {
			v.Kind, v.Num = n.kind, n.num
		}
	case len(x.list) == 2 && !x.list[0].isList && x.list[0].atom == "-":
		inner := parseValue(x.list[1])
		if inner.Kind == KindInt || inner.Kind == KindReal {
			v.Kind = inner.Kind
			v.Num = new(big.Rat).Neg(inner.Num)
		}
	case len(x.list) == 3 && !x.list[0].isList && x.list[0].atom == "/":
		a, b := parseValue(x.list[1]), parseValue(x.list[2])
		if a.Num != nil && b.Num != nil && b.Num.Sign() != 0 {
			v.Kind = KindReal
			v.Num = new(big.Rat).Quo(a.Num, b.Num)
		}
	}
	return v
}

type numeral struct {
	kind ValueKind
	num  *big.Rat
}

func parseNumeral(s string) (numeral, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return numeral{}, false
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return numeral{}, false
	}
	if strings.Contains(s, ".") {
		return numeral{kind: KindReal, num: r}, true
	}
	return numeral{kind: KindInt, num: r}, true
}

// unescapeString decodes \u{...}, \ud.d.d.d and \x.. escapes used by
// SMT-LIB2 string theory; anything else is kept verbatim.
func unescapeString(s string) string {
	if !strings.Contains(s, `\u`) && !strings.Contains(s, `\x`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) {
			if r, n, ok := decodeEscape(s[i:]); ok {
				b.WriteRune(r)
				i += n
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func decodeEscape(s string) (rune, int, bool) {
	switch {
	case strings.HasPrefix(s, `\u{`):
		end := strings.IndexByte(s, '}')
		if end < 0 || end > 9 {
			return 0, 0, false
		}
		n, err := strconv.ParseUint(s[3:end], 16, 32)
		if err != nil {
			return 0, 0, false
		}
		return rune(n), end + 1, true
	case strings.HasPrefix(s, `\u`) && len(s) >= 6:
		n, err := strconv.ParseUint(s[2:6], 16, 32)
		if err != nil {
			return 0, 0, false
		}
		return rune(n), 6, true
	case strings.HasPrefix(s, `\x`) && len(s) >= 4:
		n, err := strconv.ParseUint(s[2:4], 16, 8)
		if err != nil {
			return 0, 0, false
		}
		return rune(n), 4, true
	}
	return 0, 0, false
}
