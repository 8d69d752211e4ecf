package smtlib

import (
	"fmt"
	"strings"
)

// sexpr is one node of solver output: an atom, a string literal or a list.
type sexpr struct {
	atom   string
	str    bool // atom came from a "..." literal (already unquoted)
	list   []sexpr
	isList bool
}

func (s sexpr) String() string {
	switch {
	case s.isList:
		parts := make([]string, len(s.list))
		for i, x := range s.list {
			parts[i] = x.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case s.str:
		return `"` + strings.ReplaceAll(s.atom, `"`, `""`) + `"`
	default:
		return s.atom
	}
}

// readSExprs parses every top-level s-expression in input.
func readSExprs(input string) ([]sexpr, error) {
	r := &sexprReader{in: input}
	var out []sexpr
	for {
		r.skipSpace()
		if r.pos >= len(r.in) {
			return out, nil
		}
		x, err := r.read()
		if err != nil {
			return out, err
		}
		out = append(out, x)
	}
}

type sexprReader struct {
	in  string
	pos int
}

func (r *sexprReader) skipSpace() {
	for r.pos < len(r.in) {
		c := r.in[r.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		case c == ';':
			for r.pos < len(r.in) && r.in[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

func (r *sexprReader) read() (sexpr, error) {
	r.skipSpace()
	if r.pos >= len(r.in) {
		return sexpr{}, fmt.Errorf("unexpected end of solver output")
	}
	switch c := r.in[r.pos]; c {
	case '(':
		r.pos++
		list := []sexpr{}
		for {
			r.skipSpace()
			if r.pos >= len(r.in) {
				return sexpr{}, fmt.Errorf("unterminated list in solver output")
			}
			if r.in[r.pos] == ')' {
				r.pos++
				return sexpr{list: list, isList: true}, nil
			}
			x, err := r.read()
			if err != nil {
				return sexpr{}, err
			}
			list = append(list, x)
		}
	case ')':
		return sexpr{}, fmt.Errorf("unexpected ')' at offset %d", r.pos)
	case '"':
		return r.readString()
	case '|':
		end := strings.IndexByte(r.in[r.pos+1:], '|')
		if end < 0 {
			return sexpr{}, fmt.Errorf("unterminated quoted symbol at offset %d", r.pos)
		}
		atom := r.in[r.pos : r.pos+end+2]
		r.pos += end + 2
		return sexpr{atom: atom}, nil
	default:
		start := r.pos
		for r.pos < len(r.in) && !strings.ContainsRune(" \t\r\n();\"", rune(r.in[r.pos])) {
			r.pos++
		}
		return sexpr{atom: r.in[start:r.pos]}, nil
	}
}

// readString reads a "..." literal where "" stands for one quote.
func (r *sexprReader) readString() (sexpr, error) {
	start := r.pos
	r.pos++
	var b strings.Builder
	for r.pos < len(r.in) {
		c := r.in[r.pos]
		if c == '"' {
			if r.pos+1 < len(r.in) && r.in[r.pos+1] == '"' {
				b.WriteByte('"')
				r.pos += 2
				continue
			}
			r.pos++
			return sexpr{atom: b.String(), str: true}, nil
		}
		b.WriteByte(c)
		r.pos++
	}
	return sexpr{}, fmt.Errorf("unterminated string literal at offset %d", start)
}
