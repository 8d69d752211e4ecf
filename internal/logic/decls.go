package logic

// Decls lists the free symbols of a set of terms in first-appearance order.
type Decls struct {
	Vars  []*Var
	Funcs []*Func
}

// Collect walks terms and returns their free variables and function
// symbols. A name is reported once even if several values share it.
func Collect(terms ...Term) Decls {
	c := &collector{seen: map[string]bool{}}
	for _, t := range terms {
		c.walk(t)
	}
	return c.out
}

type collector struct {
	seen map[string]bool
	out  Decls
}

func (c *collector) walk(t Term) {
	switch x := t.(type) {
	case *Var:
		if !c.seen[x.Name] {
			c.seen[x.Name] = true
			c.out.Vars = append(c.out.Vars, x)
		}
	case *App:
		if !c.seen[x.Func.Name] {
			c.seen[x.Func.Name] = true
			c.out.Funcs = append(c.out.Funcs, x.Func)
		}
		for _, a := range x.Args {
			c.walk(a)
		}
	case *Not:
		c.walk(x.X)
	case *And:
		for _, y := range x.Xs {
			c.walk(y)
		}
	case *Or:
		for _, y := range x.Xs {
			c.walk(y)
		}
	case *Implies:
		c.walk(x.A)
		c.walk(x.B)
	case *Iff:
		c.walk(x.A)
		c.walk(x.B)
	case *Cmp:
		c.walk(x.A)
		c.walk(x.B)
	case *Arith:
		c.walk(x.A)
		c.walk(x.B)
	case *ToReal:
		c.walk(x.X)
	}
}
