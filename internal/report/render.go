package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Options controls text rendering.
type Options struct {
	Color bool
}

// AutoColor reports whether f is a terminal that should get colours.
func AutoColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	table, null, verdict, del, ins *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		table:   color.New(color.Bold),
		null:    color.New(color.FgHiBlack),
		verdict: color.New(color.FgYellow, color.Bold),
		del:     color.New(color.FgRed),
		ins:     color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.table, p.null, p.verdict, p.del, p.ins} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteText renders cx as
//
//	Counterexample:
//	  Table users: (id=21, age=NULL)
//	Interpretation:
//	  -> Query 1 returns the tuple while Query 2 does not.
func WriteText(w io.Writer, cx *Counterexample, opts Options) error {
	p := newPalette(opts.Color)

	var b strings.Builder
	b.WriteString("Counterexample:\n")
	for _, row := range cx.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			if c.Null {
				cells[i] = c.Column + "=" + p.null.Sprint("NULL")
			} else {
				cells[i] = c.String()
			}
		}
		fmt.Fprintf(&b, "  %s: (%s)\n", p.table.Sprint("Table "+row.Table), strings.Join(cells, ", "))
	}
	b.WriteString("Interpretation:\n")
	fmt.Fprintf(&b, "  -> %s\n", p.verdict.Sprint(cx.Direction.Sentence()))

	_, err := io.WriteString(w, b.String())
	return err
}

// WordDiff marks the differences between two query texts, git word-diff
// style: [-removed-]{+added+}.
func WordDiff(from, to string, opts Options) string {
	p := newPalette(opts.Color)
	dmp := diffpatch.New()
	diffs := dmp.DiffMain(from, to, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffDelete:
			b.WriteString(p.del.Sprint("[-" + d.Text + "-]"))
		case diffpatch.DiffInsert:
			b.WriteString(p.ins.Sprint("{+" + d.Text + "+}"))
		case diffpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
