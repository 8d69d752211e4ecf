// Package sanity rejects query pairs that cannot be compared before any
// encoding happens: unsupported SQL, unknown tables or columns, different
// projections, different table sets, and different LIMIT/OFFSET.
package sanity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sqlequiv/internal/encoder"
	"github.com/roach88/sqlequiv/internal/queryir"
	"github.com/roach88/sqlequiv/internal/schema"
)

// SanityError lists every problem found, in the order checked.
type SanityError struct {
	Issues []string
}

func (e *SanityError) Error() string {
	if len(e.Issues) == 1 {
		return "sanity check failed: " + e.Issues[0]
	}
	return fmt.Sprintf("sanity check failed with %d issues: %s", len(e.Issues), strings.Join(e.Issues, "; "))
}

// Check validates q1 and q2 against s. aliases holds each query's alias map.
func Check(s *schema.Schema, queries [2]*queryir.Query, aliases [2]*encoder.AliasMap) error {
	c := &checker{schema: s}

	for i, q := range queries {
		for _, p := range queryir.Validate(q).Problems {
			c.addf("query %d: %s", i+1, p)
		}
	}
	for i, q := range queries {
		c.checkReferences(i+1, q, aliases[i])
	}

	cols1 := c.outputColumns(1, queries[0], aliases[0])
	cols2 := c.outputColumns(2, queries[1], aliases[1])
	if !slices.Equal(cols1, cols2) {
		c.addf("queries return different columns: query 1 %v vs query 2 %v", cols1, cols2)
	}

	t1, t2 := sortedTables(aliases[0]), sortedTables(aliases[1])
	if !slices.Equal(t1, t2) {
		c.addf("queries do not reference the same set of tables: query 1 %v vs query 2 %v", t1, t2)
	}

	if l1, l2 := countOf(queries[0].Limit, "all"), countOf(queries[1].Limit, "all"); l1 != l2 {
		c.addf("query 1 returns at most %s rows while query 2 returns at most %s", l1, l2)
	}
	if o1, o2 := countOf(queries[0].Offset, "0"), countOf(queries[1].Offset, "0"); o1 != o2 {
		c.addf("query 1 skips %s rows while query 2 skips %s", o1, o2)
	}

	if len(c.issues) > 0 {
		return &SanityError{Issues: c.issues}
	}
	return nil
}

type checker struct {
	schema *schema.Schema
	issues []string
}

func (c *checker) addf(format string, args ...any) {
	c.issues = append(c.issues, fmt.Sprintf(format, args...))
}

// checkReferences requires every table to exist and every column to be
// qualified with a known table that has it.
func (c *checker) checkReferences(q int, query *queryir.Query, am *encoder.AliasMap) {
	for _, table := range am.Tables() {
		if _, ok := c.schema.Table(table); !ok {
			c.addf("query %d: unknown table %s", q, table)
		}
	}
	for _, ref := range queryir.QueryColumns(query) {
		if ref.Table == "" {
			c.addf("query %d: column %s must be qualified with its table", q, ref.Column)
			continue
		}
		table, ok := am.Resolve(ref.Table)
		if !ok {
			c.addf("query %d: unknown table or alias %s", q, ref.Table)
			continue
		}
		if _, ok := c.schema.Table(table); !ok {
			continue // reported above
		}
		if _, ok := c.schema.ColumnType(table, ref.Column); !ok {
			c.addf("query %d: unknown column %s.%s", q, table, ref.Column)
		}
	}
}

// outputColumns names the projected columns, expanding * and alias.*.
func (c *checker) outputColumns(q int, query *queryir.Query, am *encoder.AliasMap) []string {
	var out []string
	for _, t := range query.Targets {
		switch target := t.(type) {
		case *queryir.ColumnTarget:
			out = append(out, target.Column.Column)
		case *queryir.ExprTarget:
			if target.Alias != "" {
				out = append(out, target.Alias)
			} else {
				out = append(out, target.Expr.String())
			}
		case *queryir.StarTarget:
			tables := am.Tables()
			if target.Table != "" {
				table, ok := am.Resolve(target.Table)
				if !ok {
					c.addf("query %d: unknown table or alias %s in %s", q, target.Table, target)
					continue
				}
				tables = []string{table}
			}
			for _, table := range tables {
				if st, ok := c.schema.Table(table); ok {
					out = append(out, st.ColumnNames()...)
				}
			}
		}
	}
	return out
}

func sortedTables(am *encoder.AliasMap) []string {
	tables := am.Tables()
	slices.Sort(tables)
	return slices.Compact(tables)
}

func countOf(n *int64, absent string) string {
	if n == nil {
		return absent
	}
	return fmt.Sprint(*n)
}
