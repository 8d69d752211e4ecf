package encoder

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sqlequiv/internal/logic"
	"github.com/roach88/sqlequiv/internal/schema"
)

// NullSentinel is the row identity meaning "no row" in join witness axioms.
const NullSentinel = logic.IntConst(-1)

// Column is the symbolic variable standing for one column of the generic
// row a query reads from a table.
type Column struct {
	Query   int // 1 or 2
	Table   string
	Name    string
	Type    schema.ColumnType
	NotNull bool
	Var     *logic.Var
}

// Environment holds one query's variables.
type Environment struct {
	Query   int
	tables  []string
	columns map[string][]*Column
	rowIDs  map[string]*logic.Var
}

// Tables returns the real tables of the query in reference order.
func (e *Environment) Tables() []string {
	return append([]string(nil), e.tables...)
}

// HasTable reports whether the query references table.
func (e *Environment) HasTable(table string) bool {
	_, ok := e.columns[table]
	return ok
}

// Columns returns the variables of table in schema order.
func (e *Environment) Columns(table string) []*Column {
	return e.columns[table]
}

// Column looks up the variable for (table, column).
func (e *Environment) Column(table, column string) (*Column, bool) {
	for _, c := range e.columns[table] {
		if c.Name == column {
			return c, true
		}
	}
	return nil, false
}

// RowID returns the row identity variable of table.
func (e *Environment) RowID(table string) (*logic.Var, bool) {
	v, ok := e.rowIDs[table]
	return v, ok
}

// BuildEnvironments allocates the variables of both queries.
//
// Column variables are distinct per query; a table both queries read is
// tied together by SharedInputConstraints. Row identities are allocated
// once per real table and shared by both queries, so a join axiom over
// the same tables means the same thing in either query.
func BuildEnvironments(tag string, s *schema.Schema, aliases [2]*AliasMap) ([2]*Environment, error) {
	var envs [2]*Environment
	rowIDs := map[string]*logic.Var{}

	for i, am := range aliases {
		env := &Environment{
			Query:   i + 1,
			columns: map[string][]*Column{},
			rowIDs:  map[string]*logic.Var{},
		}
		for _, table := range am.Tables() {
			t, ok := s.Table(table)
			if !ok {
				return envs, &EncodingError{
					Code:    ErrCodeUnknownTable,
					Message: fmt.Sprintf("table %s is not in the schema", table),
					Query:   i + 1,
					Table:   table,
				}
			}
			notNull := map[string]bool{}
			for _, c := range t.NotNullColumns() {
				notNull[c] = true
			}

			cols := make([]*Column, 0, len(t.Columns))
			for _, c := range t.Columns {
				cols = append(cols, &Column{
					Query:   i + 1,
					Table:   table,
					Name:    c.Name,
					Type:    c.Type,
					NotNull: notNull[c.Name],
					Var: &logic.Var{
						Name: symbolName(tag, fmt.Sprintf("q%d", i+1), table, c.Name),
						Of:   sortOf(c.Type),
					},
				})
			}
			env.tables = append(env.tables, table)
			env.columns[table] = cols

			rid, ok := rowIDs[table]
			if !ok {
				rid = &logic.Var{Name: symbolName(tag, table, "rowid"), Of: logic.SortInt}
				rowIDs[table] = rid
			}
			env.rowIDs[table] = rid
		}
		envs[i] = env
	}
	return envs, nil
}

func symbolName(parts ...string) string {
	name := parts[0]
	for _, p := range parts[1:] {
		name += "." + p
	}
	return norm.NFC.String(name)
}

func sortOf(t schema.ColumnType) logic.Sort {
	switch t {
	case schema.Text:
		return logic.SortString
	case schema.Real:
		return logic.SortReal
	default:
		return logic.SortInt
	}
}
