package schema

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// typeNames maps the last element of a PostgreSQL type name to a column type.
var typeNames = map[string]ColumnType{
	"int":       Integer,
	"int2":      Integer,
	"int4":      Integer,
	"int8":      Integer,
	"integer":   Integer,
	"smallint":  Integer,
	"bigint":    Integer,
	"serial":    Integer,
	"bigserial": Integer,
	"text":      Text,
	"varchar":   Text,
	"bpchar":    Text,
	"char":      Text,
	"string":    Text,
	"float4":    Real,
	"float8":    Real,
	"real":      Real,
	"float":     Real,
	"numeric":   Real,
	"decimal":   Real,
}

// Load parses CREATE TABLE statements and returns the schema they declare.
// Statements other than CREATE TABLE are ignored.
func Load(ddl string) (*Schema, error) {
	tree, err := pg_query.Parse(ddl)
	if err != nil {
		return nil, &SchemaError{Message: "cannot parse schema definition", Err: err}
	}

	var tables []*Table
	for _, raw := range tree.GetStmts() {
		cs := raw.GetStmt().GetCreateStmt()
		if cs == nil {
			continue
		}
		t, err := loadTable(cs)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil, &SchemaError{Message: "no CREATE TABLE statements found"}
	}
	return New(tables...)
}

func loadTable(cs *pg_query.CreateStmt) (*Table, error) {
	t := &Table{Name: cs.GetRelation().GetRelname()}
	notNull := map[string]bool{}

	for _, elt := range cs.GetTableElts() {
		if cd := elt.GetColumnDef(); cd != nil {
			typ, raw := columnType(cd.GetTypeName())
			if typ == Unknown {
				return nil, &SchemaError{
					Table:   t.Name,
					Column:  cd.GetColname(),
					Type:    raw,
					Message: "unsupported column type",
				}
			}
			col := Column{Name: cd.GetColname(), Type: typ, NotNull: cd.GetIsNotNull()}
			for _, cn := range cd.GetConstraints() {
				c := cn.GetConstraint()
				switch c.GetContype() {
				case pg_query.ConstrType_CONSTR_NOTNULL:
					col.NotNull = true
				case pg_query.ConstrType_CONSTR_PRIMARY:
					t.PrimaryKey = append(t.PrimaryKey, col.Name)
				}
			}
			t.Columns = append(t.Columns, col)
			continue
		}
		if c := elt.GetConstraint(); c != nil {
			keys := stringList(c.GetKeys())
			switch c.GetContype() {
			case pg_query.ConstrType_CONSTR_PRIMARY:
				t.PrimaryKey = append(t.PrimaryKey, keys...)
			case pg_query.ConstrType_CONSTR_NOTNULL:
				for _, k := range keys {
					notNull[k] = true
				}
			}
		}
	}

	for i := range t.Columns {
		if notNull[t.Columns[i].Name] {
			t.Columns[i].NotNull = true
		}
	}
	return t, nil
}

// columnType resolves a TypeName to a ColumnType. The second result is the
// type as written, for diagnostics.
func columnType(tn *pg_query.TypeName) (ColumnType, string) {
	names := stringList(tn.GetNames())
	if len(names) == 0 {
		return Unknown, ""
	}
	last := strings.ToLower(names[len(names)-1])
	if len(tn.GetArrayBounds()) > 0 {
		return Unknown, last + "[]"
	}
	return typeNames[last], last
}

func stringList(nodes []*pg_query.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s := n.GetString_(); s != nil {
			out = append(out, s.GetSval())
		}
	}
	return out
}
