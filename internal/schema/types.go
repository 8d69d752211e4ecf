package schema

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic type of a column.
type ColumnType int

const (
	// Unknown is the zero value; it is never stored in a Schema.
	Unknown ColumnType = iota
	Integer
	Text
	Real
)

// String returns the canonical spelling of the type.
func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Text:
		return "TEXT"
	case Real:
		return "REAL"
	default:
		return "UNKNOWN"
	}
}

// Numeric reports whether arithmetic is defined on the type.
func (t ColumnType) Numeric() bool {
	return t == Integer || t == Real
}

// Column is a single typed column of a table.
type Column struct {
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	NotNull bool       `json:"not_null,omitempty"`
}

// Table is an ordered list of columns plus key metadata.
type Table struct {
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	PrimaryKey []string `json:"primary_key,omitempty"`
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// NotNullColumns returns the names of columns declared NOT NULL, including
// primary key columns.
func (t *Table) NotNullColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.NotNull || t.isKey(c.Name) {
			out = append(out, c.Name)
		}
	}
	return out
}

func (t *Table) isKey(col string) bool {
	for _, k := range t.PrimaryKey {
		if k == col {
			return true
		}
	}
	return false
}

// Schema is an immutable, ordered set of tables.
type Schema struct {
	tables []*Table
	byName map[string]*Table
}

// New builds a Schema from tables, preserving their order.
// Duplicate table or column names are rejected.
func New(tables ...*Table) (*Schema, error) {
	s := &Schema{byName: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if t == nil {
			continue
		}
		if _, dup := s.byName[t.Name]; dup {
			return nil, &SchemaError{Table: t.Name, Message: "table declared more than once"}
		}
		seen := make(map[string]struct{}, len(t.Columns))
		for _, c := range t.Columns {
			if _, dup := seen[c.Name]; dup {
				return nil, &SchemaError{Table: t.Name, Column: c.Name, Message: "column declared more than once"}
			}
			if c.Type == Unknown {
				return nil, &SchemaError{Table: t.Name, Column: c.Name, Message: "column has no supported type"}
			}
			seen[c.Name] = struct{}{}
		}
		for _, k := range t.PrimaryKey {
			if _, ok := seen[k]; !ok {
				return nil, &SchemaError{Table: t.Name, Column: k, Message: "primary key references unknown column"}
			}
		}
		s.tables = append(s.tables, t)
		s.byName[t.Name] = t
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(tables ...*Table) *Schema {
	s, err := New(tables...)
	if err != nil {
		panic(err)
	}
	return s
}

// Table returns the named table.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Tables returns the tables in declaration order.
func (s *Schema) Tables() []*Table {
	return append([]*Table(nil), s.tables...)
}

// ColumnType returns the declared type of table.column.
func (s *Schema) ColumnType(table, column string) (ColumnType, bool) {
	t, ok := s.byName[table]
	if !ok {
		return Unknown, false
	}
	c, ok := t.Column(column)
	if !ok {
		return Unknown, false
	}
	return c.Type, true
}

// Len returns the number of tables.
func (s *Schema) Len() int { return len(s.tables) }

// String renders the schema as "t(a INTEGER, b TEXT); ..." for logs.
func (s *Schema) String() string {
	parts := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = c.Name + " " + c.Type.String()
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", t.Name, strings.Join(cols, ", ")))
	}
	return strings.Join(parts, "; ")
}

// SchemaError reports a schema definition the checker cannot model.
type SchemaError struct {
	Table   string
	Column  string
	Type    string
	Message string
	Err     error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema")
	if e.Table != "" {
		b.WriteString(" ")
		b.WriteString(e.Table)
		if e.Column != "" {
			b.WriteString(".")
			b.WriteString(e.Column)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Type != "" {
		fmt.Fprintf(&b, " (%s)", e.Type)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }
