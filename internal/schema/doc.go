// Package schema models the relational schema shared by the two queries
// under comparison and loads it from CREATE TABLE statements.
//
// A Schema is an ordered mapping from table name to an ordered list of
// typed columns. Only three column types are understood:
//
//	Integer  INT, INTEGER, BIGINT, SMALLINT, SERIAL, ...
//	Text     TEXT, VARCHAR, CHAR, ...
//	Real     REAL, FLOAT, DOUBLE PRECISION, NUMERIC, DECIMAL
//
// Any other declared type is rejected with a SchemaError naming the
// offending table and column.
//
// NOT NULL and PRIMARY KEY annotations are collected (column and table
// constraints) so callers can consult them; the encoder does not produce
// them and currently does not assume them either.
//
// Names follow PostgreSQL folding rules because the statements are parsed
// with pg_query: unquoted identifiers are lower-cased.
package schema
