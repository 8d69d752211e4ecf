package encoder

import (
	"fmt"

	"github.com/roach88/sqlequiv/internal/queryir"
)

// AliasMap maps the names a query uses for its tables (alias, or the
// table name when unaliased) to real table names.
type AliasMap struct {
	keys []string
	real map[string]string
	key  map[string]string // real table -> key
}

// ResolveAliases builds the alias map of q. index is 1 or 2 and only
// appears in errors.
//
// A key bound twice is ambiguous. A real table referenced twice under
// different keys is a self-join, which is not supported: row identities
// and shared-input constraints are allocated per real table.
func ResolveAliases(q *queryir.Query, index int) (*AliasMap, error) {
	m := &AliasMap{real: map[string]string{}, key: map[string]string{}}
	for _, ref := range q.TableRefs() {
		k := ref.Key()
		if prev, ok := m.real[k]; ok {
			return nil, &EncodingError{
				Code:    ErrCodeAmbiguousAlias,
				Message: fmt.Sprintf("alias %q refers to both %s and %s", k, prev, ref.Name),
				Query:   index,
				Table:   ref.Name,
			}
		}
		if prevKey, ok := m.key[ref.Name]; ok {
			return nil, &EncodingError{
				Code:    ErrCodeSelfJoin,
				Message: fmt.Sprintf("table %s is referenced as both %q and %q", ref.Name, prevKey, k),
				Query:   index,
				Table:   ref.Name,
			}
		}
		m.keys = append(m.keys, k)
		m.real[k] = ref.Name
		m.key[ref.Name] = k
	}
	return m, nil
}

// Resolve returns the real table for an alias key.
func (m *AliasMap) Resolve(key string) (string, bool) {
	t, ok := m.real[key]
	return t, ok
}

// KeyOf returns the key a real table is referenced by.
func (m *AliasMap) KeyOf(table string) (string, bool) {
	k, ok := m.key[table]
	return k, ok
}

// Keys returns the alias keys in reference order.
func (m *AliasMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Tables returns the real tables in reference order.
func (m *AliasMap) Tables() []string {
	out := make([]string, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.real[k]
	}
	return out
}

// Len returns the number of table references.
func (m *AliasMap) Len() int { return len(m.keys) }
