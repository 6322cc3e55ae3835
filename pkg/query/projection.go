// Package query builds account-scoped SQL from projection maps.
package query

import "strings"

// ProjectionMap binds logical field names to alias-qualified columns of a
// single table. Only projected fields may be sorted on.
type ProjectionMap struct {
	from    string
	fields  map[string]string
	ordered []string
}

// NewProjectionMap starts a projection over schema.table under alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		from:   schema + "." + table + " " + alias,
		fields: make(map[string]string),
	}
}

// Project maps column (unqualified) to field. Columns render in the order
// they are projected.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias() + "." + column
	p.fields[field] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.from
}

// Column resolves field to its qualified column. Unmapped names pass
// through unchanged so callers may reference raw columns.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}

// Lookup resolves field and reports whether it is projected.
func (p *ProjectionMap) Lookup(field string) (string, bool) {
	col, ok := p.fields[field]
	return col, ok
}

// Columns returns the projected columns as a select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ordered, ", ")
}

func (p *ProjectionMap) alias() string {
	return p.from[strings.LastIndexByte(p.from, ' ')+1:]
}
