package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SortField names a projected field and its direction.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields reads "title,-created_at" style input. A leading "-"
// sorts descending. Empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// predicate is a WHERE fragment. Each "?" in expr binds the next arg.
type predicate struct {
	expr string
	args []any
}

// Builder accumulates predicates and ordering over one projection and
// renders them with PostgreSQL positional parameters.
type Builder struct {
	projection  *ProjectionMap
	predicates  []predicate
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder ordered by defaultSort unless
// OrderByFields overrides it.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{projection: projection, defaultSort: defaultSort}
}

// Scope restricts rows to accountID. It always binds, so an empty
// account matches nothing rather than everything.
func (b *Builder) Scope(field, accountID string) *Builder {
	return b.add(b.projection.Column(field)+" = ?", accountID)
}

// WhereEquals matches field exactly. Nil values are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(b.projection.Column(field)+" = ?", value)
}

// WhereContains matches field case-insensitively as a substring. Nil and
// empty values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.add(b.projection.Column(field)+" ILIKE ?", "%"+*value+"%")
}

// WhereSearch matches any of fields case-insensitively. Nil and empty
// searches are skipped.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	ors := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		ors[i] = b.projection.Column(f) + " ILIKE ?"
		args[i] = pattern
	}
	return b.add("("+strings.Join(ors, " OR ")+")", args...)
}

// OrderByFields replaces the default ordering. Unprojected fields are
// dropped when rendering.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Build renders an ordered SELECT of every matching row.
func (b *Builder) Build() (string, []any) {
	where, args := b.where(1)
	return b.selectAll() + where + b.orderBy(), args
}

// BuildCount renders a COUNT(*) over the matching rows.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where(1)
	return "SELECT COUNT(*) FROM " + b.projection.Table() + where, args
}

// BuildPage renders one ordered page. page is 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.where(1)
	limit := fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	return b.selectAll() + where + b.orderBy() + limit, args
}

// BuildSingle renders a lookup by idField bound to $1, followed by the
// builder's own predicates.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	where, args := b.where(2)
	clause := " WHERE " + b.projection.Column(idField) + " = $1"
	if where != "" {
		clause += " AND " + strings.TrimPrefix(where, " WHERE ")
	}
	return b.selectAll() + clause, append([]any{id}, args...)
}

// BuildSingleOrNull renders the first matching row, if any.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.where(1)
	return b.selectAll() + where + " LIMIT 1", args
}

func (b *Builder) add(expr string, args ...any) *Builder {
	b.predicates = append(b.predicates, predicate{expr: expr, args: args})
	return b
}

func (b *Builder) selectAll() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.Table()
}

// where renders predicates joined by AND, numbering parameters from first.
func (b *Builder) where(first int) (string, []any) {
	if len(b.predicates) == 0 {
		return "", nil
	}

	var (
		sb   strings.Builder
		args []any
		n    = first
	)
	sb.WriteString(" WHERE ")
	for i, p := range b.predicates {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		expr := p.expr
		for _, arg := range p.args {
			expr = strings.Replace(expr, "?", "$"+strconv.Itoa(n), 1)
			args = append(args, arg)
			n++
		}
		sb.WriteString(expr)
	}
	return sb.String(), args
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	var parts []string
	for _, f := range fields {
		col, ok := b.projection.Lookup(f.Field)
		if !ok {
			continue
		}
		if f.Descending {
			parts = append(parts, col+" DESC")
		} else {
			parts = append(parts, col+" ASC")
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
