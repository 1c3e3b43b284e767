package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// placeholder marks an argument position in a condition clause.
// Positions are numbered ($1, $2, ...) when the WHERE clause is rendered.
const placeholder = "?"

type condition struct {
	clause string
	args   []any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap).
type SortField struct {
	Field      string
	Descending bool
}

// Builder assembles PostgreSQL SELECT statements against a ProjectionMap.
// Conditions are joined with AND; nil or empty filter values are skipped so
// optional filters can be chained unconditionally.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
	limit       int
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses a comma-separated sort string such as "name,-uploadedAt".
// A leading "-" marks a descending field. Returns nil for empty input.
func ParseSortFields(s string) []SortField {
	if strings.TrimSpace(s) == "" {
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

// Build returns a SELECT over the projection with conditions, ordering and limit applied.
func (b *Builder) Build() (string, []any) {
	where, args := b.where()

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s%s", b.projection.Columns(), b.projection.From(), where, b.orderBy())
	if b.limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	return sb.String(), args
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildPage returns a SELECT for one page. page is 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.where()
	if page < 1 {
		page = 1
	}

	return fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.orderBy(),
		pageSize,
		(page-1)*pageSize,
	), args
}

// BuildSingle returns a SELECT for the record whose idField equals id.
// Conditions already on the builder are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	), []any{id}
}

// BuildSingleOrNull returns a SELECT for the first row matching the current conditions.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT 1",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.orderBy(),
	), args
}

// OrderByFields overrides the default sort. An empty slice keeps the default.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Limit caps the rows returned by Build. Zero means no limit.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// WhereContains adds a case-insensitive ILIKE condition. No-op for nil or empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.add(b.projection.Column(field)+" ILIKE ?", "%"+*value+"%")
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(b.projection.Column(field)+" = ?", value)
}

// WhereBefore adds a strict less-than condition. No-op for nil values.
func (b *Builder) WhereBefore(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(b.projection.Column(field)+" < ?", value)
}

// WhereAtOrAfter adds a greater-than-or-equal condition. No-op for nil values.
func (b *Builder) WhereAtOrAfter(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(b.projection.Column(field)+" >= ?", value)
}

// WhereSearch adds an OR of ILIKE conditions across fields. No-op for nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	pattern := "%" + *search + "%"
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE ?"
		args[i] = pattern
	}

	return b.add("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) add(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var args []any
	clauses := make([]string, len(b.conditions))
	for i, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			args = append(args, arg)
			clause = strings.Replace(clause, placeholder, "$"+strconv.Itoa(len(args)), 1)
		}
		clauses[i] = clause
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
