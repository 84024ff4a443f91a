package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType is the comparison operator for a filter condition.
type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	GreaterThanOrEqual ConditionType = ">="
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
)

// unset marks limit/offset as not requested so that an explicit zero still
// renders a clause.
const unset = -1

// Condition is a single WHERE filter. Field names are sanitized before they
// reach the query; values travel as bind parameters.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond builds a filter condition for BuildListQuery.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// OrderKey is one ORDER BY column. Direction is normalized to ASC/DESC; any
// other value falls back to the database default.
type OrderKey struct {
	Column    string
	Direction string
}

// ListQueryOptions collects the pieces of a filtered list query.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    []OrderKey
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  unset,
		Offset: unset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select. Without it the query selects *.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Columns = cols
	}
}

// WithCondition appends a filter condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = append(o.Conditions, cond)
	}
}

// WithOrderBy appends an ORDER BY key. Repeat it to add tiebreakers; keys
// render in the order they were added.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = append(o.OrderBy, OrderKey{Column: column, Direction: direction})
	}
}

// WithLimit sets the limit. Accepts 0; negatives are ignored.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0; negatives are ignored.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// sanitizeIdentifier quotes a column or table name, splitting qualified names
// like "repair_requests.status" so each part is quoted separately.
func sanitizeIdentifier(ident string) string {
	if strings.Contains(ident, ".") {
		return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
	}
	return pgx.Identifier{ident}.Sanitize()
}

// BuildListQuery renders a SELECT with optional WHERE, ORDER BY, LIMIT, and
// OFFSET clauses. Identifiers are quoted and values are returned as bind
// arguments, never interpolated.
//
//	query, args := BuildListQuery(NewListQueryOptions("repair_requests",
//		WithColumns("id", "status", "created_at"),
//		WithCondition(WhereCond("status", Equal, "pending")),
//		WithOrderBy("created_at", "DESC"),
//		WithOrderBy("id", "DESC"),
//		WithLimit(20),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder

	query.WriteString("SELECT ")
	if len(options.Columns) == 0 {
		query.WriteString("*")
	} else {
		cols := make([]string, len(options.Columns))
		for i, col := range options.Columns {
			cols[i] = sanitizeIdentifier(col)
		}
		query.WriteString(strings.Join(cols, ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	whereClause, args, nextParam := buildWhereClause(options.Conditions, 1)
	if whereClause != "" {
		query.WriteString(" ")
		query.WriteString(whereClause)
	}

	writeOrderBy(&query, options.OrderBy)

	if options.Limit != unset {
		fmt.Fprintf(&query, " LIMIT $%d", nextParam)
		args = append(args, options.Limit)
		nextParam++
	}
	if options.Offset != unset {
		fmt.Fprintf(&query, " OFFSET $%d", nextParam)
		args = append(args, options.Offset)
	}

	return query.String(), args
}

func writeOrderBy(query *strings.Builder, keys []OrderKey) {
	for i, key := range keys {
		if i == 0 {
			query.WriteString(" ORDER BY ")
		} else {
			query.WriteString(", ")
		}
		query.WriteString(sanitizeIdentifier(key.Column))
		dir := strings.ToUpper(key.Direction)
		if dir == "ASC" || dir == "DESC" {
			query.WriteString(" ")
			query.WriteString(dir)
		}
	}
}

// buildWhereClause renders the conditions as "WHERE a AND b" with $n
// placeholders starting at startParamIndex. Conditions that cannot render,
// like an IN with an empty slice, are skipped.
func buildWhereClause(inputConditions []Condition, startParamIndex int) (string, []any, int) {
	rendered := make([]string, 0, len(inputConditions))
	args := []any{}
	paramCount := startParamIndex

	for _, cond := range inputConditions {
		if cond.Field == "" {
			continue
		}
		field := sanitizeIdentifier(cond.Field)

		if cond.Type == In {
			clause, inArgs, next := renderInCondition(field, cond.Value, paramCount)
			if clause == "" {
				continue
			}
			rendered = append(rendered, clause)
			args = append(args, inArgs...)
			paramCount = next
			continue
		}

		rendered = append(rendered, fmt.Sprintf("%s %s $%d", field, cond.Type, paramCount))
		args = append(args, cond.Value)
		paramCount++
	}

	if len(rendered) == 0 {
		return "", args, paramCount
	}
	return "WHERE " + strings.Join(rendered, " AND "), args, paramCount
}

// renderInCondition expands a slice value into "field IN ($n, ...)". Any
// slice type is accepted; a non-slice or empty slice renders nothing.
func renderInCondition(field string, value any, paramCount int) (string, []any, int) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return "", nil, paramCount
	}

	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		placeholders[i] = fmt.Sprintf("$%d", paramCount)
		args[i] = rv.Index(i).Interface()
		paramCount++
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")), args, paramCount
}
