package querysql

import (
	"fmt"
	"strings"
)

// RecordColumns is the column list every record query selects.
const RecordColumns = "id, section_id, content, position, created_at, updated_at"

// DefaultOrder is the record order when a section gives none.
const DefaultOrder = "position ASC, created_at DESC"

// allowedColumns guards predicate fields, which are interpolated.
var allowedColumns = map[string]bool{
	"id":         true,
	"section_id": true,
	"position":   true,
}

// SQLCompiler compiles record queries to parameterized SQL for SQLite.
//
// Every query ends with an "id ASC" tiebreaker so results are deterministic.
// Values, including JSON paths for content ordering, are always bound.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a RecordQuery to (sql, params).
func (c *SQLCompiler) Compile(q RecordQuery) (string, []any, error) {
	var params []any

	whereClause := ""
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = append(params, filterParams...)
	}

	orderSQL, orderParams, err := c.compileOrder(q)
	if err != nil {
		return "", nil, fmt.Errorf("compile order: %w", err)
	}
	params = append(params, orderParams...)

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params = append(params, limit, q.Offset)

	sql := fmt.Sprintf("SELECT %s FROM records%s ORDER BY %s LIMIT ? OFFSET ?",
		RecordColumns, whereClause, orderSQL)
	return sql, params, nil
}

func (c *SQLCompiler) compileOrder(q RecordQuery) (string, []any, error) {
	if q.Single {
		return "id ASC", nil, nil
	}
	if len(q.Order) == 0 {
		return DefaultOrder + ", id ASC", nil, nil
	}

	parts := make([]string, 0, len(q.Order)+1)
	params := make([]any, 0, len(q.Order))
	for _, term := range q.Order {
		if !fieldNameRegex.MatchString(term.Field) {
			return "", nil, fmt.Errorf("invalid order field %q", term.Field)
		}
		dir := "ASC"
		if term.Desc {
			dir = "DESC"
		}
		parts = append(parts, "json_extract(content, ?) "+dir)
		params = append(params, "$."+term.Field)
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", "), params, nil
}

func (c *SQLCompiler) compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case Equals:
		if !allowedColumns[pred.Field] {
			return "", nil, fmt.Errorf("unsupported column %q", pred.Field)
		}
		return pred.Field + " = ?", []any{pred.Value}, nil
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		var (
			parts  []string
			params []any
		)
		for _, sub := range pred.Predicates {
			sql, subParams, err := c.compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}
