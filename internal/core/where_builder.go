package core

import (
	"fmt"
	"strings"
)

// WhereBuilder accumulates AND-ed predicates with numbered placeholders.
// Column names come from code, never from callers; values are only ever
// bound as arguments.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "col = $n". Empty values are skipped.
func (wb *WhereBuilder) Add(col, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", col, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddContains appends a case-insensitive substring match. LIKE wildcards
// in value are escaped so they match literally. Empty values are skipped.
func (wb *WhereBuilder) AddContains(col, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, col, wb.argIndex))
	wb.args = append(wb.args, "%"+EscapeLike(value)+"%")
	wb.argIndex++
}

// Build returns the WHERE clause with a leading space, or "" and nil args
// when no condition was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex returns the number of the next placeholder, for appending
// LIMIT/OFFSET after the WHERE clause.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters (backslash, % and _).
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
