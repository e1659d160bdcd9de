package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/sqlschema/internal/errs"
)

// Dialect controls placeholder and identifier quoting style.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "double quotes".
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `backticks`.
	DialectMySQL

	// DialectSQLite uses ? placeholders and "double quotes".
	DialectSQLite
)

// DialectFor returns the dialect spoken by driver.
func DialectFor(d Driver) Dialect {
	switch d {
	case DriverMySQL:
		return DialectMySQL
	case DriverSQLite:
		return DialectSQLite
	default:
		return DialectPostgres
	}
}

// validOps is the allowlist of comparison operators for WHERE clauses.
// The operator position cannot be parameterized, so anything else is rejected.
var validOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<>":   true,
	"LIKE": true,
}

// SelectBuilder constructs a parameterized SELECT over a single catalog
// relation. Values are never interpolated into the SQL string.
//
// Usage:
//
//	sql, args, err := Select("information_schema.columns", DialectPostgres).
//	    Columns("column_name", "data_type", "is_nullable").
//	    Where("table_schema", "=", "public").
//	    Where("table_name", "=", "orders").
//	    OrderBy("ordinal_position", Asc).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	where   []whereClause
	orderBy []orderClause
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	values []any
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder. table may be schema-qualified
// ("information_schema.tables"); each part is quoted separately.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column: column, op: op, values: []any{value}})
	return b
}

// WhereIf adds an equality condition only when value is non-empty.
// Catalog restrictions use "" to mean "no filter".
func (b *SelectBuilder) WhereIf(column, value string) *SelectBuilder {
	if value == "" {
		return b
	}
	return b.Where(column, "=", value)
}

// WhereIn adds a "column IN (...)" condition.
func (b *SelectBuilder) WhereIn(column string, values ...any) *SelectBuilder {
	b.where = append(b.where, whereClause{column: column, op: "IN", values: values})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Build produces the final SQL string and argument slice.
func (b *SelectBuilder) Build() (string, []any, error) {
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.quote(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.quote(b.table))

	var args []any
	argIdx := 1

	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(w.op)
			if op == "IN" {
				if len(w.values) == 0 {
					return "", nil, errs.Newf(errs.ErrKindInvalidInput, "empty IN list for column %q", w.column)
				}
				ph := make([]string, len(w.values))
				for i, v := range w.values {
					ph[i] = b.placeholder(argIdx)
					args = append(args, v)
					argIdx++
				}
				parts = append(parts, fmt.Sprintf("%s IN (%s)", b.quote(w.column), strings.Join(ph, ", ")))
				continue
			}
			if !validOps[op] {
				return "", nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", b.quote(w.column), op, b.placeholder(argIdx)))
			args = append(args, w.values[0])
			argIdx++
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", b.quote(o.column), dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	return sb.String(), args, nil
}

// placeholder returns the parameter placeholder for the dialect.
// Postgres: $1, $2, …   MySQL / SQLite: ? (index is ignored)
func (b *SelectBuilder) placeholder(idx int) string {
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// quote quotes a possibly dot-qualified identifier part by part.
func (b *SelectBuilder) quote(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdent(b.dialect, p)
	}
	return strings.Join(parts, ".")
}

// QuoteIdent quotes a single identifier for the dialect.
func QuoteIdent(d Dialect, name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
