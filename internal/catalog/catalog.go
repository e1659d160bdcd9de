// Package catalog answers metadata queries against a database engine's
// catalog. Every engine exposes the same named collections (Tables,
// Columns, Indexes, …) with the same positional restrictions and the same
// row field names, so the schema assemblers never see engine SQL.
package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/koustreak/sqlschema/internal/errs"
)

// Collection names accepted by Catalog.Query.
const (
	Catalogs     = "Catalogs"
	Tables       = "Tables"
	Views        = "Views"
	Columns      = "Columns"
	Indexes      = "Indexes"
	IndexColumns = "IndexColumns"
	ForeignKeys  = "ForeignKeys"
)

// Row field names.
const (
	FieldName           = "NAME"
	FieldDescription    = "DESCRIPTION"
	FieldTableName      = "TABLE_NAME"
	FieldTableType      = "TABLE_TYPE"
	FieldViewDefinition = "VIEW_DEFINITION"
	FieldColumnName     = "COLUMN_NAME"
	FieldDataType       = "DATA_TYPE"
	FieldDeclaredType   = "DECLARED_TYPE"
	FieldIsNullable     = "IS_NULLABLE"
	FieldOrdinal        = "ORDINAL_POSITION"
	FieldDefault        = "COLUMN_DEFAULT"
	FieldIndexName      = "INDEX_NAME"
	FieldPrimaryKey     = "PRIMARY_KEY"
	FieldUnique         = "UNIQUE"
	FieldClustered      = "CLUSTERED"
	FieldConstraintName = "CONSTRAINT_NAME"
	FieldFromColumn     = "FKEY_FROM_COLUMN"
	FieldToTable        = "FKEY_TO_TABLE"
	FieldToColumn       = "FKEY_TO_COLUMN"
	FieldOnUpdate       = "FKEY_ON_UPDATE"
	FieldOnDelete       = "FKEY_ON_DELETE"
)

// TABLE_TYPE values.
const (
	TypeTable       = "table"
	TypeView        = "view"
	TypeSystemTable = "SYSTEM_TABLE"
)

// Engine-neutral DATA_TYPE identifiers. Catalogs may report others.
const (
	TypeInt64    = "int64"
	TypeDecimal  = "decimal"
	TypeString   = "string"
	TypeDouble   = "double"
	TypeBlob     = "blob"
	TypeBool     = "bool"
	TypeDateTime = "datetime"
	TypeObject   = "object"
)

// MainCatalog names the database a handle is connected to. SQLite calls
// it "main"; the server engines report their current database under the
// same name, with the real name in DESCRIPTION.
const MainCatalog = "main"

// Restriction positions shared by the collections.
const (
	RestrictCatalog = 0
	RestrictSchema  = 1
	RestrictTable   = 2
)

// Catalog runs collection queries against one open engine handle.
type Catalog interface {
	// Query returns the rows of collection matching the positional
	// restrictions. A missing or empty restriction means "no filter".
	// No matching rows is an empty slice, not an error.
	Query(ctx context.Context, collection string, restrictions ...string) ([]Row, error)
}

// Handle is a Catalog bound to an open connection.
type Handle interface {
	Catalog
	Close()
}

// Opener opens a fresh Handle. The schema provider opens one per
// operation and closes it before returning.
type Opener interface {
	Open(ctx context.Context) (Handle, error)
}

// OpenerFunc adapts a plain function to Opener.
type OpenerFunc func(ctx context.Context) (Handle, error)

func (f OpenerFunc) Open(ctx context.Context) (Handle, error) { return f(ctx) }

// Row is one catalog row keyed by field name.
type Row map[string]any

// String returns the field as text. Missing and NULL fields are "".
func (r Row) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return toString(v)
	}
}

// Bool returns the field as a strict boolean. Missing, NULL and
// unrecognised values are false.
func (r Row) Bool(field string) bool {
	switch v := r[field].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case int32:
		return v != 0
	case int16:
		return v != 0
	case int8:
		return v != 0
	case uint8:
		return v != 0
	case uint64:
		return v != 0
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	default:
		return false
	}
}

// Int returns the field as an integer, or 0 when it is not numeric.
func (r Row) Int(field string) int64 {
	switch v := r[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case uint64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// restriction returns position i of rs, or "" when it was not supplied.
func restriction(rs []string, i int) string {
	if i < len(rs) {
		return strings.TrimSpace(rs[i])
	}
	return ""
}

func unknownCollection(name string) error {
	return errs.Newf(errs.ErrKindInvalidInput, "unknown catalog collection %q", name)
}

// field reads col from a scanned driver row. Engines disagree on the case
// of information_schema labels, so the lookup ignores case.
func field(src map[string]any, col string) any {
	if v, ok := src[col]; ok {
		return v
	}
	for k, v := range src {
		if strings.EqualFold(k, col) {
			return v
		}
	}
	return nil
}

// text is field() decoded the way Row.String decodes.
func text(src map[string]any, col string) string {
	return Row{col: field(src, col)}.String(col)
}

// matches reports whether value passes an optional restriction.
func matches(restrict, value string) bool {
	return restrict == "" || restrict == value
}
