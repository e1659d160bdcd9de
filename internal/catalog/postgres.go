package catalog

import (
	"context"
	"strings"

	"github.com/koustreak/sqlschema/internal/database"
)

// DefaultPostgresSchema is used when restriction 1 is empty.
const DefaultPostgresSchema = "public"

// Postgres serves the catalog collections from pg_catalog. Restriction 0
// is ignored (a connection sees one database); restriction 1 selects the
// schema.
type Postgres struct {
	db database.DB
}

// NewPostgres wraps an open PostgreSQL driver.
func NewPostgres(db database.DB) *Postgres {
	return &Postgres{db: db}
}

func (c *Postgres) Query(ctx context.Context, collection string, restrictions ...string) ([]Row, error) {
	schema := restriction(restrictions, RestrictSchema)
	if schema == "" {
		schema = DefaultPostgresSchema
	}
	table := restriction(restrictions, RestrictTable)

	switch collection {
	case Catalogs:
		return c.catalogs(ctx, restriction(restrictions, 0))
	case Tables:
		return c.tables(ctx, schema, table, restriction(restrictions, 3))
	case Views:
		return c.views(ctx, schema, table)
	case Columns:
		return c.columns(ctx, schema, table, restriction(restrictions, 3))
	case Indexes:
		return c.indexes(ctx, schema, table, restriction(restrictions, 4))
	case IndexColumns:
		return c.indexColumns(ctx, schema, table, restriction(restrictions, 3), restriction(restrictions, 4))
	case ForeignKeys:
		return c.foreignKeys(ctx, schema, table, restriction(restrictions, 3))
	default:
		return nil, unknownCollection(collection)
	}
}

func (c *Postgres) fetch(ctx context.Context, q string, args ...any) ([]map[string]any, error) {
	rows, err := c.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return database.ScanRows(rows)
}

func (c *Postgres) catalogs(ctx context.Context, name string) ([]Row, error) {
	if !matches(name, MainCatalog) {
		return []Row{}, nil
	}
	raw, err := c.fetch(ctx, `SELECT current_database()::text AS name`)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row{
			FieldName:        MainCatalog,
			FieldDescription: text(r, "name"),
		})
	}
	return rows, nil
}

const pgTables = `
SELECT c.relname::text AS table_name,
       c.relkind::text AS relkind
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p', 'f', 'v', 'm')
  AND ($2::text = '' OR c.relname::text = $2)
ORDER BY c.oid`

func (c *Postgres) tables(ctx context.Context, schema, name, kind string) ([]Row, error) {
	raw, err := c.fetch(ctx, pgTables, schema, name)
	if err != nil {
		return nil, err
	}

	system := schema == "pg_catalog" || schema == "information_schema"
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		tableType := TypeTable
		switch {
		case system:
			tableType = TypeSystemTable
		case text(r, "relkind") == "v" || text(r, "relkind") == "m":
			tableType = TypeView
		}
		if kind != "" && !strings.EqualFold(kind, tableType) {
			continue
		}
		rows = append(rows, Row{
			FieldTableName: text(r, "table_name"),
			FieldTableType: tableType,
		})
	}
	return rows, nil
}

const pgViews = `
SELECT c.relname::text AS table_name,
       pg_get_viewdef(c.oid, true) AS view_definition
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('v', 'm')
  AND ($2::text = '' OR c.relname::text = $2)
ORDER BY c.oid`

func (c *Postgres) views(ctx context.Context, schema, name string) ([]Row, error) {
	raw, err := c.fetch(ctx, pgViews, schema, name)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row{
			FieldTableName:      text(r, "table_name"),
			FieldViewDefinition: text(r, "view_definition"),
		})
	}
	return rows, nil
}

const pgColumns = `
SELECT c.relname::text AS table_name,
       a.attname::text AS column_name,
       a.attnum::int8 AS ordinal_position,
       format_type(a.atttypid, a.atttypmod) AS declared_type,
       NOT a.attnotnull AS is_nullable,
       pg_get_expr(d.adbin, d.adrelid) AS column_default
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p', 'f', 'v', 'm')
  AND a.attnum > 0
  AND NOT a.attisdropped
  AND ($2::text = '' OR c.relname::text = $2)
  AND ($3::text = '' OR a.attname::text = $3)
ORDER BY c.oid, a.attnum`

func (c *Postgres) columns(ctx context.Context, schema, table, column string) ([]Row, error) {
	raw, err := c.fetch(ctx, pgColumns, schema, table, column)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		declared := text(r, "declared_type")
		row := Row{
			FieldTableName:    text(r, "table_name"),
			FieldColumnName:   text(r, "column_name"),
			FieldOrdinal:      field(r, "ordinal_position"),
			FieldDataType:     PostgresTypeID(declared),
			FieldDeclaredType: declared,
			FieldIsNullable:   field(r, "is_nullable"),
		}
		if def := field(r, "column_default"); def != nil {
			row[FieldDefault] = text(r, "column_default")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PostgresTypeID maps a format_type() rendering to a DATA_TYPE identifier.
func PostgresTypeID(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if strings.HasSuffix(t, "[]") {
		return TypeObject
	}
	// "numeric(10,2)", "timestamp(3) with time zone"
	if i, j := strings.IndexByte(t, '('), strings.IndexByte(t, ')'); i >= 0 && j > i {
		t = strings.Join(strings.Fields(t[:i]+" "+t[j+1:]), " ")
	}

	switch t {
	case "bigint", "integer", "smallint", "int8", "int4", "int2", "bigserial", "serial", "smallserial", "oid":
		return TypeInt64
	case "numeric", "decimal", "money":
		return TypeDecimal
	case "text", "character varying", "varchar", "character", "char", "\"char\"", "name", "citext", "uuid":
		return TypeString
	case "double precision", "real", "float8", "float4":
		return TypeDouble
	case "boolean", "bool":
		return TypeBool
	case "bytea":
		return TypeBlob
	}
	if strings.HasPrefix(t, "timestamp") || strings.HasPrefix(t, "time") || t == "date" || t == "interval" {
		return TypeDateTime
	}
	return TypeObject
}

const pgIndexes = `
SELECT t.relname::text AS table_name,
       i.relname::text AS index_name,
       ix.indisunique AS is_unique,
       ix.indisprimary AS is_primary,
       ix.indisclustered AS is_clustered
FROM pg_index ix
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
WHERE n.nspname = $1
  AND ($2::text = '' OR t.relname::text = $2)
  AND ($3::text = '' OR i.relname::text = $3)
ORDER BY t.oid, ix.indisprimary DESC, i.oid`

func (c *Postgres) indexes(ctx context.Context, schema, table, index string) ([]Row, error) {
	raw, err := c.fetch(ctx, pgIndexes, schema, table, index)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row{
			FieldTableName:  text(r, "table_name"),
			FieldIndexName:  text(r, "index_name"),
			FieldUnique:     field(r, "is_unique"),
			FieldPrimaryKey: field(r, "is_primary"),
			FieldClustered:  field(r, "is_clustered"),
		})
	}
	return rows, nil
}

// Expression members (attnum 0) drop out of the attribute join.
const pgIndexColumns = `
SELECT t.relname::text AS table_name,
       i.relname::text AS index_name,
       a.attname::text AS column_name,
       k.ord::int8 AS ordinal_position
FROM pg_index ix
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE n.nspname = $1
  AND ($2::text = '' OR t.relname::text = $2)
  AND ($3::text = '' OR i.relname::text = $3)
  AND ($4::text = '' OR a.attname::text = $4)
ORDER BY t.oid, i.oid, k.ord`

func (c *Postgres) indexColumns(ctx context.Context, schema, table, index, column string) ([]Row, error) {
	raw, err := c.fetch(ctx, pgIndexColumns, schema, table, index, column)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row{
			FieldTableName:  text(r, "table_name"),
			FieldIndexName:  text(r, "index_name"),
			FieldColumnName: text(r, "column_name"),
			FieldOrdinal:    field(r, "ordinal_position"),
		})
	}
	return rows, nil
}

const pgForeignKeys = `
SELECT con.conname::text AS constraint_name,
       t.relname::text AS table_name,
       fa.attname::text AS from_column,
       rt.relname::text AS to_table,
       ta.attname::text AS to_column,
       con.confupdtype::text AS on_update,
       con.confdeltype::text AS on_delete
FROM pg_constraint con
JOIN pg_class t ON t.oid = con.conrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_class rt ON rt.oid = con.confrelid
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(from_attnum, to_attnum, ord)
JOIN pg_attribute fa ON fa.attrelid = con.conrelid AND fa.attnum = k.from_attnum
JOIN pg_attribute ta ON ta.attrelid = con.confrelid AND ta.attnum = k.to_attnum
WHERE con.contype = 'f'
  AND n.nspname = $1
  AND ($2::text = '' OR t.relname::text = $2)
  AND ($3::text = '' OR con.conname::text = $3)
ORDER BY t.oid, con.conname, k.ord`

func (c *Postgres) foreignKeys(ctx context.Context, schema, table, constraint string) ([]Row, error) {
	raw, err := c.fetch(ctx, pgForeignKeys, schema, table, constraint)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row{
			FieldConstraintName: text(r, "constraint_name"),
			FieldTableName:      text(r, "table_name"),
			FieldFromColumn:     text(r, "from_column"),
			FieldToTable:        text(r, "to_table"),
			FieldToColumn:       text(r, "to_column"),
			FieldOnUpdate:       pgAction(text(r, "on_update")),
			FieldOnDelete:       pgAction(text(r, "on_delete")),
		})
	}
	return rows, nil
}

// pgAction spells out pg_constraint's one-letter referential action codes.
func pgAction(code string) string {
	switch code {
	case "a":
		return "NO ACTION"
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return code
	}
}
