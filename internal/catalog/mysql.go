package catalog

import (
	"context"
	"strings"

	"github.com/koustreak/sqlschema/internal/database"
)

// MySQL serves the catalog collections from information_schema. The
// schema comes from restriction 1, then restriction 0 (unless it is
// MainCatalog), then the connection's current DATABASE().
type MySQL struct {
	db database.DB
}

// NewMySQL wraps an open MySQL driver.
func NewMySQL(db database.DB) *MySQL {
	return &MySQL{db: db}
}

func (c *MySQL) Query(ctx context.Context, collection string, restrictions ...string) ([]Row, error) {
	if collection == Catalogs {
		return c.catalogs(ctx, restriction(restrictions, 0))
	}
	if !isMySQLCollection(collection) {
		return nil, unknownCollection(collection)
	}

	schema, err := c.schema(ctx, restrictions)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		// no database selected on this connection
		return []Row{}, nil
	}
	table := restriction(restrictions, RestrictTable)

	switch collection {
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
	default:
		return c.foreignKeys(ctx, schema, table, restriction(restrictions, 3))
	}
}

func isMySQLCollection(name string) bool {
	switch name {
	case Tables, Views, Columns, Indexes, IndexColumns, ForeignKeys:
		return true
	}
	return false
}

func (c *MySQL) fetch(ctx context.Context, q string, args ...any) ([]map[string]any, error) {
	rows, err := c.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return database.ScanRows(rows)
}

func (c *MySQL) current(ctx context.Context) (string, error) {
	raw, err := c.fetch(ctx, `SELECT DATABASE() AS name`)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}
	return text(raw[0], "name"), nil
}

func (c *MySQL) schema(ctx context.Context, rs []string) (string, error) {
	if s := restriction(rs, RestrictSchema); s != "" {
		return s, nil
	}
	if s := restriction(rs, RestrictCatalog); s != "" && s != MainCatalog {
		return s, nil
	}
	return c.current(ctx)
}

func (c *MySQL) catalogs(ctx context.Context, name string) ([]Row, error) {
	if !matches(name, MainCatalog) {
		return []Row{}, nil
	}
	current, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	if current == "" {
		return []Row{}, nil
	}
	return []Row{{FieldName: MainCatalog, FieldDescription: current}}, nil
}

func (c *MySQL) tables(ctx context.Context, schema, name, kind string) ([]Row, error) {
	raw, err := c.selectRows(ctx, database.Select("information_schema.tables", database.DialectMySQL).
		Columns("table_name", "table_type").
		Where("table_schema", "=", schema).
		WhereIf("table_name", name).
		OrderBy("table_name", database.Asc))
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		var tableType string
		switch text(r, "table_type") {
		case "VIEW":
			tableType = TypeView
		case "SYSTEM VIEW":
			tableType = TypeSystemTable
		default:
			tableType = TypeTable
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

func (c *MySQL) selectRows(ctx context.Context, b *database.SelectBuilder) ([]map[string]any, error) {
	q, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, q, args...)
}

func (c *MySQL) views(ctx context.Context, schema, name string) ([]Row, error) {
	raw, err := c.selectRows(ctx, database.Select("information_schema.views", database.DialectMySQL).
		Columns("table_name", "view_definition").
		Where("table_schema", "=", schema).
		WhereIf("table_name", name).
		OrderBy("table_name", database.Asc))
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

func (c *MySQL) columns(ctx context.Context, schema, table, column string) ([]Row, error) {
	raw, err := c.selectRows(ctx, database.Select("information_schema.columns", database.DialectMySQL).
		Columns("table_name", "column_name", "ordinal_position", "data_type", "column_type", "is_nullable", "column_default").
		Where("table_schema", "=", schema).
		WhereIf("table_name", table).
		WhereIf("column_name", column).
		OrderBy("table_name", database.Asc).
		OrderBy("ordinal_position", database.Asc))
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		row := Row{
			FieldTableName:    text(r, "table_name"),
			FieldColumnName:   text(r, "column_name"),
			FieldOrdinal:      Row{"n": field(r, "ordinal_position")}.Int("n"),
			FieldDataType:     MySQLTypeID(text(r, "data_type"), text(r, "column_type")),
			FieldDeclaredType: text(r, "column_type"),
			FieldIsNullable:   text(r, "is_nullable") == "YES",
		}
		if field(r, "column_default") != nil {
			row[FieldDefault] = text(r, "column_default")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MySQLTypeID maps information_schema data_type / column_type to a
// DATA_TYPE identifier. tinyint(1) and bit(1) are the usual boolean
// spellings.
func MySQLTypeID(dataType, columnType string) string {
	ct := strings.ToLower(columnType)
	switch strings.ToLower(dataType) {
	case "tinyint":
		if strings.HasPrefix(ct, "tinyint(1)") {
			return TypeBool
		}
		return TypeInt64
	case "smallint", "mediumint", "int", "integer", "bigint", "year":
		return TypeInt64
	case "decimal", "numeric":
		return TypeDecimal
	case "char", "varchar", "tinytext", "text", "mediumtext", "longtext", "enum", "set":
		return TypeString
	case "float", "double", "real":
		return TypeDouble
	case "bit":
		if ct == "bit(1)" {
			return TypeBool
		}
		return TypeBlob
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob":
		return TypeBlob
	case "date", "datetime", "timestamp", "time":
		return TypeDateTime
	default:
		return TypeObject
	}
}

// statistics returns one row per index member, in index order.
func (c *MySQL) statistics(ctx context.Context, schema, table, index, column string) ([]map[string]any, error) {
	return c.selectRows(ctx, database.Select("information_schema.statistics", database.DialectMySQL).
		Columns("table_name", "index_name", "non_unique", "seq_in_index", "column_name").
		Where("table_schema", "=", schema).
		WhereIf("table_name", table).
		WhereIf("index_name", index).
		WhereIf("column_name", column).
		OrderBy("table_name", database.Asc).
		OrderBy("index_name", database.Asc).
		OrderBy("seq_in_index", database.Asc))
}

func (c *MySQL) indexes(ctx context.Context, schema, table, index string) ([]Row, error) {
	raw, err := c.statistics(ctx, schema, table, index, "")
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	seen := map[string]bool{}
	for _, r := range raw {
		t, name := text(r, "table_name"), text(r, "index_name")
		if seen[t+"\x00"+name] {
			continue
		}
		seen[t+"\x00"+name] = true
		rows = append(rows, Row{
			FieldTableName:  t,
			FieldIndexName:  name,
			FieldUnique:     Row{"n": field(r, "non_unique")}.Int("n") == 0,
			FieldPrimaryKey: name == "PRIMARY",
			FieldClustered:  false,
		})
	}
	return rows, nil
}

func (c *MySQL) indexColumns(ctx context.Context, schema, table, index, column string) ([]Row, error) {
	raw, err := c.statistics(ctx, schema, table, index, column)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		// functional key parts have no column name
		if field(r, "column_name") == nil {
			continue
		}
		rows = append(rows, Row{
			FieldTableName:  text(r, "table_name"),
			FieldIndexName:  text(r, "index_name"),
			FieldColumnName: text(r, "column_name"),
			FieldOrdinal:    Row{"n": field(r, "seq_in_index")}.Int("n"),
		})
	}
	return rows, nil
}

const mysqlForeignKeys = `
SELECT k.constraint_name AS constraint_name,
       k.table_name AS table_name,
       k.column_name AS from_column,
       k.referenced_table_name AS to_table,
       k.referenced_column_name AS to_column,
       r.update_rule AS on_update,
       r.delete_rule AS on_delete
FROM information_schema.key_column_usage k
JOIN information_schema.referential_constraints r
  ON r.constraint_schema = k.constraint_schema
 AND r.constraint_name = k.constraint_name
 AND r.table_name = k.table_name
WHERE k.table_schema = ?
  AND k.referenced_table_name IS NOT NULL`

func (c *MySQL) foreignKeys(ctx context.Context, schema, table, constraint string) ([]Row, error) {
	q := mysqlForeignKeys
	args := []any{schema}
	if table != "" {
		q += "\n  AND k.table_name = ?"
		args = append(args, table)
	}
	if constraint != "" {
		q += "\n  AND k.constraint_name = ?"
		args = append(args, constraint)
	}
	q += "\nORDER BY k.table_name, k.constraint_name, k.ordinal_position"

	raw, err := c.fetch(ctx, q, args...)
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
			FieldOnUpdate:       text(r, "on_update"),
			FieldOnDelete:       text(r, "on_delete"),
		})
	}
	return rows, nil
}
