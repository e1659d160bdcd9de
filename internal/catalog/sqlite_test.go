package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlschema/internal/database"
	"github.com/koustreak/sqlschema/internal/database/sqlite"
	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/sqlitetest"
)

func openShop(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := sqlitetest.NewShop(t)
	d, err := sqlite.New(context.Background(), database.DefaultConfig(database.DriverSQLite, path))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return NewSQLite(d), path
}

func column(rows []Row, field string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String(field)
	}
	return out
}

func TestSQLite_Catalogs(t *testing.T) {
	c, path := openShop(t)

	rows, err := c.Query(context.Background(), Catalogs, MainCatalog)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	want, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(rows[0].String(FieldDescription))
	require.NoError(t, err)
	assert.Equal(t, MainCatalog, rows[0].String(FieldName))
	assert.Equal(t, want, got)

	rows, err = c.Query(context.Background(), Catalogs, "nope")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_Tables(t *testing.T) {
	c, _ := openShop(t)
	ctx := context.Background()

	rows, err := c.Query(ctx, Tables, "", "", "", TypeTable)
	require.NoError(t, err)
	assert.Equal(t, sqlitetest.ShopTables, column(rows, FieldTableName))

	rows, err = c.Query(ctx, Tables, "", "", "", TypeView)
	require.NoError(t, err)
	assert.Equal(t, sqlitetest.ShopViews, column(rows, FieldTableName))

	rows, err = c.Query(ctx, Tables, "", "", "", TypeSystemTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlite_sequence"}, column(rows, FieldTableName))

	rows, err = c.Query(ctx, Tables)
	require.NoError(t, err)
	assert.Len(t, rows, len(sqlitetest.ShopTables)+len(sqlitetest.ShopViews)+1)

	rows, err = c.Query(ctx, Tables, "", "", "orders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, TypeTable, rows[0].String(FieldTableType))
}

func TestSQLite_Columns(t *testing.T) {
	c, _ := openShop(t)

	rows, err := c.Query(context.Background(), Columns, "", "", "simple_type_menagerie")
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"text_column", "numeric_column", "integer_column", "typeless_column"},
		column(rows, FieldColumnName))
	assert.Equal(t,
		[]string{TypeString, TypeDecimal, TypeInt64, TypeObject},
		column(rows, FieldDataType))
	for _, r := range rows {
		assert.True(t, r.Bool(FieldIsNullable), r.String(FieldColumnName))
	}

	rows, err = c.Query(context.Background(), Columns, "", "", "int_pkey")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Bool(FieldIsNullable), "a primary key column is never nullable")
	assert.False(t, rows[1].Bool(FieldIsNullable))
	assert.Equal(t, "INTEGER", rows[0].String(FieldDeclaredType))
}

func TestSQLite_ColumnsRestrictedByName(t *testing.T) {
	c, _ := openShop(t)

	rows, err := c.Query(context.Background(), Columns, "", "", "orders", "order_total")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, TypeDecimal, rows[0].String(FieldDataType))
	assert.Equal(t, int64(4), rows[0].Int(FieldOrdinal))

	rows, err = c.Query(context.Background(), Columns, "", "", "no_such_table")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSQLite_ViewColumns(t *testing.T) {
	c, _ := openShop(t)

	rows, err := c.Query(context.Background(), Columns, "", "", "v_simple_type_menagerie")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{TypeString, TypeDecimal, TypeInt64},
		column(rows, FieldDataType)[:3])
	assert.NotContains(t,
		[]string{TypeInt64, TypeDecimal, TypeString},
		rows[3].String(FieldDataType), "typeless view column")
}

func TestSQLite_IndexesSynthesizesRowidKey(t *testing.T) {
	c, _ := openShop(t)

	rows, err := c.Query(context.Background(), Indexes, "", "", "int_pkey")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "sqlite_master_PK_int_pkey", rows[0].String(FieldIndexName))
	assert.True(t, rows[0].Bool(FieldPrimaryKey))
	assert.True(t, rows[0].Bool(FieldUnique))
	assert.ElementsMatch(t, []string{"ip_id", "idx_ip_se"}, column(rows[1:], FieldIndexName))
	for _, r := range rows {
		assert.False(t, r.Bool(FieldClustered))
		assert.Equal(t, "int_pkey", r.String(FieldTableName))
	}
}

func TestSQLite_IndexesUsesDeclaredKey(t *testing.T) {
	c, _ := openShop(t)

	rows, err := c.Query(context.Background(), Indexes, "", "", "txt_pkey")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idx_tp_se", "sqlite_autoindex_txt_pkey_1"}, column(rows, FieldIndexName))

	for _, r := range rows {
		isAuto := r.String(FieldIndexName) == "sqlite_autoindex_txt_pkey_1"
		assert.Equal(t, isAuto, r.Bool(FieldPrimaryKey))
		assert.Equal(t, isAuto, r.Bool(FieldUnique))
	}

	rows, err = c.Query(context.Background(), Indexes, "", "", "simple_type_menagerie")
	require.NoError(t, err)
	for _, r := range rows {
		assert.False(t, r.Bool(FieldPrimaryKey), "a table without a key gets no synthetic index")
	}
}

func TestSQLite_IndexesByName(t *testing.T) {
	c, _ := openShop(t)

	rows, err := c.Query(context.Background(), Indexes, "", "", "int_pkey", "", "ip_id")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Bool(FieldUnique))
	assert.False(t, rows[0].Bool(FieldPrimaryKey))
}

func TestSQLite_IndexColumns(t *testing.T) {
	c, _ := openShop(t)
	ctx := context.Background()

	rows, err := c.Query(ctx, IndexColumns, "", "", "simple_type_menagerie", "stm_multi")
	require.NoError(t, err)
	assert.Equal(t, []string{"numeric_column", "integer_column", "typeless_column"}, column(rows, FieldColumnName))

	rows, err = c.Query(ctx, IndexColumns, "", "", "int_ai_pkey", "sqlite_master_PK_int_ai_pkey")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, column(rows, FieldColumnName))

	rows, err = c.Query(ctx, IndexColumns, "", "", "customers", "ip_id")
	require.NoError(t, err)
	assert.Empty(t, rows, "an index only matches within its own table")
}

func TestSQLite_ForeignKeys(t *testing.T) {
	c, _ := openShop(t)
	ctx := context.Background()

	rows, err := c.Query(ctx, ForeignKeys, "", "", "orders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{
		FieldConstraintName: "FK_orders_0_0",
		FieldTableName:      "orders",
		FieldFromColumn:     "customer_id",
		FieldToTable:        "customers",
		FieldToColumn:       "id",
		FieldOnUpdate:       "NO ACTION",
		FieldOnDelete:       "CASCADE",
	}, rows[0])

	// REFERENCES orders with no column list
	rows, err = c.Query(ctx, ForeignKeys, "", "", "order_items")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "orders", rows[0].String(FieldToTable))
	assert.Equal(t, "id", rows[0].String(FieldToColumn))

	rows, err = c.Query(ctx, ForeignKeys)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = c.Query(ctx, ForeignKeys, "", "", "orders", "FK_orders_9_9")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_Views(t *testing.T) {
	c, _ := openShop(t)

	rows, err := c.Query(context.Background(), Views, "", "", "v_orders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CREATE VIEW v_orders AS SELECT * FROM orders", rows[0].String(FieldViewDefinition))

	rows, err = c.Query(context.Background(), Views)
	require.NoError(t, err)
	assert.Equal(t, sqlitetest.ShopViews, column(rows, FieldTableName))
}

func TestSQLite_UnknownCollection(t *testing.T) {
	c, _ := openShop(t)

	_, err := c.Query(context.Background(), "Procedures")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestSQLiteTypeID(t *testing.T) {
	tests := map[string]string{
		"":                  TypeObject,
		"NONE":              TypeObject,
		"none":              TypeObject,
		"INTEGER":           TypeInt64,
		"BIGINT":            TypeInt64,
		"integer":           TypeInt64,
		"VARCHAR(20)":       TypeString,
		"CLOB":              TypeString,
		"text":              TypeString,
		"BLOB":              TypeBlob,
		"REAL":              TypeDouble,
		"DOUBLE PRECISION":  TypeDouble,
		"FLOAT":             TypeDouble,
		"NUMERIC":           TypeDecimal,
		"DECIMAL(10,5)":     TypeDecimal,
		"BOOLEAN":           TypeDecimal,
		"DATETIME":          TypeDecimal,
		"CHARINT":           TypeInt64,
	}
	for declared, want := range tests {
		assert.Equal(t, want, SQLiteTypeID(declared), declared)
	}
}
