package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mysqlShop() *fakeDB {
	return &fakeDB{results: map[string]fakeResult{
		"DATABASE()": {cols: []string{"name"}, data: [][]any{{[]byte("shop")}}},
		"`information_schema`.`columns`": {
			// MySQL 8 reports information_schema labels in upper case
			cols: []string{"TABLE_NAME", "COLUMN_NAME", "ORDINAL_POSITION", "DATA_TYPE", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_DEFAULT"},
			data: [][]any{
				{[]byte("orders"), []byte("id"), int64(1), []byte("int"), []byte("int unsigned"), []byte("NO"), nil},
				{[]byte("orders"), []byte("paid"), int64(2), []byte("tinyint"), []byte("tinyint(1)"), []byte("YES"), []byte("0")},
			},
		},
		"`information_schema`.`statistics`": {
			cols: []string{"TABLE_NAME", "INDEX_NAME", "NON_UNIQUE", "SEQ_IN_INDEX", "COLUMN_NAME"},
			data: [][]any{
				{"orders", "PRIMARY", int64(0), int64(1), "id"},
				{"orders", "idx_multi", []byte("1"), int64(1), "customer_id"},
				{"orders", "idx_multi", []byte("1"), int64(2), "order_date"},
				{"orders", "idx_expr", int64(1), int64(1), nil},
			},
		},
		"referential_constraints": {
			cols: []string{"constraint_name", "table_name", "from_column", "to_table", "to_column", "on_update", "on_delete"},
			data: [][]any{
				{"fk_orders_customer", "orders", "customer_id", "customers", "id", "RESTRICT", "CASCADE"},
			},
		},
	}}
}

func TestMySQL_Catalogs(t *testing.T) {
	rows, err := NewMySQL(mysqlShop()).Query(context.Background(), Catalogs, MainCatalog)
	require.NoError(t, err)
	assert.Equal(t, []Row{{FieldName: MainCatalog, FieldDescription: "shop"}}, rows)
}

func TestMySQL_NoDatabaseSelected(t *testing.T) {
	db := &fakeDB{results: map[string]fakeResult{
		"DATABASE()": {cols: []string{"name"}, data: [][]any{{nil}}},
	}}

	rows, err := NewMySQL(db).Query(context.Background(), Catalogs)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = NewMySQL(db).Query(context.Background(), Tables)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMySQL_SchemaResolution(t *testing.T) {
	db := mysqlShop()
	c := NewMySQL(db)

	_, err := c.Query(context.Background(), Views, "", "", "v_orders")
	require.NoError(t, err)
	require.Len(t, db.queries, 2, "current database is looked up first")
	assert.Equal(t, []any{"shop", "v_orders"}, db.args[1])

	_, err = c.Query(context.Background(), Views, "archive")
	require.NoError(t, err)
	assert.Equal(t, []any{"archive"}, db.args[2])
}

func TestMySQL_Columns(t *testing.T) {
	rows, err := NewMySQL(mysqlShop()).Query(context.Background(), Columns, "", "", "orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "orders", rows[0].String(FieldTableName))
	assert.Equal(t, TypeInt64, rows[0].String(FieldDataType))
	assert.False(t, rows[0].Bool(FieldIsNullable))
	assert.Equal(t, TypeBool, rows[1].String(FieldDataType))
	assert.True(t, rows[1].Bool(FieldIsNullable))
	assert.Equal(t, "0", rows[1].String(FieldDefault))
	assert.Equal(t, int64(2), rows[1].Int(FieldOrdinal))
}

func TestMySQL_Indexes(t *testing.T) {
	rows, err := NewMySQL(mysqlShop()).Query(context.Background(), Indexes, "", "", "orders")
	require.NoError(t, err)
	require.Equal(t, []string{"PRIMARY", "idx_multi", "idx_expr"}, column(rows, FieldIndexName))

	assert.True(t, rows[0].Bool(FieldPrimaryKey))
	assert.True(t, rows[0].Bool(FieldUnique))
	assert.False(t, rows[1].Bool(FieldUnique))
	assert.False(t, rows[1].Bool(FieldPrimaryKey))
}

func TestMySQL_IndexColumns(t *testing.T) {
	rows, err := NewMySQL(mysqlShop()).Query(context.Background(), IndexColumns, "", "", "orders")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "customer_id", "order_date"}, column(rows, FieldColumnName))
	assert.Equal(t, int64(2), rows[2].Int(FieldOrdinal))
}

func TestMySQL_ForeignKeys(t *testing.T) {
	db := mysqlShop()

	rows, err := NewMySQL(db).Query(context.Background(), ForeignKeys, "", "", "orders", "fk_orders_customer")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CASCADE", rows[0].String(FieldOnDelete))
	assert.Equal(t, []any{"shop", "orders", "fk_orders_customer"}, db.args[1])
	assert.Contains(t, db.queries[1], "AND k.constraint_name = ?")
}

func TestMySQLTypeID(t *testing.T) {
	tests := []struct {
		dataType, columnType, want string
	}{
		{"int", "int(11)", TypeInt64},
		{"bigint", "bigint unsigned", TypeInt64},
		{"tinyint", "tinyint(1)", TypeBool},
		{"tinyint", "tinyint(4)", TypeInt64},
		{"decimal", "decimal(10,2)", TypeDecimal},
		{"varchar", "varchar(255)", TypeString},
		{"enum", "enum('a','b')", TypeString},
		{"double", "double", TypeDouble},
		{"bit", "bit(1)", TypeBool},
		{"bit", "bit(8)", TypeBlob},
		{"longblob", "longblob", TypeBlob},
		{"datetime", "datetime(6)", TypeDateTime},
		{"json", "json", TypeObject},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MySQLTypeID(tt.dataType, tt.columnType), tt.columnType)
	}
}
