package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/schema"
	"github.com/koustreak/sqlschema/internal/sqlitetest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	defer a.close()

	root := a.root()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestTables(t *testing.T) {
	db := sqlitetest.NewShop(t)

	out, err := run(t, "--dsn", db, "tables")
	require.NoError(t, err)

	want := ""
	for _, n := range sqlitetest.ShopTables {
		want += n + "\n"
	}
	assert.Equal(t, want, out)
}

func TestViews_SourceFlag(t *testing.T) {
	db := sqlitetest.NewShop(t)

	out, err := run(t, "--driver", "postgres", "--source", db, "views", "-o", "json")
	require.NoError(t, err, "a local --source is always SQLite")

	var views []schema.View
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.Len(t, views, len(sqlitetest.ShopViews))
}

func TestDescribe_JSON(t *testing.T) {
	db := sqlitetest.NewShop(t)

	out, err := run(t, "--dsn", db, "--format", "json", "describe", "orders")
	require.NoError(t, err)

	var ts schema.TableSchema
	require.NoError(t, json.Unmarshal([]byte(out), &ts))
	assert.Equal(t, "orders", ts.Name)
	assert.Len(t, ts.Columns, 4)
	require.NotNil(t, ts.PrimaryKey)
	assert.Equal(t, []string{"id"}, ts.PrimaryKey.MemberColumns)
	require.Len(t, ts.ForeignKeys, 1)
	assert.Equal(t, "customers", ts.ForeignKeys[0].ToTable)
	assert.Contains(t, ts.Indexes, "idx_orders_customer_id")
}

func TestDescribe_Suggests(t *testing.T) {
	db := sqlitetest.NewShop(t)

	_, err := run(t, "--dsn", db, "describe", "ordrs")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), `did you mean "orders"`)
}

func TestView_Text(t *testing.T) {
	db := sqlitetest.NewShop(t)

	out, err := run(t, "--dsn", db, "--no-color", "view", "v_customers")
	require.NoError(t, err)
	assert.Contains(t, out, "View v_customers\n")
	assert.Contains(t, out, "CREATE VIEW v_customers AS SELECT * FROM customers\n")
}

func TestInspect_YAML(t *testing.T) {
	db := sqlitetest.NewShop(t)

	out, err := run(t, "--dsn", db, "-o", "yaml", "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "name: customers")
	assert.Contains(t, out, "native_type: NONE")
}

func TestErrors(t *testing.T) {
	_, err := run(t, "tables")
	assert.True(t, errs.IsInvalidInput(err), "no database: %v", err)

	_, err = run(t, "--dsn", filepath.Join(t.TempDir(), "missing.db"), "tables")
	assert.True(t, errs.IsNotFound(err))

	_, err = run(t, "--dsn", "x.db", "--format", "xml", "tables")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = run(t, "--driver", "oracle", "--dsn", "x", "tables")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = run(t, "sources")
	assert.True(t, errs.IsInvalidInput(err), "storage not configured")

	_, err = run(t, "--source", "s3://bucket", "tables")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--config", "/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlschema dev")
}

func TestSuggest(t *testing.T) {
	candidates := []string{"customers", "orders", "order_items", "int_pkey"}

	assert.Equal(t, []string{"orders"}, suggest("ordrs", candidates)[:1])
	assert.Contains(t, suggest("ORDER", candidates), "order_items")
	assert.Empty(t, suggest("zzz", candidates))
	assert.LessOrEqual(t, len(suggest("e", candidates)), maxSuggestions)

	assert.Equal(t, `"a"`, quoteList([]string{"a"}))
	assert.Equal(t, `"a", "b" or "c"`, quoteList([]string{"a", "b", "c"}))
}
