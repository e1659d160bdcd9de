// Package sqlitetest builds throwaway SQLite database files for tests.
package sqlitetest

import (
	_ "embed"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Shop is the reference schema: eight tables covering every primary-key
// shape SQLite has (rowid alias, AUTOINCREMENT, text key, typeless key,
// none), two foreign keys, and a SELECT * view over each table.
//
//go:embed shop.sql
var Shop string

// ShopTables and ShopViews list the fixture objects in creation order.
var (
	ShopTables = []string{
		"simple_type_menagerie", "int_pkey", "txt_pkey", "typeless_pkey",
		"int_ai_pkey", "customers", "orders", "order_items",
	}
	ShopViews = []string{
		"v_simple_type_menagerie", "v_int_pkey", "v_txt_pkey", "v_typeless_pkey",
		"v_int_ai_pkey", "v_customers", "v_orders", "v_order_items",
	}
)

// New creates a database file under t.TempDir, runs each statement of
// script against it and returns the file path.
func New(t testing.TB, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schema.db")
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()

	for _, stmt := range Statements(script) {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

// NewShop is New with the Shop schema.
func NewShop(t testing.TB) string {
	t.Helper()
	return New(t, Shop)
}

// Statements splits a script on semicolons that end a line.
func Statements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";\n") {
		if s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";")); s != "" {
			out = append(out, s)
		}
	}
	return out
}
