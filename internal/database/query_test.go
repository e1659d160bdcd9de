package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlschema/internal/errs"
)

func TestSelectBuilder(t *testing.T) {
	tests := []struct {
		name     string
		builder  *SelectBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "star",
			builder: Select("sqlite_master", DialectSQLite),
			wantSQL: `SELECT * FROM "sqlite_master"`,
		},
		{
			name: "sqlite in list and order",
			builder: Select("sqlite_master", DialectSQLite).
				Columns("name", "type").
				WhereIn("type", "table", "view").
				OrderBy("rowid", Asc),
			wantSQL:  `SELECT "name", "type" FROM "sqlite_master" WHERE "type" IN (?, ?) ORDER BY "rowid" ASC`,
			wantArgs: []any{"table", "view"},
		},
		{
			name: "postgres numbered placeholders",
			builder: Select("information_schema.columns", DialectPostgres).
				Columns("column_name").
				Where("table_schema", "=", "public").
				WhereIf("table_name", "orders").
				WhereIf("column_name", "").
				OrderBy("ordinal_position", Desc),
			wantSQL:  `SELECT "column_name" FROM "information_schema"."columns" WHERE "table_schema" = $1 AND "table_name" = $2 ORDER BY "ordinal_position" DESC`,
			wantArgs: []any{"public", "orders"},
		},
		{
			name: "mysql backticks",
			builder: Select("information_schema.tables", DialectMySQL).
				Columns("table_name").
				Where("table_schema", "like", "shop%"),
			wantSQL:  "SELECT `table_name` FROM `information_schema`.`tables` WHERE `table_schema` LIKE ?",
			wantArgs: []any{"shop%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.builder.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectBuilder_Rejects(t *testing.T) {
	_, _, err := Select("t", DialectSQLite).Where("a", "; DROP", 1).Build()
	assert.True(t, errs.IsInvalidInput(err))

	_, _, err = Select("t", DialectSQLite).WhereIn("a").Build()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"we""ird"`, QuoteIdent(DialectSQLite, `we"ird`))
	assert.Equal(t, "`we``ird`", QuoteIdent(DialectMySQL, "we`ird"))
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]Driver{
		"sqlite":     DriverSQLite,
		"sqlite3":    DriverSQLite,
		"postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
		"pgx":        DriverPostgres,
		"mysql":      DriverMySQL,
	} {
		got, err := ParseDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDriver("oracle")
	assert.True(t, errs.IsInvalidInput(err))
	assert.Equal(t, DialectMySQL, DialectFor(DriverMySQL))
	assert.Equal(t, DialectSQLite, DialectFor(DriverSQLite))
	assert.Equal(t, DialectPostgres, DialectFor(DriverPostgres))
}
