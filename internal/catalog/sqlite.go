package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/koustreak/sqlschema/internal/database"
)

// SQLiteDB is the driver surface the SQLite catalog needs: the generic
// query contract plus struct scanning for PRAGMA results.
type SQLiteDB interface {
	database.DB
	Select(ctx context.Context, dest any, query string, args ...any) error
}

// SyntheticPKPrefix names the primary-key index reported for tables whose
// key is the rowid alias and therefore has no index of its own.
const SyntheticPKPrefix = "sqlite_master_PK_"

// SQLite serves the catalog collections from sqlite_master and the PRAGMA
// table-valued functions. Restriction 0 selects the attached database
// ("main" when empty); restriction 1 is ignored.
type SQLite struct {
	db SQLiteDB
}

// NewSQLite wraps an open SQLite driver.
func NewSQLite(db SQLiteDB) *SQLite {
	return &SQLite{db: db}
}

type pragmaDatabase struct {
	Seq  int64          `db:"seq"`
	Name string         `db:"name"`
	File sql.NullString `db:"file"`
}

type pragmaColumn struct {
	CID     int64          `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int64          `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int64          `db:"pk"`
}

type pragmaIndex struct {
	Seq     int64  `db:"seq"`
	Name    string `db:"name"`
	Unique  int64  `db:"unique"`
	Origin  string `db:"origin"`
	Partial int64  `db:"partial"`
}

type pragmaIndexColumn struct {
	SeqNo int64          `db:"seqno"`
	CID   int64          `db:"cid"`
	Name  sql.NullString `db:"name"`
}

type pragmaForeignKey struct {
	ID       int64          `db:"id"`
	Seq      int64          `db:"seq"`
	Table    string         `db:"table"`
	From     string         `db:"from"`
	To       sql.NullString `db:"to"`
	OnUpdate string         `db:"on_update"`
	OnDelete string         `db:"on_delete"`
	Match    string         `db:"match"`
}

type masterEntry struct {
	Name string         `db:"name"`
	Type string         `db:"type"`
	SQL  sql.NullString `db:"sql"`
}

func (c *SQLite) Query(ctx context.Context, collection string, restrictions ...string) ([]Row, error) {
	schema := restriction(restrictions, RestrictCatalog)
	if schema == "" {
		schema = MainCatalog
	}

	switch collection {
	case Catalogs:
		return c.catalogs(ctx, restriction(restrictions, 0))
	case Tables:
		return c.tables(ctx, schema, restriction(restrictions, 2), restriction(restrictions, 3))
	case Views:
		return c.views(ctx, schema, restriction(restrictions, 2))
	case Columns:
		return c.columns(ctx, schema, restriction(restrictions, 2), restriction(restrictions, 3))
	case Indexes:
		return c.indexes(ctx, schema, restriction(restrictions, 2), restriction(restrictions, 4))
	case IndexColumns:
		return c.indexColumns(ctx, schema, restriction(restrictions, 2), restriction(restrictions, 3), restriction(restrictions, 4))
	case ForeignKeys:
		return c.foreignKeys(ctx, schema, restriction(restrictions, 2), restriction(restrictions, 3))
	default:
		return nil, unknownCollection(collection)
	}
}

func (c *SQLite) catalogs(ctx context.Context, name string) ([]Row, error) {
	var dbs []pragmaDatabase
	if err := c.db.Select(ctx, &dbs, `SELECT seq, name, file FROM pragma_database_list ORDER BY seq`); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(dbs))
	for _, d := range dbs {
		if !matches(name, d.Name) {
			continue
		}
		rows = append(rows, Row{
			FieldName:        d.Name,
			FieldDescription: d.File.String,
		})
	}
	return rows, nil
}

// master lists sqlite_master objects of the given types in creation order.
func (c *SQLite) master(ctx context.Context, schema, name string, types ...any) ([]masterEntry, error) {
	q, args, err := database.Select(schema+".sqlite_master", database.DialectSQLite).
		Columns("name", "type", "sql").
		WhereIn("type", types...).
		WhereIf("name", name).
		OrderBy("rowid", database.Asc).
		Build()
	if err != nil {
		return nil, err
	}

	var entries []masterEntry
	if err := c.db.Select(ctx, &entries, q, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *SQLite) tables(ctx context.Context, schema, name, kind string) ([]Row, error) {
	entries, err := c.master(ctx, schema, name, TypeTable, TypeView)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		tableType := e.Type
		if e.Type == TypeTable && strings.HasPrefix(e.Name, "sqlite_") {
			tableType = TypeSystemTable
		}
		if kind != "" && !strings.EqualFold(kind, tableType) {
			continue
		}
		rows = append(rows, Row{
			FieldTableName: e.Name,
			FieldTableType: tableType,
		})
	}
	return rows, nil
}

func (c *SQLite) views(ctx context.Context, schema, name string) ([]Row, error) {
	entries, err := c.master(ctx, schema, name, TypeView)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			FieldTableName:      e.Name,
			FieldViewDefinition: e.SQL.String,
		})
	}
	return rows, nil
}

// relations returns the names the per-table PRAGMAs should run for: the
// restricted name alone, or every table (and view, when withViews is set).
func (c *SQLite) relations(ctx context.Context, schema, name string, withViews bool) ([]string, error) {
	if name != "" {
		return []string{name}, nil
	}
	types := []any{TypeTable}
	if withViews {
		types = append(types, TypeView)
	}
	entries, err := c.master(ctx, schema, "", types...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

func (c *SQLite) tableInfo(ctx context.Context, schema, table string) ([]pragmaColumn, error) {
	var cols []pragmaColumn
	err := c.db.Select(ctx, &cols,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?, ?) ORDER BY cid`,
		table, schema)
	return cols, err
}

func (c *SQLite) columns(ctx context.Context, schema, table, column string) ([]Row, error) {
	names, err := c.relations(ctx, schema, table, true)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	for _, t := range names {
		cols, err := c.tableInfo(ctx, schema, t)
		if err != nil {
			return nil, err
		}
		for _, col := range cols {
			if !matches(column, col.Name) {
				continue
			}
			row := Row{
				FieldTableName:    t,
				FieldColumnName:   col.Name,
				FieldOrdinal:      col.CID + 1,
				FieldDataType:     SQLiteTypeID(col.Type),
				FieldDeclaredType: col.Type,
				FieldIsNullable:   col.NotNull == 0 && col.PK == 0,
				FieldPrimaryKey:   col.PK > 0,
			}
			if col.Default.Valid {
				row[FieldDefault] = col.Default.String
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// SQLiteTypeID derives a DATA_TYPE identifier from a declared column type
// using SQLite's affinity rules. Columns declared without a type, as NONE,
// or as BLOB have no affinity and report an object or blob identifier.
func SQLiteTypeID(declared string) string {
	t := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case t == "" || t == "NONE":
		return TypeObject
	case strings.Contains(t, "INT"):
		return TypeInt64
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return TypeString
	case strings.Contains(t, "BLOB"):
		return TypeBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return TypeDouble
	default:
		return TypeDecimal
	}
}

// pkColumns returns the table's primary-key columns in key order.
func pkColumns(cols []pragmaColumn) []string {
	var pk []pragmaColumn
	for _, col := range cols {
		if col.PK > 0 {
			pk = append(pk, col)
		}
	}
	sort.SliceStable(pk, func(i, j int) bool { return pk[i].PK < pk[j].PK })
	names := make([]string, len(pk))
	for i, col := range pk {
		names[i] = col.Name
	}
	return names
}

// sqliteIndex is one index of a table together with its ordered members.
type sqliteIndex struct {
	name      string
	unique    bool
	pk        bool
	synthetic bool
	members   []string
}

// tableIndexes lists a table's indexes, prepending the synthetic rowid
// primary key when the table has key columns but no pk-origin index.
func (c *SQLite) tableIndexes(ctx context.Context, schema, table string) ([]sqliteIndex, error) {
	var list []pragmaIndex
	err := c.db.Select(ctx, &list,
		`SELECT seq, name, "unique", origin, partial FROM pragma_index_list(?, ?) ORDER BY seq`,
		table, schema)
	if err != nil {
		return nil, err
	}

	hasPK := false
	indexes := make([]sqliteIndex, 0, len(list)+1)
	for _, ix := range list {
		pk := ix.Origin == "pk"
		hasPK = hasPK || pk
		indexes = append(indexes, sqliteIndex{name: ix.Name, unique: ix.Unique != 0, pk: pk})
	}
	if hasPK {
		return indexes, nil
	}

	cols, err := c.tableInfo(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	if members := pkColumns(cols); len(members) > 0 {
		synthetic := sqliteIndex{
			name:      SyntheticPKPrefix + table,
			unique:    true,
			pk:        true,
			synthetic: true,
			members:   members,
		}
		indexes = append([]sqliteIndex{synthetic}, indexes...)
	}
	return indexes, nil
}

func (c *SQLite) indexes(ctx context.Context, schema, table, index string) ([]Row, error) {
	names, err := c.relations(ctx, schema, table, false)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	for _, t := range names {
		list, err := c.tableIndexes(ctx, schema, t)
		if err != nil {
			return nil, err
		}
		for _, ix := range list {
			if !matches(index, ix.name) {
				continue
			}
			rows = append(rows, Row{
				FieldTableName:  t,
				FieldIndexName:  ix.name,
				FieldUnique:     ix.unique,
				FieldPrimaryKey: ix.pk,
				FieldClustered:  false,
			})
		}
	}
	return rows, nil
}

func (c *SQLite) indexMembers(ctx context.Context, schema string, ix sqliteIndex) ([]string, error) {
	if ix.synthetic {
		return ix.members, nil
	}
	var info []pragmaIndexColumn
	err := c.db.Select(ctx, &info,
		`SELECT seqno, cid, name FROM pragma_index_info(?, ?) ORDER BY seqno`,
		ix.name, schema)
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(info))
	for _, col := range info {
		// expression members and the rowid have no column name
		if col.Name.Valid {
			members = append(members, col.Name.String)
		}
	}
	return members, nil
}

func (c *SQLite) indexColumns(ctx context.Context, schema, table, index, column string) ([]Row, error) {
	names, err := c.relations(ctx, schema, table, false)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	for _, t := range names {
		list, err := c.tableIndexes(ctx, schema, t)
		if err != nil {
			return nil, err
		}
		for _, ix := range list {
			if !matches(index, ix.name) {
				continue
			}
			members, err := c.indexMembers(ctx, schema, ix)
			if err != nil {
				return nil, err
			}
			for i, m := range members {
				if !matches(column, m) {
					continue
				}
				rows = append(rows, Row{
					FieldTableName:  t,
					FieldIndexName:  ix.name,
					FieldColumnName: m,
					FieldOrdinal:    int64(i + 1),
				})
			}
		}
	}
	return rows, nil
}

func (c *SQLite) foreignKeys(ctx context.Context, schema, table, constraint string) ([]Row, error) {
	names, err := c.relations(ctx, schema, table, false)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	for _, t := range names {
		var fks []pragmaForeignKey
		err := c.db.Select(ctx, &fks,
			`SELECT id, seq, "table", "from", "to", on_update, on_delete, "match" FROM pragma_foreign_key_list(?, ?) ORDER BY id, seq`,
			t, schema)
		if err != nil {
			return nil, err
		}

		refPK := map[string][]string{}
		for _, fk := range fks {
			name := fmt.Sprintf("FK_%s_%d_%d", t, fk.ID, fk.Seq)
			if !matches(constraint, name) {
				continue
			}

			to := fk.To.String
			if !fk.To.Valid {
				// REFERENCES parent without a column list targets the parent's key
				pk, ok := refPK[fk.Table]
				if !ok {
					cols, err := c.tableInfo(ctx, schema, fk.Table)
					if err != nil {
						return nil, err
					}
					pk = pkColumns(cols)
					refPK[fk.Table] = pk
				}
				if int(fk.Seq) < len(pk) {
					to = pk[fk.Seq]
				}
			}

			rows = append(rows, Row{
				FieldConstraintName: name,
				FieldTableName:      t,
				FieldFromColumn:     fk.From,
				FieldToTable:        fk.Table,
				FieldToColumn:       to,
				FieldOnUpdate:       fk.OnUpdate,
				FieldOnDelete:       fk.OnDelete,
			})
		}
	}
	return rows, nil
}
