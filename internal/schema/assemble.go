package schema

import (
	"context"
	"time"

	"github.com/koustreak/sqlschema/internal/catalog"
	"github.com/koustreak/sqlschema/internal/errs"
)

// The assemblers turn catalog rows into entities. They run inside one
// session, return either a complete result or an error, and pass catalog
// errors through untouched.

func databaseName(ctx context.Context, c catalog.Catalog) (string, error) {
	rows, err := c.Query(ctx, catalog.Catalogs, catalog.MainCatalog)
	if err != nil {
		return "", err
	}
	if len(rows) != 1 {
		return "", errs.Newf(errs.ErrKindCardinality,
			"expected exactly one %q catalog, found %d", catalog.MainCatalog, len(rows))
	}
	return rows[0].String(catalog.FieldDescription), nil
}

func relationNames(ctx context.Context, c catalog.Catalog, kind string) ([]string, error) {
	rows, err := c.Query(ctx, catalog.Tables, "", "", "", kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.String(catalog.FieldTableName))
	}
	return names, nil
}

func tables(ctx context.Context, c catalog.Catalog, db string) ([]Table, error) {
	names, err := relationNames(ctx, c, catalog.TypeTable)
	if err != nil {
		return nil, err
	}
	out := make([]Table, len(names))
	for i, n := range names {
		out[i] = Table{Database: db, Name: n, DateCreated: time.Time{}}
	}
	return out, nil
}

func views(ctx context.Context, c catalog.Catalog, db string) ([]View, error) {
	names, err := relationNames(ctx, c, catalog.TypeView)
	if err != nil {
		return nil, err
	}
	out := make([]View, len(names))
	for i, n := range names {
		out[i] = View{Database: db, Name: n, DateCreated: time.Time{}}
	}
	return out, nil
}

// indexList returns the table's indexes in catalog order with their members.
func indexList(ctx context.Context, c catalog.Catalog, table string) ([]Index, error) {
	rows, err := c.Query(ctx, catalog.Indexes, "", "", table)
	if err != nil {
		return nil, err
	}

	out := make([]Index, 0, len(rows))
	for _, r := range rows {
		name := r.String(catalog.FieldIndexName)
		members, err := indexMembers(ctx, c, table, name)
		if err != nil {
			return nil, err
		}
		out = append(out, Index{
			Table:         table,
			Name:          name,
			MemberColumns: members,
			IsUnique:      r.Bool(catalog.FieldUnique),
			IsPrimaryKey:  r.Bool(catalog.FieldPrimaryKey),
			IsClustered:   r.Bool(catalog.FieldClustered),
		})
	}
	return out, nil
}

func indexMembers(ctx context.Context, c catalog.Catalog, table, index string) ([]string, error) {
	rows, err := c.Query(ctx, catalog.IndexColumns, "", "", table, index)
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.String(catalog.FieldColumnName))
	}
	return members, nil
}

func indexMap(list []Index) map[string]Index {
	m := make(map[string]Index, len(list))
	for _, ix := range list {
		m[ix.Name] = ix
	}
	return m
}

// primaryOf picks the first primary-key index of list.
func primaryOf(list []Index) *PrimaryKey {
	for _, ix := range list {
		if ix.IsPrimaryKey {
			return &PrimaryKey{Table: ix.Table, Name: ix.Name, MemberColumns: ix.MemberColumns}
		}
	}
	return nil
}

func primaryKey(ctx context.Context, c catalog.Catalog, table string) (*PrimaryKey, error) {
	rows, err := c.Query(ctx, catalog.Indexes, "", "", table)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if !r.Bool(catalog.FieldPrimaryKey) {
			continue
		}
		name := r.String(catalog.FieldIndexName)
		members, err := indexMembers(ctx, c, table, name)
		if err != nil {
			return nil, err
		}
		return &PrimaryKey{Table: table, Name: name, MemberColumns: members}, nil
	}
	return nil, nil
}

// tableColumns builds a table's columns, taking key membership and
// uniqueness from its already assembled indexes.
func tableColumns(ctx context.Context, c catalog.Catalog, table string, indexes []Index) ([]Column, error) {
	rows, err := c.Query(ctx, catalog.Columns, "", "", table)
	if err != nil {
		return nil, err
	}

	inPK := map[string]bool{}
	if pk := primaryOf(indexes); pk != nil {
		for _, m := range pk.MemberColumns {
			inPK[m] = true
		}
	}
	unique := map[string]bool{}
	for _, ix := range indexes {
		if ix.IsUnique && len(ix.MemberColumns) == 1 {
			unique[ix.MemberColumns[0]] = true
		}
	}

	out := make([]Column, 0, len(rows))
	for _, r := range rows {
		name := r.String(catalog.FieldColumnName)
		dt, native := NormalizeType(r.String(catalog.FieldDataType))
		out = append(out, Column{
			Table:              table,
			Name:               name,
			DataType:           dt,
			NativeType:         native,
			AllowNull:          r.Bool(catalog.FieldIsNullable),
			IsPrimaryKeyMember: inPK[name],
			IsUnique:           unique[name],
		})
	}
	return out, nil
}

func viewColumns(ctx context.Context, c catalog.Catalog, view string) ([]ViewColumn, error) {
	rows, err := c.Query(ctx, catalog.Columns, "", "", view)
	if err != nil {
		return nil, err
	}
	out := make([]ViewColumn, 0, len(rows))
	for _, r := range rows {
		dt, native := NormalizeType(r.String(catalog.FieldDataType))
		out = append(out, ViewColumn{
			View:       view,
			Name:       r.String(catalog.FieldColumnName),
			DataType:   dt,
			NativeType: native,
			AllowNull:  r.Bool(catalog.FieldIsNullable),
		})
	}
	return out, nil
}

// foreignKeys maps each catalog row to its own ForeignKey; rows sharing a
// constraint name are not merged.
func foreignKeys(ctx context.Context, c catalog.Catalog, db, table string) ([]ForeignKey, error) {
	rows, err := c.Query(ctx, catalog.ForeignKeys, "", "", table)
	if err != nil {
		return nil, err
	}
	out := make([]ForeignKey, 0, len(rows))
	for _, r := range rows {
		out = append(out, ForeignKey{
			Database:   db,
			Name:       r.String(catalog.FieldConstraintName),
			FromTable:  table,
			FromColumn: r.String(catalog.FieldFromColumn),
			ToTable:    r.String(catalog.FieldToTable),
			ToColumn:   r.String(catalog.FieldToColumn),
			OnUpdate:   r.String(catalog.FieldOnUpdate),
			OnDelete:   r.String(catalog.FieldOnDelete),
		})
	}
	return out, nil
}

func viewText(ctx context.Context, c catalog.Catalog, view string) (string, error) {
	rows, err := c.Query(ctx, catalog.Views, "", "", view)
	if err != nil {
		return "", err
	}
	if len(rows) != 1 {
		return "", errs.Newf(errs.ErrKindCardinality,
			"expected exactly one definition for view %q, found %d", view, len(rows))
	}
	return rows[0].String(catalog.FieldViewDefinition), nil
}

// snapshot assembles the whole database through one catalog.
func snapshot(ctx context.Context, c catalog.Catalog) (*Database, error) {
	name, err := databaseName(ctx, c)
	if err != nil {
		return nil, err
	}
	ts, err := tables(ctx, c, name)
	if err != nil {
		return nil, err
	}
	vs, err := views(ctx, c, name)
	if err != nil {
		return nil, err
	}

	db := &Database{
		Name:   name,
		Tables: make([]TableSchema, 0, len(ts)),
		Views:  make([]ViewSchema, 0, len(vs)),
	}

	for _, t := range ts {
		list, err := indexList(ctx, c, t.Name)
		if err != nil {
			return nil, err
		}
		cols, err := tableColumns(ctx, c, t.Name, list)
		if err != nil {
			return nil, err
		}
		fks, err := foreignKeys(ctx, c, name, t.Name)
		if err != nil {
			return nil, err
		}
		db.Tables = append(db.Tables, TableSchema{
			Table:       t,
			Columns:     cols,
			Indexes:     indexMap(list),
			PrimaryKey:  primaryOf(list),
			ForeignKeys: fks,
		})
	}

	for _, v := range vs {
		cols, err := viewColumns(ctx, c, v.Name)
		if err != nil {
			return nil, err
		}
		text, err := viewText(ctx, c, v.Name)
		if err != nil {
			return nil, err
		}
		db.Views = append(db.Views, ViewSchema{View: v, Columns: cols, Text: text})
	}

	return db, nil
}
