// Package schema assembles a normalized model of a database's tables,
// views, columns, indexes and keys from catalog rows.
package schema

import "context"

// Reader is the schema provider contract. Every call is independent:
// it opens its own catalog session and closes it before returning, and
// nothing is cached between calls.
type Reader interface {
	// DatabaseName resolves the database's display name (for SQLite, the
	// file path). Fails with a cardinality error unless exactly one
	// catalog row names it.
	DatabaseName(ctx context.Context) (string, error)

	Tables(ctx context.Context) ([]Table, error)
	Views(ctx context.Context) ([]View, error)

	// Commands is always empty.
	Commands(ctx context.Context) ([]Command, error)

	// TableColumns returns columns in declaration order, with key
	// membership and uniqueness derived from the table's indexes.
	TableColumns(ctx context.Context, table Table) ([]Column, error)
	ViewColumns(ctx context.Context, view View) ([]ViewColumn, error)

	// TableIndexes returns the table's indexes keyed by name.
	TableIndexes(ctx context.Context, table Table) (map[string]Index, error)

	// TablePrimaryKey returns nil, nil when the table has no primary key.
	TablePrimaryKey(ctx context.Context, table Table) (*PrimaryKey, error)

	// TableKeys returns one ForeignKey per referencing column.
	TableKeys(ctx context.Context, table Table) ([]ForeignKey, error)

	// ViewText fails with a cardinality error unless exactly one
	// definition matches.
	ViewText(ctx context.Context, view View) (string, error)

	// ExtendedProperties is always empty.
	ExtendedProperties(ctx context.Context, object string) ([]ExtendedProperty, error)

	CommandParameters(ctx context.Context, cmd Command) ([]CommandParameter, error)
	CommandResults(ctx context.Context, cmd Command) ([]CommandResult, error)
	CommandText(ctx context.Context, cmd Command) (string, error)

	// Inspect assembles the whole database in a single session.
	Inspect(ctx context.Context) (*Database, error)
}
