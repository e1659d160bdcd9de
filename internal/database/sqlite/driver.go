// Package sqlite is the SQLite implementation of database.DB, built on sqlx
// over the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/koustreak/sqlschema/internal/database"
	"github.com/koustreak/sqlschema/internal/errs"
)

// Driver is a SQLite implementation of database.DB.
// Besides the generic Query surface it exposes Select, which scans
// PRAGMA results straight into tagged structs.
type Driver struct {
	db   *sqlx.DB
	path string
}

// New opens the SQLite database named by cfg.DSN and pings it.
// A plain file path must already exist: introspection never creates
// an empty database as a side effect.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	dsn := NormalizeDSN(cfg.DSN)
	if dsn == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "empty SQLite DSN")
	}

	if isPlainPath(dsn) {
		if _, err := os.Stat(dsn); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("database file %q does not exist", dsn), err)
			}
			return nil, errs.Wrap(errs.ErrKindConnectionFailed, "cannot stat database file", err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open sqlite database", err)
	}

	// Each connection to ":memory:" is a distinct database, and a file
	// allows one writer anyway; a single connection keeps every catalog
	// query of a session on the same view.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db, path: dsn}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// NormalizeDSN strips the "sqlite://" scheme accepted on the command line.
func NormalizeDSN(dsn string) string {
	return strings.TrimPrefix(strings.TrimSpace(dsn), "sqlite://")
}

func isPlainPath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// Path returns the normalized DSN the driver was opened with.
func (d *Driver) Path() string { return d.path }

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	// A non-database file opens fine and only fails on first read.
	var n int
	if err := d.db.GetContext(ctx, &n, "SELECT count(*) FROM sqlite_master"); err != nil {
		return mapError(err, "not a readable sqlite database")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqliteRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	return &sqliteRow{row: d.db.QueryRowContext(ctx, query, args...)}, nil
}

// Select runs query and scans every row into dest, a pointer to a slice of
// structs whose fields carry `db` tags matching the result columns.
func (d *Driver) Select(ctx context.Context, dest any, query string, args ...any) error {
	if err := d.db.SelectContext(ctx, dest, query, args...); err != nil {
		return mapError(err, "select failed")
	}
	return nil
}

// --- sql.DB type wrappers ---

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) Next() bool                 { return r.rows.Next() }
func (r *sqliteRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqliteRows) Close()                     { _ = r.rows.Close() }

func (r *sqliteRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *sqliteRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

type sqliteRow struct {
	row *sql.Row
}

func (r *sqliteRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

// --- error mapping ---

// mapError translates modernc.org/sqlite errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return errs.Wrap(classifySQLiteCode(sqliteErr.Code()), msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifySQLiteCode maps a (possibly extended) result code to ErrKind.
func classifySQLiteCode(code int) errs.ErrKind {
	switch code & 0xff {
	case sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH, sqlite3.SQLITE_READONLY:
		return errs.ErrKindPermissionDenied
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_IOERR:
		return errs.ErrKindConnectionFailed
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
