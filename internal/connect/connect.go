// Package connect opens a catalog handle for a configured engine.
package connect

import (
	"context"

	"github.com/koustreak/sqlschema/internal/catalog"
	"github.com/koustreak/sqlschema/internal/database"
	"github.com/koustreak/sqlschema/internal/database/mysql"
	"github.com/koustreak/sqlschema/internal/database/postgres"
	"github.com/koustreak/sqlschema/internal/database/sqlite"
	"github.com/koustreak/sqlschema/internal/errs"
)

// handle pairs a catalog with the driver it reads through.
type handle struct {
	catalog.Catalog
	close func()
}

func (h *handle) Close() { h.close() }

// Open connects to cfg's engine and returns a catalog over the connection.
// The caller owns the handle and must Close it.
func Open(ctx context.Context, cfg *database.Config) (catalog.Handle, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "database config is required")
	}

	switch cfg.Driver {
	case database.DriverSQLite:
		d, err := sqlite.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &handle{Catalog: catalog.NewSQLite(d), close: d.Close}, nil

	case database.DriverPostgres:
		d, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &handle{Catalog: catalog.NewPostgres(d), close: d.Close}, nil

	case database.DriverMySQL:
		d, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &handle{Catalog: catalog.NewMySQL(d), close: d.Close}, nil

	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", cfg.Driver)
	}
}

// Opener returns a catalog.Opener that connects anew on every Open.
func Opener(cfg *database.Config) catalog.Opener {
	return catalog.OpenerFunc(func(ctx context.Context) (catalog.Handle, error) {
		return Open(ctx, cfg)
	})
}
