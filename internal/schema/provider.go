package schema

import (
	"context"
	"time"

	"github.com/koustreak/sqlschema/internal/catalog"
	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/logger"
)

var _ Reader = (*Provider)(nil)

// Provider implements Reader on top of a catalog.Opener. It holds no
// mutable state and is safe for concurrent use.
type Provider struct {
	opener catalog.Opener
	log    *logger.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger operations are traced to at debug level.
func WithLogger(l *logger.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProvider returns a Provider that opens a session through opener for
// every operation.
func NewProvider(opener catalog.Opener, opts ...Option) *Provider {
	p := &Provider{opener: opener, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Component("schema")
	return p
}

func (p *Provider) Name() string { return "sqlschema" }

func (p *Provider) Description() string {
	return "Schema provider for SQLite, PostgreSQL and MySQL catalogs"
}

// session opens a catalog, runs fn and closes the catalog on every path.
func (p *Provider) session(ctx context.Context, op, object string, fn func(catalog.Catalog) (int, error)) error {
	start := time.Now()

	h, err := p.opener.Open(ctx)
	if err != nil {
		p.log.ErrorWith("open catalog session", err, map[string]any{"op": op})
		return err
	}
	defer h.Close()

	n, err := fn(h)

	fields := map[string]any{
		"op":         op,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if object != "" {
		fields["object"] = object
	}
	if err != nil {
		fields["error"] = err.Error()
		p.log.DebugWith("schema operation failed", fields)
		return err
	}
	fields["count"] = n
	p.log.DebugWith("schema operation", fields)
	return nil
}

func (p *Provider) DatabaseName(ctx context.Context) (string, error) {
	var name string
	err := p.session(ctx, "database_name", "", func(c catalog.Catalog) (int, error) {
		var err error
		name, err = databaseName(ctx, c)
		return 1, err
	})
	return name, err
}

func (p *Provider) Tables(ctx context.Context) ([]Table, error) {
	var out []Table
	err := p.session(ctx, "tables", "", func(c catalog.Catalog) (int, error) {
		db, err := databaseName(ctx, c)
		if err != nil {
			return 0, err
		}
		out, err = tables(ctx, c, db)
		return len(out), err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) Views(ctx context.Context) ([]View, error) {
	var out []View
	err := p.session(ctx, "views", "", func(c catalog.Catalog) (int, error) {
		db, err := databaseName(ctx, c)
		if err != nil {
			return 0, err
		}
		out, err = views(ctx, c, db)
		return len(out), err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Commands reports no stored commands; no session is opened.
func (p *Provider) Commands(context.Context) ([]Command, error) {
	return []Command{}, nil
}

func (p *Provider) TableColumns(ctx context.Context, table Table) ([]Column, error) {
	var out []Column
	err := p.session(ctx, "table_columns", table.Name, func(c catalog.Catalog) (int, error) {
		list, err := indexList(ctx, c, table.Name)
		if err != nil {
			return 0, err
		}
		out, err = tableColumns(ctx, c, table.Name, list)
		return len(out), err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) ViewColumns(ctx context.Context, view View) ([]ViewColumn, error) {
	var out []ViewColumn
	err := p.session(ctx, "view_columns", view.Name, func(c catalog.Catalog) (int, error) {
		var err error
		out, err = viewColumns(ctx, c, view.Name)
		return len(out), err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) TableIndexes(ctx context.Context, table Table) (map[string]Index, error) {
	var out map[string]Index
	err := p.session(ctx, "table_indexes", table.Name, func(c catalog.Catalog) (int, error) {
		list, err := indexList(ctx, c, table.Name)
		if err != nil {
			return 0, err
		}
		out = indexMap(list)
		return len(out), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) TablePrimaryKey(ctx context.Context, table Table) (*PrimaryKey, error) {
	var out *PrimaryKey
	err := p.session(ctx, "table_primary_key", table.Name, func(c catalog.Catalog) (int, error) {
		var err error
		out, err = primaryKey(ctx, c, table.Name)
		if out == nil {
			return 0, err
		}
		return 1, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) TableKeys(ctx context.Context, table Table) ([]ForeignKey, error) {
	var out []ForeignKey
	err := p.session(ctx, "table_keys", table.Name, func(c catalog.Catalog) (int, error) {
		var err error
		out, err = foreignKeys(ctx, c, table.Database, table.Name)
		return len(out), err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) ViewText(ctx context.Context, view View) (string, error) {
	var out string
	err := p.session(ctx, "view_text", view.Name, func(c catalog.Catalog) (int, error) {
		var err error
		out, err = viewText(ctx, c, view.Name)
		return 1, err
	})
	return out, err
}

// ExtendedProperties reports no properties; no session is opened.
func (p *Provider) ExtendedProperties(context.Context, string) ([]ExtendedProperty, error) {
	return []ExtendedProperty{}, nil
}

func (p *Provider) CommandParameters(_ context.Context, cmd Command) ([]CommandParameter, error) {
	return nil, unsupported("command parameters", cmd)
}

func (p *Provider) CommandResults(_ context.Context, cmd Command) ([]CommandResult, error) {
	return nil, unsupported("command results", cmd)
}

func (p *Provider) CommandText(_ context.Context, cmd Command) (string, error) {
	return "", unsupported("command text", cmd)
}

func unsupported(what string, cmd Command) error {
	return errs.Newf(errs.ErrKindUnsupported, "%s are not available: %q is not a stored command of any supported engine", what, cmd.Name)
}

func (p *Provider) Inspect(ctx context.Context) (*Database, error) {
	var out *Database
	err := p.session(ctx, "inspect", "", func(c catalog.Catalog) (int, error) {
		var err error
		out, err = snapshot(ctx, c)
		if err != nil {
			return 0, err
		}
		return len(out.Tables) + len(out.Views), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
