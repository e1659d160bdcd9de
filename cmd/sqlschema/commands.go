package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/filestore"
	"github.com/koustreak/sqlschema/internal/schema"
	"github.com/koustreak/sqlschema/internal/server"
)

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:   "sqlschema",
		Short: "Inspect database schemas",
		Long: `sqlschema reads the catalog of a SQLite, PostgreSQL or MySQL database
and reports its tables, views, columns, indexes and keys with normalized types.

Examples:
  sqlschema --dsn ./shop.db tables
  sqlschema --dsn ./shop.db describe orders --format json
  sqlschema --driver postgres --dsn postgres://localhost/shop inspect
  sqlschema --source s3://schemas/shop.db views
  sqlschema --dsn ./shop.db serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&a.driver, "driver", "", "Database driver (sqlite, postgres, mysql)")
	pf.StringVar(&a.dsn, "dsn", "", "Data source name or SQLite file path")
	pf.StringVar(&a.source, "source", "", "SQLite file path or s3://bucket/key to download")
	pf.StringVarP(&a.format, "format", "o", "text", "Output format (text, json, yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored text output")

	root.AddCommand(
		a.inspectCmd(),
		a.tablesCmd(),
		a.viewsCmd(),
		a.describeCmd(),
		a.viewCmd(),
		a.serveCmd(),
		a.sourcesCmd(),
		a.versionCmd(),
	)
	return root
}

// withProvider runs fn with a provider and a query-bounded context, and
// renders what it returns.
func (a *app) withProvider(cmd *cobra.Command, fn func(context.Context, *schema.Provider) (any, error)) error {
	out, err := a.renderer()
	if err != nil {
		return err
	}
	ctx, cancel := a.queryContext(cmd.Context())
	defer cancel()

	p, err := a.provider(ctx)
	if err != nil {
		return err
	}
	v, err := fn(ctx, p)
	if err != nil {
		return err
	}
	return out.Render(v)
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the whole schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withProvider(cmd, func(ctx context.Context, p *schema.Provider) (any, error) {
				return p.Inspect(ctx)
			})
		},
	}
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withProvider(cmd, func(ctx context.Context, p *schema.Provider) (any, error) {
				return p.Tables(ctx)
			})
		},
	}
}

func (a *app) viewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withProvider(cmd, func(ctx context.Context, p *schema.Provider) (any, error) {
				return p.Views(ctx)
			})
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show a table's columns, indexes and keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProvider(cmd, func(ctx context.Context, p *schema.Provider) (any, error) {
				return describeTable(ctx, p, args[0])
			})
		},
	}
}

func describeTable(ctx context.Context, p schema.Reader, name string) (*schema.TableSchema, error) {
	tables, err := p.Tables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tables))
	var table *schema.Table
	for i := range tables {
		names[i] = tables[i].Name
		if tables[i].Name == name {
			table = &tables[i]
		}
	}
	if table == nil {
		return nil, notFound("table", name, names)
	}

	ts := &schema.TableSchema{Table: *table}
	if ts.Columns, err = p.TableColumns(ctx, *table); err != nil {
		return nil, err
	}
	if ts.Indexes, err = p.TableIndexes(ctx, *table); err != nil {
		return nil, err
	}
	if ts.PrimaryKey, err = p.TablePrimaryKey(ctx, *table); err != nil {
		return nil, err
	}
	if ts.ForeignKeys, err = p.TableKeys(ctx, *table); err != nil {
		return nil, err
	}
	return ts, nil
}

func (a *app) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <name>",
		Short: "Show a view's columns and definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProvider(cmd, func(ctx context.Context, p *schema.Provider) (any, error) {
				return describeView(ctx, p, args[0])
			})
		},
	}
}

func describeView(ctx context.Context, p schema.Reader, name string) (*schema.ViewSchema, error) {
	views, err := p.Views(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(views))
	var view *schema.View
	for i := range views {
		names[i] = views[i].Name
		if views[i].Name == name {
			view = &views[i]
		}
	}
	if view == nil {
		return nil, notFound("view", name, names)
	}

	vs := &schema.ViewSchema{View: *view}
	if vs.Columns, err = p.ViewColumns(ctx, *view); err != nil {
		return nil, err
	}
	if vs.Text, err = p.ViewText(ctx, *view); err != nil {
		return nil, err
	}
	return vs, nil
}

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schema as a read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Server.Listen = listen
			}
			p, err := a.provider(cmd.Context())
			if err != nil {
				return err
			}

			sc := a.cfg.Server
			srv := server.New(p, server.Config{
				Listen:          sc.Listen,
				ReadTimeout:     sc.ReadTimeout,
				WriteTimeout:    sc.WriteTimeout,
				ShutdownTimeout: sc.ShutdownTimeout,
				RequestTimeout:  a.cfg.Database.QueryTimeout,
			}, a.log)
			fmt.Fprintf(a.stderr, "serving schema on http://%s\n", sc.Listen)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

func (a *app) sourcesCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "sources [bucket]",
		Short: "List database files in object storage",
		Long: `List the objects of a bucket that can be passed to --source as
s3://bucket/key. Without a bucket argument the configured default bucket is
listed, or the available buckets when there is none.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.renderer()
			if err != nil {
				return err
			}
			ctx, cancel := a.queryContext(cmd.Context())
			defer cancel()

			store, err := a.store(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			bucket := a.cfg.Storage.DefaultBucket
			if len(args) == 1 {
				bucket = args[0]
			}
			if bucket == "" {
				buckets, err := store.ListBuckets(ctx)
				if err != nil {
					return err
				}
				return out.Render(buckets)
			}

			objs, err := store.ListObjects(ctx, bucket, filestore.ListOptions{Prefix: prefix, Recursive: true})
			if err != nil {
				return err
			}
			return out.Render(objs)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list keys starting with this prefix")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "sqlschema %s (commit: %s)\n", version, commit)
		},
	}
}

func notFound(kind, name string, candidates []string) error {
	if s := suggest(name, candidates); len(s) > 0 {
		return errs.Newf(errs.ErrKindNotFound, "no %s named %q; did you mean %s?", kind, name, quoteList(s))
	}
	return errs.Newf(errs.ErrKindNotFound, "no %s named %q", kind, name)
}
