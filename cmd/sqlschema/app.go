package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/sqlschema/internal/config"
	"github.com/koustreak/sqlschema/internal/connect"
	"github.com/koustreak/sqlschema/internal/database"
	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/filestore"
	"github.com/koustreak/sqlschema/internal/filestore/minio"
	"github.com/koustreak/sqlschema/internal/logger"
	"github.com/koustreak/sqlschema/internal/render"
	"github.com/koustreak/sqlschema/internal/schema"
)

// app carries what every subcommand shares: flags, loaded config, the
// logger and files to remove on exit.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	driver     string
	dsn        string
	source     string
	format     string
	logLevel   string
	noColor    bool

	cfg      *config.Config
	log      *logger.Logger
	cleanups []func()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, log: logger.Nop()}
}

// setup loads configuration and applies flag overrides on top.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Database.Driver = a.driver
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = a.dsn
	}
	if flags.Changed("format") {
		cfg.Format = a.format
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lc := cfg.Logger()
	lc.Output = a.stderr
	a.cfg = cfg
	a.log = logger.New(lc)
	return nil
}

func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// queryContext bounds a command's schema work by the query timeout.
func (a *app) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Database.QueryTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Database.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

func (a *app) renderer() (*render.Renderer, error) {
	return render.New(a.stdout, a.cfg.Format, a.noColor)
}

// store connects to the configured object storage.
func (a *app) store(ctx context.Context) (filestore.Store, error) {
	fc := a.cfg.Filestore()
	if fc == nil {
		return nil, errs.New(errs.ErrKindInvalidInput,
			"object storage is not configured (set storage.endpoint or SQLSCHEMA_S3_ENDPOINT)")
	}
	return minio.New(ctx, fc)
}

// databaseConfig resolves --source into a database config. A remote
// source is downloaded to a temporary file that is removed on exit; a
// local source is a SQLite path.
func (a *app) databaseConfig(ctx context.Context) (*database.Config, error) {
	if a.source == "" {
		return a.cfg.DatabaseFor("")
	}
	if !filestore.IsRemote(a.source) {
		a.cfg.Database.Driver = string(database.DriverSQLite)
		return a.cfg.DatabaseFor(a.source)
	}

	loc, err := filestore.ParseLocation(a.source, a.cfg.Storage.DefaultBucket)
	if err != nil {
		return nil, err
	}
	store, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	path, err := filestore.Fetch(ctx, store, loc, "")
	if err != nil {
		return nil, err
	}
	a.cleanups = append(a.cleanups, func() { os.Remove(path) })
	a.log.DebugWith("downloaded source", map[string]any{"source": loc.String(), "path": path})

	a.cfg.Database.Driver = string(database.DriverSQLite)
	return a.cfg.DatabaseFor(path)
}

func (a *app) provider(ctx context.Context) (*schema.Provider, error) {
	dbc, err := a.databaseConfig(ctx)
	if err != nil {
		return nil, err
	}
	if dbc.DSN == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "no database given (use --dsn, --source or SQLSCHEMA_DSN)")
	}
	return schema.NewProvider(connect.Opener(dbc), schema.WithLogger(a.log)), nil
}
