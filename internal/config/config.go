// Package config loads sqlschema settings from a YAML file, a .env file
// and SQLSCHEMA_* environment variables, in increasing precedence.
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/sqlschema/internal/database"
	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/filestore"
	"github.com/koustreak/sqlschema/internal/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SQLSCHEMA_"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig   `yaml:"database"`
	Log      LogConfig        `yaml:"log"`
	Server   ServerConfig     `yaml:"server"`
	Storage  filestore.Config `yaml:"storage"`
	Format   string           `yaml:"format"`
}

// DatabaseConfig selects the engine and tunes its connections.
type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	MaxConns       int32         `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns a Config populated with defaults: a SQLite
// database, warnings on stderr, text output.
func DefaultConfig() *Config {
	db := database.DefaultConfig(database.DriverSQLite, "")
	return &Config{
		Database: DatabaseConfig{
			Driver:         string(db.Driver),
			MaxConns:       db.MaxConns,
			ConnectTimeout: db.ConnectTimeout,
			QueryTimeout:   db.QueryTimeout,
		},
		Log: LogConfig{Level: "warn", Format: "console"},
		Server: ServerConfig{
			Listen:          "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: filestore.Config{Provider: filestore.ProviderMinIO},
		Format:  FormatText,
	}
}

// Load builds the configuration. An empty path skips the YAML file; a
// named file that does not exist is an error. A .env file in the working
// directory is read when present.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, errs.Wrap(errs.ErrKindNotFound, "config file "+path, err)
			}
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config "+path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config "+path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return errs.Wrap(errs.ErrKindInvalidInput, "parse .env", err)
}

// applyEnv overlays SQLSCHEMA_* variables that are set and non-empty.
func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("DRIVER", &c.Database.Driver)
	str("DSN", &c.Database.DSN)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LISTEN", &c.Server.Listen)
	str("FORMAT", &c.Format)
	str("S3_ENDPOINT", &c.Storage.Endpoint)
	str("S3_ACCESS_KEY", &c.Storage.AccessKey)
	str("S3_SECRET_KEY", &c.Storage.SecretKey)
	str("S3_REGION", &c.Storage.Region)
	str("S3_BUCKET", &c.Storage.DefaultBucket)

	if v, ok := os.LookupEnv(EnvPrefix + "S3_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, EnvPrefix+"S3_USE_SSL", err)
		}
		c.Storage.UseSSL = b
	}

	for name, dst := range map[string]*time.Duration{
		"CONNECT_TIMEOUT": &c.Database.ConnectTimeout,
		"QUERY_TIMEOUT":   &c.Database.QueryTimeout,
	} {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errs.Wrap(errs.ErrKindInvalidInput, EnvPrefix+name, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if _, err := database.ParseDriver(c.Database.Driver); err != nil {
		return err
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown output format %q (want text, json or yaml)", c.Format)
	}
	if c.Database.QueryTimeout < 0 || c.Database.ConnectTimeout < 0 {
		return errs.New(errs.ErrKindInvalidInput, "timeouts must not be negative")
	}
	return nil
}

// DatabaseFor converts the database section, with dsn standing in for
// the configured DSN when non-empty (e.g. a downloaded file).
func (c *Config) DatabaseFor(dsn string) (*database.Config, error) {
	driver, err := database.ParseDriver(c.Database.Driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		dsn = c.Database.DSN
	}
	db := database.DefaultConfig(driver, dsn)
	if c.Database.MaxConns > 0 {
		db.MaxConns = c.Database.MaxConns
	}
	if c.Database.ConnectTimeout > 0 {
		db.ConnectTimeout = c.Database.ConnectTimeout
	}
	if c.Database.QueryTimeout > 0 {
		db.QueryTimeout = c.Database.QueryTimeout
	}
	return db, nil
}

// Logger converts the log section. Output stays on stderr so stdout
// carries only schema output.
func (c *Config) Logger() *logger.Config {
	lc := logger.DefaultConfig()
	if c.Log.Level != "" {
		lc.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	return lc
}

// Filestore returns the storage section, or nil when no endpoint is set.
func (c *Config) Filestore() *filestore.Config {
	if !c.Storage.Enabled() {
		return nil
	}
	fs := c.Storage
	return &fs
}
