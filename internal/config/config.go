package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gridstore/internal/auth"
	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/grid/sheets"
	"github.com/roach88/gridstore/internal/grid/sqlitegrid"
	"github.com/roach88/gridstore/internal/model"
	"github.com/roach88/gridstore/internal/schema"
	"github.com/roach88/gridstore/internal/store"
)

// Backend selects the grid transport.
type Backend string

const (
	BackendSheets Backend = "sheets"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// DefaultInitTimeout bounds authentication plus header sync.
const DefaultInitTimeout = 30 * time.Second

// Config is the on-disk configuration.
type Config struct {
	Backend       Backend `yaml:"backend" toml:"backend"`
	SpreadsheetID string  `yaml:"spreadsheet_id" toml:"spreadsheet_id"`
	Tab           string  `yaml:"tab" toml:"tab"`
	SQLitePath    string  `yaml:"sqlite_path" toml:"sqlite_path"`

	Auth auth.Config `yaml:"auth" toml:"auth"`

	// Schema is declared inline, or loaded from a CUE file.
	Schema     model.Schema `yaml:"schema" toml:"schema"`
	SchemaFile string       `yaml:"schema_file" toml:"schema_file"`

	InitTimeout    time.Duration `yaml:"-" toml:"-"`
	InitTimeoutRaw string        `yaml:"init_timeout" toml:"init_timeout"`

	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// Default returns a config with defaults applied and nothing else set.
func Default() *Config {
	return &Config{
		Backend:     BackendSheets,
		InitTimeout: DefaultInitTimeout,
		Logging:     LoggingConfig{Level: "info"},
	}
}

// Load reads path, expands ${VAR} references and parses it by extension.
// Environment overrides are not applied; see ApplyEnv.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(expanded, cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing config file: unknown key %q", undecoded[0].String())
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// expandEnvVars replaces ${VAR} with the variable's value, or "" when unset.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(re.FindStringSubmatch(match)[1])
	})
}

func (c *Config) parseDurations() error {
	if c.InitTimeoutRaw == "" {
		return nil
	}
	d, err := time.ParseDuration(c.InitTimeoutRaw)
	if err != nil {
		return fmt.Errorf("parsing init_timeout %q: %w", c.InitTimeoutRaw, err)
	}
	c.InitTimeout = d
	return nil
}

// ApplyEnv overrides fields from GRIDSTORE_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	backend := string(c.Backend)
	set("GRIDSTORE_BACKEND", &backend)
	c.Backend = Backend(backend)
	set("GRIDSTORE_SPREADSHEET_ID", &c.SpreadsheetID)
	set("GRIDSTORE_TAB", &c.Tab)
	set("GRIDSTORE_SQLITE_PATH", &c.SQLitePath)
	set("GRIDSTORE_LOG_LEVEL", &c.Logging.Level)
	set("GRIDSTORE_CREDENTIALS", &c.Auth.CredentialsFile)
}

// Validate checks the config is usable. The schema itself is validated
// when resolved.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSheets:
		if err := c.Auth.Validate(); err != nil {
			return err
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("backend must be one of sheets, sqlite, memory; got %q", c.Backend)
	}
	if err := c.Table().Validate(); err != nil {
		return err
	}
	if len(c.Schema) > 0 && c.SchemaFile != "" {
		return fmt.Errorf("schema and schema_file are mutually exclusive")
	}
	if len(c.Schema) == 0 && c.SchemaFile == "" {
		return fmt.Errorf("one of schema or schema_file is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.InitTimeout < 0 {
		return fmt.Errorf("init_timeout must not be negative")
	}
	return nil
}

// Table returns the configured table.
func (c *Config) Table() grid.Table {
	return grid.Table{SpreadsheetID: c.SpreadsheetID, Tab: c.Tab}
}

// LogLevel parses Logging.Level. Empty means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.Logging.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

// ResolveSchema returns the inline schema or loads SchemaFile, relative to
// the config file's directory.
func (c *Config) ResolveSchema() (model.Schema, error) {
	var s model.Schema
	if c.SchemaFile != "" {
		loaded, err := schema.LoadCUE(c.resolvePath(c.SchemaFile), "")
		if err != nil {
			return nil, err
		}
		s = loaded
	} else {
		s = c.Schema.Clone()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Connector returns a store.Connector for the configured backend. The
// memory backend shares one grid across every connection from the same
// Connector. logger receives the sheets backend's auth and call records;
// nil means slog.Default().
func (c *Config) Connector(logger *slog.Logger) (store.Connector, error) {
	switch c.Backend {
	case BackendMemory:
		m := grid.NewMemory()
		return func(context.Context) (grid.Transport, error) { return m, nil }, nil

	case BackendSQLite:
		path := c.resolvePath(c.SQLitePath)
		return func(context.Context) (grid.Transport, error) {
			return sqlitegrid.Open(path)
		}, nil

	case BackendSheets:
		creds := c.Auth
		creds.Logger = logger
		if creds.CredentialsFile != "" {
			creds.CredentialsFile = c.resolvePath(creds.CredentialsFile)
		}
		return func(ctx context.Context) (grid.Transport, error) {
			// Token refreshes outlive the initialization context.
			client, err := auth.HTTPClient(context.WithoutCancel(ctx), creds, sheets.Scope)
			if err != nil {
				return nil, err
			}
			tr, err := sheets.NewWithClient(ctx, client)
			if err != nil {
				return nil, err
			}
			return tr.WithLogger(logger), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

// StoreConfig assembles everything store.New needs.
func (c *Config) StoreConfig(logger *slog.Logger) (store.Config, error) {
	if err := c.Validate(); err != nil {
		return store.Config{}, err
	}
	s, err := c.ResolveSchema()
	if err != nil {
		return store.Config{}, err
	}
	connect, err := c.Connector(logger)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Table:   c.Table(),
		Schema:  s,
		Connect: connect,
		Logger:  logger,
	}, nil
}
