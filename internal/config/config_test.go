package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gridstore.yaml", `
backend: sqlite
spreadsheet_id: local
tab: People
sqlite_path: grid.db
init_timeout: 5s
schema:
  - name: name
    type: string
    required: true
  - name: age
    type: int
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, grid.Table{SpreadsheetID: "local", Tab: "People"}, cfg.Table())
	assert.Equal(t, 5*time.Second, cfg.InitTimeout)
	assert.Equal(t, model.Schema{
		{Name: "name", Type: model.KindString, Required: true},
		{Name: "age", Type: model.KindNumber},
	}, cfg.Schema)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gridstore.toml", `
backend = "memory"
spreadsheet_id = "s"
tab = "People"

[[schema]]
name = "name"
type = "string"
required = true

[[schema]]
name = "active"
type = "boolean"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Backend)
	require.Len(t, cfg.Schema, 2)
	assert.Equal(t, model.KindBool, cfg.Schema[1].Type)
	assert.Equal(t, DefaultInitTimeout, cfg.InitTimeout)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(writeFile(t, dir, "a.yaml", "backend: memory\nspreadsheet: x\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "a.toml", "backend = \"memory\"\nspreadsheet = \"x\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spreadsheet")
}

func TestLoad_RejectsBadKind(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.yaml", "schema:\n  - name: x\n    type: date\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GRIDSTORE_SHEET", "from-env")
	path := writeFile(t, t.TempDir(), "a.yaml", "spreadsheet_id: ${TEST_GRIDSTORE_SHEET}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SpreadsheetID)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, t.TempDir(), "a.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, BackendSheets, cfg.Backend)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Tab = "FromFile"
	cfg.ApplyEnv(envMap(map[string]string{
		"GRIDSTORE_BACKEND":        "sqlite",
		"GRIDSTORE_SPREADSHEET_ID": "env-sheet",
		"GRIDSTORE_SQLITE_PATH":    "/tmp/g.db",
		"GRIDSTORE_LOG_LEVEL":      "warn",
		"GRIDSTORE_CREDENTIALS":    "/etc/sa.json",
		"GRIDSTORE_TAB":            "",
	}))

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "env-sheet", cfg.SpreadsheetID)
	assert.Equal(t, "FromFile", cfg.Tab, "empty variables do not override")
	assert.Equal(t, "/tmp/g.db", cfg.SQLitePath)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/etc/sa.json", cfg.Auth.CredentialsFile)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Backend = BackendMemory
		c.SpreadsheetID = "s"
		c.Tab = "t"
		c.Schema = model.Schema{{Name: "name", Type: model.KindString}}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad backend", func(c *Config) { c.Backend = "excel" }, "backend must be"},
		{"sqlite without path", func(c *Config) { c.Backend = BackendSQLite }, "sqlite_path"},
		{"sheets bad auth", func(c *Config) { c.Backend = BackendSheets; c.Auth.ClientID = "x" }, "client_secret"},
		{"no tab", func(c *Config) { c.Tab = "" }, "tab"},
		{"no schema", func(c *Config) { c.Schema = nil }, "schema"},
		{"both schemas", func(c *Config) { c.SchemaFile = "s.cue" }, "mutually exclusive"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveSchema_CUEFileRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "people.cue"))
	require.NoError(t, err)
	writeFile(t, dir, "people.cue", string(src))
	path := writeFile(t, dir, "gridstore.yaml", "schema_file: people.cue\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	s, err := cfg.ResolveSchema()
	require.NoError(t, err)
	assert.Equal(t, model.Schema{
		{Name: "name", Type: model.KindString, Required: true},
		{Name: "age", Type: model.KindNumber, Required: true},
		{Name: "active", Type: model.KindBool},
	}, s)
}

func TestResolveSchema_InvalidInline(t *testing.T) {
	cfg := Default()
	cfg.Schema = model.Schema{{Name: "__ID", Type: model.KindString}}
	_, err := cfg.ResolveSchema()
	assert.Equal(t, model.ErrCodeInvalidSchema, model.CodeOf(err))
}

func TestConnector_MemorySharesGrid(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendMemory
	connect, err := cfg.Connector(nil)
	require.NoError(t, err)

	ctx := context.Background()
	a, err := connect(ctx)
	require.NoError(t, err)
	b, err := connect(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestStoreConfig_SQLiteEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gridstore.yaml", `
backend: sqlite
spreadsheet_id: local
tab: People
sqlite_path: grid.db
schema:
  - {name: name, type: string, required: true}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	sc, err := cfg.StoreConfig(nil)
	require.NoError(t, err)

	ctx := context.Background()
	tr, err := sc.Connect(ctx)
	require.NoError(t, err)
	defer tr.(grid.Closer).Close()

	require.NoError(t, tr.AppendRows(ctx, grid.WholeTable(sc.Table), [][]string{{"x"}}))
	_, err = os.Stat(filepath.Join(dir, "grid.db"))
	assert.NoError(t, err, "sqlite path resolves against the config directory")
}
