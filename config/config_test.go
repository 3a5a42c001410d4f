package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WORKFLOW_ADDR", "WORKFLOW_DRIVER", "DATABASE_URL", "SQLITE_PATH",
		"WORKFLOW_SCRIPT_ENGINE", "LOG_LEVEL", "LOG_FORMAT", "PORT", "WORKFLOW_WORKERS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8080"
driver: postgres
database_url: postgres://file/db
workers: 3
script_engine: expr
`), 0o644))

	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL, "env overrides file")
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "expr", cfg.ScriptEngine)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":             "9000",
		"WORKFLOW_WORKERS": "4",
		"LOG_LEVEL":        "debug",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)

	env["WORKFLOW_WORKERS"] = "many"
	assert.Error(t, cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without url", func(c *Config) { c.Driver = DriverPostgres }},
		{"unknown driver", func(c *Config) { c.Driver = "mysql" }},
		{"unknown engine", func(c *Config) { c.ScriptEngine = "lua" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"sqlite without path", func(c *Config) { c.SQLitePath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
