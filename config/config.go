// Package config loads server and runner settings.
//
// Values come from defaults, then an optional YAML file, then environment
// variables. Command line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/meikuraledutech/workflow/script"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds everything needed to run the server.
type Config struct {
	Addr         string `yaml:"addr"`
	Driver       string `yaml:"driver"`
	DatabaseURL  string `yaml:"database_url"`
	SQLitePath   string `yaml:"sqlite_path"`
	ScriptEngine string `yaml:"script_engine"`
	Workers      int    `yaml:"workers"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":3000",
		Driver:       DriverSQLite,
		SQLitePath:   "data/app.db",
		ScriptEngine: script.Starlark,
		Workers:      8,
		LogLevel:     "info",
		LogFormat:    "auto",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"WORKFLOW_ADDR":          &c.Addr,
		"WORKFLOW_DRIVER":        &c.Driver,
		"DATABASE_URL":           &c.DatabaseURL,
		"SQLITE_PATH":            &c.SQLitePath,
		"WORKFLOW_SCRIPT_ENGINE": &c.ScriptEngine,
		"LOG_LEVEL":              &c.LogLevel,
		"LOG_FORMAT":             &c.LogFormat,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Addr = ":" + v
	}
	if v, ok := lookup("WORKFLOW_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: WORKFLOW_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown driver %q", c.Driver)
	}
	if _, err := script.New(c.ScriptEngine); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	return nil
}
