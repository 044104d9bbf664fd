package db

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/joho/godotenv"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"

	ConfigFile = ".svctest.yaml"
	EnvFile    = ".env"

	EnvDialect = "SVCTEST_DB_DIALECT"
	EnvDSN     = "SVCTEST_DB_DSN"
	EnvFilter  = "SVCTEST_FILTER"
)

// Config describes the test database.
type Config struct {
	Dialect string `json:"dialect,omitempty"`
	DSN     string `json:"dsn,omitempty"`
	// LogLevel is one of silent, error, warn, info
	LogLevel     string `json:"logLevel,omitempty"`
	MaxOpenConns int    `json:"maxOpenConns,omitempty"`
}

// FileConfig is the layout of .svctest.yaml
type FileConfig struct {
	DB Config `json:"db"`
	// Filter is a glob on case directory names
	Filter string `json:"filter,omitempty"`
}

// DefaultConfig is an in-memory sqlite database
func DefaultConfig() Config {
	return Config{
		Dialect:  DialectSQLite,
		DSN:      ":memory:",
		LogLevel: "warn",
	}
}

// LoadConfig merges defaults, ~/.svctest.yaml, <cwd>/.svctest.yaml and the
// SVCTEST_* environment variables, later sources winning. Variables missing
// from the environment are read from <cwd>/.env.
func LoadConfig(cwd string) (FileConfig, error) {
	cfg := FileConfig{DB: DefaultConfig()}

	if home, err := os.UserHomeDir(); err == nil {
		cfg = mergeFromFile(cfg, filepath.Join(home, ConfigFile))
	}

	if cwd != "" {
		absCwd, err := filepath.Abs(cwd)
		if err != nil {
			return cfg, err
		}
		cfg = mergeFromFile(cfg, filepath.Join(absCwd, ConfigFile))

		// a missing .env is fine, existing variables are never overridden
		_ = godotenv.Load(filepath.Join(absCwd, EnvFile))
	}

	if v := os.Getenv(EnvDialect); v != "" {
		cfg.DB.Dialect = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv(EnvFilter); v != "" {
		cfg.Filter = v
	}
	cfg.DB.Dialect = normalizeDialect(cfg.DB.Dialect)
	return cfg, nil
}

func mergeFromFile(base FileConfig, path string) FileConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		return base
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return base
	}
	return MergeConfig(base, fc)
}

// MergeConfig applies the non-empty fields of override onto base
func MergeConfig(base, override FileConfig) FileConfig {
	if override.DB.Dialect != "" {
		base.DB.Dialect = override.DB.Dialect
	}
	if override.DB.DSN != "" {
		base.DB.DSN = override.DB.DSN
	}
	if override.DB.LogLevel != "" {
		base.DB.LogLevel = override.DB.LogLevel
	}
	if override.DB.MaxOpenConns > 0 {
		base.DB.MaxOpenConns = override.DB.MaxOpenConns
	}
	if override.Filter != "" {
		base.Filter = override.Filter
	}
	return base
}

func normalizeDialect(d string) string {
	switch strings.ToLower(d) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite
	case "postgres", "postgresql", "pg", "pgx":
		return DialectPostgres
	case "mysql", "mariadb":
		return DialectMySQL
	}
	return strings.ToLower(d)
}
