package db

import (
	"fmt"
	"strings"

	"github.com/flanksource/commons/logger"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// pure-Go driver registered by modernc.org/sqlite
const sqliteDriver = "sqlite"

// Dialector returns the gorm dialector for cfg
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch normalizeDialect(cfg.Dialect) {
	case DialectPostgres:
		conf, err := pgx.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid postgres dsn: %w", err)
		}
		logger.Debugf("Using postgres %s@%s:%d/%s", conf.User, conf.Host, conf.Port, conf.Database)
		return postgres.Open(cfg.DSN), nil
	case DialectMySQL:
		conf, err := mysqldriver.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		logger.Debugf("Using mysql %s@%s/%s", conf.User, conf.Addr, conf.DBName)
		return mysql.Open(cfg.DSN), nil
	case DialectSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		logger.Debugf("Using sqlite %s", dsn)
		return sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: dsn}), nil
	}
	return nil, fmt.Errorf("unsupported dialect '%s'", cfg.Dialect)
}

// Open connects to the database described by cfg
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewLogger(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if isMemory(cfg) {
		// every connection to :memory: is a different database
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}

	return db, nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ServerVersion returns the dialect and version reported by the server
func ServerVersion(db *gorm.DB) (string, error) {
	query := "SELECT version()"
	if db.Dialector.Name() == DialectSQLite {
		query = "SELECT sqlite_version()"
	}
	var version string
	if err := db.Raw(query).Scan(&version).Error; err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return fmt.Sprintf("%s %s", db.Dialector.Name(), version), nil
}

func isMemory(cfg Config) bool {
	if normalizeDialect(cfg.Dialect) != DialectSQLite {
		return false
	}
	return cfg.DSN == "" || strings.Contains(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory")
}
