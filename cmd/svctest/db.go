package main

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/svctest/db"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Check the test database configuration",
}

type DBPingOptions struct {
	Dialect string `json:"dialect" flag:"dialect" help:"postgres or sqlite (default: SVCTEST_DB_DIALECT or .svctest.yaml)"`
	DSN     string `json:"dsn" flag:"dsn" help:"Connection string (default: SVCTEST_DB_DSN or .svctest.yaml)"`
}

func (o DBPingOptions) GetName() string { return "ping" }

func (o DBPingOptions) Help() api.Text {
	return clicky.Text(`Open the test database and report its server version.

Configuration is read from ~/.svctest.yaml, then ./.svctest.yaml, then
the SVCTEST_DB_DIALECT and SVCTEST_DB_DSN environment variables, and
finally the flags below.

EXAMPLES:
  svctest db ping
  svctest db ping --dialect postgres --dsn postgres://localhost:5432/app_test`)
}

type PingResult struct {
	Dialect string `json:"dialect"`
	Version string `json:"version"`
}

func (r PingResult) Pretty() api.Text {
	return clicky.Text("✓ ", "text-green-600").Append(r.Version, "font-bold")
}

func init() {
	rootCmd.AddCommand(dbCmd)
	clicky.AddCommand(dbCmd, DBPingOptions{}, runDBPing)
}

func runDBPing(opts DBPingOptions) (any, error) {
	wd, err := getWorkingDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := db.LoadConfig(wd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg = db.MergeConfig(cfg, db.FileConfig{DB: db.Config{Dialect: opts.Dialect, DSN: opts.DSN}})

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close(conn) }()

	version, err := db.ServerVersion(conn)
	if err != nil {
		return nil, err
	}
	return PingResult{Dialect: conn.Dialector.Name(), Version: version}, nil
}
