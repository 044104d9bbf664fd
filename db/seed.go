package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/flanksource/commons/logger"
	"gorm.io/gorm"
)

// TableRows is the seed data for one table
type TableRows struct {
	Table string           `json:"table" yaml:"table"`
	Rows  []map[string]any `json:"rows" yaml:"rows"`
}

// ParseSeed accepts the seed fixture shapes:
//
//	"INSERT INTO ..."                             raw SQL
//	{"users": [{...}], "posts": [{...}]}          tables in name order
//	[{"table": "users", "rows": [{...}]}, ...]    tables in the given order
func ParseSeed(seed any) (string, []TableRows, error) {
	switch v := seed.(type) {
	case nil:
		return "", nil, nil
	case string:
		return v, nil, nil
	case map[string]any:
		tables := make([]string, 0, len(v))
		for table := range v {
			tables = append(tables, table)
		}
		sort.Strings(tables)

		var out []TableRows
		for _, table := range tables {
			rows, err := parseRows(table, v[table])
			if err != nil {
				return "", nil, err
			}
			out = append(out, TableRows{Table: table, Rows: rows})
		}
		return "", out, nil
	case []any:
		var out []TableRows
		for i, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				return "", nil, fmt.Errorf("seed[%d]: expected {table, rows}, got %T", i, item)
			}
			table, _ := entry["table"].(string)
			if table == "" {
				return "", nil, fmt.Errorf("seed[%d]: table is required", i)
			}
			rows, err := parseRows(table, entry["rows"])
			if err != nil {
				return "", nil, err
			}
			out = append(out, TableRows{Table: table, Rows: rows})
		}
		return "", out, nil
	}
	return "", nil, fmt.Errorf("unsupported seed type %T", seed)
}

func parseRows(table string, value any) ([]map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for i, item := range v {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("seed %s[%d]: expected an object, got %T", table, i, item)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("seed %s: expected a list of rows, got %T", table, value)
}

// Seed inserts fixture rows using tx. Under test tx is the case transaction so
// the rows disappear with the rollback.
func Seed(ctx context.Context, tx *gorm.DB, seed any) error {
	raw, tables, err := ParseSeed(seed)
	if err != nil {
		return err
	}

	if raw != "" {
		if err := tx.WithContext(ctx).Exec(raw).Error; err != nil {
			return fmt.Errorf("failed to execute seed sql: %w", err)
		}
		return nil
	}

	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		if err := tx.WithContext(ctx).Table(t.Table).Create(t.Rows).Error; err != nil {
			return fmt.Errorf("failed to seed %s: %w", t.Table, err)
		}
		logger.V(3).Infof("Seeded %d rows into %s", len(t.Rows), t.Table)
	}
	return nil
}
