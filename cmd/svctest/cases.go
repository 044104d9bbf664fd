package main

import (
	"fmt"
	"path/filepath"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/svctest/db"
	"github.com/flanksource/svctest/fixtures"
)

type CasesOptions struct {
	Filter string   `json:"filter" flag:"filter" help:"Glob on case directory names (default: SVCTEST_FILTER or .svctest.yaml)"`
	Args   []string `json:"-" args:"true"`
}

func (o CasesOptions) GetName() string { return "cases" }

func (o CasesOptions) Help() api.Text {
	return clicky.Text(`List the test cases under one or more case roots.

Every sub-directory of a root is a case. Each fixture file is decoded
(json, yaml, toml, text, with .tmpl rendered first) exactly as the test
helper would and the resulting keys are shown. Cases whose fixtures
fail to load are marked and make the command exit non-zero.

EXAMPLES:
  # List the cases under ./tests/users
  svctest cases tests/users

  # Only the cases for the create service
  svctest cases tests/users --filter 'create-*'`)
}

func init() {
	clicky.AddCommand(rootCmd, CasesOptions{}, runCases)
}

func runCases(opts CasesOptions) (any, error) {
	if len(opts.Args) == 0 {
		return nil, fmt.Errorf("at least one case root is required")
	}

	wd, err := getWorkingDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	filter := opts.Filter
	if filter == "" {
		cfg, err := db.LoadConfig(wd)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		filter = cfg.Filter
	}

	var suites []fixtures.Suite
	for _, root := range opts.Args {
		if !filepath.IsAbs(root) {
			root = filepath.Join(wd, root)
		}
		suite, err := fixtures.Scan(root, filter)
		if err != nil {
			return nil, err
		}
		if suite.Failed() > 0 {
			exitCode = 1
		}
		suites = append(suites, *suite)
	}
	return suites, nil
}
