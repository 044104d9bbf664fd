package main

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/svctest/fixtures"
	"github.com/flanksource/svctest/tester"
	"github.com/flanksource/svctest/validation"
)

type ValidateOptions struct {
	Rules    string `json:"rules" flag:"rules" help:"File with the expected-shape rules (json, yaml or toml)"`
	Data     string `json:"data" flag:"data" help:"File with the object to validate"`
	AutoTrim bool   `json:"autoTrim" flag:"auto-trim" help:"Trim all strings before validating"`
}

func (o ValidateOptions) GetName() string { return "validate" }

func (o ValidateOptions) Help() api.Text {
	return clicky.Text(`Validate a data file against an expected-shape rule set.

The core and extra rules are available. The cleaned output is what a
service test compares the service output with: any field listed under
"dropped" would make that comparison fail.

EXAMPLES:
  svctest validate --rules tests/users/create-user/expected.yaml --data output.json`)
}

type ValidateResult struct {
	Valid   bool                     `json:"valid"`
	Output  map[string]any           `json:"output,omitempty"`
	Errors  any                      `json:"errors,omitempty"`
	Dropped tester.DiffMap[api.Text] `json:"-"`
	Fields  []string                 `json:"dropped,omitempty"`
}

func (r ValidateResult) Pretty() api.Text {
	if !r.Valid {
		return clicky.Text("✗ invalid", "text-red-600 font-bold").NewLine().Add(clicky.Text(fmt.Sprintf("%v", r.Errors), "text-red-500"))
	}
	t := clicky.Text("✓ valid", "text-green-600 font-bold")
	if len(r.Dropped) > 0 {
		t = t.NewLine().Append("changed or dropped by the rules:", "text-yellow-600").NewLine().Add(r.Dropped.Pretty())
	}
	return t
}

func init() {
	clicky.AddCommand(rootCmd, ValidateOptions{}, runValidate)
}

func runValidate(opts ValidateOptions) (any, error) {
	if opts.Rules == "" || opts.Data == "" {
		return nil, fmt.Errorf("--rules and --data are required")
	}

	loader := fixtures.Loader{}
	rules, err := loader.ReadFile(opts.Rules, "")
	if err != nil {
		return nil, err
	}
	schema, ok := rules.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rules in %s must be an object, got %T", opts.Rules, rules)
	}

	data, err := loader.ReadFile(opts.Data, "")
	if err != nil {
		return nil, err
	}

	validator, err := validation.New(schema, validation.WithExtraRules(), validation.WithAutoTrim(opts.AutoTrim))
	if err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	output, valid := validator.Validate(data)
	result := ValidateResult{Valid: valid, Output: output, Errors: validator.Errors()}
	if !valid {
		exitCode = 1
		return result, nil
	}

	if input, ok := data.(map[string]any); ok {
		delete(input, tester.StatusKey)
		mismatch, err := tester.Compare(input, output)
		if err != nil {
			return nil, err
		}
		result.Dropped = mismatch.Changes
		result.Fields = mismatch.Changes.Keys()
	}
	return result, nil
}
