package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRunValidate_ReportsDroppedFields(t *testing.T) {
	exitCode = 0
	t.Cleanup(func() { exitCode = 0 })
	dir := t.TempDir()

	opts := ValidateOptions{
		Rules: writeFile(t, dir, "expected.yaml", "id: required\nemail: [trim, email]\n"),
		Data:  writeFile(t, dir, "output.json", `{"status": 1, "id": 7, "email": " ann@example.com ", "secret": "x"}`),
	}
	out, err := runValidate(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := out.(ValidateResult)
	if !result.Valid {
		t.Fatalf("expected valid, got errors: %v", result.Errors)
	}
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if got := strings.Join(result.Fields, ","); got != "email,secret" {
		t.Errorf("expected email and secret to be dropped or changed, got %q", got)
	}
	if result.Output["email"] != "ann@example.com" {
		t.Errorf("expected trimmed email, got %v", result.Output["email"])
	}
}

func TestRunValidate_InvalidSetsExitCode(t *testing.T) {
	exitCode = 0
	t.Cleanup(func() { exitCode = 0 })
	dir := t.TempDir()

	out, err := runValidate(ValidateOptions{
		Rules: writeFile(t, dir, "expected.yaml", "id: positive_integer\n"),
		Data:  writeFile(t, dir, "output.json", `{"id": -1}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := out.(ValidateResult)
	if result.Valid {
		t.Fatal("expected the data to be invalid")
	}
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	errs, ok := result.Errors.(map[string]any)
	if !ok || errs["id"] != "NOT_POSITIVE_INTEGER" {
		t.Errorf("expected NOT_POSITIVE_INTEGER for id, got %v", result.Errors)
	}
}

func TestRunValidate_RequiresFiles(t *testing.T) {
	if _, err := runValidate(ValidateOptions{Rules: "expected.yaml"}); err == nil {
		t.Fatal("expected an error without --data")
	}
}
