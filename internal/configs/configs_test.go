package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	errs "taskhub.com/taskhub/internal/errors"
)

func TestTableForEnvironmentDefaults(t *testing.T) {
	table, err := TableForEnvironment("", "playground")
	if err != nil {
		t.Fatalf("playground lookup failed: %v", err)
	}
	if table != "media_tasks_playground" {
		t.Errorf("unexpected playground table %q", table)
	}

	table, err = TableForEnvironment("", "production")
	if err != nil {
		t.Fatalf("production lookup failed: %v", err)
	}
	if table != "media_tasks" {
		t.Errorf("unexpected production table %q", table)
	}
}

func TestTableForEnvironmentUnknown(t *testing.T) {
	if _, err := TableForEnvironment("", "staging"); !errors.Is(err, errs.ErrUnknownEnvironment) {
		t.Errorf("expected ErrUnknownEnvironment, got %v", err)
	}
}

func TestTableForEnvironmentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environments.yaml")
	content := "environments:\n  playground: sandbox_tasks\n  production: media_tasks_v2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	table, err := TableForEnvironment(path, "production")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if table != "media_tasks_v2" {
		t.Errorf("expected file to override defaults, got %q", table)
	}

	if _, err := TableForEnvironment(path, "playground_v1"); !errors.Is(err, errs.ErrUnknownEnvironment) {
		t.Errorf("expected ErrUnknownEnvironment for env absent from file, got %v", err)
	}
}

func TestTableForEnvironmentBadFile(t *testing.T) {
	if _, err := TableForEnvironment(filepath.Join(t.TempDir(), "missing.yaml"), "playground"); err == nil {
		t.Errorf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("other: value\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := TableForEnvironment(path, "playground"); err == nil {
		t.Errorf("expected error for file without environments section")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TASKHUB_TEST_STRING", "value")
	if got := getEnv("TASKHUB_TEST_STRING", "fallback"); got != "value" {
		t.Errorf("expected env value, got %q", got)
	}
	if got := getEnv("TASKHUB_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}

	t.Setenv("TASKHUB_TEST_INT", "42")
	if got := getEnvAsInt("TASKHUB_TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := getEnvAsInt("TASKHUB_TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}
}
