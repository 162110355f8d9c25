package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig creates a YAML config for a file-backed SQLite database
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "db_type: sqlite\n" +
		"db_database: " + filepath.Join(dir, "portal.db") + "\n" +
		"identity_provider: local\n" +
		"jwt_secret: test-secret\n" +
		"admin_email: admin@x.com\n" +
		"admin_name: Head Mentor\n" +
		"log:\n  level: error\n  console: false\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestInternAddAndList tests adding interns and listing them
func TestInternAddAndList(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "intern", "add", "--name", "Ann Lee", "--email", "ann@x.com", "--skills", "Go, SQL")
	if err != nil {
		t.Fatalf("intern add failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ann@x.com / intern123") || !strings.Contains(out, "id: ") {
		t.Errorf("Expected credentials and id, got %q", out)
	}

	_, err = run(t, "--config", cfg, "intern", "add", "--name", "Ann Again", "--email", "ANN@x.com")
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Errorf("Expected exit code 2 for a duplicate intern, got %v", err)
	}

	out, err = run(t, "--config", cfg, "intern", "list")
	if err != nil {
		t.Fatalf("intern list failed: %v", err)
	}
	if !strings.Contains(out, "Ann Lee") || !strings.Contains(out, "Go,SQL") || !strings.Contains(out, "Active") {
		t.Errorf("Unexpected list output %q", out)
	}
}

// TestAdminSeed tests the password checks and repeated seeding
func TestAdminSeed(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, "--config", cfg, "admin", "seed", "--password", "abc")
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Errorf("Expected exit code 2 for a short password, got %v", err)
	}

	for range 2 {
		out, err := run(t, "--config", cfg, "admin", "seed", "--password", "adminpw")
		if err != nil {
			t.Fatalf("admin seed failed: %v", err)
		}
		if !strings.Contains(out, "administrator admin@x.com ready") {
			t.Errorf("Unexpected seed output %q", out)
		}
	}
}

// TestMissingConfig tests the configuration exit code
func TestMissingConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate")
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != 3 {
		t.Errorf("Expected exit code 3, got %v", err)
	}
}

// TestSchema tests the sqlite schema dump
func TestSchema(t *testing.T) {
	out, err := run(t, "--config", writeConfig(t), "schema")
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	for _, table := range []string{"=== Table: documents ===", "=== Table: accounts ==="} {
		if !strings.Contains(out, table) {
			t.Errorf("Expected %q in %q", table, out)
		}
	}
}
