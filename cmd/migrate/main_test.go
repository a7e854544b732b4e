package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_transactions.sql", true, 1, "create_transactions"},
		{"0012_seed_app_configs.sql", true, 12, "seed_app_configs"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.valid {
				t.Fatalf("ok = %v, want %v", ok, tt.valid)
			}
			if version != tt.version || name != tt.name {
				t.Errorf("got (%d, %q), want (%d, %q)", version, name, tt.version, tt.name)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_create_budgets.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.budgets` (id STRING);")
	writeFile(t, dir, "0001_create_transactions.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.transactions` (id STRING);")
	writeFile(t, dir, "README.md", "not a migration")

	migrations, err := loadMigrations(dir, "demo", "finflow")
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("not sorted by version: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if !strings.Contains(migrations[0].SQL, "`demo.finflow.transactions`") {
		t.Errorf("placeholders not substituted: %s", migrations[0].SQL)
	}

	again, _ := loadMigrations(dir, "other", "dataset")
	if again[0].Checksum != migrations[0].Checksum {
		t.Error("checksum must not depend on the target project and dataset")
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_a.sql", "SELECT 1;")
	writeFile(t, dir, "0001_b.sql", "SELECT 2;")

	if _, err := loadMigrations(dir, "p", "d"); err == nil {
		t.Error("expected duplicate version error")
	}
}

func TestLoadMigrations_RepositoryFiles(t *testing.T) {
	migrations, err := loadMigrations(filepath.Join("..", "..", "migrations", "bigquery"), "p", "d")
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("%s still contains a placeholder", m.Filename)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Checksum: "a"},
		{Version: 2, Checksum: "b"},
		{Version: 3, Checksum: "c"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "a"},
		{Version: 2, Checksum: "changed"},
	}

	pending, mismatched := pendingMigrations(all, applied)
	if len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("pending = %+v, want version 3 only", pending)
	}
	if len(mismatched) != 1 || mismatched[0].Version != 2 {
		t.Errorf("mismatched = %+v, want version 2", mismatched)
	}
}
