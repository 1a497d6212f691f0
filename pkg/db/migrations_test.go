package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrations(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("db:migrations_test - failed to write %s: %v", name, err)
		}
	}
}

func TestLoadMigrationFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeMigrations(t, dir, map[string]string{
		"0003_third.sql":  "THIRD",
		"0001_first.sql":  "FIRST",
		"README.md":       "# Migrations",
		"0002_second.sql": "SECOND",
		"config.json":     "{}",
	})
	// A directory with a .sql suffix is not a migration.
	if err := os.Mkdir(filepath.Join(dir, "0004_dir.sql"), 0755); err != nil {
		t.Fatalf("db:migrations_test - failed to create subdir: %v", err)
	}

	result, err := LoadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("db:migrations_test - expected 3 migrations, got %d", len(result))
	}

	want := []Migration{
		{Name: "0001_first.sql", SQL: "FIRST"},
		{Name: "0002_second.sql", SQL: "SECOND"},
		{Name: "0003_third.sql", SQL: "THIRD"},
	}
	for i, w := range want {
		if result[i] != w {
			t.Errorf("db:migrations_test - result[%d] = %+v, want %+v", i, result[i], w)
		}
	}
}

func TestLoadMigrationFiles_EmptyDir(t *testing.T) {
	result, err := LoadMigrationFiles(t.TempDir())
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("db:migrations_test - expected empty result, got %d items", len(result))
	}
}

func TestLoadMigrationFiles_NonExistentDir(t *testing.T) {
	if _, err := LoadMigrationFiles(filepath.Join(t.TempDir(), "nonexistent")); err == nil {
		t.Error("db:migrations_test - expected error for non-existent directory")
	}
}

func TestLoadMigrationFiles_RepoMigrations(t *testing.T) {
	result, err := LoadMigrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	if len(result) < 2 {
		t.Fatalf("db:migrations_test - expected repo migrations, got %d", len(result))
	}
	if result[0].Name != "0001_application_commands.sql" {
		t.Errorf("db:migrations_test - first migration = %s", result[0].Name)
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Name: "0001"}, {Name: "0002"}, {Name: "0003"}}

	tests := []struct {
		name    string
		applied map[string]bool
		want    []string
	}{
		{"none applied", nil, []string{"0001", "0002", "0003"}},
		{"first applied", map[string]bool{"0001": true}, []string{"0002", "0003"}},
		{"gap", map[string]bool{"0001": true, "0003": true}, []string{"0002"}},
		{"all applied", map[string]bool{"0001": true, "0002": true, "0003": true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pending(all, tt.applied)
			if len(got) != len(tt.want) {
				t.Fatalf("db:migrations_test - Pending = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Errorf("db:migrations_test - Pending[%d] = %s, want %s", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}
