package db

import (
	"os"
	"path/filepath"
	"testing"
)

const migrationsTestPrefix = "db:migrations_test"

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("%s - failed to write %s: %v", migrationsTestPrefix, name, err)
		}
	}
	return dir
}

func TestLoadMigrationFiles_SortedAndNamed(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0003_third.sql":  "THIRD",
		"0001_first.sql":  "FIRST",
		"0002_second.sql": "SECOND",
	})

	result, err := LoadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", migrationsTestPrefix, err)
	}
	if len(result) != 3 {
		t.Fatalf("%s - expected 3 migrations, got %d", migrationsTestPrefix, len(result))
	}

	want := []Migration{
		{Name: "0001_first", SQL: "FIRST"},
		{Name: "0002_second", SQL: "SECOND"},
		{Name: "0003_third", SQL: "THIRD"},
	}
	for i, w := range want {
		if result[i] != w {
			t.Errorf("%s - migration %d = %+v, want %+v", migrationsTestPrefix, i, result[i], w)
		}
	}
}

func TestLoadMigrationFiles_SkipsNonSQLAndDirectories(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_create.sql": "CREATE TABLE t1;",
		"README.md":       "# Migrations",
		"config.json":     "{}",
	})
	if err := os.Mkdir(filepath.Join(dir, "0002_dir.sql"), 0o755); err != nil {
		t.Fatalf("%s - failed to create subdir: %v", migrationsTestPrefix, err)
	}

	result, err := LoadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", migrationsTestPrefix, err)
	}
	if len(result) != 1 || result[0].Name != "0001_create" {
		t.Errorf("%s - expected only 0001_create, got %+v", migrationsTestPrefix, result)
	}
}

func TestLoadMigrationFiles_EmptyDir(t *testing.T) {
	result, err := LoadMigrationFiles(t.TempDir())
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", migrationsTestPrefix, err)
	}
	if len(result) != 0 {
		t.Errorf("%s - expected empty result, got %d items", migrationsTestPrefix, len(result))
	}
}

func TestLoadMigrationFiles_NonExistentDir(t *testing.T) {
	if _, err := LoadMigrationFiles(filepath.Join(t.TempDir(), "nonexistent")); err == nil {
		t.Errorf("%s - expected error for non-existent directory", migrationsTestPrefix)
	}
}

func TestLoadMigrationFiles_RepositoryMigrations(t *testing.T) {
	result, err := LoadMigrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", migrationsTestPrefix, err)
	}
	if len(result) == 0 || result[0].Name != "0001_agents" {
		t.Errorf("%s - expected 0001_agents first, got %+v", migrationsTestPrefix, result)
	}
}

func TestPending(t *testing.T) {
	migrations := []Migration{{Name: "0001_agents"}, {Name: "0002_agent_tools"}, {Name: "0003_next"}}

	tests := []struct {
		name    string
		applied map[string]bool
		want    []string
	}{
		{"none applied", map[string]bool{}, []string{"0001_agents", "0002_agent_tools", "0003_next"}},
		{"first applied", map[string]bool{"0001_agents": true}, []string{"0002_agent_tools", "0003_next"}},
		{"all applied", map[string]bool{"0001_agents": true, "0002_agent_tools": true, "0003_next": true}, nil},
		{"gap", map[string]bool{"0001_agents": true, "0003_next": true}, []string{"0002_agent_tools"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pending(migrations, tt.applied)
			if len(got) != len(tt.want) {
				t.Fatalf("%s - pending = %v, want %v", migrationsTestPrefix, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("%s - pending[%d] = %s, want %s", migrationsTestPrefix, i, got[i], tt.want[i])
				}
			}
		})
	}
}
