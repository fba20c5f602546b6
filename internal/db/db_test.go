package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitCreatesParentDirAndPreferencesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "fitit.db")

	if err := Init(path); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
		DB = nil
	})

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("expected parent dir to exist: %v", err)
	}

	if !DB.Migrator().HasTable(&Preference{}) {
		t.Fatal("expected preferences table to be migrated")
	}
}

func TestInitRejectsFileAsParent(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(parent, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if err := Init(filepath.Join(parent, "fitit.db")); err == nil {
		t.Fatal("expected error when parent path is a file")
	}
}
