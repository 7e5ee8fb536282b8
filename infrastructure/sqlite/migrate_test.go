package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
)

func TestApplyEmbeddedMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "embedded.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	applied, err := ApplyEmbeddedMigrations(context.Background(), db)
	if err != nil {
		t.Fatalf("apply embedded migrations: %v", err)
	}
	if len(applied) == 0 {
		t.Fatalf("expected embedded migrations to be applied")
	}

	for _, table := range []string{"users", "sessions", "templates", "menu_items", "receipts", "receipt_items", "audit_logs"} {
		var count int64
		err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
			return tx.NewRaw(
				`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
			).Scan(ctx, &count)
		})
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected %s table after embedded migrations, got %d", table, count)
		}
	}
}

func TestApplyMigrationsSkipsAppliedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001_a.sql"), []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`), 0o600); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	db, err := OpenDB(filepath.Join(t.TempDir(), "dir.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	applied, err := ApplyMigrations(context.Background(), db, dir)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if len(applied) != 1 || applied[0] != "0001_a.sql" {
		t.Fatalf("unexpected first apply result: %v", applied)
	}

	if err := os.WriteFile(filepath.Join(dir, "0002_b.sql"), []byte(`CREATE TABLE b (id INTEGER PRIMARY KEY);`), 0o600); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	applied, err = ApplyMigrations(context.Background(), db, dir)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if len(applied) != 1 || applied[0] != "0002_b.sql" {
		t.Fatalf("expected only the new file on second apply, got %v", applied)
	}
}

func TestApplyMigrationsMissingDir(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "missing.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if _, err := ApplyMigrations(context.Background(), db, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing migrations dir")
	}
}
