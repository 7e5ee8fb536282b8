package audit

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/uptrace/bun"

	"receiptstudio/infrastructure/sqlite"
)

func openAuditTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "audit-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	if _, err := sqlite.ApplyMigrations(context.Background(), db, filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestWriteAndForEntity(t *testing.T) {
	db := openAuditTestDB(t)
	svc := NewService()
	ctx := context.Background()

	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := svc.Write(ctx, tx, 1, "receipt.create", "receipts", "r-1", nil, map[string]string{"total": "65.00"}); err != nil {
			return err
		}
		return svc.Write(ctx, tx, 1, "receipt.visibility", "receipts", "r-1", map[string]bool{"is_public": false}, map[string]bool{"is_public": true})
	})
	if err != nil {
		t.Fatalf("write audit: %v", err)
	}

	logs, err := svc.ForEntity(ctx, db.R, "receipts", "r-1")
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(logs))
	}
	if logs[0].Action != "receipt.visibility" {
		t.Fatalf("expected newest first, got %s", logs[0].Action)
	}
	if logs[1].BeforeJSON != "" || logs[1].AfterJSON != `{"total":"65.00"}` {
		t.Fatalf("unexpected json: before=%q after=%q", logs[1].BeforeJSON, logs[1].AfterJSON)
	}
}
