package receipts

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"receiptstudio/frontend/menu"
	"receiptstudio/infrastructure/audit"
	"receiptstudio/infrastructure/charges"
	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/models"
)

var (
	owner = templates.Viewer{UserID: 1}
	other = templates.Viewer{UserID: 2}
	admin = templates.Viewer{UserID: 3, IsAdmin: true}
)

func openReceiptsTestDB(t *testing.T) (*sqlite.DB, models.Template) {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "receipts-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if _, err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, role) VALUES
			(1, 'owner', 'hash', 'cashier'), (2, 'other', 'hash', 'cashier'), (3, 'boss', 'hash', 'admin')`)
		return err
	})
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
	tpl := templates.NewTemplate("Cafe", owner.UserID)
	tpl.BusinessName = "Blue Cafe"
	tpl, err = templates.Create(context.Background(), db, nil, owner.UserID, tpl)
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return db, tpl
}

func sampleInput(templateID string) ReceiptInput {
	return ReceiptInput{
		TemplateID:    templateID,
		ReceiptNumber: "RCP-1001",
		CustomerName:  "Alice Moreau",
		ReceiptDate:   "2026-03-01",
		ReceiptTime:   "12:30",
		Items: []ItemInput{
			{Description: "Sample Item 1", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
			{Description: "Sample Item 2", Quantity: 1, UnitPrice: decimal.RequireFromString("8.75")},
		},
		Charges: ChargesInput{TaxEnabled: true, TaxRate: decimal.NewFromInt(8)},
	}
}

func assertTotals(t *testing.T, db *sqlite.DB, id, subtotal, tax, total string) {
	t.Helper()
	rec, err := Load(context.Background(), db, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	recomputed := charges.Compute(LineItemsOf(rec.Items), ChargeConfigOf(rec)).Rounded()
	if !rec.Total.Equal(recomputed.Total) {
		t.Fatalf("persisted total %s differs from recomputed %s", rec.Total, recomputed.Total)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"subtotal", rec.Subtotal, subtotal},
		{"tax", rec.TaxAmount, tax},
		{"total", rec.Total, total},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}
}

func TestCreateUpdateDeleteItemKeepPersistedTotals(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()

	rec, err := Create(ctx, db, auditSvc, owner, sampleInput(tpl.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	assertTotals(t, db, rec.ID, "33.75", "2.70", "36.45")

	in := InputOf(rec)
	in.Items[1].Quantity = 3
	updated, err := Update(ctx, db, auditSvc, owner, rec.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Items[0].ID != rec.Items[0].ID {
		t.Fatalf("expected line ids to survive an update")
	}
	assertTotals(t, db, rec.ID, "51.25", "4.10", "55.35")

	if _, err := DeleteItem(ctx, db, auditSvc, owner, rec.ID, updated.Items[1].ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	assertTotals(t, db, rec.ID, "25.00", "2.00", "27.00")

	_, err = DeleteItem(ctx, db, auditSvc, owner, rec.ID, updated.Items[0].ID)
	if !errors.Is(err, ErrLastItem) {
		t.Fatalf("expected ErrLastItem, got %v", err)
	}
	if _, err := DeleteItem(ctx, db, auditSvc, owner, rec.ID, "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	logs, err := auditSvc.ForEntity(ctx, db.R, "receipts", rec.ID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected create, update and line delete audit rows, got %d", len(logs))
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	ctx := context.Background()

	cases := map[string]func(*ReceiptInput){
		"no items":         func(in *ReceiptInput) { in.Items = nil },
		"blank line":       func(in *ReceiptInput) { in.Items[0].Description = "   " },
		"negative price":   func(in *ReceiptInput) { in.Items[0].UnitPrice = decimal.NewFromInt(-1) },
		"negative qty":     func(in *ReceiptInput) { in.Items[0].Quantity = -2 },
		"tax above 100":    func(in *ReceiptInput) { in.Charges.TaxRate = decimal.NewFromInt(101) },
		"missing number":   func(in *ReceiptInput) { in.ReceiptNumber = "" },
		"bad email":        func(in *ReceiptInput) { in.CustomerEmail = "not-an-email" },
		"foreign template": func(in *ReceiptInput) { in.TemplateID = "does-not-exist" },
	}
	for name, mutate := range cases {
		in := sampleInput(tpl.ID)
		mutate(&in)
		if _, err := Create(ctx, db, nil, owner, in); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}

	rows, err := ListMine(ctx, db, owner.UserID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rejected receipts must not be stored, got %d", len(rows))
	}
}

func TestAccessIsLimitedToOwnerAndAdmin(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	ctx := context.Background()
	rec, err := Create(ctx, db, nil, owner, sampleInput(tpl.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := LoadForViewer(ctx, db, rec.ID, other); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other user to get ErrNotFound, got %v", err)
	}
	if _, err := LoadForViewer(ctx, db, rec.ID, admin); err != nil {
		t.Fatalf("admin load: %v", err)
	}
	if _, err := Update(ctx, db, nil, other, rec.ID, sampleInput(tpl.ID)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected update by other user to fail, got %v", err)
	}
	if err := Delete(ctx, db, nil, other, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected delete by other user to fail, got %v", err)
	}

	if _, err := LoadPublic(ctx, db, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("private receipt must not be shared, got %v", err)
	}
	if err := SetVisibility(ctx, db, nil, owner, rec.ID, true); err != nil {
		t.Fatalf("share: %v", err)
	}
	shared, err := LoadPublic(ctx, db, rec.ID)
	if err != nil {
		t.Fatalf("load public: %v", err)
	}
	if shared.Template == nil || shared.Template.BusinessName != "Blue Cafe" {
		t.Fatalf("expected template to be loaded with the receipt, got %+v", shared.Template)
	}

	if err := Delete(ctx, db, nil, admin, rec.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := Load(ctx, db, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted receipt to be gone, got %v", err)
	}
}

func TestListSearchAndGallery(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	ctx := context.Background()

	first := sampleInput(tpl.ID)
	first.IsPublic = true
	if _, err := Create(ctx, db, nil, owner, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := sampleInput("")
	second.ReceiptNumber = "RCP-2002"
	second.CustomerName = "Bob 100% Real"
	if _, err := Create(ctx, db, nil, owner, second); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := Create(ctx, db, nil, other, sampleInput("")); err != nil {
		t.Fatalf("create other: %v", err)
	}

	cases := []struct {
		search string
		want   int
	}{
		{"", 2},
		{"BLUE", 1},
		{"alice", 1},
		{"rcp-2002", 1},
		{"100%", 1},
		{"%", 1},
		{"_", 0},
		{"nobody", 0},
	}
	for _, c := range cases {
		rows, err := ListMine(ctx, db, owner.UserID, c.search)
		if err != nil {
			t.Fatalf("list %q: %v", c.search, err)
		}
		if len(rows) != c.want {
			t.Fatalf("search %q: expected %d rows, got %d", c.search, c.want, len(rows))
		}
	}

	public, err := ListPublic(ctx, db, "")
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	if len(public) != 1 || public[0].BusinessName != "Blue Cafe" || public[0].CreatedByName != "owner" {
		t.Fatalf("unexpected gallery rows: %+v", public)
	}
	if !public[0].Total.Equal(decimal.RequireFromString("36.45")) {
		t.Fatalf("expected listed total 36.45, got %s", public[0].Total)
	}

	mine, err := ListForExport(ctx, db, owner)
	if err != nil {
		t.Fatalf("export list: %v", err)
	}
	all, err := ListForExport(ctx, db, admin)
	if err != nil {
		t.Fatalf("admin export list: %v", err)
	}
	if len(mine) != 2 || len(all) != 3 {
		t.Fatalf("expected 2 own and 3 total rows, got %d and %d", len(mine), len(all))
	}
}

func TestAppendMenuItemAddsSingleActiveLine(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	ctx := context.Background()
	rec, err := Create(ctx, db, nil, owner, sampleInput(tpl.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	latte, err := menu.Create(ctx, db, nil, owner, tpl.ID, menu.ItemInput{Name: "Latte", Price: decimal.RequireFromString("4.25"), IsActive: true})
	if err != nil {
		t.Fatalf("menu create: %v", err)
	}
	retired, err := menu.Create(ctx, db, nil, owner, tpl.ID, menu.ItemInput{Name: "Retired", Price: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("menu create: %v", err)
	}

	got, err := AppendMenuItem(ctx, db, nil, owner, rec.ID, latte.ID)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	last := got.Items[len(got.Items)-1]
	if len(got.Items) != 3 || last.Description != "Latte" || last.Quantity != 1 || last.Position != 2 {
		t.Fatalf("unexpected appended line: %+v", last)
	}
	assertTotals(t, db, rec.ID, "38.00", "3.04", "41.04")

	if _, err := AppendMenuItem(ctx, db, nil, owner, rec.ID, retired.ID); !errors.Is(err, menu.ErrNotFound) {
		t.Fatalf("expected inactive item to be rejected, got %v", err)
	}
}

func TestDeletedTemplateLeavesReceiptRenderable(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	ctx := context.Background()
	rec, err := Create(ctx, db, nil, owner, sampleInput(tpl.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := templates.Delete(ctx, db, nil, owner, tpl.ID); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	loaded, err := Load(ctx, db, rec.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TemplateID != nil || loaded.Template != nil {
		t.Fatalf("expected template reference cleared, got %v", loaded.TemplateID)
	}
	out := ToRender(loaded)
	if out.Branding.BusinessName != "" {
		t.Fatalf("expected no business name, got %q", out.Branding.BusinessName)
	}
	line, ok := out.Document.Line(layout.LineTotal)
	if !ok || line.Value != "$36.45" {
		t.Fatalf("expected total line $36.45, got %+v", line)
	}
}

func TestPreviewPersistsNothing(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	ctx := context.Background()
	in := sampleInput(tpl.ID)
	resp, err := Preview(ctx, db, owner, PreviewRequest{TemplateID: tpl.ID, Items: in.Items, Charges: in.Charges})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !resp.Breakdown.Total.Equal(decimal.RequireFromString("36.45")) {
		t.Fatalf("expected total 36.45, got %s", resp.Breakdown.Total)
	}
	if len(resp.Document.Rows) != 2 {
		t.Fatalf("expected 2 item rows, got %d", len(resp.Document.Rows))
	}
	if _, err := Preview(ctx, db, other, PreviewRequest{TemplateID: tpl.ID, Items: in.Items}); !errors.Is(err, templates.ErrNotFound) {
		t.Fatalf("expected private template to be hidden, got %v", err)
	}
	rows, err := ListMine(ctx, db, owner.UserID, "")
	if err != nil || len(rows) != 0 {
		t.Fatalf("preview must not store receipts: %d rows, err %v", len(rows), err)
	}
}
