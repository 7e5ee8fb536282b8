package designer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/models"
)

func formFrom(t models.Template) url.Values {
	form := url.Values{}
	for _, s := range sections(&t) {
		for _, b := range s.fields {
			if b.kind == kindBool {
				if *b.flag {
					form.Set(b.name, "1")
				}
				continue
			}
			form.Set(b.name, displayValue(b))
		}
	}
	return form
}

func TestApplyFormRoundTripsTemplate(t *testing.T) {
	base := templates.NewTemplate("Cafe", 1)
	got, err := applyForm(base, formFrom(base))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.ColumnOrder != base.ColumnOrder || got.SummaryColumn1Width != base.SummaryColumn1Width || got.ShowBorder != base.ShowBorder {
		t.Fatalf("round trip changed the template: %+v", got)
	}
	if !got.DefaultTaxRate.Valid || !got.DefaultTaxRate.Decimal.Equal(base.DefaultTaxRate.Decimal) {
		t.Fatalf("tax rate lost: %+v", got.DefaultTaxRate)
	}
}

func TestApplyFormNormalizesAndValidates(t *testing.T) {
	base := templates.NewTemplate("Cafe", 1)

	form := formFrom(base)
	form.Set("column_order", "price, description ,quantity,total")
	form.Set("summary_layout_columns", "3")
	form.Set("summary_labels_position", "column9")
	form.Set("default_service_charge_rate", "")
	form.Del("show_border")
	form.Set("separator_after_total", "1")
	got, err := applyForm(base, form)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	order := layout.ParseColumnOrder(got.ColumnOrder)
	if order[0] != layout.ColumnPrice || order[1] != layout.ColumnDescription {
		t.Fatalf("unexpected column order %v", order)
	}
	if got.SummaryLayoutColumns != 3 || got.ShowBorder || !got.SeparatorAfterTotal {
		t.Fatalf("unexpected layout fields: %+v", got)
	}
	if got.SummaryLabelsPosition == "column9" {
		t.Fatalf("expected an unknown position to be normalized")
	}
	if got.DefaultServiceChargeRate.Valid {
		t.Fatalf("expected blank rate to be stored as NULL")
	}

	form = formFrom(base)
	form.Set("column_order", "price,price,total,description")
	got, err = applyForm(base, form)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.ColumnOrder != layout.EncodeColumnOrder(layout.DefaultColumnOrder()) {
		t.Fatalf("expected default order for duplicates, got %s", got.ColumnOrder)
	}

	for field, value := range map[string]string{
		"background_color":       "blue",
		"default_tax_rate":       "120",
		"item_description_width": "abc",
		"font_size":              "-3",
	} {
		form := formFrom(base)
		form.Set(field, value)
		if _, err := applyForm(base, form); err == nil {
			t.Fatalf("%s=%q: expected validation error", field, value)
		}
	}
}

func TestSamplePreviewUsesTemplateChargeDefaults(t *testing.T) {
	tpl := templates.NewTemplate("Cafe", 1)
	now := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	plain := SamplePreview(tpl, now)
	total, ok := plain.Document.Line(layout.LineTotal)
	if !ok || !strings.Contains(total.Value, "33.75") {
		t.Fatalf("expected 33.75 without charges, got %+v", total)
	}
	if plain.IssuedAt != "2026-03-01 09:05" {
		t.Fatalf("unexpected issued at %q", plain.IssuedAt)
	}

	tpl.EnableTaxByDefault = true
	taxed := SamplePreview(tpl, now)
	if _, ok := taxed.Document.Line(layout.LineTax); !ok {
		t.Fatalf("expected a tax line when tax is on by default")
	}
}

func openDesignerTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "designer-test.db"))
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
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, role) VALUES (1, 'owner', 'hash', 'cashier'), (2, 'other', 'hash', 'cashier')`)
		return err
	})
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
	return db
}

func asUser(r *http.Request, userID int64, id string) *http.Request {
	s := models.Session{ID: "token", UserID: userID, User: models.User{ID: userID, Role: "cashier"}}
	ctx := sessioncontext.NewContextWithSession(r.Context(), s)
	rctx := chi.NewRouteContext()
	if id != "" {
		rctx.URLParams.Add("id", id)
	}
	return r.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestCreateUpdateAndAccessThroughHandlers(t *testing.T) {
	db := openDesignerTestDB(t)
	log := logger.Nop()

	form := formFrom(templates.NewTemplate("Bistro", 1))
	form.Set("business_name", "Bistro Verde")
	r := asUser(httptest.NewRequest(http.MethodPost, "/app/templates", strings.NewReader(form.Encode())), 1, "")
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	CreateTemplateCommandHandler(db, nil, log).ServeHTTP(w, r)
	if w.Code != http.StatusSeeOther || !strings.Contains(w.Header().Get("Location"), "/edit?status=") {
		t.Fatalf("unexpected create response %d %s", w.Code, w.Header().Get("Location"))
	}

	list, err := templates.List(context.Background(), db, templates.Viewer{UserID: 1})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one template, got %d (%v)", len(list), err)
	}
	id := list[0].ID

	form.Set("business_name", "Bistro Rosso")
	r = asUser(httptest.NewRequest(http.MethodPost, "/app/templates/"+id, strings.NewReader(form.Encode())), 1, id)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	UpdateTemplateCommandHandler(db, nil, log).ServeHTTP(w, r)
	if w.Code != http.StatusSeeOther || strings.Contains(w.Header().Get("Location"), "error=") {
		t.Fatalf("unexpected update response %d %s", w.Code, w.Header().Get("Location"))
	}
	saved, err := templates.Load(context.Background(), db, id)
	if err != nil || saved.BusinessName != "Bistro Rosso" {
		t.Fatalf("expected update to persist, got %q (%v)", saved.BusinessName, err)
	}

	r = asUser(httptest.NewRequest(http.MethodGet, "/app/templates/"+id+"/edit", nil), 2, id)
	w = httptest.NewRecorder()
	EditTemplateScreenHandler(db, log).ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected private template to be hidden from other users, got %d", w.Code)
	}

	r = asUser(httptest.NewRequest(http.MethodGet, "/app/templates/"+id+"/edit", nil), 1, id)
	w = httptest.NewRecorder()
	EditTemplateScreenHandler(db, log).ServeHTTP(w, r)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sample Item 1") || !strings.Contains(w.Body.String(), "Bistro Rosso") {
		t.Fatalf("expected designer with sample preview, got %d", w.Code)
	}
}
