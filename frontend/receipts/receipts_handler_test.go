package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/render"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/models"
)

func testHandlers(db *sqlite.DB) *Handlers {
	return &Handlers{
		DB:      db,
		Log:     logger.Nop(),
		Images:  render.NewImageRenderer(),
		PDF:     render.NewPDFRenderer(),
		QR:      render.QRRenderer{},
		BaseURL: "http://receipts.test",
		Scale:   1,
		QRSize:  120,
	}
}

func withSession(r *http.Request, userID int64, role string) *http.Request {
	s := models.Session{ID: "token", UserID: userID, User: models.User{ID: userID, Username: "u", Role: role}}
	return r.WithContext(sessioncontext.NewContextWithSession(r.Context(), s))
}

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestParseReceiptFormSkipsBlankLines(t *testing.T) {
	form := url.Values{
		"receipt_number":   {"RCP-7"},
		"item_id":          {"", "", "keep"},
		"item_description": {"Coffee", "", "Cake"},
		"item_quantity":    {"2", "", "1"},
		"item_price":       {"$3.50", "", "4"},
		"tax_enabled":      {"1"},
		"tax_rate":         {"10"},
		"rounding_amount":  {"-0.05"},
	}
	r := httptest.NewRequest(http.MethodPost, "/app/receipts", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := parseReceiptForm(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(in.Items) != 2 || in.Items[1].ID != "keep" || in.Items[0].UnitPrice.String() != "3.5" {
		t.Fatalf("unexpected items: %+v", in.Items)
	}
	if !in.Charges.TaxEnabled || in.Charges.TaxRate.String() != "10" || in.Charges.RoundingAmount.String() != "-0.05" {
		t.Fatalf("unexpected charges: %+v", in.Charges)
	}
	if in.Charges.ServiceChargeEnabled {
		t.Fatalf("unchecked box must stay disabled")
	}
}

func TestParseReceiptFormSkipsUnfilledRowWithDefaultQuantity(t *testing.T) {
	form := url.Values{
		"receipt_number":   {"RCP-8"},
		"item_description": {"Latte", ""},
		"item_quantity":    {"2", "1"},
		"item_price":       {"3.50", ""},
	}
	r := httptest.NewRequest(http.MethodPost, "/app/receipts", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := parseReceiptForm(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(in.Items) != 1 || in.Items[0].Description != "Latte" || in.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", in.Items)
	}
}

func TestParseReceiptFormRejectsNonNumericValues(t *testing.T) {
	for name, form := range map[string]url.Values{
		"quantity": {"item_description": {"Coffee"}, "item_quantity": {"two"}, "item_price": {"3"}},
		"price":    {"item_description": {"Coffee"}, "item_quantity": {"2"}, "item_price": {"abc"}},
		"tax rate": {"item_description": {"Coffee"}, "item_quantity": {"2"}, "item_price": {"3"}, "tax_rate": {"ten"}},
	} {
		r := httptest.NewRequest(http.MethodPost, "/app/receipts", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if _, err := parseReceiptForm(r); err == nil || !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: expected a validation error naming the field, got %v", name, err)
		}
	}
}

func TestPreviewAPIHandler(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	h := testHandlers(db)

	body := `{"template_id":"` + tpl.ID + `","items":[{"description":"Sample Item 1","quantity":2,"unit_price":"12.50"},{"description":"Sample Item 2","quantity":1,"unit_price":"8.75"}],"charges":{"tax_enabled":true,"tax_rate":"8"}}`
	r := withSession(httptest.NewRequest(http.MethodPost, "/app/api/receipts/preview", strings.NewReader(body)), owner.UserID, "cashier")
	w := httptest.NewRecorder()
	h.PreviewAPIHandler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Breakdown struct {
				Total string `json:"total"`
			} `json:"breakdown"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Breakdown.Total != "36.45" {
		t.Fatalf("expected total 36.45, got %q", resp.Data.Breakdown.Total)
	}

	bad := `{"items":[{"description":"","quantity":1,"unit_price":"1"}]}`
	r = withSession(httptest.NewRequest(http.MethodPost, "/app/api/receipts/preview", strings.NewReader(bad)), owner.UserID, "cashier")
	w = httptest.NewRecorder()
	h.PreviewAPIHandler().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("expected validation error, got %d: %s", w.Code, w.Body.String())
	}
}

func TestShareRoutesOnlyServePublicReceipts(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	h := testHandlers(db)
	rec, err := Create(context.Background(), db, nil, owner, sampleInput(tpl.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	get := func(handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
		r := withURLParams(httptest.NewRequest(http.MethodGet, path, nil), "id", rec.ID)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	if w := get(h.ShareHandler(), "/share/"+rec.ID); w.Code != http.StatusNotFound {
		t.Fatalf("expected private share to 404, got %d", w.Code)
	}
	if err := SetVisibility(context.Background(), db, nil, owner, rec.ID, true); err != nil {
		t.Fatalf("share: %v", err)
	}

	w := get(h.ShareHandler(), "/share/"+rec.ID)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Blue Cafe") || !strings.Contains(w.Body.String(), "$36.45") {
		t.Fatalf("unexpected share page %d: %s", w.Code, w.Body.String())
	}
	pngMagic := []byte{0x89, 'P', 'N', 'G'}
	if w := get(h.ShareQRHandler(), "/share/"+rec.ID+"/qr.png"); !bytes.HasPrefix(w.Body.Bytes(), pngMagic) {
		t.Fatalf("expected QR PNG, got %d", w.Code)
	}
	if w := get(h.ShareImageHandler(), "/share/"+rec.ID+"/receipt.png"); !bytes.HasPrefix(w.Body.Bytes(), pngMagic) {
		t.Fatalf("expected receipt PNG, got %d", w.Code)
	}
}

func TestPDFHandlerHidesOtherUsersReceipts(t *testing.T) {
	db, tpl := openReceiptsTestDB(t)
	h := testHandlers(db)
	rec, err := Create(context.Background(), db, nil, owner, sampleInput(tpl.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r := withURLParams(withSession(httptest.NewRequest(http.MethodGet, "/app/receipts/x/receipt.pdf", nil), owner.UserID, "cashier"), "id", rec.ID)
	w := httptest.NewRecorder()
	h.PDFHandler().ServeHTTP(w, r)
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected PDF, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "receipt-RCP-1001.pdf") {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}

	r = withURLParams(withSession(httptest.NewRequest(http.MethodGet, "/app/receipts/x/receipt.pdf", nil), other.UserID, "cashier"), "id", rec.ID)
	w = httptest.NewRecorder()
	h.PDFHandler().ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's receipt, got %d", w.Code)
	}
}
