package receipts

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"receiptstudio/frontend/menu"
	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/audit"
	"receiptstudio/infrastructure/charges"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/format"
	"receiptstudio/infrastructure/http/responses"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/metrics"
	"receiptstudio/infrastructure/render"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/models"
)

const listPath = "/app/receipts"

func receiptPath(id string) string {
	return listPath + "/" + url.PathEscape(id)
}

// Handlers serves the receipt pages, exports and share links.
type Handlers struct {
	DB      *sqlite.DB
	Audit   *audit.Service
	Log     *logger.Logger
	Metrics *metrics.Metrics
	Images  render.Rasterizer
	PDF     *render.PDFRenderer
	QR      render.QREncoder
	// BaseURL prefixes share links and QR codes.
	BaseURL string
	Scale   float64
	QRSize  int
}

// ListHandler renders the signed-in user's receipts.
func (h *Handlers) ListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := sessioncontext.ViewerFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		search := strings.TrimSpace(r.URL.Query().Get("q"))
		rows, err := ListMine(r.Context(), h.DB, v.UserID, search)
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		data := ListPageData{Search: search, Receipts: rows}
		html.Render(w, r, h.Log, http.StatusOK, ListPage(html.PageFor(r, "My receipts"), data))
	}
}

// GalleryHandler renders public receipts. It needs no session.
func (h *Handlers) GalleryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := strings.TrimSpace(r.URL.Query().Get("q"))
		rows, err := ListPublic(r.Context(), h.DB, search)
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		data := ListPageData{Search: search, Public: true, Receipts: rows}
		html.Render(w, r, h.Log, http.StatusOK, ListPage(html.PageFor(r, "Public receipts"), data))
	}
}

// newInput starts a receipt from tpl, or from the built-in defaults when tpl is nil.
func newInput(tpl *models.Template, now time.Time) ReceiptInput {
	cfg := charges.DefaultConfig()
	in := ReceiptInput{
		ReceiptNumber: NewReceiptNumber(now),
		ReceiptDate:   now.Format("2006-01-02"),
		ReceiptTime:   now.Format("15:04"),
		Items:         []ItemInput{{Quantity: 1}},
	}
	if tpl != nil {
		in.TemplateID = tpl.ID
		cfg = charges.FromTemplateDefaults(templates.ChargeDefaults(*tpl))
	}
	in.Charges = ChargesFromConfig(cfg)
	return in
}

func (h *Handlers) formData(r *http.Request, v templates.Viewer, receiptID string, in ReceiptInput) (FormPageData, error) {
	tpls, err := templates.List(r.Context(), h.DB, v)
	if err != nil {
		return FormPageData{}, err
	}
	data := FormPageData{ReceiptID: receiptID, Input: in, Templates: tpls, CanDelete: receiptID != ""}
	if in.TemplateID != "" {
		items, err := menu.SearchActive(r.Context(), h.DB, v, in.TemplateID, "", 200)
		if err != nil && !html.IsNotFound(err) {
			return FormPageData{}, err
		}
		data.MenuItems = items
	}
	return data, nil
}

// NewFormHandler renders a blank receipt. ?template_id= applies that template's charge defaults.
func (h *Handlers) NewFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		var tpl *models.Template
		if id := strings.TrimSpace(r.URL.Query().Get("template_id")); id != "" {
			t, err := templates.LoadAccessible(r.Context(), h.DB, id, v)
			if err != nil {
				html.Fail(w, r, h.Log, err)
				return
			}
			tpl = &t
		}
		data, err := h.formData(r, v, "", newInput(tpl, time.Now()))
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		html.Render(w, r, h.Log, http.StatusOK, FormPage(html.PageFor(r, "New receipt"), data))
	}
}

// parseReceiptForm reads the receipt form. Item fields repeat once per line and
// lines left completely blank are skipped.
func parseReceiptForm(r *http.Request) (ReceiptInput, error) {
	if err := r.ParseForm(); err != nil {
		return ReceiptInput{}, apperrors.Wrap(apperrors.CodeValidation, err, "invalid form data")
	}
	f := r.PostForm
	in := ReceiptInput{
		TemplateID:    f.Get("template_id"),
		ReceiptNumber: f.Get("receipt_number"),
		CustomerName:  f.Get("customer_name"),
		CustomerEmail: f.Get("customer_email"),
		CustomerPhone: f.Get("customer_phone"),
		ReceiptDate:   f.Get("receipt_date"),
		ReceiptTime:   f.Get("receipt_time"),
		Notes:         f.Get("notes"),
		IsPublic:      f.Get("is_public") != "",
	}

	ids := f["item_id"]
	descriptions := f["item_description"]
	quantities := f["item_quantity"]
	prices := f["item_price"]
	at := func(values []string, i int) string {
		if i < len(values) {
			return strings.TrimSpace(values[i])
		}
		return ""
	}
	for i := range descriptions {
		desc, qtyRaw, priceRaw := at(descriptions, i), at(quantities, i), at(prices, i)
		// Added rows come with a default quantity, so only description and price mark a row as used.
		if desc == "" && priceRaw == "" {
			continue
		}
		qty, err := strconv.ParseInt(qtyRaw, 10, 64)
		if err != nil {
			return in, apperrors.New(apperrors.CodeValidation, "quantity must be a whole number").
				WithDetails(map[string]any{"item": i + 1})
		}
		price, err := format.ParseAmount(priceRaw)
		if err != nil {
			return in, apperrors.New(apperrors.CodeValidation, "price must be a number").
				WithDetails(map[string]any{"item": i + 1})
		}
		in.Items = append(in.Items, ItemInput{ID: at(ids, i), Description: desc, Quantity: qty, UnitPrice: price})
	}

	c := &in.Charges
	c.TaxEnabled = f.Get("tax_enabled") != ""
	c.ServiceChargeEnabled = f.Get("service_charge_enabled") != ""
	c.DiscountEnabled = f.Get("discount_enabled") != ""
	c.RoundingEnabled = f.Get("rounding_enabled") != ""
	amounts := []struct {
		field string
		label string
		dst   *decimal.Decimal
	}{
		{"tax_rate", "tax rate", &c.TaxRate},
		{"service_charge_rate", "service charge rate", &c.ServiceChargeRate},
		{"discount_amount", "discount amount", &c.DiscountAmount},
		{"rounding_amount", "rounding amount", &c.RoundingAmount},
	}
	for _, a := range amounts {
		d, err := format.ParseAmountOrZero(f.Get(a.field))
		if err != nil {
			return in, apperrors.New(apperrors.CodeValidation, a.label+" must be a number")
		}
		*a.dst = d
	}
	return in, nil
}

// CreateHandler saves a new receipt and opens it.
func (h *Handlers) CreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		in, err := parseReceiptForm(r)
		var rec models.Receipt
		if err == nil {
			rec, err = Create(r.Context(), h.DB, h.Audit, v, in)
		}
		if err != nil {
			back := listPath + "/new"
			if in.TemplateID != "" {
				back += "?template_id=" + url.QueryEscape(in.TemplateID)
			}
			html.RedirectError(w, r, back, html.ErrorMessage(r, h.Log, err, "failed to save receipt"))
			return
		}
		h.Metrics.IncReceiptSaved("create")
		html.RedirectStatus(w, r, receiptPath(rec.ID), "Receipt "+rec.ReceiptNumber+" saved")
	}
}

// ViewHandler shows a receipt with its preview, downloads and share controls.
func (h *Handlers) ViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		rec, err := LoadForViewer(r.Context(), h.DB, chi.URLParam(r, "id"), v)
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		data := ViewPageData{
			Receipt:   rec,
			Render:    ToRender(rec),
			ShareURL:  render.ShareURL(h.BaseURL, rec.ID),
			CanModify: CanModify(rec, v),
		}
		if rec.TemplateID != nil {
			items, err := menu.SearchActive(r.Context(), h.DB, v, *rec.TemplateID, "", 200)
			if err != nil && !html.IsNotFound(err) {
				html.Fail(w, r, h.Log, err)
				return
			}
			data.MenuItems = items
		}
		html.Render(w, r, h.Log, http.StatusOK, ViewPage(html.PageFor(r, "Receipt "+rec.ReceiptNumber), data))
	}
}

// EditFormHandler renders the stored receipt in the form, keeping its own charges.
func (h *Handlers) EditFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		rec, err := LoadForViewer(r.Context(), h.DB, chi.URLParam(r, "id"), v)
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		data, err := h.formData(r, v, rec.ID, InputOf(rec))
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		html.Render(w, r, h.Log, http.StatusOK, FormPage(html.PageFor(r, "Edit receipt "+rec.ReceiptNumber), data))
	}
}

func (h *Handlers) UpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		id := chi.URLParam(r, "id")
		in, err := parseReceiptForm(r)
		var rec models.Receipt
		if err == nil {
			rec, err = Update(r.Context(), h.DB, h.Audit, v, id, in)
		}
		if err != nil {
			if html.IsNotFound(err) && !errors.Is(err, templates.ErrNotFound) {
				html.NotFound(w, r, h.Log)
				return
			}
			html.RedirectError(w, r, receiptPath(id)+"/edit", html.ErrorMessage(r, h.Log, err, "failed to save receipt"))
			return
		}
		h.Metrics.IncReceiptSaved("update")
		html.RedirectStatus(w, r, receiptPath(rec.ID), "Receipt saved")
	}
}

func (h *Handlers) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		if err := Delete(r.Context(), h.DB, h.Audit, v, chi.URLParam(r, "id")); err != nil {
			html.RedirectError(w, r, listPath, html.ErrorMessage(r, h.Log, err, "failed to delete receipt"))
			return
		}
		h.Metrics.IncReceiptSaved("delete")
		html.RedirectStatus(w, r, listPath, "Receipt deleted")
	}
}

// VisibilityHandler shares or unshares a receipt.
func (h *Handlers) VisibilityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		id := chi.URLParam(r, "id")
		public := r.FormValue("is_public") == "1"
		if err := SetVisibility(r.Context(), h.DB, h.Audit, v, id, public); err != nil {
			html.RedirectError(w, r, receiptPath(id), html.ErrorMessage(r, h.Log, err, "failed to change visibility"))
			return
		}
		h.Metrics.IncReceiptSaved("visibility")
		msg := "Receipt is private"
		if public {
			msg = "Receipt is public"
		}
		html.RedirectStatus(w, r, receiptPath(id), msg)
	}
}

func (h *Handlers) DeleteItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		id := chi.URLParam(r, "id")
		if _, err := DeleteItem(r.Context(), h.DB, h.Audit, v, id, chi.URLParam(r, "itemID")); err != nil {
			html.RedirectError(w, r, receiptPath(id), html.ErrorMessage(r, h.Log, err, "failed to delete line"))
			return
		}
		h.Metrics.IncReceiptSaved("item_delete")
		html.RedirectStatus(w, r, receiptPath(id), "Line removed")
	}
}

// AppendMenuItemHandler adds a menu item to the receipt with quantity 1.
func (h *Handlers) AppendMenuItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		id := chi.URLParam(r, "id")
		rec, err := AppendMenuItem(r.Context(), h.DB, h.Audit, v, id, chi.URLParam(r, "menuItemID"))
		if err != nil {
			html.RedirectError(w, r, receiptPath(id), html.ErrorMessage(r, h.Log, err, "failed to add menu item"))
			return
		}
		h.Metrics.IncReceiptSaved("item_add")
		added := rec.Items[len(rec.Items)-1].Description
		html.RedirectStatus(w, r, receiptPath(id), "Added "+added)
	}
}

func (h *Handlers) writePNG(w http.ResponseWriter, r *http.Request, rec models.Receipt) {
	start := time.Now()
	data, err := h.Images.Rasterize(ToRender(rec), render.ImageOptions{Scale: h.Scale})
	if err != nil {
		html.Fail(w, r, h.Log, err)
		return
	}
	h.Metrics.ObserveRender("png", time.Since(start))
	writeFile(w, "image/png", "receipt-"+rec.ReceiptNumber+".png", data)
}

func (h *Handlers) writeQR(w http.ResponseWriter, r *http.Request, rec models.Receipt) {
	start := time.Now()
	data, err := h.QR.Encode(render.ShareURL(h.BaseURL, rec.ID), h.QRSize)
	if err != nil {
		html.Fail(w, r, h.Log, err)
		return
	}
	h.Metrics.ObserveRender("qr", time.Since(start))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(filename)+`"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

// ImageHandler downloads the receipt as PNG.
func (h *Handlers) ImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		rec, err := LoadForViewer(r.Context(), h.DB, chi.URLParam(r, "id"), v)
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		h.writePNG(w, r, rec)
	}
}

// PDFHandler downloads the receipt as PDF.
func (h *Handlers) PDFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		rec, err := LoadForViewer(r.Context(), h.DB, chi.URLParam(r, "id"), v)
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		start := time.Now()
		data, err := h.PDF.Render(ToRender(rec))
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		h.Metrics.ObserveRender("pdf", time.Since(start))
		writeFile(w, "application/pdf", "receipt-"+rec.ReceiptNumber+".pdf", data)
	}
}

// QRHandler returns the QR code of the receipt's share link.
func (h *Handlers) QRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		rec, err := LoadForViewer(r.Context(), h.DB, chi.URLParam(r, "id"), v)
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		h.writeQR(w, r, rec)
	}
}

// ShareHandler renders a public receipt. Private and missing receipts both give 404.
func (h *Handlers) ShareHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := LoadPublic(r.Context(), h.DB, chi.URLParam(r, "id"))
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		data := ViewPageData{Receipt: rec, Render: ToRender(rec), ShareURL: render.ShareURL(h.BaseURL, rec.ID)}
		html.Render(w, r, h.Log, http.StatusOK, SharePage(html.PageFor(r, "Receipt "+rec.ReceiptNumber), data))
	}
}

func (h *Handlers) ShareImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := LoadPublic(r.Context(), h.DB, chi.URLParam(r, "id"))
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		h.writePNG(w, r, rec)
	}
}

func (h *Handlers) ShareQRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := LoadPublic(r.Context(), h.DB, chi.URLParam(r, "id"))
		if err != nil {
			html.Fail(w, r, h.Log, err)
			return
		}
		h.writeQR(w, r, rec)
	}
}

// PreviewAPIHandler computes an unsaved receipt and returns the breakdown and document.
func (h *Handlers) PreviewAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		var req PreviewRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		if err := dec.Decode(&req); err != nil {
			responses.WriteError(r.Context(), w, h.Log, apperrors.Wrap(apperrors.CodeValidation, err, "invalid JSON body"))
			return
		}
		resp, err := Preview(r.Context(), h.DB, v, req)
		if err != nil {
			responses.WriteError(r.Context(), w, h.Log, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}
