package receipts

import (
	"context"
	"strconv"
	"strings"

	"receiptstudio/infrastructure/charges"
	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/render"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/infrastructure/validate"
	"receiptstudio/models"
)

// templateOf returns the receipt's template, or blank defaults when it was deleted.
func templateOf(rec models.Receipt) models.Template {
	if rec.Template != nil {
		return *rec.Template
	}
	tpl := templates.NewTemplate("", rec.CreatedBy)
	tpl.BusinessName = ""
	return tpl
}

// ToRender resolves a stored receipt into the shape every output format draws.
func ToRender(rec models.Receipt) render.Receipt {
	tpl := templateOf(rec)
	items := LineItemsOf(rec.Items)
	b := charges.Compute(items, ChargeConfigOf(rec)).Rounded()
	return render.Receipt{
		ID:       rec.ID,
		Number:   rec.ReceiptNumber,
		IssuedAt: templates.IssuedAt(tpl, rec.ReceiptDate, rec.ReceiptTime),
		Customer: render.Customer{
			Name:  rec.CustomerName,
			Email: rec.CustomerEmail,
			Phone: rec.CustomerPhone,
		},
		Notes:    rec.Notes,
		Branding: templates.ToBranding(tpl),
		Document: layout.BuildDocument(templates.ToLayout(tpl), items, b),
	}
}

func previewItems(in []ItemInput) []charges.LineItem {
	out := make([]charges.LineItem, 0, len(in))
	for i, item := range in {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = "line-" + strconv.Itoa(i+1)
		}
		out = append(out, charges.LineItem{
			ID:          id,
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return out
}

// Preview computes the breakdown and document of an unsaved receipt. An empty
// template id previews with the default layout.
func Preview(ctx context.Context, db *sqlite.DB, v templates.Viewer, req PreviewRequest) (PreviewResponse, error) {
	for i := range req.Items {
		req.Items[i].Description = strings.TrimSpace(req.Items[i].Description)
	}
	if err := validate.Struct(req); err != nil {
		return PreviewResponse{}, err
	}
	l := layout.DefaultTemplateLayout()
	if id := strings.TrimSpace(req.TemplateID); id != "" {
		tpl, err := templates.LoadAccessible(ctx, db, id, v)
		if err != nil {
			return PreviewResponse{}, err
		}
		l = templates.ToLayout(tpl)
	}
	items := previewItems(req.Items)
	b := charges.Compute(items, req.Charges.Config()).Rounded()
	return PreviewResponse{
		Breakdown: b,
		Document:  layout.BuildDocument(l, items, b),
	}, nil
}
