package designer

import (
	"time"

	"github.com/shopspring/decimal"

	"receiptstudio/infrastructure/charges"
	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/render"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/models"
)

// ListPageData lists the templates a user can pick from.
type ListPageData struct {
	Templates []ListRow
}

type ListRow struct {
	Template  models.Template
	Owned     bool
	CanModify bool
}

// FormPageData drives the designer. An empty Template.ID means a new template.
type FormPageData struct {
	Template  models.Template
	CanModify bool
	Preview   render.Receipt
}

// SampleItems are the lines of the designer preview.
func SampleItems() []charges.LineItem {
	return []charges.LineItem{
		{ID: "sample-1", Description: "Sample Item 1", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
		{ID: "sample-2", Description: "Sample Item 2", Quantity: 1, UnitPrice: decimal.RequireFromString("8.75")},
	}
}

// SamplePreview renders the sample lines with t's layout, branding and charge defaults.
func SamplePreview(t models.Template, now time.Time) render.Receipt {
	items := SampleItems()
	b := charges.Compute(items, charges.FromTemplateDefaults(templates.ChargeDefaults(t))).Rounded()
	return render.Receipt{
		ID:       "sample",
		Number:   "RCP-SAMPLE",
		IssuedAt: templates.IssuedAt(t, now.Format("2006-01-02"), now.Format("15:04")),
		Customer: render.Customer{Name: "Sample Customer"},
		Branding: templates.ToBranding(t),
		Document: layout.BuildDocument(templates.ToLayout(t), items, b),
	}
}
