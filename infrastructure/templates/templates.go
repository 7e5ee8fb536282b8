package templates

import (
	"strings"

	"github.com/shopspring/decimal"

	"receiptstudio/infrastructure/charges"
	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/render"
	"receiptstudio/models"
)

const (
	DatetimeCombined = "combined"
	DatetimeSeparate = "separate"
)

// NewTemplate returns a template filled with the designer defaults.
func NewTemplate(name string, ownerID int64) models.Template {
	l := layout.DefaultTemplateLayout()
	t := models.Template{
		Name:      strings.TrimSpace(name),
		CreatedBy: ownerID,

		LogoSize:     80,
		LogoPosition: "center",

		BackgroundColor: "#ffffff",
		TextColor:       "#000000",
		AccentColor:     "#3b82f6",
		BorderColor:     "#e5e7eb",
		FontFamily:      "sans-serif",
		FontSize:        14,
		ShowBorder:      true,
		HeaderStyle:     "center",

		FooterText: "Thank you for your business!",
		ShowFooter: true,

		CustomHeaderAlignment:  string(layout.AlignCenter),
		CustomerBlockAlignment: string(layout.AlignLeft),
		DatetimeFormat:         DatetimeCombined,
		CustomSectionAlignment: string(layout.AlignLeft),

		DefaultTaxRate:           decimal.NewNullDecimal(charges.DefaultTaxRatePercent),
		DefaultServiceChargeRate: decimal.NewNullDecimal(charges.DefaultServiceChargeRatePercent),
	}
	ApplyLayout(&t, l)
	return t
}

// ToLayout builds the typed layout of t, normalizing anything out of range.
func ToLayout(t models.Template) layout.TemplateLayout {
	cols := map[layout.ColumnKey]layout.ColumnSetting{
		layout.ColumnDescription: {Visible: t.ShowDescriptionColumn, WidthPercent: t.ItemDescriptionWidth},
		layout.ColumnQuantity:    {Visible: t.ShowQuantityColumn, WidthPercent: t.ItemQuantityWidth},
		layout.ColumnPrice:       {Visible: t.ShowPriceColumn, WidthPercent: t.ItemPriceWidth},
		layout.ColumnTotal:       {Visible: t.ShowTotalColumn, WidthPercent: t.ItemTotalWidth},
	}
	for key, c := range cols {
		if c.WidthPercent <= 0 {
			c.WidthPercent = layout.DefaultColumnWidth(key)
			cols[key] = c
		}
	}

	return layout.TemplateLayout{
		ShowItemLabels: t.ShowItemLabels,
		Columns:        cols,
		ColumnOrder:    layout.ParseColumnOrder(t.ColumnOrder),
		Summary: layout.NormalizeRowLayout(layout.RowLayout{
			Columns:         t.SummaryLayoutColumns,
			Widths:          [3]float64{t.SummaryColumn1Width, t.SummaryColumn2Width, t.SummaryColumn3Width},
			LabelsPosition:  layout.Position(t.SummaryLabelsPosition),
			ValuesPosition:  layout.Position(t.SummaryValuesPosition),
			LabelsAlignment: layout.Alignment(t.SummaryLabelsAlignment),
			ValuesAlignment: layout.Alignment(t.SummaryValuesAlignment),
		}),
		ShowItemsCount: t.ShowItemsCount,
		ItemsCount: layout.NormalizeRowLayout(layout.RowLayout{
			Columns:         t.ItemsCountLayoutColumns,
			Widths:          [3]float64{t.ItemsCountColumn1Width, t.ItemsCountColumn2Width, t.ItemsCountColumn3Width},
			LabelsPosition:  layout.Position(t.ItemsCountLabelsPosition),
			ValuesPosition:  layout.Position(t.ItemsCountValuesPosition),
			LabelsAlignment: layout.Alignment(t.ItemsCountLabelsAlignment),
			ValuesAlignment: layout.Alignment(t.ItemsCountValuesAlignment),
		}),
		Separators: layout.Separators{
			AfterItemsCount:    t.SeparatorAfterItemsCount,
			AfterSubtotal:      t.SeparatorAfterSubtotal,
			AfterServiceCharge: t.SeparatorAfterServiceCharge,
			AfterBeforeTax:     t.SeparatorAfterBeforeTax,
			AfterTax:           t.SeparatorAfterTax,
			AfterTotal:         t.SeparatorAfterTotal,
		},
		ShowCurrencySymbol: t.ShowCurrencySymbol,
	}
}

// ApplyLayout writes l back onto the template columns.
func ApplyLayout(t *models.Template, l layout.TemplateLayout) {
	col := func(key layout.ColumnKey) layout.ColumnSetting {
		c, ok := l.Columns[key]
		if !ok {
			return layout.ColumnSetting{Visible: true, WidthPercent: layout.DefaultColumnWidth(key)}
		}
		return c
	}
	t.ShowItemLabels = l.ShowItemLabels
	t.ShowCurrencySymbol = l.ShowCurrencySymbol

	d, q, p, tot := col(layout.ColumnDescription), col(layout.ColumnQuantity), col(layout.ColumnPrice), col(layout.ColumnTotal)
	t.ShowDescriptionColumn, t.ItemDescriptionWidth = d.Visible, d.WidthPercent
	t.ShowQuantityColumn, t.ItemQuantityWidth = q.Visible, q.WidthPercent
	t.ShowPriceColumn, t.ItemPriceWidth = p.Visible, p.WidthPercent
	t.ShowTotalColumn, t.ItemTotalWidth = tot.Visible, tot.WidthPercent
	t.ColumnOrder = layout.EncodeColumnOrder(l.ColumnOrder)

	s := layout.NormalizeRowLayout(l.Summary)
	t.SummaryLayoutColumns = s.Columns
	t.SummaryColumn1Width, t.SummaryColumn2Width, t.SummaryColumn3Width = s.Widths[0], s.Widths[1], s.Widths[2]
	t.SummaryLabelsPosition, t.SummaryValuesPosition = string(s.LabelsPosition), string(s.ValuesPosition)
	t.SummaryLabelsAlignment, t.SummaryValuesAlignment = string(s.LabelsAlignment), string(s.ValuesAlignment)

	t.ShowItemsCount = l.ShowItemsCount
	ic := layout.NormalizeRowLayout(l.ItemsCount)
	t.ItemsCountLayoutColumns = ic.Columns
	t.ItemsCountColumn1Width, t.ItemsCountColumn2Width, t.ItemsCountColumn3Width = ic.Widths[0], ic.Widths[1], ic.Widths[2]
	t.ItemsCountLabelsPosition, t.ItemsCountValuesPosition = string(ic.LabelsPosition), string(ic.ValuesPosition)
	t.ItemsCountLabelsAlignment, t.ItemsCountValuesAlignment = string(ic.LabelsAlignment), string(ic.ValuesAlignment)

	t.SeparatorAfterItemsCount = l.Separators.AfterItemsCount
	t.SeparatorAfterSubtotal = l.Separators.AfterSubtotal
	t.SeparatorAfterServiceCharge = l.Separators.AfterServiceCharge
	t.SeparatorAfterBeforeTax = l.Separators.AfterBeforeTax
	t.SeparatorAfterTax = l.Separators.AfterTax
	t.SeparatorAfterTotal = l.Separators.AfterTotal
}

// ChargeDefaults reads the charge settings new receipts start from.
func ChargeDefaults(t models.Template) charges.TemplateDefaults {
	d := charges.TemplateDefaults{
		TaxEnabled:           t.EnableTaxByDefault,
		ServiceChargeEnabled: t.EnableServiceChargeByDefault,
	}
	if t.DefaultTaxRate.Valid {
		rate := t.DefaultTaxRate.Decimal
		d.TaxRatePercent = &rate
	}
	if t.DefaultServiceChargeRate.Valid {
		rate := t.DefaultServiceChargeRate.Decimal
		d.ServiceChargeRatePercent = &rate
	}
	return d
}

// ToBranding collects the printable template content for the renderers.
func ToBranding(t models.Template) render.Branding {
	b := render.Branding{
		BusinessName:    t.BusinessName,
		BusinessAddress: t.BusinessAddress,
		BusinessPhone:   t.BusinessPhone,
		BusinessEmail:   t.BusinessEmail,
		BusinessWebsite: t.BusinessWebsite,
		BackgroundColor: t.BackgroundColor,
		TextColor:       t.TextColor,
		AccentColor:     t.AccentColor,
		ShowBorder:      t.ShowBorder,
	}
	if t.ShowCustomHeaders {
		b.HeaderLines = []string{t.CustomHeader1, t.CustomHeader2}
		b.HeaderAlignment = layout.ParseAlignment(t.CustomHeaderAlignment, layout.AlignCenter)
	}
	if t.ShowCustomerBlock {
		b.CustomerTitle = t.CustomerBlockTitle
		b.CustomerText = t.CustomerBlockText
		b.CustomerAlignment = layout.ParseAlignment(t.CustomerBlockAlignment, layout.AlignLeft)
		b.ShowIssuedAt = t.ShowDatetimeInCustomer
	}
	if t.ShowCustomSection {
		b.SectionTitle = t.CustomSectionTitle
		b.SectionText = t.CustomSectionText
		b.SectionAlignment = layout.ParseAlignment(t.CustomSectionAlignment, layout.AlignLeft)
	}
	if t.ShowFooter {
		b.FooterText = t.FooterText
	}
	if t.ShowTerms {
		b.Terms = t.Terms
	}
	return b
}

// IssuedAt joins receipt date and time the way the template asks for.
func IssuedAt(t models.Template, date, clock string) string {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	switch {
	case date == "":
		return clock
	case clock == "":
		return date
	case t.DatetimeFormat == DatetimeSeparate:
		return date + "\n" + clock
	}
	return date + " " + clock
}
