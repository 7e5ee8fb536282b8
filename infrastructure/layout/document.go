package layout

import (
	"strconv"

	"receiptstudio/infrastructure/charges"
	"receiptstudio/infrastructure/format"
)

// LineKind identifies a summary line.
type LineKind string

const (
	LineItemsCount    LineKind = "items_count"
	LineSubtotal      LineKind = "subtotal"
	LineDiscount      LineKind = "discount"
	LineServiceCharge LineKind = "service_charge"
	LineBeforeTax     LineKind = "before_tax"
	LineTax           LineKind = "tax"
	LineRounding      LineKind = "rounding"
	LineTotal         LineKind = "total"
)

// Cell is one rendered item table cell.
type Cell struct {
	Content      string    `json:"content"`
	WidthPercent float64   `json:"width_percent"`
	Alignment    Alignment `json:"alignment"`
}

// SummaryLine is one totals row plus the divider drawn after it, if any.
type SummaryLine struct {
	Kind      LineKind   `json:"kind"`
	Label     string     `json:"label"`
	Value     string     `json:"value"`
	Slots     []Slot     `json:"slots"`
	Emphasis  bool       `json:"emphasis"`
	Separator *Separator `json:"separator,omitempty"`
}

// Document is everything a renderer needs for the item table and totals.
type Document struct {
	ShowItemLabels bool          `json:"show_item_labels"`
	Header         []ItemColumn  `json:"header"`
	Rows           [][]Cell      `json:"rows"`
	Summary        []SummaryLine `json:"summary"`
}

// BuildDocument resolves the item table and summary lines for one receipt.
// Amounts are taken from b after rounding to cents.
func BuildDocument(l TemplateLayout, items []charges.LineItem, b charges.Breakdown) Document {
	sym := l.ShowCurrencySymbol
	cols := VisibleItemColumns(l)

	doc := Document{
		ShowItemLabels: l.ShowItemLabels,
		Header:         cols,
		Rows:           make([][]Cell, 0, len(items)),
	}
	for _, item := range items {
		row := make([]Cell, 0, len(cols))
		for _, col := range cols {
			row = append(row, Cell{
				Content:      itemCellContent(col.Key, item, sym),
				WidthPercent: col.WidthPercent,
				Alignment:    col.Alignment,
			})
		}
		doc.Rows = append(doc.Rows, row)
	}

	r := b.Rounded()
	add := func(kind LineKind, label, value string, rl RowLayout, sepOn bool, emphasis bool) {
		line := SummaryLine{
			Kind:     kind,
			Label:    label,
			Value:    value,
			Slots:    ResolveSummaryRow(label, value, rl),
			Emphasis: emphasis,
		}
		if sepOn {
			sep := SeparatorFor(l.Summary, kind == LineTotal)
			line.Separator = &sep
		}
		doc.Summary = append(doc.Summary, line)
	}

	if l.ShowItemsCount {
		add(LineItemsCount, "Items:", strconv.Itoa(b.ItemCount), l.ItemsCount, l.Separators.AfterItemsCount, false)
	}
	add(LineSubtotal, "Subtotal:", format.Money(r.Subtotal, sym), l.Summary, l.Separators.AfterSubtotal, false)
	if r.Discount.IsPositive() {
		add(LineDiscount, "Discount:", "-"+format.Money(r.Discount, sym), l.Summary, false, false)
	}
	if r.ServiceCharge.IsPositive() {
		add(LineServiceCharge, "Service Charge:", format.Money(r.ServiceCharge, sym), l.Summary, l.Separators.AfterServiceCharge, false)
	}
	add(LineBeforeTax, "Before Tax:", format.Money(r.BeforeTax, sym), l.Summary, l.Separators.AfterBeforeTax, false)
	if r.Tax.IsPositive() {
		add(LineTax, "Tax:", format.Money(r.Tax, sym), l.Summary, l.Separators.AfterTax, false)
	}
	if !r.Rounding.IsZero() {
		add(LineRounding, "Rounding:", format.SignedMoney(r.Rounding, sym), l.Summary, false, false)
	}
	add(LineTotal, "Total:", format.Money(r.Total, sym), l.Summary, l.Separators.AfterTotal, true)

	return doc
}

// Line returns the summary line of the given kind.
func (d Document) Line(kind LineKind) (SummaryLine, bool) {
	for _, line := range d.Summary {
		if line.Kind == kind {
			return line, true
		}
	}
	return SummaryLine{}, false
}

func itemCellContent(key ColumnKey, item charges.LineItem, sym bool) string {
	switch key {
	case ColumnDescription:
		return item.Description
	case ColumnQuantity:
		return strconv.FormatInt(item.Quantity, 10)
	case ColumnPrice:
		return format.Money(item.UnitPrice, sym)
	case ColumnTotal:
		return format.Money(item.LineTotal(), sym)
	}
	return ""
}
