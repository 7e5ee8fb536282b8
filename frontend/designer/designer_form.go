package designer

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/format"
	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/render"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/models"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindArea
	kindBool
	kindInt
	kindWidth
	kindColor
	kindChoice
	kindRate
)

var (
	alignChoices    = []string{string(layout.AlignLeft), string(layout.AlignCenter), string(layout.AlignRight)}
	positionChoices = []string{string(layout.Column1), string(layout.Column2), string(layout.Column3)}
	layoutColumns   = []string{"2", "3"}
	datetimeChoices = []string{templates.DatetimeCombined, templates.DatetimeSeparate}
)

// binding ties one form field to the template column it edits. Exactly one
// destination is set, matching kind.
type binding struct {
	name    string
	label   string
	kind    fieldKind
	choices []string

	str  *string
	flag *bool
	num  *int
	pct  *float64
	rate *decimal.NullDecimal
}

type section struct {
	title  string
	fields []binding
}

func text(name, label string, dst *string) binding {
	return binding{name: name, label: label, kind: kindText, str: dst}
}

func area(name, label string, dst *string) binding {
	return binding{name: name, label: label, kind: kindArea, str: dst}
}

func color(name, label string, dst *string) binding {
	return binding{name: name, label: label, kind: kindColor, str: dst}
}

func choice(name, label string, choices []string, dst *string) binding {
	return binding{name: name, label: label, kind: kindChoice, choices: choices, str: dst}
}

func flag(name, label string, dst *bool) binding {
	return binding{name: name, label: label, kind: kindBool, flag: dst}
}

func number(name, label string, dst *int) binding {
	return binding{name: name, label: label, kind: kindInt, num: dst}
}

func layoutCols(name, label string, dst *int) binding {
	return binding{name: name, label: label, kind: kindInt, choices: layoutColumns, num: dst}
}

func width(name, label string, dst *float64) binding {
	return binding{name: name, label: label, kind: kindWidth, pct: dst}
}

func rate(name, label string, dst *decimal.NullDecimal) binding {
	return binding{name: name, label: label, kind: kindRate, rate: dst}
}

// sections lists every editable template field, grouped the way the designer shows them.
func sections(t *models.Template) []section {
	return []section{
		{"Template", []binding{
			text("name", "Name", &t.Name),
			flag("is_public", "Public (usable by every user)", &t.IsPublic),
		}},
		{"Business", []binding{
			text("business_name", "Business name", &t.BusinessName),
			area("business_address", "Address", &t.BusinessAddress),
			text("business_phone", "Phone", &t.BusinessPhone),
			text("business_email", "Email", &t.BusinessEmail),
			text("business_website", "Website", &t.BusinessWebsite),
			text("logo_url", "Logo URL", &t.LogoURL),
			flag("show_logo", "Show logo", &t.ShowLogo),
			number("logo_size", "Logo size (px)", &t.LogoSize),
			choice("logo_position", "Logo position", alignChoices, &t.LogoPosition),
		}},
		{"Style", []binding{
			color("background_color", "Background", &t.BackgroundColor),
			color("text_color", "Text", &t.TextColor),
			color("accent_color", "Accent", &t.AccentColor),
			color("border_color", "Border", &t.BorderColor),
			text("font_family", "Font family", &t.FontFamily),
			number("font_size", "Font size (px)", &t.FontSize),
			flag("show_border", "Show border", &t.ShowBorder),
			choice("header_style", "Header style", alignChoices, &t.HeaderStyle),
		}},
		{"Custom header", []binding{
			flag("show_custom_headers", "Show custom header lines", &t.ShowCustomHeaders),
			text("custom_header1", "Line 1", &t.CustomHeader1),
			text("custom_header2", "Line 2", &t.CustomHeader2),
			choice("custom_header_alignment", "Alignment", alignChoices, &t.CustomHeaderAlignment),
		}},
		{"Customer block", []binding{
			flag("show_customer_block", "Show customer block", &t.ShowCustomerBlock),
			text("customer_block_title", "Title", &t.CustomerBlockTitle),
			area("customer_block_text", "Text", &t.CustomerBlockText),
			choice("customer_block_alignment", "Alignment", alignChoices, &t.CustomerBlockAlignment),
			flag("show_datetime_in_customer", "Show date and time", &t.ShowDatetimeInCustomer),
			choice("datetime_format", "Date and time", datetimeChoices, &t.DatetimeFormat),
		}},
		{"Custom section", []binding{
			flag("show_custom_section", "Show custom section", &t.ShowCustomSection),
			text("custom_section_title", "Title", &t.CustomSectionTitle),
			area("custom_section_text", "Text", &t.CustomSectionText),
			choice("custom_section_alignment", "Alignment", alignChoices, &t.CustomSectionAlignment),
		}},
		{"Item columns", []binding{
			flag("show_item_labels", "Show column labels", &t.ShowItemLabels),
			flag("show_currency_symbol", "Show currency symbol", &t.ShowCurrencySymbol),
			flag("show_description_column", "Description", &t.ShowDescriptionColumn),
			width("item_description_width", "Description width %", &t.ItemDescriptionWidth),
			flag("show_quantity_column", "Quantity", &t.ShowQuantityColumn),
			width("item_quantity_width", "Quantity width %", &t.ItemQuantityWidth),
			flag("show_price_column", "Price", &t.ShowPriceColumn),
			width("item_price_width", "Price width %", &t.ItemPriceWidth),
			flag("show_total_column", "Total", &t.ShowTotalColumn),
			width("item_total_width", "Total width %", &t.ItemTotalWidth),
			text("column_order", "Column order", &t.ColumnOrder),
		}},
		{"Summary rows", []binding{
			layoutCols("summary_layout_columns", "Columns", &t.SummaryLayoutColumns),
			width("summary_column1_width", "Column 1 width %", &t.SummaryColumn1Width),
			width("summary_column2_width", "Column 2 width %", &t.SummaryColumn2Width),
			width("summary_column3_width", "Column 3 width %", &t.SummaryColumn3Width),
			choice("summary_labels_position", "Labels in", positionChoices, &t.SummaryLabelsPosition),
			choice("summary_values_position", "Values in", positionChoices, &t.SummaryValuesPosition),
			choice("summary_labels_alignment", "Labels alignment", alignChoices, &t.SummaryLabelsAlignment),
			choice("summary_values_alignment", "Values alignment", alignChoices, &t.SummaryValuesAlignment),
		}},
		{"Items count row", []binding{
			flag("show_items_count", "Show items count", &t.ShowItemsCount),
			layoutCols("items_count_layout_columns", "Columns", &t.ItemsCountLayoutColumns),
			width("items_count_column1_width", "Column 1 width %", &t.ItemsCountColumn1Width),
			width("items_count_column2_width", "Column 2 width %", &t.ItemsCountColumn2Width),
			width("items_count_column3_width", "Column 3 width %", &t.ItemsCountColumn3Width),
			choice("items_count_labels_position", "Labels in", positionChoices, &t.ItemsCountLabelsPosition),
			choice("items_count_values_position", "Values in", positionChoices, &t.ItemsCountValuesPosition),
			choice("items_count_labels_alignment", "Labels alignment", alignChoices, &t.ItemsCountLabelsAlignment),
			choice("items_count_values_alignment", "Values alignment", alignChoices, &t.ItemsCountValuesAlignment),
		}},
		{"Separators", []binding{
			flag("separator_after_items_count", "After items count", &t.SeparatorAfterItemsCount),
			flag("separator_after_subtotal", "After subtotal", &t.SeparatorAfterSubtotal),
			flag("separator_after_service_charge", "After service charge", &t.SeparatorAfterServiceCharge),
			flag("separator_after_before_tax", "After before tax", &t.SeparatorAfterBeforeTax),
			flag("separator_after_tax", "After tax", &t.SeparatorAfterTax),
			flag("separator_after_total", "After total (double)", &t.SeparatorAfterTotal),
		}},
		{"Footer", []binding{
			flag("show_footer", "Show footer", &t.ShowFooter),
			area("footer_text", "Footer text", &t.FooterText),
			flag("show_terms", "Show terms", &t.ShowTerms),
			area("terms", "Terms", &t.Terms),
		}},
		{"Charge defaults", []binding{
			flag("enable_tax_by_default", "Tax on by default", &t.EnableTaxByDefault),
			rate("default_tax_rate", "Tax rate %", &t.DefaultTaxRate),
			flag("enable_service_charge_by_default", "Service charge on by default", &t.EnableServiceChargeByDefault),
			rate("default_service_charge_rate", "Service charge rate %", &t.DefaultServiceChargeRate),
		}},
	}
}

func invalid(label, problem string) error {
	return apperrors.New(apperrors.CodeValidation, strings.ToLower(label)+" "+problem)
}

// applyForm writes the submitted designer form onto t. Unchecked boxes are false;
// the layout is normalized before it is returned.
func applyForm(t models.Template, form url.Values) (models.Template, error) {
	for _, s := range sections(&t) {
		for _, b := range s.fields {
			raw := strings.TrimSpace(form.Get(b.name))
			switch b.kind {
			case kindBool:
				*b.flag = raw != ""
			case kindText, kindArea:
				*b.str = raw
			case kindChoice:
				if raw != "" {
					*b.str = raw
				}
			case kindColor:
				if _, ok := render.ParseHexColor(raw); !ok {
					return t, invalid(b.label, "color must look like #1a2b3c")
				}
				*b.str = strings.ToLower(raw)
			case kindInt:
				if raw == "" {
					continue
				}
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 {
					return t, invalid(b.label, "must be a whole number")
				}
				*b.num = n
			case kindWidth:
				if raw == "" {
					continue
				}
				f, err := strconv.ParseFloat(raw, 64)
				if err != nil || f < 0 || f > 100 {
					return t, invalid(b.label, "must be between 0 and 100")
				}
				*b.pct = f
			case kindRate:
				d, err := format.ParseOptionalAmount(raw)
				if err != nil || (d != nil && (d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)))) {
					return t, invalid(b.label, "must be between 0 and 100")
				}
				if d == nil {
					*b.rate = decimal.NullDecimal{}
				} else {
					*b.rate = decimal.NewNullDecimal(*d)
				}
			}
		}
	}

	t.ColumnOrder = layout.EncodeColumnOrder(layout.NormalizeColumnOrder(splitList(t.ColumnOrder)))
	templates.ApplyLayout(&t, templates.ToLayout(t))
	return t, nil
}

func splitList(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), `"`); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// displayValue formats the current value of b for an input.
func displayValue(b binding) string {
	switch b.kind {
	case kindInt:
		return strconv.Itoa(*b.num)
	case kindWidth:
		return strconv.FormatFloat(*b.pct, 'f', -1, 64)
	case kindRate:
		if !b.rate.Valid {
			return ""
		}
		return b.rate.Decimal.String()
	case kindBool:
		return ""
	}
	if b.kind == kindText && b.name == "column_order" {
		return strings.Join(splitList(*b.str), ",")
	}
	return *b.str
}
