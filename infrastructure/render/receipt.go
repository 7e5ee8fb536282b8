package render

import (
	"image/color"
	"strings"

	"receiptstudio/infrastructure/layout"
)

// Branding is the template content printed around the item table.
type Branding struct {
	BusinessName    string
	BusinessAddress string
	BusinessPhone   string
	BusinessEmail   string
	BusinessWebsite string

	HeaderLines     []string
	HeaderAlignment layout.Alignment

	CustomerTitle     string
	CustomerText      string
	CustomerAlignment layout.Alignment
	ShowIssuedAt      bool

	SectionTitle     string
	SectionText      string
	SectionAlignment layout.Alignment

	FooterText string
	Terms      string

	BackgroundColor string
	TextColor       string
	AccentColor     string
	ShowBorder      bool
}

// Customer holds the optional customer details of a receipt.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Receipt is a fully resolved receipt ready for output. IssuedAt holds one line, or
// date and time on two lines.
type Receipt struct {
	ID       string
	Number   string
	IssuedAt string
	Customer Customer
	Notes    string
	Branding Branding
	Document layout.Document
}

// RowKind separates text rows from rules and blank space.
type RowKind int

const (
	RowText RowKind = iota
	RowRule
	RowSpacer
)

// Row is one printable line. Text rows carry slots with widths as percentages of the
// printable width; rules carry a layout.Separator.
type Row struct {
	Kind   RowKind
	Slots  []layout.Slot
	Bold   bool
	Accent bool
	Rule   layout.Separator
}

// Wrappable reports whether the row is a single full-width slot that may wrap.
func (r Row) Wrappable() bool {
	return r.Kind == RowText && len(r.Slots) == 1 && r.Slots[0].WidthPercent >= 100
}

var fullRule = layout.Separator{WidthPercent: 100}

// Rows flattens the receipt into the top-to-bottom line plan shared by all renderers.
func (r Receipt) Rows() []Row {
	b := r.Branding
	var rows []Row

	if name := strings.TrimSpace(b.BusinessName); name != "" {
		rows = append(rows, fullText(name, layout.AlignCenter, true, true))
	}
	for _, line := range splitLines(b.BusinessAddress) {
		rows = append(rows, fullText(line, layout.AlignCenter, false, false))
	}
	for _, line := range []string{b.BusinessPhone, b.BusinessEmail, b.BusinessWebsite} {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, fullText(line, layout.AlignCenter, false, false))
		}
	}
	for _, line := range b.HeaderLines {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, fullText(line, alignOr(b.HeaderAlignment, layout.AlignCenter), false, false))
		}
	}
	rows = append(rows, Row{Kind: RowSpacer})

	if r.Number != "" {
		rows = append(rows, pair("Receipt #:", r.Number, false))
	}
	if when := splitLines(r.IssuedAt); len(when) == 2 {
		rows = append(rows, pair("Date:", when[0], false), pair("Time:", when[1], false))
	} else if len(when) == 1 {
		rows = append(rows, pair("Date:", when[0], false))
	}

	customer := r.customerLines()
	if len(customer) > 0 {
		rows = append(rows, Row{Kind: RowSpacer})
		if title := strings.TrimSpace(b.CustomerTitle); title != "" {
			rows = append(rows, fullText(title, alignOr(b.CustomerAlignment, layout.AlignLeft), true, false))
		}
		for _, line := range customer {
			rows = append(rows, fullText(line, alignOr(b.CustomerAlignment, layout.AlignLeft), false, false))
		}
	}

	section := splitLines(b.SectionText)
	if strings.TrimSpace(b.SectionTitle) != "" || len(section) > 0 {
		rows = append(rows, Row{Kind: RowSpacer})
		if title := strings.TrimSpace(b.SectionTitle); title != "" {
			rows = append(rows, fullText(title, alignOr(b.SectionAlignment, layout.AlignLeft), true, false))
		}
		for _, line := range section {
			rows = append(rows, fullText(line, alignOr(b.SectionAlignment, layout.AlignLeft), false, false))
		}
	}

	rows = append(rows, Row{Kind: RowRule, Rule: fullRule})

	doc := r.Document
	if doc.ShowItemLabels && len(doc.Header) > 0 {
		header := make([]layout.Slot, 0, len(doc.Header))
		for _, col := range doc.Header {
			header = append(header, layout.Slot{Content: col.Label, WidthPercent: col.WidthPercent, Alignment: col.Alignment})
		}
		rows = append(rows, Row{Kind: RowText, Slots: header, Bold: true})
	}
	for _, cells := range doc.Rows {
		slots := make([]layout.Slot, 0, len(cells))
		for _, c := range cells {
			slots = append(slots, layout.Slot(c))
		}
		rows = append(rows, Row{Kind: RowText, Slots: slots})
	}
	rows = append(rows, Row{Kind: RowRule, Rule: fullRule})

	for _, line := range doc.Summary {
		rows = append(rows, Row{Kind: RowText, Slots: line.Slots, Bold: line.Emphasis, Accent: line.Emphasis})
		if line.Separator != nil {
			rows = append(rows, Row{Kind: RowRule, Rule: *line.Separator})
		}
	}

	notes := splitLines(r.Notes)
	if len(notes) > 0 {
		rows = append(rows, Row{Kind: RowSpacer})
		for _, line := range notes {
			rows = append(rows, fullText(line, layout.AlignLeft, false, false))
		}
	}

	footer := splitLines(b.FooterText)
	terms := splitLines(b.Terms)
	if len(footer) > 0 || len(terms) > 0 {
		rows = append(rows, Row{Kind: RowSpacer})
	}
	for _, line := range footer {
		rows = append(rows, fullText(line, layout.AlignCenter, false, false))
	}
	for _, line := range terms {
		rows = append(rows, fullText(line, layout.AlignCenter, false, false))
	}
	return rows
}

func (r Receipt) customerLines() []string {
	var lines []string
	for _, v := range []string{r.Customer.Name, r.Customer.Email, r.Customer.Phone} {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, v)
		}
	}
	lines = append(lines, splitLines(r.Branding.CustomerText)...)
	if r.Branding.ShowIssuedAt && r.IssuedAt != "" && len(lines) > 0 {
		lines = append(lines, splitLines(r.IssuedAt)...)
	}
	return lines
}

func fullText(s string, align layout.Alignment, bold, accent bool) Row {
	return Row{
		Kind:   RowText,
		Slots:  []layout.Slot{{Content: s, WidthPercent: 100, Alignment: align}},
		Bold:   bold,
		Accent: accent,
	}
}

func pair(label, value string, bold bool) Row {
	return Row{
		Kind: RowText,
		Slots: []layout.Slot{
			{Content: label, WidthPercent: 40, Alignment: layout.AlignLeft},
			{Content: value, WidthPercent: 60, Alignment: layout.AlignRight},
		},
		Bold: bold,
	}
}

func alignOr(a, fallback layout.Alignment) layout.Alignment {
	return layout.ParseAlignment(string(a), fallback)
}

func splitLines(s string) []string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return nil
	}
	out := make([]string, 0, 4)
	for _, line := range strings.Split(s, "\n") {
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return out
}

// ParseHexColor parses #rgb or #rrggbb. ok is false for anything else.
func ParseHexColor(s string) (c color.NRGBA, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	c.A = 0xff
	hex := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	switch len(s) {
	case 3:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			d, good := hex(s[i])
			if !good {
				return color.NRGBA{}, false
			}
			v[i] = d * 17
		}
		c.R, c.G, c.B = v[0], v[1], v[2]
		return c, true
	case 6:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			hi, good1 := hex(s[2*i])
			lo, good2 := hex(s[2*i+1])
			if !good1 || !good2 {
				return color.NRGBA{}, false
			}
			v[i] = hi<<4 | lo
		}
		c.R, c.G, c.B = v[0], v[1], v[2]
		return c, true
	}
	return color.NRGBA{}, false
}

func colorOr(hex string, fallback color.NRGBA) color.NRGBA {
	if c, ok := ParseHexColor(hex); ok {
		return c
	}
	return fallback
}

var (
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ink   = color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
)

// Background returns the template background color, white when unset or invalid.
func (b Branding) Background() color.NRGBA { return colorOr(b.BackgroundColor, white) }

// Foreground returns the template text color.
func (b Branding) Foreground() color.NRGBA { return colorOr(b.TextColor, ink) }

// Accent returns the accent color used for the business name and total.
func (b Branding) Accent() color.NRGBA { return colorOr(b.AccentColor, b.Foreground()) }
