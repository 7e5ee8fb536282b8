package render

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"receiptstudio/infrastructure/layout"
)

const (
	rollWidthMM   = 80.0
	rollMarginMM  = 5.0
	pdfLineMM     = 4.6
	pdfSpacerMM   = 2.4
	pdfRuleMM     = 2.6
	pdfFontSize   = 9.0
	pdfTitleSize  = 14.0
	barcodeHeight = 12.0
)

// PDFRenderer lays a receipt out on a single 80mm roll page sized to its content.
type PDFRenderer struct {
	Font string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Font: "Helvetica"}
}

// Render returns the PDF bytes for r.
func (p *PDFRenderer) Render(r Receipt) ([]byte, error) {
	family := p.Font
	if family == "" {
		family = "Helvetica"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+r.Number, true)
	pdf.SetMargins(rollMarginMM, rollMarginMM, rollMarginMM)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	contentW := rollWidthMM - 2*rollMarginMM

	rows := p.expand(pdf, family, tr, r.Rows(), contentW)
	var barcodePNG []byte
	number := strings.TrimSpace(r.Number)
	if number != "" {
		var err error
		barcodePNG, err = renderCode128PNG(number, 900, 180)
		if err != nil {
			return nil, err
		}
	}

	height := 2 * rollMarginMM
	for _, row := range rows {
		height += pdfRowHeight(row)
	}
	if barcodePNG != nil {
		height += pdfSpacerMM + barcodeHeight + pdfLineMM
	}

	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: rollWidthMM, Ht: height})
	bg := r.Branding.Background()
	pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
	pdf.Rect(0, 0, rollWidthMM, height, "F")
	if r.Branding.ShowBorder {
		ac := r.Branding.Accent()
		pdf.SetDrawColor(int(ac.R), int(ac.G), int(ac.B))
		pdf.SetLineWidth(0.3)
		pdf.Rect(1, 1, rollWidthMM-2, height-2, "D")
	}

	fg := r.Branding.Foreground()
	accent := r.Branding.Accent()
	pdf.SetDrawColor(int(fg.R), int(fg.G), int(fg.B))
	pdf.SetLineWidth(0.2)

	y := rollMarginMM
	for _, row := range rows {
		switch row.Kind {
		case RowText:
			c := fg
			if row.Accent {
				c = accent
			}
			pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
			p.drawSlots(pdf, family, tr, row, y, contentW)
		case RowRule:
			drawPDFRule(pdf, row.Rule, y+pdfRuleMM/2, contentW)
		}
		y += pdfRowHeight(row)
	}

	if barcodePNG != nil {
		y += pdfSpacerMM
		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		name := "receipt-barcode-" + number
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(barcodePNG))
		imgW := contentW * 0.8
		pdf.ImageOptions(name, rollMarginMM+(contentW-imgW)/2, y, imgW, barcodeHeight, false, opt, 0, "")
		y += barcodeHeight
		pdf.SetTextColor(int(fg.R), int(fg.G), int(fg.B))
		pdf.SetFont(family, "", 7)
		pdf.SetXY(rollMarginMM, y)
		pdf.CellFormat(contentW, pdfLineMM, tr(number), "", 0, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func pdfRowHeight(r Row) float64 {
	switch r.Kind {
	case RowRule:
		return pdfRuleMM
	case RowSpacer:
		return pdfSpacerMM
	}
	if r.Accent && r.Bold && r.Wrappable() {
		return pdfLineMM + 1.6
	}
	return pdfLineMM
}

// expand wraps full-width rows using the font metrics of the row's style.
func (p *PDFRenderer) expand(pdf *gofpdf.Fpdf, family string, tr func(string) string, rows []Row, contentW float64) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !row.Wrappable() {
			out = append(out, row)
			continue
		}
		setRowFont(pdf, family, row)
		slot := row.Slots[0]
		for _, part := range pdf.SplitLines([]byte(tr(slot.Content)), contentW) {
			next := row
			next.Slots = []layout.Slot{{Content: string(part), WidthPercent: slot.WidthPercent, Alignment: slot.Alignment}}
			out = append(out, next)
		}
	}
	return out
}

func setRowFont(pdf *gofpdf.Fpdf, family string, row Row) {
	style := ""
	if row.Bold {
		style = "B"
	}
	size := pdfFontSize
	if row.Accent && row.Bold && row.Wrappable() {
		size = pdfTitleSize
	}
	pdf.SetFont(family, style, size)
}

// drawSlots prints one row. Wrapped rows arrive already translated.
func (p *PDFRenderer) drawSlots(pdf *gofpdf.Fpdf, family string, tr func(string) string, row Row, y, contentW float64) {
	setRowFont(pdf, family, row)
	if row.Wrappable() {
		if row.Accent && row.Bold {
			size := fitFontSizeForWidth(pdf, family, "B", pdfTitleSize, pdfFontSize, row.Slots[0].Content, contentW)
			pdf.SetFont(family, "B", size)
		}
		pdf.SetXY(rollMarginMM, y)
		pdf.CellFormat(contentW, pdfRowHeight(row), row.Slots[0].Content, "", 0, pdfAlign(row.Slots[0].Alignment), false, 0, "")
		return
	}
	x := rollMarginMM
	for _, slot := range row.Slots {
		w := slot.WidthPercent * contentW / 100
		text := tr(slot.Content)
		for text != "" && pdf.GetStringWidth(text) > w {
			text = text[:len(text)-1]
		}
		pdf.SetXY(x, y)
		pdf.CellFormat(w, pdfLineMM, text, "", 0, pdfAlign(slot.Alignment), false, 0, "")
		x += w
	}
}

func drawPDFRule(pdf *gofpdf.Fpdf, sep layout.Separator, y, contentW float64) {
	x0 := rollMarginMM + sep.MarginLeftPercent*contentW/100
	x1 := x0 + sep.WidthPercent*contentW/100
	pdf.Line(x0, y, x1, y)
	if sep.Double {
		pdf.Line(x0, y+0.6, x1, y+0.6)
	}
}

func pdfAlign(a layout.Alignment) string {
	switch a {
	case layout.AlignCenter:
		return "C"
	case layout.AlignRight:
		return "R"
	}
	return "L"
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

var errEmptyBarcode = errors.New("barcode value is required")

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	if value == "" {
		return nil, errEmptyBarcode
	}
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
