package render

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"receiptstudio/infrastructure/charges"
	"receiptstudio/infrastructure/layout"
)

func sampleReceipt(t *testing.T) Receipt {
	t.Helper()
	items := []charges.LineItem{
		{ID: "1", Description: "Flat White", Quantity: 2, UnitPrice: decimal.RequireFromString("4.50")},
		{ID: "2", Description: "Almond Croissant with a very long description that needs truncating", Quantity: 1, UnitPrice: decimal.RequireFromString("5.25")},
	}
	cfg := charges.DefaultConfig()
	cfg.TaxEnabled = true
	b := charges.Compute(items, cfg)
	l := layout.DefaultTemplateLayout()
	l.Separators.AfterTotal = true
	return Receipt{
		ID:       "r-1",
		Number:   "RCP-1700000000000",
		IssuedAt: "2026-02-19 09:30",
		Customer: Customer{Name: "Dana", Email: "dana@example.com"},
		Notes:    "Table 4",
		Branding: Branding{
			BusinessName:    "Corner Cafe",
			BusinessAddress: "12 High Street\nSpringfield",
			BusinessPhone:   "555-0100",
			HeaderLines:     []string{"ABN 123"},
			CustomerTitle:   "Customer",
			FooterText:      "Thank you for your business!",
			Terms:           "No refunds after 7 days.",
			BackgroundColor: "#fffaf0",
			TextColor:       "#222",
			AccentColor:     "#1f6feb",
			ShowBorder:      true,
		},
		Document: layout.BuildDocument(l, items, b),
	}
}

func TestRowsIncludeSummaryAndSeparators(t *testing.T) {
	t.Parallel()

	rows := sampleReceipt(t).Rows()
	var sawTotal, sawDouble bool
	for _, row := range rows {
		if row.Kind == RowText && len(row.Slots) == 2 && row.Slots[0].Content == "Total:" {
			sawTotal = true
			if !row.Bold || !row.Accent {
				t.Fatalf("expected emphasized total row")
			}
		}
		if row.Kind == RowRule && row.Rule.Double {
			sawDouble = true
		}
	}
	if !sawTotal {
		t.Fatalf("expected total row in plan")
	}
	if !sawDouble {
		t.Fatalf("expected double rule after total")
	}
	if rows[0].Slots[0].Content != "Corner Cafe" {
		t.Fatalf("expected business name first, got %q", rows[0].Slots[0].Content)
	}
}

func TestImageRendererProducesScaledPNG(t *testing.T) {
	t.Parallel()

	out, err := NewImageRenderer().Rasterize(sampleReceipt(t), ImageOptions{})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("expected png magic bytes")
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if got := img.Bounds().Dx(); got != rasterWidth*2 {
		t.Fatalf("expected width %d at default scale, got %d", rasterWidth*2, got)
	}
}

func TestImageRendererHonorsBackgroundAndScale(t *testing.T) {
	t.Parallel()

	out, err := NewImageRenderer().Rasterize(sampleReceipt(t), ImageOptions{
		Scale:           1,
		BackgroundColor: color.NRGBA{R: 0, G: 0, B: 0xff, A: 0xff},
	})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != rasterWidth {
		t.Fatalf("expected unscaled width, got %d", img.Bounds().Dx())
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if r != 0 || g != 0 || b>>8 != 0xff {
		t.Fatalf("expected blue background, got %d %d %d", r, g, b)
	}

	if _, err := NewImageRenderer().Rasterize(sampleReceipt(t), ImageOptions{Scale: -1}); err == nil {
		t.Fatalf("expected error for negative scale")
	}
}

func TestImageRendererClampsTinyScale(t *testing.T) {
	t.Parallel()

	out, err := NewImageRenderer().Rasterize(sampleReceipt(t), ImageOptions{Scale: 0.001})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	want := int(math.Round(float64(rasterWidth) * minScale))
	if got := img.Bounds().Dx(); got != want {
		t.Fatalf("expected width %d at minimum scale, got %d", want, got)
	}
}

func TestPDFRendererGeneratesPDF(t *testing.T) {
	t.Parallel()

	out, err := NewPDFRenderer().Render(sampleReceipt(t))
	if err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected pdf header")
	}
}

func TestPDFRendererWithoutNumberSkipsBarcode(t *testing.T) {
	t.Parallel()

	r := sampleReceipt(t)
	r.Number = ""
	out, err := NewPDFRenderer().Render(r)
	if err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty pdf bytes")
	}
}

func TestQRRendererEncodesSquarePNG(t *testing.T) {
	t.Parallel()

	out, err := QRRenderer{}.Encode(ShareURL("http://localhost:8080/", "abc"), 0)
	if err != nil {
		t.Fatalf("encode qr: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != DefaultQRSize || img.Bounds().Dy() != DefaultQRSize {
		t.Fatalf("expected %dx%d qr, got %v", DefaultQRSize, DefaultQRSize, img.Bounds())
	}
	if _, err := (QRRenderer{}).Encode("  ", 100); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestShareURLTrimsSlash(t *testing.T) {
	t.Parallel()

	if got := ShareURL("https://r.example.com/", "id-1"); got != "https://r.example.com/share/id-1" {
		t.Fatalf("unexpected share url %q", got)
	}
}

func TestParseHexColor(t *testing.T) {
	t.Parallel()

	c, ok := ParseHexColor("#1f6feb")
	if !ok || c.R != 0x1f || c.G != 0x6f || c.B != 0xeb {
		t.Fatalf("unexpected color %+v ok=%v", c, ok)
	}
	c, ok = ParseHexColor("#abc")
	if !ok || c.R != 0xaa || c.G != 0xbb || c.B != 0xcc {
		t.Fatalf("unexpected short color %+v ok=%v", c, ok)
	}
	if _, ok := ParseHexColor("blue"); ok {
		t.Fatalf("expected invalid color")
	}
	if got := (Branding{BackgroundColor: "nope"}).Background(); got != white {
		t.Fatalf("expected white fallback, got %+v", got)
	}
}
