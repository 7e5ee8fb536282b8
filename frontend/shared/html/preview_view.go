package html

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/render"
)

// ReceiptPreview renders the same row plan as the PNG and PDF outputs as HTML.
func ReceiptPreview(r render.Receipt) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := NewWriter(w)
		b := r.Branding
		border := ""
		if b.ShowBorder {
			border = "border:1px solid " + cssColor(b.Foreground()) + ";"
		}
		hw.Printf(`<div class="receipt-preview" style="background:%s;color:%s;%s">`,
			cssColor(b.Background()), cssColor(b.Foreground()), border)
		for _, row := range r.Rows() {
			switch row.Kind {
			case render.RowSpacer:
				hw.Raw(`<div class="rp-spacer"></div>`)
			case render.RowRule:
				class := "rp-rule"
				if row.Rule.Double {
					class += " double"
				}
				hw.Printf(`<div class="%s" style="width:%s%%;margin-left:%s%%"></div>`,
					class, pct(row.Rule.WidthPercent), pct(row.Rule.MarginLeftPercent))
			default:
				style := Markup("")
				if row.Accent {
					style = Markup(` style="color:` + cssColor(b.Accent()) + `"`)
				}
				class := "rp-row"
				if row.Bold {
					class += " bold"
				}
				hw.Printf(`<div class="%s"%s>`, class, style)
				for _, slot := range row.Slots {
					hw.Printf(`<span style="width:%s%%;text-align:%s">%s</span>`,
						pct(slot.WidthPercent), cssAlign(slot.Alignment), slot.Content)
				}
				hw.Raw(`</div>`)
			}
		}
		hw.Raw(`</div>`)
		return hw.Err()
	})
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func cssAlign(a layout.Alignment) string {
	switch a {
	case layout.AlignCenter:
		return "center"
	case layout.AlignRight:
		return "right"
	}
	return "left"
}

func cssColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
