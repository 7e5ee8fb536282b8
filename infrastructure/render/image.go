package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"receiptstudio/infrastructure/layout"
)

const (
	// DefaultScale is the pixel ratio applied to exported images.
	DefaultScale = 2.0
	minScale     = 0.25
	maxScale     = 6.0

	rasterWidth   = 360
	rasterPadding = 14
	rasterLine    = 16
	rasterSpacer  = 8
	rasterRule    = 9
)

// ImageOptions controls PNG export. A zero Scale means DefaultScale and a nil
// BackgroundColor means the template background.
type ImageOptions struct {
	Scale           float64
	BackgroundColor color.Color
}

// Rasterizer turns a resolved receipt into PNG bytes.
type Rasterizer interface {
	Rasterize(r Receipt, opts ImageOptions) ([]byte, error)
}

// ImageRenderer draws receipts with the fixed 7x13 bitmap face.
type ImageRenderer struct {
	face font.Face
}

func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{face: basicfont.Face7x13}
}

var errScale = errors.New("image scale out of range")

func (ir *ImageRenderer) Rasterize(r Receipt, opts ImageOptions) ([]byte, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if scale < 0 || scale > maxScale || math.IsNaN(scale) {
		return nil, errScale
	}
	if scale < minScale {
		scale = minScale
	}
	var bg color.Color = r.Branding.Background()
	if opts.BackgroundColor != nil {
		bg = opts.BackgroundColor
	}

	contentW := rasterWidth - 2*rasterPadding
	lines := ir.expand(r.Rows(), contentW)
	height := 2 * rasterPadding
	for _, row := range lines {
		height += rowHeight(row)
	}

	canvas := imaging.New(rasterWidth, height, bg)
	fg := r.Branding.Foreground()
	accent := r.Branding.Accent()

	if r.Branding.ShowBorder {
		strokeRect(canvas, canvas.Bounds(), accent)
	}

	y := rasterPadding
	for _, row := range lines {
		switch row.Kind {
		case RowText:
			c := fg
			if row.Accent {
				c = accent
			}
			ir.drawSlots(canvas, row, y, contentW, c)
		case RowRule:
			drawRule(canvas, row.Rule, y+rasterRule/2, contentW, fg)
		}
		y += rowHeight(row)
	}

	var out image.Image = canvas
	if scale != 1 {
		w := int(math.Round(float64(rasterWidth) * scale))
		out = imaging.Resize(canvas, w, 0, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rowHeight(r Row) int {
	switch r.Kind {
	case RowRule:
		return rasterRule
	case RowSpacer:
		return rasterSpacer
	}
	return rasterLine
}

// expand wraps full-width text rows to the canvas width.
func (ir *ImageRenderer) expand(rows []Row, contentW int) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !row.Wrappable() {
			out = append(out, row)
			continue
		}
		slot := row.Slots[0]
		for _, part := range wrapToWidth(ir.face, slot.Content, contentW) {
			next := row
			next.Slots = []layout.Slot{{Content: part, WidthPercent: slot.WidthPercent, Alignment: slot.Alignment}}
			out = append(out, next)
		}
	}
	return out
}

func (ir *ImageRenderer) drawSlots(dst draw.Image, row Row, top, contentW int, c color.Color) {
	baseline := top + rasterLine - 4
	x := float64(rasterPadding)
	for _, slot := range row.Slots {
		w := slot.WidthPercent * float64(contentW) / 100
		text := truncateToWidth(ir.face, slot.Content, int(w))
		tw := font.MeasureString(ir.face, text).Round()
		var tx int
		switch slot.Alignment {
		case layout.AlignCenter:
			tx = int(x + (w-float64(tw))/2)
		case layout.AlignRight:
			tx = int(x+w) - tw
		default:
			tx = int(x)
		}
		ir.drawText(dst, text, tx, baseline, c)
		if row.Bold {
			ir.drawText(dst, text, tx+1, baseline, c)
		}
		x += w
	}
}

func (ir *ImageRenderer) drawText(dst draw.Image, text string, x, baseline int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: ir.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

func drawRule(dst draw.Image, sep layout.Separator, y, contentW int, c color.Color) {
	x0 := rasterPadding + int(sep.MarginLeftPercent*float64(contentW)/100)
	x1 := x0 + int(sep.WidthPercent*float64(contentW)/100)
	hline(dst, x0, x1, y, c)
	if sep.Double {
		hline(dst, x0, x1, y+2, c)
	}
}

func hline(dst draw.Image, x0, x1, y int, c color.Color) {
	draw.Draw(dst, image.Rect(x0, y, x1, y+1), image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(dst draw.Image, r image.Rectangle, c color.Color) {
	u := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

func truncateToWidth(face font.Face, s string, maxW int) string {
	if font.MeasureString(face, s).Round() <= maxW {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ".."
		if font.MeasureString(face, candidate).Round() <= maxW {
			return candidate
		}
	}
	return ""
}

func wrapToWidth(face font.Face, s string, maxW int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if font.MeasureString(face, candidate).Round() <= maxW {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = truncateToWidth(face, word, maxW)
	}
	return append(lines, current)
}
