package html

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"receiptstudio/frontend/shared/nav"
)

// Writer accumulates HTML and keeps the first write error.
type Writer struct {
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes s unescaped.
func (hw *Writer) Raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// Markup is trusted HTML that Printf writes as is.
type Markup string

// Printf formats markup. String and Stringer arguments are HTML-escaped; wrap
// fragments that are already HTML in Markup.
func (hw *Writer) Printf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case Markup:
			escaped[i] = string(v)
		case string:
			escaped[i] = templ.EscapeString(v)
		case fmt.Stringer:
			escaped[i] = templ.EscapeString(v.String())
		default:
			escaped[i] = a
		}
	}
	hw.Raw(fmt.Sprintf(format, escaped...))
}

// Component renders c inline.
func (hw *Writer) Component(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

func (hw *Writer) Err() error {
	return hw.err
}

// Checked returns the checked attribute when on is true.
func Checked(on bool) Markup {
	if on {
		return " checked"
	}
	return ""
}

// Selected returns the selected attribute when a equals b.
func Selected(a, b string) Markup {
	if a == b {
		return " selected"
	}
	return ""
}

// PageData is the chrome around every page.
type PageData struct {
	Title  string
	Nav    *nav.TopNavData
	Status string
	Error  string
}

// Page renders the document shell around body.
func Page(data PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := NewWriter(w)
		hw.Printf(`<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s · Receipt Studio</title><link rel="stylesheet" href="/assets/app.css"></head><body>`, data.Title)
		if data.Nav != nil {
			hw.Raw(`<header class="topnav"><a class="brand" href="/app/receipts">Receipt Studio</a><nav>`)
			for _, l := range data.Nav.Links {
				class := Markup("")
				if l.Active {
					class = ` class="active"`
				}
				hw.Printf(`<a href="%s"%s>%s</a>`, l.Href, class, l.Label)
			}
			hw.Printf(`</nav><div class="who"><span>%s (%s)</span><form method="post" action="/logout"><button type="submit" class="link">Log out</button></form></div></header>`,
				data.Nav.Username, data.Nav.Role)
		} else {
			hw.Raw(`<header class="topnav"><a class="brand" href="/gallery">Receipt Studio</a><nav><a href="/login">Log in</a></nav></header>`)
		}
		hw.Raw(`<main>`)
		if data.Status != "" {
			hw.Printf(`<div class="flash ok">%s</div>`, data.Status)
		}
		if data.Error != "" {
			hw.Printf(`<div class="flash err">%s</div>`, data.Error)
		}
		hw.Component(ctx, body)
		hw.Raw(`</main>`)
		hw.Raw(CSRFFormScript())
		hw.Raw(`</body></html>`)
		return hw.Err()
	})
}
