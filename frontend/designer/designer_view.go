package designer

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"receiptstudio/frontend/shared/html"
)

func ListPage(page html.PageData, data ListPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<section class="card"><div class="row-between"><h1>Templates</h1><a class="button" href="/app/templates/new">New template</a></div>`)
		hw.Raw(`<table class="grid"><thead><tr><th>Name</th><th>Business</th><th>Visibility</th><th></th></tr></thead><tbody>`)
		if len(data.Templates) == 0 {
			hw.Raw(`<tr><td colspan="4" class="muted">No templates yet.</td></tr>`)
		}
		for _, row := range data.Templates {
			t := row.Template
			id := url.PathEscape(t.ID)
			visibility := "private"
			if t.IsPublic {
				visibility = "public"
			}
			if !row.Owned {
				visibility += " · shared"
			}
			hw.Printf(`<tr><td><a href="/app/templates/%s/edit">%s</a></td><td>%s</td><td>%s</td><td class="actions">`,
				id, t.Name, t.BusinessName, visibility)
			hw.Printf(`<a href="/app/receipts/new?template_id=%s">New receipt</a> <a href="/app/templates/%s/menu">Menu</a> `, url.QueryEscape(t.ID), id)
			hw.Printf(`<form method="post" action="/app/templates/%s/duplicate" class="inline"><button type="submit" class="link">Duplicate</button></form>`, id)
			if row.CanModify {
				hw.Printf(`<form method="post" action="/app/templates/%s/delete" class="inline" onsubmit="return confirm('Delete this template and its menu?')"><button type="submit" class="link danger">Delete</button></form>`, id)
			}
			hw.Raw(`</td></tr>`)
		}
		hw.Raw(`</tbody></table></section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}

func writeField(hw *html.Writer, b binding) {
	name := b.name
	label := b.label
	switch b.kind {
	case kindBool:
		hw.Printf(`<label class="check"><input type="checkbox" name="%s" value="1"%s> %s</label>`, name, html.Checked(*b.flag), label)
	case kindArea:
		hw.Printf(`<label>%s <textarea name="%s" rows="2">%s</textarea></label>`, label, name, *b.str)
	case kindColor:
		hw.Printf(`<label>%s <input type="color" name="%s" value="%s"></label>`, label, name, *b.str)
	case kindChoice:
		hw.Printf(`<label>%s <select name="%s">`, label, name)
		for _, c := range b.choices {
			hw.Printf(`<option value="%s"%s>%s</option>`, c, html.Selected(c, *b.str), c)
		}
		hw.Raw(`</select></label>`)
	case kindInt:
		if len(b.choices) > 0 {
			hw.Printf(`<label>%s <select name="%s">`, label, name)
			current := displayValue(b)
			for _, c := range b.choices {
				hw.Printf(`<option value="%s"%s>%s</option>`, c, html.Selected(c, current), c)
			}
			hw.Raw(`</select></label>`)
			return
		}
		hw.Printf(`<label>%s <input type="number" min="0" name="%s" value="%s"></label>`, label, name, displayValue(b))
	case kindWidth, kindRate:
		hw.Printf(`<label>%s <input inputmode="decimal" name="%s" value="%s"></label>`, label, name, displayValue(b))
	default:
		hw.Printf(`<label>%s <input name="%s" value="%s"></label>`, label, name, displayValue(b))
	}
}

func FormPage(page html.PageData, data FormPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		t := data.Template
		action, heading := listPath, "New template"
		if t.ID != "" {
			action, heading = listPath+"/"+url.PathEscape(t.ID), "Template · "+t.Name
		}
		hw.Printf(`<section class="card"><div class="row-between"><h1>%s</h1>`, heading)
		if t.ID != "" {
			id := url.PathEscape(t.ID)
			hw.Printf(`<div><a href="/app/templates/%s/menu">Menu</a> · <a href="/app/receipts/new?template_id=%s">New receipt</a></div>`, id, url.QueryEscape(t.ID))
		}
		hw.Raw(`</div><div class="designer">`)

		hw.Printf(`<form method="post" action="%s" class="stack">`, action)
		if !data.CanModify {
			hw.Raw(`<p class="muted">This template belongs to another user. Duplicate it to make changes.</p><fieldset disabled>`)
		}
		for _, s := range sections(&t) {
			hw.Printf(`<fieldset><legend>%s</legend>`, s.title)
			for _, b := range s.fields {
				writeField(hw, b)
			}
			hw.Raw(`</fieldset>`)
		}
		if data.CanModify {
			hw.Raw(`<button type="submit">Save template</button>`)
		} else {
			hw.Raw(`</fieldset>`)
		}
		hw.Raw(`</form>`)

		hw.Raw(`<aside class="stack"><h2>Preview</h2>`)
		hw.Component(ctx, html.ReceiptPreview(data.Preview))
		if t.ID != "" {
			hw.Printf(`<form method="post" action="/app/templates/%s/duplicate"><button type="submit">Duplicate</button></form>`, url.PathEscape(t.ID))
		}
		hw.Raw(`</aside></div></section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}
