package menu

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/format"
)

func MenuPage(page html.PageData, data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		base := menuPath(data.TemplateID)
		hw.Printf(`<section class="card"><div class="row-between"><h1>Menu · %s</h1><div><a href="/app/templates/%s/edit">Back to template</a> · <a href="%s.csv">Export CSV</a></div></div>`,
			data.TemplateName, url.PathEscape(data.TemplateID), base)

		hw.Printf(`<form method="get" action="%s" class="inline"><input name="q" placeholder="Search name or description" value="%s"><select name="category"><option value="">All categories</option>`,
			base, data.Filter.Search)
		hw.Printf(`<option value="%s"%s>Uncategorized</option>`, UncategorizedFilter, html.Selected(data.Filter.Category, UncategorizedFilter))
		for _, c := range data.Categories {
			hw.Printf(`<option value="%s"%s>%s</option>`, c, html.Selected(data.Filter.Category, c), c)
		}
		hw.Raw(`</select><button type="submit">Filter</button></form>`)

		hw.Raw(`<table class="grid"><thead><tr><th>Name</th><th>Description</th><th>Category</th><th class="num">Price</th><th>Status</th>`)
		if data.CanModify {
			hw.Raw(`<th></th>`)
		}
		hw.Raw(`</tr></thead><tbody>`)
		if len(data.Items) == 0 {
			hw.Raw(`<tr><td colspan="6" class="muted">No menu items.</td></tr>`)
		}
		for _, item := range data.Items {
			itemPath := base + "/" + url.PathEscape(item.ID)
			status := "inactive"
			if item.IsActive {
				status = "active"
			}
			if !data.CanModify {
				hw.Printf(`<tr><td>%s</td><td>%s</td><td>%s</td><td class="num">%s</td><td>%s</td></tr>`,
					item.Name, item.Description, item.Category, format.Plain(item.Price), status)
				continue
			}
			hw.Printf(`<tr><td colspan="5"><form method="post" action="%s" class="inline">`+
				`<input name="name" value="%s" required><input name="description" value="%s"><input name="category" value="%s">`+
				`<input name="price" value="%s" inputmode="decimal" required><label><input type="checkbox" name="is_active" value="1"%s> active</label>`+
				`<button type="submit">Save</button></form></td><td class="actions">`,
				itemPath, item.Name, item.Description, item.Category, format.Plain(item.Price), html.Checked(item.IsActive))
			hw.Printf(`<form method="post" action="%s/toggle"><button type="submit" class="link">%s</button></form>`, itemPath, map[bool]string{true: "Deactivate", false: "Activate"}[item.IsActive])
			hw.Printf(`<form method="post" action="%s/delete" onsubmit="return confirm('Delete this item?')"><button type="submit" class="link danger">Delete</button></form></td></tr>`, itemPath)
		}
		hw.Raw(`</tbody></table>`)

		if data.CanModify {
			hw.Printf(`<h2>Add item</h2><form method="post" action="%s" class="inline">`+
				`<input name="name" placeholder="Name" required><input name="description" placeholder="Description">`+
				`<input name="category" placeholder="Category"><input name="price" placeholder="0.00" inputmode="decimal" required>`+
				`<label><input type="checkbox" name="is_active" value="1" checked> active</label><button type="submit">Add</button></form>`, base)
			hw.Printf(`<h2>Import CSV</h2><p class="muted">Header: name,description,price,category. Rows with an existing name are updated.</p>`+
				`<form method="post" action="%s/import" enctype="multipart/form-data" class="inline"><input type="file" name="file" accept=".csv,text/csv" required><button type="submit">Import</button></form>`, base)
		}
		hw.Raw(`</section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}
