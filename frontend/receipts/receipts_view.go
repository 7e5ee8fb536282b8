package receipts

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/format"
)

func ListPage(page html.PageData, data ListPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		action, title := listPath, "My receipts"
		if data.Public {
			action, title = "/gallery", "Public receipts"
		}
		hw.Printf(`<section class="card"><div class="row-between"><h1>%s</h1>`, title)
		if !data.Public {
			hw.Raw(`<div><a class="button" href="/app/receipts/new">New receipt</a> <a href="/app/exports/receipts.csv">Export CSV</a></div>`)
		}
		hw.Raw(`</div>`)
		hw.Printf(`<form method="get" action="%s" class="inline"><input name="q" placeholder="Business, customer or receipt number" value="%s"><button type="submit">Search</button></form>`,
			action, data.Search)

		hw.Raw(`<table class="grid"><thead><tr><th>Number</th><th>Business</th><th>Customer</th><th>Date</th><th class="num">Total</th>`)
		if data.Public {
			hw.Raw(`<th>By</th>`)
		} else {
			hw.Raw(`<th>Shared</th>`)
		}
		hw.Raw(`</tr></thead><tbody>`)
		if len(data.Receipts) == 0 {
			hw.Raw(`<tr><td colspan="6" class="muted">No receipts found.</td></tr>`)
		}
		for _, rec := range data.Receipts {
			href := receiptPath(rec.ID)
			if data.Public {
				href = "/share/" + url.PathEscape(rec.ID)
			}
			hw.Printf(`<tr><td><a href="%s">%s</a></td><td>%s</td><td>%s</td><td>%s %s</td><td class="num">%s</td>`,
				href, rec.ReceiptNumber, rec.BusinessName, rec.CustomerName,
				rec.ReceiptDate, rec.ReceiptTime, format.Money(rec.Total, true))
			if data.Public {
				hw.Printf(`<td>%s</td></tr>`, rec.CreatedByName)
			} else {
				hw.Printf(`<td>%s</td></tr>`, map[bool]string{true: "public", false: "private"}[rec.IsPublic])
			}
		}
		hw.Raw(`</tbody></table></section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}

func itemRow(hw *html.Writer, item ItemInput) {
	price := ""
	if item.Description != "" || !item.UnitPrice.IsZero() {
		price = format.Plain(item.UnitPrice)
	}
	hw.Printf(`<tr class="item-row"><td><input type="hidden" name="item_id" value="%s"><input name="item_description" value="%s" placeholder="Description"></td>`+
		`<td><input name="item_quantity" value="%d" inputmode="numeric" class="num"></td>`+
		`<td><input name="item_price" value="%s" inputmode="decimal" placeholder="0.00" class="num"></td>`+
		`<td><button type="button" class="link danger" data-remove-row>Remove</button></td></tr>`,
		item.ID, item.Description, item.Quantity, price)
}

const formScript = `<script>
(function () {
  var body = document.getElementById("items");
  if (!body) { return; }
  function addRow(desc, price) {
    var row = body.querySelector(".item-row").cloneNode(true);
    row.querySelectorAll("input").forEach(function (input) { input.value = ""; });
    row.querySelector("[name=item_description]").value = desc || "";
    row.querySelector("[name=item_quantity]").value = "1";
    row.querySelector("[name=item_price]").value = price || "";
    body.appendChild(row);
  }
  body.addEventListener("click", function (e) {
    if (!e.target.hasAttribute("data-remove-row")) { return; }
    if (body.querySelectorAll(".item-row").length > 1) { e.target.closest("tr").remove(); }
  });
  document.getElementById("add-row").addEventListener("click", function () { addRow(); });
  var picker = document.getElementById("menu-picker");
  if (picker) {
    document.getElementById("add-menu-item").addEventListener("click", function () {
      var opt = picker.options[picker.selectedIndex];
      if (opt && opt.value) { addRow(opt.dataset.name, opt.dataset.price); }
    });
  }
})();
</script>`

func FormPage(page html.PageData, data FormPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		in := data.Input
		action, heading := listPath, "New receipt"
		if data.ReceiptID != "" {
			action, heading = receiptPath(data.ReceiptID), "Edit receipt"
		}
		hw.Printf(`<section class="card"><h1>%s</h1>`, heading)
		if data.ReceiptID == "" {
			hw.Raw(`<form method="get" action="/app/receipts/new" class="inline"><label>Template <select name="template_id" onchange="this.form.submit()"><option value="">No template</option>`)
			for _, t := range data.Templates {
				hw.Printf(`<option value="%s"%s>%s</option>`, t.ID, html.Selected(t.ID, in.TemplateID), t.Name)
			}
			hw.Raw(`</select></label><noscript><button type="submit">Apply</button></noscript></form>`)
		}

		hw.Printf(`<form method="post" action="%s" class="stack">`, action)
		if data.ReceiptID == "" {
			hw.Printf(`<input type="hidden" name="template_id" value="%s">`, in.TemplateID)
		} else {
			hw.Raw(`<label>Template <select name="template_id"><option value="">No template</option>`)
			for _, t := range data.Templates {
				hw.Printf(`<option value="%s"%s>%s</option>`, t.ID, html.Selected(t.ID, in.TemplateID), t.Name)
			}
			hw.Raw(`</select></label>`)
		}
		hw.Printf(`<div class="grid-2"><label>Receipt number <input name="receipt_number" value="%s" required maxlength="64"></label>`+
			`<label>Date <input type="date" name="receipt_date" value="%s"></label>`+
			`<label>Time <input type="time" name="receipt_time" value="%s"></label>`+
			`<label>Customer <input name="customer_name" value="%s"></label>`+
			`<label>Email <input type="email" name="customer_email" value="%s"></label>`+
			`<label>Phone <input name="customer_phone" value="%s"></label></div>`,
			in.ReceiptNumber, in.ReceiptDate, in.ReceiptTime,
			in.CustomerName, in.CustomerEmail, in.CustomerPhone)

		hw.Raw(`<h2>Items</h2><table class="grid"><thead><tr><th>Description</th><th class="num">Qty</th><th class="num">Price</th><th></th></tr></thead><tbody id="items">`)
		items := in.Items
		if len(items) == 0 {
			items = []ItemInput{{Quantity: 1}}
		}
		for _, item := range items {
			itemRow(hw, item)
		}
		hw.Raw(`</tbody></table><div class="inline"><button type="button" id="add-row">Add line</button>`)
		if len(data.MenuItems) > 0 {
			hw.Raw(`<select id="menu-picker"><option value="">Pick from menu</option>`)
			for _, mi := range data.MenuItems {
				hw.Printf(`<option value="%s" data-name="%s" data-price="%s">%s · %s</option>`,
					mi.ID, mi.Name, format.Plain(mi.Price), mi.Name, format.Money(mi.Price, true))
			}
			hw.Raw(`</select><button type="button" id="add-menu-item">Add from menu</button>`)
		}
		hw.Raw(`</div>`)

		c := in.Charges
		hw.Raw(`<h2>Charges</h2><div class="grid-2">`)
		hw.Printf(`<label><input type="checkbox" name="tax_enabled" value="1"%s> Tax (%%)</label><input name="tax_rate" value="%s" inputmode="decimal">`,
			html.Checked(c.TaxEnabled), c.TaxRate.String())
		hw.Printf(`<label><input type="checkbox" name="service_charge_enabled" value="1"%s> Service charge (%%)</label><input name="service_charge_rate" value="%s" inputmode="decimal">`,
			html.Checked(c.ServiceChargeEnabled), c.ServiceChargeRate.String())
		hw.Printf(`<label><input type="checkbox" name="discount_enabled" value="1"%s> Discount</label><input name="discount_amount" value="%s" inputmode="decimal">`,
			html.Checked(c.DiscountEnabled), format.Plain(c.DiscountAmount))
		hw.Printf(`<label><input type="checkbox" name="rounding_enabled" value="1"%s> Rounding</label><input name="rounding_amount" value="%s" inputmode="decimal">`,
			html.Checked(c.RoundingEnabled), format.Plain(c.RoundingAmount))
		hw.Raw(`</div>`)

		hw.Printf(`<label>Notes <textarea name="notes" rows="3" maxlength="2000">%s</textarea></label>`, in.Notes)
		hw.Printf(`<label><input type="checkbox" name="is_public" value="1"%s> Show in the public gallery</label>`, html.Checked(in.IsPublic))
		hw.Raw(`<div class="inline"><button type="submit">Save receipt</button> <a href="/app/receipts">Cancel</a></div></form>`)

		if data.CanDelete {
			hw.Printf(`<form method="post" action="%s/delete" onsubmit="return confirm('Delete this receipt?')"><button type="submit" class="link danger">Delete receipt</button></form>`,
				receiptPath(data.ReceiptID))
		}
		hw.Raw(`</section>`)
		hw.Raw(formScript)
		return hw.Err()
	})
	return html.Page(page, body)
}

func ViewPage(page html.PageData, data ViewPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		rec := data.Receipt
		base := receiptPath(rec.ID)
		hw.Printf(`<section class="card"><div class="row-between"><h1>Receipt %s</h1><div>`, rec.ReceiptNumber)
		if data.CanModify {
			hw.Printf(`<a class="button" href="%s/edit">Edit</a> `, base)
		}
		hw.Printf(`<a href="%s/receipt.png">PNG</a> · <a href="%s/receipt.pdf">PDF</a></div></div>`, base, base)

		hw.Raw(`<div class="receipt-layout"><div>`)
		hw.Component(ctx, html.ReceiptPreview(data.Render))
		hw.Raw(`</div><aside class="stack">`)

		if rec.IsPublic {
			hw.Printf(`<p>Shared at <a href="%s">%s</a></p><img src="%s/qr.png" alt="Share QR code" width="160" height="160">`,
				data.ShareURL, data.ShareURL, base)
		} else {
			hw.Raw(`<p class="muted">This receipt is private.</p>`)
		}
		if data.CanModify {
			next, label := "1", "Make public"
			if rec.IsPublic {
				next, label = "0", "Make private"
			}
			hw.Printf(`<form method="post" action="%s/visibility"><input type="hidden" name="is_public" value="%s"><button type="submit">%s</button></form>`, base, next, label)

			hw.Raw(`<h2>Lines</h2><ul class="plain">`)
			for _, item := range rec.Items {
				hw.Printf(`<li>%s × %d <form method="post" action="%s/items/%s/delete" class="inline"><button type="submit" class="link danger"%s>Remove</button></form></li>`,
					item.Description, item.Quantity, base, url.PathEscape(item.ID),
					map[bool]html.Markup{true: " disabled", false: ""}[len(rec.Items) <= 1])
			}
			hw.Raw(`</ul>`)
			if len(data.MenuItems) > 0 {
				hw.Raw(`<h2>Add from menu</h2><ul class="plain">`)
				for _, mi := range data.MenuItems {
					hw.Printf(`<li><form method="post" action="%s/menu-items/%s" class="inline"><button type="submit" class="link">%s · %s</button></form></li>`,
						base, url.PathEscape(mi.ID), mi.Name, format.Money(mi.Price, true))
				}
				hw.Raw(`</ul>`)
			}
		}
		hw.Raw(`</aside></div></section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}

// SharePage is the public view of a shared receipt.
func SharePage(page html.PageData, data ViewPageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		base := "/share/" + url.PathEscape(data.Receipt.ID)
		hw.Raw(`<section class="card"><div class="receipt-layout"><div>`)
		hw.Component(ctx, html.ReceiptPreview(data.Render))
		hw.Printf(`</div><aside class="stack"><a class="button" href="%s/receipt.png">Download PNG</a><img src="%s/qr.png" alt="Share QR code" width="160" height="160"></aside></div></section>`,
			base, base)
		return hw.Err()
	})
	return html.Page(page, body)
}
