package help

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"receiptstudio/frontend/shared/html"
)

func HelpPage(page html.PageData, data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<section class="card"><h1>Help</h1>`)

		hw.Raw(`<h2>How totals are worked out</h2><ol>` +
			`<li>Each line is quantity times unit price. The lines add up to the subtotal.</li>` +
			`<li>A fixed discount comes off the subtotal. It never takes the amount below zero.</li>` +
			`<li>The service charge is a percentage of the discounted amount.</li>` +
			`<li>Tax is a percentage of the discounted amount plus the service charge.</li>` +
			`<li>The rounding adjustment is added last and may be negative.</li>` +
			`</ol><p class="muted">Amounts are rounded to cents when a receipt is saved or shown.</p>`)

		hw.Raw(`<h2>Templates</h2><ul>` +
			`<li>A template holds your business details, colors, fonts and default charges.</li>` +
			`<li>Column order decides where description, quantity, price and line total appear. Unknown or repeated names fall back to the standard order.</li>` +
			`<li>The totals block can use two or three columns. Labels and values can sit in any column; widths are percentages.</li>` +
			`<li>Public templates can be used by everyone but only changed by their owner.</li>` +
			`<li>Each template has its own menu. Menu items can be imported and exported as CSV.</li>` +
			`</ul>`)

		hw.Raw(`<h2>Sharing</h2><ul>` +
			`<li>Receipts are private until you mark them public.</li>` +
			`<li>Public receipts appear in the gallery and can be opened by anyone with the share link or QR code.</li>` +
			`<li>Downloads are available as PNG and PDF.</li>` +
			`</ul>`)

		if data.IsAdmin {
			hw.Raw(`<h2>Administration</h2><ul>` +
				`<li>Add cashiers and admins from the Users page.</li>` +
				`<li>Changing a user's role or password signs them out everywhere.</li>` +
				`<li>The last remaining admin cannot be demoted.</li>` +
				`</ul>`)
		}
		hw.Raw(`</section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}
