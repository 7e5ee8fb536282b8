package login

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"receiptstudio/frontend/shared/html"
)

func GetLoginScreen(page html.PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<section class="card narrow"><h1>Sign in</h1>
<form method="post" action="/login" class="stack">
<label>Username<input name="username" autocomplete="username" required autofocus></label>
<label>Password<input name="password" type="password" autocomplete="current-password" required></label>
<button type="submit">Sign in</button>
</form>
<p class="muted"><a href="/gallery">Browse public receipts</a></p></section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}
