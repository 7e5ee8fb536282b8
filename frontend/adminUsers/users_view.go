package adminusers

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"receiptstudio/frontend/shared/html"
)

func roleSelect(hw *html.Writer, roles []string, current string) {
	hw.Raw(`<select name="role">`)
	for _, role := range roles {
		hw.Printf(`<option value="%s"%s>%s</option>`, role, html.Selected(role, current), role)
	}
	hw.Raw(`</select>`)
}

func UsersListPage(page html.PageData, data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<section class="card"><h1>Users</h1><table class="grid"><thead><tr><th>Username</th><th>Role</th><th class="num">Receipts</th><th>Created</th><th>Change role or password</th></tr></thead><tbody>`)
		for _, u := range data.Users {
			you := html.Markup("")
			if u.ID == data.CurrentUserID {
				you = ` <span class="muted">(you)</span>`
			}
			hw.Printf(`<tr><td>%s%s</td><td>%s</td><td class="num">%d</td><td>%s</td><td><form method="post" action="%s/%d" class="inline">`,
				u.Username, you, u.Role, u.Receipts, u.CreatedAt.Format("2006-01-02"), usersPath, u.ID)
			roleSelect(hw, data.Roles, u.Role)
			hw.Raw(`<input type="password" name="password" placeholder="New password (optional)" autocomplete="new-password"><button type="submit">Save</button></form></td></tr>`)
		}
		hw.Raw(`</tbody></table>`)

		hw.Printf(`<h2>Add user</h2><form method="post" action="%s" class="inline"><input name="username" placeholder="Username" required autocomplete="off">`+
			`<input type="password" name="password" placeholder="Password" required autocomplete="new-password">`, usersPath)
		roleSelect(hw, data.Roles, "cashier")
		hw.Raw(`<button type="submit">Create</button></form><p class="muted">Passwords need at least 12 characters with upper and lower case, a digit and a symbol. Changing a user signs them out.</p></section>`)
		return hw.Err()
	})
	return html.Page(page, body)
}
