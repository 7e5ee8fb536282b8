package help

import (
	"net/http"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/rbac"
)

type PageData struct {
	IsAdmin bool
}

func HelpPageQueryHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		data := PageData{IsAdmin: session.User.Role == rbac.RoleAdmin}
		html.Render(w, r, log, http.StatusOK, HelpPage(html.PageFor(r, "Help"), data))
	}
}
