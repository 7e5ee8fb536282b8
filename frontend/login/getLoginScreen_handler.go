package login

import (
	"net/http"

	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/logger"
)

// LoginScreenHandler renders the sign-in form with any banner carried in the query.
func LoginScreenHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		html.Render(w, r, log, http.StatusOK, GetLoginScreen(html.PageFor(r, "Sign in")))
	}
}
