package login

import (
	"net/http"
	"net/url"

	"receiptstudio/infrastructure/cache"
	"receiptstudio/infrastructure/logger"
	sessioncookie "receiptstudio/infrastructure/session"
	"receiptstudio/infrastructure/sqlite"
)

// LogoutHandler removes session state and clears cookie.
func LogoutHandler(db *sqlite.DB, sessionCache *cache.UserSessionCache, policy sessioncookie.Policy, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessioncookie.Token(r); token != "" {
			sessionCache.DeleteSessionBySessionToken(token)
			if err := DeleteSessionByToken(r.Context(), db, token); err != nil {
				log.Error(r.Context(), "delete session failed", err)
			}
		}
		http.SetCookie(w, policy.ClearCookie())
		http.Redirect(w, r, "/login?status="+url.QueryEscape("Signed out"), http.StatusSeeOther)
	}
}
