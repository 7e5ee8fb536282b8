package login

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"receiptstudio/infrastructure/cache"
	"receiptstudio/infrastructure/logger"
	sessioncookie "receiptstudio/infrastructure/session"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/models"
)

// HomePath is where a successful login lands.
const HomePath = "/app/receipts"

// CreateLoginHandler authenticates the user and issues a session cookie.
func CreateLoginHandler(db *sqlite.DB, sessionCache *cache.UserSessionCache, userCache *cache.UserCache, policy sessioncookie.Policy, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/login?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		password := strings.TrimSpace(r.FormValue("password"))
		if username == "" || password == "" {
			http.Redirect(w, r, "/login?error="+url.QueryEscape("username and password are required"), http.StatusSeeOther)
			return
		}

		user, err := authenticateUser(r.Context(), db, username, password)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				log.Warn(log.WithField(r.Context(), "username", username), "login rejected")
				http.Redirect(w, r, "/login?error="+url.QueryEscape("invalid username or password"), http.StatusSeeOther)
				return
			}
			log.Error(r.Context(), "login failed", err)
			http.Redirect(w, r, "/login?error="+url.QueryEscape("authentication failed"), http.StatusSeeOther)
			return
		}

		session, err := newSession(user, policy.Expiry(time.Now()))
		if err != nil {
			log.Error(r.Context(), "issue session token failed", err)
			http.Redirect(w, r, "/login?error="+url.QueryEscape("failed to create session"), http.StatusSeeOther)
			return
		}
		if err := persistSession(r.Context(), db, session); err != nil {
			log.Error(r.Context(), "persist session failed", err)
			http.Redirect(w, r, "/login?error="+url.QueryEscape("failed to create session"), http.StatusSeeOther)
			return
		}

		sessionCache.AddSession(session)
		userCache.Add(user.Username, user)

		http.SetCookie(w, policy.Cookie(session.ID))
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
	}
}

func newSession(user models.User, expiresAt time.Time) (models.Session, error) {
	token, err := sessioncookie.NewSessionToken()
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{
		ID:        token,
		UserID:    user.ID,
		User:      user,
		UserRoles: []string{user.Role},
		ExpiresAt: expiresAt,
	}, nil
}
