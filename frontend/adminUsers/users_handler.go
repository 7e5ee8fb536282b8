package adminusers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/audit"
	"receiptstudio/infrastructure/cache"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/rbac"
	"receiptstudio/infrastructure/sqlite"
)

const usersPath = "/app/admin/users"

// UsersPageQueryHandler renders the admin users list page.
func UsersPageQueryHandler(db *sqlite.DB, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		users, err := LoadUsers(r.Context(), db)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		data := PageData{Users: users, Roles: rbac.Roles(), CurrentUserID: session.UserID}
		html.Render(w, r, log, http.StatusOK, UsersListPage(html.PageFor(r, "Users"), data))
	}
}

func CreateUserCommandHandler(db *sqlite.DB, auditSvc *audit.Service, userCache *cache.UserCache, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		if err := r.ParseForm(); err != nil {
			html.RedirectError(w, r, usersPath, "invalid form data")
			return
		}
		user, err := CreateUser(r.Context(), db, auditSvc, session.UserID,
			r.PostForm.Get("username"), r.PostForm.Get("password"), r.PostForm.Get("role"))
		if err != nil {
			html.RedirectError(w, r, usersPath, html.ErrorMessage(r, log, err, "failed to create user"))
			return
		}
		userCache.Delete(user.Username)
		html.RedirectStatus(w, r, usersPath, "Created "+user.Username)
	}
}

// UpdateUserCommandHandler changes a user's role or password and signs them out.
func UpdateUserCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sessionCache *cache.UserSessionCache, userCache *cache.UserCache, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		userID, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "userID")), 10, 64)
		if err != nil || userID <= 0 {
			html.RedirectError(w, r, usersPath, "invalid user")
			return
		}
		if err := r.ParseForm(); err != nil {
			html.RedirectError(w, r, usersPath, "invalid form data")
			return
		}
		user, err := UpdateUser(r.Context(), db, auditSvc, session.UserID, userID, r.PostForm.Get("role"), r.PostForm.Get("password"))
		if err != nil {
			html.RedirectError(w, r, usersPath, html.ErrorMessage(r, log, err, "failed to update user"))
			return
		}
		sessionCache.DeleteSessionsByUserID(userID)
		userCache.Delete(user.Username)
		html.RedirectStatus(w, r, usersPath, "Updated "+user.Username)
	}
}
