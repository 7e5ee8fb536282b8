package http

import (
	"net/http"
	"strings"

	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/http/responses"
	sessioncookie "receiptstudio/infrastructure/session"
)

var errCSRF = apperrors.New(apperrors.CodeForbidden, "invalid csrf token")

// CSRFMiddleware issues the double-submit cookie and checks it on state-changing requests.
func (s *Server) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessioncookie.CSRFToken(r)
		if token == "" {
			fresh, err := sessioncookie.NewCSRFToken()
			if err != nil {
				s.Log.Error(r.Context(), "issue csrf token", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			token = fresh
			http.SetCookie(w, s.Policy.CSRFCookie(token))
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		if sessioncookie.CSRFMatches(token, sessioncookie.SubmittedCSRF(r)) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := s.Log.WithFields(r.Context(), map[string]any{"path": r.URL.Path, "method": r.Method})
		s.Log.Warn(ctx, "csrf token rejected")
		if wantsJSON(r) {
			responses.WriteError(ctx, w, s.Log, errCSRF)
			return
		}
		http.Error(w, errCSRF.Message(), http.StatusForbidden)
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
