package help

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/models"
)

func TestHelpPageShowsAdminSectionOnlyToAdmins(t *testing.T) {
	for _, tc := range []struct {
		role      string
		wantAdmin bool
	}{
		{"admin", true},
		{"cashier", false},
	} {
		session := models.Session{ID: "s", UserID: 1, User: models.User{ID: 1, Username: "u", Role: tc.role}, UserRoles: []string{tc.role}}
		r := httptest.NewRequest(http.MethodGet, "/app/help", nil)
		r = r.WithContext(sessioncontext.NewContextWithSession(r.Context(), session))
		w := httptest.NewRecorder()
		HelpPageQueryHandler(logger.Nop()).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.role, w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "How totals are worked out") {
			t.Fatalf("%s: missing totals section", tc.role)
		}
		if got := strings.Contains(body, "Administration"); got != tc.wantAdmin {
			t.Fatalf("%s: admin section shown=%v", tc.role, got)
		}
	}
}

func TestHelpPageRedirectsWithoutSession(t *testing.T) {
	w := httptest.NewRecorder()
	HelpPageQueryHandler(logger.Nop()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app/help", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
}
