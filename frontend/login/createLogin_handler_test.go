package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"receiptstudio/infrastructure/argon"
	"receiptstudio/infrastructure/cache"
	"receiptstudio/infrastructure/logger"
	sessioncookie "receiptstudio/infrastructure/session"
	"receiptstudio/infrastructure/sqlite"
)

func openLoginTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "login-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if _, err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func postLogin(h http.Handler, username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateLoginHandlerIssuesSession(t *testing.T) {
	db := openLoginTestDB(t)
	if err := UpsertUserPasswordHash(context.Background(), db, "cashier1", "cashier", "Cashier123!Pass"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	sessions := cache.NewUserSessionCache()
	policy := sessioncookie.NewPolicy(time.Hour, "http://localhost")
	h := CreateLoginHandler(db, sessions, cache.NewUserCache(), policy, logger.Nop())

	rec := postLogin(h, "Cashier1", "Cashier123!Pass")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != HomePath {
		t.Fatalf("expected redirect to %s, got %d %q", HomePath, rec.Code, rec.Header().Get("Location"))
	}
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessioncookie.CookieName {
			token = c.Value
			if c.MaxAge != 3600 {
				t.Fatalf("expected cookie max age from policy, got %d", c.MaxAge)
			}
		}
	}
	if token == "" {
		t.Fatalf("expected session cookie")
	}
	if _, ok := sessions.FindSessionBySessionToken(token); !ok {
		t.Fatalf("expected session cached")
	}
	loaded, err := LoadSessionByToken(context.Background(), db, token)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.User.Username != "cashier1" || loaded.UserRoles[0] != "cashier" {
		t.Fatalf("unexpected session user: %+v", loaded.User)
	}
}

func TestCreateLoginHandlerRejectsWrongPassword(t *testing.T) {
	db := openLoginTestDB(t)
	if err := UpsertUserPasswordHash(context.Background(), db, "cashier1", "cashier", "Cashier123!Pass"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	h := CreateLoginHandler(db, cache.NewUserSessionCache(), cache.NewUserCache(), sessioncookie.Policy{}, logger.Nop())

	rec := postLogin(h, "cashier1", "Wrong123!Password")
	if !strings.Contains(rec.Header().Get("Location"), "error=invalid+username+or+password") {
		t.Fatalf("expected invalid credentials redirect, got %q", rec.Header().Get("Location"))
	}
	rec = postLogin(h, "nobody", "Cashier123!Pass")
	if !strings.Contains(rec.Header().Get("Location"), "error=invalid+username+or+password") {
		t.Fatalf("unknown user must look like a wrong password, got %q", rec.Header().Get("Location"))
	}
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	db := openLoginTestDB(t)
	weak := &argon.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	hash, err := argon.CreateHash("Cashier123!Pass", weak)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (username, password_hash, role) VALUES ('old', ?, 'cashier')`, hash)
		return err
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := authenticateUser(context.Background(), db, "old", "Cashier123!Pass"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	var stored string
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT password_hash FROM users WHERE username = 'old'`).Scan(ctx, &stored)
	})
	if err != nil {
		t.Fatalf("load hash: %v", err)
	}
	if stored == hash || argon.NeedsRehash(stored, argon.DefaultParams) {
		t.Fatalf("expected hash upgraded to default params")
	}
}

func TestUpsertRejectsUnknownRole(t *testing.T) {
	db := openLoginTestDB(t)
	if err := UpsertUserPasswordHash(context.Background(), db, "x", "operator", "Cashier123!Pass"); err == nil {
		t.Fatalf("expected unknown role error")
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := openLoginTestDB(t)
	if err := UpsertUserPasswordHash(context.Background(), db, "cashier1", "cashier", "Cashier123!Pass"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	user, err := authenticateUser(context.Background(), db, "cashier1", "Cashier123!Pass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	now := time.Now()
	expired, err := newSession(user, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := persistSession(context.Background(), db, expired); err != nil {
		t.Fatalf("persist expired: %v", err)
	}
	live, err := newSession(user, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if live.ID == expired.ID {
		t.Fatalf("session tokens must differ")
	}
	if err := persistSession(context.Background(), db, live); err != nil {
		t.Fatalf("persist live: %v", err)
	}

	n, err := DeleteExpiredSessions(context.Background(), db, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired row removed, got %d", n)
	}
	if _, err := LoadSessionByToken(context.Background(), db, live.ID); err != nil {
		t.Fatalf("live session should remain: %v", err)
	}
}

func TestLoginScreenShowsBanners(t *testing.T) {
	h := LoginScreenHandler(logger.Nop())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login?error="+url.QueryEscape("invalid <username>"), nil))
	body := rr.Body.String()
	if rr.Code != http.StatusOK || !strings.Contains(body, "invalid &lt;username&gt;") || !strings.Contains(body, `action="/login"`) {
		t.Fatalf("expected escaped error banner on login form, got %d %s", rr.Code, body)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("login screen must not be cached")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login?status=Signed+out", nil))
	if !strings.Contains(rr.Body.String(), "Signed out") {
		t.Fatalf("expected status banner")
	}
}
