package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllowsBurstThenRejects(t *testing.T) {
	l := New(PerMinute(2))
	t.Cleanup(l.Close)

	if !l.Allow("1.2.3.4") || !l.Allow("1.2.3.4") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("expected third request to be rejected")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatalf("expected separate key to have its own bucket")
	}
}

func TestLimiterCleanupDropsStaleKeys(t *testing.T) {
	l := New(PerMinute(5))
	t.Cleanup(l.Close)

	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", l.Len())
	}
	l.cleanup(time.Now().Add(time.Hour))
	if l.Len() != 0 {
		t.Fatalf("expected stale keys removed, got %d", l.Len())
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	l := New(PerMinute(1))
	t.Cleanup(l.Close)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:1234"
	if got := ClientIP(req); got != "192.168.1.10" {
		t.Fatalf("unexpected ip %q", got)
	}
	req.RemoteAddr = "garbage"
	if got := ClientIP(req); got != "garbage" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
