package session

import (
	"net/http"
	"strings"
	"time"
)

const (
	CookieName = "X-Session-Token"
	DefaultTTL = 12 * time.Hour
)

// Policy controls session lifetime and cookie flags.
type Policy struct {
	TTL    time.Duration
	Secure bool
}

// NewPolicy marks cookies Secure when the app is served over https.
func NewPolicy(ttl time.Duration, publicBaseURL string) Policy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Policy{
		TTL:    ttl,
		Secure: strings.HasPrefix(strings.ToLower(strings.TrimSpace(publicBaseURL)), "https://"),
	}
}

func (p Policy) ttl() time.Duration {
	if p.TTL <= 0 {
		return DefaultTTL
	}
	return p.TTL
}

// Expiry returns when a session issued at now stops being valid.
func (p Policy) Expiry(now time.Time) time.Time {
	return now.Add(p.ttl())
}

// Cookie carries token for the lifetime of the session.
func (p Policy) Cookie(token string) *http.Cookie {
	return p.cookie(token, int(p.ttl().Seconds()))
}

// ClearCookie expires the session cookie in the browser.
func (p Policy) ClearCookie() *http.Cookie {
	return p.cookie("", -1)
}

func (p Policy) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   p.Secure,
	}
}

// Token returns the session token sent with r, or "".
func Token(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
