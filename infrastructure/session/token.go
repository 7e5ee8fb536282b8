package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// CSRFCookieName holds the double-submit token. Scripts read it, so it is not HttpOnly.
	CSRFCookieName = "receiptstudio_csrf"
	CSRFHeader     = "X-CSRF-Token"
	CSRFField      = "_csrf"

	sessionTokenBytes = 24
	csrfTokenBytes    = 32
)

// NewToken returns n random bytes encoded for use in a cookie.
func NewToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSessionToken returns an opaque session id.
func NewSessionToken() (string, error) {
	return NewToken(sessionTokenBytes)
}

// NewCSRFToken returns a fresh double-submit token.
func NewCSRFToken() (string, error) {
	return NewToken(csrfTokenBytes)
}

// CSRFCookie carries token for the browser session. Secure follows the policy.
func (p Policy) CSRFCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Secure:   p.Secure,
	}
}

// CSRFToken returns the token stored in the request cookie, or "".
func CSRFToken(r *http.Request) string {
	c, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// SubmittedCSRF returns the token a client echoed back, header first.
func SubmittedCSRF(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(CSRFHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.FormValue(CSRFField))
}

// CSRFMatches compares the cookie token with the submitted one in constant time.
func CSRFMatches(expected, submitted string) bool {
	if expected == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}
