package html

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/frontend/shared/nav"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/validate"
)

// Render writes c as an HTML page with status.
func Render(w http.ResponseWriter, r *http.Request, log *logger.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil && log != nil {
		log.Error(r.Context(), "render page failed", err)
	}
}

// PageFor fills the page chrome from the request: nav for signed-in users and the
// status and error banners carried in the query string.
func PageFor(r *http.Request, title string) PageData {
	data := PageData{
		Title:  title,
		Status: r.URL.Query().Get("status"),
		Error:  r.URL.Query().Get("error"),
	}
	if s, ok := sessioncontext.GetSessionFromContext(r.Context()); ok {
		n := nav.BuildTopNavData(s, r.URL.Path)
		data.Nav = &n
	}
	return data
}

// RedirectStatus redirects to path with a success banner.
func RedirectStatus(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, withParam(path, "status", message), http.StatusSeeOther)
}

// RedirectError redirects to path with an error banner.
func RedirectError(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, withParam(path, "error", message), http.StatusSeeOther)
}

func withParam(path, key, value string) string {
	if value == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + key + "=" + url.QueryEscape(value)
}

// ErrorMessage turns err into a banner. Client errors keep their message; anything
// else is logged and replaced with fallback.
func ErrorMessage(r *http.Request, log *logger.Logger, err error, fallback string) string {
	typed := apperrors.As(err)
	if typed != nil && apperrors.MetadataFor(typed.Code()).HTTPStatus < http.StatusInternalServerError {
		if typed.Code() == apperrors.CodeValidation {
			return validate.FirstMessage(err)
		}
		return typed.Message()
	}
	if log != nil {
		log.Error(r.Context(), fallback, err)
	}
	return fallback
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	typed := apperrors.As(err)
	return typed != nil && typed.Code() == apperrors.CodeNotFound
}

// NotFound renders the 404 page.
func NotFound(w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := NewWriter(w)
		hw.Raw(`<section class="card"><h1>Not found</h1><p>The page you asked for does not exist or is not shared.</p></section>`)
		return hw.Err()
	})
	Render(w, r, log, http.StatusNotFound, Page(PageFor(r, "Not found"), body))
}

// Fail answers a page request that could not be served.
func Fail(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	if IsNotFound(err) {
		NotFound(w, r, log)
		return
	}
	if log != nil {
		log.Error(r.Context(), "request failed", err)
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
