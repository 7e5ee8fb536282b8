package designer

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/audit"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/models"
)

const listPath = "/app/templates"

func editPath(id string) string {
	return listPath + "/" + url.PathEscape(id) + "/edit"
}

func TemplatesPageQueryHandler(db *sqlite.DB, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := sessioncontext.ViewerFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		tpls, err := templates.List(r.Context(), db, v)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		data := ListPageData{Templates: make([]ListRow, 0, len(tpls))}
		for _, t := range tpls {
			data.Templates = append(data.Templates, ListRow{
				Template:  t,
				Owned:     t.CreatedBy == v.UserID,
				CanModify: templates.CanModify(t, v),
			})
		}
		html.Render(w, r, log, http.StatusOK, ListPage(html.PageFor(r, "Templates"), data))
	}
}

func NewTemplateScreenHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		t := templates.NewTemplate("", v.UserID)
		data := FormPageData{Template: t, CanModify: true, Preview: SamplePreview(t, time.Now())}
		html.Render(w, r, log, http.StatusOK, FormPage(html.PageFor(r, "New template"), data))
	}
}

func parseForm(r *http.Request, base models.Template) (models.Template, error) {
	if err := r.ParseForm(); err != nil {
		return base, apperrors.Wrap(apperrors.CodeValidation, err, "invalid form data")
	}
	return applyForm(base, r.PostForm)
}

func CreateTemplateCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		t, err := parseForm(r, templates.NewTemplate("", v.UserID))
		if err == nil {
			t, err = templates.Create(r.Context(), db, auditSvc, v.UserID, t)
		}
		if err != nil {
			html.RedirectError(w, r, listPath+"/new", html.ErrorMessage(r, log, err, "failed to create template"))
			return
		}
		html.RedirectStatus(w, r, editPath(t.ID), "Template created")
	}
}

// EditTemplateScreenHandler shows the designer. Templates the user may use but not
// change open read-only.
func EditTemplateScreenHandler(db *sqlite.DB, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		t, err := templates.LoadAccessible(r.Context(), db, chi.URLParam(r, "id"), v)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		data := FormPageData{Template: t, CanModify: templates.CanModify(t, v), Preview: SamplePreview(t, time.Now())}
		html.Render(w, r, log, http.StatusOK, FormPage(html.PageFor(r, "Template · "+t.Name), data))
	}
}

func UpdateTemplateCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		id := chi.URLParam(r, "id")
		current, err := templates.LoadAccessible(r.Context(), db, id, v)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		t, err := parseForm(r, current)
		if err == nil {
			_, err = templates.Update(r.Context(), db, auditSvc, v, t)
		}
		if err != nil {
			html.RedirectError(w, r, editPath(id), html.ErrorMessage(r, log, err, "failed to save template"))
			return
		}
		html.RedirectStatus(w, r, editPath(id), "Template saved")
	}
}

func DeleteTemplateCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		id := chi.URLParam(r, "id")
		if err := templates.Delete(r.Context(), db, auditSvc, v, id); err != nil {
			html.RedirectError(w, r, listPath, html.ErrorMessage(r, log, err, "failed to delete template"))
			return
		}
		html.RedirectStatus(w, r, listPath, "Template deleted")
	}
}

func DuplicateTemplateCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		dup, err := templates.Duplicate(r.Context(), db, auditSvc, v, chi.URLParam(r, "id"))
		if err != nil {
			html.RedirectError(w, r, listPath, html.ErrorMessage(r, log, err, "failed to duplicate template"))
			return
		}
		html.RedirectStatus(w, r, editPath(dup.ID), "Created "+dup.Name)
	}
}
