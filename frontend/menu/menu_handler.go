package menu

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/audit"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/format"
	"receiptstudio/infrastructure/http/responses"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
)

func menuPath(templateID string) string {
	return "/app/templates/" + templateID + "/menu"
}

// MenuPageQueryHandler renders a template's menu with search and category filter.
func MenuPageQueryHandler(db *sqlite.DB, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := sessioncontext.ViewerFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		templateID := chi.URLParam(r, "id")
		tpl, err := templates.LoadAccessible(r.Context(), db, templateID, v)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		filter := Filter{
			Search:   strings.TrimSpace(r.URL.Query().Get("q")),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
		}
		items, err := List(r.Context(), db, v, templateID, filter)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		categories, err := Categories(r.Context(), db, templateID)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		data := PageData{
			TemplateID:   tpl.ID,
			TemplateName: tpl.Name,
			CanModify:    templates.CanModify(tpl, v),
			Filter:       filter,
			Categories:   categories,
			Items:        items,
		}
		html.Render(w, r, log, http.StatusOK, MenuPage(html.PageFor(r, "Menu · "+tpl.Name), data))
	}
}

func parseItemForm(r *http.Request) (ItemInput, error) {
	if err := r.ParseForm(); err != nil {
		return ItemInput{}, apperrors.Wrap(apperrors.CodeValidation, err, "invalid form data")
	}
	price, err := format.ParseAmount(r.FormValue("price"))
	if err != nil {
		return ItemInput{}, apperrors.New(apperrors.CodeValidation, "price must be a number")
	}
	return ItemInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		IsActive:    r.FormValue("is_active") != "",
	}, nil
}

func CreateMenuItemCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		templateID := chi.URLParam(r, "id")
		in, err := parseItemForm(r)
		if err == nil {
			_, err = Create(r.Context(), db, auditSvc, v, templateID, in)
		}
		if err != nil {
			html.RedirectError(w, r, menuPath(templateID), html.ErrorMessage(r, log, err, "failed to add menu item"))
			return
		}
		html.RedirectStatus(w, r, menuPath(templateID), "Added "+strings.TrimSpace(in.Name))
	}
}

func UpdateMenuItemCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		templateID := chi.URLParam(r, "id")
		in, err := parseItemForm(r)
		if err == nil {
			_, err = Update(r.Context(), db, auditSvc, v, templateID, chi.URLParam(r, "itemID"), in)
		}
		if err != nil {
			html.RedirectError(w, r, menuPath(templateID), html.ErrorMessage(r, log, err, "failed to update menu item"))
			return
		}
		html.RedirectStatus(w, r, menuPath(templateID), "Saved "+strings.TrimSpace(in.Name))
	}
}

func ToggleMenuItemCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		templateID := chi.URLParam(r, "id")
		item, err := ToggleActive(r.Context(), db, auditSvc, v, templateID, chi.URLParam(r, "itemID"))
		if err != nil {
			html.RedirectError(w, r, menuPath(templateID), html.ErrorMessage(r, log, err, "failed to update menu item"))
			return
		}
		state := "deactivated"
		if item.IsActive {
			state = "activated"
		}
		html.RedirectStatus(w, r, menuPath(templateID), fmt.Sprintf("%s %s", item.Name, state))
	}
}

func DeleteMenuItemCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		templateID := chi.URLParam(r, "id")
		if err := Delete(r.Context(), db, auditSvc, v, templateID, chi.URLParam(r, "itemID")); err != nil {
			html.RedirectError(w, r, menuPath(templateID), html.ErrorMessage(r, log, err, "failed to delete menu item"))
			return
		}
		html.RedirectStatus(w, r, menuPath(templateID), "Menu item deleted")
	}
}

func ImportMenuCommandHandler(db *sqlite.DB, auditSvc *audit.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		templateID := chi.URLParam(r, "id")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			html.RedirectError(w, r, menuPath(templateID), "invalid upload")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			html.RedirectError(w, r, menuPath(templateID), "file is required")
			return
		}
		defer file.Close()

		summary, err := ImportCSV(r.Context(), db, auditSvc, v, templateID, file)
		if err != nil {
			html.RedirectError(w, r, menuPath(templateID), html.ErrorMessage(r, log, err, "failed to import menu"))
			return
		}
		status := fmt.Sprintf("Imported: %d inserted, %d updated, %d errors", summary.Inserted, summary.Updated, summary.Errors)
		html.RedirectStatus(w, r, menuPath(templateID), status)
	}
}

// ExportMenuCSVHandler downloads the whole menu in the import format.
func ExportMenuCSVHandler(db *sqlite.DB, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		templateID := chi.URLParam(r, "id")
		items, err := List(r.Context(), db, v, templateID, Filter{})
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="menu.csv"`)
		if err := WriteCSV(w, items); err != nil {
			log.Error(r.Context(), "write menu csv failed", err)
		}
	}
}

// SearchMenuAPIHandler returns active menu items as JSON for the receipt form.
func SearchMenuAPIHandler(db *sqlite.DB, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _ := sessioncontext.ViewerFromContext(r.Context())
		items, err := SearchActive(r.Context(), db, v, chi.URLParam(r, "id"), r.URL.Query().Get("q"), 50)
		if err != nil {
			responses.WriteError(r.Context(), w, log, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, ToPicker(items))
	}
}
