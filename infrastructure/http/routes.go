package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminusers "receiptstudio/frontend/adminUsers"
	"receiptstudio/frontend/designer"
	"receiptstudio/frontend/help"
	exportspage "receiptstudio/frontend/exports"
	"receiptstudio/frontend/login"
	"receiptstudio/frontend/menu"
	"receiptstudio/infrastructure/rbac"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.LoginScreenHandler(s.Log))
	s.router.With(s.loginLimiter.Middleware).Post("/login", login.CreateLoginHandler(s.DB, s.SessionCache, s.UserCache, s.Policy, s.Log))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache, s.Policy, s.Log))
}

// RegisterPublicRoutes registers the gallery and share links, which need no session.
func (s *Server) RegisterPublicRoutes() {
	s.router.Get("/gallery", s.Receipts.GalleryHandler())
	s.router.Route("/share/{id}", func(r chi.Router) {
		r.Use(s.shareLimiter.Middleware)
		r.Get("/", s.Receipts.ShareHandler())
		r.Get("/receipt.png", s.Receipts.ShareImageHandler())
		r.Get("/qr.png", s.Receipts.ShareQRHandler())
	})
}

// RegisterAdminRoutes registers admin-only routes.
func (s *Server) RegisterAdminRoutes(r chi.Router) chi.Router {
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_LIST_VIEW", http.MethodGet, "/app/admin/users")
	r.Get("/admin/users", adminusers.UsersPageQueryHandler(s.DB, s.Log))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_CREATE", http.MethodPost, "/app/admin/users")
	r.Post("/admin/users", adminusers.CreateUserCommandHandler(s.DB, s.Audit, s.UserCache, s.Log))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_EDIT", http.MethodPost, "/app/admin/users/*")
	r.Post("/admin/users/{userID}", adminusers.UpdateUserCommandHandler(s.DB, s.Audit, s.SessionCache, s.UserCache, s.Log))
	return r
}

// RegisterFrontendRoutes registers authenticated routes. Both roles share them;
// ownership is checked by the handlers.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.RegisterReceiptRoutes(r)
	s.RegisterTemplateRoutes(r)
	s.RegisterExportRoutes(r)

	s.Rbac.AddAll(rbac.Roles(), "HELP_VIEW", http.MethodGet, "/app/help")
	r.Get("/help", help.HelpPageQueryHandler(s.Log))
	return r
}

func (s *Server) RegisterReceiptRoutes(r chi.Router) {
	roles := rbac.Roles()
	h := s.Receipts

	s.Rbac.AddAll(roles, "RECEIPTS_LIST_VIEW", http.MethodGet, "/app/receipts")
	r.Get("/receipts", h.ListHandler())
	s.Rbac.AddAll(roles, "RECEIPTS_CREATE", http.MethodPost, "/app/receipts")
	r.Post("/receipts", h.CreateHandler())
	s.Rbac.AddAll(roles, "RECEIPTS_VIEW", http.MethodGet, "/app/receipts/*")
	r.Get("/receipts/new", h.NewFormHandler())
	r.Get("/receipts/{id}", h.ViewHandler())
	r.Get("/receipts/{id}/edit", h.EditFormHandler())
	r.Get("/receipts/{id}/receipt.png", h.ImageHandler())
	r.Get("/receipts/{id}/receipt.pdf", h.PDFHandler())
	r.Get("/receipts/{id}/qr.png", h.QRHandler())

	s.Rbac.AddAll(roles, "RECEIPTS_EDIT", http.MethodPost, "/app/receipts/*")
	r.Post("/receipts/{id}", h.UpdateHandler())
	r.Post("/receipts/{id}/delete", h.DeleteHandler())
	r.Post("/receipts/{id}/visibility", h.VisibilityHandler())
	r.Post("/receipts/{id}/items/{itemID}/delete", h.DeleteItemHandler())
	r.Post("/receipts/{id}/menu-items/{menuItemID}", h.AppendMenuItemHandler())

	s.Rbac.AddAll(roles, "RECEIPTS_PREVIEW", http.MethodPost, "/app/api/receipts/preview")
	r.Post("/api/receipts/preview", h.PreviewAPIHandler())
}

func (s *Server) RegisterTemplateRoutes(r chi.Router) {
	roles := rbac.Roles()

	s.Rbac.AddAll(roles, "TEMPLATES_LIST_VIEW", http.MethodGet, "/app/templates")
	r.Get("/templates", designer.TemplatesPageQueryHandler(s.DB, s.Log))
	s.Rbac.AddAll(roles, "TEMPLATES_CREATE", http.MethodPost, "/app/templates")
	r.Post("/templates", designer.CreateTemplateCommandHandler(s.DB, s.Audit, s.Log))
	s.Rbac.AddAll(roles, "TEMPLATES_VIEW", http.MethodGet, "/app/templates/*")
	r.Get("/templates/new", designer.NewTemplateScreenHandler(s.Log))
	r.Get("/templates/{id}/edit", designer.EditTemplateScreenHandler(s.DB, s.Log))
	s.Rbac.AddAll(roles, "TEMPLATES_EDIT", http.MethodPost, "/app/templates/*")
	r.Post("/templates/{id}", designer.UpdateTemplateCommandHandler(s.DB, s.Audit, s.Log))
	r.Post("/templates/{id}/delete", designer.DeleteTemplateCommandHandler(s.DB, s.Audit, s.Log))
	r.Post("/templates/{id}/duplicate", designer.DuplicateTemplateCommandHandler(s.DB, s.Audit, s.Log))

	r.Get("/templates/{id}/menu", menu.MenuPageQueryHandler(s.DB, s.Log))
	r.Get("/templates/{id}/menu.csv", menu.ExportMenuCSVHandler(s.DB, s.Log))
	r.Post("/templates/{id}/menu", menu.CreateMenuItemCommandHandler(s.DB, s.Audit, s.Log))
	r.Post("/templates/{id}/menu/import", menu.ImportMenuCommandHandler(s.DB, s.Audit, s.Log))
	r.Post("/templates/{id}/menu/{itemID}", menu.UpdateMenuItemCommandHandler(s.DB, s.Audit, s.Log))
	r.Post("/templates/{id}/menu/{itemID}/toggle", menu.ToggleMenuItemCommandHandler(s.DB, s.Audit, s.Log))
	r.Post("/templates/{id}/menu/{itemID}/delete", menu.DeleteMenuItemCommandHandler(s.DB, s.Audit, s.Log))

	s.Rbac.AddAll(roles, "MENU_SEARCH", http.MethodGet, "/app/api/templates/*/menu")
	r.Get("/api/templates/{id}/menu", menu.SearchMenuAPIHandler(s.DB, s.Log))
}

func (s *Server) RegisterExportRoutes(r chi.Router) {
	s.Rbac.AddAll(rbac.Roles(), "EXPORT_RECEIPTS", http.MethodGet, "/app/exports/receipts.csv")
	r.Get("/exports/receipts.csv", exportspage.ReceiptsExportCSVHandler(s.DB, s.Log))
}
