package api

import (
	"database/sql"
	"net/http"

	"github.com/refurbhq/refurbd/internal/archive"
	"github.com/refurbhq/refurbd/internal/model"
	"github.com/refurbhq/refurbd/internal/photos"
)

// NewRouter creates the API router with all endpoints registered.
//
// Guards compose in order: authentication (and approval) first, then role,
// then company membership; handlers addressing a specific record enforce
// company scope last.
func NewRouter(db *sql.DB, jwtSecret string, photoStore *photos.Store, archiver *archive.Archiver, baseURL string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	companiesHandler := &CompaniesHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Photos: photoStore, BaseURL: baseURL}
	dashboardHandler := &DashboardHandler{DB: db}
	archiveHandler := &ArchiveHandler{DB: db, Archiver: archiver}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	protected := func(h http.HandlerFunc) http.Handler {
		return authMW(RequireCompany(h))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authMW(requireAdmin(RequireCompany(h)))
	}

	// Public: enrollment and login.
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Company creation needs no membership yet, only the admin role.
	mux.Handle("POST /api/companies", authMW(requireAdmin(http.HandlerFunc(companiesHandler.Create))))
	mux.Handle("GET /api/companies/current", adminOnly(companiesHandler.Current))

	// User approval (admin, own company).
	mux.Handle("GET /api/users/pending", adminOnly(companiesHandler.PendingUsers))
	mux.Handle("POST /api/users/{id}/approve", adminOnly(companiesHandler.ApproveUser))

	// Dashboard.
	mux.Handle("GET /api/dashboard", protected(dashboardHandler.Overview))

	// Items.
	mux.Handle("GET /api/items", protected(itemsHandler.List))
	mux.Handle("POST /api/items", protected(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", protected(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", protected(itemsHandler.Update))
	mux.Handle("POST /api/items/{id}/status", protected(itemsHandler.ChangeStatus))
	mux.Handle("POST /api/items/{id}/logs", protected(itemsHandler.AddLog))
	mux.Handle("DELETE /api/items/{id}", adminOnly(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/photo", protected(itemsHandler.UploadPhoto))
	mux.Handle("GET /api/items/{id}/photo", protected(itemsHandler.GetPhoto))
	mux.Handle("GET /api/items/{id}/qr", protected(itemsHandler.GetQR))

	// Archival job (admin).
	mux.Handle("POST /api/archive/shipped", adminOnly(archiveHandler.CompressShipped))

	return mux
}
