package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/refurbhq/refurbd/internal/model"
	"github.com/refurbhq/refurbd/internal/store"
)

// CompaniesHandler handles company enrollment and user approval (admin only).
type CompaniesHandler struct {
	DB *sql.DB
}

type createCompanyRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/companies. The creating admin is bound to the new
// company.
func (h *CompaniesHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())

	var req createCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "company name required")
		return
	}

	company, err := store.CreateCompanyWithAdmin(r.Context(), h.DB, name, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			jsonError(w, http.StatusConflict, "company name already exists")
			return
		}
		slog.Error("failed to create company", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create company")
		return
	}

	slog.Info("company created", "user", user.Username, "company", company.Name)
	jsonResponse(w, http.StatusCreated, company)
}

// Current handles GET /api/companies/current: the admin's own company,
// including the join code to share with new users.
func (h *CompaniesHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())

	company, err := store.GetCompany(r.Context(), h.DB, *user.CompanyID)
	if err != nil {
		slog.Error("failed to get company", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get company")
		return
	}
	if company == nil {
		jsonError(w, http.StatusNotFound, "company not found")
		return
	}

	jsonResponse(w, http.StatusOK, company)
}

// PendingUsers handles GET /api/users/pending: unapproved users in the
// admin's company.
func (h *CompaniesHandler) PendingUsers(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())

	pending, err := store.ListPendingUsers(r.Context(), h.DB, *user.CompanyID)
	if err != nil {
		slog.Error("failed to list pending users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list pending users")
		return
	}
	if pending == nil {
		pending = []model.User{}
	}
	jsonResponse(w, http.StatusOK, pending)
}

// ApproveUser handles POST /api/users/{id}/approve. Admins may only approve
// users within their own company; anyone else looks like a missing user.
func (h *CompaniesHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())
	id := r.PathValue("id")

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if target == nil || target.CompanyID == nil || *target.CompanyID != *user.CompanyID {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.ApproveUser(r.Context(), h.DB, target.ID); err != nil {
		slog.Error("failed to approve user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to approve user")
		return
	}

	slog.Info("user approved", "user", user.Username, "approved_user", target.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user approved"})
}
