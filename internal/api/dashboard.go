package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/refurbhq/refurbd/internal/model"
	"github.com/refurbhq/refurbd/internal/store"
)

// DashboardHandler serves the company overview.
type DashboardHandler struct {
	DB *sql.DB
}

// Overview handles GET /api/dashboard: per-status item counts and the next
// upcoming shipments, scoped to the caller's company.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())

	counts, err := store.CountItemsByStatus(r.Context(), h.DB, *user.CompanyID)
	if err != nil {
		slog.Error("failed to count items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to count items")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	upcoming, err := store.ListUpcomingShipments(r.Context(), h.DB, *user.CompanyID, today, 10)
	if err != nil {
		slog.Error("failed to list upcoming shipments", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list upcoming shipments")
		return
	}
	if upcoming == nil {
		upcoming = []model.Item{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"counts":   counts,
		"upcoming": upcoming,
	})
}
