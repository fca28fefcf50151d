package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/refurbhq/refurbd/internal/archive"
)

// ArchiveHandler exposes the shipped-item archival job (admin only).
type ArchiveHandler struct {
	DB       *sql.DB
	Archiver *archive.Archiver
}

// CompressShipped handles POST /api/archive/shipped: serializes long-shipped
// items to a dated snapshot file and removes them from the live store.
func (h *ArchiveHandler) CompressShipped(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())

	count, filename, err := h.Archiver.CompressShipped(r.Context(), h.DB, time.Now())
	if err != nil {
		slog.Error("archival job failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "archival job failed")
		return
	}

	if count == 0 {
		jsonResponse(w, http.StatusOK, map[string]any{
			"archived": 0,
			"message":  "no shipped items older than 30 days to archive",
		})
		return
	}

	slog.Info("shipped items archived", "user", user.Username, "count", count, "file", filename)
	jsonResponse(w, http.StatusOK, map[string]any{
		"archived": count,
		"file":     filename,
	})
}
