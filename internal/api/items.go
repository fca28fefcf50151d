package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/refurbhq/refurbd/internal/imaging"
	"github.com/refurbhq/refurbd/internal/model"
	"github.com/refurbhq/refurbd/internal/photos"
	"github.com/refurbhq/refurbd/internal/store"
)

// ItemsHandler handles item lifecycle endpoints.
type ItemsHandler struct {
	DB      *sql.DB
	Photos  *photos.Store
	BaseURL string
}

type itemRequest struct {
	Model        string `json:"model"`
	Serial       string `json:"serial"`
	Notes        string `json:"notes"`
	Status       string `json:"status"`
	Location     string `json:"location"`
	BuyerName    string `json:"buyer_name"`
	BuyerOrder   string `json:"buyer_order"`
	BuyerAddress string `json:"buyer_address"`
	ShipBy       string `json:"ship_by"`
	SpecsURL     string `json:"specs_url"`
}

type statusRequest struct {
	Status       string `json:"status"`
	ShipBy       string `json:"ship_by"`
	BuyerAddress string `json:"buyer_address"`
}

type logRequest struct {
	Actor  string `json:"actor"`
	Action string `json:"action"`
}

type deleteItemRequest struct {
	Confirm string `json:"confirm"`
}

// parseShipBy parses an optional YYYY-MM-DD ship-by date.
func parseShipBy(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid ship_by date (want YYYY-MM-DD)")
	}
	return &t, nil
}

// loadCompanyItem fetches an item and enforces company scope. Items outside
// the caller's company are reported as missing.
func (h *ItemsHandler) loadCompanyItem(w http.ResponseWriter, r *http.Request) *model.Item {
	user := GetIdentity(r.Context())
	id := r.PathValue("id")

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil
	}
	if item == nil || item.CompanyID != *user.CompanyID {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// List handles GET /api/items?q=&status=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())
	search := r.URL.Query().Get("q")
	status := r.URL.Query().Get("status")

	items, err := store.ListItems(r.Context(), h.DB, *user.CompanyID, search, status)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Model == "" {
		jsonError(w, http.StatusBadRequest, "model required")
		return
	}
	if req.Status == "" {
		req.Status = model.StatusReceived
	}
	if !model.ValidStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	shipBy, err := parseShipBy(req.ShipBy)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Status == model.StatusSold && (shipBy == nil || req.BuyerAddress == "") {
		jsonError(w, http.StatusConflict, "ship-by date and buyer address are required when marking as Sold")
		return
	}

	item := &model.Item{
		Model:        req.Model,
		Serial:       req.Serial,
		Notes:        req.Notes,
		Status:       req.Status,
		Location:     req.Location,
		BuyerName:    req.BuyerName,
		BuyerOrder:   req.BuyerOrder,
		BuyerAddress: req.BuyerAddress,
		ShipBy:       shipBy,
		SpecsURL:     req.SpecsURL,
		CompanyID:    *user.CompanyID,
	}

	created, err := store.CreateItem(r.Context(), h.DB, item, user.Username)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "user", user.Username, "item", created.Model, "id", created.ID)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/items/{id}: the item plus its recent activity log.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}

	logs, err := store.ListLogs(r.Context(), h.DB, item.ID, 50)
	if err != nil {
		slog.Error("failed to list activity logs", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list activity logs")
		return
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item": item,
		"logs": logs,
	})
}

// Update handles PUT /api/items/{id}: a full field-level edit.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Model == "" {
		jsonError(w, http.StatusBadRequest, "model required")
		return
	}
	if req.Status == "" {
		req.Status = item.Status
	}
	if !model.ValidStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	shipBy, err := parseShipBy(req.ShipBy)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Status == model.StatusSold && (shipBy == nil || req.BuyerAddress == "") {
		jsonError(w, http.StatusConflict, "ship-by date and buyer address are required when marking as Sold")
		return
	}

	oldStatus := item.Status
	item.Model = req.Model
	item.Serial = req.Serial
	item.Notes = req.Notes
	item.Status = req.Status
	item.Location = req.Location
	item.BuyerName = req.BuyerName
	item.BuyerOrder = req.BuyerOrder
	item.BuyerAddress = req.BuyerAddress
	item.ShipBy = shipBy
	item.SpecsURL = req.SpecsURL

	action := "Item updated"
	if oldStatus != item.Status {
		action = fmt.Sprintf("Status changed %s → %s", oldStatus, item.Status)
	}

	if err := store.UpdateItem(r.Context(), h.DB, item, user.Username, action); err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	slog.Info("item updated", "user", user.Username, "item", item.Model, "status", item.Status)
	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// ChangeStatus handles POST /api/items/{id}/status: the inline transition.
// Marking as Sold requires a ship-by date and a buyer address in the same
// request; all other transitions are unconditional. Succeeds with no content
// so callers refresh state themselves.
func (h *ItemsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.ValidStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	shipBy, err := parseShipBy(req.ShipBy)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Status == model.StatusSold && (shipBy == nil || req.BuyerAddress == "") {
		jsonError(w, http.StatusConflict, "ship-by date and buyer address are required when marking as Sold")
		return
	}

	action := fmt.Sprintf("Status changed %s → %s", item.Status, req.Status)
	if err := store.ChangeItemStatus(r.Context(), h.DB, item.ID, req.Status, shipBy, req.BuyerAddress, user.Username, action); err != nil {
		slog.Error("failed to change status", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to change status")
		return
	}

	slog.Info("item status changed", "user", user.Username, "item", item.Model, "from", item.Status, "to", req.Status)
	w.WriteHeader(http.StatusNoContent)
}

// AddLog handles POST /api/items/{id}/logs: a manual history entry.
func (h *ItemsHandler) AddLog(w http.ResponseWriter, r *http.Request) {
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}

	var req logRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Action == "" {
		jsonError(w, http.StatusBadRequest, "action required")
		return
	}
	if req.Actor == "" {
		req.Actor = "unknown"
	}

	entry, err := store.AppendLog(r.Context(), h.DB, item.ID, req.Actor, req.Action)
	if err != nil {
		slog.Error("failed to append activity log", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to append activity log")
		return
	}

	jsonResponse(w, http.StatusCreated, entry)
}

// Delete handles DELETE /api/items/{id} (admin only). The request must echo
// the item's model name as confirmation; a mismatch aborts with no mutation.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}

	var req deleteItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Confirm) != item.Model {
		jsonError(w, http.StatusConflict, "item name does not match, deletion cancelled")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", user.Username, "item", item.Model, "id", item.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadPhoto handles PUT /api/items/{id}/photo. The processed photo is
// stored as a new asset; a previous photo's file stays on disk.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user := GetIdentity(r.Context())
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	// Validate format by sniffing bytes, downscale, re-encode.
	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	proposed := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)) + ".jpg"
	name, err := h.Photos.Save(proposed, result.Data, time.Now())
	if err != nil {
		slog.Error("failed to store photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, item.ID, name, user.Username); err != nil {
		slog.Error("failed to attach photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to attach photo")
		return
	}

	slog.Info("item photo uploaded", "user", user.Username, "item", item.Model, "photo", name)
	jsonResponse(w, http.StatusOK, map[string]string{"photo": name})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}
	if item.PhotoFilename == "" {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	path, err := h.Photos.Path(item.PhotoFilename)
	if err != nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read photo", "error", err)
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// GetQR handles GET /api/items/{id}/qr: a QR code PNG pointing at the item's
// canonical lookup URL.
func (h *ItemsHandler) GetQR(w http.ResponseWriter, r *http.Request) {
	item := h.loadCompanyItem(w, r)
	if item == nil {
		return
	}

	url := strings.TrimRight(h.BaseURL, "/") + "/items/" + item.ID
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		slog.Error("failed to generate QR code", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
