// Package archive moves old shipped items out of the live store into dated
// JSON snapshot files.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/refurbhq/refurbd/internal/model"
	"github.com/refurbhq/refurbd/internal/store"
)

// RetentionPeriod is how long a shipped item stays in the live store before
// it becomes eligible for archival.
const RetentionPeriod = 30 * 24 * time.Hour

// snapshotVersion identifies the archived document layout. Bump it when the
// field mapping below changes.
const snapshotVersion = 1

// archivedItem is the explicit snapshot mapping of an item. The field list is
// fixed here so the archive format does not depend on internal struct
// ordering; dates are rendered as ISO-8601 strings.
type archivedItem struct {
	SnapshotVersion int    `json:"snapshot_version"`
	ID              string `json:"id"`
	Model           string `json:"model"`
	Serial          string `json:"serial"`
	Notes           string `json:"notes"`
	Status          string `json:"status"`
	Location        string `json:"location"`
	BuyerName       string `json:"buyer_name"`
	BuyerOrder      string `json:"buyer_order"`
	BuyerAddress    string `json:"buyer_address"`
	ShipBy          string `json:"ship_by"`
	PhotoFilename   string `json:"photo_filename"`
	SpecsURL        string `json:"specs_url"`
	CompanyID       string `json:"company_id"`
	CompanyName     string `json:"company_name"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func snapshotItem(item model.Item, companyName string) archivedItem {
	shipBy := ""
	if item.ShipBy != nil {
		shipBy = item.ShipBy.UTC().Format("2006-01-02")
	}
	return archivedItem{
		SnapshotVersion: snapshotVersion,
		ID:              item.ID,
		Model:           item.Model,
		Serial:          item.Serial,
		Notes:           item.Notes,
		Status:          item.Status,
		Location:        item.Location,
		BuyerName:       item.BuyerName,
		BuyerOrder:      item.BuyerOrder,
		BuyerAddress:    item.BuyerAddress,
		ShipBy:          shipBy,
		PhotoFilename:   item.PhotoFilename,
		SpecsURL:        item.SpecsURL,
		CompanyID:       item.CompanyID,
		CompanyName:     companyName,
		CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Archiver writes snapshot files into a directory.
type Archiver struct {
	Dir string
}

// CompressShipped archives every item that has been in the Shipped status for
// longer than the retention period: it serializes them to a dated snapshot
// file, then deletes them from the live store in one committed batch.
// Returns the number of archived items and the snapshot path, or (0, "") when
// nothing qualifies.
//
// The write-then-delete pair is not atomic. If the process dies after the
// file is written but before the delete commits, re-running the job
// re-archives the surviving rows; same-day re-runs overwrite the same
// snapshot file, which keeps double-counting bounded.
func (a *Archiver) CompressShipped(ctx context.Context, db *sql.DB, now time.Time) (int, string, error) {
	cutoff := now.Add(-RetentionPeriod)

	items, err := store.ListShippedBefore(ctx, db, cutoff)
	if err != nil {
		return 0, "", err
	}
	if len(items) == 0 {
		return 0, "", nil
	}

	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return 0, "", fmt.Errorf("creating archive directory: %w", err)
	}

	// Resolve company names once per company.
	names := make(map[string]string)
	docs := make([]archivedItem, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		name, ok := names[item.CompanyID]
		if !ok {
			company, err := store.GetCompany(ctx, db, item.CompanyID)
			if err != nil {
				return 0, "", err
			}
			if company != nil {
				name = company.Name
			}
			names[item.CompanyID] = name
		}
		docs = append(docs, snapshotItem(item, name))
		ids = append(ids, item.ID)
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return 0, "", fmt.Errorf("encoding snapshot: %w", err)
	}

	filename := filepath.Join(a.Dir, "shipped_"+now.UTC().Format("20060102")+".json")
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return 0, "", fmt.Errorf("writing snapshot %s: %w", filename, err)
	}

	if err := store.DeleteItems(ctx, db, ids); err != nil {
		return 0, "", err
	}

	return len(items), filename, nil
}
