package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/refurbhq/refurbd/internal/model"
)

const itemColumns = `id, model, serial, notes, status, location, buyer_name, buyer_order,
	buyer_address, ship_by, photo_filename, specs_url, company_id, created_at, updated_at`

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var serial, notes, location, buyerName, buyerOrder, buyerAddress, photo, specsURL sql.NullString
	var shipBy sql.NullTime
	err := s.Scan(&item.ID, &item.Model, &serial, &notes, &item.Status, &location,
		&buyerName, &buyerOrder, &buyerAddress, &shipBy, &photo, &specsURL,
		&item.CompanyID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Serial = serial.String
	item.Notes = notes.String
	item.Location = location.String
	item.BuyerName = buyerName.String
	item.BuyerOrder = buyerOrder.String
	item.BuyerAddress = buyerAddress.String
	item.PhotoFilename = photo.String
	item.SpecsURL = specsURL.String
	if shipBy.Valid {
		item.ShipBy = &shipBy.Time
	}
	return item, nil
}

// CreateItem creates an item bound to its company and appends the creation
// entry to its activity log, committing both together.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item, actor string) (*model.Item, error) {
	if item.Status == "" {
		item.Status = model.StatusReceived
	}

	id := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (id, model, serial, notes, status, location, buyer_name, buyer_order,
		                    buyer_address, ship_by, photo_filename, specs_url, company_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, item.Model, item.Serial, item.Notes, item.Status, item.Location,
		item.BuyerName, item.BuyerOrder, item.BuyerAddress, item.ShipBy,
		item.PhotoFilename, item.SpecsURL, item.CompanyID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_logs (item_id, actor, action) VALUES (?, ?, ?)`,
		id, actor, "Created item",
	)
	if err != nil {
		return nil, fmt.Errorf("logging item creation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item creation: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns a company's items, newest first, optionally narrowed by a
// free-text search over model, serial, and buyer name, and by status.
// Capped at 200 rows.
func ListItems(ctx context.Context, db *sql.DB, companyID, search, status string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE company_id = ?`
	args := []any{companyID}

	if search != "" {
		pattern := "%" + search + "%"
		query += ` AND (model LIKE ? OR serial LIKE ? OR buyer_name LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem applies a full field update and appends the given activity-log
// entry, committing both together. The updated timestamp is refreshed.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item, actor, action string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET model = ?, serial = ?, notes = ?, status = ?, location = ?,
		        buyer_name = ?, buyer_order = ?, buyer_address = ?, ship_by = ?,
		        specs_url = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.Model, item.Serial, item.Notes, item.Status, item.Location,
		item.BuyerName, item.BuyerOrder, item.BuyerAddress, item.ShipBy,
		item.SpecsURL, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_logs (item_id, actor, action) VALUES (?, ?, ?)`,
		item.ID, actor, action,
	)
	if err != nil {
		return fmt.Errorf("logging item update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item update: %w", err)
	}
	return nil
}

// ChangeItemStatus updates an item's status (and ship-by date and buyer
// address when provided) and appends the transition log entry, committing
// both together.
func ChangeItemStatus(ctx context.Context, db *sql.DB, id, status string, shipBy *time.Time, buyerAddress, actor, action string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if shipBy != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET status = ?, ship_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, shipBy, id,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, id,
		)
	}
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}

	if buyerAddress != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET buyer_address = ? WHERE id = ?`,
			buyerAddress, id,
		)
		if err != nil {
			return fmt.Errorf("updating buyer address: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_logs (item_id, actor, action) VALUES (?, ?, ?)`,
		id, actor, action,
	)
	if err != nil {
		return fmt.Errorf("logging status change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing status change: %w", err)
	}
	return nil
}

// SetItemPhoto attaches a stored photo reference to an item and appends the
// activity-log entry, committing both together. A replaced reference does not
// remove the previous asset file.
func SetItemPhoto(ctx context.Context, db *sql.DB, id, filename, actor string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET photo_filename = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		filename, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_logs (item_id, actor, action) VALUES (?, ?, ?)`,
		id, actor, "Photo updated",
	)
	if err != nil {
		return fmt.Errorf("logging photo update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing photo update: %w", err)
	}
	return nil
}

// DeleteItem hard-deletes an item; its activity log cascades.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// DeleteItems hard-deletes a batch of items in a single transaction.
// Activity logs cascade.
func DeleteItems(ctx context.Context, db *sql.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting item %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch delete: %w", err)
	}
	return nil
}

// CountItemsByStatus returns a company's item count per status. Statuses with
// no items map to zero.
func CountItemsByStatus(ctx context.Context, db *sql.DB, companyID string) (map[string]int, error) {
	counts := make(map[string]int, len(model.Statuses))
	for _, s := range model.Statuses {
		counts[s] = 0
	}

	rows, err := db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM items WHERE company_id = ? GROUP BY status`, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting items by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// ListUpcomingShipments returns a company's items with a ship-by date on or
// after the given day, soonest first.
func ListUpcomingShipments(ctx context.Context, db *sql.DB, companyID string, from time.Time, limit int) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE company_id = ? AND ship_by IS NOT NULL AND ship_by >= ?
		 ORDER BY ship_by LIMIT ?`,
		companyID, from, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing upcoming shipments: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListShippedBefore returns items in the Shipped status whose last update is
// at or before the cutoff, across all companies. Used by the archival job.
func ListShippedBefore(ctx context.Context, db *sql.DB, cutoff time.Time) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE status = ? AND updated_at <= ?
		 ORDER BY updated_at`,
		model.StatusShipped, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("listing shipped items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
