package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/refurbhq/refurbd/internal/model"
)

// AppendLog adds an activity-log entry for an item. Entries are append-only.
func AppendLog(ctx context.Context, db *sql.DB, itemID, actor, action string) (*model.ActivityLog, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO activity_logs (item_id, actor, action) VALUES (?, ?, ?)`,
		itemID, actor, action,
	)
	if err != nil {
		return nil, fmt.Errorf("appending activity log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting activity log id: %w", err)
	}

	entry := &model.ActivityLog{}
	var actorScanned sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT id, item_id, actor, action, timestamp FROM activity_logs WHERE id = ?`, id,
	).Scan(&entry.ID, &entry.ItemID, &actorScanned, &entry.Action, &entry.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("getting activity log: %w", err)
	}
	entry.Actor = actorScanned.String
	return entry, nil
}

// ListLogs returns an item's activity log, newest first.
func ListLogs(ctx context.Context, db *sql.DB, itemID string, limit int) ([]model.ActivityLog, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, actor, action, timestamp FROM activity_logs
		 WHERE item_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		itemID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing activity logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ActivityLog
	for rows.Next() {
		var entry model.ActivityLog
		var actor sql.NullString
		if err := rows.Scan(&entry.ID, &entry.ItemID, &actor, &entry.Action, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning activity log: %w", err)
		}
		entry.Actor = actor.String
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// CountLogs returns the number of activity-log entries for an item.
func CountLogs(ctx context.Context, db *sql.DB, itemID string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_logs WHERE item_id = ?`, itemID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting activity logs: %w", err)
	}
	return count, nil
}
