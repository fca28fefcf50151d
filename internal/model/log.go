package model

import "time"

// ActivityLog is an append-only history entry for an item. Entries are never
// updated and are removed only when their item is deleted.
type ActivityLog struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
