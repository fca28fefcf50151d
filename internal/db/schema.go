package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS companies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    join_code  TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'Stocker' CHECK (role IN ('Admin', 'Stocker', 'Repair-Tech')),
    approved      INTEGER NOT NULL DEFAULT 0,
    company_id    TEXT REFERENCES companies(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id             TEXT PRIMARY KEY,
    model          TEXT NOT NULL,
    serial         TEXT,
    notes          TEXT,
    status         TEXT NOT NULL DEFAULT 'Received'
                   CHECK (status IN ('Received', 'Needs Repair', 'In Repair', 'Ready for Sale', 'Sold', 'Shipped')),
    location       TEXT,
    buyer_name     TEXT,
    buyer_order    TEXT,
    buyer_address  TEXT,
    ship_by        DATETIME,
    photo_filename TEXT,
    specs_url      TEXT,
    company_id     TEXT NOT NULL REFERENCES companies(id),
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_company_status ON items(company_id, status);

CREATE TABLE IF NOT EXISTS activity_logs (
    id        INTEGER PRIMARY KEY,
    item_id   TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    actor     TEXT,
    action    TEXT NOT NULL,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_item ON activity_logs(item_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
