package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id                         INTEGER PRIMARY KEY,
    name                       TEXT NOT NULL,
    email                      TEXT NOT NULL UNIQUE,
    number                     TEXT NOT NULL DEFAULT '',
    role                       TEXT NOT NULL DEFAULT 'manager' CHECK (role IN ('manager', 'owner', 'core team')),
    password_hash              TEXT NOT NULL,
    session_id                 TEXT,
    is_email_verified          INTEGER NOT NULL DEFAULT 0,
    is_active                  INTEGER NOT NULL DEFAULT 1,
    email_verification_token   TEXT,
    email_verification_expires DATETIME,
    password_reset_token       TEXT,
    password_reset_expires     DATETIME,
    photo                      BLOB,
    photo_mime                 TEXT,
    last_login                 DATETIME,
    created_at                 DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at                 DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

CREATE TABLE IF NOT EXISTS stock_entries (
    id          INTEGER PRIMARY KEY,
    item_name   TEXT NOT NULL CHECK (item_name IN ('Aluminium', 'Copper', 'Scrap')),
    quantity    TEXT NOT NULL,
    unit        TEXT NOT NULL DEFAULT 'kg',
    stock_type  TEXT NOT NULL DEFAULT 'raw' CHECK (stock_type IN ('raw', 'finished', 'semi-finished')),
    category    TEXT NOT NULL DEFAULT 'wire',
    added_by    INTEGER NOT NULL REFERENCES users(id),
    added_date  DATETIME NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_stock_entries_item ON stock_entries(item_name);

CREATE TABLE IF NOT EXISTS ledger_events (
    id                INTEGER PRIMARY KEY,
    entry_id          INTEGER NOT NULL,
    action            TEXT NOT NULL CHECK (action IN ('create', 'update', 'delete')),
    item_name         TEXT NOT NULL,
    quantity          TEXT NOT NULL,
    previous_quantity TEXT,
    actor_id          INTEGER REFERENCES users(id),
    note              TEXT NOT NULL DEFAULT '',
    created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_events_entry ON ledger_events(entry_id);

CREATE TABLE IF NOT EXISTS items_produced (
    id                 INTEGER PRIMARY KEY,
    attendance_id      INTEGER NOT NULL,
    user_id            INTEGER NOT NULL REFERENCES users(id),
    item_name          TEXT NOT NULL,
    quantity           TEXT NOT NULL,
    unit               TEXT NOT NULL DEFAULT 'kg',
    production_date    DATETIME NOT NULL,
    wire_used_type     TEXT NOT NULL CHECK (wire_used_type IN ('aluminium', 'copper')),
    wire_used_quantity TEXT NOT NULL,
    scrap_quantity     TEXT,
    description        TEXT
);

CREATE INDEX IF NOT EXISTS idx_items_produced_name ON items_produced(item_name);

CREATE TABLE IF NOT EXISTS attendance (
    id             INTEGER PRIMARY KEY,
    user_id        INTEGER NOT NULL REFERENCES users(id),
    item_id        INTEGER REFERENCES items_produced(id),
    check_in_time  DATETIME NOT NULL,
    check_out_time DATETIME,
    status         TEXT NOT NULL DEFAULT 'checked-in' CHECK (status IN ('checked-in', 'checked-out'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_open
    ON attendance(user_id) WHERE status = 'checked-in';

CREATE INDEX IF NOT EXISTS idx_attendance_user ON attendance(user_id, check_in_time);

CREATE TABLE IF NOT EXISTS stock_transfers (
    id             INTEGER PRIMARY KEY,
    from_user_id   INTEGER NOT NULL REFERENCES users(id),
    to_user_id     INTEGER NOT NULL REFERENCES users(id),
    item_name      TEXT NOT NULL CHECK (item_name IN ('Aluminium', 'Copper', 'Scrap')),
    quantity       TEXT NOT NULL,
    unit           TEXT NOT NULL DEFAULT 'kg',
    transfer_date  DATETIME NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('pending', 'completed', 'cancelled')),
    stock_entry_id INTEGER NOT NULL UNIQUE
        REFERENCES stock_entries(id) DEFERRABLE INITIALLY DEFERRED,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_stock_transfers_to ON stock_transfers(to_user_id);

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
