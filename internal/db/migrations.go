package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: case-insensitive email lookups.
	`CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users(lower(email))`,
	// Migration 2: history views filter production by worker and date.
	`CREATE INDEX IF NOT EXISTS idx_items_produced_user ON items_produced(user_id, production_date)`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
