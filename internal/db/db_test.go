package db

import (
	"context"
	"strings"
	"testing"
)

func TestMigrateIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := Migrate(database); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	database := NewTestDB(t)

	var fk int
	if err := database.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	var mode string
	if err := database.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("expected WAL journal mode, got %s", mode)
	}
}

func TestOpenCheckInIndexRejectsSecondOpenSession(t *testing.T) {
	database := NewTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx,
		`INSERT INTO users (name, email, role, password_hash) VALUES ('W', 'w@example.com', 'core team', 'x')`)
	if err != nil {
		t.Fatalf("inserting user: %v", err)
	}

	insert := `INSERT INTO attendance (user_id, check_in_time, status) VALUES (1, CURRENT_TIMESTAMP, ?)`
	if _, err := database.ExecContext(ctx, insert, "checked-in"); err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if _, err := database.ExecContext(ctx, insert, "checked-in"); err == nil {
		t.Fatal("expected unique violation for second open session")
	}
	if _, err := database.ExecContext(ctx, insert, "checked-out"); err != nil {
		t.Errorf("closed sessions must not conflict: %v", err)
	}
}

func TestDSN(t *testing.T) {
	got := dsn("stock.sqlite3")
	if !strings.HasPrefix(got, "file:stock.sqlite3?") {
		t.Errorf("unexpected dsn prefix: %s", got)
	}
	if !strings.Contains(got, "_txlock=immediate") {
		t.Errorf("expected immediate transactions in %s", got)
	}
}
