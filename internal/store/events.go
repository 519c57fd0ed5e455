package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

// recordEvent appends to the ledger audit trail inside the caller's transaction.
func recordEvent(ctx context.Context, tx *sql.Tx, ev model.LedgerEvent) error {
	var prev any
	if ev.PreviousQuantity != nil {
		prev = ev.PreviousQuantity.String()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_events (entry_id, action, item_name, quantity, previous_quantity, actor_id, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EntryID, ev.Action, ev.ItemName, ev.Quantity.String(), prev, ev.ActorID, ev.Note, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording ledger event: %w", err)
	}
	return nil
}

// ListLedgerEvents returns audit events newest first, optionally for one entry.
func ListLedgerEvents(ctx context.Context, db *sql.DB, entryID *int64, page model.Page) ([]model.LedgerEvent, int, error) {
	var conds []string
	var args []any
	if entryID != nil {
		conds = append(conds, "entry_id = ?")
		args = append(args, *entryID)
	}
	where := whereClause(conds)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_events`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting ledger events: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, entry_id, action, item_name, quantity, previous_quantity, actor_id, note, created_at
		 FROM ledger_events`+where+` ORDER BY id DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing ledger events: %w", err)
	}
	defer rows.Close()

	events := []model.LedgerEvent{}
	for rows.Next() {
		var ev model.LedgerEvent
		var prev decimal.NullDecimal
		if err := rows.Scan(&ev.ID, &ev.EntryID, &ev.Action, &ev.ItemName, &ev.Quantity, &prev,
			&ev.ActorID, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning ledger event: %w", err)
		}
		if prev.Valid {
			ev.PreviousQuantity = &prev.Decimal
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}
