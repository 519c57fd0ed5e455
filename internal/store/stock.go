package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

const entryColumns = `e.id, e.item_name, e.quantity, e.unit, e.stock_type, e.category, e.added_by,
	e.added_date, e.description, e.created_at, e.updated_at, COALESCE(u.name, ''), t.id`

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const entryFrom = ` FROM stock_entries e
	LEFT JOIN users u ON u.id = e.added_by
	LEFT JOIN stock_transfers t ON t.stock_entry_id = e.id`

func scanEntry(row rowScanner) (*model.StockEntry, error) {
	e := &model.StockEntry{}
	err := row.Scan(&e.ID, &e.ItemName, &e.Quantity, &e.Unit, &e.StockType, &e.Category, &e.AddedBy,
		&e.AddedDate, &e.Description, &e.CreatedAt, &e.UpdatedAt, &e.AddedByName, &e.TransferID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// insertEntry writes a ledger row and its audit event. e.ID is set on success.
func insertEntry(ctx context.Context, tx *sql.Tx, e *model.StockEntry, note string) error {
	now := time.Now().UTC()
	if e.AddedDate.IsZero() {
		e.AddedDate = now
	}
	if e.Unit == "" {
		e.Unit = model.UnitKilogram
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO stock_entries (item_name, quantity, unit, stock_type, category, added_by, added_date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ItemName, e.Quantity.String(), e.Unit, e.StockType, e.Category, e.AddedBy, e.AddedDate, e.Description, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting stock entry: %w", err)
	}

	e.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting stock entry id: %w", err)
	}

	actor := e.AddedBy
	return recordEvent(ctx, tx, model.LedgerEvent{
		EntryID:  e.ID,
		Action:   model.EventCreate,
		ItemName: e.ItemName,
		Quantity: e.Quantity,
		ActorID:  &actor,
		Note:     note,
	})
}

// CreateStockEntry adds a manual ledger entry. The input must be validated and normalized.
func CreateStockEntry(ctx context.Context, db *sql.DB, userID int64, in model.StockInput) (*model.StockEntry, error) {
	e := &model.StockEntry{
		ItemName:    in.ItemName,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		StockType:   in.StockType,
		Category:    in.Category,
		AddedBy:     userID,
		Description: in.Description,
	}

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		return insertEntry(ctx, tx, e, "manual entry")
	})
	if err != nil {
		return nil, err
	}
	return GetStockEntry(ctx, db, e.ID)
}

// GetStockEntry returns a ledger row by ID.
func GetStockEntry(ctx context.Context, q Querier, id int64) (*model.StockEntry, error) {
	e, err := scanEntry(q.QueryRowContext(ctx, `SELECT `+entryColumns+entryFrom+` WHERE e.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock entry: %w", err)
	}
	return e, nil
}

// ListStockEntries returns a page of ledger rows, newest first, and the total match count.
func ListStockEntries(ctx context.Context, db *sql.DB, f model.StockFilter) ([]model.StockEntry, int, error) {
	var conds []string
	var args []any
	if f.StockType != "" {
		conds = append(conds, "e.stock_type = ?")
		args = append(args, f.StockType)
	}
	if f.ItemName != "" {
		conds = append(conds, "e.item_name = ?")
		args = append(args, f.ItemName)
	}
	if f.Search != "" {
		like := "%" + likeEscaper.Replace(f.Search) + "%"
		conds = append(conds, `(e.item_name LIKE ? ESCAPE '\' OR e.category LIKE ? ESCAPE '\' OR e.description LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	where := whereClause(conds)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_entries e`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting stock entries: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+entryColumns+entryFrom+where+` ORDER BY e.created_at DESC, e.id DESC LIMIT ? OFFSET ?`,
		append(args, f.Page.Limit, f.Page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing stock entries: %w", err)
	}
	defer rows.Close()

	entries := []model.StockEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning stock entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}

// AllStockEntries returns the whole ledger oldest first, for exports.
func AllStockEntries(ctx context.Context, db *sql.DB) ([]model.StockEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+entryColumns+entryFrom+` ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("listing stock entries: %w", err)
	}
	defer rows.Close()

	entries := []model.StockEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UpdateStockEntry edits a manual ledger row. Rows owned by a transfer can
// only change through the transfer.
func UpdateStockEntry(ctx context.Context, db *sql.DB, actorID, id int64, p model.StockPatch) (*model.StockEntry, error) {
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		e, err := GetStockEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrNotFound
		}
		if e.TransferID != nil {
			return ErrLinkedToTransfer
		}

		previous := e.Quantity
		if err := p.Apply(e); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE stock_entries SET item_name = ?, quantity = ?, unit = ?, stock_type = ?, category = ?,
			 description = ?, updated_at = ? WHERE id = ?`,
			e.ItemName, e.Quantity.String(), e.Unit, e.StockType, e.Category, e.Description, time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("updating stock entry: %w", err)
		}

		return recordEvent(ctx, tx, model.LedgerEvent{
			EntryID:          id,
			Action:           model.EventUpdate,
			ItemName:         e.ItemName,
			Quantity:         e.Quantity,
			PreviousQuantity: &previous,
			ActorID:          &actorID,
			Note:             "manual edit",
		})
	})
	if err != nil {
		return nil, err
	}
	return GetStockEntry(ctx, db, id)
}

// DeleteStockEntry removes a manual ledger row.
func DeleteStockEntry(ctx context.Context, db *sql.DB, actorID, id int64) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		e, err := GetStockEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrNotFound
		}
		if e.TransferID != nil {
			return ErrLinkedToTransfer
		}
		return deleteEntry(ctx, tx, e, actorID, "manual delete")
	})
}

// deleteEntry hard-deletes a ledger row and records what it held.
func deleteEntry(ctx context.Context, tx *sql.Tx, e *model.StockEntry, actorID int64, note string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM stock_entries WHERE id = ?`, e.ID)
	if err != nil {
		return fmt.Errorf("deleting stock entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStockEntryNotFound
	}

	return recordEvent(ctx, tx, model.LedgerEvent{
		EntryID:  e.ID,
		Action:   model.EventDelete,
		ItemName: e.ItemName,
		Quantity: e.Quantity,
		ActorID:  &actorID,
		Note:     note,
	})
}
