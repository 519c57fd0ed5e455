package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

const transferColumns = `t.id, t.from_user_id, t.to_user_id, t.item_name, t.quantity, t.unit, t.transfer_date,
	t.description, t.status, t.stock_entry_id, t.created_at, t.updated_at,
	COALESCE(fu.name, ''), COALESCE(tu.name, '')`

const transferFrom = ` FROM stock_transfers t
	LEFT JOIN users fu ON fu.id = t.from_user_id
	LEFT JOIN users tu ON tu.id = t.to_user_id`

func scanTransfer(row rowScanner) (*model.StockTransfer, error) {
	t := &model.StockTransfer{}
	err := row.Scan(&t.ID, &t.FromUserID, &t.ToUserID, &t.ItemName, &t.Quantity, &t.Unit, &t.TransferDate,
		&t.Description, &t.Status, &t.StockEntryID, &t.CreatedAt, &t.UpdatedAt, &t.FromUserName, &t.ToUserName)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// requireManager loads the acting user and checks they may move stock.
func requireManager(ctx context.Context, q Querier, userID int64) (*model.User, error) {
	u, err := GetUser(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || !model.CanManageStock(u.Role) {
		return nil, ErrForbidden
	}
	return u, nil
}

// requireRecipient loads a transfer recipient and checks they are core team.
func requireRecipient(ctx context.Context, q Querier, userID int64) (*model.User, error) {
	u, err := GetUser(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrRecipientNotFound
	}
	if u.Role != model.RoleCoreTeam {
		return nil, ErrInvalidRecipient
	}
	return u, nil
}

func transferNote(recipient, description string) string {
	if description == "" {
		return "Transfer to " + recipient
	}
	return "Transfer to " + recipient + ": " + description
}

// CreateTransfer moves stock from the general pool to a core team member.
// The deducting entry is written first so the transfer can reference it; both
// rows commit together. The input must be validated and normalized.
func CreateTransfer(ctx context.Context, db *sql.DB, fromUserID int64, in model.TransferInput) (*model.StockTransfer, error) {
	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := requireManager(ctx, tx, fromUserID); err != nil {
			return err
		}
		recipient, err := requireRecipient(ctx, tx, in.ToUserID)
		if err != nil {
			return err
		}

		if err := EnsureAvailable(ctx, tx, in.ItemName, in.Quantity); err != nil {
			return err
		}

		now := time.Now().UTC()
		entry := &model.StockEntry{
			ItemName:    in.ItemName,
			Quantity:    in.Quantity.Neg(),
			StockType:   model.StockTypeRaw,
			Category:    model.CategoryTransfer,
			AddedBy:     fromUserID,
			AddedDate:   now,
			Description: transferNote(recipient.Name, in.Description),
		}
		if err := insertEntry(ctx, tx, entry, fmt.Sprintf("transfer to user #%d", in.ToUserID)); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO stock_transfers (from_user_id, to_user_id, item_name, quantity, unit, transfer_date,
			 description, status, stock_entry_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fromUserID, in.ToUserID, in.ItemName, in.Quantity.String(), model.UnitKilogram, now,
			in.Description, in.Status, entry.ID, now, now,
		)
		if err != nil {
			return fmt.Errorf("recording transfer: %w", err)
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return GetTransfer(ctx, db, id)
}

// GetTransfer returns a transfer by ID.
func GetTransfer(ctx context.Context, q Querier, id int64) (*model.StockTransfer, error) {
	t, err := scanTransfer(q.QueryRowContext(ctx, `SELECT `+transferColumns+transferFrom+` WHERE t.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// ListTransfers returns a page of transfers, newest first, and the total match count.
func ListTransfers(ctx context.Context, db *sql.DB, f model.TransferFilter) ([]model.StockTransfer, int, error) {
	var conds []string
	var args []any
	if f.FromUserID != nil {
		conds = append(conds, "t.from_user_id = ?")
		args = append(args, *f.FromUserID)
	}
	if f.ToUserID != nil {
		conds = append(conds, "t.to_user_id = ?")
		args = append(args, *f.ToUserID)
	}
	if f.ItemName != "" {
		conds = append(conds, "t.item_name = ?")
		args = append(args, f.ItemName)
	}
	if f.StartDate != nil {
		conds = append(conds, "t.transfer_date >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		conds = append(conds, "t.transfer_date <= ?")
		args = append(args, f.EndDate.UTC())
	}
	where := whereClause(conds)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_transfers t`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting transfers: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+transferColumns+transferFrom+where+` ORDER BY t.transfer_date DESC, t.id DESC LIMIT ? OFFSET ?`,
		append(args, f.Page.Limit, f.Page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	transfers := []model.StockTransfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, total, rows.Err()
}

// UpdateTransfer merges a patch into a transfer and rewrites its linked entry.
// A positive quantity delta, or any delta when the item changes, must be
// covered by the current balance of the transfer's item. Nothing changes
// unless every step succeeds.
func UpdateTransfer(ctx context.Context, db *sql.DB, callerID, id int64, p model.TransferPatch) (*model.StockTransfer, error) {
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := requireManager(ctx, tx, callerID); err != nil {
			return err
		}

		existing, err := GetTransfer(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}

		merged, err := p.Merge(*existing)
		if err != nil {
			return err
		}

		if merged.ToUserID != existing.ToUserID {
			if _, err := requireRecipient(ctx, tx, merged.ToUserID); err != nil {
				return err
			}
		}

		itemChanged := merged.ItemName != existing.ItemName
		qtyChanged := !merged.Quantity.Equal(existing.Quantity)

		if itemChanged || qtyChanged {
			// Only the change in quantity is gated, also when the item moves.
			delta := merged.Quantity.Sub(existing.Quantity)
			if delta.IsPositive() || itemChanged {
				if err := EnsureAvailable(ctx, tx, merged.ItemName, delta); err != nil {
					return err
				}
			}

			entry, err := GetStockEntry(ctx, tx, existing.StockEntryID)
			if err != nil {
				return err
			}
			if entry == nil {
				return ErrStockEntryNotFound
			}

			description := fmt.Sprintf("Updated transfer #%d - %s. Quantity changed from %skg to %skg",
				id, merged.Description, existing.Quantity, merged.Quantity)
			_, err = tx.ExecContext(ctx,
				`UPDATE stock_entries SET item_name = ?, quantity = ?, description = ?, updated_at = ? WHERE id = ?`,
				merged.ItemName, merged.Quantity.Neg().String(), description, time.Now().UTC(), entry.ID,
			)
			if err != nil {
				return fmt.Errorf("updating transfer entry: %w", err)
			}

			previous := entry.Quantity
			if err := recordEvent(ctx, tx, model.LedgerEvent{
				EntryID:          entry.ID,
				Action:           model.EventUpdate,
				ItemName:         merged.ItemName,
				Quantity:         merged.Quantity.Neg(),
				PreviousQuantity: &previous,
				ActorID:          &callerID,
				Note:             fmt.Sprintf("transfer #%d updated", id),
			}); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE stock_transfers SET to_user_id = ?, item_name = ?, quantity = ?, unit = ?, description = ?,
			 status = ?, updated_at = ? WHERE id = ?`,
			merged.ToUserID, merged.ItemName, merged.Quantity.String(), merged.Unit, merged.Description,
			merged.Status, time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("updating transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetTransfer(ctx, db, id)
}

// DeleteTransfer removes a transfer and its linked entry, returning the
// quantity to the general pool. If the entry is already gone the transfer is
// kept and ErrStockEntryNotFound is returned.
func DeleteTransfer(ctx context.Context, db *sql.DB, callerID, id int64) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := requireManager(ctx, tx, callerID); err != nil {
			return err
		}

		existing, err := GetTransfer(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}

		entry, err := GetStockEntry(ctx, tx, existing.StockEntryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrStockEntryNotFound
		}
		if err := deleteEntry(ctx, tx, entry, callerID, fmt.Sprintf("transfer #%d deleted", id)); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM stock_transfers WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting transfer: %w", err)
		}
		return nil
	})
}

// TransferQuantities returns transferred totals per item. Core team callers
// only ever see their own totals whatever toUserID they pass.
func TransferQuantities(ctx context.Context, db *sql.DB, callerID int64, callerRole string, toUserID *int64) (model.StockQuantities, error) {
	filter := toUserID
	if callerRole == model.RoleCoreTeam || !model.ValidRole(callerRole) {
		filter = &callerID
	}

	sums, err := TransferBalances(ctx, db, filter)
	if err != nil {
		return model.StockQuantities{}, err
	}
	return model.NewStockQuantities(sums), nil
}
