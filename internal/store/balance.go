package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

// Balance sums every ledger entry for an item. Nothing is cached; every call
// reads the full ledger.
func Balance(ctx context.Context, q Querier, itemName string) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, `SELECT quantity FROM stock_entries WHERE item_name = ?`, itemName)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading %s ledger: %w", itemName, err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var qty decimal.Decimal
		if err := rows.Scan(&qty); err != nil {
			return decimal.Zero, fmt.Errorf("scanning ledger quantity: %w", err)
		}
		sum = sum.Add(qty)
	}
	return sum, rows.Err()
}

// Balances returns the balance of every ledger item.
func Balances(ctx context.Context, q Querier) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal, len(model.StockItems))
	for _, item := range model.StockItems {
		sums[item] = decimal.Zero
	}

	rows, err := q.QueryContext(ctx, `SELECT item_name, quantity FROM stock_entries`)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item string
		var qty decimal.Decimal
		if err := rows.Scan(&item, &qty); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		sums[item] = sums[item].Add(qty)
	}
	return sums, rows.Err()
}

// EnsureAvailable fails with *InsufficientStockError unless the item's balance
// covers requested. Call it inside the transaction that performs the deduction.
func EnsureAvailable(ctx context.Context, tx *sql.Tx, itemName string, requested decimal.Decimal) error {
	available, err := Balance(ctx, tx, itemName)
	if err != nil {
		return err
	}
	if available.LessThan(requested) {
		return &InsufficientStockError{ItemName: itemName, Required: requested, Available: available}
	}
	return nil
}

// TransferBalances sums transferred quantities per item for one recipient, or
// for all recipients when toUserID is nil. This view is independent of the
// general ledger.
func TransferBalances(ctx context.Context, q Querier, toUserID *int64) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal, len(model.StockItems))
	for _, item := range model.StockItems {
		sums[item] = decimal.Zero
	}

	query := `SELECT item_name, quantity FROM stock_transfers`
	var args []any
	if toUserID != nil {
		query += ` WHERE to_user_id = ?`
		args = append(args, *toUserID)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading transfers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item string
		var qty decimal.Decimal
		if err := rows.Scan(&item, &qty); err != nil {
			return nil, fmt.Errorf("scanning transfer row: %w", err)
		}
		sums[item] = sums[item].Add(qty)
	}
	return sums, rows.Err()
}
