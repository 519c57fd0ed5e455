package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavishdadwani/Stock-Management/internal/db"
	"github.com/lavishdadwani/Stock-Management/internal/model"
)

// ledgerState is everything a failed workflow must leave untouched.
type ledgerState struct {
	Entries    []string
	Events     []string
	Attendance []string
	Produced   []string
	Transfers  []string
	Balances   map[string]string
}

func rowStrings(t *testing.T, database *sql.DB, query string) []string {
	t.Helper()
	rows, err := database.Query(query)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}

func snapshot(t *testing.T, database *sql.DB) ledgerState {
	t.Helper()
	s := ledgerState{
		Entries: rowStrings(t, database,
			`SELECT id || '|' || item_name || '|' || quantity || '|' || description FROM stock_entries ORDER BY id`),
		Events: rowStrings(t, database,
			`SELECT id || '|' || entry_id || '|' || action || '|' || quantity FROM ledger_events ORDER BY id`),
		Attendance: rowStrings(t, database,
			`SELECT id || '|' || status || '|' || COALESCE(item_id, '') || '|' || COALESCE(check_out_time, '') FROM attendance ORDER BY id`),
		Produced: rowStrings(t, database,
			`SELECT id || '|' || item_name || '|' || quantity FROM items_produced ORDER BY id`),
		Transfers: rowStrings(t, database,
			`SELECT id || '|' || item_name || '|' || quantity || '|' || to_user_id || '|' || stock_entry_id FROM stock_transfers ORDER BY id`),
		Balances: make(map[string]string),
	}
	for _, item := range model.StockItems {
		s.Balances[item] = balanceOf(t, database, item).String()
	}
	return s
}

// failOn makes every matching statement on table abort until the returned
// function drops the trigger.
func failOn(t *testing.T, database *sql.DB, event, table string) func() {
	t.Helper()
	name := fmt.Sprintf("fail_%s_%s", event, table)
	_, err := database.Exec(fmt.Sprintf(
		`CREATE TRIGGER %s BEFORE %s ON %s BEGIN SELECT RAISE(ABORT, 'boom'); END`, name, event, table))
	require.NoError(t, err)
	return func() {
		_, err := database.Exec(`DROP TRIGGER ` + name)
		require.NoError(t, err)
	}
}

func TestWorkflowsRollBackOnLateFailure(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		table  string
		action func(ctx context.Context, database *sql.DB, manager, worker *model.User, tr *model.StockTransfer) error
		after  func(t *testing.T, database *sql.DB)
	}{
		{
			name:  "check-out",
			event: "INSERT",
			table: "items_produced",
			action: func(ctx context.Context, database *sql.DB, _, worker *model.User, _ *model.StockTransfer) error {
				_, err := CheckOut(ctx, database, worker.ID, checkoutRequest("copper", "12", "Cable-A", "10", "3"))
				return err
			},
			after: func(t *testing.T, database *sql.DB) {
				requireDecimal(t, "18", balanceOf(t, database, model.ItemCopper))
				requireDecimal(t, "3", balanceOf(t, database, model.ItemScrap))
			},
		},
		{
			name:  "create transfer",
			event: "INSERT",
			table: "stock_transfers",
			action: func(ctx context.Context, database *sql.DB, manager, worker *model.User, _ *model.StockTransfer) error {
				_, err := CreateTransfer(ctx, database, manager.ID, transferInput(worker.ID, model.ItemAluminium, "5"))
				return err
			},
			after: func(t *testing.T, database *sql.DB) {
				requireDecimal(t, "15", balanceOf(t, database, model.ItemAluminium))
			},
		},
		{
			name:  "update transfer",
			event: "UPDATE",
			table: "stock_transfers",
			action: func(ctx context.Context, database *sql.DB, manager, _ *model.User, tr *model.StockTransfer) error {
				item := model.ItemAluminium
				qty := decimal.NewFromInt(14)
				_, err := UpdateTransfer(ctx, database, manager.ID, tr.ID, model.TransferPatch{ItemName: &item, Quantity: &qty})
				return err
			},
			after: func(t *testing.T, database *sql.DB) {
				requireDecimal(t, "40", balanceOf(t, database, model.ItemCopper))
				requireDecimal(t, "6", balanceOf(t, database, model.ItemAluminium))
			},
		},
		{
			name:  "delete transfer",
			event: "DELETE",
			table: "stock_transfers",
			action: func(ctx context.Context, database *sql.DB, manager, _ *model.User, tr *model.StockTransfer) error {
				return DeleteTransfer(ctx, database, manager.ID, tr.ID)
			},
			after: func(t *testing.T, database *sql.DB) {
				requireDecimal(t, "40", balanceOf(t, database, model.ItemCopper))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := db.NewTestDB(t)
			ctx := context.Background()
			manager := newUser(t, database, model.RoleManager)
			worker := newUser(t, database, model.RoleCoreTeam)
			addStock(t, database, manager.ID, model.ItemCopper, "40")
			addStock(t, database, manager.ID, model.ItemAluminium, "20")

			tr, err := CreateTransfer(ctx, database, manager.ID, transferInput(worker.ID, model.ItemCopper, "10"))
			require.NoError(t, err)
			_, err = CheckIn(ctx, database, worker.ID)
			require.NoError(t, err)

			before := snapshot(t, database)

			drop := failOn(t, database, tt.event, tt.table)
			err = tt.action(ctx, database, manager, worker, tr)
			require.Error(t, err)
			assert.ErrorContains(t, err, "boom")
			assert.Equal(t, before, snapshot(t, database), "failed workflow must leave no trace")

			// The same call succeeds once nothing blocks it.
			drop()
			require.NoError(t, tt.action(ctx, database, manager, worker, tr))
			tt.after(t, database)
		})
	}
}
