package store

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavishdadwani/Stock-Management/internal/db"
	"github.com/lavishdadwani/Stock-Management/internal/model"
)

func TestBalanceSumsSignedEntries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, model.RoleOwner)

	addStock(t, database, owner.ID, model.ItemAluminium, "100.25")
	addStock(t, database, owner.ID, model.ItemAluminium, "-30.10")
	addStock(t, database, owner.ID, model.ItemCopper, "5")

	requireDecimal(t, "70.15", balanceOf(t, database, model.ItemAluminium))
	requireDecimal(t, "5", balanceOf(t, database, model.ItemCopper))
	assert.True(t, balanceOf(t, database, model.ItemScrap).IsZero())

	sums, err := Balances(ctx, database)
	require.NoError(t, err)
	requireDecimal(t, "70.15", sums[model.ItemAluminium])
	requireDecimal(t, "0", sums[model.ItemScrap])
}

func TestEnsureAvailable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, model.RoleOwner)
	addStock(t, database, owner.ID, model.ItemCopper, "20")

	check := func(qty string) error {
		return withTx(ctx, database, func(tx *sql.Tx) error {
			return EnsureAvailable(ctx, tx, model.ItemCopper, decimal.RequireFromString(qty))
		})
	}

	assert.NoError(t, check("19.99"))
	assert.NoError(t, check("20"), "depleting to exactly zero is allowed")

	err := check("20.01")
	require.ErrorIs(t, err, ErrInsufficientStock)
	var ise *InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, model.ItemCopper, ise.ItemName)
	requireDecimal(t, "20.01", ise.Required)
	requireDecimal(t, "20", ise.Available)
}

// TestBalanceMatchesLedgerUnderRandomOperations runs random sequences of
// manual adds, transfers, checkouts and deletes and checks that every balance
// equals the sum of the rows that survive.
func TestBalanceMatchesLedgerUnderRandomOperations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, model.RoleOwner)
	workers := []*model.User{newUser(t, database, model.RoleCoreTeam), newUser(t, database, model.RoleCoreTeam)}

	rng := rand.New(rand.NewPCG(42, 7))
	var manual []int64
	var transfers []int64

	qty := func() decimal.Decimal {
		return decimal.New(int64(rng.IntN(5000)+1), -2)
	}

	for step := 0; step < 150; step++ {
		item := model.StockItems[rng.IntN(len(model.StockItems))]
		switch rng.IntN(5) {
		case 0, 1:
			in := model.StockInput{ItemName: item, Quantity: qty()}
			require.NoError(t, in.Normalize())
			e, err := CreateStockEntry(ctx, database, owner.ID, in)
			require.NoError(t, err)
			manual = append(manual, e.ID)
		case 2:
			in := model.TransferInput{ToUserID: workers[rng.IntN(len(workers))].ID, ItemName: item, Quantity: qty()}
			in.Normalize()
			tr, err := CreateTransfer(ctx, database, owner.ID, in)
			if err != nil {
				require.ErrorIs(t, err, ErrInsufficientStock)
				continue
			}
			transfers = append(transfers, tr.ID)
		case 3:
			w := workers[rng.IntN(len(workers))]
			if open, _ := GetCheckInStatus(ctx, database, w.ID); open == nil {
				_, err := CheckIn(ctx, database, w.ID)
				require.NoError(t, err)
			}
			wire := model.WireAluminium
			if rng.IntN(2) == 0 {
				wire = model.WireCopper
			}
			req := model.CheckoutRequest{
				WireUsedType:     wire,
				WireUsedQuantity: qty(),
				ItemProduced:     model.ProducedInput{ItemName: "Cable", Quantity: decimal.NewFromInt(1)},
				ScrapQuantity:    decimal.New(int64(rng.IntN(3)), 0),
			}
			req.Normalize()
			_, err := CheckOut(ctx, database, w.ID, req)
			if err != nil {
				require.ErrorIs(t, err, ErrInsufficientStock)
			}
		case 4:
			if len(transfers) > 0 && rng.IntN(2) == 0 {
				i := rng.IntN(len(transfers))
				require.NoError(t, DeleteTransfer(ctx, database, owner.ID, transfers[i]))
				transfers = append(transfers[:i], transfers[i+1:]...)
			} else if len(manual) > 0 {
				i := rng.IntN(len(manual))
				require.NoError(t, DeleteStockEntry(ctx, database, owner.ID, manual[i]))
				manual = append(manual[:i], manual[i+1:]...)
			}
		}

		entries, err := AllStockEntries(ctx, database)
		require.NoError(t, err)
		want := map[string]decimal.Decimal{}
		for _, e := range entries {
			want[e.ItemName] = want[e.ItemName].Add(e.Quantity)
		}
		sums, err := Balances(ctx, database)
		require.NoError(t, err)
		for _, item := range model.StockItems {
			require.Truef(t, want[item].Equal(sums[item]), "step %d: %s balance %s, ledger sum %s", step, item, sums[item], want[item])
		}
	}
}
