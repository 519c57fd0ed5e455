package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

var userSeq atomic.Int64

func newUser(t *testing.T, database *sql.DB, role string) *model.User {
	t.Helper()
	n := userSeq.Add(1)
	u, err := CreateUser(context.Background(), database, model.RegisterInput{
		Name:  fmt.Sprintf("User %d", n),
		Email: fmt.Sprintf("user%d@example.com", n),
		Role:  role,
	}, "hash")
	require.NoError(t, err)
	return u
}

func addStock(t *testing.T, database *sql.DB, userID int64, item, qty string) *model.StockEntry {
	t.Helper()
	in := model.StockInput{ItemName: item, Quantity: decimal.RequireFromString(qty), Unit: model.UnitKilogram}
	require.NoError(t, in.Validate())
	require.NoError(t, in.Normalize())
	e, err := CreateStockEntry(context.Background(), database, userID, in)
	require.NoError(t, err)
	return e
}

func balanceOf(t *testing.T, database *sql.DB, item string) decimal.Decimal {
	t.Helper()
	b, err := Balance(context.Background(), database, item)
	require.NoError(t, err)
	return b
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
