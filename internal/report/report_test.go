package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

func TestStockWorkbook(t *testing.T) {
	transferID := int64(7)
	entries := []model.StockEntry{
		{ID: 1, ItemName: model.ItemAluminium, Quantity: decimal.RequireFromString("100"), StockType: model.StockTypeRaw, AddedByName: "Ana", AddedDate: time.Now()},
		{ID: 2, ItemName: model.ItemCopper, Quantity: decimal.RequireFromString("-0.5"), StockType: model.StockTypeRaw, AddedByName: "Bo", AddedDate: time.Now(), TransferID: &transferID, Description: "moved"},
	}
	balances := model.NewStockQuantities(map[string]decimal.Decimal{
		model.ItemAluminium: decimal.RequireFromString("100"),
		model.ItemCopper:    decimal.RequireFromString("-0.5"),
	})

	data, err := StockWorkbook(entries, balances, time.Now())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Quantity (kg)", rows[0][3])
	assert.Equal(t, model.ItemAluminium, rows[1][2])
	assert.Equal(t, "100", rows[1][3])
	assert.Equal(t, "-0.5", rows[2][3])
	assert.Equal(t, "#7", rows[2][7])
	assert.Equal(t, "moved", rows[2][8])

	rows, err = f.GetRows(balancesSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Quantity", "Unit"}, rows[0])
	assert.Equal(t, model.ItemAluminium, rows[1][0])
	assert.Equal(t, "100", rows[1][1])
	assert.Equal(t, "0", rows[3][1])
}

func TestProductionPDF(t *testing.T) {
	scrap := decimal.RequireFromString("5")
	note := "a long description that will be truncated"
	items := []model.ItemProduced{
		{ItemName: "Coil", Quantity: decimal.RequireFromString("25"), WireUsedType: model.WireAluminium, WireUsedQuantity: decimal.RequireFromString("30"), ScrapQuantity: &scrap, Description: &note, UserName: "Ana", ProductionDate: time.Now()},
		{ItemName: "Coil", Quantity: decimal.RequireFromString("10"), WireUsedType: model.WireCopper, WireUsedQuantity: decimal.RequireFromString("10"), UserName: "Bo", ProductionDate: time.Now()},
	}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	data, err := ProductionPDF(items, &from, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	empty, err := ProductionPDF(nil, nil, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}

func TestPeriod(t *testing.T) {
	a := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "all time", period(nil, nil))
	assert.Equal(t, "since 01-Mar-2026", period(&a, nil))
	assert.Equal(t, "until 31-Mar-2026", period(nil, &b))
	assert.Equal(t, "01-Mar-2026 to 31-Mar-2026", period(&a, &b))
}
