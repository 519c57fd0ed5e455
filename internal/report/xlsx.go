// Package report renders stock ledger spreadsheets and production PDFs.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

const (
	ledgerSheet   = "Ledger"
	balancesSheet = "Balances"
	dateLayout    = "2006-01-02 15:04"
)

var ledgerHeader = []any{"ID", "Date", "Item", "Quantity (kg)", "Type", "Category", "Added By", "Transfer", "Description"}

// StockWorkbook renders the ledger entries and current balances as an XLSX
// workbook with a "Ledger" and a "Balances" sheet.
func StockWorkbook(entries []model.StockEntry, balances model.StockQuantities, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, fmt.Errorf("naming ledger sheet: %w", err)
	}
	if _, err := f.NewSheet(balancesSheet); err != nil {
		return nil, fmt.Errorf("creating balances sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetRow(ledgerSheet, "A1", &ledgerHeader); err != nil {
		return nil, fmt.Errorf("writing ledger header: %w", err)
	}
	if err := f.SetCellStyle(ledgerSheet, "A1", "I1", bold); err != nil {
		return nil, fmt.Errorf("styling ledger header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		transfer := ""
		if e.TransferID != nil {
			transfer = fmt.Sprintf("#%d", *e.TransferID)
		}
		row := []any{
			e.ID,
			e.AddedDate.Local().Format(dateLayout),
			e.ItemName,
			e.Quantity.InexactFloat64(),
			e.StockType,
			e.Category,
			e.AddedByName,
			transfer,
			e.Description,
		}
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing ledger row %d: %w", e.ID, err)
		}
	}
	if err := f.SetColWidth(ledgerSheet, "B", "H", 16); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(ledgerSheet, "I", "I", 48); err != nil {
		return nil, err
	}

	rows := [][]any{
		{"Item", "Quantity", "Unit"},
		{balances.Aluminium.Name, balances.Aluminium.Quantity.InexactFloat64(), balances.Aluminium.Unit},
		{balances.Copper.Name, balances.Copper.Quantity.InexactFloat64(), balances.Copper.Unit},
		{balances.Scrap.Name, balances.Scrap.Quantity.InexactFloat64(), balances.Scrap.Unit},
		{},
		{"Generated", generated.Local().Format(dateLayout)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(balancesSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing balances row: %w", err)
		}
	}
	if err := f.SetCellStyle(balancesSheet, "A1", "C1", bold); err != nil {
		return nil, fmt.Errorf("styling balances header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
