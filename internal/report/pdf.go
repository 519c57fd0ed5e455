package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

// ProductionPDF renders a production log as an A4 landscape table followed by
// per-item totals. from and to only label the period.
func ProductionPDF(items []model.ItemProduced, from, to *time.Time, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, "Production Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, "Period: "+period(from, to), "", 1, "C", false, 0, "")
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", generated.Local().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	widths := []float64{35, 45, 40, 30, 35, 30, 25, 37}
	header := []string{"Date", "Worker", "Item", "Qty (kg)", "Wire", "Wire (kg)", "Scrap (kg)", "Notes"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range header {
		ln := 0
		if i == len(header)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, h, "1", ln, "C", true, 0, "")
	}

	totals := map[string]decimal.Decimal{}
	var order []string

	pdf.SetFont("Arial", "", 9)
	for _, it := range items {
		scrap := "-"
		if it.ScrapQuantity != nil {
			scrap = it.ScrapQuantity.StringFixed(2)
		}
		notes := ""
		if it.Description != nil {
			notes = *it.Description
		}
		if len(notes) > 20 {
			notes = notes[:17] + "..."
		}

		cells := []string{
			it.ProductionDate.Local().Format("02-Jan-2006"),
			it.UserName,
			it.ItemName,
			it.Quantity.StringFixed(2),
			it.WireUsedType,
			it.WireUsedQuantity.StringFixed(2),
			scrap,
			notes,
		}
		for i, c := range cells {
			ln := 0
			if i == len(cells)-1 {
				ln = 1
			}
			align := "L"
			if i == 3 || i == 5 || i == 6 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", ln, align, false, 0, "")
		}

		if _, ok := totals[it.ItemName]; !ok {
			order = append(order, it.ItemName)
		}
		totals[it.ItemName] = totals[it.ItemName].Add(it.Quantity)
	}

	if len(items) == 0 {
		pdf.CellFormat(277, 8, "No production recorded in this period.", "1", 1, "C", false, 0, "")
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(120, 8, "Totals by item", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, name := range order {
		pdf.CellFormat(80, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, totals[name].StringFixed(2)+" kg", "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering production pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func period(from, to *time.Time) string {
	switch {
	case from == nil && to == nil:
		return "all time"
	case from == nil:
		return "until " + to.Format("02-Jan-2006")
	case to == nil:
		return "since " + from.Format("02-Jan-2006")
	default:
		return from.Format("02-Jan-2006") + " to " + to.Format("02-Jan-2006")
	}
}
