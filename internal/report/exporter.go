package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/millworks/tariffmill/internal/models"
)

var exportHeader = []string{
	"Line", "Tariff No", "Quantity", "Unit", "Unit Price", "Total Price",
	"Status", "Action", "Duty", "Additional Declaration", "Price Check",
}

// WriteCSV renders the report's line results as CSV on w, one row per item in
// extraction order, followed by a totals row.
func WriteCSV(w io.Writer, rpt models.ReconciliationReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, res := range rpt.Results {
		if err := cw.Write(exportRow(res)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := cw.Write(totalsRow(rpt.Totals)); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the report as a single-sheet workbook on w.
func WriteXLSX(w io.Writer, rpt models.ReconciliationReport) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]string{exportHeader}
	for _, res := range rpt.Results {
		rows = append(rows, exportRow(res))
	}
	rows = append(rows, totalsRow(rpt.Totals))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("set row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func exportRow(res models.ResolutionResult) []string {
	line := ""
	if res.Item.Source != nil {
		line = fmt.Sprintf("%d", res.Item.Source.Number)
	}
	action := ""
	if res.Chosen != nil {
		action = res.Chosen.Action
	}
	declaration := ""
	if res.AdditionalDeclaration {
		declaration = "Y"
	}
	priceCheck := ""
	if res.Item.PriceInconsistent {
		priceCheck = "MISMATCH"
	}
	return []string{
		line,
		res.Item.ClassificationCode,
		res.Item.Quantity.String(),
		res.Item.Unit,
		res.Item.UnitPrice.String(),
		res.Item.TotalPrice.String(),
		string(res.Status),
		action,
		res.Duty.StringFixed(2),
		declaration,
		priceCheck,
	}
}

func totalsRow(t models.ReportTotals) []string {
	return []string{
		"",
		fmt.Sprintf("%d items", t.Items),
		t.TotalQuantity.String(),
		"",
		"",
		t.TotalValue.StringFixed(2),
		"",
		"",
		t.TotalDuty.StringFixed(2),
		"",
		fmt.Sprintf("%d flagged", t.Inconsistent),
	}
}
