package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/agency-ledger/pkg/enums"
	"github.com/angelmondragon/agency-ledger/pkg/types"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	salesSheet      = "sales_report"
	// numFmt2Decimals is excelize's built-in "0.00" format.
	numFmt2Decimals = 2
)

// ExportShiftSummary renders the shift summary as a workbook: a title row,
// one column per product, then total, due and an empty amount paid column,
// followed by a totals row and cost / net profit rows.
func (s *service) ExportShiftSummary(ctx context.Context, date time.Time, shift enums.Shift) (*Export, error) {
	summary, err := s.ShiftSummary(ctx, date, shift)
	if err != nil {
		return nil, err
	}
	f, err := renderShiftSummary(s.supplierName, summary)
	if err != nil {
		s.logg.Error(ctx, "reports.export.render_failed", err)
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logg.Error(ctx, "reports.export.write_failed", err)
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"date":  summary.Date.String(),
		"shift": summary.Shift.String(),
		"shops": len(summary.Shops),
	}), "reports.export.generated")
	return &Export{
		Filename:    fmt.Sprintf("sales_report_%s_%s.xlsx", summary.Date.Format(types.DateLayout), summary.Shift),
		ContentType: xlsxContentType,
		Body:        buf.Bytes(),
	}, nil
}

func renderShiftSummary(supplier string, summary *ShiftSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return nil, err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9D9D9"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: numFmt2Decimals})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		NumFmt: numFmt2Decimals,
	})

	totalCols := 1 + len(summary.Products) + 3
	lastCol, err := excelize.ColumnNumberToName(totalCols)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s sales - Date: %s - Shift: %s", supplier, summary.Date.String(), summary.Shift)
	f.SetCellValue(salesSheet, "A1", title)
	if err := f.MergeCell(salesSheet, "A1", lastCol+"1"); err != nil {
		return nil, err
	}
	f.SetCellStyle(salesSheet, "A1", lastCol+"1", titleStyle)

	headers := []string{"Shop Name"}
	for _, p := range summary.Products {
		headers = append(headers, p.Name)
	}
	headers = append(headers, "Total Amount", "Due Amount", "Amount Paid")
	headerRow := 3
	for i, h := range headers {
		cell := cellName(i+1, headerRow)
		f.SetCellValue(salesSheet, cell, h)
		f.SetCellStyle(salesSheet, cell, cell, headerStyle)
	}

	row := headerRow + 1
	totalCol := 2 + len(summary.Products)
	for _, shop := range summary.Shops {
		f.SetCellValue(salesSheet, cellName(1, row), shop.ShopName)
		for i, qty := range shop.Quantities {
			f.SetCellValue(salesSheet, cellName(2+i, row), qty)
		}
		f.SetCellValue(salesSheet, cellName(totalCol, row), shop.TotalAmount.InexactFloat64())
		f.SetCellValue(salesSheet, cellName(totalCol+1, row), shop.DueAmount.InexactFloat64())
		f.SetCellStyle(salesSheet, cellName(totalCol, row), cellName(totalCol+1, row), moneyStyle)
		row++
	}

	row++
	f.SetCellValue(salesSheet, cellName(1, row), "Total")
	for i, qty := range summary.ProductTotals {
		f.SetCellValue(salesSheet, cellName(2+i, row), qty)
	}
	f.SetCellValue(salesSheet, cellName(totalCol, row), summary.GrandTotal.InexactFloat64())
	f.SetCellValue(salesSheet, cellName(totalCol+1, row), summary.TotalDue.InexactFloat64())
	f.SetCellStyle(salesSheet, cellName(1, row), cellName(totalCol-1, row), boldStyle)
	f.SetCellStyle(salesSheet, cellName(totalCol, row), cellName(totalCol+1, row), summaryStyle)

	row += 3
	f.SetCellValue(salesSheet, cellName(totalCol, row), "Total Cost Amount")
	f.SetCellValue(salesSheet, cellName(totalCol+1, row), summary.TotalCost.InexactFloat64())
	f.SetCellStyle(salesSheet, cellName(totalCol, row), cellName(totalCol, row), boldStyle)
	f.SetCellStyle(salesSheet, cellName(totalCol+1, row), cellName(totalCol+1, row), summaryStyle)

	row++
	f.SetCellValue(salesSheet, cellName(totalCol, row), "Net Profit (Revenue - Cost)")
	f.SetCellValue(salesSheet, cellName(totalCol+1, row), summary.NetProfit.InexactFloat64())
	f.SetCellStyle(salesSheet, cellName(totalCol, row), cellName(totalCol, row), boldStyle)
	f.SetCellStyle(salesSheet, cellName(totalCol+1, row), cellName(totalCol+1, row), summaryStyle)

	f.SetColWidth(salesSheet, "A", "A", 24)
	for i := 2; i <= totalCols; i++ {
		col, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(salesSheet, col, col, 14)
	}
	return f, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
