package quote

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

// ExportXLSX renders a persisted quotation to a workbook. On partial quotes
// the customer-facing totals cover ready items only, so an unmatched item is
// never quoted at zero.
func ExportXLSX(q *internal.Quotation, vatRate float64, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	set := func(col, row int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, value)
	}

	set(1, 1, "Quotation")
	set(2, 1, q.QuotationNumber)
	set(1, 2, "Date")
	set(2, 2, q.QuotationDate.Format("2006-01-02"))
	set(1, 3, "Valid until")
	set(2, 3, q.ValidityDate.Format("2006-01-02"))
	set(1, 4, "Customer")
	set(2, 4, q.CustomerName)
	set(1, 5, "Email")
	set(2, 5, q.CustomerEmail)

	headers := []string{"#", "Item", "Code", "Description", "Qty", "Unit", "Unit Price", "Total", "Status"}
	headerRow := 7
	for i, h := range headers {
		set(i+1, headerRow, h)
	}

	partial := false
	readySubtotal := 0.0
	for i, item := range q.Items {
		r := headerRow + 1 + i
		set(1, r, i+1)
		set(2, r, item.ItemName)
		set(3, r, item.ItemCode)
		set(4, r, item.Description)
		set(5, r, item.Quantity)
		set(6, r, item.Unit)
		if item.IsPriced {
			set(7, r, item.UnitPrice)
			set(8, r, item.Total)
			readySubtotal += item.Total
		} else {
			set(7, r, "TBA")
			set(8, r, "TBA")
			partial = true
		}
		set(9, r, string(item.Status))
	}

	totalsRow := headerRow + len(q.Items) + 2
	if partial {
		set(7, totalsRow, "Subtotal (priced items)")
		set(8, totalsRow, Round2(readySubtotal))
		set(7, totalsRow+1, "VAT")
		set(8, totalsRow+1, Round2(readySubtotal*vatRate))
		set(7, totalsRow+2, "Grand Total (priced items)")
		set(8, totalsRow+2, Round2(readySubtotal*(1+vatRate)))
	} else {
		set(7, totalsRow, "Subtotal")
		set(8, totalsRow, Round2(q.TotalAmount/(1+vatRate)))
		set(7, totalsRow+1, "VAT")
		set(8, totalsRow+1, Round2(q.TotalAmount-q.TotalAmount/(1+vatRate)))
		set(7, totalsRow+2, "Grand Total")
		set(8, totalsRow+2, q.TotalAmount)
	}
	set(9, totalsRow, q.Currency)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
