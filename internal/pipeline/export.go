package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"woldo/internal"
	"woldo/internal/util"
)

const (
	orderFilePrefix   = "월도발주서"
	invoiceFilePrefix = "네이버송장"
)

func DefaultOrderFileName(now time.Time) string {
	return orderFilePrefix + "_" + now.Format("20060102") + ".xlsx"
}

func DefaultInvoiceFileName(now time.Time) string {
	return invoiceFilePrefix + "_" + now.Format("20060102") + ".xlsx"
}

func ExportOrdersToXLSX(records []internal.OutputRecord, outputPath string) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	return writeXLSX(internal.OutputColumns, rows, outputPath, true)
}

func ExportInvoicesToXLSX(records []internal.InvoiceOutputRecord, outputPath string) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	return writeXLSX(internal.InvoiceOutputColumns, rows, outputPath, false)
}

// writeXLSX writes a header row and data rows to the first sheet. With
// numeric set, plain numbers become numeric cells.
func writeXLSX(headers []string, rows [][]string, outputPath string, numeric bool) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			var v any = value
			if numeric {
				v = cellValue(value)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "write cell %s", cell)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// cellValue stores plain numbers as numeric cells; everything else, including
// phone numbers, codes with leading zeros and ids longer than Excel's 15
// significant digits, stays text.
func cellValue(v string) any {
	if len(v) > 15 || !util.IsPlainNumber(v) {
		return v
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
