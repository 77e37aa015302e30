package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/comp-collector/internal/types"
)

// SheetName is the worksheet holding the report table.
const SheetName = "Job Data"

const maxColumnWidth = 50

// WriteXLSX writes the report table as a workbook with one sheet. Column
// widths fit the longest cell, capped at 50.
func WriteXLSX(w io.Writer, report types.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	table := append([][]string{tableHeaders(report)}, report.Rows...)
	widths := make([]int, len(table[0]))
	for r, row := range table {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if c < len(widths) {
				widths[c] = max(widths[c], utf8.RuneCountInString(value))
			}
		}
	}

	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(min(width+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the report table with a header row.
func WriteCSV(w io.Writer, report types.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeaders(report)); err != nil {
		return err
	}
	if err := cw.WriteAll(report.Rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func tableHeaders(report types.Report) []string {
	if len(report.Headers) > 0 {
		return report.Headers
	}
	return Headers()
}
