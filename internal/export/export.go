// Package export renders the processed email table for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"mailtriage/internal/model"
	"mailtriage/internal/repository"
)

const SheetName = "Processed Emails"

// WriteCSV writes the header and rows in the persisted column order.
func WriteCSV(w io.Writer, rows []*model.ProcessedEmail) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(repository.ToRecords(rows)); err != nil {
		return fmt.Errorf("write csv export: %w", err)
	}
	return nil
}

// WriteXLSX writes a single sheet workbook with one header row.
func WriteXLSX(w io.Writer, rows []*model.ProcessedEmail) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	for i, h := range model.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	for i, row := range rows {
		r := i + 2
		for col, value := range row.Record() {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			if col == 0 {
				_ = f.SetCellValue(SheetName, cell, row.ID)
				continue
			}
			_ = f.SetCellValue(SheetName, cell, value)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx export: %w", err)
	}
	return nil
}

// Filename returns the download name for the given extension.
func Filename(ext string) string {
	return "processed_emails." + ext
}
