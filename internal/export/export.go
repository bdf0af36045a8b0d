// Package export writes chunk records to a spreadsheet for manual review.
package export

import (
	"fmt"

	"github.com/hyperjump/tebiki/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the records.
const SheetName = "records"

var header = []interface{}{"manual", "path", "chunk_index", "text", "characters"}

// WriteXLSX writes records to path as one worksheet with a header row, in the given order.
func WriteXLSX(path string, records []models.ChunkRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Manual, r.Path, r.ChunkIndex, r.Text, len([]rune(r.Text))}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write record %s: %w", r.Key(), err)
		}
	}
	if err := f.SetColWidth(SheetName, "B", "B", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "D", "D", 100); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// ReadXLSX reads records previously written by WriteXLSX.
func ReadXLSX(path string) ([]models.ChunkRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, err
	}
	var records []models.ChunkRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("row %d: expected 4 columns, got %d", i+1, len(row))
		}
		var chunk int
		if _, err := fmt.Sscanf(row[2], "%d", &chunk); err != nil {
			return nil, fmt.Errorf("row %d: chunk index %q: %w", i+1, row[2], err)
		}
		records = append(records, models.ChunkRecord{Manual: row[0], Path: row[1], ChunkIndex: chunk, Text: row[3]})
	}
	return records, nil
}
