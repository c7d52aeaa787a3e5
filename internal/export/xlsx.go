// Package export writes table snapshots to spreadsheet files.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tablechat/internal/logging"
	"tablechat/internal/table"
)

// DefaultSheetName is the worksheet the snapshot is written to.
const DefaultSheetName = "Table"

// WriteXLSX writes the headers and values of s to a new workbook at path,
// replacing any existing file. Export is one-way.
func WriteXLSX(s *table.Snapshot, path string) error {
	if s == nil {
		return fmt.Errorf("export: nil snapshot")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than adding one
	if err := f.SetSheetName(f.GetSheetName(0), DefaultSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerValues := make([]interface{}, len(s.Headers))
	for i, h := range s.Headers {
		headerValues[i] = h
	}
	if err := f.SetSheetRow(DefaultSheetName, "A1", &headerValues); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if len(s.Headers) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(s.Headers), 1)
		if err != nil {
			return fmt.Errorf("failed to resolve header range: %w", err)
		}
		if err := f.SetCellStyle(DefaultSheetName, "A1", last, style); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r := range s.Rows {
		rowValues := make([]interface{}, len(s.Rows[r]))
		for c, cell := range s.Rows[r] {
			rowValues[c] = cell.Value
		}
		cell := fmt.Sprintf("A%d", r+2)
		if err := f.SetSheetRow(DefaultSheetName, cell, &rowValues); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	logging.Get(logging.CategoryExport).Info("table exported",
		zap.String("path", path), zap.Int("rows", s.RowCount()), zap.Int("columns", s.ColumnCount()))
	return nil
}
