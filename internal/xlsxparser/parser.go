// =============================================================================
// Spreadsheet Consolidator - XLSX Sheet Reader
// =============================================================================
//
// This module reads a single named sheet from an XLSX workbook and turns it
// into a types.Table.
//
// SHEET LAYOUT (Expected):
//
//   | Column A | Column B | Column C |
//   |----------|----------|----------|
//   | id       | name     | city     |   <- header row (first non-blank row)
//   | 1        | Ana      | Lisbon   |   <- data rows
//   |          |          |          |   <- empty rows are skipped
//   | 2        | Bo       |          |   <- short rows are padded
//
// HEADER RULES:
//   - The first non-blank row is the header.
//   - An empty header cell at 0-based position i is named "Unnamed: i".
//   - A repeated header name gets a ".N" suffix: id, id -> id, id.1
//   - The table is as wide as the widest row, header included.
//
// CELL VALUES:
//   By default, values are read as displayed (number formats applied).
//   ReadOptions.RawValues returns the stored values instead.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/sheet-consolidator/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrSheetNotFound is returned when the workbook has no sheet with the
// requested name. Sheet names are matched exactly.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrEmptySheet is returned when the requested sheet has no non-blank rows,
// so there is no header to write.
var ErrEmptySheet = errors.New("sheet is empty")

// =============================================================================
// READ OPTIONS
// =============================================================================

// ReadOptions controls how cell values are extracted.
type ReadOptions struct {
	// RawValues disables number formatting and returns stored cell values.
	RawValues bool
}

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ReadSheet opens the workbook at path and reads the named sheet.
//
// RETURNS:
//   - The sheet as a Table (header row + padded data rows).
//   - An error wrapping ErrSheetNotFound, ErrEmptySheet, or the underlying
//     open/read failure for corrupt or unreadable workbooks.
func ReadSheet(path, sheet string, opts ReadOptions) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return readSheet(f, sheet, opts)
}

// readSheet reads a sheet from an already opened workbook.
func readSheet(f *excelize.File, sheet string, opts ReadOptions) (*types.Table, error) {
	if !hasSheet(f, sheet) {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: opts.RawValues})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}

	return buildTable(rows, sheet)
}

// SheetNames lists the sheets of the workbook at path, in workbook order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// hasSheet reports whether the workbook contains a sheet named exactly name.
// excelize itself matches sheet names case-insensitively.
func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// buildTable turns raw sheet rows into a Table.
func buildTable(rows [][]string, sheet string) (*types.Table, error) {
	headerIndex := -1
	for i, row := range rows {
		if !isRowEmpty(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, sheet)
	}

	header := rows[headerIndex]
	width := len(header)

	var data [][]string
	for _, row := range rows[headerIndex+1:] {
		if isRowEmpty(row) {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		data = append(data, row)
	}

	return types.NewTable(headerNames(header, width), data), nil
}

// headerNames pads the header to width and makes every name unique.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	copy(names, header)
	return types.UniqueHeaders(names)
}

// isRowEmpty checks if every cell of a row is the empty string. Cells that
// hold only whitespace are values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
