// =============================================================================
// Spreadsheet Consolidator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser (produces tables from spreadsheet sheets)
//   - csvwriter  (serialises tables to delimited files)
//   - converter  (moves tables between the two)
//   - merger     (serialises the combined table)
//
// =============================================================================

package types

import "fmt"

// =============================================================================
// TABLE
// =============================================================================

// Table is a rectangular, in-memory table with a single header row.
// There is no index column: Rows hold only the values that appear under
// Headers, and every row has exactly len(Headers) cells.
type Table struct {
	// Headers contains the column names, in sheet order.
	Headers []string

	// Rows contains the data rows, in sheet order.
	Rows [][]string
}

// NewTable builds a Table and pads or truncates every row to the header width.
func NewTable(headers []string, rows [][]string) *Table {
	t := &Table{
		Headers: headers,
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, normalizeRow(row, len(headers)))
	}
	return t
}

// RowCount returns the number of data rows (the header is not counted).
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Headers)
}

// Records returns the header row followed by the data rows.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Headers)
	records = append(records, t.Rows...)
	return records
}

// UniqueHeaders returns a copy of headers in which an empty name at position
// i becomes "Unnamed: i" and repeated names get a ".N" suffix:
//
//   id, id, name, id  ->  id, id.1, name, id.2
//
// A suffixed name that collides with an existing one is suffixed again.
func UniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	counts := make(map[string]int, len(headers))
	for i, name := range headers {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		n := counts[name]
		for n > 0 {
			counts[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
			n = counts[name]
		}
		out[i] = name
		counts[name] = n + 1
	}
	return out
}

// normalizeRow returns a copy of row that is exactly width cells long.
func normalizeRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
