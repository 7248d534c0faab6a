// =============================================================================
// Spreadsheet Consolidator - Delimited File Loader
// =============================================================================
//
// This module loads delimited text files into gota DataFrames for the merge
// stage. Loading is deliberately literal:
//   - Every column is a string column (no type detection), so values such as
//     "007" or "1e3" survive a load/write cycle unchanged.
//   - No value is rewritten as NaN ("NA" stays "NA").
//   - A leading UTF-8 byte-order marker is removed before parsing, so the
//     first header name is clean.
//   - Blank lines are ignored; every other row must have as many fields as
//     the header.
//   - Header names are made unique before gota sees them (empty -> "Unnamed: i",
//     repeats -> "name.1"), the same rule the spreadsheet reader applies, so
//     names never pick up gota's "_0" suffixes.
//   - A header without data rows loads as a zero-row frame.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/ginjaninja78/sheet-consolidator/internal/config"
	"github.com/ginjaninja78/sheet-consolidator/internal/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoHeader is returned for input without a single record.
var ErrNoHeader = errors.New("no header row")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Load reads the delimited file at path into a DataFrame.
func Load(path string, settings config.CSVSettings) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	df, err := Read(file, settings)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return df, nil
}

// Read parses delimited text from r into a DataFrame.
func Read(r io.Reader, settings config.CSVSettings) (dataframe.DataFrame, error) {
	reader, err := skipBOM(bufio.NewReader(r))
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	cr := csv.NewReader(reader)
	cr.Comma = settings.Comma()
	records, err := cr.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, ErrNoHeader
	}

	records[0] = types.UniqueHeaders(records[0])
	if len(records) == 1 {
		return emptyFrame(records[0])
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// emptyFrame builds a zero-row frame of string columns. gota refuses to load
// a header without data rows.
func emptyFrame(headers []string) (dataframe.DataFrame, error) {
	columns := make([]series.Series, len(headers))
	for i, name := range headers {
		columns[i] = series.New([]string{}, series.String, name)
	}
	df := dataframe.New(columns...)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// skipBOM discards a leading UTF-8 byte-order marker, if present.
func skipBOM(r *bufio.Reader) (*bufio.Reader, error) {
	head, err := r.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read: %w", err)
	}
	if bytes.Equal(head, utf8BOM) {
		if _, err := r.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("failed to read: %w", err)
		}
	}
	return r, nil
}

// =============================================================================
// CONVERSION
// =============================================================================

// ToTable converts a DataFrame into a types.Table.
func ToTable(df dataframe.DataFrame) *types.Table {
	records := df.Records()
	if len(records) == 0 {
		return types.NewTable(nil, nil)
	}
	return types.NewTable(records[0], records[1:])
}
