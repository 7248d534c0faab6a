package xlsxparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sheetFixture struct {
	name string
	rows [][]interface{}
}

func writeWorkbook(t *testing.T, path string, sheets ...sheetFixture) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadSheet_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path,
		sheetFixture{name: "Summary", rows: [][]interface{}{{"ignored"}}},
		sheetFixture{name: "Data", rows: [][]interface{}{
			{"id", "name", "city"},
			{1, "Ana", "Lisboa"},
			{2, "Zoë", "Göteborg"},
		}},
	)

	tbl, err := ReadSheet(path, "Data", ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "city"}, tbl.Headers)
	assert.Equal(t, [][]string{
		{"1", "Ana", "Lisboa"},
		{"2", "Zoë", "Göteborg"},
	}, tbl.Rows)
}

func TestReadSheet_PadsAndSkipsBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.xlsx")
	writeWorkbook(t, path, sheetFixture{name: "Data", rows: [][]interface{}{
		{nil},
		{"a", nil, "c"},
		{"1"},
		{nil, nil, nil},
		{"2", "x", "y", "extra"},
	}})

	tbl, err := ReadSheet(path, "Data", ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "Unnamed: 1", "c", "Unnamed: 3"}, tbl.Headers)
	assert.Equal(t, [][]string{
		{"1", "", "", ""},
		{"2", "x", "y", "extra"},
	}, tbl.Rows)
}

func TestReadSheet_DuplicateHeadersAreSuffixed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupes.xlsx")
	writeWorkbook(t, path, sheetFixture{name: "Data", rows: [][]interface{}{
		{"id", "id", "name", nil, "id"},
		{1, 2, "Ana", "x", 3},
	}})

	tbl, err := ReadSheet(path, "Data", ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "id.1", "name", "Unnamed: 3", "id.2"}, tbl.Headers)
	assert.Equal(t, [][]string{{"1", "2", "Ana", "x", "3"}}, tbl.Rows)
}

func TestReadSheet_KeepsWhitespaceCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spaces.xlsx")
	writeWorkbook(t, path, sheetFixture{name: "Data", rows: [][]interface{}{
		{"a", "b"},
		{" ", nil},
		{"1", "2"},
	}})

	tbl, err := ReadSheet(path, "Data", ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{" ", ""}, {"1", "2"}}, tbl.Rows)
}

func TestReadSheet_Errors(t *testing.T) {
	dir := t.TempDir()

	noData := filepath.Join(dir, "nodata.xlsx")
	writeWorkbook(t, noData, sheetFixture{name: "data", rows: [][]interface{}{{"a"}, {"1"}}})
	_, err := ReadSheet(noData, "Data", ReadOptions{})
	assert.ErrorIs(t, err, ErrSheetNotFound)

	empty := filepath.Join(dir, "empty.xlsx")
	writeWorkbook(t, empty, sheetFixture{name: "Data"})
	_, err = ReadSheet(empty, "Data", ReadOptions{})
	assert.ErrorIs(t, err, ErrEmptySheet)

	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is not a workbook"), 0o644))
	_, err = ReadSheet(corrupt, "Data", ReadOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSheetNotFound)

	_, err = ReadSheet(filepath.Join(dir, "missing.xlsx"), "Data", ReadOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSheetNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path,
		sheetFixture{name: "First"},
		sheetFixture{name: "Data"},
	)

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Data"}, names)
}
