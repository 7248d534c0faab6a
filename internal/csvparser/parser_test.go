package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sheet-consolidator/internal/config"
)

func defaultSettings() config.CSVSettings {
	return config.Default().CSV
}

func TestRead_KeepsValuesLiteral(t *testing.T) {
	input := "\uFEFFcode,label,amount\n007,NA,1e3\n010,Zoë,\n"

	df, err := Read(strings.NewReader(input), defaultSettings())
	require.NoError(t, err)

	assert.Equal(t, []string{"code", "label", "amount"}, df.Names())
	assert.Equal(t, 2, df.Nrow())

	tbl := ToTable(df)
	assert.Equal(t, [][]string{
		{"007", "NA", "1e3"},
		{"010", "Zoë", ""},
	}, tbl.Rows)
}

func TestRead_HeaderOnly(t *testing.T) {
	df, err := Read(strings.NewReader("a,b\n"), defaultSettings())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, df.Names())
	assert.Equal(t, 0, df.Nrow())
}

func TestRead_DuplicateAndEmptyHeaders(t *testing.T) {
	df, err := Read(strings.NewReader("id,id,,name\n1,2,x,Ana\n"), defaultSettings())
	require.NoError(t, err)

	tbl := ToTable(df)
	assert.Equal(t, []string{"id", "id.1", "Unnamed: 2", "name"}, tbl.Headers)
	assert.Equal(t, [][]string{{"1", "2", "x", "Ana"}}, tbl.Rows)
}

func TestRead_HeaderOnlyWithDuplicates(t *testing.T) {
	df, err := Read(strings.NewReader("\uFEFFa,a\n"), defaultSettings())
	require.NoError(t, err)

	tbl := ToTable(df)
	assert.Equal(t, []string{"a", "a.1"}, tbl.Headers)
	assert.Empty(t, tbl.Rows)
}

func TestRead_CustomDelimiter(t *testing.T) {
	settings := defaultSettings()
	settings.Delimiter = ";"

	df, err := Read(strings.NewReader("a;b\n1,5;2\n"), settings)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1,5", "2"}}, ToTable(df).Rows)
}

func TestRead_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"bom only":     "\uFEFF",
		"ragged":       "a,b\n1,2,3\n",
		"broken quote": "a,b\n\"1,2\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(input), defaultSettings())
			assert.Error(t, err)
		})
	}

	_, err := Read(strings.NewReader("\n\n"), defaultSettings())
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestLoad_WrapsPath(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte(""), 0o644))

	_, err := Load(bad, defaultSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv")

	_, err = Load(filepath.Join(dir, "missing.csv"), defaultSettings())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
