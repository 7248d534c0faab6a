package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "A.XLSX", "c.csv", "a.xlsx", "notes.txt"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	files, err := DiscoverFiles(dir, "xlsx")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"A.XLSX", "a.xlsx", "b.xlsx"}, names)
}

func TestDiscoverFiles_MissingDir(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "missing"), ".csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	assert.True(t, FileExists(dir))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	boom := errors.New("boom")
	err = WriteFileAtomic(filepath.Join(dir, "bad.csv"), func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "failed write must leave nothing behind")
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsLockFile("/x/~$report.xlsx"))
	assert.False(t, IsLockFile("/x/report.xlsx"))
	assert.Equal(t, "report.csv", ReplaceExt("/x/report.xlsx", ".csv"))
	assert.True(t, SamePath("./a/../b.csv", "b.csv"))
	assert.NotEmpty(t, NewRunID())
	assert.NotEqual(t, NewRunID(), NewRunID())
}

func TestProcessingSummary_Counts(t *testing.T) {
	s := NewSummary("run-1", "convert")
	s.Add(FileResult{FilePath: "a.xlsx", Status: StatusSucceeded, Rows: 3})
	s.Add(FileResult{FilePath: "b.xlsx", Status: StatusFailed, Error: errors.New("sheet missing")})
	s.Add(FileResult{FilePath: "c.xlsx", Status: StatusSucceeded, Rows: 2})
	s.Add(FileResult{FilePath: "~$c.xlsx", Status: StatusSkipped})
	s.Finish()

	assert.Equal(t, 2, s.Succeeded())
	assert.Equal(t, 1, s.Failed())
	assert.Equal(t, 1, s.Skipped())
	assert.Equal(t, 5, s.TotalRows())
	assert.GreaterOrEqual(t, s.Duration().Nanoseconds(), int64(0))
}

func TestWriteSummaryLog(t *testing.T) {
	s := NewSummary("run-42", "merge")
	s.OutputFile = "/data/master.csv"
	s.Add(FileResult{FilePath: "a.csv", Status: StatusSucceeded, Rows: 10})
	s.Add(FileResult{FilePath: "b.csv", Status: StatusFailed, Error: errors.New("bad quote")})
	s.Finish()

	path, err := WriteSummaryLog(s, filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "merge_summary_"))
	assert.True(t, strings.HasSuffix(path, "_run-42.txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(data)
	assert.Contains(t, report, "MERGE Summary")
	assert.Contains(t, report, "Succeeded:      1")
	assert.Contains(t, report, "Failed:         1")
	assert.Contains(t, report, "Reason: bad quote")
	assert.Contains(t, report, "Output File:    /data/master.csv")
}
