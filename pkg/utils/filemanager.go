// =============================================================================
// Spreadsheet Consolidator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities shared by both stages:
//   - File discovery (sorted, extension-filtered, non-recursive)
//   - Directory management
//   - Atomic file writes (temporary file + rename)
//   - Run identifiers
//   - Processing summaries and summary reports
//
// ORDERING:
//   Discovery always returns paths in lexicographic order so that conversion
//   and merge order do not depend on the filesystem.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and any missing parents. An existing directory is
// not an error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverFiles lists the regular files directly inside dir whose extension
// matches ext (case-insensitive, with or without the leading dot).
// The result is sorted lexicographically by file name.
func DiscoverFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	// os.ReadDir already sorts by name; keep the guarantee explicit.
	sort.Strings(files)
	return files, nil
}

// IsLockFile reports whether path is an office owner/lock file ("~$name.xlsx")
// left behind while a workbook is open.
func IsLockFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "~$")
}

// SamePath reports whether a and b refer to the same location once made
// absolute and cleaned.
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// ReplaceExt returns the base name of path with its extension replaced by ext.
func ReplaceExt(path, ext string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes path by streaming into a temporary file in the same
// directory and renaming it into place. If write returns an error, the
// temporary file is removed and path is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// =============================================================================
// RUN IDENTIFIERS
// =============================================================================

// NewRunID returns a random identifier attached to every log line and
// summary report of a single invocation.
func NewRunID() string {
	return uuid.New().String()
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// Status is the outcome of processing a single file.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// FileResult represents the outcome of processing a single file.
type FileResult struct {
	// FilePath is the input file that was processed.
	FilePath string

	// OutputFile is the file written for this input, empty unless succeeded.
	OutputFile string

	// Status is succeeded, failed or skipped.
	Status Status

	// Error is the cause of a failure or the reason for a skip.
	Error error

	// Rows is the number of data rows read (header excluded).
	Rows int
}

// ProcessingSummary contains summary information about one stage of a run.
type ProcessingSummary struct {
	RunID      string
	Stage      string
	StartTime  time.Time
	EndTime    time.Time
	OutputFile string
	Results    []FileResult
}

// NewSummary starts a summary for stage, stamped with the current time.
func NewSummary(runID, stage string) *ProcessingSummary {
	return &ProcessingSummary{
		RunID:     runID,
		Stage:     stage,
		StartTime: time.Now(),
	}
}

// Add records a file result.
func (s *ProcessingSummary) Add(r FileResult) {
	s.Results = append(s.Results, r)
}

// Finish stamps the end time.
func (s *ProcessingSummary) Finish() {
	s.EndTime = time.Now()
}

// Count returns the number of results with the given status.
func (s *ProcessingSummary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (s *ProcessingSummary) Succeeded() int { return s.Count(StatusSucceeded) }
func (s *ProcessingSummary) Failed() int    { return s.Count(StatusFailed) }
func (s *ProcessingSummary) Skipped() int   { return s.Count(StatusSkipped) }

// TotalRows sums the rows of every successful result.
func (s *ProcessingSummary) TotalRows() int {
	total := 0
	for _, r := range s.Results {
		if r.Status == StatusSucceeded {
			total += r.Rows
		}
	}
	return total
}

// Duration returns the elapsed time between StartTime and EndTime.
func (s *ProcessingSummary) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// =============================================================================
// SUMMARY REPORT
// =============================================================================

// WriteSummaryLog writes a processing summary to a text report in outputDir
// and returns its path. The file name carries the stage, a timestamp and the
// run identifier so that reports from separate runs never collide.
func WriteSummaryLog(summary *ProcessingSummary, outputDir string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_summary_%s_%s.txt",
		summary.Stage,
		summary.StartTime.Format("20060102_150405"),
		summary.RunID)
	path := filepath.Join(outputDir, name)

	err := WriteFileAtomic(path, func(w io.Writer) error {
		return writeSummary(w, summary)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}

func writeSummary(w io.Writer, summary *ProcessingSummary) error {
	const rule = "================================================================================\n"
	const thin = "--------------------------------------------------------------------------------\n"

	var b strings.Builder
	fmt.Fprintf(&b, "Spreadsheet Consolidator - %s Summary\n", strings.ToUpper(summary.Stage))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.Duration().String())
	fmt.Fprintf(&b, "Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Succeeded:      %d\n"+
		"  Failed:         %d\n"+
		"  Skipped:        %d\n"+
		"  Total Rows:     %d\n",
		len(summary.Results),
		summary.Succeeded(),
		summary.Failed(),
		summary.Skipped(),
		summary.TotalRows())
	if summary.OutputFile != "" {
		fmt.Fprintf(&b, "  Output File:    %s\n", summary.OutputFile)
	}
	b.WriteString("\n")

	sections := []struct {
		title  string
		status Status
	}{
		{"Succeeded Files", StatusSucceeded},
		{"Failed Files", StatusFailed},
		{"Skipped Files", StatusSkipped},
	}
	for _, sec := range sections {
		if summary.Count(sec.status) == 0 {
			continue
		}
		b.WriteString(sec.title + ":\n" + thin)
		for _, r := range summary.Results {
			if r.Status != sec.status {
				continue
			}
			fmt.Fprintf(&b, "  File:   %s\n", r.FilePath)
			if r.OutputFile != "" {
				fmt.Fprintf(&b, "  Output: %s\n", r.OutputFile)
			}
			if r.Status == StatusSucceeded {
				fmt.Fprintf(&b, "  Rows:   %d\n", r.Rows)
			}
			if r.Error != nil {
				fmt.Fprintf(&b, "  Reason: %v\n", r.Error)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(rule + "End of Summary\n")
	_, err := io.WriteString(w, b.String())
	return err
}
