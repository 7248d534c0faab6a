// =============================================================================
// Spreadsheet Consolidator - Merger Module
// =============================================================================
//
// This module contains the second stage of a run: every delimited file in
// the intermediate directory is loaded and the tables are stacked row-wise
// into a single consolidated dataset.
//
// MERGE PIPELINE:
//   1. Discover *.csv files (sorted by name, output file excluded)
//   2. Load each file into a DataFrame
//   3. Union the frames row-wise, aligning columns by name
//   4. Write the combined table atomically to the output file
//
// COLUMN ALIGNMENT:
//   Columns appear in order of first appearance across the inputs. Rows from
//   a file that lacks a column get an empty cell in that column.
//
//   a.csv: id,name        b.csv: id,city        output: id,name,city
//          1,Ana                 2,Oslo                 1,Ana,
//                                                       2,,Oslo
//
// ERROR HANDLING:
//   - No input files: ErrNoInputFiles, nothing is written.
//   - A file fails to load: the stage aborts with a *LoadError and nothing
//     is written, unless merge.continue_on_error is set, in which case the
//     file is recorded as failed and skipped.
//   - Every file failed to load: ErrNothingLoaded.
//
// =============================================================================

package merger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/sheet-consolidator/internal/config"
	"github.com/ginjaninja78/sheet-consolidator/internal/csvparser"
	"github.com/ginjaninja78/sheet-consolidator/internal/csvwriter"
	"github.com/ginjaninja78/sheet-consolidator/pkg/utils"
)

// Stage is the stage name used in logs and summary reports.
const Stage = "merge"

// InputExt selects the files merged from the intermediate directory.
const InputExt = ".csv"

// =============================================================================
// ERRORS
// =============================================================================

// ErrNoInputFiles is returned when the input directory holds no delimited
// files.
var ErrNoInputFiles = errors.New("no input files found")

// ErrNothingLoaded is returned when files were found but none could be loaded.
var ErrNothingLoaded = errors.New("no input file could be loaded")

// LoadError reports the file that stopped the merge.
type LoadError struct {
	// Index is the 1-based position of the file in merge order.
	Index int
	File  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("file %d (%s) unreadable: %v", e.Index, filepath.Base(e.File), e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// =============================================================================
// MERGER STRUCTURE
// =============================================================================

// Merger combines the delimited files of one directory.
type Merger struct {
	cfg    *config.MainConfig
	logger zerolog.Logger
	runID  string
}

// New creates a new Merger. If runID is empty a fresh one is generated.
func New(cfg *config.MainConfig, logger zerolog.Logger, runID string) *Merger {
	if runID == "" {
		runID = utils.NewRunID()
	}
	return &Merger{
		cfg:    cfg,
		logger: logger.With().Str("stage", Stage).Logger(),
		runID:  runID,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run merges every delimited file in the intermediate directory into the
// output file.
func (m *Merger) Run(ctx context.Context) (*utils.ProcessingSummary, error) {
	summary := utils.NewSummary(m.runID, Stage)
	defer summary.Finish()

	dir := m.cfg.IntermediateDir
	files, err := m.discover(dir)
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		return summary, fmt.Errorf("%w in %s", ErrNoInputFiles, dir)
	}

	m.logger.Info().Msgf("Merging %d file(s) from %s", len(files), dir)

	var frames []dataframe.DataFrame
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("merge interrupted: %w", err)
		}

		name := filepath.Base(file)
		df, err := csvparser.Load(file, m.cfg.CSV)
		if err != nil {
			summary.Add(utils.FileResult{FilePath: file, Status: utils.StatusFailed, Error: err})
			loadErr := &LoadError{Index: i + 1, File: file, Err: err}
			if !m.cfg.Merge.ContinueOnError {
				return summary, loadErr
			}
			m.logger.Error().Err(err).Str("file", name).Msgf("Skipping %s", name)
			continue
		}

		summary.Add(utils.FileResult{FilePath: file, Status: utils.StatusSucceeded, Rows: df.Nrow()})
		m.logger.Debug().Str("file", name).Int("rows", df.Nrow()).Msgf("Loaded %s", name)
		frames = append(frames, df)
	}

	if len(frames) == 0 {
		return summary, fmt.Errorf("%w from %s", ErrNothingLoaded, dir)
	}

	combined, err := Union(frames)
	if err != nil {
		return summary, fmt.Errorf("failed to combine tables: %w", err)
	}

	if err := utils.EnsureDir(filepath.Dir(m.cfg.OutputFile)); err != nil {
		return summary, err
	}

	table := csvparser.ToTable(combined)
	if err := csvwriter.Write(m.cfg.OutputFile, table, csvwriter.OptionsFromSettings(m.cfg.CSV)); err != nil {
		return summary, fmt.Errorf("failed to write %s: %w", m.cfg.OutputFile, err)
	}
	summary.OutputFile = m.cfg.OutputFile

	m.logger.Info().
		Int("rows", table.RowCount()).
		Int("columns", table.ColumnCount()).
		Msgf("Wrote combined dataset to %s", m.cfg.OutputFile)

	return summary, nil
}

// discover lists the input files in merge order, leaving out the output file
// when it lives in the same directory.
func (m *Merger) discover(dir string) ([]string, error) {
	files, err := utils.DiscoverFiles(dir, InputExt)
	if err != nil {
		return nil, err
	}

	kept := files[:0]
	for _, f := range files {
		if utils.SamePath(f, m.cfg.OutputFile) {
			continue
		}
		kept = append(kept, f)
	}
	return kept, nil
}

// =============================================================================
// UNION
// =============================================================================

// Union stacks frames row-wise. Columns are aligned by name in order of first
// appearance; cells for columns a frame lacks are left empty.
func Union(frames []dataframe.DataFrame) (dataframe.DataFrame, error) {
	if len(frames) == 0 {
		return dataframe.DataFrame{}, ErrNoInputFiles
	}

	columns := ColumnUnion(frames)

	var combined dataframe.DataFrame
	for i, df := range frames {
		aligned, err := align(df, columns)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		if i == 0 {
			combined = aligned
			continue
		}
		combined = combined.RBind(aligned)
		if combined.Err != nil {
			return dataframe.DataFrame{}, combined.Err
		}
	}
	return combined, nil
}

// ColumnUnion returns the column names of all frames in order of first
// appearance.
func ColumnUnion(frames []dataframe.DataFrame) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, df := range frames {
		for _, name := range df.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			columns = append(columns, name)
		}
	}
	return columns
}

// align adds empty string columns for every name df lacks and reorders the
// columns to match names.
func align(df dataframe.DataFrame, names []string) (dataframe.DataFrame, error) {
	have := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		have[name] = true
	}

	for _, name := range names {
		if have[name] {
			continue
		}
		df = df.Mutate(series.New(make([]string, df.Nrow()), series.String, name))
		if df.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("failed to add column %q: %w", name, df.Err)
		}
	}

	df = df.Select(names)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to order columns: %w", df.Err)
	}
	return df, nil
}
