// =============================================================================
// Spreadsheet Consolidator - Converter Module
// =============================================================================
//
// This module contains the first stage of a run: every spreadsheet in the
// source directory is converted into a delimited file in the intermediate
// directory.
//
// CONVERSION PIPELINE (per run):
//   1. Ensure the intermediate directory exists
//   2. Discover spreadsheets in the source directory (sorted by name)
//   3. For each spreadsheet:
//      a. Read the configured sheet into a table
//      b. Write <basename>.csv atomically
//      c. Record a succeeded / failed / skipped result
//   4. Return the processing summary
//
// ERROR HANDLING:
//   Failures are isolated per file. A missing sheet, a corrupt workbook or a
//   write error is logged with the file name and cause, recorded in the
//   summary, and processing moves on. No partial output is left behind for
//   a failed file. Only an unusable intermediate or source directory aborts
//   the stage.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/sheet-consolidator/internal/config"
	"github.com/ginjaninja78/sheet-consolidator/internal/csvwriter"
	"github.com/ginjaninja78/sheet-consolidator/internal/xlsxparser"
	"github.com/ginjaninja78/sheet-consolidator/pkg/utils"
)

// Stage is the stage name used in logs and summary reports.
const Stage = "convert"

// OutputExt is the extension of the files written by the converter.
const OutputExt = ".csv"

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter converts the spreadsheets of one source directory.
type Converter struct {
	cfg    *config.MainConfig
	logger zerolog.Logger
	runID  string
}

// New creates a new Converter. If runID is empty a fresh one is generated.
func New(cfg *config.MainConfig, logger zerolog.Logger, runID string) *Converter {
	if runID == "" {
		runID = utils.NewRunID()
	}
	return &Converter{
		cfg:    cfg,
		logger: logger.With().Str("stage", Stage).Logger(),
		runID:  runID,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run converts every spreadsheet in the source directory.
//
// The returned error is non-nil only when the stage could not run at all
// (directory problems or cancellation); per-file failures are reported in
// the summary.
func (c *Converter) Run(ctx context.Context) (*utils.ProcessingSummary, error) {
	summary := utils.NewSummary(c.runID, Stage)
	defer summary.Finish()

	if err := utils.EnsureDir(c.cfg.IntermediateDir); err != nil {
		return summary, err
	}

	files, err := utils.DiscoverFiles(c.cfg.SourceDir, c.cfg.Spreadsheet.Extension)
	if err != nil {
		return summary, err
	}

	if len(files) == 0 {
		c.logger.Warn().
			Str("dir", c.cfg.SourceDir).
			Msgf("No %s files found in %s", c.cfg.Spreadsheet.Extension, c.cfg.SourceDir)
		return summary, nil
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("conversion interrupted: %w", err)
		}
		summary.Add(c.ConvertFile(file))
	}

	c.logger.Info().
		Int("succeeded", summary.Succeeded()).
		Int("failed", summary.Failed()).
		Int("skipped", summary.Skipped()).
		Msgf("Converted %d of %d file(s)", summary.Succeeded(), len(files))

	return summary, nil
}

// ConvertFile converts a single spreadsheet and reports the outcome.
func (c *Converter) ConvertFile(path string) utils.FileResult {
	name := filepath.Base(path)
	log := c.logger.With().Str("file", name).Logger()
	result := utils.FileResult{FilePath: path}

	if utils.IsLockFile(path) {
		result.Status = utils.StatusSkipped
		result.Error = fmt.Errorf("office lock file")
		log.Info().Msgf("Skipping lock file %s", name)
		return result
	}

	log.Info().Msgf("Processing %s", name)

	outputPath, rows, err := c.convert(path)
	if err != nil {
		result.Status = utils.StatusFailed
		result.Error = err
		log.Error().Err(err).Msgf("Error processing %s", name)
		return result
	}

	result.Status = utils.StatusSucceeded
	result.OutputFile = outputPath
	result.Rows = rows
	log.Info().
		Int("rows", rows).
		Msgf("Successfully converted %s '%s' to %s", name, c.cfg.Spreadsheet.SheetName, filepath.Base(outputPath))
	return result
}

// convert reads the sheet and writes the delimited file.
func (c *Converter) convert(path string) (string, int, error) {
	table, err := xlsxparser.ReadSheet(path, c.cfg.Spreadsheet.SheetName, xlsxparser.ReadOptions{
		RawValues: c.cfg.Spreadsheet.RawValues,
	})
	if err != nil {
		return "", 0, err
	}

	outputPath := OutputPath(c.cfg.IntermediateDir, path)
	if err := csvwriter.Write(outputPath, table, csvwriter.OptionsFromSettings(c.cfg.CSV)); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	return outputPath, table.RowCount(), nil
}

// OutputPath returns where the delimited file for spreadsheet is written.
func OutputPath(dir, spreadsheet string) string {
	return filepath.Join(dir, utils.ReplaceExt(spreadsheet, OutputExt))
}
