// =============================================================================
// Spreadsheet Consolidator - Stage Commands
// =============================================================================
//
// This file defines the commands that execute the pipeline stages.
//
// COMMAND USAGE:
//   consolidator convert [flags]   spreadsheets -> intermediate CSV files
//   consolidator merge [flags]     intermediate CSV files -> consolidated CSV
//   consolidator run [flags]       convert, then merge
//
// EXIT STATUS:
//   - Conversion failures are isolated per file and do not change the exit
//     status, unless --fail-on-error (converter.fail_on_error) is set.
//   - Any merge failure (no input files, unreadable file, write error) exits
//     non-zero with a classified message.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sheet-consolidator/internal/converter"
	"github.com/ginjaninja78/sheet-consolidator/internal/merger"
	"github.com/ginjaninja78/sheet-consolidator/pkg/utils"
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// runCmd represents the 'run' command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert every spreadsheet, then merge the results",
	Long: `The run command executes both stages in order. The convert stage reads
the configured sheet from every spreadsheet in the source directory and writes
one CSV file per spreadsheet into the intermediate directory. The merge stage
then stacks every CSV file in the intermediate directory into the output file.

Files are processed in file name order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runConvert(cmd.Context()); err != nil {
			return err
		}
		return runMerge(cmd.Context())
	},
}

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert spreadsheets to CSV files",
	Long: `The convert command reads the configured sheet (default "Data") from every
spreadsheet in the source directory and writes it as <name>.csv into the
intermediate directory, UTF-8 encoded with a byte-order marker.

A spreadsheet that cannot be converted (missing sheet, corrupt file) is
logged and skipped; the remaining files are still converted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.Context())
	},
}

// mergeCmd represents the 'merge' command.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge CSV files into a single dataset",
	Long: `The merge command loads every CSV file in the intermediate directory and
writes their rows, stacked in file name order, to the output file. Columns are
matched by name; rows from files that lack a column get an empty value.

The merge fails when the directory holds no CSV files or, unless
--continue-on-error is set, when any file cannot be read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(cmd.Context())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	for _, c := range []*cobra.Command{runCmd, convertCmd, mergeCmd} {
		addStageFlags(c)
		rootCmd.AddCommand(c)
	}
}

// =============================================================================
// STAGE FUNCTIONS
// =============================================================================

// runConvert executes the convert stage.
func runConvert(ctx context.Context) error {
	summary, err := converter.New(appConfig, logger, runID).Run(ctx)
	reportSummary(summary)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	if appConfig.Converter.FailOnError && summary.Failed() > 0 {
		return fmt.Errorf("convert: %d of %d file(s) failed to convert",
			summary.Failed(), len(summary.Results))
	}
	return nil
}

// runMerge executes the merge stage.
func runMerge(ctx context.Context) error {
	summary, err := merger.New(appConfig, logger, runID).Run(ctx)
	reportSummary(summary)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}

// reportSummary logs the stage totals and, when configured, writes the
// summary report.
func reportSummary(summary *utils.ProcessingSummary) {
	if summary == nil {
		return
	}

	logger.Info().
		Str("stage", summary.Stage).
		Int("succeeded", summary.Succeeded()).
		Int("failed", summary.Failed()).
		Int("skipped", summary.Skipped()).
		Int("rows", summary.TotalRows()).
		Dur("elapsed", summary.Duration()).
		Msgf("Finished %s stage", summary.Stage)

	if appConfig.SummaryDir == "" {
		return
	}
	path, err := utils.WriteSummaryLog(summary, appConfig.SummaryDir)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to write summary report")
		return
	}
	logger.Info().Str("stage", summary.Stage).Msgf("Summary report written to %s", path)
}
