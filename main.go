// =============================================================================
// Spreadsheet Consolidator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Spreadsheet Consolidator CLI. It
// delegates to the Cobra commands in the cmd package.
//
// USAGE:
//   consolidator run        - Convert every spreadsheet, then merge the CSVs
//   consolidator convert    - Convert spreadsheets to CSV files only
//   consolidator merge      - Merge CSV files into one dataset only
//   consolidator version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core stages and their building blocks
//   - pkg/           : Shared file utilities
//   - magefiles/     : Developer build targets
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sheet-consolidator/cmd"
)

func main() {
	cmd.Execute()
}
