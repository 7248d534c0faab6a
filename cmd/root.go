// =============================================================================
// Spreadsheet Consolidator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (consolidator)
//   ├── runCmd     (consolidator run)      convert, then merge
//   ├── convertCmd (consolidator convert)  spreadsheets -> delimited files
//   ├── mergeCmd   (consolidator merge)    delimited files -> one dataset
//   └── versionCmd (consolidator version)
//
// CONFIGURATION:
//   Before any stage command runs, the root command:
//   1. Loads the YAML configuration (optional unless --config is given)
//   2. Applies CONSOLIDATOR_* environment variables and command-line flags
//      on top of it (flags win)
//   3. Sets up the console logger and the run identifier
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/sheet-consolidator/internal/config"
	"github.com/ginjaninja78/sheet-consolidator/internal/logging"
	"github.com/ginjaninja78/sheet-consolidator/pkg/utils"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// CONSOLIDATOR_SOURCE_DIR or CONSOLIDATOR_SPREADSHEET_SHEET_NAME.
const EnvPrefix = "CONSOLIDATOR"

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// appConfig is the resolved configuration of the current invocation.
var appConfig *config.MainConfig

// logger is the console logger of the current invocation.
var logger zerolog.Logger

// runID identifies the current invocation in logs and summary reports.
var runID string

// stageFlags maps stage command flags to configuration keys.
var stageFlags = map[string]string{
	"source-dir":        "source_dir",
	"intermediate-dir":  "intermediate_dir",
	"output-file":       "output_file",
	"sheet":             "spreadsheet.sheet_name",
	"summary-dir":       "summary_dir",
	"continue-on-error": "merge.continue_on_error",
	"fail-on-error":     "converter.fail_on_error",
	"log-level":         "log_level",
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "consolidator",
	Short: "Spreadsheet Consolidator - Convert XLSX sheets to CSV and merge them into one dataset",
	Long: `Spreadsheet Consolidator is a batch ETL tool that prepares spreadsheet
exports for loading into a database.

It works in two stages:
  1. convert: read the "Data" sheet of every .xlsx file in the source
     directory and write it as a CSV file into the intermediate directory
  2. merge:   stack every CSV file in the intermediate directory into a
     single consolidated dataset

Example Usage:
  consolidator run                                  # Convert, then merge
  consolidator run --config ./consolidator.yaml     # Use a configuration file
  consolidator convert --source-dir ./xlsx --sheet Export
  CONSOLIDATOR_OUTPUT_FILE=./all.csv consolidator merge`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd || cmd == cmd.Root() {
			return nil
		}
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command with a context that is cancelled on SIGINT
// or SIGTERM. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"consolidator.yaml",
		"Path to the configuration file (optional unless set explicitly)",
	)

	rootCmd.PersistentFlags().String(
		"log-level",
		"",
		"Minimum log level: debug, info, warn, error (default info)",
	)
}

// addStageFlags registers the path and policy flags shared by the stage
// commands.
func addStageFlags(cmd *cobra.Command) {
	cmd.Flags().String("source-dir", "", "Directory containing the spreadsheet files")
	cmd.Flags().String("intermediate-dir", "", "Directory receiving one CSV file per spreadsheet")
	cmd.Flags().String("output-file", "", "Path of the consolidated dataset")
	cmd.Flags().String("sheet", "", "Name of the sheet read from every spreadsheet (default Data)")
	cmd.Flags().String("summary-dir", "", "Write a summary report per stage into this directory")
	cmd.Flags().Bool("continue-on-error", false, "Skip unreadable CSV files during the merge instead of aborting")
	cmd.Flags().Bool("fail-on-error", false, "Exit non-zero when any spreadsheet fails to convert")
}

// initConfig resolves the configuration, logger and run identifier for cmd.
func initConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	v, err := newOverrides(cmd.Flags())
	if err != nil {
		return err
	}

	if err := cfg.ApplyOverrides(viperLookup(v)); err != nil {
		return err
	}

	appConfig = cfg
	runID = utils.NewRunID()
	logger = logging.New(cmd.OutOrStdout(), cfg.LogLevel).
		With().Str("run_id", runID).Logger()

	return nil
}

// newOverrides builds a viper instance that resolves configuration keys from
// changed flags and CONSOLIDATOR_* environment variables.
func newOverrides(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range config.Keys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	for flagName, key := range stageFlags {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", flagName, err)
		}
	}

	return v, nil
}

// viperLookup adapts v to config.Lookup. Only keys that were explicitly set
// by a flag or an environment variable resolve.
func viperLookup(v *viper.Viper) config.Lookup {
	return func(key string) (string, bool) {
		if !v.IsSet(key) {
			return "", false
		}
		return v.GetString(key), true
	}
}
