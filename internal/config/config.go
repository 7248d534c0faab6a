// =============================================================================
// Spreadsheet Consolidator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. A single YAML file describes where inputs and outputs live
// and how spreadsheets and delimited files are read and written.
//
// CONFIGURATION FILE (consolidator.yaml):
//
//   source_dir: ./data/raw/xlsx
//   intermediate_dir: ./data/raw/csv
//   output_file: ./data/processed/master_dataset.csv
//   summary_dir: ""
//   log_level: info
//   spreadsheet:
//     sheet_name: Data
//     extension: .xlsx
//     raw_values: false
//   csv:
//     delimiter: ","
//     write_bom: true
//     use_crlf: false
//   converter:
//     fail_on_error: false
//   merge:
//     continue_on_error: false
//
// PRECEDENCE:
//   Command-line flags > CONSOLIDATOR_* environment variables > file > defaults.
//   Flag and environment overrides are applied by the cmd package through
//   ApplyOverrides; this package only knows about the file and the defaults.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// DEFAULT VALUES
// =============================================================================

const (
	DefaultSourceDir       = "./data/raw/xlsx"
	DefaultIntermediateDir = "./data/raw/csv"
	DefaultOutputFile      = "./data/processed/master_dataset.csv"
	DefaultLogLevel        = "info"
	DefaultSheetName       = "Data"
	DefaultExtension       = ".xlsx"
	DefaultDelimiter       = ","
)

// ErrInvalidConfig is returned (wrapped) when a loaded configuration fails
// validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// SourceDir is the directory scanned for spreadsheet files.
	SourceDir string `yaml:"source_dir"`

	// IntermediateDir receives one delimited file per converted spreadsheet
	// and is the input directory of the merge stage.
	IntermediateDir string `yaml:"intermediate_dir"`

	// OutputFile is the path of the consolidated dataset.
	OutputFile string `yaml:"output_file"`

	// SummaryDir, when set, receives a plain-text summary report per stage.
	// Empty disables the reports.
	SummaryDir string `yaml:"summary_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is the minimum level written to the console.
	// Valid values: "debug", "info", "warn", "error"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// FORMAT SETTINGS
	// =========================================================================

	Spreadsheet SpreadsheetSettings `yaml:"spreadsheet"`
	CSV         CSVSettings         `yaml:"csv"`

	// =========================================================================
	// FAILURE POLICY
	// =========================================================================

	Converter ConverterSettings `yaml:"converter"`
	Merge     MergeSettings     `yaml:"merge"`
}

// SpreadsheetSettings controls how spreadsheet inputs are found and read.
type SpreadsheetSettings struct {
	// SheetName is the sheet read from every workbook.
	SheetName string `yaml:"sheet_name"`

	// Extension selects which files in SourceDir are spreadsheets.
	// Matching is case-insensitive.
	Extension string `yaml:"extension"`

	// RawValues reads unformatted cell values instead of the displayed text.
	RawValues bool `yaml:"raw_values"`
}

// CSVSettings contains settings shared by every delimited file the
// application reads or writes.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" (pipe), "\t" or "tab", ";" (semicolon)
	Delimiter string `yaml:"delimiter"`

	// WriteBOM prefixes written files with a UTF-8 byte-order marker so that
	// spreadsheet tools detect the encoding.
	WriteBOM *bool `yaml:"write_bom"`

	// UseCRLF terminates written lines with \r\n instead of \n.
	UseCRLF bool `yaml:"use_crlf"`
}

// ConverterSettings controls how conversion failures are reported.
type ConverterSettings struct {
	// FailOnError makes the command exit non-zero when any spreadsheet failed
	// to convert. Failures are always isolated per file either way.
	FailOnError bool `yaml:"fail_on_error"`
}

// MergeSettings controls how the merge stage treats unreadable files.
type MergeSettings struct {
	// ContinueOnError skips unreadable delimited files instead of aborting
	// the merge.
	ContinueOnError bool `yaml:"continue_on_error"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration populated with default values only.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and validates the result.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like LoadMainConfig, except that a missing file is
// not an error when required is false: the defaults are returned instead.
func LoadOrDefault(configPath string, required bool) (*MainConfig, error) {
	cfg, err := LoadMainConfig(configPath)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(cfg *MainConfig) {
	if cfg.SourceDir == "" {
		cfg.SourceDir = DefaultSourceDir
	}
	if cfg.IntermediateDir == "" {
		cfg.IntermediateDir = DefaultIntermediateDir
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = DefaultOutputFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Spreadsheet.SheetName == "" {
		cfg.Spreadsheet.SheetName = DefaultSheetName
	}
	if cfg.Spreadsheet.Extension == "" {
		cfg.Spreadsheet.Extension = DefaultExtension
	}
	if !strings.HasPrefix(cfg.Spreadsheet.Extension, ".") {
		cfg.Spreadsheet.Extension = "." + cfg.Spreadsheet.Extension
	}
	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = DefaultDelimiter
	}
	if cfg.CSV.WriteBOM == nil {
		bom := true
		cfg.CSV.WriteBOM = &bom
	}
}

// Validate checks the configuration for values that cannot work.
// Unlike the loader defaults, it never touches the filesystem.
func (c *MainConfig) Validate() error {
	if _, err := ParseDelimiter(c.CSV.Delimiter); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	if filepath.Clean(c.SourceDir) == filepath.Clean(c.IntermediateDir) {
		return fmt.Errorf("%w: source_dir and intermediate_dir must differ", ErrInvalidConfig)
	}

	if strings.EqualFold(filepath.Ext(c.OutputFile), c.Spreadsheet.Extension) {
		return fmt.Errorf("%w: output_file must not use the spreadsheet extension", ErrInvalidConfig)
	}

	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// BOM reports whether written files start with a UTF-8 byte-order marker.
func (s CSVSettings) BOM() bool {
	return s.WriteBOM == nil || *s.WriteBOM
}

// Comma returns the delimiter as a rune. The settings are expected to have
// passed Validate; an invalid delimiter falls back to a comma.
func (s CSVSettings) Comma() rune {
	r, err := ParseDelimiter(s.Delimiter)
	if err != nil {
		return ','
	}
	return r
}

// ParseDelimiter converts a configured delimiter into the rune used by the
// CSV reader and writer. Named aliases are accepted for characters that are
// awkward to write in YAML.
func ParseDelimiter(value string) (rune, error) {
	switch value {
	case "", ",", "comma":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}

	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", value)
	}

	r, _ := utf8.DecodeRuneInString(value)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %s is not allowed", strconv.QuoteRune(r))
	}
	return r, nil
}

// =============================================================================
// OVERRIDES
// =============================================================================

// Lookup resolves an override for a configuration key (for example
// "source_dir" or "spreadsheet.sheet_name"). ok is false when the key has no
// override.
type Lookup func(key string) (value string, ok bool)

// ApplyOverrides replaces configuration values for every key that lookup
// resolves, then re-validates the configuration.
func (c *MainConfig) ApplyOverrides(lookup Lookup) error {
	strs := map[string]*string{
		"source_dir":             &c.SourceDir,
		"intermediate_dir":       &c.IntermediateDir,
		"output_file":            &c.OutputFile,
		"summary_dir":            &c.SummaryDir,
		"log_level":              &c.LogLevel,
		"spreadsheet.sheet_name": &c.Spreadsheet.SheetName,
		"spreadsheet.extension":  &c.Spreadsheet.Extension,
		"csv.delimiter":          &c.CSV.Delimiter,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"spreadsheet.raw_values":  &c.Spreadsheet.RawValues,
		"csv.use_crlf":            &c.CSV.UseCRLF,
		"converter.fail_on_error": &c.Converter.FailOnError,
		"merge.continue_on_error": &c.Merge.ContinueOnError,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			*dst = b
		}
	}

	if v, ok := lookup("csv.write_bom"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: csv.write_bom: %v", ErrInvalidConfig, err)
		}
		c.CSV.WriteBOM = &b
	}

	applyMainConfigDefaults(c)
	return c.Validate()
}

// Keys lists every key understood by ApplyOverrides.
func Keys() []string {
	return []string{
		"source_dir",
		"intermediate_dir",
		"output_file",
		"summary_dir",
		"log_level",
		"spreadsheet.sheet_name",
		"spreadsheet.extension",
		"spreadsheet.raw_values",
		"csv.delimiter",
		"csv.write_bom",
		"csv.use_crlf",
		"converter.fail_on_error",
		"merge.continue_on_error",
	}
}
