// =============================================================================
// Spreadsheet Consolidator - Delimited Writer Module
// =============================================================================
//
// This module serialises a types.Table to a delimited text file. It is used
// for both the per-workbook intermediate files and the consolidated output.
//
// OUTPUT FORMAT:
//   [BOM] header row
//         data rows...
//
//   - UTF-8, optionally prefixed with the byte-order marker EF BB BF so that
//     spreadsheet tools open non-ASCII text correctly.
//   - Fields are quoted only when they contain the delimiter, a quote, or a
//     line break.
//   - No index column is ever emitted.
//
// =============================================================================

package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/sheet-consolidator/internal/config"
	"github.com/ginjaninja78/sheet-consolidator/internal/types"
	"github.com/ginjaninja78/sheet-consolidator/pkg/utils"
)

// BOM is the UTF-8 byte-order marker.
const BOM = "\uFEFF"

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// Options contains options for delimited output.
type Options struct {
	// Comma is the field delimiter.
	Comma rune

	// WriteBOM prefixes the output with a UTF-8 byte-order marker.
	WriteBOM bool

	// UseCRLF terminates lines with \r\n.
	UseCRLF bool
}

// DefaultOptions returns comma-delimited output with a BOM.
func DefaultOptions() Options {
	return Options{Comma: ',', WriteBOM: true}
}

// OptionsFromSettings derives writer options from the CSV settings.
func OptionsFromSettings(s config.CSVSettings) Options {
	return Options{
		Comma:    s.Comma(),
		WriteBOM: s.BOM(),
		UseCRLF:  s.UseCRLF,
	}
}

// =============================================================================
// WRITER FUNCTIONS
// =============================================================================

// Write writes the table to path atomically: either the whole file is
// written or path is left as it was.
func Write(path string, t *types.Table, opts Options) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return Encode(w, t, opts)
	})
}

// Encode streams the table to w.
func Encode(w io.Writer, t *types.Table, opts Options) error {
	if t == nil {
		return fmt.Errorf("nil table")
	}

	if opts.WriteBOM {
		if _, err := io.WriteString(w, BOM); err != nil {
			return fmt.Errorf("failed to write byte-order marker: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if opts.Comma != 0 {
		cw.Comma = opts.Comma
	}
	cw.UseCRLF = opts.UseCRLF

	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return nil
}
