// =============================================================================
// shiftpay - Converter Module
// =============================================================================
//
// This module turns a legacy binary workbook (.xls) into a modern one (.xlsx)
// so the rest of the pipeline only ever reads one format. Cell values are
// copied as they are, and every cell background is carried over as an
// explicit RGB solid fill.
//
// CONVERSION PIPELINE:
//   1. Check that the input exists
//   2. Return modern inputs unchanged
//   3. Parse the legacy workbook with formatting information
//   4. Copy every sheet, value and background colour into a new workbook
//   5. Write the new workbook next to the input (temp file + rename)
//
// COLOUR RULES:
//   - The colour comes from the cell's XF pattern colour index, resolved
//     through the workbook palette.
//   - Indices with no palette entry produce no fill.
//   - Pure white (FFFFFF) and pure black (000000) produce no fill, so the
//     default page colour and the "automatic" colour never look highlighted.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/shiftpay/internal/palette"
	"github.com/ginjaninja78/shiftpay/internal/xls"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrFileNotFound is returned when the input path does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnreadableLegacyFormat is returned when the input is not a legacy
// workbook the reader can parse.
var ErrUnreadableLegacyFormat = errors.New("unreadable legacy workbook")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single file.
type Result struct {
	// InputPath is the file that was converted.
	InputPath string

	// OutputPath is the modern workbook. It equals InputPath when the input
	// was already modern.
	OutputPath string

	// Converted is false when the input was returned unchanged.
	Converted bool

	// Stats contains conversion statistics.
	Stats Stats
}

// Stats contains statistics about a conversion.
type Stats struct {
	// Sheets is the number of worksheets written.
	Sheets int

	// Cells is the number of non-empty values written.
	Cells int

	// Fills is the number of cells given a background colour.
	Fills int
}

// =============================================================================
// CONVERSION
// =============================================================================

// Convert makes sure a modern workbook exists for path and returns its path.
//
// PARAMETERS:
//   - path: A .xls or .xlsx file.
//
// RETURNS:
//   - path itself when it already has the .xlsx extension.
//   - The path of the newly written .xlsx otherwise.
//   - ErrFileNotFound or ErrUnreadableLegacyFormat on failure.
func Convert(path string) (string, error) {
	res, err := ConvertFile(path)
	if err != nil {
		return "", err
	}
	return res.OutputPath, nil
}

// ConvertFile is Convert with conversion statistics.
func ConvertFile(path string) (*Result, error) {
	// =========================================================================
	// STEP 1: CHECK INPUT
	// =========================================================================

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// =========================================================================
	// STEP 2: MODERN INPUTS PASS THROUGH
	// =========================================================================

	if IsModern(path) {
		log.Debug().Str("file", path).Msg("Input is already a modern workbook")
		return &Result{InputPath: path, OutputPath: path}, nil
	}

	// =========================================================================
	// STEP 3: PARSE LEGACY WORKBOOK
	// =========================================================================

	log.Info().Str("file", path).Msg("Converting legacy workbook")

	wb, err := xls.Open(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to read legacy workbook")
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableLegacyFormat, path, err)
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no worksheets", ErrUnreadableLegacyFormat, path)
	}

	// =========================================================================
	// STEP 4-5: COPY AND WRITE
	// =========================================================================

	out := OutputPath(path)
	stats, err := WriteModern(wb, out)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("output", out).
		Int("sheets", stats.Sheets).
		Int("cells", stats.Cells).
		Int("fills", stats.Fills).
		Msg("Conversion complete")

	return &Result{InputPath: path, OutputPath: out, Converted: true, Stats: stats}, nil
}

// IsModern reports whether path has the .xlsx extension (any case).
func IsModern(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// OutputPath derives the modern workbook path from a legacy one: the last
// ".xls" in the file name becomes ".xlsx". Names without ".xls" get an "x"
// appended.
func OutputPath(path string) string {
	dir, base := filepath.Split(path)
	i := strings.LastIndex(strings.ToLower(base), ".xls")
	if i < 0 {
		return path + "x"
	}
	return dir + base[:i] + ".xlsx" + base[i+len(".xls"):]
}

// =============================================================================
// WRITING
// =============================================================================

// WriteModern writes every worksheet of wb to out as a modern workbook.
// Sheet names and order are kept. The file is written to a temporary name in
// the same directory and renamed into place.
func WriteModern(wb *xls.Workbook, out string) (Stats, error) {
	var stats Stats

	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{file: f, styles: make(map[string]int)}

	for i, s := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return stats, fmt.Errorf("failed to name sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return stats, fmt.Errorf("failed to create sheet %q: %w", s.Name, err)
		}

		if err := w.copySheet(wb, s, &stats); err != nil {
			return stats, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		stats.Sheets++
	}
	f.SetActiveSheet(0)

	if err := saveAtomic(f, out); err != nil {
		return stats, err
	}
	return stats, nil
}

// sheetWriter copies cells into an excelize file, sharing one style per
// distinct fill colour.
type sheetWriter struct {
	file   *excelize.File
	styles map[string]int
}

func (w *sheetWriter) copySheet(wb *xls.Workbook, s *xls.Sheet, stats *Stats) error {
	for r := 0; r < s.NRows; r++ {
		for c := 0; c < s.NCols; c++ {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}

			if v := s.Value(r, c); v != nil && v != "" {
				if err := w.file.SetCellValue(s.Name, name, v); err != nil {
					return fmt.Errorf("failed to set %s: %w", name, err)
				}
				stats.Cells++
			}

			rgb, ok := wb.CellColor(s, r, c)
			if !ok {
				continue
			}
			hex := rgb.Hex()
			if palette.IsSuppressed(hex) {
				continue
			}
			style, err := w.style(hex)
			if err != nil {
				return err
			}
			if err := w.file.SetCellStyle(s.Name, name, name, style); err != nil {
				return fmt.Errorf("failed to style %s: %w", name, err)
			}
			stats.Fills++
		}
	}
	return nil
}

// style returns the style ID of a solid fill in the given colour.
func (w *sheetWriter) style(hex string) (int, error) {
	if id, ok := w.styles[hex]; ok {
		return id, nil
	}
	id, err := w.file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create fill style %s: %w", hex, err)
	}
	w.styles[hex] = id
	return id, nil
}

// saveAtomic writes f to a temp file beside out and renames it into place.
func saveAtomic(f *excelize.File, out string) error {
	tmp, err := os.CreateTemp(filepath.Dir(out), ".shiftpay-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Rename(tmpName, out); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	return nil
}
