// =============================================================================
// shiftpay - XLSX Schedule Parser
// =============================================================================
//
// This module reads a modern workbook (.xlsx) into a dense grid of cells that
// keep their fill information exactly as the workbook encodes it: an explicit
// RGB value, a legacy palette index, a theme reference, or nothing.
//
// Cell values are read through excelize, which resolves the shared-string
// table of every workbook it or Excel writes. The fill is read from the raw
// stylesheet with unioffice, since the shift classifier needs to tell
// "explicit white" apart from "indexed 64":
//
//   cell s="N"  ->  cellXfs[N].fillId  ->  fills[fillId].patternFill
//                                          ├── patternType  ("solid", ...)
//                                          └── fgColor      (rgb | indexed | theme)
//
// GRID SHAPE:
//   - One Row per worksheet row from row 1 to the last populated row.
//   - Every Row is padded to the widest populated column with empty cells.
//   - Cell text is trimmed; empty cells hold "".
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/shiftpay/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
	"github.com/xuri/excelize/v2"
)

// ErrWorkbookLoad is returned when the workbook cannot be opened or has no
// usable worksheet.
var ErrWorkbookLoad = errors.New("failed to load workbook")

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls which worksheet is read.
type Options struct {
	// Sheet is the worksheet name to read. Empty selects the first sheet.
	Sheet string
}

// =============================================================================
// MAIN PARSING FUNCTION
// =============================================================================

// Parse reads one worksheet of a modern workbook.
//
// PARAMETERS:
//   - path: The .xlsx file to read.
//   - opts: Sheet selection.
//
// RETURNS:
//   - The worksheet as a dense grid.
//   - ErrWorkbookLoad (wrapped) if the file cannot be read or the sheet is
//     missing.
func Parse(path string, opts Options) (*types.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookLoad, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookLoad, err)
	}

	wb, err := spreadsheet.Read(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWorkbookLoad, path, err)
	}

	sheet, err := selectSheet(wb, opts.Sheet)
	if err != nil {
		return nil, err
	}

	values, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWorkbookLoad, path, err)
	}
	defer values.Close()

	grid, err := readSheet(wb, sheet, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWorkbookLoad, path, err)
	}
	log.Debug().
		Str("file", path).
		Str("sheet", grid.Name).
		Int("rows", len(grid.Rows)).
		Msg("Parsed workbook")

	return grid, nil
}

// selectSheet returns the named worksheet, or the first one when name is
// empty.
func selectSheet(wb *spreadsheet.Workbook, name string) (spreadsheet.Sheet, error) {
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return spreadsheet.Sheet{}, fmt.Errorf("%w: workbook has no worksheets", ErrWorkbookLoad)
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s.Name() == name {
			return s, nil
		}
	}
	return spreadsheet.Sheet{}, fmt.Errorf("%w: no worksheet named %q", ErrWorkbookLoad, name)
}

// =============================================================================
// GRID CONSTRUCTION
// =============================================================================

type positioned struct {
	row, col int
	cell     types.Cell
}

// readSheet walks the cells unioffice found, styled blanks included, and
// looks each value up in values.
func readSheet(wb *spreadsheet.Workbook, sheet spreadsheet.Sheet, values *excelize.File) (*types.Sheet, error) {
	name := sheet.Name()
	var cells []positioned
	nRows, nCols := 0, 0

	for _, row := range sheet.Rows() {
		r := int(row.RowNumber()) - 1
		if r < 0 {
			continue
		}
		for _, cell := range row.Cells() {
			colName, err := cell.Column()
			if err != nil {
				continue
			}
			c := int(reference.ColumnToIndex(colName))

			raw, err := values.GetCellValue(name, cell.Reference())
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", cell.Reference(), err)
			}

			cells = append(cells, positioned{
				row: r,
				col: c,
				cell: types.Cell{
					Text: cellText(raw, cell.X().TAttr),
					Fill: cellFill(wb.StyleSheet, cell),
				},
			})
			if r+1 > nRows {
				nRows = r + 1
			}
			if c+1 > nCols {
				nCols = c + 1
			}
		}
	}

	grid := &types.Sheet{Name: name, Rows: make([]types.Row, nRows)}
	for i := range grid.Rows {
		grid.Rows[i] = make(types.Row, nCols)
	}
	for _, p := range cells {
		grid.Rows[p.row][p.col] = p.cell
	}
	return grid, nil
}

// cellText renders a raw cell value as trimmed text. Values that count as
// empty (FALSE and numeric zero) render as "".
func cellText(raw string, typ sml.ST_CellType) string {
	raw = strings.TrimSpace(raw)

	switch typ {
	case sml.ST_CellTypeB:
		if raw == "1" {
			return "TRUE"
		}
		return ""
	case sml.ST_CellTypeUnset, sml.ST_CellTypeN:
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f == 0 {
			return ""
		}
	}
	return raw
}

// =============================================================================
// FILL EXTRACTION
// =============================================================================

// cellFill follows the cell's style reference to its pattern fill.
func cellFill(ss spreadsheet.StyleSheet, cell spreadsheet.Cell) types.Fill {
	if cell.X().SAttr == nil {
		return types.Fill{}
	}
	fill := fillProps(ss, *cell.X().SAttr)
	if fill == nil || fill.PatternFill == nil {
		return types.Fill{}
	}

	pf := fill.PatternFill
	out := types.Fill{Pattern: pf.PatternTypeAttr.String()}
	if pf.FgColor != nil {
		out.Color = colorOf(pf.FgColor)
	}
	return out
}

// fillProps returns the fill record a cell style points at, or nil.
func fillProps(ss spreadsheet.StyleSheet, styleID uint32) *sml.CT_Fill {
	x := ss.X()
	if x == nil || x.CellXfs == nil || x.Fills == nil {
		return nil
	}
	if int(styleID) >= len(x.CellXfs.Xf) {
		return nil
	}
	xf := x.CellXfs.Xf[styleID]
	if xf.FillIdAttr == nil {
		return nil
	}
	idx := int(*xf.FillIdAttr)
	if idx < 0 || idx >= len(x.Fills.Fill) {
		return nil
	}
	return x.Fills.Fill[idx]
}

// colorOf keeps the colour in the encoding the workbook used. RGB wins over
// an index when both are present.
func colorOf(c *sml.CT_Color) types.Color {
	switch {
	case c.RgbAttr != nil:
		return types.Color{Kind: types.ColorRGB, RGB: strings.ToUpper(*c.RgbAttr)}
	case c.IndexedAttr != nil:
		return types.Color{Kind: types.ColorIndexed, Index: int(*c.IndexedAttr)}
	case c.ThemeAttr != nil:
		return types.Color{Kind: types.ColorTheme, Index: int(*c.ThemeAttr)}
	default:
		return types.Color{}
	}
}
