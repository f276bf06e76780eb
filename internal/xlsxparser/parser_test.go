package xlsxparser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/shiftpay/internal/types"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Week"); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}

	yellow, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
	})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}

	values := map[string]any{
		"A1": "Name",
		"B1": "10-11",
		"A2": "  Farid  ",
		"D3": 45985,
		"C3": true,
	}
	for cell, v := range values {
		if err := f.SetCellValue("Week", cell, v); err != nil {
			t.Fatalf("SetCellValue(%s): %v", cell, err)
		}
	}
	if err := f.SetCellStyle("Week", "B2", "B2", yellow); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}
	if err := f.SetCellValue("Notes", "A1", "notes"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}

	path := filepath.Join(t.TempDir(), "week.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestParseBuildsPaddedGrid(t *testing.T) {
	sheet, err := Parse(writeWorkbook(t), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if sheet.Name != "Week" {
		t.Fatalf("Name = %q, want Week", sheet.Name)
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(sheet.Rows))
	}
	for i, row := range sheet.Rows {
		if len(row) != 4 {
			t.Fatalf("len(Rows[%d]) = %d, want 4", i, len(row))
		}
	}

	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "Name"},
		{0, 1, "10-11"},
		{1, 0, "Farid"},
		{1, 1, ""},
		{1, 3, ""},
		{2, 2, "TRUE"},
		{2, 3, "45985"},
	}
	for _, tt := range tests {
		if got := sheet.Rows[tt.row][tt.col].Text; got != tt.want {
			t.Errorf("Rows[%d][%d].Text = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestParseKeepsRGBFill(t *testing.T) {
	sheet, err := Parse(writeWorkbook(t), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	fill := sheet.Rows[1][1].Fill
	if fill.Pattern != types.PatternSolid {
		t.Fatalf("Pattern = %q, want %q", fill.Pattern, types.PatternSolid)
	}
	if fill.Color.Kind != types.ColorRGB || fill.Color.RGB != "FFFFFF00" {
		t.Fatalf("Color = %+v, want rgb FFFFFF00", fill.Color)
	}

	if got := sheet.Rows[0][0].Fill; got != (types.Fill{}) {
		t.Fatalf("unstyled Fill = %+v, want zero", got)
	}
}

func TestParseSelectsNamedSheet(t *testing.T) {
	path := writeWorkbook(t)

	sheet, err := Parse(path, Options{Sheet: "Notes"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.Name != "Notes" || sheet.Rows[0][0].Text != "notes" {
		t.Fatalf("Parse(Notes) = %+v", sheet)
	}

	if _, err := Parse(path, Options{Sheet: "Missing"}); !errors.Is(err, ErrWorkbookLoad) {
		t.Fatalf("Parse(Missing) error = %v, want ErrWorkbookLoad", err)
	}
}

func TestParseLoadFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.xlsx")
	if err := os.WriteFile(garbage, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.xlsx"), garbage} {
		if _, err := Parse(path, Options{}); !errors.Is(err, ErrWorkbookLoad) {
			t.Errorf("Parse(%s) error = %v, want ErrWorkbookLoad", filepath.Base(path), err)
		}
	}
}

func TestColorOfKeepsEncoding(t *testing.T) {
	rgb := "ffff0000"
	indexed := uint32(13)
	theme := uint32(4)

	tests := []struct {
		name  string
		color *sml.CT_Color
		want  types.Color
	}{
		{"rgb", &sml.CT_Color{RgbAttr: &rgb}, types.Color{Kind: types.ColorRGB, RGB: "FFFF0000"}},
		{"indexed", &sml.CT_Color{IndexedAttr: &indexed}, types.Color{Kind: types.ColorIndexed, Index: 13}},
		{"theme", &sml.CT_Color{ThemeAttr: &theme}, types.Color{Kind: types.ColorTheme, Index: 4}},
		{"rgb wins", &sml.CT_Color{RgbAttr: &rgb, IndexedAttr: &indexed}, types.Color{Kind: types.ColorRGB, RGB: "FFFF0000"}},
		{"none", &sml.CT_Color{}, types.Color{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := colorOf(tt.color); got != tt.want {
				t.Fatalf("colorOf() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseResolvesSharedStrings(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"Farid", "10-11", 45985},
		{"Dana", "10-11", "11-12"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "strings.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	sheet, err := Parse(path, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := [][]string{
		{"Farid", "10-11", "45985"},
		{"Dana", "10-11", "11-12"},
	}
	for r, cols := range want {
		for c, text := range cols {
			if got := sheet.Rows[r][c].Text; got != text {
				t.Errorf("Rows[%d][%d].Text = %q, want %q", r, c, got, text)
			}
		}
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		raw  string
		typ  sml.ST_CellType
		want string
	}{
		{"  Farid ", sml.ST_CellTypeS, "Farid"},
		{"45985", sml.ST_CellTypeUnset, "45985"},
		{"0", sml.ST_CellTypeN, ""},
		{"0", sml.ST_CellTypeS, "0"},
		{"1", sml.ST_CellTypeB, "TRUE"},
		{"0", sml.ST_CellTypeB, ""},
		{"", sml.ST_CellTypeUnset, ""},
	}
	for _, tt := range tests {
		if got := cellText(tt.raw, tt.typ); got != tt.want {
			t.Errorf("cellText(%q, %v) = %q, want %q", tt.raw, tt.typ, got, tt.want)
		}
	}
}
