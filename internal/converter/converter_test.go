package converter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/shiftpay/internal/types"
	"github.com/ginjaninja78/shiftpay/internal/xls/xlstest"
	"github.com/ginjaninja78/shiftpay/internal/xlsxparser"
)

func legacyFixture(t *testing.T) string {
	t.Helper()

	b := xlstest.New()
	yellow := b.AddXF(13, 1)
	white := b.AddXF(9, 1)
	black := b.AddXF(8, 1)
	unknown := b.AddXF(81, 1)

	slot := b.AddString("10-11")
	b.AddSheet("Week 1").
		Label(0, 0, 15, "Name").
		LabelSST(0, 1, 15, slot).
		Label(0, 2, 15, "11-12").
		Label(1, 0, 15, "Farid").
		Blank(1, 1, yellow).
		Blank(1, 2, white).
		Blank(1, 3, black).
		Blank(1, 4, unknown).
		Number(2, 0, 15, 45985)
	b.AddSheet("Week 2").
		Label(0, 0, 15, "empty week")

	path := filepath.Join(t.TempDir(), "schedule.xls")
	if err := b.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestConvertWritesModernCopy(t *testing.T) {
	in := legacyFixture(t)

	out, err := Convert(in)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if want := filepath.Join(filepath.Dir(in), "schedule.xlsx"); out != want {
		t.Fatalf("Convert() = %q, want %q", out, want)
	}

	sheet, err := xlsxparser.Parse(out, xlsxparser.Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.Name != "Week 1" {
		t.Fatalf("first sheet = %q, want Week 1", sheet.Name)
	}

	texts := []struct {
		row, col int
		want     string
	}{
		{0, 0, "Name"},
		{0, 1, "10-11"},
		{0, 2, "11-12"},
		{1, 0, "Farid"},
		{2, 0, "45985"},
	}
	for _, tt := range texts {
		if got := sheet.Rows[tt.row][tt.col].Text; got != tt.want {
			t.Errorf("Rows[%d][%d].Text = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}

	second, err := xlsxparser.Parse(out, xlsxparser.Options{Sheet: "Week 2"})
	if err != nil {
		t.Fatalf("Parse(Week 2): %v", err)
	}
	if second.Rows[0][0].Text != "empty week" {
		t.Fatalf("Week 2 A1 = %q", second.Rows[0][0].Text)
	}
}

func TestConvertCarriesOnlyRealColours(t *testing.T) {
	out, err := Convert(legacyFixture(t))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	sheet, err := xlsxparser.Parse(out, xlsxparser.Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	yellow := sheet.Rows[1][1].Fill
	if yellow.Pattern != types.PatternSolid || yellow.Color.Kind != types.ColorRGB || yellow.Color.RGB != "FFFFFF00" {
		t.Fatalf("yellow cell Fill = %+v, want solid FFFFFF00", yellow)
	}

	// Unfilled blank cells are not written at all, so the row may be short.
	row := sheet.Rows[1]
	for col, name := range map[int]string{2: "white", 3: "black", 4: "unknown index"} {
		if col >= len(row) {
			continue
		}
		if got := row[col].Fill.Color.Kind; got == types.ColorRGB {
			t.Errorf("%s cell got an RGB fill %+v", name, row[col].Fill)
		}
	}
}

func TestConvertStats(t *testing.T) {
	res, err := ConvertFile(legacyFixture(t))
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	if !res.Converted {
		t.Fatal("Converted = false")
	}
	if res.Stats.Sheets != 2 || res.Stats.Fills != 1 || res.Stats.Cells != 6 {
		t.Fatalf("Stats = %+v, want 2 sheets, 6 cells, 1 fill", res.Stats)
	}
}

func TestConvertModernIsIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week.XLSX")
	if err := os.WriteFile(path, []byte("not parsed"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got != path {
		t.Fatalf("Convert() = %q, want %q", got, path)
	}
}

func TestConvertIsIdempotent(t *testing.T) {
	out, err := Convert(legacyFixture(t))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	again, err := Convert(out)
	if err != nil {
		t.Fatalf("Convert(out): %v", err)
	}
	if again != out {
		t.Fatalf("Convert(Convert(p)) = %q, want %q", again, out)
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Convert(filepath.Join(dir, "missing.xls")); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("missing file error = %v, want ErrFileNotFound", err)
	}

	bad := filepath.Join(dir, "bad.xls")
	if err := os.WriteFile(bad, []byte("Name,10-11\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Convert(bad); !errors.Is(err, ErrUnreadableLegacyFormat) {
		t.Fatalf("bad file error = %v, want ErrUnreadableLegacyFormat", err)
	}
	if _, err := os.Stat(OutputPath(bad)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output written for unreadable input: %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"week.xls", "week.xlsx"},
		{"dir/Week.XLS", "dir/Week.xlsx"},
		{"a.xls.xls", "a.xls.xlsx"},
		{"a.xls.backup", "a.xlsx.backup"},
		{"schedule", "schedulex"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in); got != tt.want {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertCompoundDocumentFixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "xls", "testdata", "schedule.xls"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	in := filepath.Join(t.TempDir(), "schedule.xls")
	if err := os.WriteFile(in, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := Convert(in)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	sheet, err := xlsxparser.Parse(out, xlsxparser.Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.Name != "Schedule" {
		t.Fatalf("first sheet = %q, want Schedule", sheet.Name)
	}

	texts := []struct {
		row, col int
		want     string
	}{
		{0, 0, "45985"},
		{0, 1, "10-11"},
		{0, 3, "12-13"},
		{1, 0, "Farid S."},
		{2, 0, "Dana"},
	}
	for _, tt := range texts {
		if got := sheet.Rows[tt.row][tt.col].Text; got != tt.want {
			t.Errorf("Rows[%d][%d].Text = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}

	for _, at := range [][2]int{{1, 1}, {1, 2}, {2, 1}} {
		fill := sheet.Rows[at[0]][at[1]].Fill
		if fill.Pattern != types.PatternSolid || fill.Color.Kind != types.ColorRGB || fill.Color.RGB != "FFFFFF00" {
			t.Errorf("Rows[%d][%d].Fill = %+v, want solid FFFFFF00", at[0], at[1], fill)
		}
	}
	if row := sheet.Rows[1]; len(row) > 3 && row[3].Fill.Color.RGB == "FFFFFF00" {
		t.Errorf("white cell got the yellow fill %+v", row[3].Fill)
	}
}
