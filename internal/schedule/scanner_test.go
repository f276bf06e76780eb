package schedule

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ginjaninja78/shiftpay/internal/types"
)

var yellow = types.Fill{Pattern: types.PatternSolid, Color: types.Color{Kind: types.ColorRGB, RGB: "FFFFFF00"}}

// row builds a grid row from texts; a leading "*" marks a highlighted cell.
func row(cells ...string) types.Row {
	r := make(types.Row, len(cells))
	for i, c := range cells {
		if len(c) > 0 && c[0] == '*' {
			r[i] = types.Cell{Text: c[1:], Fill: yellow}
			continue
		}
		r[i] = types.Cell{Text: c}
	}
	return r
}

func TestScanFindsShiftBoundary(t *testing.T) {
	sheet := &types.Sheet{Rows: []types.Row{
		row("45985", "10-11", "11-12", "12-13", "13-14", "MON"),
		row("Someone", "*", "", "", "", ""),
		row("Farid", "*", "*", "*", "", ""),
	}}

	spans, err := NewScanner("Farid").Scan(sheet)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []types.ShiftSpan{{Day: "Monday, November 24, 2025", Start: 10, End: 13}}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("Scan() = %+v, want %+v", spans, want)
	}
}

func TestScanMatchesNameCaseInsensitively(t *testing.T) {
	sheet := &types.Sheet{Rows: []types.Row{
		row("", "10-11", "11-12", "TUE"),
		row("FARID S.", "", "*", ""),
	}}

	spans, err := NewScanner("Farid").Scan(sheet)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(spans) != 1 || spans[0] != (types.ShiftSpan{Day: "TUE", Start: 11, End: 12}) {
		t.Fatalf("Scan() = %+v", spans)
	}
}

func TestScanResetsHeaderPerBlock(t *testing.T) {
	sheet := &types.Sheet{Rows: []types.Row{
		row("45985", "10-11", "11-12", "12-13", ""),
		row("Farid", "*", "*", "", ""),
		row("45986", "", "10-11", "11-12", "12-13"),
		row("Farid", "*", "", "*", "*"),
	}}

	spans, err := NewScanner("farid").Scan(sheet)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []types.ShiftSpan{
		{Day: "Monday, November 24, 2025", Start: 10, End: 12},
		// Column 1 is not a slot in the second block.
		{Day: "Tuesday, November 25, 2025", Start: 11, End: 13},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("Scan() = %+v, want %+v", spans, want)
	}
}

func TestScanTreatsGapsAsOneSpan(t *testing.T) {
	sheet := &types.Sheet{Rows: []types.Row{
		row("x", "10-11", "11-12", "12-13", "13-14", "WED"),
		row("Farid", "*", "", "", "*", ""),
	}}

	spans, err := NewScanner("Farid").Scan(sheet)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if spans[0].Start != 10 || spans[0].End != 14 {
		t.Fatalf("span = %+v, want 10-14", spans[0])
	}
}

func TestScanNoShifts(t *testing.T) {
	tests := []struct {
		name  string
		sheet *types.Sheet
	}{
		{"no highlight", &types.Sheet{Rows: []types.Row{
			row("45985", "10-11", "11-12", ""),
			row("Farid", "", "", ""),
		}}},
		{"target absent", &types.Sheet{Rows: []types.Row{
			row("45985", "10-11", "11-12", ""),
			row("Someone", "*", "*", ""),
		}}},
		{"target before any header", &types.Sheet{Rows: []types.Row{
			row("Farid", "*", "*", ""),
			row("45985", "10-11", "11-12", ""),
		}}},
		{"empty sheet", &types.Sheet{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := NewScanner("Farid").Scan(tt.sheet)
			if !errors.Is(err, ErrNoShiftsFound) {
				t.Fatalf("Scan error = %v, want ErrNoShiftsFound", err)
			}
			if len(spans) != 0 {
				t.Fatalf("Scan() = %+v, want none", spans)
			}
		})
	}
}

func TestScanHeaderRowIsNeverATargetRow(t *testing.T) {
	// The target name sits in a header row's first cell.
	sheet := &types.Sheet{Rows: []types.Row{
		row("Farid", "*10-11", "*11-12", "FRI"),
	}}
	if _, err := NewScanner("Farid").Scan(sheet); !errors.Is(err, ErrNoShiftsFound) {
		t.Fatalf("Scan error = %v, want ErrNoShiftsFound", err)
	}
}

func TestScanSkipsMalformedLabels(t *testing.T) {
	sheet := &types.Sheet{Rows: []types.Row{
		row("45985", "10-11", "late-night", ""),
		row("Farid", "", "*", ""),
		row("45986", "10-11", "11-12", ""),
		row("Farid", "*", "*", ""),
	}}

	spans, err := NewScanner("Farid").Scan(sheet)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(spans) != 1 || spans[0].Start != 10 || spans[0].End != 12 {
		t.Fatalf("Scan() = %+v, want one 10-12 span", spans)
	}
}

func TestScanCustomHeaderToken(t *testing.T) {
	sheet := &types.Sheet{Rows: []types.Row{
		row("45985", "9-10", "10-11", ""),
		row("Farid", "*", "", ""),
	}}

	s := &Scanner{Target: "Farid", HeaderToken: "9-10"}
	spans, err := s.Scan(sheet)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if spans[0].Start != 9 || spans[0].End != 10 {
		t.Fatalf("span = %+v, want 9-10", spans[0])
	}
}

func TestScanNilSheet(t *testing.T) {
	if _, err := NewScanner("Farid").Scan(nil); !errors.Is(err, ErrNoSheet) {
		t.Fatalf("Scan(nil) error = %v, want ErrNoSheet", err)
	}
}

func TestHeaderSlotsIsRepeatable(t *testing.T) {
	header := row("45985", "10-11", " 11-12 ", "note", "12-13", "MON")

	first := headerSlots(header)
	second := headerSlots(header)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("headerSlots differs between calls: %+v vs %+v", first, second)
	}

	want := []slot{{1, "10-11"}, {2, "11-12"}, {4, "12-13"}}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("headerSlots() = %+v, want %+v", first, want)
	}
}

func TestDayLabel(t *testing.T) {
	tests := []struct {
		name string
		row  types.Row
		want string
	}{
		{"serial", row("45985", "10-11", "MON"), "Monday, November 24, 2025"},
		{"serial with fraction", row("45985.75", "10-11", "MON"), "Monday, November 24, 2025"},
		{"last cell", row("Week", "10-11", "MON"), "MON"},
		{"small number", row("12", "10-11", "TUE"), "TUE"},
		{"short last cell", row("", "10-11", "M"), UnknownDay},
		{"empty last cell", row("", "10-11", ""), UnknownDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dayLabel(tt.row); got != tt.want {
				t.Fatalf("dayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
