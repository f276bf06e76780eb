package schedule

import (
	"testing"

	"github.com/ginjaninja78/shiftpay/internal/types"
)

func TestIsHighlighted(t *testing.T) {
	rgb := func(v string) types.Color { return types.Color{Kind: types.ColorRGB, RGB: v} }
	indexed := func(i int) types.Color { return types.Color{Kind: types.ColorIndexed, Index: i} }

	tests := []struct {
		name string
		fill types.Fill
		want bool
	}{
		{"solid yellow rgb", types.Fill{Pattern: "solid", Color: rgb("FFFFFF00")}, true},
		{"solid lower-case rgb", types.Fill{Pattern: "solid", Color: rgb("ff00ff00")}, true},
		{"solid black rgb", types.Fill{Pattern: "solid", Color: rgb("FF000000")}, true},
		{"solid opaque white", types.Fill{Pattern: "solid", Color: rgb("FFFFFFFF")}, false},
		{"solid transparent black", types.Fill{Pattern: "solid", Color: rgb("00000000")}, false},
		{"solid empty rgb", types.Fill{Pattern: "solid", Color: rgb("")}, false},
		{"solid indexed yellow", types.Fill{Pattern: "solid", Color: indexed(13)}, true},
		{"solid indexed zero", types.Fill{Pattern: "solid", Color: indexed(0)}, true},
		{"solid indexed no fill", types.Fill{Pattern: "solid", Color: indexed(NoFillIndex)}, false},
		{"solid theme", types.Fill{Pattern: "solid", Color: types.Color{Kind: types.ColorTheme, Index: 4}}, false},
		{"solid no colour", types.Fill{Pattern: "solid"}, false},
		{"gray125 rgb", types.Fill{Pattern: "gray125", Color: rgb("FFFFFF00")}, false},
		{"no pattern indexed", types.Fill{Color: indexed(13)}, false},
		{"zero fill", types.Fill{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHighlighted(tt.fill); got != tt.want {
				t.Fatalf("IsHighlighted(%+v) = %v, want %v", tt.fill, got, tt.want)
			}
		})
	}
}

func TestDecodeDateSerial(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"45985", "Monday, November 24, 2025", true},
		{"45985.0", "Monday, November 24, 2025", true},
		{" 45991 ", "Sunday, November 30, 2025", true},
		{"40001", "Tuesday, July 07, 2009", true},
		{"40000", "", false},
		{"12", "", false},
		{"MON", "", false},
		{"", "", false},
		{"NaN", "", false},
		{"1e300", "", false},
	}
	for _, tt := range tests {
		got, ok := DecodeDateSerial(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DecodeDateSerial(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   types.ShiftSpan
		wantOK bool
	}{
		{"contiguous", []string{"10-11", "11-12", "12-13"}, types.ShiftSpan{Day: "MON", Start: 10, End: 13}, true},
		{"single slot", []string{"15-16"}, types.ShiftSpan{Day: "MON", Start: 15, End: 16}, true},
		{"gap", []string{"10-11", "14-15"}, types.ShiftSpan{Day: "MON", Start: 10, End: 15}, true},
		{"spaces and decimals", []string{" 9.0 - 10", "22-23.5"}, types.ShiftSpan{Day: "MON", Start: 9, End: 23}, true},
		{"midnight", []string{"23-24"}, types.ShiftSpan{Day: "MON", Start: 23, End: 24}, true},
		{"empty", nil, types.ShiftSpan{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Aggregate("MON", tt.labels)
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("Aggregate() = %+v, %v, want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAggregateRejectsMalformedLabels(t *testing.T) {
	for _, labels := range [][]string{
		{"10"},
		{"late-11"},
		{"10-11", "12-"},
		{"10-11", "12-close"},
	} {
		if _, _, err := Aggregate("MON", labels); err == nil {
			t.Errorf("Aggregate(%q) succeeded, want ErrBadSlotLabel", labels)
		}
	}
}
