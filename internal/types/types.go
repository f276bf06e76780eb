// =============================================================================
// shiftpay - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser (produces Sheet)
//   - schedule   (consumes Sheet, produces ShiftSpan)
//   - pay        (consumes ShiftSpan, produces PayRecord)
//   - report     (consumes Report)
//
// =============================================================================

package types

import "github.com/shopspring/decimal"

// =============================================================================
// FILL TYPES
// =============================================================================

// ColorKind tells how a fill colour was encoded in the workbook.
type ColorKind int

const (
	// ColorNone means the fill carries no colour at all.
	ColorNone ColorKind = iota

	// ColorRGB is an explicit ARGB hex string such as "FFFFFF00".
	ColorRGB

	// ColorIndexed is a legacy palette index.
	ColorIndexed

	// ColorTheme is a theme colour reference.
	ColorTheme
)

// String returns the lower-case name of the encoding.
func (k ColorKind) String() string {
	switch k {
	case ColorRGB:
		return "rgb"
	case ColorIndexed:
		return "indexed"
	case ColorTheme:
		return "theme"
	default:
		return "none"
	}
}

// Color is a fill colour in the encoding the workbook stored it in.
// Only the field matching Kind is meaningful.
type Color struct {
	Kind ColorKind

	// RGB is the raw ARGB (or RGB) hex string, upper case, without "#".
	RGB string

	// Index is the palette index for ColorIndexed, the theme slot for
	// ColorTheme.
	Index int
}

// Fill is the cell fill information the classifier looks at.
type Fill struct {
	// Pattern is the pattern type name, e.g. "solid", "gray125" or "" for
	// no pattern.
	Pattern string

	// Color is the pattern (foreground) colour.
	Color Color
}

// PatternSolid is the pattern name of a solid fill.
const PatternSolid = "solid"

// =============================================================================
// GRID TYPES
// =============================================================================

// Cell is one cell of a modern worksheet.
type Cell struct {
	// Text is the cell value rendered as text and trimmed. Empty cells hold "".
	Text string

	// Fill is the cell background.
	Fill Fill
}

// Row is one worksheet row, padded to the sheet's widest column.
type Row []Cell

// Sheet is a worksheet as a dense grid of rows.
type Sheet struct {
	// Name is the worksheet name.
	Name string

	// Rows holds every row from the first to the last populated one.
	Rows []Row
}

// =============================================================================
// SHIFT AND PAY TYPES
// =============================================================================

// ShiftSpan is one working span on one day.
// Start and End are whole hours; End is normally greater than Start.
type ShiftSpan struct {
	Day   string
	Start int
	End   int
}

// Hours returns End - Start. A span that crosses midnight comes out negative;
// the value is reported as is.
func (s ShiftSpan) Hours() int {
	return s.End - s.Start
}

// PayRecord is the pay computed for one shift span.
type PayRecord struct {
	Span  ShiftSpan
	Hours int
	Gross decimal.Decimal
	Net   decimal.Decimal
}

// Report is everything the printer needs for one schedule.
type Report struct {
	// Target is the name the scan looked for.
	Target string

	// Employer is the label used in the "shift on" lines.
	Employer string

	// Records are the pay records in detection order.
	Records []PayRecord

	// TotalHours, TotalGross and TotalNet are the weekly sums.
	TotalHours int
	TotalGross decimal.Decimal
	TotalNet   decimal.Decimal
}

// Empty reports whether no shifts were found.
func (r *Report) Empty() bool {
	return r == nil || len(r.Records) == 0
}
