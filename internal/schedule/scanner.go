// =============================================================================
// shiftpay - Schedule Scanner
// =============================================================================
//
// This module walks a weekly schedule grid once, top to bottom, and pulls out
// the shift spans of one employee.
//
// SCHEDULE LAYOUT (one block per day):
//
//   | 45985 (or "MON")  | 10-11 | 11-12 | 12-13 | ... | MON |   <- header row
//   | FARID S.          | ████  | ████  | ████  |     |     |   <- target row
//   | Someone Else      |       | ████  |       |     |     |
//
// SCANNING RULES:
//   - A row containing a cell equal to the header token ("10-11") is a header
//     row. It replaces the slot map and the day label, and is never also a
//     target row.
//   - The day label is the first cell decoded as a date serial, else the last
//     cell of the row, else "Unknown Date".
//   - Slot map: every header cell containing "-", by column.
//   - A row whose first cell contains the target name (case-insensitive) is a
//     target row once a slot map exists. Its highlighted slot columns are
//     aggregated into one span for the day.
//
// The slot map and day label live in a scanContext that belongs to a single
// Scan call.
//
// =============================================================================

package schedule

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/shiftpay/internal/types"
	"github.com/rs/zerolog/log"
)

// DefaultHeaderToken is the slot label whose presence marks a header row.
const DefaultHeaderToken = "10-11"

// UnknownDay is the day label used when a header row carries no usable date.
const UnknownDay = "Unknown Date"

// ErrNoShiftsFound is returned by Scan when no span was produced. It is not
// fatal: callers report it and carry on.
var ErrNoShiftsFound = errors.New("no shifts found")

// ErrNoSheet is returned when Scan is given no sheet.
var ErrNoSheet = errors.New("no sheet to scan")

// =============================================================================
// SCANNER
// =============================================================================

// Scanner finds the shifts of one employee in a schedule grid.
type Scanner struct {
	// Target is the employee name, matched as a case-insensitive substring of
	// a row's first cell.
	Target string

	// HeaderToken marks header rows. Empty means DefaultHeaderToken.
	HeaderToken string
}

// NewScanner returns a scanner for target using the default header token.
func NewScanner(target string) *Scanner {
	return &Scanner{Target: target, HeaderToken: DefaultHeaderToken}
}

// slot is one column of the current header.
type slot struct {
	col   int
	label string
}

// scanContext is the state carried from one row to the next.
type scanContext struct {
	slots []slot
	day   string
}

// Scan visits every row once and returns the spans found, in row order.
//
// RETURNS:
//   - The detected spans.
//   - ErrNoShiftsFound (with no spans) when the target never had a
//     highlighted slot.
//   - ErrNoSheet for a nil sheet.
//
// Target rows whose slot labels cannot be read are logged and skipped.
func (s *Scanner) Scan(sheet *types.Sheet) ([]types.ShiftSpan, error) {
	if sheet == nil {
		return nil, ErrNoSheet
	}

	token := s.HeaderToken
	if token == "" {
		token = DefaultHeaderToken
	}
	target := strings.ToLower(s.Target)

	ctx := &scanContext{}
	var spans []types.ShiftSpan

	for i, row := range sheet.Rows {
		if len(row) == 0 {
			continue
		}

		// =====================================================================
		// HEADER ROWS
		// =====================================================================

		if isHeaderRow(row, token) {
			ctx.slots = headerSlots(row)
			ctx.day = dayLabel(row)
			log.Debug().
				Int("row", i+1).
				Str("day", ctx.day).
				Int("slots", len(ctx.slots)).
				Msg("Found header row")
			continue
		}

		// =====================================================================
		// TARGET ROWS
		// =====================================================================

		if len(ctx.slots) == 0 || !strings.Contains(strings.ToLower(row[0].Text), target) {
			continue
		}

		labels := highlightedLabels(row, ctx.slots)
		span, ok, err := Aggregate(ctx.day, labels)
		if err != nil {
			log.Warn().Err(err).Int("row", i+1).Str("day", ctx.day).Msg("Skipping target row")
			continue
		}
		if !ok {
			log.Debug().Int("row", i+1).Str("day", ctx.day).Msg("Target row has no highlighted slots")
			continue
		}

		log.Debug().
			Int("row", i+1).
			Str("day", span.Day).
			Int("start", span.Start).
			Int("end", span.End).
			Msg("Found shift")
		spans = append(spans, span)
	}

	if len(spans) == 0 {
		return nil, ErrNoShiftsFound
	}
	return spans, nil
}

// =============================================================================
// ROW HELPERS
// =============================================================================

func isHeaderRow(row types.Row, token string) bool {
	for _, c := range row {
		if c.Text == token {
			return true
		}
	}
	return false
}

// headerSlots maps every header cell containing the slot separator, in column
// order.
func headerSlots(row types.Row) []slot {
	var slots []slot
	for col, c := range row {
		if c.Text != "" && strings.Contains(c.Text, SlotSeparator) {
			slots = append(slots, slot{col: col, label: strings.TrimSpace(c.Text)})
		}
	}
	return slots
}

func dayLabel(row types.Row) string {
	if day, ok := DecodeDateSerial(row[0].Text); ok {
		return day
	}
	if last := row[len(row)-1].Text; utf8.RuneCountInString(last) > 1 {
		return last
	}
	return UnknownDay
}

// highlightedLabels returns the labels of the slots whose cell in row is
// highlighted, in column order.
func highlightedLabels(row types.Row, slots []slot) []string {
	var labels []string
	for _, sl := range slots {
		if sl.col < len(row) && IsHighlighted(row[sl.col].Fill) {
			labels = append(labels, sl.label)
		}
	}
	return labels
}
