package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/shiftpay/internal/types"
)

// SlotSeparator splits a slot label into its start and end hours.
const SlotSeparator = "-"

// ErrBadSlotLabel is returned when a slot label has no numeric start or end.
var ErrBadSlotLabel = errors.New("malformed slot label")

// Aggregate merges the highlighted slot labels of one target row, in column
// order, into a single span: the start hour of the first label to the end
// hour of the last. Slots in between are not inspected, so a row with a gap
// ("10-11", "14-15") still yields one span (10, 15).
//
// The second result is false when labels is empty.
func Aggregate(day string, labels []string) (types.ShiftSpan, bool, error) {
	if len(labels) == 0 {
		return types.ShiftSpan{}, false, nil
	}

	start, err := slotHour(labels[0], 0)
	if err != nil {
		return types.ShiftSpan{}, false, err
	}
	end, err := slotHour(labels[len(labels)-1], 1)
	if err != nil {
		return types.ShiftSpan{}, false, err
	}

	return types.ShiftSpan{Day: day, Start: start, End: end}, true, nil
}

// slotHour returns part 0 (start) or 1 (end) of a "<start>-<end>" label as a
// whole hour. Fractional hours are truncated.
func slotHour(label string, part int) (int, error) {
	parts := strings.Split(label, SlotSeparator)
	if len(parts) <= part {
		return 0, fmt.Errorf("%w: %q", ErrBadSlotLabel, label)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[part]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadSlotLabel, label)
	}
	return int(v), nil
}
