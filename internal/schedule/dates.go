package schedule

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// minDateSerial is the smallest serial treated as a date. Smaller numbers
	// in a header's first cell are row counters or sentinels.
	minDateSerial = 40000

	// maxDateSerial is 9999-12-31.
	maxDateSerial = 2958465

	// DayLayout formats a decoded day label, e.g. "Monday, November 24, 2025".
	DayLayout = "Monday, January 02, 2006"
)

// serialEpoch is day zero of spreadsheet date serials.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DecodeDateSerial turns a date serial such as "45985" or "45985.0" into a
// day label. The second result is false for text that is not a number
// greater than 40000.
func DecodeDateSerial(text string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(serial) || serial <= minDateSerial || serial > maxDateSerial+1 {
		return "", false
	}

	days := math.Floor(serial)
	day := serialEpoch.AddDate(0, 0, int(days))
	day = day.Add(time.Duration((serial - days) * float64(24*time.Hour)))
	return day.Format(DayLayout), true
}
