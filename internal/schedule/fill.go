package schedule

import (
	"strings"

	"github.com/ginjaninja78/shiftpay/internal/types"
)

// NoFillIndex is the palette index workbooks use for "no fill" (the system
// foreground colour).
const NoFillIndex = 64

// IsHighlighted reports whether a cell fill marks a scheduled slot: the
// pattern must be solid, and the colour must be an RGB value other than the
// empty and opaque-white sentinels, or a palette index other than
// NoFillIndex. Theme colours and missing colours never count.
func IsHighlighted(fill types.Fill) bool {
	if fill.Pattern != types.PatternSolid {
		return false
	}

	switch fill.Color.Kind {
	case types.ColorRGB:
		switch strings.ToUpper(fill.Color.RGB) {
		case "", "00000000", "FFFFFFFF":
			return false
		}
		return true
	case types.ColorIndexed:
		return fill.Color.Index != NoFillIndex
	default:
		return false
	}
}
