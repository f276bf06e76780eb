package xls

import "fmt"

// XF is the part of an extended-format record the reader keeps: enough to
// resolve a cell background.
type XF struct {
	Font   int
	Format int
	// Style is true for style XFs, false for cell XFs.
	Style bool
	// FillPattern is the fill pattern number, 0 meaning no fill and 1 solid.
	FillPattern int
	// PatternColor is the palette index of the pattern (foreground) colour.
	// Solid fills show this colour as the cell background.
	PatternColor int
	// BackgroundColor is the palette index of the pattern background colour.
	BackgroundColor int
}

// parseXF decodes the BIFF8 (20 byte) or BIFF5/7 (16 byte) XF layout.
func parseXF(data []byte, biff int) (XF, error) {
	switch biff {
	case BIFF8:
		if len(data) < 20 {
			return XF{}, fmt.Errorf("%w: XF record is %d bytes", ErrCorrupt, len(data))
		}
		borders2 := u32(data, 14)
		colours := u16(data, 18)
		return XF{
			Font:            u16(data, 0),
			Format:          u16(data, 2),
			Style:           u16(data, 4)&0x0004 != 0,
			FillPattern:     int(borders2>>26) & 0x3F,
			PatternColor:    colours & 0x7F,
			BackgroundColor: (colours >> 7) & 0x7F,
		}, nil
	default:
		if len(data) < 16 {
			return XF{}, fmt.Errorf("%w: XF record is %d bytes", ErrCorrupt, len(data))
		}
		area := u32(data, 8)
		return XF{
			Font:            u16(data, 0),
			Format:          u16(data, 2),
			Style:           u16(data, 4)&0x0004 != 0,
			FillPattern:     int(area>>16) & 0x3F,
			PatternColor:    int(area) & 0x7F,
			BackgroundColor: int(area>>7) & 0x7F,
		}, nil
	}
}
