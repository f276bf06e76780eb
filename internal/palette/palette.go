// =============================================================================
// shiftpay - Legacy Colour Palette
// =============================================================================
//
// Legacy (BIFF) workbooks never store a cell colour directly. A cell points at
// an XF (extended format) record, the XF carries a 7-bit colour index, and the
// index is looked up in the workbook palette:
//
//   0-7    : fixed built-in colours (black, white, red, green, blue, ...)
//   8-63   : the default Excel 97 palette (Excel 95 for BIFF5/7 workbooks),
//            overridable by a PALETTE record
//   64     : system window text colour  (no RGB, means "no fill")
//   65     : system window background   (no RGB)
//   81     : system tooltip text        (no RGB)
//   0x7FFF : automatic                  (no RGB)
//
// Resolution is a pure function of the index for a given palette. The palette
// is built once while reading the workbook and never changes afterwards.
//
// =============================================================================

package palette

import (
	"fmt"
	"strings"
)

// =============================================================================
// RGB
// =============================================================================

// RGB is a resolved 24-bit colour.
type RGB struct {
	R, G, B uint8
}

// Hex returns the colour as six upper-case hex digits, e.g. "FFC000".
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Suppressed hex values never become a fill in the converted workbook. White
// and black are what unformatted legacy cells resolve to.
const (
	WhiteHex = "FFFFFF"
	BlackHex = "000000"
)

// IsSuppressed reports whether a resolved colour carries no highlight signal.
func IsSuppressed(hex string) bool {
	hex = strings.ToUpper(strings.TrimPrefix(hex, "#"))
	return hex == WhiteHex || hex == BlackHex
}

// =============================================================================
// PALETTE
// =============================================================================

// SystemForeground is the index legacy and modern workbooks both use for
// "no fill colour".
const SystemForeground = 64

// FirstCustomIndex is the palette slot a PALETTE record starts overriding at.
const FirstCustomIndex = 8

// builtins are indices 0-7; a PALETTE record cannot change them.
var builtins = [FirstCustomIndex]RGB{
	{0, 0, 0},
	{255, 255, 255},
	{255, 0, 0},
	{0, 255, 0},
	{0, 0, 255},
	{255, 255, 0},
	{255, 0, 255},
	{0, 255, 255},
}

// defaultPalette is the Excel 97 (BIFF8) palette for indices 8-63.
var defaultPalette = [56]RGB{
	{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {0, 255, 0},
	{0, 0, 255}, {255, 255, 0}, {255, 0, 255}, {0, 255, 255},
	{128, 0, 0}, {0, 128, 0}, {0, 0, 128}, {128, 128, 0},
	{128, 0, 128}, {0, 128, 128}, {192, 192, 192}, {128, 128, 128},
	{153, 153, 255}, {153, 51, 102}, {255, 255, 204}, {204, 255, 255},
	{102, 0, 102}, {255, 128, 128}, {0, 102, 204}, {204, 204, 255},
	{0, 0, 128}, {255, 0, 255}, {255, 255, 0}, {0, 255, 255},
	{128, 0, 128}, {128, 0, 0}, {0, 128, 128}, {0, 0, 255},
	{0, 204, 255}, {204, 255, 255}, {204, 255, 204}, {255, 255, 153},
	{153, 204, 255}, {255, 153, 204}, {204, 153, 255}, {255, 204, 153},
	{51, 102, 255}, {51, 204, 204}, {153, 204, 0}, {255, 204, 0},
	{255, 153, 0}, {255, 102, 0}, {102, 102, 153}, {150, 150, 150},
	{0, 51, 102}, {51, 153, 102}, {0, 51, 0}, {51, 51, 0},
	{153, 51, 0}, {153, 51, 102}, {51, 51, 153}, {51, 51, 51},
}

// biff5Palette is the Excel 95 default. It differs from the Excel 97 one in
// slot 47 only.
var biff5Palette = func() [56]RGB {
	p := defaultPalette
	p[47-FirstCustomIndex] = RGB{227, 227, 227}
	return p
}()

// Palette maps a legacy colour index to an RGB triple.
type Palette struct {
	colours map[int]RGB
}

// Default returns the built-in palette with no custom overrides.
func Default() *Palette {
	return build(&defaultPalette, nil)
}

// New returns the default palette with the custom colours of a PALETTE record
// applied from index 8 upwards. Entries beyond index 63 are ignored.
func New(custom []RGB) *Palette {
	return build(&defaultPalette, custom)
}

// NewBIFF5 is New for BIFF5/7 workbooks, starting from the Excel 95 defaults.
func NewBIFF5(custom []RGB) *Palette {
	return build(&biff5Palette, custom)
}

func build(defaults *[56]RGB, custom []RGB) *Palette {
	p := &Palette{colours: make(map[int]RGB, len(builtins)+len(defaults))}
	for i, c := range builtins {
		p.colours[i] = c
	}
	for i, c := range defaults {
		p.colours[FirstCustomIndex+i] = c
	}
	for i, c := range custom {
		idx := FirstCustomIndex + i
		if idx >= FirstCustomIndex+len(defaultPalette) {
			break
		}
		p.colours[idx] = c
	}
	return p
}

// Resolve looks up a colour index. The second result is false when the index
// has no palette entry (system colours included), which callers treat as
// "no fill".
func (p *Palette) Resolve(index int) (RGB, bool) {
	if p == nil {
		return RGB{}, false
	}
	c, ok := p.colours[index]
	return c, ok
}

// ResolveHex resolves an index straight to its hex representation.
func (p *Palette) ResolveHex(index int) (string, bool) {
	c, ok := p.Resolve(index)
	if !ok {
		return "", false
	}
	return c.Hex(), true
}

// Len returns the number of indices with an entry.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.colours)
}
