package xls

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// String option flags of XLUnicodeString / XLUnicodeRichExtendedString.
const (
	strHighByte = 0x01
	strExtSt    = 0x04
	strRichSt   = 0x08
)

// codepages maps CODEPAGE record values to decoders for 8-bit strings.
var codepages = map[int]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
	32768: charmap.Macintosh,
}

// decodeBytes decodes an 8-bit BIFF5 string in the workbook codepage.
// Unknown codepages fall back to Windows-1252.
func decodeBytes(b []byte, codepage int) string {
	enc, ok := codepages[codepage]
	if !ok {
		enc = charmap.Windows1252
	}
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// decodeUnits turns BIFF8 character data into a Go string. Compressed
// characters are the low bytes of UTF-16 code units.
func decodeUnits(b []byte, highByte bool) string {
	if !highByte {
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return string(runes)
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}

// unicodeString reads a BIFF8 string whose character count has lenSize bytes
// (1 for ShortXLUnicodeString, 2 for XLUnicodeString) starting at off. It
// returns the string and the offset just past it.
func unicodeString(b []byte, off, lenSize int) (string, int, error) {
	if off+lenSize+1 > len(b) {
		return "", off, fmt.Errorf("%w: string header truncated", ErrCorrupt)
	}
	var cch int
	if lenSize == 1 {
		cch = int(b[off])
	} else {
		cch = u16(b, off)
	}
	off += lenSize
	flags := b[off]
	off++

	var runs, ext int
	if flags&strRichSt != 0 {
		if off+2 > len(b) {
			return "", off, fmt.Errorf("%w: rich string header truncated", ErrCorrupt)
		}
		runs = u16(b, off)
		off += 2
	}
	if flags&strExtSt != 0 {
		if off+4 > len(b) {
			return "", off, fmt.Errorf("%w: extended string header truncated", ErrCorrupt)
		}
		ext = int(u32(b, off))
		off += 4
	}

	width := 1
	if flags&strHighByte != 0 {
		width = 2
	}
	end := off + cch*width
	if end > len(b) {
		return "", off, fmt.Errorf("%w: string of %d characters truncated", ErrCorrupt, cch)
	}
	s := decodeUnits(b[off:end], width == 2)
	return s, end + runs*4 + ext, nil
}

// byteString reads a BIFF5 string: a length of lenSize bytes followed by
// 8-bit characters in the workbook codepage.
func byteString(b []byte, off, lenSize, codepage int) (string, int, error) {
	if off+lenSize > len(b) {
		return "", off, fmt.Errorf("%w: string header truncated", ErrCorrupt)
	}
	var n int
	if lenSize == 1 {
		n = int(b[off])
	} else {
		n = u16(b, off)
	}
	off += lenSize
	if off+n > len(b) {
		return "", off, fmt.Errorf("%w: string of %d bytes truncated", ErrCorrupt, n)
	}
	return decodeBytes(b[off:off+n], codepage), off + n, nil
}

// =============================================================================
// SHARED STRING TABLE
// =============================================================================

// segmentReader reads across an SST record and its CONTINUE records. A string
// whose characters run past a record boundary resumes in the next record
// after a fresh option byte that may switch the character width.
type segmentReader struct {
	segs [][]byte
	seg  int
	pos  int
}

func (s *segmentReader) remaining() int {
	if s.seg >= len(s.segs) {
		return 0
	}
	return len(s.segs[s.seg]) - s.pos
}

func (s *segmentReader) advance() bool {
	if s.seg+1 >= len(s.segs) {
		s.seg = len(s.segs)
		return false
	}
	s.seg++
	s.pos = 0
	return true
}

func (s *segmentReader) read(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for n > 0 {
		if s.remaining() == 0 && !s.advance() {
			return nil, fmt.Errorf("%w: shared string table truncated", ErrCorrupt)
		}
		take := min(n, s.remaining())
		out = append(out, s.segs[s.seg][s.pos:s.pos+take]...)
		s.pos += take
		n -= take
	}
	return out, nil
}

func (s *segmentReader) skip(n int) error {
	_, err := s.read(n)
	return err
}

func (s *segmentReader) readString() (string, error) {
	hdr, err := s.read(3)
	if err != nil {
		return "", err
	}
	cch := int(binary.LittleEndian.Uint16(hdr))
	flags := hdr[2]

	var runs, ext int
	if flags&strRichSt != 0 {
		b, err := s.read(2)
		if err != nil {
			return "", err
		}
		runs = int(binary.LittleEndian.Uint16(b))
	}
	if flags&strExtSt != 0 {
		b, err := s.read(4)
		if err != nil {
			return "", err
		}
		ext = int(binary.LittleEndian.Uint32(b))
	}

	high := flags&strHighByte != 0
	units := make([]uint16, 0, cch)
	for len(units) < cch {
		if s.remaining() == 0 {
			if !s.advance() {
				return "", fmt.Errorf("%w: shared string truncated", ErrCorrupt)
			}
			if len(s.segs[s.seg]) == 0 {
				continue
			}
			high = s.segs[s.seg][0]&strHighByte != 0
			s.pos = 1
			continue
		}
		if high {
			if s.remaining() < 2 {
				return "", fmt.Errorf("%w: split UTF-16 code unit", ErrCorrupt)
			}
			units = append(units, binary.LittleEndian.Uint16(s.segs[s.seg][s.pos:]))
			s.pos += 2
		} else {
			units = append(units, uint16(s.segs[s.seg][s.pos]))
			s.pos++
		}
	}

	if err := s.skip(runs*4 + ext); err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// parseSST decodes the shared string table. A table that ends early keeps
// the strings read so far; LABELSST cells pointing past it become blank.
func parseSST(segs [][]byte) ([]string, error) {
	if len(segs) == 0 || len(segs[0]) < 8 {
		return nil, fmt.Errorf("%w: SST header truncated", ErrCorrupt)
	}
	unique := int(u32(segs[0], 4))
	r := &segmentReader{segs: segs, pos: 8}
	out := make([]string, 0, min(unique, 1<<16))
	for i := 0; i < unique; i++ {
		s, err := r.readString()
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}
