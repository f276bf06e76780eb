// Package xlstest builds BIFF8 workbook streams in memory for tests.
//
// Bytes returns a bare BIFF stream, which xls.Open accepts; CompoundBytes
// wraps the same stream in the OLE2 container Excel writes. Either can be
// written to a .xls file and fed through the whole pipeline.
package xlstest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"unicode/utf16"
)

// NoFill is the system colour index unformatted cells use.
const NoFill = 64

// XF describes one extended format record.
type XF struct {
	PatternColor int
	FillPattern  int
}

// Builder assembles a workbook stream.
type Builder struct {
	XFs       []XF
	Palette   [][3]byte
	Strings   []string
	Encrypted bool

	// SSTUnique, when set, replaces the unique-string count in the SST
	// header.
	SSTUnique int

	// Filler is the size of an ignored record written into the globals.
	Filler int

	sheets []*Sheet
}

// New returns a builder preloaded with the 16 default XFs (no fill).
func New() *Builder {
	b := &Builder{}
	for i := 0; i < 16; i++ {
		b.XFs = append(b.XFs, XF{PatternColor: NoFill})
	}
	return b
}

// AddXF appends an XF and returns its index.
func (b *Builder) AddXF(patternColor, fillPattern int) int {
	b.XFs = append(b.XFs, XF{PatternColor: patternColor, FillPattern: fillPattern})
	return len(b.XFs) - 1
}

// AddString appends a shared string and returns its index.
func (b *Builder) AddString(s string) int {
	b.Strings = append(b.Strings, s)
	return len(b.Strings) - 1
}

// AddSheet appends a worksheet (kind 0) and returns it for population.
func (b *Builder) AddSheet(name string) *Sheet {
	s := &Sheet{Name: name}
	b.sheets = append(b.sheets, s)
	return s
}

// AddChartSheet appends a BOUNDSHEET entry for a chart sheet.
func (b *Builder) AddChartSheet(name string) *Sheet {
	s := &Sheet{Name: name, Kind: 2}
	b.sheets = append(b.sheets, s)
	return s
}

// Sheet collects the cell records of one worksheet.
type Sheet struct {
	Name string
	Kind byte

	records bytes.Buffer
}

func (s *Sheet) cell(id uint16, row, col, xf int, tail ...[]byte) *Sheet {
	var d bytes.Buffer
	put16(&d, row)
	put16(&d, col)
	put16(&d, xf)
	for _, t := range tail {
		d.Write(t)
	}
	writeRecord(&s.records, id, d.Bytes())
	return s
}

// Number adds a NUMBER record.
func (s *Sheet) Number(row, col, xf int, v float64) *Sheet {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return s.cell(0x0203, row, col, xf, b)
}

// RK adds an RK record holding an integer value.
func (s *Sheet) RK(row, col, xf int, v int32) *Sheet {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, IntRK(v))
	return s.cell(0x027E, row, col, xf, b)
}

// LabelSST adds a LABELSST record pointing at a shared string.
func (s *Sheet) LabelSST(row, col, xf, idx int) *Sheet {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(idx))
	return s.cell(0x00FD, row, col, xf, b)
}

// Label adds an inline LABEL record.
func (s *Sheet) Label(row, col, xf int, text string) *Sheet {
	return s.cell(0x0204, row, col, xf, xlString(text))
}

// Blank adds a BLANK record.
func (s *Sheet) Blank(row, col, xf int) *Sheet {
	return s.cell(0x0201, row, col, xf)
}

// MulBlank adds a MULBLANK record covering len(xfs) columns.
func (s *Sheet) MulBlank(row, firstCol int, xfs ...int) *Sheet {
	var d bytes.Buffer
	put16(&d, row)
	put16(&d, firstCol)
	for _, xf := range xfs {
		put16(&d, xf)
	}
	put16(&d, firstCol+len(xfs)-1)
	writeRecord(&s.records, 0x00BE, d.Bytes())
	return s
}

// MulRK adds a MULRK record of integer values sharing one XF.
func (s *Sheet) MulRK(row, firstCol, xf int, values ...int32) *Sheet {
	var d bytes.Buffer
	put16(&d, row)
	put16(&d, firstCol)
	for _, v := range values {
		put16(&d, xf)
		put32(&d, IntRK(v))
	}
	put16(&d, firstCol+len(values)-1)
	writeRecord(&s.records, 0x00BD, d.Bytes())
	return s
}

// Bool adds a BOOLERR record holding a boolean.
func (s *Sheet) Bool(row, col, xf int, v bool) *Sheet {
	b := []byte{0, 0}
	if v {
		b[0] = 1
	}
	return s.cell(0x0205, row, col, xf, b)
}

// Error adds a BOOLERR record holding an error code.
func (s *Sheet) Error(row, col, xf int, code byte) *Sheet {
	return s.cell(0x0205, row, col, xf, []byte{code, 1})
}

// FormulaNumber adds a FORMULA record with a cached numeric result.
func (s *Sheet) FormulaNumber(row, col, xf int, v float64) *Sheet {
	b := make([]byte, 8+2+4+2)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return s.cell(0x0006, row, col, xf, b)
}

// FormulaString adds a FORMULA record with a cached string result followed
// by its STRING record.
func (s *Sheet) FormulaString(row, col, xf int, text string) *Sheet {
	b := make([]byte, 8+2+4+2)
	b[0] = 0
	b[6], b[7] = 0xFF, 0xFF
	s.cell(0x0006, row, col, xf, b)
	writeRecord(&s.records, 0x0207, xlString(text))
	return s
}

// RowDefault adds a ROW record that gives the row a default XF.
func (s *Sheet) RowDefault(row, xf int) *Sheet {
	var d bytes.Buffer
	put16(&d, row)
	put16(&d, 0)
	put16(&d, 0)
	put16(&d, 0x00FF)
	put16(&d, 0)
	put16(&d, 0)
	put16(&d, 0x0080)
	put16(&d, xf&0x0FFF)
	writeRecord(&s.records, 0x0208, d.Bytes())
	return s
}

// ColDefault adds a COLINFO record for columns first..last.
func (s *Sheet) ColDefault(first, last, xf int) *Sheet {
	var d bytes.Buffer
	put16(&d, first)
	put16(&d, last)
	put16(&d, 2340)
	put16(&d, xf)
	put16(&d, 0)
	put16(&d, 0)
	writeRecord(&s.records, 0x007D, d.Bytes())
	return s
}

// Bytes serialises the workbook stream.
func (b *Builder) Bytes() []byte {
	// The BOUNDSHEET offsets depend on the size of the globals substream,
	// which does not depend on the offsets themselves.
	offsets := make([]int, len(b.sheets))
	globals := b.globals(offsets)

	pos := len(globals)
	var body bytes.Buffer
	for i, s := range b.sheets {
		offsets[i] = pos
		var sub bytes.Buffer
		kind := 0x0010
		if s.Kind != 0 {
			kind = 0x0020
		}
		writeRecord(&sub, 0x0809, bof(kind))
		sub.Write(s.records.Bytes())
		writeRecord(&sub, 0x000A, nil)
		body.Write(sub.Bytes())
		pos += sub.Len()
	}

	out := b.globals(offsets)
	return append(out, body.Bytes()...)
}

// WriteFile writes the stream to path.
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o644)
}

// CompoundBytes returns the workbook stream inside an OLE2 compound
// document. Streams shorter than the mini-stream cutoff get a filler record.
func (b *Builder) CompoundBytes() []byte {
	stream := b.Bytes()
	if n := len(stream); n < miniStreamCutoff {
		padded := *b
		padded.Filler += miniStreamCutoff - n
		stream = padded.Bytes()
	}
	return Compound("Workbook", stream)
}

// WriteCompoundFile writes CompoundBytes to path.
func (b *Builder) WriteCompoundFile(path string) error {
	return os.WriteFile(path, b.CompoundBytes(), 0o644)
}

// =============================================================================
// COMPOUND DOCUMENT
// =============================================================================

const (
	sectorSize       = 512
	miniStreamCutoff = 4096

	fatSector  = 0xFFFFFFFD
	endOfChain = 0xFFFFFFFE
	freeSector = 0xFFFFFFFF
	noStream   = 0xFFFFFFFF
)

// Compound builds a version 3 compound document holding one stream.
//
// Layout: header, one FAT sector (sector 0), one directory sector (sector 1),
// then the stream from sector 2 on. The stream must be at least 4096 bytes,
// so that it lives in regular sectors, and fit in the single FAT sector.
func Compound(name string, stream []byte) []byte {
	n := (len(stream) + sectorSize - 1) / sectorSize
	if len(stream) < miniStreamCutoff || n+2 > sectorSize/4 {
		panic(fmt.Sprintf("xlstest: cannot store a %d byte stream", len(stream)))
	}

	le := binary.LittleEndian
	out := make([]byte, sectorSize*(n+3))
	sector := func(i int) []byte {
		return out[sectorSize*(i+1) : sectorSize*(i+2)]
	}

	h := out[:sectorSize]
	copy(h, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(h[24:], 0x003E)
	le.PutUint16(h[26:], 3)
	le.PutUint16(h[28:], 0xFFFE)
	le.PutUint16(h[30:], 9)
	le.PutUint16(h[32:], 6)
	le.PutUint32(h[44:], 1)
	le.PutUint32(h[48:], 1)
	le.PutUint32(h[56:], miniStreamCutoff)
	le.PutUint32(h[60:], endOfChain)
	le.PutUint32(h[68:], endOfChain)
	for i := 0; i < 109; i++ {
		le.PutUint32(h[76+4*i:], freeSector)
	}
	le.PutUint32(h[76:], 0)

	fat := sector(0)
	for i := 0; i < sectorSize/4; i++ {
		le.PutUint32(fat[4*i:], freeSector)
	}
	le.PutUint32(fat[0:], fatSector)
	le.PutUint32(fat[4:], endOfChain)
	for i := 0; i < n; i++ {
		next := uint32(endOfChain)
		if i < n-1 {
			next = uint32(i + 3)
		}
		le.PutUint32(fat[4*(i+2):], next)
	}

	dir := sector(1)
	dirEntry(dir[0:128], "Root Entry", 5, 1, endOfChain, 0)
	dirEntry(dir[128:256], name, 2, noStream, 2, len(stream))
	dirEntry(dir[256:384], "", 0, noStream, 0, 0)
	dirEntry(dir[384:512], "", 0, noStream, 0, 0)

	copy(out[sectorSize*3:], stream)
	return out
}

func dirEntry(d []byte, name string, kind byte, child, start uint32, size int) {
	le := binary.LittleEndian
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		le.PutUint16(d[2*i:], u)
	}
	if len(units) > 0 {
		le.PutUint16(d[64:], uint16(2*(len(units)+1)))
	}
	d[66] = kind
	d[67] = 1
	le.PutUint32(d[68:], noStream)
	le.PutUint32(d[72:], noStream)
	le.PutUint32(d[76:], child)
	le.PutUint32(d[116:], start)
	le.PutUint32(d[120:], uint32(size))
}

func (b *Builder) globals(offsets []int) []byte {
	var g bytes.Buffer
	writeRecord(&g, 0x0809, bof(0x0005))
	if b.Encrypted {
		writeRecord(&g, 0x002F, []byte{0, 0})
	}
	writeRecord(&g, 0x0042, []byte{0xB0, 0x04})
	if b.Filler > 0 {
		writeRecord(&g, 0x00EB, make([]byte, b.Filler))
	}

	if len(b.Palette) > 0 {
		var d bytes.Buffer
		put16(&d, len(b.Palette))
		for _, c := range b.Palette {
			d.Write([]byte{c[0], c[1], c[2], 0})
		}
		writeRecord(&g, 0x0092, d.Bytes())
	}

	for _, xf := range b.XFs {
		d := make([]byte, 20)
		binary.LittleEndian.PutUint32(d[14:], uint32(xf.FillPattern&0x3F)<<26)
		binary.LittleEndian.PutUint16(d[18:], uint16(xf.PatternColor&0x7F)|uint16(65<<7))
		writeRecord(&g, 0x00E0, d)
	}

	if len(b.Strings) > 0 {
		unique := len(b.Strings)
		if b.SSTUnique > 0 {
			unique = b.SSTUnique
		}
		var d bytes.Buffer
		put32(&d, uint32(len(b.Strings)))
		put32(&d, uint32(unique))
		for _, s := range b.Strings {
			d.Write(xlString(s))
		}
		writeRecord(&g, 0x00FC, d.Bytes())
	}

	for i, s := range b.sheets {
		var d bytes.Buffer
		put32(&d, uint32(offsets[i]))
		d.WriteByte(0)
		d.WriteByte(s.Kind)
		units := utf16.Encode([]rune(s.Name))
		d.WriteByte(byte(len(units)))
		d.WriteByte(0x01)
		for _, u := range units {
			put16(&d, int(u))
		}
		writeRecord(&g, 0x0085, d.Bytes())
	}

	writeRecord(&g, 0x000A, nil)
	return g.Bytes()
}

// IntRK encodes an integer as an RK value.
func IntRK(v int32) uint32 {
	return uint32(v)<<2 | 0x02
}

// xlString encodes an XLUnicodeString with UTF-16 characters.
func xlString(s string) []byte {
	units := utf16.Encode([]rune(s))
	var d bytes.Buffer
	put16(&d, len(units))
	d.WriteByte(0x01)
	for _, u := range units {
		put16(&d, int(u))
	}
	return d.Bytes()
}

func bof(kind int) []byte {
	var d bytes.Buffer
	put16(&d, 0x0600)
	put16(&d, kind)
	put16(&d, 0x0DBB)
	put16(&d, 0x07CC)
	put32(&d, 0)
	put32(&d, 0x06)
	return d.Bytes()
}

func writeRecord(w *bytes.Buffer, id uint16, data []byte) {
	put16(w, int(id))
	put16(w, len(data))
	w.Write(data)
}

func put16(w *bytes.Buffer, v int) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	w.Write(b[:])
}

func put32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}
