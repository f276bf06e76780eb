package xls

import (
	"encoding/binary"
	"math"
)

// Cell is a single legacy cell. Value is nil (blank), string, float64 or bool.
// Dates are plain float64 serials; the reader never reinterprets numbers.
type Cell struct {
	Value any
	// XF is the cell's own format index, or -1 for cells with no record.
	XF int
}

// Sheet is one worksheet, held as a dense row-major grid.
type Sheet struct {
	Name string
	// Visibility is 0 visible, 1 hidden, 2 very hidden.
	Visibility int

	// NRows and NCols are one past the largest populated row/column index.
	NRows int
	NCols int

	cells   [][]Cell
	rowXF   map[int]int
	colXF   map[int]int
	offset  int
	pending *pendingFormula
}

type pendingFormula struct {
	row, col, xf int
}

// Cell returns the cell at (row, col), zero-based. Cells outside the
// populated area are blank.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.cells) || col < 0 || col >= len(s.cells[row]) {
		return Cell{XF: -1}
	}
	return s.cells[row][col]
}

// Value is shorthand for Cell(row, col).Value.
func (s *Sheet) Value(row, col int) any {
	return s.Cell(row, col).Value
}

// XFIndex resolves the effective format of a cell: its own XF, else the row
// default, else the column default, else XF 15.
func (s *Sheet) XFIndex(row, col int) int {
	if xf := s.Cell(row, col).XF; xf >= 0 {
		return xf
	}
	if xf, ok := s.rowXF[row]; ok {
		return xf
	}
	if xf, ok := s.colXF[col]; ok {
		return xf
	}
	return defaultXF
}

func (s *Sheet) put(row, col int, value any, xf int) {
	for len(s.cells) <= row {
		s.cells = append(s.cells, nil)
	}
	for len(s.cells[row]) <= col {
		s.cells[row] = append(s.cells[row], Cell{XF: -1})
	}
	s.cells[row][col] = Cell{Value: value, XF: xf}
	if row >= s.NRows {
		s.NRows = row + 1
	}
	if col >= s.NCols {
		s.NCols = col + 1
	}
}

// decodeRK unpacks the 30-bit RK number encoding.
func decodeRK(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

// parseSheet reads one worksheet substream starting at its BOF record.
func (b *Workbook) parseSheet(r *recordReader, s *Sheet) error {
	for !r.done() {
		rec, err := r.next()
		if err != nil {
			return err
		}
		if rec.id == recEOF {
			return nil
		}
		if err := b.handleSheetRecord(s, rec); err != nil {
			return err
		}
	}
	return nil
}

func (b *Workbook) handleSheetRecord(s *Sheet, rec record) error {
	d := rec.data

	switch rec.id {
	case recNumber:
		if len(d) < 14 {
			return nil
		}
		s.put(u16(d, 0), u16(d, 2), math.Float64frombits(binary.LittleEndian.Uint64(d[6:])), u16(d, 4))

	case recRK:
		if len(d) < 10 {
			return nil
		}
		s.put(u16(d, 0), u16(d, 2), decodeRK(u32(d, 6)), u16(d, 4))

	case recMulRK:
		if len(d) < 6 {
			return nil
		}
		row, col := u16(d, 0), u16(d, 2)
		for off := 4; off+6 <= len(d)-2; off += 6 {
			s.put(row, col, decodeRK(u32(d, off+2)), u16(d, off))
			col++
		}

	case recLabelSST:
		if len(d) < 10 {
			return nil
		}
		idx := int(u32(d, 6))
		var v any
		if idx < len(b.sst) {
			v = b.sst[idx]
		}
		s.put(u16(d, 0), u16(d, 2), v, u16(d, 4))

	case recLabel, recRString:
		if len(d) < 8 {
			return nil
		}
		text, err := b.cellString(d, 6)
		if err != nil {
			return err
		}
		s.put(u16(d, 0), u16(d, 2), text, u16(d, 4))

	case recBlank:
		if len(d) < 6 {
			return nil
		}
		s.put(u16(d, 0), u16(d, 2), nil, u16(d, 4))

	case recMulBlank:
		if len(d) < 6 {
			return nil
		}
		row, col := u16(d, 0), u16(d, 2)
		for off := 4; off+2 <= len(d)-2; off += 2 {
			s.put(row, col, nil, u16(d, off))
			col++
		}

	case recBoolErr:
		if len(d) < 8 {
			return nil
		}
		var v any = d[6] != 0
		if d[7] != 0 {
			v = errorValue(d[6])
		}
		s.put(u16(d, 0), u16(d, 2), v, u16(d, 4))

	case recFormula:
		if len(d) < 14 {
			return nil
		}
		s.pending = nil
		row, col, xf := u16(d, 0), u16(d, 2), u16(d, 4)
		if d[12] != 0xFF || d[13] != 0xFF {
			s.put(row, col, math.Float64frombits(binary.LittleEndian.Uint64(d[6:])), xf)
			return nil
		}
		switch d[6] {
		case 0:
			// The cached string arrives in the STRING record that follows.
			s.put(row, col, "", xf)
			s.pending = &pendingFormula{row: row, col: col, xf: xf}
		case 1:
			s.put(row, col, d[8] != 0, xf)
		case 2:
			s.put(row, col, errorValue(d[8]), xf)
		default:
			s.put(row, col, "", xf)
		}

	case recString:
		if s.pending == nil {
			return nil
		}
		p := s.pending
		s.pending = nil
		text, err := b.cellString(d, 0)
		if err != nil {
			return err
		}
		s.put(p.row, p.col, text, p.xf)

	case recRow:
		if len(d) < 16 {
			return nil
		}
		if u16(d, 12)&0x0080 != 0 {
			s.rowXF[u16(d, 0)] = u16(d, 14) & 0x0FFF
		}

	case recColInfo:
		if len(d) < 10 {
			return nil
		}
		first, last, xf := u16(d, 0), u16(d, 2), u16(d, 6)
		for c := first; c <= last && c < 256; c++ {
			s.colXF[c] = xf
		}
	}
	return nil
}

// cellString reads the string payload of LABEL, RSTRING and STRING records.
func (b *Workbook) cellString(d []byte, off int) (string, error) {
	if b.BiffVersion == BIFF8 {
		s, _, err := unicodeString(d, off, 2)
		return s, err
	}
	s, _, err := byteString(d, off, 2, b.Codepage)
	return s, err
}

func errorValue(code byte) string {
	if text, ok := errorText[code]; ok {
		return text
	}
	return "#ERR!"
}
