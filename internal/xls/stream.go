package xls

import (
	"encoding/binary"
	"fmt"
)

type record struct {
	id   uint16
	data []byte
}

// recordReader walks the [id][length][payload] framing of a BIFF stream.
type recordReader struct {
	buf []byte
	pos int
}

func (r *recordReader) done() bool {
	return r.pos+4 > len(r.buf)
}

func (r *recordReader) next() (record, error) {
	if r.done() {
		return record{}, fmt.Errorf("%w: unexpected end of stream at offset %d", ErrCorrupt, r.pos)
	}
	id := binary.LittleEndian.Uint16(r.buf[r.pos:])
	size := int(binary.LittleEndian.Uint16(r.buf[r.pos+2:]))
	start := r.pos + 4
	end := start + size
	if end > len(r.buf) {
		return record{}, fmt.Errorf("%w: record 0x%04X at offset %d overruns stream", ErrCorrupt, id, r.pos)
	}
	r.pos = end
	return record{id: id, data: r.buf[start:end]}, nil
}

func (r *recordReader) peekID() (uint16, bool) {
	if r.done() {
		return 0, false
	}
	return binary.LittleEndian.Uint16(r.buf[r.pos:]), true
}

// continued returns the payload of rec followed by every CONTINUE record that
// immediately follows it, one slice per record.
func (r *recordReader) continued(rec record) ([][]byte, error) {
	segs := [][]byte{rec.data}
	for {
		id, ok := r.peekID()
		if !ok || id != recContinue {
			return segs, nil
		}
		next, err := r.next()
		if err != nil {
			return nil, err
		}
		segs = append(segs, next.data)
	}
}

func u16(b []byte, off int) int {
	return int(binary.LittleEndian.Uint16(b[off:]))
}

func u32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}
