// =============================================================================
// shiftpay - Legacy Workbook Reader
// =============================================================================
//
// This package reads legacy binary spreadsheets (.xls, BIFF5/7 and BIFF8)
// with their formatting information, which is what colour-coded schedules
// need: every cell keeps its XF index, the XF list keeps the fill colour
// index, and the workbook keeps its palette.
//
// FILE STRUCTURE:
//   .xls file (OLE2 compound document)
//   └── "Workbook" stream (BIFF8) or "Book" stream (BIFF5)
//       ├── globals substream : BOF, CODEPAGE, PALETTE, XF..., SST, BOUNDSHEET..., EOF
//       └── one substream per sheet, located by the BOUNDSHEET offset
//
// The whole stream is read into memory; nothing is streamed.
//
// =============================================================================

package xls

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/shiftpay/internal/palette"
	"github.com/richardlehane/mscfb"
	"github.com/rs/zerolog/log"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrCorrupt indicates a truncated or malformed BIFF stream.
var ErrCorrupt = errors.New("xls: corrupt workbook")

// ErrUnsupportedVersion indicates a BIFF version other than 5, 7 or 8.
var ErrUnsupportedVersion = errors.New("xls: unsupported BIFF version")

// ErrNoWorkbookStream indicates a compound document without a workbook stream.
var ErrNoWorkbookStream = errors.New("xls: no Workbook stream in compound document")

// ErrEncrypted indicates a password-protected workbook.
var ErrEncrypted = errors.New("xls: workbook is encrypted")

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook is a legacy workbook with formatting information.
type Workbook struct {
	// BiffVersion is BIFF5 (also used for BIFF7) or BIFF8.
	BiffVersion int

	// Codepage from the CODEPAGE record; 1200 (UTF-16) for BIFF8.
	Codepage int

	// Sheets holds the worksheets in workbook order. Chart, macro and VBA
	// sheets are skipped.
	Sheets []*Sheet

	// XFs is the extended format table that cell XF indices point into.
	XFs []XF

	// Palette resolves colour indices, defaults plus PALETTE overrides.
	Palette *palette.Palette

	sst []string
}

// Open reads a legacy workbook from disk. Both OLE2 compound documents and
// bare BIFF streams are accepted.
func Open(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stream, err := workbookStream(f)
	if err != nil {
		return nil, err
	}
	return ParseStream(stream)
}

// workbookStream extracts the BIFF stream from an OLE2 container, or returns
// the file itself when it already starts with a BIFF5/8 BOF record.
func workbookStream(f *os.File) ([]byte, error) {
	doc, err := mscfb.New(f)
	if err != nil {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			return nil, err
		}
		raw, rerr := io.ReadAll(f)
		if rerr != nil {
			return nil, rerr
		}
		if len(raw) >= 4 && raw[0] == 0x09 && raw[1] == 0x08 {
			return raw, nil
		}
		return nil, fmt.Errorf("xls: not a compound document: %w", err)
	}

	var book []byte
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "Workbook":
			return readEntry(entry)
		case "Book":
			if book, err = readEntry(entry); err != nil {
				return nil, err
			}
		}
	}
	if book != nil {
		return book, nil
	}
	return nil, ErrNoWorkbookStream
}

func readEntry(entry *mscfb.File) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, entry); err != nil {
		return nil, fmt.Errorf("xls: reading %s stream: %w", entry.Name, err)
	}
	return buf.Bytes(), nil
}

// ParseStream parses a BIFF workbook stream held in memory.
func ParseStream(stream []byte) (*Workbook, error) {
	r := &recordReader{buf: stream}

	bof, err := r.next()
	if err != nil {
		return nil, err
	}
	if bof.id != recBOF || len(bof.data) < 4 {
		return nil, fmt.Errorf("%w: stream does not start with a BIFF5/8 BOF", ErrUnsupportedVersion)
	}

	wb := &Workbook{Codepage: 1252}
	switch u16(bof.data, 0) {
	case biff8Version:
		wb.BiffVersion = BIFF8
		wb.Codepage = 1200
	case biff5Version:
		wb.BiffVersion = BIFF5
	default:
		return nil, fmt.Errorf("%w: BOF version 0x%04X", ErrUnsupportedVersion, u16(bof.data, 0))
	}
	if u16(bof.data, 2) != substreamGlobals {
		return nil, fmt.Errorf("%w: first substream is not workbook globals", ErrCorrupt)
	}

	sheets, err := wb.parseGlobals(r)
	if err != nil {
		return nil, err
	}

	for _, s := range sheets {
		if s.offset < 0 || s.offset >= len(stream) {
			return nil, fmt.Errorf("%w: sheet %q offset %d outside stream", ErrCorrupt, s.Name, s.offset)
		}
		sr := &recordReader{buf: stream, pos: s.offset}
		sbof, err := sr.next()
		if err != nil {
			return nil, err
		}
		if sbof.id != recBOF || len(sbof.data) < 4 {
			return nil, fmt.Errorf("%w: sheet %q has no BOF", ErrCorrupt, s.Name)
		}
		if u16(sbof.data, 2) != substreamWorksheet {
			continue
		}
		if err := wb.parseSheet(sr, s); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		wb.Sheets = append(wb.Sheets, s)
	}
	return wb, nil
}

func (b *Workbook) parseGlobals(r *recordReader) ([]*Sheet, error) {
	var sheets []*Sheet
	var custom []palette.RGB

	for {
		rec, err := r.next()
		if err != nil {
			return nil, err
		}

		switch rec.id {
		case recEOF:
			if b.BiffVersion == BIFF8 {
				b.Palette = palette.New(custom)
			} else {
				b.Palette = palette.NewBIFF5(custom)
			}
			return sheets, nil

		case recFilePass:
			return nil, ErrEncrypted

		case recCodepage:
			if len(rec.data) >= 2 && b.BiffVersion != BIFF8 {
				b.Codepage = u16(rec.data, 0)
			}

		case recPalette:
			if len(rec.data) < 2 {
				continue
			}
			n := u16(rec.data, 0)
			custom = custom[:0]
			for i := 0; i < n && 2+4*i+3 <= len(rec.data); i++ {
				off := 2 + 4*i
				custom = append(custom, palette.RGB{R: rec.data[off], G: rec.data[off+1], B: rec.data[off+2]})
			}

		case recXF:
			xf, err := parseXF(rec.data, b.BiffVersion)
			if err != nil {
				return nil, err
			}
			b.XFs = append(b.XFs, xf)

		case recSST:
			segs, err := r.continued(rec)
			if err != nil {
				return nil, err
			}
			sst, err := parseSST(segs)
			if err != nil {
				log.Warn().Err(err).Int("strings", len(sst)).Msg("Shared string table ends early")
			}
			b.sst = sst

		case recBoundSheet:
			s, err := b.parseBoundSheet(rec.data)
			if err != nil {
				return nil, err
			}
			if s != nil {
				sheets = append(sheets, s)
			}
		}
	}
}

// parseBoundSheet returns nil for sheets that are not worksheets.
func (b *Workbook) parseBoundSheet(d []byte) (*Sheet, error) {
	if len(d) < 7 {
		return nil, fmt.Errorf("%w: BOUNDSHEET truncated", ErrCorrupt)
	}
	offset := int(u32(d, 0))
	visibility := int(d[4] & 0x03)
	kind := d[5]

	var name string
	var err error
	if b.BiffVersion == BIFF8 {
		name, _, err = unicodeString(d, 6, 1)
	} else {
		name, _, err = byteString(d, 6, 1, b.Codepage)
	}
	if err != nil {
		return nil, err
	}
	if kind != 0 {
		return nil, nil
	}
	return &Sheet{
		Name:       name,
		Visibility: visibility,
		offset:     offset,
		rowXF:      make(map[int]int),
		colXF:      make(map[int]int),
	}, nil
}

// SheetNames returns the worksheet names in workbook order.
func (b *Workbook) SheetNames() []string {
	names := make([]string, len(b.Sheets))
	for i, s := range b.Sheets {
		names[i] = s.Name
	}
	return names
}

// BackgroundIndex follows a cell's style reference to the palette index of
// its pattern colour. The second result is false when the XF index points
// outside the XF table.
func (b *Workbook) BackgroundIndex(s *Sheet, row, col int) (int, bool) {
	xf := s.XFIndex(row, col)
	if xf < 0 || xf >= len(b.XFs) {
		return 0, false
	}
	return b.XFs[xf].PatternColor, true
}

// CellColor resolves a cell's background colour through the palette.
func (b *Workbook) CellColor(s *Sheet, row, col int) (palette.RGB, bool) {
	idx, ok := b.BackgroundIndex(s, row, col)
	if !ok {
		return palette.RGB{}, false
	}
	return b.Palette.Resolve(idx)
}
