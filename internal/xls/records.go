package xls

// BIFF record identifiers used by the reader. Values follow the
// [MS-XLS] record numbering shared by BIFF5, BIFF7 and BIFF8.
const (
	recFormula    = 0x0006
	recEOF        = 0x000A
	recCodepage   = 0x0042
	recFilePass   = 0x002F
	recContinue   = 0x003C
	recColInfo    = 0x007D
	recBoundSheet = 0x0085
	recPalette    = 0x0092
	recMulRK      = 0x00BD
	recMulBlank   = 0x00BE
	recRString    = 0x00D6
	recXF         = 0x00E0
	recSST        = 0x00FC
	recLabelSST   = 0x00FD
	recBlank      = 0x0201
	recNumber     = 0x0203
	recLabel      = 0x0204
	recBoolErr    = 0x0205
	recString     = 0x0207
	recRow        = 0x0208
	recRK         = 0x027E
	recBOF        = 0x0809
)

// BOF versions and substream types.
const (
	biff5Version = 0x0500
	biff8Version = 0x0600

	substreamGlobals   = 0x0005
	substreamWorksheet = 0x0010
)

// BIFF version numbers exposed on Workbook.
const (
	BIFF5 = 50
	BIFF8 = 80
)

// defaultXF is the XF applied to cells with no record, no row default and no
// column default.
const defaultXF = 15

// errorText maps BOOLERR / FORMULA error codes to their display text.
var errorText = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}
