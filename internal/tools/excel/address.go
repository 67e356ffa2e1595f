package excel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Excel sheet limits
const (
	MaxRows    = 1048576
	MaxColumns = 16384
)

var addressPattern = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)

// CellAddress is a 1-based (column, row) position within a worksheet.
type CellAddress struct {
	Col int
	Row int
}

// CellRange is a rectangular span of cells. Start is the top-left cell and
// End the bottom-right; a single-cell range has Start == End.
type CellRange struct {
	Start CellAddress
	End   CellAddress
}

// ParseAddress converts an A1-notation address to coordinates. Letters are
// base-26 with A=1; there is no zero letter, so "A" is column 1 and "AA"
// column 27, not 26.
func ParseAddress(ref string) (CellAddress, error) {
	m := addressPattern.FindStringSubmatch(ref)
	if m == nil {
		return CellAddress{}, &AddressError{Ref: ref, Message: "expected one or more letters followed by digits, like 'A1'"}
	}

	col := 0
	for _, c := range m[1] {
		col = col*26 + int(c-'A') + 1
		if col > MaxColumns {
			return CellAddress{}, &AddressError{Ref: ref, Message: fmt.Sprintf("column exceeds limit of %d", MaxColumns)}
		}
	}

	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return CellAddress{}, &AddressError{Ref: ref, Message: "row must be 1 or greater"}
	}
	if row > MaxRows {
		return CellAddress{}, &AddressError{Ref: ref, Message: fmt.Sprintf("row exceeds limit of %d", MaxRows)}
	}

	return CellAddress{Col: col, Row: row}, nil
}

// ParseRange accepts either a single address ("C3") or a colon-joined pair
// ("A1:B10"). A single address yields a degenerate range with Start == End.
// Ranges whose end lies above or left of the start are rejected rather than
// silently inverted.
func ParseRange(ref string) (CellRange, error) {
	if ref == "" {
		return CellRange{}, &RangeSyntaxError{Ref: ref, Message: "range cannot be empty"}
	}

	parts := strings.Split(ref, ":")
	switch len(parts) {
	case 1:
		addr, err := ParseAddress(parts[0])
		if err != nil {
			return CellRange{}, &RangeSyntaxError{Ref: ref, Message: err.Error()}
		}
		return CellRange{Start: addr, End: addr}, nil
	case 2:
		start, err := ParseAddress(parts[0])
		if err != nil {
			return CellRange{}, &RangeSyntaxError{Ref: ref, Message: fmt.Sprintf("invalid start cell: %v", err)}
		}
		end, err := ParseAddress(parts[1])
		if err != nil {
			return CellRange{}, &RangeSyntaxError{Ref: ref, Message: fmt.Sprintf("invalid end cell: %v", err)}
		}
		if start.Row > end.Row || start.Col > end.Col {
			return CellRange{}, &RangeSyntaxError{Ref: ref, Message: "start cell must be before end cell"}
		}
		return CellRange{Start: start, End: end}, nil
	default:
		return CellRange{}, &RangeSyntaxError{Ref: ref, Message: "expected 'A1' or 'A1:B10'"}
	}
}

// FormatAddress is the inverse of ParseAddress.
func FormatAddress(col, row int) string {
	return columnName(col) + strconv.Itoa(row)
}

func (a CellAddress) String() string {
	return FormatAddress(a.Col, a.Row)
}

func (r CellRange) String() string {
	if r.Start == r.End {
		return r.Start.String()
	}
	return r.Start.String() + ":" + r.End.String()
}

// Rows returns the number of rows the range spans.
func (r CellRange) Rows() int {
	return r.End.Row - r.Start.Row + 1
}

// Cols returns the number of columns the range spans.
func (r CellRange) Cols() int {
	return r.End.Col - r.Start.Col + 1
}

// columnName converts a 1-based column number to its letter form
// (1 -> A, 26 -> Z, 27 -> AA).
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+(col%26))) + name
		col /= 26
	}
	return name
}
