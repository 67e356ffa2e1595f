package excel

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ValueKind discriminates the closed set of cell value variants.
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueText
	ValueNumber
	ValueBoolean
	ValueDate
)

// Number display formats applied on write. Integers and decimals keep
// distinct formats so round numbers don't grow spurious ".00" suffixes.
const (
	numFmtInteger = "#,##0"
	numFmtDecimal = "#,##0.00"
	numFmtDate    = "yyyy-mm-dd"
)

// CellValue is a single spreadsheet value as a closed tagged variant
// rather than an open any, so each kind has explicit write and
// serialization rules.
type CellValue struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
	Time   time.Time
}

// decodeValue maps a raw JSON argument value onto a variant. JSON has no
// date type; strings in ISO date form ("2006-01-02") become Date values so
// callers can write real dates without a side channel.
func decodeValue(v any) CellValue {
	switch val := v.(type) {
	case nil:
		return CellValue{Kind: ValueEmpty}
	case bool:
		return CellValue{Kind: ValueBoolean, Bool: val}
	case float64:
		return CellValue{Kind: ValueNumber, Number: val}
	case int:
		return CellValue{Kind: ValueNumber, Number: float64(val)}
	case string:
		if t, err := time.Parse("2006-01-02", val); err == nil {
			return CellValue{Kind: ValueDate, Time: t}
		}
		return CellValue{Kind: ValueText, Text: val}
	default:
		return CellValue{Kind: ValueText, Text: stringify(val)}
	}
}

// write sets the value on a cell along with its kind's number format. The
// format is merged into the cell's existing style so a formatted cell keeps
// its font and fill when its value changes.
func (v CellValue) write(f *excelize.File, sheet, cell string) error {
	switch v.Kind {
	case ValueEmpty:
		return f.SetCellValue(sheet, cell, "")
	case ValueText:
		return f.SetCellValue(sheet, cell, v.Text)
	case ValueBoolean:
		return f.SetCellBool(sheet, cell, v.Bool)
	case ValueNumber:
		if err := f.SetCellValue(sheet, cell, v.Number); err != nil {
			return err
		}
		format := numFmtInteger
		if v.Number != math.Trunc(v.Number) {
			format = numFmtDecimal
		}
		return setNumberFormat(f, sheet, cell, format)
	case ValueDate:
		if err := f.SetCellValue(sheet, cell, v.Time); err != nil {
			return err
		}
		return setNumberFormat(f, sheet, cell, numFmtDate)
	}
	return nil
}

// serialize returns the JSON representation of the value: numbers stay
// numbers, dates become ISO strings, empty becomes "".
func (v CellValue) serialize() any {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueNumber:
		return v.Number
	case ValueBoolean:
		return v.Bool
	case ValueDate:
		return v.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// typeName is the wire-level data_type discriminator for read responses.
func (v CellValue) typeName() string {
	switch v.Kind {
	case ValueText:
		return "str"
	case ValueNumber:
		return "number"
	case ValueBoolean:
		return "bool"
	case ValueDate:
		return "date"
	default:
		return "empty"
	}
}

// groupedNumberPattern matches the thousands-grouped rendering the number
// formats above produce ("1,234" or "-1,234,567.89").
var groupedNumberPattern = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

// classifyCellString infers a variant from excelize's string rendering of
// a stored cell, used on the read path where only the display value is
// available. Numbers written through the tools display with thousands
// separators from 1000 up, so grouped strings are parsed back to numbers
// rather than left as text.
func classifyCellString(s string) CellValue {
	if s == "" {
		return CellValue{Kind: ValueEmpty}
	}
	if s == "TRUE" {
		return CellValue{Kind: ValueBoolean, Bool: true}
	}
	if s == "FALSE" {
		return CellValue{Kind: ValueBoolean, Bool: false}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return CellValue{Kind: ValueNumber, Number: n}
	}
	if groupedNumberPattern.MatchString(s) {
		if n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return CellValue{Kind: ValueNumber, Number: n}
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return CellValue{Kind: ValueDate, Time: t}
	}
	return CellValue{Kind: ValueText, Text: s}
}

// setNumberFormat merges a custom number format into the cell's existing
// style instead of replacing it wholesale.
func setNumberFormat(f *excelize.File, sheet, cell, format string) error {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		styleID = 0
	}
	style := &excelize.Style{}
	if styleID > 0 {
		if existing, err := f.GetStyle(styleID); err == nil && existing != nil {
			style = existing
		}
	}
	style.CustomNumFmt = &format
	newID, err := f.NewStyle(style)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, newID)
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
