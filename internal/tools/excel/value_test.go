package excel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeValue(t *testing.T) {
	assert.Equal(t, CellValue{Kind: ValueEmpty}, decodeValue(nil))
	assert.Equal(t, CellValue{Kind: ValueBoolean, Bool: true}, decodeValue(true))
	assert.Equal(t, CellValue{Kind: ValueNumber, Number: 3.5}, decodeValue(3.5))
	assert.Equal(t, CellValue{Kind: ValueNumber, Number: 7}, decodeValue(7))
	assert.Equal(t, CellValue{Kind: ValueText, Text: "hello"}, decodeValue("hello"))

	date := decodeValue("2024-01-15")
	assert.Equal(t, ValueDate, date.Kind)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), date.Time)
}

func TestDecodeValueNonDateStrings(t *testing.T) {
	// Strings that look date-adjacent but don't parse stay text.
	for _, s := range []string{"2024-13-01", "2024-1-15", "January 15", "2024-01-15T10:00:00Z"} {
		assert.Equal(t, ValueText, decodeValue(s).Kind, s)
	}
}

func TestClassifyCellString(t *testing.T) {
	assert.Equal(t, ValueEmpty, classifyCellString("").Kind)
	assert.Equal(t, CellValue{Kind: ValueBoolean, Bool: true}, classifyCellString("TRUE"))
	assert.Equal(t, CellValue{Kind: ValueBoolean, Bool: false}, classifyCellString("FALSE"))
	assert.Equal(t, CellValue{Kind: ValueNumber, Number: 42}, classifyCellString("42"))
	assert.Equal(t, CellValue{Kind: ValueNumber, Number: 3.5}, classifyCellString("3.50"))
	assert.Equal(t, ValueDate, classifyCellString("2024-01-15").Kind)
	assert.Equal(t, CellValue{Kind: ValueText, Text: "true"}, classifyCellString("true"))
}

func TestClassifyCellStringGroupedNumbers(t *testing.T) {
	// The write-side number formats display thousands separators from 1000
	// up; those renderings must come back as numbers, not text.
	assert.Equal(t, CellValue{Kind: ValueNumber, Number: 1234}, classifyCellString("1,234"))
	assert.Equal(t, CellValue{Kind: ValueNumber, Number: 1234567.89}, classifyCellString("1,234,567.89"))
	assert.Equal(t, CellValue{Kind: ValueNumber, Number: -1234}, classifyCellString("-1,234"))

	// Comma-bearing strings that are not grouped numbers stay text.
	for _, s := range []string{"1,23", "12,34", "1,2345", "a,bcd", "1,234 units"} {
		assert.Equal(t, ValueText, classifyCellString(s).Kind, s)
	}
}

func TestSerialize(t *testing.T) {
	assert.Equal(t, "", CellValue{Kind: ValueEmpty}.serialize())
	assert.Equal(t, "x", CellValue{Kind: ValueText, Text: "x"}.serialize())
	assert.Equal(t, 3.5, CellValue{Kind: ValueNumber, Number: 3.5}.serialize())
	assert.Equal(t, true, CellValue{Kind: ValueBoolean, Bool: true}.serialize())

	d := CellValue{Kind: ValueDate, Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2024-01-15", d.serialize())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "empty", CellValue{Kind: ValueEmpty}.typeName())
	assert.Equal(t, "str", CellValue{Kind: ValueText}.typeName())
	assert.Equal(t, "number", CellValue{Kind: ValueNumber}.typeName())
	assert.Equal(t, "bool", CellValue{Kind: ValueBoolean}.typeName())
	assert.Equal(t, "date", CellValue{Kind: ValueDate}.typeName())
}
