package excel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFormatRangeBold(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleWriteDataToExcel(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"data":       []any{[]any{"Header"}},
	})
	require.NoError(t, err)

	payload, err := handleFormatRange(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"start_cell": "A1",
		"bold":       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "A1", payload["range"])
	applied := payload["formatting_applied"].(map[string]any)
	assert.Equal(t, true, applied["bold"])

	read, err := handleReadDataFromExcel(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"start_cell": "A1",
		"end_cell":   "A1",
	})
	require.NoError(t, err)
	cells := read["cells"].([][]map[string]any)
	cell := cells[0][0]
	assert.Equal(t, true, cell["has_style"])
	formatting := cell["formatting"].(map[string]any)
	assert.Equal(t, true, formatting["font_bold"])
}

func TestFormatRangePreservesExistingAttributes(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleUpdateSingleCell(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"cell":       "A1",
		"value":      "x",
	})
	require.NoError(t, err)

	// Two separate formatting calls layer rather than replace.
	_, err = handleFormatRange(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"start_cell": "A1",
		"font_color": "#FF0000",
	})
	require.NoError(t, err)
	_, err = handleFormatRange(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"start_cell": "A1",
		"bold":       true,
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	styleID, err := f.GetCellStyle("Data", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Contains(t, style.Font.Color, "FF0000")
}

func TestFormatRangeMergeCells(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleFormatRange(context.Background(), testLogger(), arguments{
		"file_path":   path,
		"sheet_name":  "Data",
		"start_cell":  "A1",
		"end_cell":    "C1",
		"merge_cells": true,
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	merged, err := f.GetMergeCells("Data")
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "C1", merged[0].GetEndAxis())
}

func TestFormatRangeRejectsBadStart(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleFormatRange(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"start_cell": "nonsense",
		"bold":       true,
	})
	require.Error(t, err)
	assert.Equal(t, KindInvalidAddress, errorKind(err))
}

func TestBuildStylePatchEcho(t *testing.T) {
	_, echo := buildStylePatch(arguments{
		"bold":          true,
		"font_size":     float64(14),
		"bg_color":      "#00FF00",
		"border_style":  "thick",
		"border_color":  "000000",
		"number_format": "0.00%",
		"alignment":     "center",
		"wrap_text":     true,
	})
	assert.Equal(t, true, echo["bold"])
	assert.Equal(t, false, echo["italic"])
	assert.Equal(t, float64(14), echo["font_size"])
	assert.Equal(t, "#00FF00", echo["bg_color"])
	assert.Equal(t, "thick", echo["border_style"])
	assert.Equal(t, "0.00%", echo["number_format"])
	assert.Equal(t, "center", echo["alignment"])
	assert.Equal(t, true, echo["wrap_text"])
}

func TestBorderStyleCode(t *testing.T) {
	assert.Equal(t, 1, borderStyleCode("thin"))
	assert.Equal(t, 5, borderStyleCode("thick"))
	assert.Equal(t, 1, borderStyleCode("unknown"))
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "FF0000", normalizeColor("#ff0000"))
	assert.Equal(t, "00FF00", normalizeColor("00ff00"))
}

func TestAutofitColumns(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleWriteDataToExcel(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"data": []any{
			[]any{"short", "a considerably longer header value"},
		},
	})
	require.NoError(t, err)

	payload, err := handleAutofitColumns(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, []string{"A", "B"}, payload["columns_autofit"])

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	wa, err := f.GetColWidth("Data", "A")
	require.NoError(t, err)
	wb, err := f.GetColWidth("Data", "B")
	require.NoError(t, err)
	assert.Greater(t, wb, wa)
}

func TestAutofitColumnsExplicitList(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleWriteDataToExcel(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"data":       []any{[]any{"one", "two", "three"}},
	})
	require.NoError(t, err)

	payload, err := handleAutofitColumns(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"columns":    []any{"b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, payload["columns_autofit"])
}

func TestAutofitColumnsRejectsBadLetter(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleAutofitColumns(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"columns":    []any{"42"},
	})
	require.Error(t, err)
	assert.Equal(t, KindInvalidAddress, errorKind(err))
}
