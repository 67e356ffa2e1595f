package cli

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func styleToolDef() mcp.Tool {
	return mcp.NewTool("format_range",
		mcp.WithString("file_path", mcp.Required()),
		mcp.WithString("sheet_name", mcp.Required()),
		mcp.WithString("start_cell", mcp.Required()),
		mcp.WithBoolean("bold"),
		mcp.WithNumber("font_size"),
		mcp.WithArray("data"),
	)
}

func TestParseArgsFlags(t *testing.T) {
	params, err := parseArgs([]string{
		"--file-path=book.xlsx",
		"--sheet-name", "Data",
		"--bold",
		"--font-size", "14",
	}, styleToolDef())
	require.NoError(t, err)

	assert.Equal(t, "book.xlsx", params["file_path"])
	assert.Equal(t, "Data", params["sheet_name"])
	assert.Equal(t, true, params["bold"])
	// Numbers arrive as float64, the same shape the JSON transport delivers.
	assert.Equal(t, float64(14), params["font_size"])
}

func TestParseArgsJSONAndFlagPrecedence(t *testing.T) {
	params, err := parseArgs([]string{
		"--sheet-name", "Summary",
		`{"file_path": "book.xlsx", "sheet_name": "Data", "data": [["a", 1]]}`,
	}, styleToolDef())
	require.NoError(t, err)

	assert.Equal(t, "book.xlsx", params["file_path"])
	assert.Equal(t, "Summary", params["sheet_name"], "flags win over JSON values")
	require.IsType(t, []any{}, params["data"])
}

func TestParseArgsMissingFlagValue(t *testing.T) {
	_, err := parseArgs([]string{"--font-size"}, styleToolDef())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a value")
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, float64(1234), coerceValue("1234", "number"))
	assert.Equal(t, "abc", coerceValue("abc", "number"))
	assert.Equal(t, true, coerceValue("yes", "boolean"))
	assert.Equal(t, false, coerceValue("0", "boolean"))
	assert.Equal(t, "cell", coerceValue("cell", "string"))

	assert.Equal(t, []any{"Sheet1", "Sheet2"}, coerceValue("Sheet1, Sheet2", "array"))
	assert.Equal(t, []any{float64(1), float64(2)}, coerceValue("[1, 2]", "array"))
}

func TestToFlagName(t *testing.T) {
	assert.Equal(t, "file-path", toFlagName("file_path"))
	assert.Equal(t, "data", toFlagName("data"))
}
