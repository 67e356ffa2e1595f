package excel

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sheetkit/mcp-excel-server/internal/registry"
	"github.com/sirupsen/logrus"
)

// handlerFunc is the shape every operation handler shares: typed arguments
// in, flat success payload out. Errors are converted into the failure
// envelope by Execute, never surfaced as transport faults.
type handlerFunc func(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error)

// spreadsheetTool adapts a handler into the registry's Tool interface.
// Each MCP tool owns one handler; the definitions below are the complete
// tool surface.
type spreadsheetTool struct {
	def mcp.Tool
	run handlerFunc
}

func (t *spreadsheetTool) Definition() mcp.Tool {
	return t.def
}

func (t *spreadsheetTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]interface{}) (*mcp.CallToolResult, error) {
	a := arguments(args)
	payload, err := t.run(ctx, logger, a)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"tool":       t.def.Name,
			"error":      err.Error(),
			"error_type": errorKind(err),
		}).Warn("Tool call failed")
	}
	return toolResult(payload, err, a.str("file_path"), a.str("sheet_name"))
}

func init() {
	for _, tool := range allTools() {
		registry.Register(tool)
	}
}

func allTools() []*spreadsheetTool {
	return []*spreadsheetTool{
		{
			def: mcp.NewTool(
				"health_check",
				mcp.WithDescription("Check that the Excel MCP server is alive and responding."),
			),
			run: handleHealthCheck,
		},
		{
			def: mcp.NewTool(
				"create_workbook",
				mcp.WithDescription("Create a new Excel workbook. Fails if the file already exists. Optionally creates multiple named sheets."),
				withFilePath(),
				mcp.WithArray("sheet_names",
					mcp.Description("Names of the sheets to create, in order. Defaults to a single 'Sheet1'."),
				),
			),
			run: handleCreateWorkbook,
		},
		{
			def: mcp.NewTool(
				"list_sheets",
				mcp.WithDescription("List the worksheet names of a workbook in their stored order."),
				withFilePath(),
			),
			run: handleListSheets,
		},
		{
			def: mcp.NewTool(
				"create_worksheet",
				mcp.WithDescription("Add a worksheet to a workbook, creating the workbook if it does not exist. Fails if the sheet already exists."),
				withFilePath(),
				withSheetName(),
			),
			run: handleCreateWorksheet,
		},
		{
			def: mcp.NewTool(
				"delete_worksheet",
				mcp.WithDescription("Delete a worksheet from a workbook. The last remaining sheet cannot be deleted."),
				withFilePath(),
				withSheetName(),
			),
			run: handleDeleteWorksheet,
		},
		{
			def: mcp.NewTool(
				"get_workbook_metadata",
				mcp.WithDescription("Describe a workbook: sheet names, count, and the active sheet. Set include_ranges to add each sheet's data range, merged cells, and table count."),
				withFilePath(),
				mcp.WithBoolean("include_ranges",
					mcp.Description("Include per-sheet data ranges, merged cells, and table counts."),
				),
			),
			run: handleGetWorkbookMetadata,
		},
		{
			def: mcp.NewTool(
				"read_excel",
				mcp.WithDescription("Read cell values from a worksheet as a 2D array, either a specific range or the whole used area."),
				withFilePath(),
				withSheetName(),
				mcp.WithString("range",
					mcp.Description("Range in A1 notation, like 'A1:D10' or a single cell 'C3'. Omit to read the whole used area."),
				),
			),
			run: handleReadExcel,
		},
		{
			def: mcp.NewTool(
				"read_data_from_excel",
				mcp.WithDescription("Read a range with per-cell detail: address, value, inferred type, and formatting. Set preview_only to cap output at 10 rows of 5 cells."),
				withFilePath(),
				withSheetName(),
				mcp.WithString("start_cell",
					mcp.Description("Top-left cell to read from, like 'A1'. Defaults to A1."),
				),
				mcp.WithString("end_cell",
					mcp.Description("Bottom-right cell. Omit to extend to the used area."),
				),
				mcp.WithBoolean("preview_only",
					mcp.Description("Return at most 10 rows of 5 cells."),
				),
			),
			run: handleReadDataFromExcel,
		},
		{
			def: mcp.NewTool(
				"write_excel",
				mcp.WithDescription("Write a 2D array of values to a worksheet, preserving each target cell's existing formatting by default and auto-sizing the written columns. Creates the workbook and sheet when missing."),
				withFilePath(),
				withSheetName(),
				withData(),
				withStartCell(),
				mcp.WithBoolean("preserve_formatting",
					mcp.Description("Keep the pre-existing style of overwritten cells. Defaults to true."),
				),
			),
			run: handleWriteExcel,
		},
		{
			def: mcp.NewTool(
				"write_data_to_excel",
				mcp.WithDescription("Write a 2D array of values to a worksheet without touching formatting or column widths. Creates the workbook and sheet when missing."),
				withFilePath(),
				withSheetName(),
				withData(),
				withStartCell(),
			),
			run: handleWriteDataToExcel,
		},
		{
			def: mcp.NewTool(
				"update_single_cell",
				mcp.WithDescription("Set the value of one cell. Creates the workbook and sheet when missing."),
				withFilePath(),
				withSheetName(),
				mcp.WithString("cell",
					mcp.Required(),
					mcp.Description("Cell reference in A1 notation, like 'B3'."),
				),
				mcp.WithString("value",
					mcp.Description("Value to set. Numbers, booleans and ISO dates (yyyy-mm-dd) are stored typed."),
				),
			),
			run: handleUpdateSingleCell,
		},
		{
			def: mcp.NewTool(
				"find_cell_by_value",
				mcp.WithDescription("Search a worksheet for cells matching a value, whole-cell by default or case-insensitive substring with exact_match false. Returns both A1 addresses and zero-based array indices."),
				withFilePath(),
				withSheetName(),
				mcp.WithString("search_value",
					mcp.Required(),
					mcp.Description("Value to search for, compared against the displayed cell text."),
				),
				mcp.WithString("search_range",
					mcp.Description("Range to search in A1 notation, like 'A1:D20'. Omit to search the populated region."),
				),
				mcp.WithBoolean("exact_match",
					mcp.Description("Match the whole cell text exactly. Defaults to true; false matches substrings case-insensitively."),
				),
			),
			run: handleFindCellByValue,
		},
		{
			def: mcp.NewTool(
				"format_range",
				mcp.WithDescription("Apply formatting to a cell range: bold, italic, font size and colour, background colour, alignment, text wrap, borders, number format, and optional cell merging."),
				withFilePath(),
				withSheetName(),
				mcp.WithString("start_cell",
					mcp.Required(),
					mcp.Description("Top-left cell of the range, like 'A1'."),
				),
				mcp.WithString("end_cell",
					mcp.Description("Bottom-right cell. Omit to format just the start cell."),
				),
				mcp.WithBoolean("bold", mcp.Description("Bold text.")),
				mcp.WithBoolean("italic", mcp.Description("Italic text.")),
				mcp.WithBoolean("underline", mcp.Description("Underline text.")),
				mcp.WithNumber("font_size", mcp.Description("Font size in points.")),
				mcp.WithString("font_color", mcp.Description("Font colour as hex, like 'FF0000' or '#FF0000'.")),
				mcp.WithString("bg_color", mcp.Description("Background colour as hex.")),
				mcp.WithString("border_style", mcp.Description("Border style: thin, medium, dashed, dotted, thick, double, or hair. Requires border_color.")),
				mcp.WithString("border_color", mcp.Description("Border colour as hex. Requires border_style.")),
				mcp.WithString("alignment", mcp.Description("Horizontal alignment: left, center, or right.")),
				mcp.WithBoolean("wrap_text", mcp.Description("Wrap long text within cells.")),
				mcp.WithString("number_format", mcp.Description("Excel number format code, like '#,##0.00' or 'yyyy-mm-dd'.")),
				mcp.WithBoolean("merge_cells", mcp.Description("Merge the range into a single cell. Requires end_cell.")),
			),
			run: handleFormatRange,
		},
		{
			def: mcp.NewTool(
				"autofit_columns",
				mcp.WithDescription("Size columns to fit their content. Adjusts the named columns, or every populated column when none are given."),
				withFilePath(),
				withSheetName(),
				mcp.WithArray("columns",
					mcp.Description("Column letters to adjust, like ['A','C']. Omit to adjust all populated columns."),
				),
			),
			run: handleAutofitColumns,
		},
		{
			def: mcp.NewTool(
				"add_formula",
				mcp.WithDescription("Set a formula on a cell after validating it, and cache its calculated value. Formulas calling external-access functions are rejected."),
				withFilePath(),
				withSheetName(),
				mcp.WithString("cell",
					mcp.Required(),
					mcp.Description("Cell reference in A1 notation."),
				),
				mcp.WithString("formula",
					mcp.Required(),
					mcp.Description("Formula to set, with or without a leading '='."),
				),
			),
			run: handleApplyFormula,
		},
		{
			def: mcp.NewTool(
				"validate_formula_syntax",
				mcp.WithDescription("Check a formula for syntax problems and unsafe functions without applying it. An invalid formula is reported in the result, not as an error."),
				withFilePath(),
				withSheetName(),
				mcp.WithString("cell",
					mcp.Required(),
					mcp.Description("Cell the formula is intended for, in A1 notation."),
				),
				mcp.WithString("formula",
					mcp.Required(),
					mcp.Description("Formula to validate, with or without a leading '='."),
				),
			),
			run: handleValidateFormulaSyntax,
		},
	}
}

func withFilePath() mcp.ToolOption {
	return mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Path to the workbook file (.xlsx, .xls, .xlsm)."),
	)
}

func withSheetName() mcp.ToolOption {
	return mcp.WithString("sheet_name",
		mcp.Required(),
		mcp.Description("Worksheet name."),
	)
}

func withData() mcp.ToolOption {
	return mcp.WithArray("data",
		mcp.Required(),
		mcp.Description("2D array of rows to write, like [['Name','Score'],['Ada',95]]. A bare scalar row is treated as a single cell."),
	)
}

func withStartCell() mcp.ToolOption {
	return mcp.WithString("start_cell",
		mcp.Description("Top-left cell to write from, like 'A1'. Defaults to A1."),
	)
}
