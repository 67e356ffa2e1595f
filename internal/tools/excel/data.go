package excel

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// handleReadExcel reads cell values from a worksheet, either a specific
// range or the whole used area.
func handleReadExcel(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}

	rangeRef := args.str("range")
	var cellRange CellRange
	if rangeRef != "" {
		if cellRange, err = ParseRange(rangeRef); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"range":      rangeRef,
	}).Info("Reading worksheet data")

	return withSharedLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, false, loadedExisting); err != nil {
			return nil, err
		}

		if rangeRef == "" {
			cellRange, err = populatedRange(f, sheetName)
			if err != nil {
				return nil, err
			}
		}

		data := make([][]any, 0, cellRange.Rows())
		for row := cellRange.Start.Row; row <= cellRange.End.Row; row++ {
			rowData := make([]any, 0, cellRange.Cols())
			for col := cellRange.Start.Col; col <= cellRange.End.Col; col++ {
				value, err := f.GetCellValue(sheetName, FormatAddress(col, row))
				if err != nil {
					value = ""
				}
				rowData = append(rowData, classifyCellString(value).serialize())
			}
			data = append(data, rowData)
		}

		return map[string]any{
			"file_path":   filePath,
			"sheet_name":  sheetName,
			"range_read":  cellRange.String(),
			"data":        data,
			"dimensions":  fmt.Sprintf("%d rows x %d columns", cellRange.Rows(), cellRange.Cols()),
			"total_cells": cellRange.Rows() * cellRange.Cols(),
			"row_offset":  cellRange.Start.Row - 1,
		}, nil
	})
}

// handleWriteExcel writes a 2D block of values starting at start_cell. With
// preserve_formatting (the default) the pre-existing style of every target
// cell is snapshotted before any value is written and reapplied after all
// values are in place; the two passes are never interleaved so a
// half-written block is never its own style source.
func handleWriteExcel(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	if err := validateSheetName(sheetName); err != nil {
		return nil, err
	}

	data, err := args.rows("data")
	if err != nil {
		return nil, err
	}
	startRef := args.strOr("start_cell", "A1")
	start, err := ParseAddress(startRef)
	if err != nil {
		return nil, err
	}
	preserve := args.boolOr("preserve_formatting", true)

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"start_cell": startRef,
		"rows":       len(data),
	}).Info("Writing worksheet data")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, outcome, err := openWorkbook(filePath, true)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, true, outcome); err != nil {
			return nil, err
		}

		// Pass 1: snapshot the style of every target cell.
		var snapshots map[CellAddress]*excelize.Style
		if preserve {
			snapshots = make(map[CellAddress]*excelize.Style)
			for rowOffset, rowData := range data {
				for colOffset := range rowData {
					addr := CellAddress{Col: start.Col + colOffset, Row: start.Row + rowOffset}
					snapshots[addr] = snapshotStyle(f, sheetName, addr.String())
				}
			}
		}

		// Pass 2: write all values.
		cellsWritten, err := writeBlock(f, sheetName, start, data)
		if err != nil {
			return nil, err
		}

		// Pass 3: restore the snapshotted visual attributes.
		if preserve {
			for addr, snapshot := range snapshots {
				if snapshot == nil {
					continue
				}
				if err := restoreStyle(f, sheetName, addr.String(), snapshot); err != nil {
					logger.WithError(err).WithField("cell", addr.String()).Warn("Failed to restore cell style")
				}
			}
		}

		autofitWrittenColumns(f, sheetName, start, data)

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		cols := blockWidth(data)
		end := CellAddress{Col: start.Col + cols - 1, Row: start.Row + len(data) - 1}
		return map[string]any{
			"status":          "success",
			"file_path":       filePath,
			"sheet_name":      sheetName,
			"rows_written":    len(data),
			"columns_written": cols,
			"start_cell":      startRef,
			"end_cell":        end.String(),
			"cells_written":   cellsWritten,
		}, nil
	})
}

// handleWriteDataToExcel is the plain write path: no formatting snapshot,
// no column autofit, sheet auto-created when absent.
func handleWriteDataToExcel(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	if err := validateSheetName(sheetName); err != nil {
		return nil, err
	}

	data, err := args.rows("data")
	if err != nil {
		return nil, err
	}
	startRef := args.strOr("start_cell", "A1")
	start, err := ParseAddress(startRef)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"start_cell": startRef,
		"rows":       len(data),
	}).Info("Writing data block")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, outcome, err := openWorkbook(filePath, true)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, true, outcome); err != nil {
			return nil, err
		}

		cellsWritten, err := writeBlock(f, sheetName, start, data)
		if err != nil {
			return nil, err
		}

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		cols := blockWidth(data)
		end := CellAddress{Col: start.Col + cols - 1, Row: start.Row + len(data) - 1}
		return map[string]any{
			"status":          "success",
			"file_path":       filePath,
			"sheet_name":      sheetName,
			"rows_written":    len(data),
			"columns_written": cols,
			"start_cell":      startRef,
			"end_cell":        end.String(),
			"range_written":   fmt.Sprintf("%s:%s", startRef, end.String()),
			"cells_written":   cellsWritten,
		}, nil
	})
}

// handleReadDataFromExcel reads a range with per-cell metadata: address,
// value, inferred type, and formatting attributes. preview_only caps the
// response at 10 rows of 5 cells.
func handleReadDataFromExcel(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}

	startRef := args.strOr("start_cell", "A1")
	start, err := ParseAddress(startRef)
	if err != nil {
		return nil, err
	}
	endRef := args.str("end_cell")
	previewOnly := args.boolOr("preview_only", false)

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"start_cell": startRef,
		"end_cell":   endRef,
	}).Info("Reading data with metadata")

	return withSharedLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, false, loadedExisting); err != nil {
			return nil, err
		}

		end := start
		if endRef != "" {
			if end, err = ParseAddress(endRef); err != nil {
				return nil, err
			}
			if start.Row > end.Row || start.Col > end.Col {
				return nil, &RangeSyntaxError{Ref: startRef + ":" + endRef, Message: "start cell must be before end cell"}
			}
		} else {
			used, err := usedRange(f, sheetName)
			if err != nil {
				return nil, err
			}
			end = used.End
			if end.Row < start.Row {
				end.Row = start.Row
			}
			if end.Col < start.Col {
				end.Col = start.Col
			}
		}

		cells := make([][]map[string]any, 0, end.Row-start.Row+1)
		for row := start.Row; row <= end.Row; row++ {
			rowData := make([]map[string]any, 0, end.Col-start.Col+1)
			for col := start.Col; col <= end.Col; col++ {
				addr := FormatAddress(col, row)
				raw, err := f.GetCellValue(sheetName, addr)
				if err != nil {
					raw = ""
				}
				value := classifyCellString(raw)

				info := map[string]any{
					"address":   addr,
					"value":     value.serialize(),
					"data_type": value.typeName(),
					"row":       row,
					"column":    col,
				}

				styleID, err := f.GetCellStyle(sheetName, addr)
				hasStyle := err == nil && styleID > 0
				info["has_style"] = hasStyle
				if hasStyle {
					info["formatting"] = describeStyle(f, styleID)
				}

				rowData = append(rowData, info)
				if previewOnly && len(rowData) >= 5 {
					break
				}
			}
			cells = append(cells, rowData)
			if previewOnly && len(cells) >= 10 {
				break
			}
		}

		totalColumns := 0
		if len(cells) > 0 {
			totalColumns = len(cells[0])
		}
		return map[string]any{
			"file_path":     filePath,
			"sheet_name":    sheetName,
			"range_read":    fmt.Sprintf("%s:%s", start.String(), end.String()),
			"cells":         cells,
			"total_rows":    len(cells),
			"total_columns": totalColumns,
			"preview_only":  previewOnly,
		}, nil
	})
}

// handleUpdateSingleCell sets one cell, creating the workbook and sheet
// when absent.
func handleUpdateSingleCell(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	cellRef, err := args.requireStr("cell")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	if err := validateSheetName(sheetName); err != nil {
		return nil, err
	}
	if _, err := ParseAddress(cellRef); err != nil {
		return nil, err
	}
	value := decodeValue(args["value"])

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"cell":       cellRef,
	}).Info("Updating single cell")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, outcome, err := openWorkbook(filePath, true)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, true, outcome); err != nil {
			return nil, err
		}

		if err := value.write(f, sheetName, cellRef); err != nil {
			return nil, &WorkbookError{Operation: "update_cell", Path: filePath, Cause: err}
		}

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		return map[string]any{
			"status":     "success",
			"file_path":  filePath,
			"sheet_name": sheetName,
			"cell":       cellRef,
			"value_set":  value.serialize(),
			"message":    fmt.Sprintf("Cell %s updated", cellRef),
		}, nil
	})
}

// writeBlock writes a 2D block of decoded values starting at start,
// skipping cells that would land outside the sheet limits.
func writeBlock(f *excelize.File, sheetName string, start CellAddress, data [][]any) (int, error) {
	cellsWritten := 0
	for rowOffset, rowData := range data {
		row := start.Row + rowOffset
		if row > MaxRows {
			break
		}
		for colOffset, raw := range rowData {
			col := start.Col + colOffset
			if col > MaxColumns {
				continue
			}
			cell := FormatAddress(col, row)
			if err := decodeValue(raw).write(f, sheetName, cell); err != nil {
				return cellsWritten, &WorkbookError{Operation: "write", Path: "", Cause: fmt.Errorf("failed to set cell %s: %w", cell, err)}
			}
			cellsWritten++
		}
	}
	return cellsWritten, nil
}

// blockWidth is the width of the widest row in a data block.
func blockWidth(data [][]any) int {
	width := 0
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// usedRange computes the A1-anchored range covering all populated cells.
// An empty sheet yields the degenerate A1 range.
func usedRange(f *excelize.File, sheetName string) (CellRange, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return CellRange{}, &WorkbookError{Operation: "read", Path: "", Cause: err}
	}
	maxRow := len(rows)
	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	if maxRow == 0 || maxCol == 0 {
		one := CellAddress{Col: 1, Row: 1}
		return CellRange{Start: one, End: one}, nil
	}
	return CellRange{
		Start: CellAddress{Col: 1, Row: 1},
		End:   CellAddress{Col: maxCol, Row: maxRow},
	}, nil
}

// autofitWrittenColumns sizes the written columns to their content, capped
// at width 50 so a single long value cannot blow out the layout.
func autofitWrittenColumns(f *excelize.File, sheetName string, start CellAddress, data [][]any) {
	for colOffset := 0; colOffset < blockWidth(data); colOffset++ {
		maxLen := 0
		for rowOffset := range data {
			cell := FormatAddress(start.Col+colOffset, start.Row+rowOffset)
			value, err := f.GetCellValue(sheetName, cell)
			if err != nil {
				continue
			}
			if len(value) > maxLen {
				maxLen = len(value)
			}
		}
		width := float64(maxLen + 2)
		if width > 50 {
			width = 50
		}
		name := columnName(start.Col + colOffset)
		_ = f.SetColWidth(sheetName, name, name, width)
	}
}
