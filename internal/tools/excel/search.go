package excel

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// handleFindCellByValue scans a worksheet for cells matching a value.
// Matching is against the displayed string of each cell, whole-cell by
// default or case-insensitive substring with exact_match false. The search area
// is either search_range or the populated region of the sheet; the
// zero-based array indices in each match are relative to that area's
// top-left corner.
func handleFindCellByValue(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	searchValue, err := args.requireStr("search_value")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	exactMatch := args.boolOr("exact_match", true)

	rangeRef := args.str("search_range")
	var searchRange CellRange
	if rangeRef != "" {
		if searchRange, err = ParseRange(rangeRef); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"file_path":    filePath,
		"sheet_name":   sheetName,
		"search_value": searchValue,
		"exact_match":  exactMatch,
	}).Info("Searching worksheet")

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
			searchRange, err = populatedRange(f, sheetName)
			if err != nil {
				return nil, err
			}
		}

		needle := strings.ToLower(searchValue)
		matches := make([]map[string]any, 0)
		for row := searchRange.Start.Row; row <= searchRange.End.Row; row++ {
			for col := searchRange.Start.Col; col <= searchRange.End.Col; col++ {
				value, err := f.GetCellValue(sheetName, FormatAddress(col, row))
				if err != nil || value == "" {
					continue
				}
				matched := false
				if exactMatch {
					matched = value == searchValue
				} else {
					matched = strings.Contains(strings.ToLower(value), needle)
				}
				if !matched {
					continue
				}
				matches = append(matches, map[string]any{
					"cell_address":    FormatAddress(col, row),
					"row":             row,
					"column":          col,
					"column_letter":   columnName(col),
					"value":           classifyCellString(value).serialize(),
					"array_row_index": row - searchRange.Start.Row,
					"array_col_index": col - searchRange.Start.Col,
				})
			}
		}

		result := map[string]any{
			"file_path":     filePath,
			"sheet_name":    sheetName,
			"search_value":  searchValue,
			"exact_match":   exactMatch,
			"matches":       matches,
			"total_matches": len(matches),
		}
		if rangeRef != "" {
			result["search_range"] = rangeRef
		}
		return result, nil
	})
}

// populatedRange is the tightest rectangle covering all non-empty cells.
// An empty sheet yields the degenerate A1 range.
func populatedRange(f *excelize.File, sheetName string) (CellRange, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return CellRange{}, &WorkbookError{Operation: "read", Path: "", Cause: err}
	}

	minRow, minCol := 0, 0
	maxRow, maxCol := 0, 0
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			r, c := rowIdx+1, colIdx+1
			if minRow == 0 || r < minRow {
				minRow = r
			}
			if minCol == 0 || c < minCol {
				minCol = c
			}
			if r > maxRow {
				maxRow = r
			}
			if c > maxCol {
				maxCol = c
			}
		}
	}

	if minRow == 0 {
		one := CellAddress{Col: 1, Row: 1}
		return CellRange{Start: one, End: one}, nil
	}
	return CellRange{
		Start: CellAddress{Col: minCol, Row: minRow},
		End:   CellAddress{Col: maxCol, Row: maxRow},
	}, nil
}
