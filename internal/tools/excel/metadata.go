package excel

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// handleGetWorkbookMetadata describes a workbook: sheet names, count, and
// the active sheet. With include_ranges each sheet also reports its data
// range, merged cells, and table count. The payload depends only on
// workbook content, so repeated calls against an unchanged file return
// identical results.
func handleGetWorkbookMetadata(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	includeRanges := args.boolOr("include_ranges", false)

	logger.WithFields(logrus.Fields{
		"file_path":      filePath,
		"include_ranges": includeRanges,
	}).Info("Reading workbook metadata")

	return withSharedLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		sheetNames := f.GetSheetList()
		metadata := map[string]any{
			"file_path":    filePath,
			"sheet_count":  len(sheetNames),
			"sheet_names":  sheetNames,
			"active_sheet": f.GetSheetName(f.GetActiveSheetIndex()),
		}

		if includeRanges {
			sheetInfo := map[string]any{}
			for _, name := range sheetNames {
				info, err := describeSheet(f, name)
				if err != nil {
					return nil, err
				}
				sheetInfo[name] = info
			}
			metadata["sheets_info"] = sheetInfo
		}

		return metadata, nil
	})
}

// describeSheet summarises a sheet's extent, merged cells, and tables.
func describeSheet(f *excelize.File, sheetName string) (map[string]any, error) {
	used, err := usedRange(f, sheetName)
	if err != nil {
		return nil, err
	}

	merged := []string{}
	if ranges, err := f.GetMergeCells(sheetName); err == nil {
		for _, mc := range ranges {
			merged = append(merged, mc.GetStartAxis()+":"+mc.GetEndAxis())
		}
	}

	tableCount := 0
	if tables, err := f.GetTables(sheetName); err == nil {
		tableCount = len(tables)
	}

	return map[string]any{
		"max_row":      used.End.Row,
		"max_column":   used.End.Col,
		"data_range":   fmt.Sprintf("A1:%s", used.End.String()),
		"merged_cells": merged,
		"table_count":  tableCount,
	}, nil
}
