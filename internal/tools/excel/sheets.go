package excel

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// handleCreateWorkbook creates a new workbook, refusing to overwrite an
// existing file. Extra sheets beyond the default first one are created in
// argument order.
func handleCreateWorkbook(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}

	sheetNames, err := args.strSlice("sheet_names")
	if err != nil {
		return nil, err
	}
	if len(sheetNames) == 0 {
		sheetNames = []string{"Sheet1"}
	}
	seen := map[string]bool{}
	for _, name := range sheetNames {
		if err := validateSheetName(name); err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, &AlreadyExistsError{What: "worksheet", Name: name}
		}
		seen[name] = true
	}

	logger.WithFields(logrus.Fields{
		"file_path": filePath,
		"sheets":    sheetNames,
	}).Info("Creating workbook")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		if info, err := os.Stat(filePath); err == nil && info.Size() > 0 {
			return nil, &AlreadyExistsError{What: "workbook", Name: filePath}
		}

		f := excelize.NewFile()
		defer closeWorkbook(f, logger)

		for i, name := range sheetNames {
			if i == 0 {
				if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
					return nil, &WorkbookError{Operation: "create", Path: filePath, Cause: err}
				}
				continue
			}
			if _, err := f.NewSheet(name); err != nil {
				return nil, &WorkbookError{Operation: "create", Path: filePath, Cause: err}
			}
		}

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		return map[string]any{
			"status":         "success",
			"file_path":      filePath,
			"sheets_created": sheetNames,
		}, nil
	})
}

// handleListSheets returns the sheet names of a workbook in order.
func handleListSheets(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}

	logger.WithField("file_path", filePath).Info("Listing sheets")

	return withSharedLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		sheets := f.GetSheetList()
		return map[string]any{
			"file_path":   filePath,
			"sheets":      sheets,
			"sheet_count": len(sheets),
		}, nil
	})
}

// handleCreateWorksheet adds a sheet to a workbook, creating the workbook
// itself when missing. Adding a sheet that already exists is an error.
func handleCreateWorksheet(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
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

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
	}).Info("Creating worksheet")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, outcome, err := openWorkbook(filePath, true)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if idx, err := f.GetSheetIndex(sheetName); err == nil && idx >= 0 {
			return nil, &AlreadyExistsError{What: "worksheet", Name: sheetName}
		}

		if err := resolveSheet(f, sheetName, true, outcome); err != nil {
			return nil, err
		}

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		return map[string]any{
			"status":     "success",
			"file_path":  filePath,
			"sheet_name": sheetName,
			"sheets":     f.GetSheetList(),
			"message":    fmt.Sprintf("Worksheet %q created", sheetName),
		}, nil
	})
}

// handleDeleteWorksheet removes a sheet. Removing the last remaining sheet
// is refused since a workbook cannot be empty.
func handleDeleteWorksheet(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
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

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
	}).Info("Deleting worksheet")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, false, loadedExisting); err != nil {
			return nil, err
		}
		if len(f.GetSheetList()) == 1 {
			return nil, &InvalidOperationError{Message: "cannot delete the only worksheet in a workbook"}
		}

		if err := f.DeleteSheet(sheetName); err != nil {
			return nil, &WorkbookError{Operation: "delete_sheet", Path: filePath, Cause: err}
		}

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		return map[string]any{
			"status":           "success",
			"file_path":        filePath,
			"sheet_name":       sheetName,
			"remaining_sheets": f.GetSheetList(),
			"message":          fmt.Sprintf("Worksheet %q deleted", sheetName),
		}, nil
	})
}
