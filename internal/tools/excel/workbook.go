package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// File permissions for saved workbooks (user read/write only).
const filePermissions = 0600

var allowedExtensions = []string{".xlsx", ".xls", ".xlsm"}

// loadOutcome discriminates how openWorkbook obtained its file, replacing
// the catch-and-recover dance around "file missing vs. create it".
type loadOutcome int

const (
	loadedExisting loadOutcome = iota
	createdNew
)

// validateExtension enforces the extension allow-list before any file is
// touched.
func validateExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(allowedExtensions, ext) {
		return &ExtensionError{Path: path}
	}
	return nil
}

// openWorkbook loads the workbook at path. A missing or zero-byte file
// yields a fresh in-memory workbook when createIfMissing is set, and
// FileNotFound/EmptyFile otherwise. All mutations stay in memory until
// saveWorkbook; save is the sole commit point.
func openWorkbook(path string, createIfMissing bool) (*excelize.File, loadOutcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		if createIfMissing {
			return excelize.NewFile(), createdNew, nil
		}
		return nil, 0, &FileNotFoundError{Path: path}
	}
	if info.Size() == 0 {
		if createIfMissing {
			return excelize.NewFile(), createdNew, nil
		}
		return nil, 0, &EmptyFileError{Path: path}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, &WorkbookError{Operation: "open", Path: path, Cause: err}
	}
	return f, loadedExisting, nil
}

// resolveSheet locates the named sheet, creating it when the operation is
// write-like. On a freshly created workbook the default sheet is renamed
// rather than left dangling next to the requested one.
func resolveSheet(f *excelize.File, sheetName string, createIfMissing bool, outcome loadOutcome) error {
	sheets := f.GetSheetList()
	if slices.Contains(sheets, sheetName) {
		return nil
	}
	if !createIfMissing {
		return &SheetNotFoundError{SheetName: sheetName, Available: sheets}
	}

	if outcome == createdNew && len(sheets) == 1 {
		if err := f.SetSheetName(sheets[0], sheetName); err != nil {
			return &WorkbookError{Operation: "create_sheet", Path: "", Cause: err}
		}
		return nil
	}
	if _, err := f.NewSheet(sheetName); err != nil {
		return &WorkbookError{Operation: "create_sheet", Path: "", Cause: err}
	}
	return nil
}

// saveWorkbook writes the workbook to disk and tightens file permissions.
// Linked values are refreshed first so cached formula results stay in step
// with the data for viewers without a calculation engine.
func saveWorkbook(f *excelize.File, path string, logger *logrus.Logger) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return &WorkbookError{Operation: "save", Path: path, Cause: fmt.Errorf("failed to create directory: %w", err)}
		}
	}

	if err := f.UpdateLinkedValue(); err != nil {
		logger.WithError(err).Debug("Failed to update linked values")
	}

	if err := f.SaveAs(path); err != nil {
		return &WorkbookError{Operation: "save", Path: path, Cause: err}
	}

	if err := os.Chmod(path, filePermissions); err != nil {
		logger.WithError(err).WithField("file_path", path).Warn("Failed to set file permissions")
	}
	return nil
}

// closeWorkbook releases the workbook's resources, logging rather than
// failing the operation when close errors.
func closeWorkbook(f *excelize.File, logger *logrus.Logger) {
	if err := f.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close workbook")
	}
}

// validateSheetName applies the worksheet naming rules of the document
// format: at most 31 characters, none of :\/?*[].
func validateSheetName(name string) error {
	if name == "" {
		return &InvalidOperationError{Message: "sheet_name parameter is required"}
	}
	if len(name) > 31 {
		return &InvalidOperationError{Message: "worksheet name cannot exceed 31 characters"}
	}
	for _, char := range name {
		if strings.ContainsRune(`:\/?*[]`, char) {
			return &InvalidOperationError{Message: fmt.Sprintf("worksheet name cannot contain character '%c'", char)}
		}
	}
	return nil
}
