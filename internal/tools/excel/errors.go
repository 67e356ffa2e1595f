package excel

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced to callers in the "error_type" field of failure
// responses. Callers dispatch on these strings, so they are part of the
// wire contract and must stay stable.
const (
	KindInvalidFormat      = "InvalidFormat"
	KindInvalidAddress     = "InvalidAddress"
	KindInvalidRangeSyntax = "InvalidRangeSyntax"
	KindSheetNotFound      = "SheetNotFound"
	KindFileNotFound       = "FileNotFound"
	KindEmptyFile          = "EmptyFile"
	KindAlreadyExists      = "AlreadyExists"
	KindInvalidOperation   = "InvalidOperation"
	KindUnexpected         = "Unexpected"
)

// ExtensionError indicates a file path outside the supported extension
// allow-list. The file is never touched.
type ExtensionError struct {
	Path string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("invalid file format for '%s': only Excel files (.xlsx, .xls, .xlsm) are supported", e.Path)
}

// AddressError indicates a cell reference that does not match the A1
// address grammar or exceeds the sheet limits.
type AddressError struct {
	Ref     string
	Message string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid cell address '%s': %s", e.Ref, e.Message)
}

// RangeSyntaxError indicates a malformed range expression.
type RangeSyntaxError struct {
	Ref     string
	Message string
}

func (e *RangeSyntaxError) Error() string {
	return fmt.Sprintf("invalid range '%s': %s", e.Ref, e.Message)
}

// SheetNotFoundError indicates a read-path operation against a missing
// worksheet. Available lists the sheets that do exist so callers can
// recover without a second round trip.
type SheetNotFoundError struct {
	SheetName string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet '%s' not found, available sheets: [%s]", e.SheetName, strings.Join(e.Available, ", "))
}

// FileNotFoundError indicates a load failure because the file does not
// exist and the operation does not create missing workbooks.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// EmptyFileError indicates a zero-byte file at the workbook path.
type EmptyFileError struct {
	Path string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("file is empty: %s", e.Path)
}

// AlreadyExistsError indicates an attempt to create a workbook or
// worksheet that is already present.
type AlreadyExistsError struct {
	What string // "workbook" or "worksheet"
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.What, e.Name)
}

// InvalidOperationError covers requests that are well-formed but not
// permitted, such as deleting the last remaining worksheet or omitting a
// required parameter.
type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string {
	return e.Message
}

// WorkbookError wraps failures from the document library during load,
// mutation, or save. These classify as Unexpected.
type WorkbookError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *WorkbookError) Error() string {
	return fmt.Sprintf("workbook error during %s on %s: %v", e.Operation, e.Path, e.Cause)
}

func (e *WorkbookError) Unwrap() error {
	return e.Cause
}

// errorKind maps an error to its wire-level kind string.
func errorKind(err error) string {
	var (
		extErr       *ExtensionError
		addrErr      *AddressError
		rangeErr     *RangeSyntaxError
		sheetErr     *SheetNotFoundError
		notFoundErr  *FileNotFoundError
		emptyErr     *EmptyFileError
		existsErr    *AlreadyExistsError
		invalidOpErr *InvalidOperationError
	)
	switch {
	case errors.As(err, &extErr):
		return KindInvalidFormat
	case errors.As(err, &addrErr):
		return KindInvalidAddress
	case errors.As(err, &rangeErr):
		return KindInvalidRangeSyntax
	case errors.As(err, &sheetErr):
		return KindSheetNotFound
	case errors.As(err, &notFoundErr):
		return KindFileNotFound
	case errors.As(err, &emptyErr):
		return KindEmptyFile
	case errors.As(err, &existsErr):
		return KindAlreadyExists
	case errors.As(err, &invalidOpErr):
		return KindInvalidOperation
	default:
		return KindUnexpected
	}
}
