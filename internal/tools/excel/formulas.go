package excel

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Excel functions blocked from formulas. These reach outside the workbook
// (HTTP requests, DLL calls, cross-file references) or, for the Google
// Sheets imports, become live when the file is opened there.
var dangerousFunctions = []string{
	"INDIRECT",
	"HYPERLINK",
	"WEBSERVICE",
	"DGET",
	"RTD",
	"CALL",
	"REGISTER.ID",
	"GET.WORKBOOK",
	"IMPORTDATA",
	"IMPORTXML",
	"IMPORTHTML",
	"IMPORTFEED",
	"IMPORTRANGE",
}

// Excel 2019+ supports formulas up to 8192 characters.
const maxFormulaLength = 8192

var formulaCellRefPattern = regexp.MustCompile(`\b[A-Z]+[0-9]+\b`)

// handleApplyFormula sets a formula on a cell after safety checks, then
// calculates it so spreadsheet apps without their own engine see a cached
// result.
func handleApplyFormula(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	cell, err := args.requireStr("cell")
	if err != nil {
		return nil, err
	}
	formula, err := args.requireStr("formula")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	if _, err := ParseAddress(cell); err != nil {
		return nil, err
	}

	// Excelize prepends = itself; stripping it here keeps double-=
	// formulas out of the file.
	formula = strings.TrimPrefix(formula, "=")

	if issues := checkFormula(formula); len(issues) > 0 {
		return nil, &InvalidOperationError{Message: fmt.Sprintf("formula validation failed: %s", strings.Join(issues, "; "))}
	}
	if hasFormulaInjectionRisk(formula) {
		logger.WithFields(logrus.Fields{
			"cell":    cell,
			"formula": formula,
		}).Warn("Formula may pose CSV injection risk if exported")
	}

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"cell":       cell,
	}).Info("Applying formula")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, false, loadedExisting); err != nil {
			return nil, err
		}

		if err := f.SetCellFormula(sheetName, cell, formula); err != nil {
			return nil, &WorkbookError{Operation: "apply_formula", Path: filePath, Cause: err}
		}

		calculated, err := f.CalcCellValue(sheetName, cell)
		if err != nil {
			logger.WithError(err).WithField("cell", cell).Warn("Failed to calculate formula value for caching")
			calculated = ""
		}

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		result := map[string]any{
			"status":        "success",
			"file_path":     filePath,
			"sheet_name":    sheetName,
			"cell":          cell,
			"formula_added": "=" + formula,
			"message":       fmt.Sprintf("Formula added to %s", cell),
		}
		if calculated != "" {
			result["calculated_value"] = calculated
		}
		return result, nil
	})
}

// handleValidateFormulaSyntax checks a formula against a target cell
// without applying it. The workbook and sheet must exist; an invalid
// formula is a normal outcome reported in the result, not an error.
func handleValidateFormulaSyntax(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	cell, err := args.requireStr("cell")
	if err != nil {
		return nil, err
	}
	formula, err := args.requireStr("formula")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	if _, err := ParseAddress(cell); err != nil {
		return nil, err
	}

	formula = strings.TrimPrefix(formula, "=")

	logger.WithFields(logrus.Fields{
		"file_path": filePath,
		"cell":      cell,
	}).Info("Validating formula syntax")

	return withSharedLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, false, loadedExisting); err != nil {
			return nil, err
		}

		issues := checkFormula(formula)
		valid := len(issues) == 0
		status := "valid"
		message := "Formula syntax is valid"
		if !valid {
			status = "invalid"
			message = fmt.Sprintf("Formula validation failed: %s", strings.Join(issues, "; "))
		}

		return map[string]any{
			"status":            status,
			"valid":             valid,
			"formula":           "=" + formula,
			"cell":              cell,
			"message":           message,
			"validation_errors": issues,
			"injection_risk":    hasFormulaInjectionRisk(formula),
		}, nil
	})
}

// checkFormula runs the full validation pipeline and returns the list of
// problems found, empty when the formula is acceptable.
func checkFormula(formula string) []string {
	var issues []string

	if strings.TrimSpace(formula) == "" {
		issues = append(issues, "empty formula")
		return issues
	}
	if len(formula) > maxFormulaLength {
		issues = append(issues, fmt.Sprintf("formula exceeds maximum length of %d characters (got %d)", maxFormulaLength, len(formula)))
	}
	if !hasBalancedParentheses(formula) {
		issues = append(issues, "unbalanced parentheses")
	}
	if unsafe := checkFormulaSafety(formula); len(unsafe) > 0 {
		issues = append(issues, fmt.Sprintf("contains unsafe functions: %v", unsafe))
	}
	if err := validateCellReferencesInFormula(formula); err != nil {
		issues = append(issues, err.Error())
	}

	return issues
}

// checkFormulaSafety returns the dangerous functions a formula calls.
func checkFormulaSafety(formula string) []string {
	upperFormula := strings.ToUpper(formula)
	found := make([]string, 0)
	for _, name := range dangerousFunctions {
		pattern := fmt.Sprintf(`\b%s\s*\(`, regexp.QuoteMeta(name))
		if matched, err := regexp.MatchString(pattern, upperFormula); err == nil && matched {
			found = append(found, name)
		}
	}
	return found
}

func hasBalancedParentheses(formula string) bool {
	depth := 0
	for _, char := range formula {
		switch char {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// hasFormulaInjectionRisk reports whether a formula would execute if the
// sheet were exported to CSV and reopened. The leading = is stripped
// before this runs, but +, - and @ prefixes execute too.
func hasFormulaInjectionRisk(formula string) bool {
	if len(formula) == 0 {
		return false
	}
	switch formula[0] {
	case '=', '+', '-', '@':
		return true
	}
	return false
}

// validateCellReferencesInFormula rejects formulas whose cell references
// fall outside the sheet limits. References it cannot parse are left for
// the calculation engine to complain about.
func validateCellReferencesInFormula(formula string) error {
	// Absolute markers are irrelevant to the limit check and would split
	// refs like $A$1 at the word boundary.
	stripped := strings.ReplaceAll(formula, "$", "")
	for _, ref := range formulaCellRefPattern.FindAllString(stripped, -1) {
		if _, err := ParseAddress(ref); err != nil {
			var addrErr *AddressError
			if errors.As(err, &addrErr) && strings.Contains(addrErr.Message, "exceeds limit") {
				return fmt.Errorf("cell reference %s is outside worksheet limits", ref)
			}
		}
	}
	return nil
}
