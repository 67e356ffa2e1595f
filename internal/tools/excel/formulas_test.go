package excel

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFormula(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleWriteDataToExcel(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"data": []any{
			[]any{float64(1)},
			[]any{float64(2)},
			[]any{float64(3)},
		},
	})
	require.NoError(t, err)

	payload, err := handleApplyFormula(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"cell":       "A5",
		"formula":    "=SUM(A1:A3)",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "A5", payload["cell"])
	assert.Equal(t, "=SUM(A1:A3)", payload["formula_added"])
	if calculated, ok := payload["calculated_value"]; ok {
		assert.Equal(t, "6", calculated)
	}
}

func TestApplyFormulaWithoutLeadingEquals(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	payload, err := handleApplyFormula(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"cell":       "B1",
		"formula":    "SUM(1,2)",
	})
	require.NoError(t, err)
	assert.Equal(t, "=SUM(1,2)", payload["formula_added"])
}

func TestApplyFormulaRejectsUnsafe(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	for _, formula := range []string{
		"=INDIRECT(A1)",
		"=WEBSERVICE(\"http://example.com\")",
		"=HYPERLINK(\"http://example.com\", \"x\")",
	} {
		_, err := handleApplyFormula(context.Background(), testLogger(), arguments{
			"file_path":  path,
			"sheet_name": "Data",
			"cell":       "A1",
			"formula":    formula,
		})
		require.Error(t, err, formula)
		assert.Equal(t, KindInvalidOperation, errorKind(err), formula)
	}
}

func TestApplyFormulaRejectsUnbalanced(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleApplyFormula(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"cell":       "A1",
		"formula":    "=SUM(A1:A3",
	})
	require.Error(t, err)
	assert.Equal(t, KindInvalidOperation, errorKind(err))
}

func TestValidateFormulaSyntaxValid(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	payload, err := handleValidateFormulaSyntax(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"cell":       "A1",
		"formula":    "=AVERAGE(B1:B10)",
	})
	require.NoError(t, err)
	assert.Equal(t, "valid", payload["status"])
	assert.Equal(t, true, payload["valid"])
	assert.Equal(t, "=AVERAGE(B1:B10)", payload["formula"])
	assert.Equal(t, false, payload["injection_risk"])
	assert.Empty(t, payload["validation_errors"])
}

// An invalid formula is a normal validation outcome, not a failure
// envelope: the payload carries status/valid, never an "error" key.
func TestValidateFormulaSyntaxInvalid(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	payload, err := handleValidateFormulaSyntax(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Data",
		"cell":       "A1",
		"formula":    "=SUM((A1:A3)",
	})
	require.NoError(t, err)
	assert.Equal(t, "invalid", payload["status"])
	assert.Equal(t, false, payload["valid"])
	assert.NotContains(t, payload, "error")
	issues := payload["validation_errors"].([]string)
	require.NotEmpty(t, issues)
}

func TestValidateFormulaSyntaxMissingSheet(t *testing.T) {
	path := newTestWorkbook(t, "Data")
	_, err := handleValidateFormulaSyntax(context.Background(), testLogger(), arguments{
		"file_path":  path,
		"sheet_name": "Ghost",
		"cell":       "A1",
		"formula":    "=SUM(A1)",
	})
	require.Error(t, err)
	assert.Equal(t, KindSheetNotFound, errorKind(err))
}

func TestCheckFormula(t *testing.T) {
	assert.Empty(t, checkFormula("SUM(A1:A3)"))
	assert.Empty(t, checkFormula("IF(A1>0, A1*2, 0)"))

	assert.NotEmpty(t, checkFormula("SUM(A1:A3"))
	assert.NotEmpty(t, checkFormula("INDIRECT(A1)"))
	assert.NotEmpty(t, checkFormula(strings.Repeat("A", maxFormulaLength+1)))
}

func TestCheckFormulaCellReferenceLimits(t *testing.T) {
	issues := checkFormula("SUM(A1:A1048577)")
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0], "outside worksheet limits")
}

func TestHasBalancedParentheses(t *testing.T) {
	assert.True(t, hasBalancedParentheses("SUM(A1,IF(B1,1,2))"))
	assert.False(t, hasBalancedParentheses("SUM(A1"))
	assert.False(t, hasBalancedParentheses("SUM)A1("))
}

func TestHasFormulaInjectionRisk(t *testing.T) {
	assert.True(t, hasFormulaInjectionRisk("=cmd"))
	assert.True(t, hasFormulaInjectionRisk("+1"))
	assert.True(t, hasFormulaInjectionRisk("-1"))
	assert.True(t, hasFormulaInjectionRisk("@SUM(A1)"))
	assert.False(t, hasFormulaInjectionRisk("SUM(A1)"))
}
