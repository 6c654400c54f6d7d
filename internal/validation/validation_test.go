package validation

import (
	"testing"
	"time"

	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftReceipt() *models.Receipt {
	return &models.Receipt{
		InvoiceNumber: "3961-017-836661",
		Date:          time.Date(2025, 3, 25, 19, 42, 0, 0, time.UTC),
		Store:         "VALENCIA",
		Total:         decimal.RequireFromString("3.91"),
		Source:        models.SourceScanned,
		Lines: []models.LineItem{
			{
				Description: "LECHE ENTERA",
				Kind:        models.LineKindUnit,
				Quantity:    decimal.NewFromInt(3),
				UnitPrice:   decimal.RequireFromString("0.97"),
				Total:       decimal.RequireFromString("2.91"),
			},
			{
				Description: "PAN",
				Kind:        models.LineKindUnit,
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.RequireFromString("1.00"),
				Total:       decimal.RequireFromString("1.00"),
			},
		},
	}
}

func TestValidateReceipt_CleanDraft(t *testing.T) {
	r := draftReceipt()

	report, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	assert.False(t, report.HasFindings())
	assert.False(t, r.NeedsReview)
}

func TestValidateReceipt_TotalMismatchIsSoft(t *testing.T) {
	r := draftReceipt()
	r.Total = decimal.RequireFromString("5.00")

	report, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)

	finding := report.Findings[0]
	assert.Equal(t, CodeTotalMismatch, finding.Code)

	var mismatch *parsererror.TotalMismatchError
	require.ErrorAs(t, finding.Err, &mismatch)
	assert.Equal(t, "5.00", mismatch.Declared)
	assert.Equal(t, "3.91", mismatch.Computed)

	assert.True(t, r.NeedsReview, "mismatch keeps the receipt storable but flagged")
}

func TestValidateReceipt_WithinEpsilon(t *testing.T) {
	r := draftReceipt()
	r.Total = decimal.RequireFromString("3.92")

	report, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	assert.False(t, report.HasFindings())
}

func TestValidateReceipt_PromoCountedWithSign(t *testing.T) {
	r := draftReceipt()
	r.Lines = append(r.Lines, models.LineItem{
		Description: "DESCUENTO 2ª UNIDAD",
		Kind:        models.LineKindPromo,
		Total:       decimal.RequireFromString("-1.00"),
	})
	r.Total = decimal.RequireFromString("2.91")

	report, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	assert.False(t, report.HasFindings())
}

func TestValidateReceipt_MissingDateIsFatal(t *testing.T) {
	r := draftReceipt()
	r.Date = time.Time{}

	_, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.Error(t, err)
	assert.True(t, parsererror.IsMissingHeaderField(err))
}

func TestValidateReceipt_MissingInvoiceIsFatal(t *testing.T) {
	r := draftReceipt()
	r.InvoiceNumber = ""

	_, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.Error(t, err)

	var missing *parsererror.MissingHeaderFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "invoice number", missing.Field)
}

func TestValidateReceipt_NoLinesRequiresTotalOnly(t *testing.T) {
	r := draftReceipt()
	r.Lines = nil

	report, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, CodeNoLineItems, report.Findings[0].Code)
	assert.True(t, r.NeedsReview)

	r = draftReceipt()
	r.Lines = nil
	r.TotalOnly = true

	report, err = ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	assert.False(t, report.HasFindings())
	assert.False(t, r.NeedsReview)
}

func TestValidateReceipt_ParserWarningsBecomeFindings(t *testing.T) {
	r := draftReceipt()
	r.Warnings = []models.LineWarning{
		{Line: "@@garbled@@ 9,99", Reason: "line matches no known item pattern"},
	}

	report, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, CodeUnparsableLine, report.Findings[0].Code)
	assert.True(t, r.NeedsReview)
}

func TestValidateReceipt_MissingTotal(t *testing.T) {
	r := draftReceipt()
	r.Total = decimal.Zero

	report, err := ValidateReceipt(r, DefaultEpsilon(), nil)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, CodeMissingTotal, report.Findings[0].Code)
}
