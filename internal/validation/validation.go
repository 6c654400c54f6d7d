// Package validation checks the internal consistency of a draft receipt
// before it is persisted: required header fields, line presence, and
// arithmetic reconciliation of the declared total against the line sum.
//
// Only an absent date or invoice number is fatal. Everything else is a
// finding on the report: the receipt stays eligible for storage but is
// marked for manual review, never silently corrected.
package validation

import (
	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Finding codes.
const (
	CodeTotalMismatch  = "total_mismatch"
	CodeMissingTotal   = "missing_total"
	CodeNoLineItems    = "no_line_items"
	CodeUnparsableLine = "unparsable_line"
)

// Finding is one non-fatal consistency problem on a draft receipt.
type Finding struct {
	Code   string
	Detail string
	Err    error
}

// Report collects the findings for one receipt.
type Report struct {
	Findings []Finding
}

// HasFindings reports whether validation produced any soft findings.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}

func (r *Report) add(code, detail string, err error) {
	r.Findings = append(r.Findings, Finding{Code: code, Detail: detail, Err: err})
}

// ValidateReceipt validates a draft receipt in place. On success the receipt
// is Validated: NeedsReview is set when any soft finding was raised. The
// returned error is non-nil only for a fatal problem (missing date or invoice
// number), which makes the receipt ineligible for storage. Manually entered
// drafts enter the pipeline here, so header checks are repeated even for
// receipts that already passed the parser.
func ValidateReceipt(receipt *models.Receipt, epsilon decimal.Decimal, logger logging.Logger) (*Report, error) {
	if logger == nil {
		logger = logging.Default()
	}
	report := &Report{}

	if receipt.Date.IsZero() {
		return nil, &parsererror.MissingHeaderFieldError{Field: "date"}
	}
	if receipt.InvoiceNumber == "" {
		return nil, &parsererror.MissingHeaderFieldError{Field: "invoice number"}
	}

	if len(receipt.Lines) == 0 && !receipt.TotalOnly {
		report.add(CodeNoLineItems, "receipt has no line items and is not marked total-only", nil)
	}

	for _, w := range receipt.Warnings {
		err := &parsererror.UnparsableLineItemError{Line: w.Line, Reason: w.Reason}
		report.add(CodeUnparsableLine, err.Error(), err)
	}

	checkTotal(receipt, epsilon, report)

	if report.HasFindings() {
		receipt.NeedsReview = true
		logger.WithFields(
			logging.Field{Key: "invoice", Value: receipt.InvoiceNumber},
			logging.Field{Key: "findings", Value: len(report.Findings)},
		).Warn("Receipt flagged for review")
	}

	return report, nil
}

// checkTotal reconciles the declared total with the sum of line totals,
// promotional lines counted with their sign. A declared total of zero on a
// receipt with lines is treated as a missing total rather than a mismatch.
func checkTotal(receipt *models.Receipt, epsilon decimal.Decimal, report *Report) {
	if len(receipt.Lines) == 0 {
		return
	}

	if receipt.Total.IsZero() {
		report.add(CodeMissingTotal, "declared total not found on receipt", nil)
		return
	}

	sum := receipt.LineSum()
	diff := receipt.Total.Sub(sum).Abs()
	if diff.GreaterThan(epsilon) {
		err := &parsererror.TotalMismatchError{
			Declared: receipt.Total.StringFixed(2),
			Computed: sum.StringFixed(2),
			Epsilon:  epsilon.String(),
		}
		report.add(CodeTotalMismatch, err.Error(), err)
	}
}

// DefaultEpsilon is the reconciliation tolerance used when configuration does
// not override it: one cent.
func DefaultEpsilon() decimal.Decimal {
	return decimal.New(1, -2)
}
