// Package parsererror defines the error taxonomy shared by the parsing,
// validation and storage layers.
package parsererror

import (
	"errors"
	"fmt"
)

// MissingHeaderFieldError is the only fatal parser-level failure: a required
// header field (date or invoice number) could not be located by any anchor.
type MissingHeaderFieldError struct {
	Field string
}

func (e *MissingHeaderFieldError) Error() string {
	return fmt.Sprintf("missing header field: %s", e.Field)
}

// UnparsableLineItemError describes a single line inside the product block
// that matched no known pattern. It is collected as a warning; the receipt is
// still eligible for storage with its remaining valid lines.
type UnparsableLineItemError struct {
	Line   string
	Reason string
}

func (e *UnparsableLineItemError) Error() string {
	return fmt.Sprintf("unparsable line item '%s': %s", e.Line, e.Reason)
}

// TotalMismatchError is a soft validation failure: the sum of line totals does
// not reconcile with the declared receipt total within the configured epsilon.
// The receipt is still stored but flagged for manual review.
type TotalMismatchError struct {
	Declared string
	Computed string
	Epsilon  string
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total mismatch: declared %s, line items sum to %s (epsilon %s)",
		e.Declared, e.Computed, e.Epsilon)
}

// DuplicateInvoiceError reports that a receipt with the same invoice number is
// already stored. Callers must treat it as a benign no-op, never as a failure.
type DuplicateInvoiceError struct {
	InvoiceNumber string
}

func (e *DuplicateInvoiceError) Error() string {
	return fmt.Sprintf("receipt %s already imported", e.InvoiceNumber)
}

// StorageIntegrityError is a fatal storage failure. The surrounding
// transaction has been rolled back and nothing was persisted.
type StorageIntegrityError struct {
	Op  string
	Err error
}

func (e *StorageIntegrityError) Error() string {
	return fmt.Sprintf("storage integrity error during %s: %v", e.Op, e.Err)
}

func (e *StorageIntegrityError) Unwrap() error {
	return e.Err
}

// IsDuplicateInvoice reports whether err is a DuplicateInvoiceError.
func IsDuplicateInvoice(err error) bool {
	var dup *DuplicateInvoiceError
	return errors.As(err, &dup)
}

// IsMissingHeaderField reports whether err is a MissingHeaderFieldError.
func IsMissingHeaderField(err error) bool {
	var missing *MissingHeaderFieldError
	return errors.As(err, &missing)
}
