package parsererror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "missing header field: date",
		(&MissingHeaderFieldError{Field: "date"}).Error())
	assert.Equal(t, "unparsable line item 'xx': no amount",
		(&UnparsableLineItemError{Line: "xx", Reason: "no amount"}).Error())
	assert.Equal(t, "receipt 123 already imported",
		(&DuplicateInvoiceError{InvoiceNumber: "123"}).Error())
	assert.Contains(t,
		(&TotalMismatchError{Declared: "5.00", Computed: "3.91", Epsilon: "0.01"}).Error(),
		"declared 5.00")
}

func TestStorageIntegrityError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &StorageIntegrityError{Op: "commit", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "commit")
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("ingesting ticket.txt: %w", &DuplicateInvoiceError{InvoiceNumber: "123"})
	assert.True(t, IsDuplicateInvoice(wrapped))
	assert.False(t, IsMissingHeaderField(wrapped))

	wrapped = fmt.Errorf("parse: %w", &MissingHeaderFieldError{Field: "date"})
	assert.True(t, IsMissingHeaderField(wrapped))
	assert.False(t, IsDuplicateInvoice(wrapped))
}
