// Package models defines the shared data model: receipts, line items,
// products, families, cards and the derived price observations, together with
// amount parsing helpers for the decimal-comma convention used on tickets.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line item kinds. A line is either a count of units, a weight in kilograms,
// or a promotional adjustment (discount, "buy N pay M"). The kinds are
// mutually exclusive.
const (
	LineKindUnit   = "unit"
	LineKindWeight = "weight"
	LineKindPromo  = "promo"
)

// Receipt source types.
const (
	SourceScanned = "scanned"
	SourceManual  = "manual"
)

// LineWarning records a line inside the product block that matched no known
// pattern. The receipt is still usable; warnings travel with the draft so the
// caller can report them per document.
type LineWarning struct {
	Line   string
	Reason string
}

// LineItem is one priced entry on a receipt.
//
// For LineKindUnit, Quantity is a whole unit count and UnitPrice the price per
// unit. For LineKindWeight, Quantity is kilograms and UnitPrice the price per
// kilogram. For LineKindPromo, Quantity is zero and Total carries the signed
// adjustment. Invariant: Total ≈ Quantity * UnitPrice within one cent for the
// non-promo kinds.
type LineItem struct {
	Description string
	Kind        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// IsPromo reports whether the line is a promotional adjustment. Promo lines
// count toward total reconciliation with their sign but are excluded from
// product price history.
func (l LineItem) IsPromo() bool {
	return l.Kind == LineKindPromo
}

// Receipt is one purchase transaction: header fields plus the ordered line
// items. It is built as a draft by the parser (or field-by-field for manual
// entry), validated, and only then persisted.
type Receipt struct {
	InvoiceNumber string
	Date          time.Time
	Store         string
	PostalCode    string
	CardLast4     string
	Total         decimal.Decimal
	Source        string
	TotalOnly     bool
	NeedsReview   bool
	Lines         []LineItem
	Warnings      []LineWarning
}

// LineSum returns the signed sum of all line totals, promotional adjustments
// included. This is the figure reconciled against the declared Total.
func (r *Receipt) LineSum() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range r.Lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

// ParseAmount converts a ticket amount string to a decimal. Tickets use the
// decimal-comma convention; manual entry accepts either comma or dot. Currency
// symbols and whitespace are stripped. Returns zero on unparsable input.
func ParseAmount(amountStr string) decimal.Decimal {
	amount := strings.ReplaceAll(amountStr, ",", ".")
	amount = strings.TrimSpace(amount)
	amount = strings.ReplaceAll(amount, " ", "")
	amount = strings.ReplaceAll(amount, "€", "")
	amount = strings.ReplaceAll(amount, "EUR", "")

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero
	}
	return dec
}
