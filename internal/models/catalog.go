package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Family is a fixed product category. The fifteen families are seeded once at
// store initialization and never deleted; a product without a family is in the
// implicit "uncategorized" state (FamilyID nil on Product).
type Family struct {
	ID    int64
	Name  string
	Emoji string
}

// Product is the canonical catalog entry for a product name. Key is the
// normalized deduplication key; Name keeps the first raw spelling seen so the
// catalog stays readable.
type Product struct {
	ID       int64
	Key      string
	Name     string
	FamilyID *int64
}

// ProductStats is a Product enriched with accumulated figures, used by the
// categorization flows and reports.
type ProductStats struct {
	Product
	FamilyName   string
	FamilyEmoji  string
	TotalSpend   decimal.Decimal
	ReceiptCount int
}

// Card is an optional label attached to a masked card reference. Many
// receipts may reference one card.
type Card struct {
	ID    int64
	Last4 string
	Label string
}

// PriceObservation is one (date, unit price) point in a product's history,
// read from its stored line items and ordered by date. Weight observations
// carry a per-kilogram price and are only comparable within their own kind.
type PriceObservation struct {
	Date      time.Time
	UnitPrice decimal.Decimal
	Weight    bool
}

// ReceiptSummary is the compact receipt view returned by listings and by the
// deletion path (for the caller's undo message).
type ReceiptSummary struct {
	ID            int64
	InvoiceNumber string
	Date          time.Time
	Store         string
	Total         decimal.Decimal
	LineCount     int
	NeedsReview   bool
}
