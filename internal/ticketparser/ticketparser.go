// Package ticketparser turns a canonical line stream into a draft receipt:
// header fields plus the ordered line items.
//
// Header fields are located by anchor scanning: each field has a small set of
// label/positional anchors tried independently over the whole stream, so the
// parser tolerates field-order variation between store layouts. The first
// anchor that matches a field wins. Line items are classified into three
// kinds (unit-quantity, weight-based, promotional) by pattern; a line inside
// the product block that matches no pattern becomes a warning on the draft
// instead of aborting the receipt. The only hard failure is a missing date or
// invoice number.
package ticketparser

import (
	"regexp"
	"strings"

	"fjacquet/ticket-tracker/internal/dateutils"
	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/parsererror"
	"fjacquet/ticket-tracker/internal/textnorm"

	"github.com/shopspring/decimal"
)

// Header anchors, first match wins per field.
var (
	dateAnchors = []*regexp.Regexp{
		regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s+(\d{2}:\d{2})`),
		regexp.MustCompile(`(?i)FECHA:?\s*(\d{2}/\d{2}/\d{4})\s*(\d{2}:\d{2})?`),
	}
	invoiceAnchors = []*regexp.Regexp{
		regexp.MustCompile(`FACTURA SIMPLIFICADA:?\s*([0-9-]+)`),
		regexp.MustCompile(`(?i)N[ºO]?\.?\s*FACTURA:?\s*([0-9-]+)`),
	}
	totalAnchors = []*regexp.Regexp{
		regexp.MustCompile(`TOTAL\s*\(€\)\s*(\d+[.,]\d+)`),
		regexp.MustCompile(`(?im)^TOTAL\s+(\d+[.,]\d+)\s*€?$`),
	}
	cardAnchors = []*regexp.Regexp{
		regexp.MustCompile(`\*{4}\s+\*{4}\s+\*{4}\s+(\d{4})`),
		regexp.MustCompile(`(?i)TARJ(?:\.|ETA)\D*(\d{4})\b`),
	}
	storeAnchors = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^TIENDA:?\s*(.+)$`),
	}
	postalRe = regexp.MustCompile(`\b(\d{5})\b`)

	// companyRe marks the company header; the store address is the line
	// immediately after it.
	companyRe = regexp.MustCompile(`(?i)^MERCADONA`)
)

// Line item patterns.
var (
	// "0,654 kg 1,79 €/kg 1,17": weight detail following a product name line
	weightDetailRe = regexp.MustCompile(`^(\d+[.,]\d{1,3})\s*kg\s+(\d+[.,]\d+)\s*€/kg\s+(-?\d+[.,]\d+)$`)

	// "PLÁTANO 0,654 kg x 1,79 €/kg": inline weight form, total computed
	inlineWeightRe = regexp.MustCompile(`(?i)^(.+?)\s+(\d+[.,]\d{1,3})\s*kg\s*x\s*(\d+[.,]\d+)\s*€/kg$`)

	// "3 LECHE ENTERA 0,97 2,91" / "1 PAPEL HIGIENICO 3,55"
	unitRe = regexp.MustCompile(`^(\d+)\s+(.+)$`)

	trailingAmountRe = regexp.MustCompile(`(-?\d+[.,]\d+)$`)
	amountTokenRe    = regexp.MustCompile(`^-?\d+[.,]\d+$`)
)

// promoKeywords identify promotional/adjustment lines. Matched against the
// uppercased line before the unit pattern so "2ª UNIDAD -1,00" is not taken
// for a two-unit purchase.
var promoKeywords = []string{
	"DESCUENTO", "DTO", "PROMOCI", "OFERTA", "AHORRO", "2ª UNIDAD", "2A UNIDAD", "3X2", "CUPON", "CUPÓN",
}

const itemBlockHeader = "Descripción P. Unit Importe"

// ParseText normalizes raw extracted text and parses it into a draft receipt.
// This is the entry point for the scanned-document path.
func ParseText(raw string, logger logging.Logger) (*models.Receipt, error) {
	return Parse(textnorm.Normalize(raw), logger)
}

// Parse builds a draft receipt from an already canonical line stream. Page
// boundaries are not field boundaries: multi-page documents arrive as one
// continuous stream. Returns a MissingHeaderFieldError when the date or the
// invoice number cannot be located by any anchor; every other problem
// degrades to warnings on the draft.
func Parse(lines []string, logger logging.Logger) (*models.Receipt, error) {
	if logger == nil {
		logger = logging.Default()
	}

	receipt := &models.Receipt{Source: models.SourceScanned}
	text := strings.Join(lines, "\n")

	if err := parseHeader(receipt, lines, text); err != nil {
		return nil, err
	}
	parseLineItems(receipt, lines)

	logger.WithFields(
		logging.Field{Key: "invoice", Value: receipt.InvoiceNumber},
		logging.Field{Key: "lines", Value: len(receipt.Lines)},
		logging.Field{Key: "warnings", Value: len(receipt.Warnings)},
	).Debug("Parsed ticket")

	return receipt, nil
}

func parseHeader(receipt *models.Receipt, lines []string, text string) error {
	for _, re := range dateAnchors {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		stamp := m[1]
		if len(m) > 2 && m[2] != "" {
			stamp += " " + m[2]
		} else {
			stamp += " 00:00"
		}
		if t, err := dateutils.ParseTicketDate(stamp); err == nil {
			receipt.Date = t
			break
		}
	}
	if receipt.Date.IsZero() {
		return &parsererror.MissingHeaderFieldError{Field: "date"}
	}

	for _, re := range invoiceAnchors {
		if m := re.FindStringSubmatch(text); m != nil {
			receipt.InvoiceNumber = m[1]
			break
		}
	}
	if receipt.InvoiceNumber == "" {
		return &parsererror.MissingHeaderFieldError{Field: "invoice number"}
	}

	for _, re := range totalAnchors {
		if m := re.FindStringSubmatch(text); m != nil {
			receipt.Total = models.ParseAmount(m[1])
			break
		}
	}

	for _, re := range cardAnchors {
		if m := re.FindStringSubmatch(text); m != nil {
			receipt.CardLast4 = m[1]
			break
		}
	}

	receipt.Store = findStore(lines)

	// The postal code sits in the address header, before any line items.
	header := text
	if len(header) > 200 {
		header = header[:200]
	}
	if m := postalRe.FindStringSubmatch(header); m != nil {
		receipt.PostalCode = m[1]
	}

	return nil
}

// findStore returns the store identifier: either a labeled TIENDA line or the
// address line immediately after the company header.
func findStore(lines []string) string {
	for _, line := range lines {
		for _, re := range storeAnchors {
			if m := re.FindStringSubmatch(line); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}
	for i, line := range lines {
		if companyRe.MatchString(line) && i+1 < len(lines) {
			return strings.ReplaceAll(strings.TrimSpace(lines[i+1]), ",", "")
		}
	}
	return ""
}

// parseLineItems walks the product block between the table header and the
// total line, classifying each line into one of the three kinds. Section
// headers inside the block ("PESCADO") are skipped silently; any other
// unrecognized line becomes an UnparsableLineItem warning on the draft.
func parseLineItems(receipt *models.Receipt, lines []string) {
	inBlock := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.Contains(line, itemBlockHeader) {
			inBlock = true
			continue
		}
		if strings.Contains(line, "TOTAL (€)") {
			break
		}
		if !inBlock {
			continue
		}

		var next string
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		nextWeight := weightDetailRe.FindStringSubmatch(next)

		if item, ok := parsePromoLine(line); ok {
			receipt.Lines = append(receipt.Lines, item)
			continue
		}

		if m := inlineWeightRe.FindStringSubmatch(line); m != nil {
			qty := models.ParseAmount(m[2])
			price := models.ParseAmount(m[3])
			receipt.Lines = append(receipt.Lines, models.LineItem{
				Description: strings.TrimSpace(m[1]),
				Kind:        models.LineKindWeight,
				Quantity:    qty,
				UnitPrice:   price,
				Total:       qty.Mul(price).Round(2),
			})
			continue
		}

		if m := unitRe.FindStringSubmatch(line); m != nil {
			qty := models.ParseAmount(m[1])
			rest := strings.TrimSpace(m[2])

			if qty.Equal(decimal.NewFromInt(1)) && nextWeight != nil {
				// weight product printed with a leading "1":
				// "1 PATATA" + "0,802 kg 1,90 €/kg 1,52"
				receipt.Lines = append(receipt.Lines, weightItem(rest, nextWeight))
				i++
				continue
			}

			item, ok := parseUnitLine(qty, rest)
			if !ok {
				receipt.Warnings = append(receipt.Warnings, models.LineWarning{
					Line:   line,
					Reason: "unit line without a trailing amount",
				})
				continue
			}
			receipt.Lines = append(receipt.Lines, item)
			continue
		}

		if nextWeight != nil {
			// weight product without a leading quantity: "GALERAS" +
			// "0,426 kg 9,95 €/kg 4,24"
			receipt.Lines = append(receipt.Lines, weightItem(line, nextWeight))
			i++
			continue
		}

		if trailingAmountRe.MatchString(line) {
			receipt.Warnings = append(receipt.Warnings, models.LineWarning{
				Line:   line,
				Reason: "line matches no known item pattern",
			})
		}
		// No amount and no weight detail following: a section header,
		// ignored.
	}
}

func weightItem(description string, m []string) models.LineItem {
	return models.LineItem{
		Description: strings.TrimSpace(description),
		Kind:        models.LineKindWeight,
		Quantity:    models.ParseAmount(m[1]),
		UnitPrice:   models.ParseAmount(m[2]),
		Total:       models.ParseAmount(m[3]),
	}
}

// parseUnitLine handles "N DESC unit total" (N > 1) and "1 DESC total"
// (the printed amount is both unit price and total).
func parseUnitLine(qty decimal.Decimal, rest string) (models.LineItem, bool) {
	parts := strings.Fields(rest)
	if len(parts) < 2 || !amountTokenRe.MatchString(parts[len(parts)-1]) {
		return models.LineItem{}, false
	}
	total := models.ParseAmount(parts[len(parts)-1])

	if qty.GreaterThan(decimal.NewFromInt(1)) {
		if len(parts) < 3 || !amountTokenRe.MatchString(parts[len(parts)-2]) {
			return models.LineItem{}, false
		}
		return models.LineItem{
			Description: strings.Join(parts[:len(parts)-2], " "),
			Kind:        models.LineKindUnit,
			Quantity:    qty,
			UnitPrice:   models.ParseAmount(parts[len(parts)-2]),
			Total:       total,
		}, true
	}

	return models.LineItem{
		Description: strings.Join(parts[:len(parts)-1], " "),
		Kind:        models.LineKindUnit,
		Quantity:    qty,
		UnitPrice:   total,
		Total:       total,
	}, true
}

// parsePromoLine recognizes discount and "buy N pay M" adjustment lines by
// keyword plus a zero-or-negative net amount. Promo lines keep their sign so
// total reconciliation still balances, but they never enter price history.
func parsePromoLine(line string) (models.LineItem, bool) {
	upper := strings.ToUpper(line)
	keyword := false
	for _, kw := range promoKeywords {
		if strings.Contains(upper, kw) {
			keyword = true
			break
		}
	}
	if !keyword {
		return models.LineItem{}, false
	}

	m := trailingAmountRe.FindStringSubmatch(line)
	if m == nil {
		return models.LineItem{}, false
	}
	total := models.ParseAmount(m[1])
	if total.IsPositive() {
		return models.LineItem{}, false
	}

	return models.LineItem{
		Description: strings.TrimSpace(strings.TrimSuffix(line, m[1])),
		Kind:        models.LineKindPromo,
		Total:       total,
	}, true
}
