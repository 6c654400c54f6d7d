package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fjacquet/ticket-tracker/internal/dateutils"
	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/parsererror"
	"fjacquet/ticket-tracker/internal/productkey"
)

// PersistResult reports the outcome of one persist call. Duplicate means a
// receipt with the same invoice number already existed and nothing was
// written; ReceiptID then refers to the existing row.
type PersistResult struct {
	ReceiptID int64
	Duplicate bool
}

// PersistReceipt stores a validated receipt atomically: the receipt row, the
// card reference, one product per normalized key (created on first sighting,
// reused on collision) and every line item, in a single transaction. A
// receipt whose invoice number is already stored is a no-op success. Any
// other failure rolls the transaction back entirely and surfaces as a
// StorageIntegrityError.
func (s *Store) PersistReceipt(ctx context.Context, receipt *models.Receipt) (PersistResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PersistResult{}, &parsererror.StorageIntegrityError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM receipts WHERE invoice_number = ?", receipt.InvoiceNumber).
		Scan(&existingID)
	switch {
	case err == nil:
		s.logger.WithField("invoice", receipt.InvoiceNumber).Info("Duplicate invoice, skipping")
		return PersistResult{ReceiptID: existingID, Duplicate: true}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return PersistResult{}, &parsererror.StorageIntegrityError{Op: "duplicate check", Err: err}
	}

	var cardID any
	if receipt.CardLast4 != "" {
		id, err := upsertCard(ctx, tx, receipt.CardLast4)
		if err != nil {
			return PersistResult{}, &parsererror.StorageIntegrityError{Op: "upsert card", Err: err}
		}
		cardID = id
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO receipts (invoice_number, date, store, postal_code, card_id, total, source, needs_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.InvoiceNumber, dateutils.ToISO(receipt.Date), receipt.Store,
		receipt.PostalCode, cardID, receipt.Total.StringFixed(2), receipt.Source,
		boolToInt(receipt.NeedsReview))
	if err != nil {
		// Loser of a concurrent race on the same invoice: the unique
		// constraint fires even though the pre-check saw no row.
		if isUniqueViolation(err) {
			s.logger.WithField("invoice", receipt.InvoiceNumber).Info("Duplicate invoice, skipping")
			return PersistResult{Duplicate: true}, nil
		}
		return PersistResult{}, &parsererror.StorageIntegrityError{Op: "insert receipt", Err: err}
	}
	receiptID, err := res.LastInsertId()
	if err != nil {
		return PersistResult{}, &parsererror.StorageIntegrityError{Op: "insert receipt", Err: err}
	}

	for _, line := range receipt.Lines {
		var productID any
		if !line.IsPromo() {
			id, err := upsertProduct(ctx, tx, line.Description)
			if err != nil {
				return PersistResult{}, &parsererror.StorageIntegrityError{Op: "upsert product", Err: err}
			}
			productID = id
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO line_items (receipt_id, product_id, description, kind, quantity, unit_price, total)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			receiptID, productID, line.Description, line.Kind,
			line.Quantity.String(), line.UnitPrice.String(), line.Total.StringFixed(2))
		if err != nil {
			return PersistResult{}, &parsererror.StorageIntegrityError{Op: "insert line item", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return PersistResult{}, &parsererror.StorageIntegrityError{Op: "commit", Err: err}
	}

	s.logger.WithFields(
		logging.Field{Key: "invoice", Value: receipt.InvoiceNumber},
		logging.Field{Key: "lines", Value: len(receipt.Lines)},
	).Info("Receipt stored")

	return PersistResult{ReceiptID: receiptID}, nil
}

// DeleteByInvoice removes a receipt and, through the cascade, its line items.
// Products, their family assignments, and cards are untouched. Returns the
// summary of the deleted receipt, or nil when no such invoice exists.
func (s *Store) DeleteByInvoice(ctx context.Context, invoiceNumber string) (*models.ReceiptSummary, error) {
	summary, err := s.receiptSummaryByInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, nil
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", summary.ID)
	if err != nil {
		return nil, &parsererror.StorageIntegrityError{Op: "delete receipt", Err: err}
	}

	s.logger.WithField("invoice", invoiceNumber).Info("Receipt deleted")
	return summary, nil
}

func upsertCard(ctx context.Context, tx *sql.Tx, last4 string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM cards WHERE last4 = ?", last4).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO cards (last4) VALUES (?)", last4)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// upsertProduct resolves a raw line description to a product id via the
// normalized key. The first raw spelling seen becomes the catalog name.
func upsertProduct(ctx context.Context, tx *sql.Tx, rawName string) (int64, error) {
	key := productkey.Resolve(rawName)

	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM products WHERE key = ?", key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO products (key, name) VALUES (?, ?)", key, strings.TrimSpace(rawName))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) receiptSummaryByInvoice(ctx context.Context, invoiceNumber string) (*models.ReceiptSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.invoice_number, r.date, r.store, r.total, r.needs_review,
		       (SELECT COUNT(*) FROM line_items li WHERE li.receipt_id = r.id)
		FROM receipts r WHERE r.invoice_number = ?`, invoiceNumber)

	summary, err := scanReceiptSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading receipt %s: %w", invoiceNumber, err)
	}
	return summary, nil
}
