package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"fjacquet/ticket-tracker/internal/dateutils"
	"fjacquet/ticket-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// MonthSpend is the total spent across the receipts of one calendar month.
type MonthSpend struct {
	Month    string
	Total    decimal.Decimal
	Receipts int
}

// FamilySpend is the total spent on the products of one family. Promotional
// lines carry no product and are excluded.
type FamilySpend struct {
	FamilyID int64
	Name     string
	Emoji    string
	Total    decimal.Decimal
}

// StoreSpend is the total spent at one store.
type StoreSpend struct {
	Store    string
	Total    decimal.Decimal
	Receipts int
}

// Summary condenses the whole archive: how many tickets, how much spent,
// over which period. MonthlyMean divides the total over the distinct
// calendar months with at least one receipt.
type Summary struct {
	Receipts    int
	Total       decimal.Decimal
	Mean        decimal.Decimal
	MonthlyMean decimal.Decimal
	First       time.Time
	Last        time.Time
}

// Families returns the seeded family set ordered by id.
func (s *Store) Families(ctx context.Context) ([]models.Family, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, emoji FROM families ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing families: %w", err)
	}
	defer rows.Close()

	var families []models.Family
	for rows.Next() {
		var f models.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.Emoji); err != nil {
			return nil, fmt.Errorf("scanning family: %w", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

// Products returns the whole catalog ordered by key.
func (s *Store) Products(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, key, name, family_id FROM products ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// UncategorizedProducts returns every product without a family, enriched with
// spend figures, ordered by total spend descending so the interactive flow
// presents the products that matter most first.
func (s *Store) UncategorizedProducts(ctx context.Context) ([]models.ProductStats, error) {
	return s.productStats(ctx, "WHERE p.family_id IS NULL", nil, 0)
}

// SearchProducts returns products whose key or display name contains the
// query, case-insensitively.
func (s *Store) SearchProducts(ctx context.Context, query string) ([]models.ProductStats, error) {
	like := "%" + query + "%"
	return s.productStats(ctx, "WHERE p.key LIKE ? OR p.name LIKE ?", []any{like, like}, 0)
}

// TopProducts returns the products with the highest accumulated spend.
func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.ProductStats, error) {
	return s.productStats(ctx, "", nil, limit)
}

func (s *Store) productStats(ctx context.Context, where string, args []any, limit int) ([]models.ProductStats, error) {
	q := `
		SELECT p.id, p.key, p.name, p.family_id,
		       COALESCE(f.name, ''), COALESCE(f.emoji, ''),
		       COALESCE(GROUP_CONCAT(li.total, char(31)), ''),
		       COUNT(DISTINCT li.receipt_id)
		FROM products p
		LEFT JOIN families f ON f.id = p.family_id
		LEFT JOIN line_items li ON li.product_id = p.id
		` + where + `
		GROUP BY p.id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying product stats: %w", err)
	}
	defer rows.Close()

	var stats []models.ProductStats
	for rows.Next() {
		var ps models.ProductStats
		var familyID sql.NullInt64
		var totals string
		if err := rows.Scan(&ps.ID, &ps.Key, &ps.Name, &familyID,
			&ps.FamilyName, &ps.FamilyEmoji, &totals, &ps.ReceiptCount); err != nil {
			return nil, fmt.Errorf("scanning product stats: %w", err)
		}
		if familyID.Valid {
			ps.FamilyID = &familyID.Int64
		}
		ps.TotalSpend = sumAmountList(totals)
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortByTotalSpend(stats)
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

// AssignFamily sets a product's family. The family must exist; the foreign
// key rejects anything outside the seeded set.
func (s *Store) AssignFamily(ctx context.Context, productID, familyID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET family_id = ? WHERE id = ?", familyID, productID)
	if err != nil {
		return fmt.Errorf("assigning family %d to product %d: %w", familyID, productID, err)
	}
	return requireOneRow(res, "product", productID)
}

// UnassignFamily returns a product to the uncategorized state. Used by the
// interactive flow's undo.
func (s *Store) UnassignFamily(ctx context.Context, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET family_id = NULL WHERE id = ?", productID)
	if err != nil {
		return fmt.Errorf("unassigning product %d: %w", productID, err)
	}
	return requireOneRow(res, "product", productID)
}

// PriceObservations returns the price history of a product ordered by date:
// one observation per non-promotional stored line. Weight lines carry a
// per-kilogram price and are marked so the analyzer compares kinds only
// within themselves.
func (s *Store) PriceObservations(ctx context.Context, productID int64) ([]models.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.date, li.unit_price, li.kind
		FROM line_items li
		JOIN receipts r ON r.id = li.receipt_id
		WHERE li.product_id = ? AND li.kind != ?
		ORDER BY r.date`, productID, models.LineKindPromo)
	if err != nil {
		return nil, fmt.Errorf("loading price history for product %d: %w", productID, err)
	}
	defer rows.Close()

	var obs []models.PriceObservation
	for rows.Next() {
		var dateStr, priceStr, kind string
		if err := rows.Scan(&dateStr, &priceStr, &kind); err != nil {
			return nil, fmt.Errorf("scanning price observation: %w", err)
		}
		date, err := time.Parse(dateutils.LayoutISO, dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", dateStr, err)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("stored unit price %q: %w", priceStr, err)
		}
		obs = append(obs, models.PriceObservation{
			Date:      date,
			UnitPrice: price,
			Weight:    kind == models.LineKindWeight,
		})
	}
	return obs, rows.Err()
}

// Cards lists the known masked card references.
func (s *Store) Cards(ctx context.Context) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, last4, label FROM cards ORDER BY last4")
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.Last4, &c.Label); err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// LabelCard attaches a human label to a masked card reference.
func (s *Store) LabelCard(ctx context.Context, last4, label string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cards SET label = ? WHERE last4 = ?", label, last4)
	if err != nil {
		return fmt.Errorf("labeling card %s: %w", last4, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no card with last4 %s", last4)
	}
	return nil
}

// ListReceipts returns a page of receipt summaries, newest first.
func (s *Store) ListReceipts(ctx context.Context, limit, offset int) ([]models.ReceiptSummary, error) {
	return s.receiptSummaries(ctx, "", nil, limit, offset)
}

// ReceiptsNeedingReview returns every receipt flagged during validation.
func (s *Store) ReceiptsNeedingReview(ctx context.Context) ([]models.ReceiptSummary, error) {
	return s.receiptSummaries(ctx, "WHERE r.needs_review = 1", nil, 0, 0)
}

func (s *Store) receiptSummaries(ctx context.Context, where string, args []any, limit, offset int) ([]models.ReceiptSummary, error) {
	q := `
		SELECT r.id, r.invoice_number, r.date, r.store, r.total, r.needs_review,
		       (SELECT COUNT(*) FROM line_items li WHERE li.receipt_id = r.id)
		FROM receipts r ` + where + " ORDER BY r.date DESC, r.id DESC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	defer rows.Close()

	var summaries []models.ReceiptSummary
	for rows.Next() {
		summary, err := scanReceiptSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, rows.Err()
}

// Summarize folds every receipt into the archive-level figures. Returns a
// zero-valued summary when nothing is stored yet.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date, total FROM receipts ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	defer rows.Close()

	summary := &Summary{}
	months := map[string]struct{}{}
	for rows.Next() {
		var dateStr, totalStr string
		if err := rows.Scan(&dateStr, &totalStr); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		date, err := time.Parse(dateutils.LayoutISO, dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", dateStr, err)
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("stored total %q: %w", totalStr, err)
		}

		if summary.Receipts == 0 {
			summary.First = date
		}
		summary.Last = date
		summary.Total = summary.Total.Add(total)
		summary.Receipts++
		months[dateutils.MonthKey(date)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if summary.Receipts > 0 {
		summary.Mean = summary.Total.Div(decimal.NewFromInt(int64(summary.Receipts))).Round(2)
		summary.MonthlyMean = summary.Total.Div(decimal.NewFromInt(int64(len(months)))).Round(2)
	}
	return summary, nil
}

// SpendByMonth aggregates receipt totals per calendar month. Sums are folded
// in decimal arithmetic rather than delegated to sqlite, which would go
// through floats.
func (s *Store) SpendByMonth(ctx context.Context) ([]MonthSpend, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT substr(date, 1, 7), total FROM receipts ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("querying monthly spend: %w", err)
	}
	defer rows.Close()

	var out []MonthSpend
	index := map[string]int{}
	for rows.Next() {
		var month, totalStr string
		if err := rows.Scan(&month, &totalStr); err != nil {
			return nil, fmt.Errorf("scanning monthly spend: %w", err)
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("stored total %q: %w", totalStr, err)
		}
		i, ok := index[month]
		if !ok {
			index[month] = len(out)
			out = append(out, MonthSpend{Month: month})
			i = len(out) - 1
		}
		out[i].Total = out[i].Total.Add(total)
		out[i].Receipts++
	}
	return out, rows.Err()
}

// SpendByFamily aggregates line totals per product family. Uncategorized
// products are reported under an empty family name with id zero.
func (s *Store) SpendByFamily(ctx context.Context) ([]FamilySpend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(f.id, 0), COALESCE(f.name, ''), COALESCE(f.emoji, ''), li.total
		FROM line_items li
		JOIN products p ON p.id = li.product_id
		LEFT JOIN families f ON f.id = p.family_id
		WHERE li.kind != ?`, models.LineKindPromo)
	if err != nil {
		return nil, fmt.Errorf("querying family spend: %w", err)
	}
	defer rows.Close()

	var out []FamilySpend
	index := map[int64]int{}
	for rows.Next() {
		var id int64
		var name, emoji, totalStr string
		if err := rows.Scan(&id, &name, &emoji, &totalStr); err != nil {
			return nil, fmt.Errorf("scanning family spend: %w", err)
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("stored line total %q: %w", totalStr, err)
		}
		i, ok := index[id]
		if !ok {
			index[id] = len(out)
			out = append(out, FamilySpend{FamilyID: id, Name: name, Emoji: emoji})
			i = len(out) - 1
		}
		out[i].Total = out[i].Total.Add(total)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

// SpendByStore aggregates receipt totals per store identifier.
func (s *Store) SpendByStore(ctx context.Context) ([]StoreSpend, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT store, total FROM receipts ORDER BY store")
	if err != nil {
		return nil, fmt.Errorf("querying store spend: %w", err)
	}
	defer rows.Close()

	var out []StoreSpend
	index := map[string]int{}
	for rows.Next() {
		var storeName, totalStr string
		if err := rows.Scan(&storeName, &totalStr); err != nil {
			return nil, fmt.Errorf("scanning store spend: %w", err)
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("stored total %q: %w", totalStr, err)
		}
		i, ok := index[storeName]
		if !ok {
			index[storeName] = len(out)
			out = append(out, StoreSpend{Store: storeName})
			i = len(out) - 1
		}
		out[i].Total = out[i].Total.Add(total)
		out[i].Receipts++
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceiptSummary(row rowScanner) (*models.ReceiptSummary, error) {
	var summary models.ReceiptSummary
	var dateStr, totalStr string
	var needsReview int
	err := row.Scan(&summary.ID, &summary.InvoiceNumber, &dateStr, &summary.Store,
		&totalStr, &needsReview, &summary.LineCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning receipt summary: %w", err)
	}

	summary.Date, err = time.Parse(dateutils.LayoutISO, dateStr)
	if err != nil {
		return nil, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	summary.Total, err = decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("stored total %q: %w", totalStr, err)
	}
	summary.NeedsReview = needsReview == 1
	return &summary, nil
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var p models.Product
		var familyID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &familyID); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		if familyID.Valid {
			p.FamilyID = &familyID.Int64
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// sumAmountList folds a GROUP_CONCAT list of decimal strings, separated by
// the unit separator (char 31) so amounts never collide with the delimiter.
func sumAmountList(concat string) decimal.Decimal {
	sum := decimal.Zero
	if concat == "" {
		return sum
	}
	for _, part := range strings.Split(concat, "\x1f") {
		if d, err := decimal.NewFromString(part); err == nil {
			sum = sum.Add(d)
		}
	}
	return sum
}

func sortByTotalSpend(stats []models.ProductStats) {
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TotalSpend.GreaterThan(stats[j].TotalSpend)
	})
}

func requireOneRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no %s with id %d", entity, id)
	}
	return nil
}
