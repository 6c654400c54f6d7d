// Package report contains the report command: read-only spending aggregates,
// receipt listings, price alerts and card management, with optional CSV
// export.
package report

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fjacquet/ticket-tracker/cmd/root"
	"fjacquet/ticket-tracker/internal/dateutils"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/pricehistory"
	"fjacquet/ticket-tracker/internal/store"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	outputFile string
	limit      int
	offset     int
	cardLabel  string

	// Cmd is the report command
	Cmd = &cobra.Command{
		Use:   "report <view>",
		Short: "Spending reports and price alerts",
		Long: `Report prints one of the read-only views:

  summary   archive totals: ticket count, spend, period covered
  months    spend per calendar month
  families  spend per product family
  stores    spend per store
  top       products by accumulated spend
  receipts  receipt listing, newest first
  review    receipts flagged for manual review
  alerts    products whose latest price is anomalously high
  cards     known cards (use --label last4=name to label one)

With --output the view is written as CSV instead of printed.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"summary", "months", "families", "stores", "top", "receipts", "review", "alerts", "cards"},
		RunE:      runReport,
	}
)

// Init initializes the report command flags.
func Init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the view as CSV to this file")
	Cmd.Flags().IntVar(&limit, "limit", 20, "Row limit for top and receipts views")
	Cmd.Flags().IntVar(&offset, "offset", 0, "Row offset for the receipts view")
	Cmd.Flags().StringVar(&cardLabel, "label", "", "Label a card: last4=name (cards view only)")
}

// CSV row shapes. Amounts are fixed-point strings so spreadsheets do not
// reinterpret them.
type monthRow struct {
	Month    string `csv:"month"`
	Total    string `csv:"total_eur"`
	Receipts int    `csv:"receipts"`
}

type familyRow struct {
	Family string `csv:"family"`
	Total  string `csv:"total_eur"`
	Share  string `csv:"share_pct"`
}

type storeRow struct {
	Store    string `csv:"store"`
	Total    string `csv:"total_eur"`
	Receipts int    `csv:"receipts"`
}

type productRow struct {
	Product  string `csv:"product"`
	Family   string `csv:"family"`
	Total    string `csv:"total_eur"`
	Receipts int    `csv:"receipts"`
}

type receiptRow struct {
	Invoice     string `csv:"invoice"`
	Date        string `csv:"date"`
	Store       string `csv:"store"`
	Total       string `csv:"total_eur"`
	Lines       int    `csv:"lines"`
	NeedsReview bool   `csv:"needs_review"`
}

type alertRow struct {
	Product     string `csv:"product"`
	Date        string `csv:"date"`
	Price       string `csv:"price_eur"`
	Mean        string `csv:"historical_mean_eur"`
	IncreasePct string `csv:"increase_pct"`
	PerKg       bool   `csv:"per_kg"`
	Seasonal    bool   `csv:"seasonal"`
}

type cardRow struct {
	Last4 string `csv:"last4"`
	Label string `csv:"label"`
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	switch args[0] {
	case "summary":
		return reportSummary(ctx, s)
	case "months":
		return reportMonths(ctx, s)
	case "families":
		return reportFamilies(ctx, s)
	case "stores":
		return reportStores(ctx, s)
	case "top":
		return reportTop(ctx, s)
	case "receipts":
		return reportReceipts(ctx, s)
	case "review":
		return reportReview(ctx, s)
	case "alerts":
		return reportAlerts(ctx, s)
	case "cards":
		return reportCards(ctx, s)
	default:
		return fmt.Errorf("unknown view %q", args[0])
	}
}

func reportSummary(ctx context.Context, s *store.Store) error {
	summary, err := s.Summarize(ctx)
	if err != nil {
		return err
	}
	if summary.Receipts == 0 {
		fmt.Println("no receipts stored yet")
		return nil
	}

	fmt.Printf("🧾 tickets        %d\n", summary.Receipts)
	fmt.Printf("💶 total spend    %s €\n", summary.Total.StringFixed(2))
	fmt.Printf("📊 mean ticket    %s €\n", summary.Mean.StringFixed(2))
	fmt.Printf("📅 mean per month %s €\n", summary.MonthlyMean.StringFixed(2))
	fmt.Printf("🕐 period         %s to %s\n",
		summary.First.Format(dateutils.LayoutDay), summary.Last.Format(dateutils.LayoutDay))
	return nil
}

func reportMonths(ctx context.Context, s *store.Store) error {
	months, err := s.SpendByMonth(ctx)
	if err != nil {
		return err
	}

	rows := make([]monthRow, 0, len(months))
	for _, m := range months {
		rows = append(rows, monthRow{Month: m.Month, Total: m.Total.StringFixed(2), Receipts: m.Receipts})
	}
	if outputFile != "" {
		return writeCSV(rows)
	}
	for _, r := range rows {
		fmt.Printf("%s  %10s €  (%d ticket(s))\n", r.Month, r.Total, r.Receipts)
	}
	return nil
}

func reportFamilies(ctx context.Context, s *store.Store) error {
	families, err := s.SpendByFamily(ctx)
	if err != nil {
		return err
	}

	grand := decimal.Zero
	for _, f := range families {
		grand = grand.Add(f.Total)
	}

	rows := make([]familyRow, 0, len(families))
	for _, f := range families {
		name := strings.TrimSpace(f.Emoji + " " + f.Name)
		if f.FamilyID == 0 {
			name = "Sin categoría"
		}
		share := decimal.Zero
		if grand.IsPositive() {
			share = f.Total.Div(grand).Mul(decimal.NewFromInt(100)).Round(1)
		}
		rows = append(rows, familyRow{
			Family: name,
			Total:  f.Total.StringFixed(2),
			Share:  share.StringFixed(1),
		})
	}
	if outputFile != "" {
		return writeCSV(rows)
	}
	for _, r := range rows {
		fmt.Printf("%-35s %10s €  %5s%%\n", r.Family, r.Total, r.Share)
	}
	return nil
}

func reportStores(ctx context.Context, s *store.Store) error {
	stores, err := s.SpendByStore(ctx)
	if err != nil {
		return err
	}

	rows := make([]storeRow, 0, len(stores))
	for _, st := range stores {
		rows = append(rows, storeRow{Store: st.Store, Total: st.Total.StringFixed(2), Receipts: st.Receipts})
	}
	if outputFile != "" {
		return writeCSV(rows)
	}
	for _, r := range rows {
		fmt.Printf("%-45s %10s €  (%d ticket(s))\n", r.Store, r.Total, r.Receipts)
	}
	return nil
}

func reportTop(ctx context.Context, s *store.Store) error {
	products, err := s.TopProducts(ctx, limit)
	if err != nil {
		return err
	}

	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		family := strings.TrimSpace(p.FamilyEmoji + " " + p.FamilyName)
		rows = append(rows, productRow{
			Product:  p.Name,
			Family:   family,
			Total:    p.TotalSpend.StringFixed(2),
			Receipts: p.ReceiptCount,
		})
	}
	if outputFile != "" {
		return writeCSV(rows)
	}
	for _, r := range rows {
		fmt.Printf("%-40s %-30s %10s €  (%d)\n", r.Product, r.Family, r.Total, r.Receipts)
	}
	return nil
}

func reportReceipts(ctx context.Context, s *store.Store) error {
	receipts, err := s.ListReceipts(ctx, limit, offset)
	if err != nil {
		return err
	}
	return printReceipts(receipts)
}

func reportReview(ctx context.Context, s *store.Store) error {
	receipts, err := s.ReceiptsNeedingReview(ctx)
	if err != nil {
		return err
	}
	if len(receipts) == 0 && outputFile == "" {
		fmt.Println("✅ nothing flagged for review")
		return nil
	}
	return printReceipts(receipts)
}

func printReceipts(receipts []models.ReceiptSummary) error {
	rows := make([]receiptRow, 0, len(receipts))
	for _, r := range receipts {
		rows = append(rows, receiptRow{
			Invoice:     r.InvoiceNumber,
			Date:        r.Date.Format(dateutils.LayoutISO),
			Store:       r.Store,
			Total:       r.Total.StringFixed(2),
			Lines:       r.LineCount,
			NeedsReview: r.NeedsReview,
		})
	}
	if outputFile != "" {
		return writeCSV(rows)
	}
	for _, r := range rows {
		flag := " "
		if r.NeedsReview {
			flag = "⚠️"
		}
		fmt.Printf("%s %-20s %s  %-40s %10s €  (%d line(s))\n",
			flag, r.Invoice, r.Date, r.Store, r.Total, r.Lines)
	}
	return nil
}

func reportAlerts(ctx context.Context, s *store.Store) error {
	analyzer := pricehistory.NewAnalyzer(root.Log)
	analyzer.MinSamples = root.Cfg.Alerts.MinSamples
	analyzer.ThresholdPct = root.Cfg.ThresholdPct()
	analyzer.SeasonalThresholdPct = root.Cfg.SeasonalThresholdPct()

	alerts, err := analyzer.Alerts(ctx, s)
	if err != nil {
		return err
	}

	rows := make([]alertRow, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, alertRow{
			Product:     a.Product.Name,
			Date:        a.Date.Format(dateutils.LayoutDay),
			Price:       a.Price.StringFixed(2),
			Mean:        a.Mean.StringFixed(2),
			IncreasePct: a.IncreasePct.String(),
			PerKg:       a.Weight,
			Seasonal:    a.Seasonal,
		})
	}
	if outputFile != "" {
		return writeCSV(rows)
	}
	if len(rows) == 0 {
		fmt.Println("✅ no price anomalies")
		return nil
	}
	for _, r := range rows {
		unit := "€"
		if r.PerKg {
			unit = "€/kg"
		}
		fmt.Printf("📈 %-40s %s %s (mean %s, +%s%%)\n", r.Product, r.Price, unit, r.Mean, r.IncreasePct)
	}
	return nil
}

func reportCards(ctx context.Context, s *store.Store) error {
	if cardLabel != "" {
		last4, label, found := strings.Cut(cardLabel, "=")
		if !found || last4 == "" || label == "" {
			return fmt.Errorf("--label expects last4=name, got %q", cardLabel)
		}
		if err := s.LabelCard(ctx, last4, label); err != nil {
			return err
		}
		fmt.Printf("✅ card %s labeled %q\n", last4, label)
	}

	cards, err := s.Cards(ctx)
	if err != nil {
		return err
	}

	rows := make([]cardRow, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, cardRow{Last4: c.Last4, Label: c.Label})
	}
	if outputFile != "" {
		return writeCSV(rows)
	}
	for _, r := range rows {
		label := r.Label
		if label == "" {
			label = "(unlabeled)"
		}
		fmt.Printf("💳 **** %s  %s\n", r.Last4, label)
	}
	return nil
}

// writeCSV writes rows to the --output file with gocsv.
func writeCSV[T any](rows []T) error {
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputFile, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	fmt.Printf("✅ wrote %s (%d row(s))\n", outputFile, len(rows))
	return nil
}
