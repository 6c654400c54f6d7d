// Package manual contains the manual command: it enters a receipt built
// field-by-field from a YAML draft file, bypassing the text parser.
package manual

import (
	"context"
	"fmt"
	"os"

	"fjacquet/ticket-tracker/cmd/root"
	"fjacquet/ticket-tracker/internal/dateutils"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Cmd is the manual command
var Cmd = &cobra.Command{
	Use:   "manual <draft.yaml>",
	Short: "Enter a receipt manually from a YAML draft",
	Long: `Manual stores a receipt described field-by-field in a YAML file. The
draft enters the pipeline at the validation stage, so the same consistency
checks apply as for parsed tickets. Dates accept abbreviated forms such as
"20/2/26 9:5"; amounts accept the decimal comma.`,
	Args: cobra.ExactArgs(1),
	RunE: runManual,
}

// draft mirrors the YAML draft file.
type draft struct {
	Invoice   string      `yaml:"invoice"`
	Date      string      `yaml:"date"`
	Store     string      `yaml:"store"`
	Postal    string      `yaml:"postal_code"`
	CardLast4 string      `yaml:"card_last4"`
	Total     string      `yaml:"total"`
	TotalOnly bool        `yaml:"total_only"`
	Lines     []draftLine `yaml:"lines"`
}

type draftLine struct {
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	Quantity    string `yaml:"quantity"`
	UnitPrice   string `yaml:"unit_price"`
	Total       string `yaml:"total"`
}

func runManual(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading draft: %w", err)
	}

	var d draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("parsing draft: %w", err)
	}

	receipt, err := d.toReceipt()
	if err != nil {
		return err
	}

	s, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p := pipeline.New(s, root.Cfg.Epsilon(), root.Log)
	outcome := p.IngestDraft(context.Background(), args[0], receipt)

	switch outcome.Status {
	case pipeline.StatusStored:
		fmt.Printf("✅ stored as %s\n", receipt.InvoiceNumber)
	case pipeline.StatusStoredFlagged:
		fmt.Printf("⚠️  stored as %s, flagged for review:\n", receipt.InvoiceNumber)
		for _, f := range outcome.Findings {
			fmt.Printf("    - %s\n", f.Detail)
		}
	case pipeline.StatusDuplicate:
		fmt.Printf("↩️  %v\n", outcome.Err)
	case pipeline.StatusFailed:
		return outcome.Err
	}
	return nil
}

func (d *draft) toReceipt() (*models.Receipt, error) {
	date, err := dateutils.ParseFlexible(d.Date)
	if err != nil {
		return nil, err
	}

	invoice := d.Invoice
	if invoice == "" {
		invoice = "MANUAL-" + date.Format("20060102-1504")
	}

	receipt := &models.Receipt{
		InvoiceNumber: invoice,
		Date:          date,
		Store:         d.Store,
		PostalCode:    d.Postal,
		CardLast4:     d.CardLast4,
		Total:         models.ParseAmount(d.Total),
		Source:        models.SourceManual,
		TotalOnly:     d.TotalOnly,
	}

	for _, l := range d.Lines {
		kind := l.Kind
		if kind == "" {
			kind = models.LineKindUnit
		}
		switch kind {
		case models.LineKindUnit, models.LineKindWeight, models.LineKindPromo:
		default:
			return nil, fmt.Errorf("line %q: unknown kind %q", l.Description, kind)
		}

		quantity := models.ParseAmount(l.Quantity)
		if quantity.IsZero() && kind != models.LineKindPromo {
			quantity = decimal.NewFromInt(1)
		}
		unitPrice := models.ParseAmount(l.UnitPrice)
		total := models.ParseAmount(l.Total)
		if total.IsZero() && kind != models.LineKindPromo {
			total = quantity.Mul(unitPrice).Round(2)
		}

		receipt.Lines = append(receipt.Lines, models.LineItem{
			Description: l.Description,
			Kind:        kind,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Total:       total,
		})
	}

	return receipt, nil
}
