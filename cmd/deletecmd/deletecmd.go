// Package deletecmd contains the delete command: it removes a stored receipt
// by invoice number, the undo path for a mistaken import or manual entry.
package deletecmd

import (
	"context"
	"fmt"

	"fjacquet/ticket-tracker/cmd/root"
	"fjacquet/ticket-tracker/internal/dateutils"

	"github.com/spf13/cobra"
)

// Cmd is the delete command
var Cmd = &cobra.Command{
	Use:   "delete <invoice-number>",
	Short: "Delete a receipt by invoice number",
	Long: `Delete removes the receipt and its line items. Products, their family
assignments and cards are kept: price history and categorization work done
for a product survives deletion of any single receipt mentioning it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.DeleteByInvoice(context.Background(), args[0])
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("no receipt with invoice number %s", args[0])
	}

	fmt.Printf("🗑️  deleted %s of %s (%s, %s €, %d line(s))\n",
		summary.InvoiceNumber,
		summary.Date.Format(dateutils.LayoutTicket),
		summary.Store,
		summary.Total.StringFixed(2),
		summary.LineCount)
	return nil
}
