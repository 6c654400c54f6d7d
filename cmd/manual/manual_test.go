package manual

import (
	"testing"
	"time"

	"fjacquet/ticket-tracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftToReceipt(t *testing.T) {
	d := &draft{
		Date:  "20/2/26 9:5",
		Store: "MERCADONA CENTRO",
		Total: "4,11",
		Lines: []draftLine{
			{Description: "LECHE ENTERA 1L", Quantity: "3", UnitPrice: "0,97"},
			{Description: "PAN DE PUEBLO", Total: "1,20"},
		},
	}

	r, err := d.toReceipt()
	require.NoError(t, err)

	assert.Equal(t, "MANUAL-20260220-0905", r.InvoiceNumber, "invoice derived from the flexible date")
	assert.Equal(t, time.Date(2026, 2, 20, 9, 5, 0, 0, time.UTC), r.Date)
	assert.Equal(t, models.SourceManual, r.Source)

	require.Len(t, r.Lines, 2)
	assert.True(t, r.Lines[0].Total.Equal(decimal.RequireFromString("2.91")), "line total computed from quantity and unit price")
	assert.Equal(t, models.LineKindUnit, r.Lines[0].Kind)
	assert.True(t, r.Lines[1].Quantity.Equal(decimal.NewFromInt(1)), "quantity defaults to one")
}

func TestDraftToReceipt_BadInput(t *testing.T) {
	_, err := (&draft{Date: "sometime"}).toReceipt()
	assert.Error(t, err)

	_, err = (&draft{
		Date:  "20/02/2026",
		Lines: []draftLine{{Description: "X", Kind: "bulk"}},
	}).toReceipt()
	assert.Error(t, err)
}
